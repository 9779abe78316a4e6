package link

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optomotion/aptlink/pkg/apt"
)

func TestSubscribeNoChannel(t *testing.T) {
	reg := NewRegistry(0)

	// Outbound commands have no response channel in the protocol table.
	_, err := reg.Subscribe(apt.MsgMotMoveHome)
	require.ErrorIs(t, err, ErrNoChannel)
}

func TestBroadcastFanOut(t *testing.T) {
	const subscribers = 8
	const messages = 5

	reg := NewRegistry(messages)

	subs := make([]*Subscription, subscribers)
	for i := range subs {
		sub, err := reg.Subscribe(apt.MsgMotMoveHomed)
		require.NoError(t, err)
		defer sub.Close()
		subs[i] = sub
	}

	for i := 0; i < messages; i++ {
		m := apt.Short(apt.MsgMotMoveHomed, uint8(i), 0)
		require.True(t, reg.Publish(m), "publish %d found no subscribers", i)
	}

	// Every subscriber sees every message, in decode order.
	for i, sub := range subs {
		for j := 0; j < messages; j++ {
			select {
			case m := <-sub.C():
				assert.Equal(t, uint8(j), m.Header.Param1, "subscriber %d message %d out of order", i, j)
			case <-time.After(time.Second):
				t.Fatalf("subscriber %d: message %d not delivered", i, j)
			}
		}
	}
}

func TestNoReplay(t *testing.T) {
	reg := NewRegistry(0)

	early, err := reg.Subscribe(apt.MsgMotMoveHomed)
	require.NoError(t, err)
	defer early.Close()

	reg.Publish(apt.Short(apt.MsgMotMoveHomed, 1, 0))

	late, err := reg.Subscribe(apt.MsgMotMoveHomed)
	require.NoError(t, err)
	defer late.Close()

	// The early subscriber has the message, the late one must not.
	require.Len(t, early.C(), 1)
	assert.Empty(t, late.C(), "late subscriber received a replayed message")
}

func TestPublishWithoutSubscribers(t *testing.T) {
	reg := NewRegistry(0)

	assert.False(t, reg.Publish(apt.Short(apt.MsgMotMoveHomed, 1, 0)))

	// Identities with no channel slot at all are also dropped quietly.
	assert.False(t, reg.Publish(apt.Short(apt.MsgMotMoveHome, 1, 0)))
}

func TestConcurrentFirstSubscription(t *testing.T) {
	const goroutines = 32

	reg := NewRegistry(1)

	var wg sync.WaitGroup
	subs := make([]*Subscription, goroutines)
	for i := range subs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub, err := reg.Subscribe(apt.MsgMotMoveHomed)
			assert.NoError(t, err)
			subs[i] = sub
		}(i)
	}
	wg.Wait()

	// All racing first-subscribers must land on the same channel slot: one
	// publish reaches every one of them.
	require.True(t, reg.Publish(apt.Short(apt.MsgMotMoveHomed, 1, 0)))
	for i, sub := range subs {
		select {
		case <-sub.C():
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d missed the broadcast", i)
		}
		sub.Close()
	}
}

func TestSlotTeardown(t *testing.T) {
	reg := NewRegistry(0)

	sub, err := reg.Subscribe(apt.MsgMotMoveHomed)
	require.NoError(t, err)
	sub.Close()
	sub.Close() // idempotent

	key, _ := apt.ChannelSlot(apt.MsgMotMoveHomed)
	_, live := reg.slots.Load(key)
	assert.False(t, live, "slot not reclaimed after last unsubscribe")
	assert.False(t, reg.Publish(apt.Short(apt.MsgMotMoveHomed, 1, 0)))
}

func TestSlowSubscriberShedsOldest(t *testing.T) {
	reg := NewRegistry(2)

	sub, err := reg.Subscribe(apt.MsgMotMoveHomed)
	require.NoError(t, err)
	defer sub.Close()

	// Publish more than the buffer holds; Publish must never block and the
	// newest messages win.
	for i := 0; i < 5; i++ {
		reg.Publish(apt.Short(apt.MsgMotMoveHomed, uint8(i), 0))
	}

	first := <-sub.C()
	second := <-sub.C()
	assert.Equal(t, uint8(3), first.Header.Param1)
	assert.Equal(t, uint8(4), second.Header.Param1)
	assert.Empty(t, sub.C())
}

func TestShutdownReleasesSubscribers(t *testing.T) {
	reg := NewRegistry(0)

	sub, err := reg.Subscribe(apt.MsgMotMoveHomed)
	require.NoError(t, err)

	cause := errors.New("framing lost")
	reg.Shutdown(cause)

	select {
	case _, ok := <-sub.C():
		assert.False(t, ok, "expected closed channel after shutdown")
	case <-time.After(time.Second):
		t.Fatal("subscriber not released by shutdown")
	}

	_, err = reg.Subscribe(apt.MsgMotMoveHomed)
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, reg.Err(), cause)
}
