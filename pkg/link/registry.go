package link

import (
	"fmt"
	"sync"

	"github.com/optomotion/aptlink/pkg/apt"
)

// Registry is the runtime table of per-identity broadcast channels. Channels
// are materialized on first subscription and torn down when the last
// subscriber leaves, so memory stays bounded no matter how many identities
// the protocol table defines.
//
// Publish lookups are lock-free; the registry mutex guards only subscription
// changes and shutdown. Each Registry belongs to exactly one connection, so
// independent device connections in one process cannot cross-talk.
type Registry struct {
	buffer int
	slots  sync.Map // channel slot (uint16) -> *slot

	mu     sync.Mutex
	closed bool
	err    error
}

// slot holds the current subscribers of one broadcast channel.
type slot struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Subscription is one receive handle on a broadcast channel. Every
// subscriber to an identity receives every message of that identity published
// after its Subscribe call returned, in decode order.
type Subscription struct {
	ch  chan *apt.Message
	reg *Registry
	key uint16

	removeOnce sync.Once
	chOnce     sync.Once
}

// NewRegistry returns an empty registry. buffer is the per-subscriber channel
// capacity; values below one fall back to DefaultSubscriberBuffer.
func NewRegistry(buffer int) *Registry {
	if buffer < 1 {
		buffer = DefaultSubscriberBuffer
	}
	return &Registry{buffer: buffer}
}

// Subscribe registers a receiver for the given identity. Messages published
// before Subscribe returns are not replayed: subscribe before sending the
// command that triggers the response.
func (r *Registry) Subscribe(id apt.Identity) (*Subscription, error) {
	key, ok := apt.ChannelSlot(id)
	if !ok {
		return nil, fmt.Errorf("subscribing to %s: %w", id, ErrNoChannel)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		err := r.err
		if err == nil {
			err = ErrClosed
		}
		return nil, fmt.Errorf("subscribing to %s: %w", id, err)
	}

	sub := &Subscription{
		ch:  make(chan *apt.Message, r.buffer),
		reg: r,
		key: key,
	}

	v, _ := r.slots.LoadOrStore(key, &slot{})
	sl := v.(*slot)
	sl.mu.Lock()
	sl.subs = append(sl.subs, sub)
	sl.mu.Unlock()

	return sub, nil
}

// Publish delivers the message to every current subscriber of its identity
// and reports whether anyone received it. Messages without a channel slot or
// without subscribers are dropped; that is expected traffic, not an error.
//
// Publish never blocks: a subscriber whose buffer is full loses its oldest
// undelivered message instead of stalling the decode loop.
func (r *Registry) Publish(m *apt.Message) bool {
	key, ok := apt.ChannelSlot(m.ID())
	if !ok {
		return false
	}
	v, ok := r.slots.Load(key)
	if !ok {
		return false
	}

	sl := v.(*slot)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if len(sl.subs) == 0 {
		return false
	}
	for _, sub := range sl.subs {
		select {
		case sub.ch <- m:
		default:
			// Subscriber is behind. Shed its oldest message and retry once;
			// a concurrent receive can make either select miss, never both.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- m:
			default:
			}
		}
	}
	return true
}

// Shutdown closes every subscription and marks the registry closed with the
// given error, which later Subscribe calls return. Used when the connection's
// decode loop hits a fatal error: no further message on this stream can be
// trusted, so every in-flight waiter must learn of the failure.
func (r *Registry) Shutdown(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.err = err

	r.slots.Range(func(key, v any) bool {
		sl := v.(*slot)
		sl.mu.Lock()
		for _, sub := range sl.subs {
			sub.closeCh()
		}
		sl.subs = nil
		sl.mu.Unlock()
		r.slots.Delete(key)
		return true
	})
}

// Err returns the error the registry was shut down with, if any.
func (r *Registry) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// C returns the channel messages are delivered on. The channel is closed when
// the subscription is closed or the connection fails.
func (s *Subscription) C() <-chan *apt.Message {
	return s.ch
}

// Close removes the subscription from the registry. If it was the channel's
// last subscriber the slot is reclaimed. Close is idempotent and safe to call
// concurrently with delivery.
func (s *Subscription) Close() {
	s.removeOnce.Do(func() {
		r := s.reg
		r.mu.Lock()
		defer r.mu.Unlock()

		if v, ok := r.slots.Load(s.key); ok {
			sl := v.(*slot)
			sl.mu.Lock()
			for i, sub := range sl.subs {
				if sub == s {
					sl.subs = append(sl.subs[:i], sl.subs[i+1:]...)
					break
				}
			}
			empty := len(sl.subs) == 0
			sl.mu.Unlock()
			if empty {
				r.slots.Delete(s.key)
			}
		}
	})
	s.closeCh()
}

func (s *Subscription) closeCh() {
	s.chOnce.Do(func() { close(s.ch) })
}
