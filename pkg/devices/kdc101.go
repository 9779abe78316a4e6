package devices

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// KDC101 scale factors for stages driven by the K-Cube DC servo controller,
// converting real-world units to encoder counts.
const (
	KDC101PositionScale     = 34554.96   // counts per millimetre
	KDC101VelocityScale     = 772981.3692
	KDC101AccelerationScale = 263.8443072
)

// kdc101SerialPrefix leads every KDC101 serial number.
const kdc101SerialPrefix = "27"

// KDC101 is a K-Cube DC servo motor controller. It layers millimetre unit
// conversions over the generic Device operations; the raw count interface
// stays available through the embedded Device.
type KDC101 struct {
	*Device
}

// NewKDC101 wraps a Device as a KDC101. The serial number must carry the
// KDC101 prefix.
func NewKDC101(dev *Device) (*KDC101, error) {
	if !strings.HasPrefix(dev.Serial(), kdc101SerialPrefix) {
		return nil, fmt.Errorf("serial %q does not identify a KDC101 (prefix %q)", dev.Serial(), kdc101SerialPrefix)
	}
	return &KDC101{Device: dev}, nil
}

// MillimetresToCounts converts a position in millimetres to encoder counts,
// rounding to the nearest count.
func MillimetresToCounts(mm float64) int32 {
	return int32(math.Round(mm * KDC101PositionScale))
}

// CountsToMillimetres converts an encoder count position to millimetres.
func CountsToMillimetres(counts int32) float64 {
	return float64(counts) / KDC101PositionScale
}

// MoveAbsoluteMM moves channel 1 to an absolute position in millimetres and
// blocks until the move completes.
func (k *KDC101) MoveAbsoluteMM(ctx context.Context, mm float64) error {
	return k.MoveAbsolute(ctx, 1, MillimetresToCounts(mm))
}

// PositionMM reads the current position of channel 1 in millimetres.
func (k *KDC101) PositionMM(ctx context.Context) (float64, error) {
	status, err := k.Status(ctx, 1)
	if err != nil {
		return 0, err
	}
	return CountsToMillimetres(status.Position), nil
}
