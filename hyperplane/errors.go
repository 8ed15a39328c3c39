package hyperplane

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyShape is matched by every *ErrInvalidKeyShape via errors.Is.
	ErrKeyShape = errors.New("invalid key shape")
	// ErrInvalidConfiguration is matched by every *ErrConfiguration via errors.Is.
	ErrInvalidConfiguration = errors.New("invalid hyperplane configuration")
	// ErrChecksum is returned when a persisted bank fails its CRC check.
	ErrChecksum = errors.New("bank checksum mismatch")
)

// ErrInvalidKeyShape indicates a key whose length is zero, not a multiple of
// eight, or whose decoded dimension differs from the bank dimension.
type ErrInvalidKeyShape struct {
	Length    int // key length in bytes
	Dimension int // dimension the bank expects
}

func (e *ErrInvalidKeyShape) Error() string {
	return fmt.Sprintf("invalid key shape: %d bytes, expected %d float64 components (%d bytes)",
		e.Length, e.Dimension, 8*e.Dimension)
}

// Is reports whether target is ErrKeyShape.
func (e *ErrInvalidKeyShape) Is(target error) bool { return target == ErrKeyShape }

// ErrConfiguration indicates an unusable hyperplane bank.
type ErrConfiguration struct {
	Reason string
	cause  error
}

func (e *ErrConfiguration) Error() string {
	return "invalid hyperplane configuration: " + e.Reason
}

func (e *ErrConfiguration) Unwrap() error { return e.cause }

// Is reports whether target is ErrInvalidConfiguration.
func (e *ErrConfiguration) Is(target error) bool { return target == ErrInvalidConfiguration }

func configErrorf(format string, args ...any) error {
	return &ErrConfiguration{Reason: fmt.Sprintf(format, args...)}
}
