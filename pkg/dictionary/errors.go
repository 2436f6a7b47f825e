package dictionary

import (
	"errors"
	"fmt"
)

var (
	// ErrShape is returned when arrays that must agree in length do not.
	ErrShape = errors.New("dictionary: shape mismatch")

	// ErrIndexOutOfRange is the sentinel wrapped by every IndexError.
	ErrIndexOutOfRange = errors.New("dictionary: index out of range")

	// ErrPartitionViolation is the sentinel wrapped by OverlapError.
	ErrPartitionViolation = errors.New("dictionary: partition is not voxel-disjoint")
)

// IndexError reports a single malformed index found by Validate.
type IndexError struct {
	// Field names the offending array, e.g. "IC.Voxel".
	Field string

	// Index is the position of the offending entry inside Field.
	Index int

	// Value is the offending index value and Limit the exclusive bound it broke.
	Value int
	Limit int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("dictionary: %s[%d] = %d out of range [0, %d)", e.Field, e.Index, e.Value, e.Limit)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// OverlapError reports a voxel touched by IC segments of two different
// workers.
type OverlapError struct {
	Voxel  uint32
	First  uint8
	Second uint8
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("dictionary: voxel %d is written by workers %d and %d", e.Voxel, e.First, e.Second)
}

func (e *OverlapError) Unwrap() error { return ErrPartitionViolation }

func shapeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrShape}, args...)...)
}
