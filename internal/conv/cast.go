package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("conv: integer overflow")

// IntToUint32 converts int to uint32.
func IntToUint32(v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit uint32", ErrOverflow, v)
	}
	return uint32(v), nil
}

// IntToUint64 converts int to uint64.
func IntToUint64(v int) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: %d does not fit uint64", ErrOverflow, v)
	}
	return uint64(v), nil
}

// Uint64ToInt converts uint64 to int.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, fmt.Errorf("%w: %d does not fit int", ErrOverflow, v)
	}
	return int(v), nil
}

// Int64ToUint64 converts int64 to uint64.
func Int64ToUint64(v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: %d does not fit uint64", ErrOverflow, v)
	}
	return uint64(v), nil
}

// Uint64ToInt64 converts uint64 to int64.
func Uint64ToInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d does not fit int64", ErrOverflow, v)
	}
	return int64(v), nil
}

// Uint32ToInt converts uint32 to int.
func Uint32ToInt(v uint32) (int, error) {
	if uint64(v) > uint64(math.MaxInt) {
		return 0, fmt.Errorf("%w: %d does not fit int", ErrOverflow, v)
	}
	return int(v), nil
}
