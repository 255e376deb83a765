//go:build !linux

package sched

import (
	"errors"

	"github.com/hupe1980/sparserow/internal/partition"
)

// ErrAffinityUnsupported is returned where threads cannot be bound to CPUs.
var ErrAffinityUnsupported = errors.New("sched: thread affinity not supported on this platform")

func platformPlacer(partition.Layout) (Placer, error) {
	return nil, ErrAffinityUnsupported
}
