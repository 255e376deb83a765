package sparserow

import (
	"errors"
	"fmt"

	"github.com/hupe1980/sparserow/internal/alloc"
	"github.com/hupe1980/sparserow/internal/rowstore"
)

var (
	// ErrClosed is returned when a closed Runtime or Matrix is used.
	ErrClosed = errors.New("sparserow: closed")
	// ErrPartitionMismatch is returned when matrices of different runtimes are combined.
	ErrPartitionMismatch = errors.New("sparserow: matrices belong to different runtimes")
	// ErrInvalidRows is returned for a negative row count.
	ErrInvalidRows = errors.New("sparserow: invalid row count")
	// ErrTooManyRows is returned when a row count exceeds the addressable rows.
	ErrTooManyRows = rowstore.ErrTooManyRows

	// ErrAllocationFailed is returned when partition storage cannot be reserved.
	ErrAllocationFailed = alloc.ErrAllocationFailed
	// ErrUnsortedEntries is returned in validation mode for out-of-order entries.
	ErrUnsortedEntries = rowstore.ErrUnsortedEntries
	// ErrRowAlreadyWritten is returned in validation mode for a second append to a row.
	ErrRowAlreadyWritten = rowstore.ErrRowAlreadyWritten
)

// RowError reports a failed operation on a single row.
//
// The original underlying error can be accessed via errors.Unwrap.
type RowError struct {
	Row   int
	cause error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("sparserow: row %d: %v", e.Row, e.cause)
}

func (e *RowError) Unwrap() error { return e.cause }
