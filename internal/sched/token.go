package sched

import (
	"context"

	"github.com/hupe1980/sparserow/internal/partition"
)

// Token is an opaque locality hint. The zero value carries no hint.
type Token struct {
	part  partition.ID
	valid bool
}

// TokenFor returns a token that targets partition p.
func TokenFor(p partition.ID) Token {
	return Token{part: p, valid: true}
}

// Partition returns the targeted partition and whether the token carries a hint.
func (t Token) Partition() (partition.ID, bool) {
	return t.part, t.valid
}

// Locality describes where a unit was asked to run.
type Locality struct {
	Partition partition.ID
	// Honored is true when the placer actually moved the unit onto Partition.
	Honored bool
}

type localityKey struct{}

func (localityKey) String() string {
	return "sched_locality"
}

func withLocality(ctx context.Context, loc *Locality) context.Context {
	return context.WithValue(ctx, localityKey{}, loc)
}

// LocalityFrom returns the locality of the unit running with ctx.
// It returns false outside of a hinted unit.
func LocalityFrom(ctx context.Context) (Locality, bool) {
	loc, ok := ctx.Value(localityKey{}).(*Locality)
	if !ok || loc == nil {
		return Locality{}, false
	}
	return *loc, true
}

// RunningOn reports whether the unit running with ctx is placed on p.
func RunningOn(ctx context.Context, p partition.ID) bool {
	loc, ok := LocalityFrom(ctx)
	return ok && loc.Honored && loc.Partition == p
}
