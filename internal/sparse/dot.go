package sparse

import (
	"cmp"
	"slices"
)

// Dot returns sum(a[k].Val * b[l].Val) over all pairs with a[k].Col == b[l].Col.
// Both inputs must be sorted by strictly increasing column.
func Dot(a, b []Entry) Scalar {
	var (
		sum  Scalar
		i, j int
	)

	for i < len(a) && j < len(b) {
		ac, bc := a[i].Col, b[j].Col
		switch {
		case ac == bc:
			sum += a[i].Val * b[j].Val
			i++
			j++
		case ac < bc:
			i++
		default:
			j++
		}
	}

	return sum
}

// DotScratch copies b into scratch and merges a against the copy.
// scratch must have room for len(b) entries.
func DotScratch(a, b, scratch []Entry) Scalar {
	local := scratch[:len(b)]
	copy(local, b)
	return Dot(a, local)
}

// IsSorted reports whether columns are strictly increasing.
func IsSorted(entries []Entry) bool {
	for k := 1; k < len(entries); k++ {
		if entries[k-1].Col >= entries[k].Col {
			return false
		}
	}
	return true
}

// Normalize sorts entries by column and folds duplicate columns by summing
// their values. It reorders entries in place and returns the compacted prefix.
func Normalize(entries []Entry) []Entry {
	if len(entries) < 2 {
		return entries
	}

	slices.SortStableFunc(entries, func(x, y Entry) int {
		return cmp.Compare(x.Col, y.Col)
	})

	out := entries[:1]
	for _, e := range entries[1:] {
		last := &out[len(out)-1]
		if e.Col == last.Col {
			last.Val += e.Val
			continue
		}
		out = append(out, e)
	}
	return out
}
