// Package rowstore implements a distributed array of sparse rows.
//
// Row i lives at slot i div P of partition i mod P's array. Construct places
// an empty row in every occupied slot from units hinted to each partition.
// After construction the store is built by appending: each row has a single
// writer, normally a unit hinted with Hint(i). Once the build phase has
// joined, rows are read-only and may be read from any goroutine.
package rowstore
