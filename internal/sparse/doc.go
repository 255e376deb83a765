// Package sparse holds sparse row entries and the merge-join dot product.
//
// A Row is a sequence of (column, value) entries with strictly increasing
// columns. Dot walks two rows with one cursor each, advancing the cursor with
// the smaller column and multiply-accumulating on equal columns; it runs in
// O(len(a)+len(b)) and needs no extra memory. DotScratch first copies the
// second operand into a caller-supplied buffer so that the merge loop reads
// only local memory.
//
// Sortedness is a precondition and is not checked by Dot. IsSorted is
// available for debug verification.
package sparse
