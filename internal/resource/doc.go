// Package resource governs the memory and IO budget of a runtime.
//
//   - Memory: partition arrays and scratch buffers are reserved against a hard
//     limit (fail-fast, non-blocking).
//   - IO: snapshot streams are throttled with a token bucket.
//
// All Controller methods are nil-safe; a nil *Controller tracks nothing and
// limits nothing.
package resource
