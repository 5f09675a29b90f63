// Package textutil provides text canonicalization helpers for title
// comparison across heterogeneous sources.
package textutil
