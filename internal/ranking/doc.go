// Package ranking orders directory entries for a requester.
//
// Rank is a pure function of (candidates, origin, criteria): it annotates
// each candidate with its great-circle distance from the origin, keeps the
// candidates that match the criteria and sorts them by the selected key.
// It performs no I/O, holds no state between calls and never mutates its
// input, so callers re-run it in full whenever any input changes and may
// call it concurrently.
package ranking
