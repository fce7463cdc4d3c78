// Package graph holds work units keyed by identity and orders them.
//
// Units added under an existing key merge into the earlier unit: payload
// items are concatenated in arrival order, dependency keys are unioned
// preserving first-seen order, and the earliest discovery sequence wins.
//
// Sort is Kahn's algorithm with the ready set ordered by discovery
// sequence, so equal inputs always yield the same order. A cycle fails the
// whole sort with a *CycleError; no partial order is returned.
package graph
