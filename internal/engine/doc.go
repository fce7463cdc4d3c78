// Package engine implements the iocplan processing engine.
//
// The engine turns a registry of (annotation, handler) bindings into an
// ordered processing plan and runs it.
//
// ARCHITECTURE:
//
// Discovery:
// A FIFO queue of entry batches is seeded with the registry in rule-aware
// order. Each entry asks the Scanner for annotated elements (or uses a
// provided handler's own types) and turns every element into an Action.
// Handlers may register more work through DependencyControl.AddBinding;
// that work is queued as a new batch. The loop ends at a fixed point.
//
// Planning:
// Actions merge into graph units keyed by masquerade identity. The graph is
// sorted with Kahn's algorithm, ties broken by discovery sequence. A cycle
// aborts the run before anything executes.
//
// Execution:
// Each action runs exactly once in plan order. Execute is the only phase
// that mutates the InjectionContext. The first handler error aborts the
// remaining plan.
//
// Everything runs on the caller's goroutine. There is no concurrency and no
// suspension point between discovery and execution.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Execution records are stamped with a monotonic seq from Clock.Next().
// Wall-clock time never influences ordering.
//
// Deterministic Scheduling:
// Entries are ordered by rules then registration sequence. Elements are
// visited in scanner order. Units are released by discovery sequence.
package engine
