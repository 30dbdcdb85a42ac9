// Package engine implements Opereon's asynchronous operation engine: a
// general-purpose scheduler that drives typed, user-supplied operations to
// completion, tracks hierarchical progress, exposes cooperative
// cancellation, and routes shared services into operation code.
//
// # Core concepts
//
// An Operation is the unit of scheduling. It is backed by an OperationImpl,
// a user-supplied object exposing three cooperative hooks — Init,
// NextProgress, Done — that the engine drives through the state machine
// Init -> Progress* -> Done (or -> Cancel at any point).
//
// Every operation in one Engine produces values of the same outcome type T,
// so the engine stays fully type-safe: Engine, Operation and OperationRef
// are all parameterized by T. Opereon instantiates the engine once, with
// T = ops.Outcome (see package internal/ops).
//
// Combinators (Sequence, Parallel) are themselves OperationImpl values —
// the engine has no special knowledge of composition, it is uniform all the
// way down.
//
// # Concurrency model
//
// The engine's run loop is a single goroutine that only ever touches the
// admission queue and the operation table; individual operations run on
// their own driver goroutine, spawned on admission. This mirrors the
// reference design's "single-threaded cooperative run loop, multi-threaded
// drivers" split without requiring an async runtime: Go's goroutines and
// channels already provide cooperative multitasking with preemption points
// at channel operations.
package engine
