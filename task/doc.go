// Package task implements the background task manager for AgentLink.
//
// A running agent's Run hook is expected to fan out concurrent sub-work
// (e.g. handling several inbound requests at once). The Manager tracks every
// spawned unit of work so the lifecycle controller can guarantee that no
// orphaned goroutine survives Stop:
//
//   - Spawn schedules a unit of work under a cancellable context and adds its
//     handle to the tracked set; the handle removes itself on completion
//     (success, failure or cancellation).
//   - CancelAll requests cancellation of every tracked handle and awaits
//     them, suppressing cancellation-class errors (context.Canceled,
//     context.DeadlineExceeded) and logging anything else.
//
// Cancellation is cooperative: a unit of work must observe its context at
// its next blocking call. An optional concurrency cap bounds how many tasks
// execute simultaneously.
//
// See runner for the teardown path that drives CancelAll.
package task
