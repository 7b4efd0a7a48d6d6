// Package extract coordinates an asynchronous frame source.
//
// A FrameSource accepts one batch of timestamps and reports each result
// through a callback that may run on any goroutine, in any order, possibly
// more than once for the same timestamp. The Coordinator turns that stream
// into a single blocking call:
//
//   - callbacks only append to a mutex-guarded inbox and never block;
//   - the calling goroutine drains the inbox, maps each result back to its
//     plan index, counts distinct completions and records the first error;
//   - completion fires exactly once, when the count reaches the batch size,
//     on the first error, or when the context ends. The inbox is closed at
//     that moment so late callbacks are dropped.
//
// Frames are handed to OnFrame in plan-index order as soon as a contiguous
// prefix is available, so downstream consumers see a single-threaded,
// ordered stream regardless of arrival order.
package extract
