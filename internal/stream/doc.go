// package stream implements the client side of the download server's event
// streams.
//
// The generic [Client] owns exactly one connection per subscription, parses
// each text/event-stream frame as JSON, and reports transport failure through
// a single onError callback. It never reconnects on its own; recovery policy
// belongs to the specialized consumers (the progress store and the per-list
// watcher), which share the [Machine] lifecycle states and an injected
// [Activity] signal for terminal focus gating.
package stream
