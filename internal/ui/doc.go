// package ui implements the live terminal dashboard.
//
// Views subscribe to server streams through the shared progress store, the
// per-list watcher, and generic stream subscriptions; terminal focus and blur
// feed the activity signal so every connection is suspended while the
// dashboard is not visible and reopened when it is.
package ui
