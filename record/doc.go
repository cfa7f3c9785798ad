// Package record persists finished-match outcomes.
//
// The registry hands each finalized room to a Recorder exactly once. The
// production path wraps the gorm-backed store in an AsyncRecorder, which
// queues writes and retries failures a bounded number of times with logged
// errors, so a slow or failing database never blocks room teardown.
// MemoryStore backs tests and database-less runs.
package record
