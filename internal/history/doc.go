// Package history persists delivered scrobbles and the retry queue in SQLite.
//
// The Store is the durable half of the attempt-now/queue-on-failure delivery
// contract: AddToHistory records successes, AddToQueue captures failures with
// the payload and response that were observed, and the queue survives process
// crashes so redelivery can resume on the next run. Schema changes bump the
// version in schema.go; users delete the database to adopt the new schema.
package history
