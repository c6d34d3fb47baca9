// Package store is the durable keyed record store behind the prediction
// ledger. Every entity type lives in its own table addressed by a
// deterministic composite key (event id, user id, option index), and every
// ledger operation runs as exactly one SQLite transaction: a failed
// precondition rolls the whole operation back with no partial state
// observable.
//
// The store also keeps an append-only operation journal stamped by a
// logical sequence clock, written in the same transaction as the records
// it describes.
package store
