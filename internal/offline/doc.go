// Package offline is a small embedded SQL store for the offline client path.
//
// It understands a subset of SQL (CREATE TABLE, DROP TABLE, INSERT, UPDATE,
// DELETE and single-table SELECT with AND-joined conditions, ORDER BY and
// LIMIT/OFFSET) and keeps tables in a bbolt file. Each statement runs in its
// own bbolt transaction. There are no joins, indexes or multi-statement
// transactions.
package offline
