// Package versions is a local version bookkeeping store for edited items,
// backed by SQLite.
//
// Version 0 of an item is its original source. Every commit appends the next
// number; versions are never rewritten, only appended or removed.
package versions
