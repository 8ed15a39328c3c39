package storage

import "errors"

var (
	// ErrNotFound is returned by Get for missing rows.
	ErrNotFound = errors.New("row not found")

	// ErrUnknownTable is returned for tables that were never created.
	ErrUnknownTable = errors.New("unknown table")

	// ErrInvalidName is returned for empty keyspace or table names, or names
	// containing a NUL byte.
	ErrInvalidName = errors.New("invalid keyspace or table name")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")
)
