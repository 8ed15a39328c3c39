package ring

import (
	"errors"

	"github.com/mourao666/cassandra-sim/dht"
)

var (
	// ErrEmptyRing is returned by lookups on a ring without entries.
	ErrEmptyRing = errors.New("ring has no tokens")

	// ErrDuplicateToken is returned by New when two entries share a token.
	ErrDuplicateToken = errors.New("duplicate ring token")

	// ErrUnknownEndpoint is returned by MarkDown and MarkUp for endpoints
	// without tokens.
	ErrUnknownEndpoint = errors.New("unknown endpoint")

	// ErrNoSplit is returned by SuggestToken when no range holding data can
	// be split.
	ErrNoSplit = dht.ErrNoSplit

	// ErrNoLiveEndpoint is returned by LiveOwner when every endpoint is down.
	ErrNoLiveEndpoint = errors.New("no live endpoint")
)
