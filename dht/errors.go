package dht

import (
	"errors"

	"github.com/mourao666/cassandra-sim/hyperplane"
	"github.com/mourao666/cassandra-sim/signature"
)

// Errors raised by the hyperplane and signature layers surface unchanged
// through the partitioner; these aliases let callers match them from dht.
type (
	ErrInvalidKeyShape = hyperplane.ErrInvalidKeyShape
	ErrMalformedToken  = signature.ErrMalformedToken
	ErrConfiguration   = hyperplane.ErrConfiguration
)

var (
	// ErrUndefinedOwnership is returned by DescribeOwnership when the catalog
	// reports zero splits across the whole ring.
	ErrUndefinedOwnership = errors.New("ownership undefined: total split count is zero")

	// ErrNoCatalog is returned by DescribeOwnership when the partitioner was
	// built without a catalog.
	ErrNoCatalog = errors.New("partitioner has no catalog")

	// ErrNoSplit is returned by Split when no token lies strictly inside a
	// range, as for two tokens one ring position apart.
	ErrNoSplit = errors.New("range cannot be split")

	// ErrUnsorted is returned when a token slice is not in ring order.
	ErrUnsorted = errors.New("tokens are not sorted in ring order")
)
