package cluster

import (
	"errors"
	"fmt"

	"github.com/hashicorp/memberlist"
	"github.com/mourao666/cassandra-sim/dht"
)

const metaVersion byte = 1

var (
	// ErrMetaVersion is returned for node metadata written by an unknown
	// format version.
	ErrMetaVersion = errors.New("unsupported node metadata version")

	// ErrMetaTooLarge is returned when a token does not fit in memberlist's
	// metadata limit.
	ErrMetaTooLarge = errors.New("token exceeds node metadata limit")
)

// EncodeMeta returns the node metadata announcing tok.
func EncodeMeta(tok dht.Token) ([]byte, error) {
	raw := tok.Bytes()
	if 1+len(raw) > memberlist.MetaMaxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMetaTooLarge, len(raw))
	}
	return append([]byte{metaVersion}, raw...), nil
}

// DecodeMeta parses node metadata. Empty metadata means the node has not
// announced a token yet.
func DecodeMeta(f dht.TokenFactory, meta []byte) (tok dht.Token, ok bool, err error) {
	if len(meta) == 0 {
		return dht.Token{}, false, nil
	}
	if meta[0] != metaVersion {
		return dht.Token{}, false, fmt.Errorf("%w %d", ErrMetaVersion, meta[0])
	}
	return f.FromBytes(meta[1:]), true, nil
}
