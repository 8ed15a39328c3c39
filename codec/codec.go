// Package codec centralizes encoding of persisted documents (hyperplane banks,
// ring snapshots) and their optional compression.
//
// Codec names are a compatibility boundary: bank frames record the name of
// the codec that wrote them and are decoded by looking it up again.
package codec

import (
	"maps"
	"slices"
)

// Codec encodes and decodes values. Implementations are safe for concurrent
// use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for newly written documents.
var Default Codec = GoJSON{}

var builtin = map[string]Codec{
	JSON{}.Name():   JSON{},
	GoJSON{}.Name(): GoJSON{},
}

// ByName returns the built-in codec with the given stable name.
func ByName(name string) (Codec, bool) {
	c, ok := builtin[name]
	return c, ok
}

// Names lists the built-in codec names in order.
func Names() []string {
	return slices.Sorted(maps.Keys(builtin))
}

// OrDefault returns c, or Default when c is nil.
func OrDefault(c Codec) Codec {
	if c == nil {
		return Default
	}
	return c
}
