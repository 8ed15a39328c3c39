package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"

	"github.com/mourao666/cassandra-sim/dht"
)

// Key layout:
//
//	schema: 's' | keyspace | 0x00 | table
//	row:    'r' | keyspace | 0x00 | table | 0x00 | tokenKey | partitionKey
//
// tokenKey is 0x00 for the minimum token and 0x01 | len u16 | rank for every
// other token, rank being the minimal big-endian ring position. Comparing
// tokenKeys bytewise matches ring order.
const (
	schemaPrefix = 's'
	rowPrefix    = 'r'
)

var errCorruptKey = errors.New("corrupt row key")

func validName(s string) bool {
	return s != "" && !strings.ContainsRune(s, 0)
}

func schemaKey(t dht.TableRef) []byte {
	k := make([]byte, 0, 2+len(t.Keyspace)+len(t.Table))
	k = append(k, schemaPrefix)
	k = append(k, t.Keyspace...)
	k = append(k, 0)
	return append(k, t.Table...)
}

func parseSchemaKey(k []byte) (dht.TableRef, bool) {
	ks, table, ok := bytes.Cut(k[1:], []byte{0})
	if !ok {
		return dht.TableRef{}, false
	}
	return dht.TableRef{Keyspace: string(ks), Table: string(table)}, true
}

// tablePrefix is the prefix shared by every row of t.
func tablePrefix(t dht.TableRef) []byte {
	k := make([]byte, 0, 3+len(t.Keyspace)+len(t.Table))
	k = append(k, rowPrefix)
	k = append(k, t.Keyspace...)
	k = append(k, 0)
	k = append(k, t.Table...)
	return append(k, 0)
}

func tokenKey(tok dht.Token) []byte {
	if tok.IsMinimum() {
		return []byte{0x00}
	}
	rank := dht.Position(tok)
	k := make([]byte, 3, 3+len(rank))
	k[0] = 0x01
	binary.BigEndian.PutUint16(k[1:], uint16(len(rank)))
	return append(k, rank...)
}

func rowKey(t dht.TableRef, tok dht.Token, partitionKey []byte) []byte {
	k := tablePrefix(t)
	k = append(k, tokenKey(tok)...)
	return append(k, partitionKey...)
}

// splitRowKey returns the tokenKey and partition key of a row key stripped
// of its table prefix.
func splitRowKey(rest []byte) (tk, pk []byte, err error) {
	if len(rest) == 0 {
		return nil, nil, errCorruptKey
	}
	if rest[0] == 0x00 {
		return rest[:1], rest[1:], nil
	}
	if rest[0] != 0x01 || len(rest) < 3 {
		return nil, nil, errCorruptKey
	}
	n := 3 + int(binary.BigEndian.Uint16(rest[1:3]))
	if len(rest) < n {
		return nil, nil, errCorruptKey
	}
	return rest[:n], rest[n:], nil
}
