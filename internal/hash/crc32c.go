package hash

import (
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Sum returns the CRC32-Castagnoli checksum of data.
func Sum(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// Update extends a running checksum with data.
func Update(sum uint32, data []byte) uint32 {
	return crc32.Update(sum, castagnoli, data)
}

// Verify reports whether data has checksum want.
func Verify(data []byte, want uint32) bool {
	return Sum(data) == want
}

// AppendSum appends the little-endian checksum of data to dst, the form
// persisted frames carry in their header.
func AppendSum(dst, data []byte) []byte {
	return binary.LittleEndian.AppendUint32(dst, Sum(data))
}

// Base64 returns the checksum of data as S3's ChecksumCRC32C header expects
// it: the big-endian bytes, base64 encoded.
func Base64(data []byte) string {
	return base64.StdEncoding.EncodeToString(binary.BigEndian.AppendUint32(nil, Sum(data)))
}
