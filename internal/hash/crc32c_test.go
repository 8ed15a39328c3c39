package hash

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

// check is the standard CRC-32C check value of "123456789".
const check = 0xE3069283

func TestSum(t *testing.T) {
	data := []byte("123456789")
	assert.Equal(t, uint32(check), Sum(data))
	assert.Equal(t, uint32(check), Update(Update(0, data[:4]), data[4:]))

	assert.True(t, Verify(data, check))
	assert.False(t, Verify([]byte("123456780"), check))
}

func TestAppendSum(t *testing.T) {
	out := AppendSum([]byte{0xAA}, []byte("123456789"))
	assert.Len(t, out, 5)
	assert.Equal(t, byte(0xAA), out[0])
	assert.Equal(t, uint32(check), binary.LittleEndian.Uint32(out[1:]))
}

func TestBase64(t *testing.T) {
	assert.Equal(t, "4waSgw==", Base64([]byte("123456789")))
}
