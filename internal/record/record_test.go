package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := Record{Type: Put, Timestamp: 1700000000, Key: []byte("hello"), Value: []byte("world")}

	buf := Encode(rec)
	require.Len(t, buf, HeaderSize+len(rec.Key)+len(rec.Value))

	header, err := DecodeHeader(buf[:HeaderSize])
	require.NoError(t, err)

	assert.Equal(t, Put, header.Type)
	assert.Equal(t, rec.Timestamp, header.Timestamp)
	assert.Equal(t, uint32(len(rec.Key)), header.KeyLen)
	assert.Equal(t, uint32(len(rec.Value)), header.ValueLen)
	assert.Equal(t, uint32(len(buf)), header.TotalSize())

	gotKey := buf[HeaderSize : HeaderSize+header.KeyLen]
	gotValue := buf[HeaderSize+header.KeyLen:]
	assert.Equal(t, rec.Key, gotKey)
	assert.Equal(t, rec.Value, gotValue)
}

func TestEncodeDeleteHasNoValue(t *testing.T) {
	rec := Record{Type: Delete, Timestamp: 42, Key: []byte("gone")}
	buf := Encode(rec)
	require.Len(t, buf, HeaderSize+len(rec.Key))

	header, err := DecodeHeader(buf[:HeaderSize])
	require.NoError(t, err)
	assert.Equal(t, Delete, header.Type)
	assert.Zero(t, header.ValueLen)
}

func TestDecodeHeaderRejectsWrongLength(t *testing.T) {
	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecodeHeaderRejectsInvalidType(t *testing.T) {
	buf := Encode(Record{Type: Put, Timestamp: 1, Key: []byte("k")})
	buf[0] = 0xFF

	_, err := DecodeHeader(buf[:HeaderSize])
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestChecksumRoundTrip(t *testing.T) {
	rec := Record{Type: Put, Timestamp: 7, Key: []byte("k"), Value: []byte("v")}

	buf := EncodeChecksummed(rec)
	payload := buf[:len(buf)-ChecksumSize]
	trailer := buf[len(buf)-ChecksumSize:]

	assert.True(t, VerifyChecksum(payload, trailer))

	payload[len(payload)-1] ^= 0xFF
	assert.False(t, VerifyChecksum(payload, trailer))
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "Put", Put.String())
	assert.Equal(t, "Delete", Delete.String())
	assert.Contains(t, Type(9).String(), "9")
}
