// Package record implements the on-disk framing for a single log entry: the
// 17-byte header plus key and value payload that the storage engine appends
// to and reads back from segment files.
//
// Wire format (little-endian, no padding):
//
//	offset  size  field
//	  0      1    record_type (0=Put, 1=Delete)
//	  1      8    timestamp_seconds (i64)
//	  9      4    key_len (u32)
//	 13      4    value_len (u32)
//	 17      K    key
//	 17+K    V    value
//
// The codec never interprets the semantics of record_type; that is the
// storage engine and compactor's job. It only ever reports ErrCorrupt for
// malformed input — the caller (recovery) decides whether a short read at
// end-of-segment is a truncation to tolerate or a genuine corruption.
package record

import (
	"encoding/binary"
	stdErrors "errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Type distinguishes a Put from a Delete record.
type Type uint8

const (
	// Put inserts or overwrites a key's value.
	Put Type = 0
	// Delete removes a key.
	Delete Type = 1
)

func (t Type) String() string {
	switch t {
	case Put:
		return "Put"
	case Delete:
		return "Delete"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

const (
	// HeaderSize is the fixed size, in bytes, of every record's header.
	HeaderSize = 17

	// ChecksumSize is the size, in bytes, of the optional trailer appended
	// after the payload when the checksum extension is enabled.
	ChecksumSize = 8
)

// ErrCorrupt is returned when a header or payload cannot be parsed: a short
// read mid-record, an invalid record type, or (with the checksum extension
// enabled) a checksum mismatch.
var ErrCorrupt = stdErrors.New("record: corrupt data")

// Header is the parsed fixed-size prefix of a record.
type Header struct {
	Type      Type
	Timestamp int64
	KeyLen    uint32
	ValueLen  uint32
}

// TotalSize returns the full on-disk size of the record this header
// describes: header + key + value, excluding any checksum trailer.
func (h Header) TotalSize() uint32 {
	return HeaderSize + h.KeyLen + h.ValueLen
}

// Record is a fully materialized log entry.
type Record struct {
	Type      Type
	Timestamp int64
	Key       []byte
	Value     []byte
}

// Encode serializes rec into a single contiguous buffer: header, key, then
// value. Returning one buffer lets the caller issue a single Write call per
// append, which is the minimal-syscall approach a vectored write would also
// achieve here (os.File does not expose a portable writev primitive in the
// standard library).
func Encode(rec Record) []byte {
	buf := make([]byte, HeaderSize+len(rec.Key)+len(rec.Value))
	encodeHeader(buf, rec.Type, rec.Timestamp, uint32(len(rec.Key)), uint32(len(rec.Value)))
	copy(buf[HeaderSize:], rec.Key)
	copy(buf[HeaderSize+len(rec.Key):], rec.Value)
	return buf
}

// EncodeChecksummed is Encode with an 8-byte xxhash64 of the header, key and
// value appended after the payload. Used only when the checksum extension
// (options.ChecksumEnabled) is on.
func EncodeChecksummed(rec Record) []byte {
	base := Encode(rec)
	sum := xxhash.Sum64(base)

	buf := make([]byte, len(base)+ChecksumSize)
	copy(buf, base)
	binary.LittleEndian.PutUint64(buf[len(base):], sum)
	return buf
}

func encodeHeader(dst []byte, typ Type, timestamp int64, keyLen, valueLen uint32) {
	dst[0] = byte(typ)
	binary.LittleEndian.PutUint64(dst[1:9], uint64(timestamp))
	binary.LittleEndian.PutUint32(dst[9:13], keyLen)
	binary.LittleEndian.PutUint32(dst[13:17], valueLen)
}

// DecodeHeader parses a HeaderSize-byte buffer into a Header. buf must be
// exactly HeaderSize bytes; a short read should be detected by the caller
// before calling DecodeHeader (recovery checks the remaining segment length
// first and stops replaying a segment at a header or payload that would run
// past its end, treating it as a truncated tail).
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, fmt.Errorf("%w: header must be %d bytes, got %d", ErrCorrupt, HeaderSize, len(buf))
	}

	typ := Type(buf[0])
	if typ != Put && typ != Delete {
		return Header{}, fmt.Errorf("%w: invalid record type %d", ErrCorrupt, buf[0])
	}

	return Header{
		Type:      typ,
		Timestamp: int64(binary.LittleEndian.Uint64(buf[1:9])),
		KeyLen:    binary.LittleEndian.Uint32(buf[9:13]),
		ValueLen:  binary.LittleEndian.Uint32(buf[13:17]),
	}, nil
}

// VerifyChecksum checks an 8-byte little-endian xxhash64 trailer against the
// preceding header+key+value bytes. payload must be exactly
// header+key+value (no trailer); trailer must be exactly ChecksumSize bytes.
func VerifyChecksum(payload, trailer []byte) bool {
	if len(trailer) != ChecksumSize {
		return false
	}
	want := binary.LittleEndian.Uint64(trailer)
	return xxhash.Sum64(payload) == want
}
