package event

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
)

// VersionToken is an opaque, monotonically comparable version stamp assigned
// by the write-side store on every change of an entity.
//
// Tokens compare as unsigned big-endian integers. A shorter token is treated
// as if it were left-padded with zero bytes.
type VersionToken []byte

// NewVersionToken encodes v as an 8 byte token.
func NewVersionToken(v uint64) VersionToken {
	t := make(VersionToken, 8)
	binary.BigEndian.PutUint64(t, v)
	return t
}

// IsZero reports whether the token carries no version at all.
func (t VersionToken) IsZero() bool {
	return len(t) == 0
}

// Compare returns -1, 0 or +1 when t is older than, equal to or newer than other.
func (t VersionToken) Compare(other VersionToken) int {
	a := bytes.TrimLeft(t, "\x00")
	b := bytes.TrimLeft(other, "\x00")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return bytes.Compare(a, b)
}

// Newer reports whether t is strictly newer than other.
func (t VersionToken) Newer(other VersionToken) bool {
	return t.Compare(other) > 0
}

// Clone returns a copy that does not share memory with t.
func (t VersionToken) Clone() VersionToken {
	if t == nil {
		return nil
	}
	return append(VersionToken(nil), t...)
}

func (t VersionToken) String() string {
	return "0x" + hex.EncodeToString(t)
}
