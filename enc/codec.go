// Copyright 2026 The Graphdb Authors
// This file is part of graphdb.
//
// graphdb is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// graphdb is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with graphdb. If not, see <http://www.gnu.org/licenses/>.

// Package enc is the binary key codec (spec component C1): it serializes a
// sequence of typed components into a byte buffer such that lexicographic
// order over the buffer equals the logical order over the component
// sequence, and reads them back left to right off a cursor.
package enc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hollowcore/graphdb/models"
)

// kind tags which variant a Component carries.
type kind byte

const (
	kindUUID kind = iota
	kindType
	kindDateTime
	kindUnsizedString
)

// Component is one element of a composite key. Construct one with UUID,
// TypeOf, DateTimeOf, or UnsizedStringOf.
type Component struct {
	k      kind
	uid    uuid.UUID
	typ    models.Type
	dt     time.Time
	strVal string
}

// UUID wraps a 16-byte identifier as a fixed-width key component.
func UUID(id uuid.UUID) Component { return Component{k: kindUUID, uid: id} }

// TypeOf wraps a Type as a length-prefixed key component.
func TypeOf(t models.Type) Component { return Component{k: kindType, typ: t} }

// DateTimeOf wraps a time.Time as a fixed-width, order-preserving component.
func DateTimeOf(t time.Time) Component { return Component{k: kindDateTime, dt: t} }

// UnsizedStringOf wraps a string as an unprefixed component. It is only
// valid as the last component of a key: a reader can't know where it ends
// except by hitting the end of the buffer.
func UnsizedStringOf(s string) Component { return Component{k: kindUnsizedString, strVal: s} }

// MaxDateTime is the largest instant the codec can encode, used as the
// implicit upper bound for range queries that want "at or before anything".
var MaxDateTime = fromBits(^uint64(0))

// datetimeBias flips the sign bit of a nanosecond count so that two's
// complement ordering (which puts negative numbers after positive ones)
// becomes unsigned big-endian ordering (negative-before-positive, matching
// chronological order).
const datetimeBias = uint64(1) << 63

func toBits(t time.Time) uint64 {
	return uint64(t.UnixNano()) ^ datetimeBias
}

func fromBits(bits uint64) time.Time {
	ns := int64(bits ^ datetimeBias)
	return time.Unix(0, ns).UTC()
}

// Build concatenates the encoded form of each component in order. The
// resulting byte order equals the logical tuple order of the components,
// provided only the final component (if any) is an UnsizedString.
func Build(components ...Component) []byte {
	var buf bytes.Buffer
	for _, c := range components {
		switch c.k {
		case kindUUID:
			b, _ := c.uid.MarshalBinary()
			buf.Write(b)
		case kindType:
			name := c.typ.String()
			buf.WriteByte(byte(len(name)))
			buf.WriteString(name)
		case kindDateTime:
			var tmp [8]byte
			binary.BigEndian.PutUint64(tmp[:], toBits(c.dt))
			buf.Write(tmp[:])
		case kindUnsizedString:
			buf.WriteString(c.strVal)
		}
	}
	return buf.Bytes()
}

// Cursor reads components off a byte slice left to right.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps b for reading. b is not copied; the caller must not mutate
// it while the cursor is in use.
func NewCursor(b []byte) *Cursor { return &Cursor{buf: b} }

// Remaining reports how many bytes are left unread.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// ReadUUID consumes the next 16 bytes as a UUID.
func (c *Cursor) ReadUUID() (uuid.UUID, error) {
	if c.Remaining() < 16 {
		return uuid.UUID{}, fmt.Errorf("enc: short read for uuid: %d bytes remaining", c.Remaining())
	}
	var id uuid.UUID
	copy(id[:], c.buf[c.pos:c.pos+16])
	c.pos += 16
	return id, nil
}

// ReadType consumes a length byte followed by that many bytes of type name.
func (c *Cursor) ReadType() (models.Type, error) {
	if c.Remaining() < 1 {
		return models.Type{}, fmt.Errorf("enc: short read for type length")
	}
	l := int(c.buf[c.pos])
	c.pos++
	if c.Remaining() < l {
		return models.Type{}, fmt.Errorf("enc: short read for type name: need %d, have %d", l, c.Remaining())
	}
	name := string(c.buf[c.pos : c.pos+l])
	c.pos += l
	return models.NewType(name)
}

// ReadDateTime consumes the next 8 bytes as an order-preserving datetime.
func (c *Cursor) ReadDateTime() (time.Time, error) {
	if c.Remaining() < 8 {
		return time.Time{}, fmt.Errorf("enc: short read for datetime: %d bytes remaining", c.Remaining())
	}
	bits := binary.BigEndian.Uint64(c.buf[c.pos : c.pos+8])
	c.pos += 8
	return fromBits(bits), nil
}

// ReadUnsizedString consumes every remaining byte as a UTF-8 string. It must
// only be called as the last read of a key.
func (c *Cursor) ReadUnsizedString() string {
	s := string(c.buf[c.pos:])
	c.pos = len(c.buf)
	return s
}
