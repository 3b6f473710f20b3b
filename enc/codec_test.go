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

package enc

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hollowcore/graphdb/models"
)

func genUUID(t *rapid.T) uuid.UUID {
	var id uuid.UUID
	bs := rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "uuid")
	copy(id[:], bs)
	return id
}

func genType(t *rapid.T) models.Type {
	name := rapid.StringMatching(`[a-zA-Z0-9_]{1,40}`).Draw(t, "type")
	return models.MustType(name)
}

func genDateTime(t *rapid.T) time.Time {
	ns := rapid.Int64().Draw(t, "nanos")
	return time.Unix(0, ns).UTC()
}

// TestRoundTripCodec is property P3: decode(encode(seq)) == seq.
func TestRoundTripCodec(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		id := genUUID(rt)
		typ := genType(rt)
		dt := genDateTime(rt)

		buf := Build(UUID(id), TypeOf(typ), DateTimeOf(dt))
		c := NewCursor(buf)

		gotID, err := c.ReadUUID()
		require.NoError(rt, err)
		require.Equal(rt, id, gotID)

		gotType, err := c.ReadType()
		require.NoError(rt, err)
		require.Equal(rt, typ.String(), gotType.String())

		gotDT, err := c.ReadDateTime()
		require.NoError(rt, err)
		require.True(rt, dt.Equal(gotDT))
	})
}

// TestDateTimeOrderingMatchesChronologicalOrder is the datetime half of P3:
// for a < b chronologically, encode(a) < encode(b) lexicographically.
func TestDateTimeOrderingMatchesChronologicalOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := genDateTime(rt)
		b := genDateTime(rt)
		if !a.Before(b) {
			a, b = b, a
		}
		if a.Equal(b) {
			return
		}
		encA := Build(DateTimeOf(a))
		encB := Build(DateTimeOf(b))
		require.Less(rt, bytes.Compare(encA, encB), 0)
	})
}

// TestCompositeKeyOrderingMatchesTupleOrder checks P3's tuple-order claim
// across a full (uuid, type, datetime) composite key: bumping the datetime
// while holding the uuid and type fixed must bump the encoded key too.
func TestCompositeKeyOrderingMatchesTupleOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		id := genUUID(rt)
		typ := genType(rt)
		a := genDateTime(rt)
		b := genDateTime(rt)
		if !a.Before(b) {
			a, b = b, a
		}
		if a.Equal(b) {
			return
		}
		encA := Build(UUID(id), TypeOf(typ), DateTimeOf(a))
		encB := Build(UUID(id), TypeOf(typ), DateTimeOf(b))
		require.Less(rt, bytes.Compare(encA, encB), 0)
	})
}

func TestMaxDateTimeSentinelIsGreatestEncodable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dt := genDateTime(rt)
		encDT := Build(DateTimeOf(dt))
		encMax := Build(DateTimeOf(MaxDateTime))
		require.LessOrEqual(t, bytes.Compare(encDT, encMax), 0)
	})
}

func TestReadUnsizedStringConsumesToEnd(t *testing.T) {
	buf := Build(UUID(uuid.New()), UnsizedStringOf("hello world"))
	c := NewCursor(buf)
	_, err := c.ReadUUID()
	require.NoError(t, err)
	require.Equal(t, "hello world", c.ReadUnsizedString())
	require.Equal(t, 0, c.Remaining())
}

func TestReadTypeRejectsShortBuffer(t *testing.T) {
	c := NewCursor([]byte{5, 'a', 'b'})
	_, err := c.ReadType()
	require.Error(t, err)
}
