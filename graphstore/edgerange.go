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

package graphstore

import (
	"time"

	"github.com/google/uuid"

	"github.com/hollowcore/graphdb/enc"
	"github.com/hollowcore/graphdb/kv"
	"github.com/hollowcore/graphdb/models"
)

// EdgeRangeItem is one (type, other-endpoint, datetime) triple read back out
// of an edge-range index, in the owner's frame of reference: for a forward
// index, Other is the edge's inbound vertex; for a reversed index, Other is
// the edge's outbound vertex.
type EdgeRangeItem struct {
	T              models.Type
	Other          uuid.UUID
	UpdateDatetime time.Time
}

// EdgeRangeManager maintains one of the two edge-range indices: forward
// (owner = outbound vertex, keyed in KeyspaceEdgeRanges) or reversed
// (owner = inbound vertex, keyed in KeyspaceReversedEdgeRanges). Both share
// the same key shape -- UUID(owner), Type, DateTime, UUID(other) -- so one
// implementation serves both directions.
type EdgeRangeManager struct {
	h        *Holder
	reversed bool
}

func NewEdgeRangeManager(h *Holder, reversed bool) *EdgeRangeManager {
	return &EdgeRangeManager{h: h, reversed: reversed}
}

func (m *EdgeRangeManager) keyspaceName() string {
	if m.reversed {
		return KeyspaceReversedEdgeRanges
	}
	return KeyspaceEdgeRanges
}

func (m *EdgeRangeManager) keyspace() kv.Keyspace {
	if m.reversed {
		return m.h.ReversedEdgeRanges
	}
	return m.h.EdgeRanges
}

func (m *EdgeRangeManager) pendingWrites(b *Batch) kv.PendingWrites {
	if m.reversed {
		return b.reversedEdgeRangesW()
	}
	return b.edgeRangesW()
}

func rangeKey(owner uuid.UUID, t models.Type, dt time.Time, other uuid.UUID) []byte {
	return enc.Build(enc.UUID(owner), enc.TypeOf(t), enc.DateTimeOf(dt), enc.UUID(other))
}

// Set inserts one index entry. Callers are responsible for deleting a stale
// entry first when an edge's datetime changes (EdgeManager.Set does this).
func (m *EdgeRangeManager) Set(b *Batch, owner uuid.UUID, t models.Type, other uuid.UUID, dt time.Time) {
	m.pendingWrites(b).Insert(rangeKey(owner, t, dt, other), nil)
}

// Delete removes one index entry.
func (m *EdgeRangeManager) Delete(b *Batch, owner uuid.UUID, t models.Type, other uuid.UUID, dt time.Time) {
	m.pendingWrites(b).Remove(rangeKey(owner, t, dt, other))
}

func decodeRangeItem(key []byte) (owner uuid.UUID, item EdgeRangeItem, err error) {
	c := enc.NewCursor(key)
	owner, err = c.ReadUUID()
	if err != nil {
		return
	}
	item.T, err = c.ReadType()
	if err != nil {
		return
	}
	item.UpdateDatetime, err = c.ReadDateTime()
	if err != nil {
		return
	}
	item.Other, err = c.ReadUUID()
	return
}

// IterateForOwner returns every index entry owned by owner, in ascending
// (type, datetime, other) order, unfiltered.
func (m *EdgeRangeManager) IterateForOwner(owner uuid.UUID) ([]EdgeRangeItem, error) {
	prefix := enc.Build(enc.UUID(owner))
	it, err := m.keyspace().ScanPrefix(prefix)
	if err != nil {
		return nil, newStoreError(m.keyspaceName(), prefix, err)
	}
	defer it.Close()

	var out []EdgeRangeItem
	for it.Next() {
		_, item, err := decodeRangeItem(it.Key())
		if err != nil {
			return nil, newIteratorError(m.keyspaceName(), err)
		}
		out = append(out, item)
	}
	if err := it.Err(); err != nil {
		return nil, newIteratorError(m.keyspaceName(), err)
	}
	return out, nil
}

// IterateForRange returns up to limit index entries owned by first,
// optionally narrowed to one edge type and/or to entries whose datetime is
// at or before highDatetime. A typeFilter narrows the scan prefix itself
// (cheaper), while highDatetime is checked after decoding each candidate key
// and only ever trims the decoded result set, since ascending key order does
// not correspond to a descending-datetime cutoff.
func (m *EdgeRangeManager) IterateForRange(first uuid.UUID, typeFilter *models.Type, highDatetime *time.Time, limit int) ([]EdgeRangeItem, error) {
	var prefix []byte
	if typeFilter != nil {
		prefix = enc.Build(enc.UUID(first), enc.TypeOf(*typeFilter))
	} else {
		prefix = enc.Build(enc.UUID(first))
	}

	it, err := m.keyspace().ScanPrefix(prefix)
	if err != nil {
		return nil, newStoreError(m.keyspaceName(), prefix, err)
	}
	defer it.Close()

	out := make([]EdgeRangeItem, 0, limit)
	for len(out) < limit && it.Next() {
		_, item, err := decodeRangeItem(it.Key())
		if err != nil {
			return nil, newIteratorError(m.keyspaceName(), err)
		}
		if highDatetime != nil && item.UpdateDatetime.After(*highDatetime) {
			continue
		}
		out = append(out, item)
	}
	if err := it.Err(); err != nil {
		return nil, newIteratorError(m.keyspaceName(), err)
	}
	return out, nil
}
