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

	"github.com/hollowcore/graphdb/enc"
	"github.com/hollowcore/graphdb/models"
)

// EdgeManager reads and writes the edges keyspace and keeps both edge-range
// indices (forward and reversed) and edge properties consistent with it.
type EdgeManager struct {
	h        *Holder
	forward  *EdgeRangeManager
	reversed *EdgeRangeManager
}

func NewEdgeManager(h *Holder) *EdgeManager {
	return &EdgeManager{
		h:        h,
		forward:  NewEdgeRangeManager(h, false),
		reversed: NewEdgeRangeManager(h, true),
	}
}

func edgeKey(key models.EdgeKey) []byte {
	return enc.Build(enc.UUID(key.OutboundID), enc.TypeOf(key.T), enc.UUID(key.InboundID))
}

// Get returns the edge at key, or (nil, nil) if it doesn't exist.
func (m *EdgeManager) Get(key models.EdgeKey) (*models.Edge, error) {
	raw := edgeKey(key)
	v, err := m.h.Edges.Get(raw)
	if err != nil {
		return nil, newStoreError(KeyspaceEdges, raw, err)
	}
	if v == nil {
		return nil, nil
	}
	dt, err := enc.NewCursor(v).ReadDateTime()
	if err != nil {
		return nil, newSerializationError(KeyspaceEdges, raw, err)
	}
	return &models.Edge{Key: key, UpdateDatetime: dt}, nil
}

// Set writes or overwrites the edge at key with update datetime dt. If the
// edge already exists with a different datetime, its stale index entries
// are removed before the new ones are written -- invariant I4.
func (m *EdgeManager) Set(b *Batch, key models.EdgeKey, dt time.Time) error {
	existing, err := m.Get(key)
	if err != nil {
		return err
	}
	if existing != nil && !existing.UpdateDatetime.Equal(dt) {
		m.forward.Delete(b, key.OutboundID, key.T, key.InboundID, existing.UpdateDatetime)
		m.reversed.Delete(b, key.InboundID, key.T, key.OutboundID, existing.UpdateDatetime)
	}

	raw := edgeKey(key)
	b.edgesW().Insert(raw, enc.Build(enc.DateTimeOf(dt)))
	m.forward.Set(b, key.OutboundID, key.T, key.InboundID, dt)
	m.reversed.Set(b, key.InboundID, key.T, key.OutboundID, dt)
	return nil
}

// Delete removes the edge record, both of its index entries, and every
// property stored against it. Returns nil without effect if the edge does
// not exist.
func (m *EdgeManager) Delete(b *Batch, key models.EdgeKey) error {
	existing, err := m.Get(key)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	b.edgesW().Remove(edgeKey(key))
	m.forward.Delete(b, key.OutboundID, key.T, key.InboundID, existing.UpdateDatetime)
	m.reversed.Delete(b, key.InboundID, key.T, key.OutboundID, existing.UpdateDatetime)

	propMgr := NewEdgePropertyManager(m.h)
	props, err := propMgr.IterateForOwner(key)
	if err != nil {
		return err
	}
	for _, p := range props {
		propMgr.Delete(b, key, p.Name)
	}
	return nil
}
