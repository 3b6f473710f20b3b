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
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hollowcore/graphdb/enc"
	"github.com/hollowcore/graphdb/models"
)

// VertexManager reads and writes the vertices keyspace and cascades vertex
// deletion across every keyspace that can reference a vertex by id.
type VertexManager struct {
	h *Holder
}

func NewVertexManager(h *Holder) *VertexManager {
	return &VertexManager{h: h}
}

func vertexKey(id uuid.UUID) []byte {
	return enc.Build(enc.UUID(id))
}

// Exists reports whether id names a vertex, without decoding its type.
func (m *VertexManager) Exists(id uuid.UUID) (bool, error) {
	v, err := m.h.Vertices.Get(vertexKey(id))
	if err != nil {
		return false, newStoreError(KeyspaceVertices, vertexKey(id), err)
	}
	return v != nil, nil
}

// Get returns the vertex named id, or (nil, nil) if it doesn't exist.
func (m *VertexManager) Get(id uuid.UUID) (*models.Vertex, error) {
	key := vertexKey(id)
	raw, err := m.h.Vertices.Get(key)
	if err != nil {
		return nil, newStoreError(KeyspaceVertices, key, err)
	}
	if raw == nil {
		return nil, nil
	}
	t, err := models.NewType(string(raw))
	if err != nil {
		return nil, newSerializationError(KeyspaceVertices, key, err)
	}
	v := models.NewVertex(id, t)
	return &v, nil
}

// Create writes a new vertex directly (non-batched), per spec.md's
// create_vertex operation. Overwriting an existing id silently replaces its
// type; callers that must not overwrite should Exists first.
func (m *VertexManager) Create(v models.Vertex) error {
	key := vertexKey(v.ID)
	if err := m.h.Vertices.Put(key, []byte(v.T.String())); err != nil {
		return newStoreError(KeyspaceVertices, key, err)
	}
	return nil
}

// IterateForRange returns up to limit vertices in ascending id order,
// starting at the first id >= start. A zero start scans from the beginning
// of the keyspace.
func (m *VertexManager) IterateForRange(start uuid.UUID, limit int) ([]models.Vertex, error) {
	var startKey []byte
	if start != uuid.Nil {
		startKey = vertexKey(start)
	}
	it, err := m.h.Vertices.Scan(startKey)
	if err != nil {
		return nil, newStoreError(KeyspaceVertices, startKey, err)
	}
	defer it.Close()

	out := make([]models.Vertex, 0, limit)
	for len(out) < limit && it.Next() {
		id, err := enc.NewCursor(it.Key()).ReadUUID()
		if err != nil {
			return nil, newIteratorError(KeyspaceVertices, err)
		}
		t, err := models.NewType(string(it.Value()))
		if err != nil {
			return nil, newIteratorError(KeyspaceVertices, err)
		}
		out = append(out, models.NewVertex(id, t))
	}
	if err := it.Err(); err != nil {
		return nil, newIteratorError(KeyspaceVertices, err)
	}
	return out, nil
}

// Delete cascades: it removes the vertex record, every property owned by
// id, every outbound edge (and its indices and properties), and every
// inbound edge (and its indices and properties). Everything lands in b, so
// the whole cascade commits atomically or not at all.
func (m *VertexManager) Delete(b *Batch, id uuid.UUID) error {
	b.verticesW().Remove(vertexKey(id))

	propMgr := NewVertexPropertyManager(m.h)
	props, err := propMgr.IterateForOwner(id)
	if err != nil {
		return err
	}
	for _, p := range props {
		propMgr.Delete(b, id, p.Name)
	}

	edgeMgr := NewEdgeManager(m.h)
	forward := NewEdgeRangeManager(m.h, false)
	outbound, err := forward.IterateForOwner(id)
	if err != nil {
		return err
	}
	for _, item := range outbound {
		key := models.EdgeKey{OutboundID: id, T: item.T, InboundID: item.Other}
		if err := edgeMgr.Delete(b, key); err != nil {
			return err
		}
	}

	reversed := NewEdgeRangeManager(m.h, true)
	inbound, err := reversed.IterateForOwner(id)
	if err != nil {
		return err
	}
	for _, item := range inbound {
		key := models.EdgeKey{OutboundID: item.Other, T: item.T, InboundID: id}
		if err := edgeMgr.Delete(b, key); err != nil {
			return err
		}
	}

	m.h.log.Debug("vertex cascade enqueued",
		zap.String("vertex", id.String()),
		zap.Int("properties", len(props)),
		zap.Int("outbound_edges", len(outbound)),
		zap.Int("inbound_edges", len(inbound)),
	)
	return nil
}
