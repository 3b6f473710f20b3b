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
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/hollowcore/graphdb/enc"
	"github.com/hollowcore/graphdb/models"
)

// NamedProperty is one property entry read back off a vertex or edge:
// invariant I5 guarantees Name is unique among the properties of its owner.
type NamedProperty struct {
	Name  string
	Value json.RawMessage
}

// VertexPropertyManager reads and writes the vertex_properties keyspace.
type VertexPropertyManager struct {
	h *Holder
}

func NewVertexPropertyManager(h *Holder) *VertexPropertyManager {
	return &VertexPropertyManager{h: h}
}

func vertexPropertyKey(owner uuid.UUID, name string) []byte {
	return enc.Build(enc.UUID(owner), enc.UnsizedStringOf(name))
}

func vertexPropertyPrefix(owner uuid.UUID) []byte {
	return enc.Build(enc.UUID(owner))
}

// Get returns the named property's value, or (nil, nil) if unset.
func (m *VertexPropertyManager) Get(owner uuid.UUID, name string) (json.RawMessage, error) {
	key := vertexPropertyKey(owner, name)
	v, err := m.h.VertexProperties.Get(key)
	if err != nil {
		return nil, newStoreError(KeyspaceVertexProperties, key, err)
	}
	return v, nil
}

// Set writes value, marshaled to JSON, directly (non-batched).
func (m *VertexPropertyManager) Set(owner uuid.UUID, name string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return newSerializationError(KeyspaceVertexProperties, vertexPropertyKey(owner, name), err)
	}
	key := vertexPropertyKey(owner, name)
	if err := m.h.VertexProperties.Put(key, raw); err != nil {
		return newStoreError(KeyspaceVertexProperties, key, err)
	}
	return nil
}

// Delete removes the named property via the given batch.
func (m *VertexPropertyManager) Delete(b *Batch, owner uuid.UUID, name string) {
	b.vertexPropertiesW().Remove(vertexPropertyKey(owner, name))
}

// IterateForOwner returns every property stored against owner.
func (m *VertexPropertyManager) IterateForOwner(owner uuid.UUID) ([]NamedProperty, error) {
	prefix := vertexPropertyPrefix(owner)
	it, err := m.h.VertexProperties.ScanPrefix(prefix)
	if err != nil {
		return nil, newStoreError(KeyspaceVertexProperties, prefix, err)
	}
	defer it.Close()

	var out []NamedProperty
	for it.Next() {
		c := enc.NewCursor(it.Key())
		if _, err := c.ReadUUID(); err != nil {
			return nil, newIteratorError(KeyspaceVertexProperties, err)
		}
		name := c.ReadUnsizedString()
		out = append(out, NamedProperty{Name: name, Value: append(json.RawMessage(nil), it.Value()...)})
	}
	if err := it.Err(); err != nil {
		return nil, newIteratorError(KeyspaceVertexProperties, err)
	}
	return out, nil
}

// EdgePropertyManager reads and writes the edge_properties keyspace.
type EdgePropertyManager struct {
	h *Holder
}

func NewEdgePropertyManager(h *Holder) *EdgePropertyManager {
	return &EdgePropertyManager{h: h}
}

func edgePropertyKey(owner models.EdgeKey, name string) []byte {
	return enc.Build(enc.UUID(owner.OutboundID), enc.TypeOf(owner.T), enc.UUID(owner.InboundID), enc.UnsizedStringOf(name))
}

func edgePropertyPrefix(owner models.EdgeKey) []byte {
	return enc.Build(enc.UUID(owner.OutboundID), enc.TypeOf(owner.T), enc.UUID(owner.InboundID))
}

// Get returns the named property's value, or (nil, nil) if unset.
func (m *EdgePropertyManager) Get(owner models.EdgeKey, name string) (json.RawMessage, error) {
	key := edgePropertyKey(owner, name)
	v, err := m.h.EdgeProperties.Get(key)
	if err != nil {
		return nil, newStoreError(KeyspaceEdgeProperties, key, err)
	}
	return v, nil
}

// Set writes value, marshaled to JSON, directly (non-batched).
func (m *EdgePropertyManager) Set(owner models.EdgeKey, name string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return newSerializationError(KeyspaceEdgeProperties, edgePropertyKey(owner, name), err)
	}
	key := edgePropertyKey(owner, name)
	if err := m.h.EdgeProperties.Put(key, raw); err != nil {
		return newStoreError(KeyspaceEdgeProperties, key, err)
	}
	return nil
}

// Delete removes the named property via the given batch.
func (m *EdgePropertyManager) Delete(b *Batch, owner models.EdgeKey, name string) {
	b.edgePropertiesW().Remove(edgePropertyKey(owner, name))
}

// IterateForOwner returns every property stored against the edge named by
// owner.
func (m *EdgePropertyManager) IterateForOwner(owner models.EdgeKey) ([]NamedProperty, error) {
	prefix := edgePropertyPrefix(owner)
	it, err := m.h.EdgeProperties.ScanPrefix(prefix)
	if err != nil {
		return nil, newStoreError(KeyspaceEdgeProperties, prefix, err)
	}
	defer it.Close()

	var out []NamedProperty
	for it.Next() {
		c := enc.NewCursor(it.Key())
		if _, err := c.ReadUUID(); err != nil {
			return nil, newIteratorError(KeyspaceEdgeProperties, err)
		}
		if _, err := c.ReadType(); err != nil {
			return nil, newIteratorError(KeyspaceEdgeProperties, err)
		}
		if _, err := c.ReadUUID(); err != nil {
			return nil, newIteratorError(KeyspaceEdgeProperties, err)
		}
		name := c.ReadUnsizedString()
		out = append(out, NamedProperty{Name: name, Value: append(json.RawMessage(nil), it.Value()...)})
	}
	if err := it.Err(); err != nil {
		return nil, newIteratorError(KeyspaceEdgeProperties, err)
	}
	return out, nil
}
