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

// Package models holds the domain types (vertices, edges, their identifiers)
// that the storage core serializes and indexes. It intentionally knows
// nothing about key encoding or the underlying store.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxTypeLen is the largest byte length a Type may have; the codec encodes
// its length in a single byte.
const MaxTypeLen = 255

// Type is a short identifier categorizing a vertex or an edge.
type Type struct {
	name string
}

// NewType validates name and wraps it in a Type. Validation happens here,
// once, so the codec never has to reject a Type it is asked to encode.
func NewType(name string) (Type, error) {
	if len(name) == 0 {
		return Type{}, fmt.Errorf("type name must not be empty")
	}
	if len(name) > MaxTypeLen {
		return Type{}, fmt.Errorf("type name %q is %d bytes, max is %d", name, len(name), MaxTypeLen)
	}
	return Type{name: name}, nil
}

// MustType is NewType for callers (tests, fixtures) that know the name is valid.
func MustType(name string) Type {
	t, err := NewType(name)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Type) String() string { return t.name }

// Vertex identifies a vertex and its type.
type Vertex struct {
	ID uuid.UUID
	T  Type
}

// NewVertex builds a Vertex from an id and a type.
func NewVertex(id uuid.UUID, t Type) Vertex {
	return Vertex{ID: id, T: t}
}

// EdgeKey identifies a directed edge by its three-part composite key.
type EdgeKey struct {
	OutboundID uuid.UUID
	T          Type
	InboundID  uuid.UUID
}

// Edge is an EdgeKey plus its payload.
type Edge struct {
	Key            EdgeKey
	UpdateDatetime time.Time
}
