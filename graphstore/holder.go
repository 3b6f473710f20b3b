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

// Package graphstore is the storage core: the keyspace holder (C2), the
// uber-batch (C3), and the six managers (C4-C7) that together implement the
// property-graph layout spec.md describes.
package graphstore

import (
	"go.uber.org/zap"

	"github.com/hollowcore/graphdb/kv"
)

// Keyspace names, matching spec.md §2/§3 exactly. Open opens exactly these
// six and no others.
const (
	KeyspaceVertices           = "vertices"
	KeyspaceEdges              = "edges"
	KeyspaceEdgeRanges         = "edge_ranges"
	KeyspaceReversedEdgeRanges = "reversed_edge_ranges"
	KeyspaceVertexProperties   = "vertex_properties"
	KeyspaceEdgeProperties     = "edge_properties"
)

var allKeyspaces = [6]string{
	KeyspaceVertices,
	KeyspaceEdges,
	KeyspaceEdgeRanges,
	KeyspaceReversedEdgeRanges,
	KeyspaceVertexProperties,
	KeyspaceEdgeProperties,
}

// Options configures a Holder. The zero value disables compression.
type Options struct {
	UseCompression bool
	// CompressionFactor is the zstd-ish compression factor to use when
	// UseCompression is set. Nil defaults to 5, matching the original
	// sled-backed datastore's default.
	CompressionFactor *int
}

// StoreOpener opens the underlying kv.Store at path. memkv.Open is the
// reference implementation; production callers supply an adapter over
// whatever ordered engine they run (MDBX, Pebble, bbolt, ...).
type StoreOpener func(path string) (kv.Store, error)

// Holder owns the six keyspaces of a graph and the kv.Store they live in.
// Managers hold non-owning references to a Holder; only Holder.Close
// releases the underlying store.
type Holder struct {
	store kv.Store
	log   *zap.Logger

	// codec is non-nil when Options.UseCompression was set; Batch wraps its
	// pending writes with it so batched values land compressed the same way
	// direct Puts do.
	codec *valueCodec

	Vertices           kv.Keyspace
	Edges              kv.Keyspace
	EdgeRanges         kv.Keyspace
	ReversedEdgeRanges kv.Keyspace
	VertexProperties   kv.Keyspace
	EdgeProperties     kv.Keyspace
}

// Open opens the underlying store at path via openStore, then opens all six
// named keyspaces. Failure to open any keyspace aborts construction and
// closes the store. A nil logger is replaced with a no-op logger.
func Open(path string, opts Options, openStore StoreOpener, logger *zap.Logger) (*Holder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := openStore(path)
	if err != nil {
		return nil, newStoreError("", nil, err)
	}

	var codec *valueCodec
	if opts.UseCompression {
		codec, err = newValueCodec(compressionLevel(opts.CompressionFactor))
		if err != nil {
			_ = store.Close()
			return nil, newStoreError("", nil, err)
		}
	}
	h := &Holder{store: store, log: logger, codec: codec}

	opened := make(map[string]kv.Keyspace, len(allKeyspaces))
	for _, name := range allKeyspaces {
		ks, err := store.OpenKeyspace(name)
		if err != nil {
			_ = store.Close()
			return nil, newStoreError(name, nil, err)
		}
		if codec != nil {
			ks = codec.wrapKeyspace(ks)
		}
		opened[name] = ks
	}

	h.Vertices = opened[KeyspaceVertices]
	h.Edges = opened[KeyspaceEdges]
	h.EdgeRanges = opened[KeyspaceEdgeRanges]
	h.ReversedEdgeRanges = opened[KeyspaceReversedEdgeRanges]
	h.VertexProperties = opened[KeyspaceVertexProperties]
	h.EdgeProperties = opened[KeyspaceEdgeProperties]

	logger.Info("opened graph keyspaces",
		zap.Bool("compression", opts.UseCompression),
		zap.Int("count", len(allKeyspaces)),
	)
	return h, nil
}

// Close releases the underlying store.
func (h *Holder) Close() error {
	return h.store.Close()
}
