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
	"context"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/hollowcore/graphdb/kv"
)

// Batch accumulates writes against some subset of a Holder's six keyspaces
// and applies them as one atomic transaction. Managers that need to mutate
// more than one keyspace for a single logical operation (cascading deletes,
// edge range index maintenance) all write into the same Batch so the whole
// operation commits or nothing does.
//
// A Batch is not safe for concurrent use.
type Batch struct {
	holder *Holder

	vertices           kv.PendingWrites
	edges              kv.PendingWrites
	edgeRanges         kv.PendingWrites
	reversedEdgeRanges kv.PendingWrites
	vertexProperties   kv.PendingWrites
	edgeProperties     kv.PendingWrites
}

// NewBatch returns an empty batch bound to h.
func NewBatch(h *Holder) *Batch {
	return &Batch{holder: h}
}

// wrap layers the holder's value codec over a write set, so that what a
// manager enqueues here is byte-identical to what a direct Keyspace.Put
// would have stored. The raw store-created write set stays in the Batch
// field; only that one is handed to Store.Update.
func (b *Batch) wrap(pw kv.PendingWrites) kv.PendingWrites {
	if b.holder.codec != nil {
		return b.holder.codec.wrapPendingWrites(pw)
	}
	return pw
}

func (b *Batch) verticesW() kv.PendingWrites {
	if b.vertices == nil {
		b.vertices = b.holder.store.NewPendingWrites()
	}
	return b.wrap(b.vertices)
}

func (b *Batch) edgesW() kv.PendingWrites {
	if b.edges == nil {
		b.edges = b.holder.store.NewPendingWrites()
	}
	return b.wrap(b.edges)
}

func (b *Batch) edgeRangesW() kv.PendingWrites {
	if b.edgeRanges == nil {
		b.edgeRanges = b.holder.store.NewPendingWrites()
	}
	return b.wrap(b.edgeRanges)
}

func (b *Batch) reversedEdgeRangesW() kv.PendingWrites {
	if b.reversedEdgeRanges == nil {
		b.reversedEdgeRanges = b.holder.store.NewPendingWrites()
	}
	return b.wrap(b.reversedEdgeRanges)
}

func (b *Batch) vertexPropertiesW() kv.PendingWrites {
	if b.vertexProperties == nil {
		b.vertexProperties = b.holder.store.NewPendingWrites()
	}
	return b.wrap(b.vertexProperties)
}

func (b *Batch) edgePropertiesW() kv.PendingWrites {
	if b.edgeProperties == nil {
		b.edgeProperties = b.holder.store.NewPendingWrites()
	}
	return b.wrap(b.edgeProperties)
}

func (b *Batch) writes() map[string]kv.PendingWrites {
	writes := make(map[string]kv.PendingWrites, 6)
	if b.vertices != nil {
		writes[KeyspaceVertices] = b.vertices
	}
	if b.edges != nil {
		writes[KeyspaceEdges] = b.edges
	}
	if b.edgeRanges != nil {
		writes[KeyspaceEdgeRanges] = b.edgeRanges
	}
	if b.reversedEdgeRanges != nil {
		writes[KeyspaceReversedEdgeRanges] = b.reversedEdgeRanges
	}
	if b.vertexProperties != nil {
		writes[KeyspaceVertexProperties] = b.vertexProperties
	}
	if b.edgeProperties != nil {
		writes[KeyspaceEdgeProperties] = b.edgeProperties
	}
	return writes
}

// Apply commits the batch in a single attempt. A failed commit leaves the
// store untouched (see kv.Store.Update); the caller gets back a
// *TransactionAbort and may re-drive the whole batch.
func (b *Batch) Apply(ctx context.Context) error {
	return b.ApplyWithRetry(ctx, &backoff.StopBackOff{})
}

// ApplyWithRetry commits the batch, retrying the whole transaction under
// policy on failure. Use backoff.NewExponentialBackOff() to tolerate
// transient engine contention; the default Apply never retries.
func (b *Batch) ApplyWithRetry(ctx context.Context, policy backoff.BackOff) error {
	writes := b.writes()
	if len(writes) == 0 {
		return nil
	}
	op := func() error {
		return b.holder.store.Update(ctx, writes)
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		b.holder.log.Warn("batch apply aborted",
			zap.Int("keyspaces", len(writes)),
			zap.Error(err),
		)
		return &TransactionAbort{Cause: err}
	}
	return nil
}
