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

// Package mapreduce is the sharded map-reduce traversal over the vertex
// keyspace (spec component C8): a bounded-concurrency map phase feeding a
// tree-shaped, chunked reduce phase.
package mapreduce

import (
	"context"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hollowcore/graphdb/graphstore"
	"github.com/hollowcore/graphdb/models"
)

const (
	defaultNumWorkers       = 8
	defaultQueryLimit       = 65535
	defaultReducerChunkSize = 255
)

// Driver supplies the map and reduce functions for one traversal, plus the
// tuning knobs that shape it. Zero-valued fields take the documented
// defaults; NumWorkers, QueryLimit, and ReducerChunkSize are used directly
// (not clamped to some small ceiling -- see DESIGN.md's note on the source
// behavior this deliberately does not reproduce).
type Driver struct {
	NumWorkers       int
	QueryLimit       int
	ReducerChunkSize int
	TypeFilter       *models.Type

	Map    func(models.Vertex) (json.RawMessage, error)
	Reduce func([]json.RawMessage) (json.RawMessage, error)

	// Logger receives page-boundary and error events from Run. A nil Logger
	// is replaced with a no-op logger.
	Logger *zap.Logger

	// OnShardComplete, if set, is called from Run once per shard (a producer
	// page, or one reduce step) when its last task drains, with the
	// cumulative count of shards completed so far. A page with no matching
	// vertices submits no tasks and is never reported, nor is a shard whose
	// final result is an error. It is called synchronously from Run's
	// consumer loop, so it must not block.
	OnShardComplete func(completed uint64)
}

func (d *Driver) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}

func (d *Driver) numWorkers() int {
	if d.NumWorkers > 0 {
		return d.NumWorkers
	}
	return defaultNumWorkers
}

func (d *Driver) queryLimit() int {
	if d.QueryLimit > 0 {
		return d.QueryLimit
	}
	return defaultQueryLimit
}

func (d *Driver) reducerChunkSize() int {
	if d.ReducerChunkSize > 0 {
		return d.ReducerChunkSize
	}
	return defaultReducerChunkSize
}

// nextUUID returns the lexicographically next 16-byte value after id,
// wrapping around on overflow. It lets the producer resume a range scan
// strictly after the last vertex of the previous page.
func nextUUID(id uuid.UUID) uuid.UUID {
	next := id
	for i := len(next) - 1; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			break
		}
	}
	return next
}

// Run traverses every vertex in h (optionally narrowed to d.TypeFilter),
// mapping each one and folding the results together with d.Reduce, and
// returns the single surviving value (nil if the graph was empty). The
// first error from any map or reduce call is returned once every in-flight
// task has finished; the producer is signaled to stop issuing new pages at
// that point, but cancellation is page-grained, not per-task.
func Run(ctx context.Context, d *Driver, h *graphstore.Holder) (json.RawMessage, error) {
	log := d.logger()
	p := newPool(d.numWorkers())
	vm := graphstore.NewVertexManager(h)

	shutdown := make(chan struct{}, 1)
	producerDone := make(chan struct{})

	var shardSeq atomic.Uint32
	var firstErr error
	signalShutdown := func() {
		select {
		case shutdown <- struct{}{}:
		default:
		}
	}

	go func() {
		defer close(producerDone)
		start := uuid.Nil
		limit := d.queryLimit()
		for {
			select {
			case <-shutdown:
				return
			default:
			}

			page, err := vm.IterateForRange(start, limit)
			if err != nil {
				log.Warn("map-reduce producer page fetch failed", zap.Error(err))
				p.outstanding.Add(1)
				p.results <- taskResult{err: err}
				return
			}

			// Filter before submitting so the page's last task is known up
			// front; the pool seals the shard on it.
			matched := page
			if d.TypeFilter != nil {
				matched = make([]models.Vertex, 0, len(page))
				for _, v := range page {
					if v.T.String() == d.TypeFilter.String() {
						matched = append(matched, v)
					}
				}
			}

			shard := shardSeq.Add(1)
			for i, v := range matched {
				vertex := v
				last := i == len(matched)-1
				if err := p.submit(ctx, shard, last, func() (json.RawMessage, error) { return d.Map(vertex) }); err != nil {
					log.Warn("map-reduce producer submit failed", zap.Error(err))
					p.outstanding.Add(1)
					p.results <- taskResult{shard: shard, err: err}
					return
				}
			}

			if len(page) < limit {
				return
			}
			start = nextUUID(page[len(page)-1].ID)
		}
	}()

	var buffer []json.RawMessage

	maybeReduce := func() error {
		if firstErr != nil || len(buffer) == 0 {
			return nil
		}
		chunk := buffer
		buffer = nil
		shard := shardSeq.Add(1)
		return p.submit(ctx, shard, true, func() (json.RawMessage, error) { return d.Reduce(chunk) })
	}

	for {
		if firstErr == nil && len(buffer) >= d.reducerChunkSize() {
			if err := maybeReduce(); err != nil {
				return nil, err
			}
			continue
		}

		select {
		case <-producerDone:
			if p.idle() {
				if firstErr == nil && len(buffer) > 1 {
					if err := maybeReduce(); err != nil {
						return nil, err
					}
					continue
				}
				if firstErr != nil {
					return nil, firstErr
				}
				if len(buffer) == 0 {
					return nil, nil
				}
				return buffer[0], nil
			}
			r := <-p.results
			shardDone := p.recv(r.shard)
			if r.err != nil {
				log.Warn("map-reduce task failed", zap.Uint32("shard", r.shard), zap.Error(r.err))
				if firstErr == nil {
					firstErr = r.err
				}
				signalShutdown()
				continue
			}
			if shardDone && d.OnShardComplete != nil {
				d.OnShardComplete(p.CompletedShardCount())
			}
			buffer = append(buffer, r.val)
		case r := <-p.results:
			shardDone := p.recv(r.shard)
			if r.err != nil {
				log.Warn("map-reduce task failed", zap.Uint32("shard", r.shard), zap.Error(r.err))
				if firstErr == nil {
					firstErr = r.err
				}
				signalShutdown()
				continue
			}
			if shardDone && d.OnShardComplete != nil {
				d.OnShardComplete(p.CompletedShardCount())
			}
			buffer = append(buffer, r.val)
		}
	}
}
