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

package mapreduce

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/goccy/go-json"
	"golang.org/x/sync/semaphore"
)

// taskResult is one map or reduce task's output, fed back into the shared
// results channel. shard identifies the unit of work the task belongs to:
// a producer page, or a single standalone reduce.
type taskResult struct {
	shard uint32
	val   json.RawMessage
	err   error
}

// shardState tracks one shard's in-flight tasks. sealed means the shard's
// last task has been submitted, so pending can only fall from here on.
type shardState struct {
	pending int
	sealed  bool
}

// pool bounds concurrent map/reduce task execution to numWorkers in-flight
// goroutines, tracks how many submitted tasks have yet to report a result
// (so the consumer can tell when the pool has gone idle), and records which
// shards have been fully drained in a roaring bitmap -- cheap to keep around
// for a driver that wants to report traversal progress.
type pool struct {
	sem     *semaphore.Weighted
	results chan taskResult

	outstanding atomic.Int64

	mu              sync.Mutex
	shards          map[uint32]*shardState
	completedShards *roaring.Bitmap
}

func newPool(numWorkers int) *pool {
	return &pool{
		sem:             semaphore.NewWeighted(int64(numWorkers)),
		results:         make(chan taskResult, numWorkers*4),
		shards:          make(map[uint32]*shardState),
		completedShards: roaring.New(),
	}
}

// submit acquires a worker slot, runs fn in its own goroutine, and posts its
// result to p.results tagged with shard. It blocks until a slot is free or
// ctx is done. last marks the shard's final task: until it is submitted, the
// shard stays unsealed and cannot count as complete, so early results
// draining ahead of the rest of a page's submits do not fire a completion.
func (p *pool) submit(ctx context.Context, shard uint32, last bool, fn func() (json.RawMessage, error)) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.outstanding.Add(1)
	p.mu.Lock()
	st := p.shards[shard]
	if st == nil {
		st = &shardState{}
		p.shards[shard] = st
	}
	st.pending++
	if last {
		st.sealed = true
	}
	p.mu.Unlock()

	go func() {
		val, err := fn()
		// Release before posting: a send blocked on a full results channel
		// must not hold a worker slot, or a consumer-side reduce submit can
		// deadlock against it.
		p.sem.Release(1)
		p.results <- taskResult{shard: shard, val: val, err: err}
	}()
	return nil
}

// idle reports whether every submitted task has already posted its result.
func (p *pool) idle() bool { return p.outstanding.Load() == 0 }

// recv marks one submitted task's result as accounted for. It reports
// whether that result was the shard's final one: sealed, with nothing left
// pending. The last task of a shard is submitted before it can drain, so
// exactly one recv call per sealed shard returns true.
func (p *pool) recv(shard uint32) (shardCompleted bool) {
	p.outstanding.Add(-1)
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.shards[shard]
	if st == nil {
		// A result injected without a matching submit (the producer's
		// failure path); nothing to account for.
		return false
	}
	st.pending--
	if st.sealed && st.pending <= 0 {
		delete(p.shards, shard)
		p.completedShards.Add(shard)
		return true
	}
	return false
}

// CompletedShardCount reports how many shards (producer pages and reduce
// steps) have fully drained.
func (p *pool) CompletedShardCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completedShards.GetCardinality()
}
