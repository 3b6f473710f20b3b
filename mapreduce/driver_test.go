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
	"errors"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hollowcore/graphdb/graphstore"
	"github.com/hollowcore/graphdb/kv/memkv"
	"github.com/hollowcore/graphdb/models"
)

func newTestHolder(t *testing.T) *graphstore.Holder {
	t.Helper()
	h, err := graphstore.Open("", graphstore.Options{}, memkv.Open, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func seedVertices(t *testing.T, h *graphstore.Holder, n int) {
	t.Helper()
	vm := graphstore.NewVertexManager(h)
	for i := 0; i < n; i++ {
		require.NoError(t, vm.Create(models.NewVertex(uuid.New(), models.MustType("item"))))
	}
}

// TestMapReduceCount is scenario 6: map returns 1, reduce sums, N vertices
// in yields N out.
func TestMapReduceCount(t *testing.T) {
	h := newTestHolder(t)
	const n = 37
	seedVertices(t, h, n)

	d := &Driver{
		ReducerChunkSize: 4,
		Map: func(models.Vertex) (json.RawMessage, error) {
			return json.Marshal(1)
		},
		Reduce: func(vals []json.RawMessage) (json.RawMessage, error) {
			sum := 0
			for _, v := range vals {
				var x int
				if err := json.Unmarshal(v, &x); err != nil {
					return nil, err
				}
				sum += x
			}
			return json.Marshal(sum)
		},
	}

	out, err := Run(context.Background(), d, h)
	require.NoError(t, err)

	var got int
	require.NoError(t, json.Unmarshal(out, &got))
	require.Equal(t, n, got)
}

func TestMapReduceEmptyGraphReturnsNull(t *testing.T) {
	h := newTestHolder(t)
	d := &Driver{
		Map:    func(models.Vertex) (json.RawMessage, error) { return json.Marshal(1) },
		Reduce: func([]json.RawMessage) (json.RawMessage, error) { return json.Marshal(0) },
	}
	out, err := Run(context.Background(), d, h)
	require.NoError(t, err)
	require.Nil(t, out)
}

// TestMapReduceMapErrorShortCircuits covers the cancellation scenario: a
// map error is returned from Run, and nothing keeps running afterward.
func TestMapReduceMapErrorShortCircuits(t *testing.T) {
	h := newTestHolder(t)
	seedVertices(t, h, 50)

	boom := errors.New("boom")
	d := &Driver{
		NumWorkers: 2,
		QueryLimit: 5,
		Map: func(models.Vertex) (json.RawMessage, error) {
			return nil, boom
		},
		Reduce: func(vals []json.RawMessage) (json.RawMessage, error) {
			return json.Marshal(len(vals))
		},
	}

	_, err := Run(context.Background(), d, h)
	require.ErrorIs(t, err, boom)
}

// TestMapReduceReportsShardProgress checks that OnShardComplete fires once
// per drained shard (producer pages and reduce steps) and that the
// cumulative count it reports ends equal to the number of calls.
func TestMapReduceReportsShardProgress(t *testing.T) {
	h := newTestHolder(t)
	const n = 23
	seedVertices(t, h, n)

	var calls atomic.Int64
	var last atomic.Uint64
	d := &Driver{
		QueryLimit: 5,
		Logger:     zap.NewNop(),
		Map: func(models.Vertex) (json.RawMessage, error) {
			return json.Marshal(1)
		},
		Reduce: func(vals []json.RawMessage) (json.RawMessage, error) {
			return json.Marshal(len(vals))
		},
		OnShardComplete: func(completed uint64) {
			calls.Add(1)
			last.Store(completed)
		},
	}

	_, err := Run(context.Background(), d, h)
	require.NoError(t, err)

	require.Greater(t, calls.Load(), int64(0))
	require.Equal(t, uint64(calls.Load()), last.Load())
}
