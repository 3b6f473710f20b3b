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
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hollowcore/graphdb/kv"
	"github.com/hollowcore/graphdb/kv/memkv"
	"github.com/hollowcore/graphdb/models"
)

// failingStore delegates to an in-memory store but fails every Update while
// armed, so tests can observe what a refused commit leaves behind.
type failingStore struct {
	kv.Store
	armed    bool
	attempts int
}

var errCommitRefused = errors.New("injected commit failure")

func (s *failingStore) Update(ctx context.Context, writes map[string]kv.PendingWrites) error {
	s.attempts++
	if s.armed {
		return errCommitRefused
	}
	return s.Store.Update(ctx, writes)
}

// TestFailedApplyLeavesStoreUntouched injects a commit failure and asserts
// the pre-apply image survives in every keyspace the batch touched.
func TestFailedApplyLeavesStoreUntouched(t *testing.T) {
	fs := &failingStore{Store: memkv.New()}
	open := func(string) (kv.Store, error) { return fs, nil }
	h, err := Open("", Options{}, open, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	vm := NewVertexManager(h)
	em := NewEdgeManager(h)

	u1, u2 := uuid.New(), uuid.New()
	typ := models.MustType("knows")
	key := models.EdgeKey{OutboundID: u1, T: typ, InboundID: u2}
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, vm.Create(models.NewVertex(u1, models.MustType("person"))))
	b := NewBatch(h)
	require.NoError(t, em.Set(b, key, t1))
	require.NoError(t, b.Apply(context.Background()))

	fs.armed = true
	b = NewBatch(h)
	require.NoError(t, vm.Delete(b, u1))
	err = b.Apply(context.Background())

	var abort *TransactionAbort
	require.ErrorAs(t, err, &abort)
	require.ErrorIs(t, err, errCommitRefused)

	// Pre-apply image is intact: vertex, edge, and both index entries.
	exists, err := vm.Exists(u1)
	require.NoError(t, err)
	require.True(t, exists)

	got, err := em.Get(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, t1.Equal(got.UpdateDatetime))

	fwd, err := NewEdgeRangeManager(h, false).IterateForOwner(u1)
	require.NoError(t, err)
	require.Len(t, fwd, 1)
	rev, err := NewEdgeRangeManager(h, true).IterateForOwner(u2)
	require.NoError(t, err)
	require.Len(t, rev, 1)

	// Re-driving the same batch after the fault clears succeeds.
	fs.armed = false
	require.NoError(t, b.Apply(context.Background()))
	exists, err = vm.Exists(u1)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestApplyWithRetryRedrivesWholeBatch(t *testing.T) {
	fs := &failingStore{Store: memkv.New()}
	open := func(string) (kv.Store, error) { return fs, nil }
	h, err := Open("", Options{}, open, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	u1 := uuid.New()
	b := NewBatch(h)
	NewVertexPropertyManager(h).Delete(b, u1, "name")

	fs.armed = true
	policy := backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
	err = b.ApplyWithRetry(context.Background(), policy)
	var abort *TransactionAbort
	require.ErrorAs(t, err, &abort)
	require.Equal(t, 4, fs.attempts)
}

func TestEmptyBatchApplyIsANoOp(t *testing.T) {
	fs := &failingStore{Store: memkv.New(), armed: true}
	open := func(string) (kv.Store, error) { return fs, nil }
	h, err := Open("", Options{}, open, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	// Nothing queued, so Update is never reached and the armed fault never
	// fires.
	require.NoError(t, NewBatch(h).Apply(context.Background()))
	require.Equal(t, 0, fs.attempts)
}

// TestCompressionRoundTrips opens a holder with compression on and checks
// values survive a write/read cycle through every access path that touches
// them: direct Puts (vertices, properties), batched inserts (edges via
// Batch.Apply), and the point reads and scans layered over both.
func TestCompressionRoundTrips(t *testing.T) {
	factor := 9
	h, err := Open("", Options{UseCompression: true, CompressionFactor: &factor}, memkv.Open, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	vm := NewVertexManager(h)
	vpm := NewVertexPropertyManager(h)
	em := NewEdgeManager(h)
	epm := NewEdgePropertyManager(h)

	u1, u2 := uuid.New(), uuid.New()
	require.NoError(t, vm.Create(models.NewVertex(u1, models.MustType("person"))))
	require.NoError(t, vm.Create(models.NewVertex(u2, models.MustType("person"))))
	require.NoError(t, vpm.Set(u1, "bio", map[string]any{"text": "same bytes back out"}))

	v, err := vm.Get(u1)
	require.NoError(t, err)
	require.Equal(t, "person", v.T.String())

	raw, err := vpm.Get(u1, "bio")
	require.NoError(t, err)
	require.JSONEq(t, `{"text":"same bytes back out"}`, string(raw))

	props, err := vpm.IterateForOwner(u1)
	require.NoError(t, err)
	require.Len(t, props, 1)
	require.Equal(t, "bio", props[0].Name)
	require.JSONEq(t, `{"text":"same bytes back out"}`, string(props[0].Value))

	vertices, err := vm.IterateForRange(uuid.Nil, 10)
	require.NoError(t, err)
	require.Len(t, vertices, 2)

	// Edge values are only ever written through a batch; the batched insert
	// must land compressed so the point read decodes it.
	key := models.EdgeKey{OutboundID: u1, T: models.MustType("follows"), InboundID: u2}
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	b := NewBatch(h)
	require.NoError(t, em.Set(b, key, t1))
	require.NoError(t, b.Apply(context.Background()))

	got, err := em.Get(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, t1.Equal(got.UpdateDatetime))

	// Overwrite re-reads the stored value for stale-index cleanup.
	b = NewBatch(h)
	require.NoError(t, em.Set(b, key, t2))
	require.NoError(t, b.Apply(context.Background()))

	fwd, err := NewEdgeRangeManager(h, false).IterateForOwner(u1)
	require.NoError(t, err)
	require.Len(t, fwd, 1)
	require.True(t, t2.Equal(fwd[0].UpdateDatetime))

	require.NoError(t, epm.Set(key, "weight", 0.3))

	// The cascade reads edges, indices, and properties back through the
	// decompressing side before enqueuing removals.
	b = NewBatch(h)
	require.NoError(t, vm.Delete(b, u1))
	require.NoError(t, b.Apply(context.Background()))

	gone, err := em.Get(key)
	require.NoError(t, err)
	require.Nil(t, gone)
	edgeProps, err := epm.IterateForOwner(key)
	require.NoError(t, err)
	require.Empty(t, edgeProps)
}
