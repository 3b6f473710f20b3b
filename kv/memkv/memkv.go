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

// Package memkv is a reference kv.Store backed by an in-memory ordered
// B-tree per keyspace (github.com/google/btree). It exists so the rest of
// this module has a real ordered store to run against; production callers
// are expected to supply their own kv.Store (MDBX, Pebble, bbolt, ...).
package memkv

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/hollowcore/graphdb/kv"
)

const btreeDegree = 32

type entry struct {
	key   []byte
	value []byte
}

func lessEntry(a, b entry) bool { return bytes.Compare(a.key, b.key) < 0 }

type keyspace struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[entry]
}

func newKeyspace() *keyspace {
	return &keyspace{tree: btree.NewG(btreeDegree, lessEntry)}
}

func (k *keyspace) Get(key []byte) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if e, ok := k.tree.Get(entry{key: key}); ok {
		return append([]byte(nil), e.value...), nil
	}
	return nil, nil
}

func (k *keyspace) Put(key, value []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tree.ReplaceOrInsert(entry{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
	return nil
}

func (k *keyspace) Delete(key []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tree.Delete(entry{key: key})
	return nil
}

// snapshot clones the keyspace's tree under a read lock. google/btree's
// Clone is copy-on-write, so the clone is O(1) and the caller can iterate
// it without holding the lock or racing concurrent writers.
func (k *keyspace) snapshot() *btree.BTreeG[entry] {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.tree.Clone()
}

func (k *keyspace) Scan(start []byte) (kv.Iterator, error) {
	snap := k.snapshot()
	items := make([]entry, 0, snap.Len())
	collect := func(e entry) bool {
		items = append(items, e)
		return true
	}
	if start == nil {
		snap.Ascend(collect)
	} else {
		snap.AscendGreaterOrEqual(entry{key: start}, collect)
	}
	return &sliceIterator{items: items, pos: -1}, nil
}

func (k *keyspace) ScanPrefix(prefix []byte) (kv.Iterator, error) {
	snap := k.snapshot()
	var items []entry
	snap.AscendGreaterOrEqual(entry{key: prefix}, func(e entry) bool {
		if !bytes.HasPrefix(e.key, prefix) {
			return false
		}
		items = append(items, e)
		return true
	})
	return &sliceIterator{items: items, pos: -1}, nil
}

type sliceIterator struct {
	items []entry
	pos   int
}

func (it *sliceIterator) Next() bool {
	it.pos++
	return it.pos < len(it.items)
}

func (it *sliceIterator) Key() []byte   { return it.items[it.pos].key }
func (it *sliceIterator) Value() []byte { return it.items[it.pos].value }
func (it *sliceIterator) Err() error    { return nil }
func (it *sliceIterator) Close() error  { return nil }

type op struct {
	remove bool
	key    []byte
	value  []byte
}

type pendingWrites struct {
	ops []op
}

func (p *pendingWrites) Insert(key, value []byte) {
	p.ops = append(p.ops, op{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
}

func (p *pendingWrites) Remove(key []byte) {
	p.ops = append(p.ops, op{remove: true, key: append([]byte(nil), key...)})
}

// Store is an in-memory kv.Store. The zero value is not usable; use New.
type Store struct {
	mu        sync.Mutex
	keyspaces map[string]*keyspace
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{keyspaces: make(map[string]*keyspace)}
}

// Open is a graphstore.StoreOpener adapter: it ignores path and returns a
// fresh in-memory store, for tests and examples that have no durable engine
// wired in.
func Open(path string) (kv.Store, error) {
	return New(), nil
}

func (s *Store) OpenKeyspace(name string) (kv.Keyspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ks, ok := s.keyspaces[name]
	if !ok {
		ks = newKeyspace()
		s.keyspaces[name] = ks
	}
	return ks, nil
}

func (s *Store) NewPendingWrites() kv.PendingWrites {
	return &pendingWrites{}
}

// Update stages a clone of every touched keyspace's tree, applies that
// keyspace's queued ops to its own clone, and only swaps the clones in once
// every one of them built without error -- so a mid-batch failure can never
// leave some keyspaces mutated and others not.
func (s *Store) Update(ctx context.Context, writes map[string]kv.PendingWrites) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type staged struct {
		ks    *keyspace
		clone *btree.BTreeG[entry]
	}
	stageList := make([]staged, 0, len(writes))

	for name, pw := range writes {
		ks, ok := s.keyspaces[name]
		if !ok {
			ks = newKeyspace()
			s.keyspaces[name] = ks
		}
		pwt, ok := pw.(*pendingWrites)
		if !ok {
			return fmt.Errorf("memkv: pending writes for keyspace %q were not created by this store", name)
		}

		ks.mu.RLock()
		clone := ks.tree.Clone()
		ks.mu.RUnlock()

		for _, o := range pwt.ops {
			if o.remove {
				clone.Delete(entry{key: o.key})
			} else {
				clone.ReplaceOrInsert(entry{key: o.key, value: o.value})
			}
		}
		stageList = append(stageList, staged{ks: ks, clone: clone})
	}

	for _, st := range stageList {
		st.ks.mu.Lock()
		st.ks.tree = st.clone
		st.ks.mu.Unlock()
	}
	return nil
}

func (s *Store) Close() error { return nil }
