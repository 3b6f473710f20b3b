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

// Package kv defines the contract the storage core requires from an
// underlying ordered key/value engine. The engine itself is an external
// collaborator (spec.md §1); this package only names the shape callers of
// this module must supply, plus a reference implementation under memkv for
// running the core without a production engine wired in.
package kv

import (
	"context"
	"errors"
)

// ErrKeyspaceNotFound is returned by Store.OpenKeyspace when the named
// keyspace was never declared at open time.
var ErrKeyspaceNotFound = errors.New("kv: keyspace not found")

// ErrClosed is returned by any operation performed after Store.Close.
var ErrClosed = errors.New("kv: store is closed")

// Iterator walks a Keyspace's entries in ascending key order. Call Next
// before the first Key/Value; stop consuming and call Close as soon as
// the caller no longer needs more entries.
type Iterator interface {
	// Next advances to the next entry, returning false at end of range or
	// on error (check Err to tell the two apart).
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
	Close() error
}

// Keyspace is a single named ordered map inside a Store, with independent
// iteration. Point operations on a Keyspace are direct, non-batched writes;
// batched mutation goes through PendingWrites and Store.Update instead.
type Keyspace interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error

	// Scan returns an ascending iterator starting at the first key >= start.
	// A nil start scans from the beginning of the keyspace.
	Scan(start []byte) (Iterator, error)

	// ScanPrefix returns an ascending iterator over every key that begins
	// with prefix; the iterator stops (Next returns false, Err is nil) the
	// first time it would yield a key outside that prefix.
	ScanPrefix(prefix []byte) (Iterator, error)
}

// PendingWrites accumulates inserts and removes for one keyspace until a
// Store.Update call applies them. It is not safe for concurrent use.
type PendingWrites interface {
	Insert(key, value []byte)
	Remove(key []byte)
}

// Store is the ordered key/value engine consumed by this module: opening a
// named keyspace, point get/insert/remove, ordered range scan, prefix scan,
// a per-keyspace batch primitive, and an atomic multi-keyspace transaction
// (Update) are the operations spec.md §6 requires of it.
type Store interface {
	// OpenKeyspace returns a handle to the named keyspace, creating it on
	// first use. Implementations that require keyspaces to be declared up
	// front may instead return ErrKeyspaceNotFound for unknown names.
	OpenKeyspace(name string) (Keyspace, error)

	// NewPendingWrites returns an empty write set to be filled in and later
	// passed to Update under the same keyspace name it will be applied to.
	NewPendingWrites() PendingWrites

	// Update applies writes to their named keyspaces as a single atomic
	// transaction: either every operation in every keyspace takes effect,
	// or none does. Keys absent from writes are untouched.
	Update(ctx context.Context, writes map[string]PendingWrites) error

	Close() error
}
