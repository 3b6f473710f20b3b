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
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// StoreError wraps an underlying kv failure with the keyspace and key that
// were involved, per spec.md §7's requirement that errors carry enough
// context to identify both.
type StoreError struct {
	Keyspace string
	Key      []byte
	Cause    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("graphstore: store error in keyspace %q (key %x): %v", e.Keyspace, e.Key, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

func newStoreError(keyspace string, key []byte, cause error) error {
	if cause == nil {
		return nil
	}
	return &StoreError{Keyspace: keyspace, Key: key, Cause: pkgerrors.WithStack(cause)}
}

// SerializationError wraps a JSON encode/decode failure on a property value.
type SerializationError struct {
	Keyspace string
	Key      []byte
	Cause    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("graphstore: serialization error in keyspace %q (key %x): %v", e.Keyspace, e.Key, e.Cause)
}

func (e *SerializationError) Unwrap() error { return e.Cause }

func newSerializationError(keyspace string, key []byte, cause error) error {
	if cause == nil {
		return nil
	}
	return &SerializationError{Keyspace: keyspace, Key: key, Cause: pkgerrors.WithStack(cause)}
}

// TransactionAbort reports that Batch.Apply's multi-keyspace transaction did
// not commit. The caller is expected to re-drive the whole batch, not retry
// individual operations.
type TransactionAbort struct {
	Cause error
}

func (e *TransactionAbort) Error() string {
	return fmt.Sprintf("graphstore: transaction aborted: %v", e.Cause)
}

func (e *TransactionAbort) Unwrap() error { return e.Cause }

// IteratorError reports a per-item failure during a scan. The managers'
// scans stop at the first failed item and return this error in place of
// any results; no partial result set is returned.
type IteratorError struct {
	Keyspace string
	Cause    error
}

func (e *IteratorError) Error() string {
	return fmt.Sprintf("graphstore: iterator error in keyspace %q: %v", e.Keyspace, e.Cause)
}

func (e *IteratorError) Unwrap() error { return e.Cause }

func newIteratorError(keyspace string, cause error) error {
	if cause == nil {
		return nil
	}
	return &IteratorError{Keyspace: keyspace, Cause: pkgerrors.WithStack(cause)}
}
