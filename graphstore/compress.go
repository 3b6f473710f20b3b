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
	"github.com/klauspost/compress/zstd"

	"github.com/hollowcore/graphdb/kv"
)

// compressionLevel maps the sled-style "compression factor" config knob
// (nominally 1-22, default 5) onto the nearest zstd.EncoderLevel. The
// mapping is coarse by design -- factor is a tuning hint, not a precise
// zstd parameter.
func compressionLevel(factor *int) zstd.EncoderLevel {
	f := 5
	if factor != nil {
		f = *factor
	}
	switch {
	case f <= 1:
		return zstd.SpeedFastest
	case f <= 5:
		return zstd.SpeedDefault
	case f <= 9:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// valueCodec is one zstd encoder/decoder pair shared by every access path of
// a Holder. Both the direct write path (Keyspace.Put) and the batched write
// path (PendingWrites.Insert, applied by Store.Update) compress through the
// same encoder, so a value is decodable no matter which path stored it.
type valueCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newValueCodec(level zstd.EncoderLevel) (*valueCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &valueCodec{enc: enc, dec: dec}, nil
}

func (c *valueCodec) wrapKeyspace(ks kv.Keyspace) kv.Keyspace {
	return &compressingKeyspace{inner: ks, codec: c}
}

func (c *valueCodec) wrapPendingWrites(pw kv.PendingWrites) kv.PendingWrites {
	return &compressingPendingWrites{inner: pw, codec: c}
}

// compressingPendingWrites compresses batched inserts before they reach the
// store's own write set. Keys and removes pass through untouched.
type compressingPendingWrites struct {
	inner kv.PendingWrites
	codec *valueCodec
}

func (c *compressingPendingWrites) Insert(key, value []byte) {
	c.inner.Insert(key, c.codec.enc.EncodeAll(value, nil))
}

func (c *compressingPendingWrites) Remove(key []byte) { c.inner.Remove(key) }

// compressingKeyspace wraps a kv.Keyspace so that every stored value is
// zstd-compressed and every read value is transparently decompressed. Keys
// pass through untouched -- range-scan ordering is defined over raw key
// bytes and must not change under compression.
type compressingKeyspace struct {
	inner kv.Keyspace
	codec *valueCodec
}

func (c *compressingKeyspace) Get(key []byte) ([]byte, error) {
	v, err := c.inner.Get(key)
	if err != nil || v == nil {
		return v, err
	}
	return c.codec.dec.DecodeAll(v, nil)
}

func (c *compressingKeyspace) Put(key, value []byte) error {
	return c.inner.Put(key, c.codec.enc.EncodeAll(value, nil))
}

func (c *compressingKeyspace) Delete(key []byte) error { return c.inner.Delete(key) }

func (c *compressingKeyspace) Scan(start []byte) (kv.Iterator, error) {
	it, err := c.inner.Scan(start)
	if err != nil {
		return nil, err
	}
	return &decompressingIterator{Iterator: it, dec: c.codec.dec}, nil
}

func (c *compressingKeyspace) ScanPrefix(prefix []byte) (kv.Iterator, error) {
	it, err := c.inner.ScanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	return &decompressingIterator{Iterator: it, dec: c.codec.dec}, nil
}

// decompressingIterator decodes each value on demand; the underlying
// iterator's Err still governs end-of-scan, a decode failure just also
// sticks around in err so a subsequent Err() call surfaces it.
type decompressingIterator struct {
	kv.Iterator
	dec *zstd.Decoder
	err error
}

func (d *decompressingIterator) Value() []byte {
	out, err := d.dec.DecodeAll(d.Iterator.Value(), nil)
	if err != nil {
		d.err = err
		return nil
	}
	return out
}

func (d *decompressingIterator) Err() error {
	if d.err != nil {
		return d.err
	}
	return d.Iterator.Err()
}
