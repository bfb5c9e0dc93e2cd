// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tribble

import (
	"io"

	"github.com/biogo/hts/bgzf"

	"github.com/biogo/tribble/codec"
)

// Iterator wraps a sequence of features.
type Iterator[F codec.Feature] interface {
	// Next advances the Iterator past the next feature,
	// which will then be available through the Feature
	// method. It returns false when the iteration stops,
	// either by reaching the end of the sequence or an
	// error.
	Next() bool

	// Feature returns the most recent feature read by
	// a call to Next.
	Feature() F

	// Err returns the first non-EOF error that was
	// encountered by the Iterator.
	Err() error

	// Close releases the resources held by the Iterator.
	// It is safe to call Close at any point of iteration
	// and more than once.
	Close() error
}

// segment opens the i'th sub-stream of an iteration. The returned
// closer, if not nil, is closed after the source.
type segment[S codec.Source] func(i int) (src S, c io.Closer, err error)

// iterator is the Iterator for queries and whole file iteration. It
// decodes features from a sequence of bounded sub-streams.
type iterator[F codec.Feature, S codec.Source] struct {
	codec codec.Codec[F, S]
	path  string

	// filter is false for whole file iteration.
	filter     bool
	beg, end   int
	alias      string
	chunks     []bgzf.Chunk
	positional bool

	open  segment[S]
	n     int
	next  int
	src   S
	inSrc bool
	sub   io.Closer

	release func(failed bool) error

	f      F
	err    error
	done   bool
	closed bool
}

func (it *iterator[F, S]) Next() bool {
	if it.done || it.err != nil || it.closed {
		return false
	}
	var zero F
	it.f = zero
	for {
		if !it.inSrc {
			if it.next >= it.n {
				it.done = true
				return false
			}
			if !it.advance() {
				return false
			}
		}
		if it.codec.Done(it.src) {
			it.closeSource()
			continue
		}

		pos := it.src.Position()
		f, ok, err := it.codec.Decode(it.src)
		if err != nil {
			it.fail(pos, err)
			return false
		}
		if !ok {
			continue
		}
		if it.filter {
			if (it.alias != "" && f.Contig() != it.alias) || f.Start() > it.end {
				// Past the range for this sub-stream.
				it.closeSource()
				continue
			}
			if f.End() < it.beg {
				continue
			}
			if it.alias == "" {
				it.alias = f.Contig()
			}
		}
		it.f = f
		return true
	}
}

func (it *iterator[F, S]) advance() bool {
	i := it.next
	it.next++
	src, sub, err := it.open(i)
	if err != nil {
		if sub != nil {
			sub.Close()
		}
		it.fail(-1, err)
		return false
	}
	it.src = src
	it.sub = sub
	it.inSrc = true
	return true
}

func (it *iterator[F, S]) fail(pos int64, err error) {
	var chunk *bgzf.Chunk
	if it.chunks != nil && it.next > 0 {
		c := it.chunks[it.next-1]
		chunk = &c
	}
	if !it.positional {
		pos = -1
	}
	it.err = decodeError(it.path, pos, chunk, err)
}

// closeSource releases the current sub-stream. Sources are closed
// before their underlying stream.
func (it *iterator[F, S]) closeSource() error {
	if !it.inSrc {
		return nil
	}
	var err error
	if c, ok := any(it.src).(io.Closer); ok {
		err = c.Close()
	}
	if it.sub != nil {
		if e := it.sub.Close(); err == nil {
			err = e
		}
	}
	var zero S
	it.src = zero
	it.sub = nil
	it.inSrc = false
	return err
}

func (it *iterator[F, S]) Feature() F { return it.f }

func (it *iterator[F, S]) Err() error { return it.err }

func (it *iterator[F, S]) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	err := it.closeSource()
	if it.release != nil {
		failed := it.err != nil && !errorIsRecord(it.err)
		if e := it.release(failed); err == nil {
			err = e
		}
		it.release = nil
	}
	return err
}

func errorIsRecord(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == MalformedRecord
}

type empty[F codec.Feature] struct{}

func (empty[F]) Next() bool { return false }
func (empty[F]) Feature() F {
	var f F
	return f
}
func (empty[F]) Err() error   { return nil }
func (empty[F]) Close() error { return nil }
