// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codec defines the contract between feature readers and the
// decoders of specific feature file formats.
package codec

import (
	"errors"
	"io"
)

// ErrMalformed is returned, possibly wrapped, by Codec implementations
// when a record cannot be decoded.
var ErrMalformed = errors.New("codec: malformed record")

// Feature is a genomic feature. Start and End are one-based and
// inclusive.
type Feature interface {
	Contig() string
	Start() int
	End() int
}

// Source is a decoding state over a byte stream.
type Source interface {
	// Position returns the number of bytes consumed from
	// the underlying stream plus the base offset given to
	// NewSource.
	Position() int64
}

// Header is the decoded header of a feature file.
type Header struct {
	// Value is the codec specific header value.
	Value interface{}

	// End is the offset of the first byte after the
	// header in the uncompressed stream.
	End int64
}

// Codec decodes features of type F from sources of type S. A Codec must
// be safe to use with several sources sequentially. Sources that
// implement io.Closer are closed by their users when no longer needed.
type Codec[F Feature, S Source] interface {
	// NewSource returns a new source reading from r.
	// The base offset is the position of r in its
	// underlying file.
	NewSource(r io.Reader, base int64) S

	// ReadHeader reads the header from the start of src.
	ReadHeader(src S) (Header, error)

	// Decode decodes the next entry of src. If the entry
	// is not a feature, ok is false and f is the zero
	// value.
	Decode(src S) (f F, ok bool, err error)

	// Done returns whether src is exhausted.
	Done(src S) bool
}
