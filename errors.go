// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tribble

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/biogo/hts/bgzf"

	"github.com/biogo/tribble/codec"
)

var (
	// ErrIndexMissing is matched by errors reporting that a
	// required index could not be found.
	ErrIndexMissing = errors.New("tribble: index missing")

	// ErrMalformedIndex is matched by errors reporting that
	// an index could not be parsed.
	ErrMalformedIndex = errors.New("tribble: malformed index")

	// ErrMalformedRecord is matched by errors reporting that
	// a record or header could not be decoded.
	ErrMalformedRecord = errors.New("tribble: malformed record")

	// ErrIO is matched by errors reporting a failure to open
	// or read a file.
	ErrIO = errors.New("tribble: i/o failure")
)

// ErrorKind is the class of an Error.
type ErrorKind int

// Error kinds.
const (
	IOFailure ErrorKind = iota
	IndexMissing
	MalformedIndex
	MalformedRecord
)

func (k ErrorKind) String() string {
	switch k {
	case IOFailure:
		return "i/o failure"
	case IndexMissing:
		return "index missing"
	case MalformedIndex:
		return "malformed index"
	case MalformedRecord:
		return "malformed record"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (k ErrorKind) sentinel() error {
	switch k {
	case IndexMissing:
		return ErrIndexMissing
	case MalformedIndex:
		return ErrMalformedIndex
	case MalformedRecord:
		return ErrMalformedRecord
	}
	return ErrIO
}

// Error is the error type returned by Reader operations. Errors always
// name the file they relate to.
type Error struct {
	Kind ErrorKind

	// Path is the feature or index file.
	Path string

	// Pos is the byte offset in the uncompressed stream
	// at which decoding failed, or -1 if not known.
	Pos int64

	// Chunk is the BGZF chunk being read when decoding
	// of a block compressed file failed.
	Chunk *bgzf.Chunk

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tribble: %v: %s", e.Kind, e.Path)
	switch {
	case e.Chunk != nil:
		fmt.Fprintf(&b, " in chunk %d:%d-%d:%d",
			e.Chunk.Begin.File, e.Chunk.Begin.Block, e.Chunk.End.File, e.Chunk.End.Block)
	case e.Pos >= 0:
		fmt.Fprintf(&b, " at offset %d", e.Pos)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is returns whether target is the sentinel error for the kind of e.
func (e *Error) Is(target error) bool { return target == e.Kind.sentinel() }

func (e *Error) Unwrap() error { return e.Err }

func ioError(path string, err error) *Error {
	return &Error{Kind: IOFailure, Path: path, Pos: -1, Err: err}
}

// indexError classifies a failure to load an index. File system errors
// are reported as i/o failures, all others as malformed indexes.
func indexError(path string, err error) *Error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return ioError(path, err)
	}
	return &Error{Kind: MalformedIndex, Path: path, Pos: -1, Err: err}
}

// decodeError classifies a failure to decode from a feature file.
func decodeError(path string, pos int64, chunk *bgzf.Chunk, err error) *Error {
	kind := IOFailure
	if errors.Is(err, codec.ErrMalformed) {
		kind = MalformedRecord
	}
	return &Error{Kind: kind, Path: path, Pos: pos, Chunk: chunk, Err: err}
}
