// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package index implements reading, querying and writing of Tribble
// feature indexes. A Tribble index maps contigs to byte ranges of an
// uncompressed feature file and comes in two variants: a linear index of
// fixed width bins and an interval tree of feature groups.
package index

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/biogo/tribble/internal/le"
)

// Magic is the little-endian int32 value of the "TIDX" magic bytes.
const Magic = 0x58444954

// Index types.
const (
	LinearType       = 1
	IntervalTreeType = 2
)

// CurrentVersion is the index version written by default.
const CurrentVersion = 3

// SequenceDictionaryFlag marks pre-version 3 headers that carry a
// sequence dictionary.
const SequenceDictionaryFlag = 0x8000

var (
	// ErrMalformed is returned, possibly wrapped, when an index
	// stream does not describe a valid Tribble index.
	ErrMalformed = errors.New("index: malformed tribble index")

	// ErrTabix is returned, wrapped in ErrMalformed, when a tabix
	// index is found where a Tribble index was expected.
	ErrTabix = errors.New("index: tabix index found")
)

// Block is a byte range of an indexed feature file.
type Block struct {
	Pos  int64
	Size int64
}

// End returns the offset immediately after the block.
func (b Block) End() int64 { return b.Pos + b.Size }

// Property is a key-value header property.
type Property struct {
	Key, Value string
}

// Header is the descriptive header of a Tribble index.
type Header struct {
	Version int32

	// Path, Size, Timestamp and MD5 describe the
	// indexed file when the index was built.
	Path      string
	Size      int64
	Timestamp int64
	MD5       string

	Flags int32

	// Properties are only present in version 3
	// and later indexes.
	Properties []Property
}

// Index is a Tribble index.
type Index interface {
	// Header returns the index header.
	Header() Header

	// Names returns the indexed contig names in file order.
	Names() []string

	// HasContig returns whether the contig is indexed.
	HasContig(contig string) bool

	// Blocks returns the blocks of the indexed file that may
	// hold features on contig overlapping [beg,end] where beg
	// is the zero-based start and end is the one-based end of
	// the query. Unknown contigs return no blocks.
	Blocks(contig string, beg, end int) []Block
}

type chrWriter interface {
	Index
	indexType() int32
	writeChrs(*le.Encoder)
}

// ReadFrom reads a Tribble index from r. The stream must already be
// decompressed.
func ReadFrom(r io.Reader) (Index, error) {
	d := le.NewDecoder(r, "tribble")

	var magic [4]byte
	d.Bytes(magic[:], "magic number")
	if d.Err() != nil {
		return nil, d.Err()
	}
	switch string(magic[:]) {
	case "TIDX":
	case "TBI\x01":
		return nil, fmt.Errorf("%w: %w", ErrMalformed, ErrTabix)
	default:
		return nil, fmt.Errorf("%w: magic number mismatch: %q", ErrMalformed, magic[:])
	}

	typ := d.Int32("index type")
	h := readHeader(d)
	if d.Err() != nil {
		return nil, d.Err()
	}

	n := d.Count("chromosome count")
	if d.Err() != nil {
		return nil, d.Err()
	}
	switch typ {
	case LinearType:
		return readLinear(d, h, n)
	case IntervalTreeType:
		return readTree(d, h, n)
	default:
		return nil, fmt.Errorf("%w: unknown index type %d", ErrMalformed, typ)
	}
}

func readHeader(d *le.Decoder) Header {
	var h Header
	h.Version = d.Int32("version")
	h.Path = d.CString("indexed file path")
	h.Size = d.Int64("indexed file size")
	h.Timestamp = d.Int64("indexed file timestamp")
	h.MD5 = d.CString("indexed file md5")
	h.Flags = d.Int32("flags")

	if h.Version < 3 && h.Flags&SequenceDictionaryFlag != 0 {
		n := d.Count("sequence dictionary size")
		for i := 0; i < n && d.Err() == nil; i++ {
			d.CString("sequence name")
			d.Int32("sequence length")
		}
	}
	if h.Version >= 3 {
		n := d.Count("property count")
		for i := 0; i < n && d.Err() == nil; i++ {
			var p Property
			p.Key = d.CString("property key")
			p.Value = d.CString("property value")
			h.Properties = append(h.Properties, p)
		}
	}
	return h
}

// WriteTo writes idx to w without compression. The index must have been
// created by this package.
func WriteTo(w io.Writer, idx Index) error {
	cw, ok := idx.(chrWriter)
	if !ok {
		return fmt.Errorf("index: cannot write index of type %T", idx)
	}
	e := le.NewEncoder(w, "tribble")
	e.Bytes([]byte("TIDX"), "magic number")
	e.Int32(cw.indexType(), "index type")

	h := idx.Header()
	e.Int32(h.Version, "version")
	e.CString(h.Path, "indexed file path")
	e.Int64(h.Size, "indexed file size")
	e.Int64(h.Timestamp, "indexed file timestamp")
	e.CString(h.MD5, "indexed file md5")
	e.Int32(h.Flags, "flags")
	if h.Version < 3 && h.Flags&SequenceDictionaryFlag != 0 {
		e.Int32(0, "sequence dictionary size")
	}
	if h.Version >= 3 {
		e.Int32(int32(len(h.Properties)), "property count")
		for _, p := range h.Properties {
			e.CString(p.Key, "property key")
			e.CString(p.Value, "property value")
		}
	}

	cw.writeChrs(e)
	return e.Err()
}

// Load reads the Tribble index at path. Paths ending in ".gz" are gzip
// decompressed and paths ending in ".xz" are xz decompressed.
func Load(path string) (Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("index: failed to open gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".xz"):
		x, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("index: failed to open xz stream %s: %w", path, err)
		}
		r = x
	}
	idx, err := ReadFrom(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return idx, nil
}

func nameMap(names []string) (map[string]int, error) {
	m := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := m[n]; dup {
			return nil, fmt.Errorf("%w: duplicate contig %q", ErrMalformed, n)
		}
		m[n] = i
	}
	return m, nil
}
