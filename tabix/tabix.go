// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tabix implements reading and querying of tabix coordinate
// sorted indexes.
package tabix

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/index"

	"github.com/biogo/tribble/internal"
	"github.com/biogo/tribble/internal/le"
)

// Format presets.
const (
	Generic = 0
	SAM     = 1
	VCF     = 2
)

// ErrMalformed is returned, possibly wrapped, when an index
// stream does not describe a valid tabix index.
var ErrMalformed = errors.New("tabix: malformed index")

// Index is a tabix index.
type Index struct {
	// Format is the preset of the indexed
	// file: Generic, SAM or VCF.
	Format    byte
	ZeroBased bool

	// NameColumn, BeginColumn and EndColumn are the
	// 1-based columns holding the reference name and
	// the interval bounds of each record.
	NameColumn  int32
	BeginColumn int32
	EndColumn   int32

	// MetaChar marks header lines and Skip is the
	// number of leading lines to skip.
	MetaChar rune
	Skip     int32

	refNames []string
	nameMap  map[string]int

	idx internal.Index
}

// New returns a new tabix index for a file with the given column layout.
func New(format byte, zeroBased bool, name, begin, end int32, meta rune, skip int32) *Index {
	return &Index{
		Format:      format,
		ZeroBased:   zeroBased,
		NameColumn:  name,
		BeginColumn: begin,
		EndColumn:   end,
		MetaChar:    meta,
		Skip:        skip,
		nameMap:     make(map[string]int),
	}
}

// NumRefs returns the number of references in the index.
func (i *Index) NumRefs() int {
	return len(i.refNames)
}

// Names returns the reference names in the index in file order.
// The returned slice should not be altered.
func (i *Index) Names() []string {
	return i.refNames
}

// IDs returns a map of strings to integer IDs. The returned
// map should not be altered.
func (i *Index) IDs() map[string]int {
	return i.nameMap
}

// ReferenceStats returns the index statistics for the given reference and true
// if the statistics are valid.
func (i *Index) ReferenceStats(id int) (stats internal.ReferenceStats, ok bool) {
	if id < 0 || id >= len(i.idx.Refs) {
		return internal.ReferenceStats{}, false
	}
	s := i.idx.Refs[id].Stats
	if s == nil {
		return internal.ReferenceStats{}, false
	}
	return *s, true
}

// Unmapped returns the number of records without coordinates and true if
// the count is valid.
func (i *Index) Unmapped() (n uint64, ok bool) {
	if i.idx.Unmapped == nil {
		return 0, false
	}
	return *i.idx.Unmapped, true
}

// Record wraps types that may be indexed by an Index. Start and End
// are zero-based half-open.
type Record interface {
	RefName() string
	Start() int
	End() int
}

type tabixShim struct {
	id, start, end int
}

func (r tabixShim) RefID() int { return r.id }
func (r tabixShim) Start() int { return r.start }
func (r tabixShim) End() int   { return r.end }

// Add records the record as having being located at the given chunk.
// Records must be added in file order.
func (i *Index) Add(r Record, c bgzf.Chunk) error {
	rid := i.refID(r.RefName())
	return i.idx.Add(tabixShim{id: rid, start: r.Start(), end: r.End()}, c)
}

// refID returns the ID of the named reference, adding it to
// the index if it is not already present.
func (i *Index) refID(name string) int {
	if i.nameMap == nil {
		i.nameMap = make(map[string]int)
	}
	rid, ok := i.nameMap[name]
	if !ok {
		rid = len(i.refNames)
		i.refNames = append(i.refNames, name)
		i.nameMap[name] = rid
	}
	return rid
}

// Chunks returns the merged []bgzf.Chunk that may contain records overlapping
// the given zero-based half-open interval on the named reference. If the
// reference is not in the index, index.ErrNoReference is returned.
func (i *Index) Chunks(ref string, beg, end int) ([]bgzf.Chunk, error) {
	id, ok := i.nameMap[ref]
	if !ok {
		return nil, index.ErrNoReference
	}
	return i.ChunksForID(id, beg, end)
}

// ChunksForID returns the merged []bgzf.Chunk that may contain records overlapping
// the given zero-based half-open interval on the reference with the given ID.
// An empty result indicates that no record can overlap the interval.
func (i *Index) ChunksForID(id, beg, end int) ([]bgzf.Chunk, error) {
	if id < 0 || id >= len(i.refNames) {
		return nil, index.ErrNoReference
	}
	if beg >= end {
		return nil, nil
	}
	if id >= len(i.idx.Refs) {
		return nil, nil
	}
	return i.idx.Refs[id].Chunks(beg, end), nil
}

var tbiMagic = [4]byte{'T', 'B', 'I', 0x1}

// Read reads a BGZF compressed tabix index from r.
func Read(r io.Reader) (*Index, error) {
	bg, err := bgzf.NewReader(r, 1)
	if err != nil {
		return nil, fmt.Errorf("tabix: failed to open bgzf stream: %w", err)
	}
	defer bg.Close()
	return ReadFrom(bg)
}

// ReadFrom reads the tabix index from the given io.Reader. Note that
// the tabix specification states that the index is stored as BGZF, but
// ReadFrom does not perform decompression.
func ReadFrom(r io.Reader) (*Index, error) {
	d := le.NewDecoder(r, "tabix")

	var magic [4]byte
	d.Bytes(magic[:], "magic number")
	if d.Err() != nil {
		return nil, d.Err()
	}
	if magic != tbiMagic {
		return nil, fmt.Errorf("%w: magic number mismatch", ErrMalformed)
	}

	n := d.Count("reference count")
	idx := Index{}
	readTabixHeader(d, &idx)
	if d.Err() != nil {
		return nil, d.Err()
	}
	if len(idx.refNames) != n {
		return nil, fmt.Errorf("%w: name count mismatch: %d != %d", ErrMalformed, len(idx.refNames), n)
	}
	err := idx.buildNameMap()
	if err != nil {
		return nil, err
	}

	idx.idx, err = internal.ReadIndex(d, n, "tabix")
	if err != nil {
		return nil, err
	}
	return &idx, nil
}

func (i *Index) buildNameMap() error {
	i.nameMap = make(map[string]int, len(i.refNames))
	for id, name := range i.refNames {
		if _, dup := i.nameMap[name]; dup {
			return fmt.Errorf("%w: duplicate reference name %q", ErrMalformed, name)
		}
		i.nameMap[name] = id
	}
	return nil
}

func readTabixHeader(d *le.Decoder, idx *Index) {
	format := d.Int32("format")
	idx.Format = byte(format)
	idx.ZeroBased = format&0x10000 != 0

	idx.NameColumn = d.Int32("name column index")
	idx.BeginColumn = d.Int32("begin column index")
	idx.EndColumn = d.Int32("end column index")
	idx.MetaChar = rune(d.Int32("metacharacter"))
	idx.Skip = d.Int32("skip count")

	n := d.Count("name lengths")
	if d.Err() != nil || n == 0 {
		return
	}
	nameBytes := d.Block(n, "names")
	if d.Err() != nil {
		return
	}
	if nameBytes[n-1] != 0 {
		d.Fail(fmt.Errorf("%w: last name not zero-terminated", ErrMalformed))
		return
	}
	for _, name := range bytes.Split(nameBytes[:n-1], []byte{0}) {
		idx.refNames = append(idx.refNames, string(name))
	}
}

// WriteTo writes the index to the given io.Writer. Note that
// the tabix specification states that the index is stored as BGZF, but
// WriteTo does not perform compression.
func WriteTo(w io.Writer, idx *Index) error {
	e := le.NewEncoder(w, "tabix")
	e.Bytes(tbiMagic[:], "magic number")
	e.Int32(int32(len(idx.refNames)), "reference count")
	writeTabixHeader(e, idx)

	// References that were named but never given records
	// are written with empty bins and intervals.
	full := idx.idx
	if len(full.Refs) < len(idx.refNames) {
		refs := make([]internal.RefIndex, len(idx.refNames))
		copy(refs, full.Refs)
		full.Refs = refs
	}
	return internal.WriteIndex(e, &full)
}

func writeTabixHeader(e *le.Encoder, idx *Index) {
	format := int32(idx.Format)
	if idx.ZeroBased {
		format |= 0x10000
	}
	e.Int32(format, "format")
	e.Int32(idx.NameColumn, "name column index")
	e.Int32(idx.BeginColumn, "begin column index")
	e.Int32(idx.EndColumn, "end column index")
	e.Int32(int32(idx.MetaChar), "metacharacter")
	e.Int32(idx.Skip, "skip count")

	var names strings.Builder
	for _, name := range idx.refNames {
		names.WriteString(name)
		names.WriteByte(0)
	}
	e.Int32(int32(names.Len()), "name lengths")
	e.Bytes([]byte(names.String()), "names")
}
