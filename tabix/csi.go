// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabix

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/index"
	"github.com/biogo/hts/csi"

	"github.com/biogo/tribble/internal"
	"github.com/biogo/tribble/internal/le"
)

// auxLength is the length of the fixed part of the tabix header
// held in the auxiliary data of a CSI index.
const auxLength = 28

// CSI is a CSI index over a tab-delimited file. The column layout and
// reference names are stored in the auxiliary data of the CSI index
// using the tabix header layout.
type CSI struct {
	meta *Index
	idx  *csi.Index
}

// NewCSI returns a new CSI index with the column layout of meta and the
// given minimum shift and depth. Reference names held by meta are
// ignored.
func NewCSI(meta *Index, minShift, depth int) *CSI {
	m := New(meta.Format, meta.ZeroBased, meta.NameColumn, meta.BeginColumn, meta.EndColumn, meta.MetaChar, meta.Skip)
	return &CSI{meta: m, idx: csi.New(minShift, depth)}
}

// Meta returns the column layout and reference names of the index as
// an Index holding no bins.
func (c *CSI) Meta() *Index { return c.meta }

// NumRefs returns the number of references in the index.
func (c *CSI) NumRefs() int { return c.meta.NumRefs() }

// Names returns the reference names in the index in file order.
func (c *CSI) Names() []string { return c.meta.Names() }

// IDs returns a map of strings to integer IDs.
func (c *CSI) IDs() map[string]int { return c.meta.IDs() }

// Add records the record as having being located at the given chunk.
func (c *CSI) Add(r Record, chunk bgzf.Chunk) error {
	rid := c.meta.refID(r.RefName())
	return c.idx.Add(tabixShim{id: rid, start: r.Start(), end: r.End()}, chunk, true, true)
}

// Chunks returns the merged []bgzf.Chunk that may contain records overlapping
// the given zero-based half-open interval on the named reference. If the
// reference is not in the index, index.ErrNoReference is returned.
func (c *CSI) Chunks(ref string, beg, end int) ([]bgzf.Chunk, error) {
	id, ok := c.meta.nameMap[ref]
	if !ok {
		return nil, index.ErrNoReference
	}
	if beg >= end {
		return nil, nil
	}
	chunks := c.idx.Chunks(id, beg, end)
	return internal.Merge(append([]bgzf.Chunk(nil), chunks...)), nil
}

// ReadCSI reads a BGZF compressed CSI index from r.
func ReadCSI(r io.Reader) (*CSI, error) {
	bg, err := bgzf.NewReader(r, 1)
	if err != nil {
		return nil, fmt.Errorf("tabix: failed to open bgzf stream: %w", err)
	}
	defer bg.Close()
	return ReadCSIFrom(bg)
}

// ReadCSIFrom reads a CSI index from r. The stream must already be
// decompressed.
func ReadCSIFrom(r io.Reader) (*CSI, error) {
	idx, err := csi.ReadFrom(r)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("csi: failed to read index: %w", le.ErrTruncated)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(idx.Auxilliary) < auxLength {
		return nil, fmt.Errorf("%w: csi auxiliary data too short for tabix header: %d", ErrMalformed, len(idx.Auxilliary))
	}

	d := le.NewDecoder(bytes.NewReader(idx.Auxilliary), "csi")
	meta := Index{}
	readTabixHeader(d, &meta)
	if d.Err() != nil {
		return nil, d.Err()
	}
	if len(meta.refNames) < idx.NumRefs() {
		return nil, fmt.Errorf("%w: name count mismatch: %d < %d", ErrMalformed, len(meta.refNames), idx.NumRefs())
	}
	err = meta.buildNameMap()
	if err != nil {
		return nil, err
	}
	return &CSI{meta: &meta, idx: idx}, nil
}

// WriteCSI writes the CSI index to the given io.Writer with the column
// layout stored as auxiliary data. WriteCSI does not perform
// compression.
func WriteCSI(w io.Writer, c *CSI) error {
	var aux bytes.Buffer
	e := le.NewEncoder(&aux, "csi")
	writeTabixHeader(e, c.meta)
	if e.Err() != nil {
		return e.Err()
	}
	c.idx.Auxilliary = aux.Bytes()
	return csi.WriteTo(w, c.idx)
}
