// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package index

import (
	"fmt"

	"github.com/biogo/tribble/internal/le"
)

// LinearChr is the linear index of a single contig. Blocks[i] holds
// the features starting in bin i, and blocks are contiguous in the
// indexed file.
type LinearChr struct {
	Name     string
	BinWidth int32

	// LongestFeature is the length of the longest
	// feature on the contig. It extends queries to
	// the left to catch features starting before
	// the query.
	LongestFeature int32

	// OldV3 marks entries written by early version 3
	// writers that stored a largest block size.
	OldV3 bool

	NFeatures int32
	Blocks    []Block
}

// Linear is a Tribble linear index.
type Linear struct {
	header Header
	chrs   []LinearChr
	names  map[string]int
}

var _ Index = (*Linear)(nil)

// NewLinear returns a linear index with the given header and contig
// entries. Contig names must be unique, bin widths positive and the
// blocks of each contig contiguous.
func NewLinear(h Header, chrs []LinearChr) (*Linear, error) {
	names := make([]string, len(chrs))
	for i, c := range chrs {
		if err := c.validate(); err != nil {
			return nil, err
		}
		names[i] = c.Name
	}
	m, err := nameMap(names)
	if err != nil {
		return nil, err
	}
	return &Linear{header: h, chrs: chrs, names: m}, nil
}

func (c *LinearChr) validate() error {
	if c.BinWidth <= 0 {
		return fmt.Errorf("%w: invalid bin width %d for %q", ErrMalformed, c.BinWidth, c.Name)
	}
	for i, b := range c.Blocks {
		if b.Size < 0 {
			return fmt.Errorf("%w: negative block size for %q", ErrMalformed, c.Name)
		}
		if i != 0 && c.Blocks[i-1].End() != b.Pos {
			return fmt.Errorf("%w: non-contiguous blocks for %q", ErrMalformed, c.Name)
		}
	}
	return nil
}

// Header returns the index header.
func (l *Linear) Header() Header { return l.header }

// Names returns the indexed contig names in file order.
func (l *Linear) Names() []string {
	names := make([]string, len(l.chrs))
	for i, c := range l.chrs {
		names[i] = c.Name
	}
	return names
}

// HasContig returns whether the contig is indexed.
func (l *Linear) HasContig(contig string) bool {
	_, ok := l.names[contig]
	return ok
}

// Chr returns the index entry for contig.
func (l *Linear) Chr(contig string) (LinearChr, bool) {
	i, ok := l.names[contig]
	if !ok {
		return LinearChr{}, false
	}
	return l.chrs[i], true
}

// Blocks returns a single block spanning the bins that may hold features
// overlapping [beg,end], or nil if there are none.
func (l *Linear) Blocks(contig string, beg, end int) []Block {
	i, ok := l.names[contig]
	if !ok {
		return nil
	}
	c := &l.chrs[i]
	if len(c.Blocks) == 0 {
		return nil
	}

	adjusted := beg - int(c.LongestFeature)
	if adjusted < 0 {
		adjusted = 0
	}
	width := int(c.BinWidth)
	startBin := adjusted / width
	if startBin >= len(c.Blocks) {
		return nil
	}
	endBin := (end - 1) / width
	if endBin >= len(c.Blocks) {
		endBin = len(c.Blocks) - 1
	}

	pos := c.Blocks[startBin].Pos
	size := c.Blocks[endBin].End() - pos
	if size <= 0 {
		return nil
	}
	return []Block{{Pos: pos, Size: size}}
}

func (l *Linear) indexType() int32 { return LinearType }

func (l *Linear) writeChrs(e *le.Encoder) {
	e.Int32(int32(len(l.chrs)), "chromosome count")
	for _, c := range l.chrs {
		e.CString(c.Name, "chromosome name")
		e.Int32(c.BinWidth, "bin width")
		e.Int32(int32(len(c.Blocks)), "bin count")
		e.Int32(c.LongestFeature, "longest feature")
		var old int32
		if c.OldV3 {
			old = 1
		}
		e.Int32(old, "largest block size")
		e.Int32(c.NFeatures, "feature count")

		var end int64
		for _, b := range c.Blocks {
			e.Int64(b.Pos, "bin position")
			end = b.End()
		}
		e.Int64(end, "final bin end")
	}
}

func readLinear(d *le.Decoder, h Header, n int) (*Linear, error) {
	var chrs []LinearChr
	for i := 0; i < n; i++ {
		var c LinearChr
		c.Name = d.CString("chromosome name")
		c.BinWidth = d.Int32("bin width")
		nBins := d.Count("bin count")
		c.LongestFeature = d.Int32("longest feature")
		c.OldV3 = d.Int32("largest block size") > 0
		c.NFeatures = d.Int32("feature count")

		pos := d.Int64("bin position")
		for j := 0; j < nBins && d.Err() == nil; j++ {
			next := d.Int64("bin position")
			c.Blocks = append(c.Blocks, Block{Pos: pos, Size: next - pos})
			pos = next
		}
		if d.Err() != nil {
			return nil, d.Err()
		}
		chrs = append(chrs, c)
	}
	return NewLinear(h, chrs)
}
