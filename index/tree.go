// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package index

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"

	"github.com/biogo/tribble/internal/le"
)

// consolidationGap is the largest gap in bytes between two blocks
// returned by a tree query that are joined into a single block.
const consolidationGap = 1000

// Interval is a closed feature interval and the block holding the
// features within it.
type Interval struct {
	Start, End int32
	Block      Block
}

// TreeChr is the interval tree index of a single contig.
type TreeChr struct {
	Name      string
	Intervals []Interval
}

type treeInterval struct {
	Interval
	id uintptr
}

func (t treeInterval) Overlap(b interval.IntRange) bool {
	return int(t.Start) <= b.End && b.Start <= int(t.End)
}
func (t treeInterval) ID() uintptr { return t.id }
func (t treeInterval) Range() interval.IntRange {
	return interval.IntRange{Start: int(t.Start), End: int(t.End)}
}

// closed is a closed query interval.
type closed struct{ beg, end int }

func (q closed) Overlap(b interval.IntRange) bool {
	return b.Start <= q.end && q.beg <= b.End
}

// Tree is a Tribble interval tree index.
type Tree struct {
	header Header
	chrs   []TreeChr
	names  map[string]int
	trees  []*interval.IntTree
}

var _ Index = (*Tree)(nil)

// NewTree returns an interval tree index with the given header and
// contig entries. Contig names must be unique and every interval must
// have Start <= End.
func NewTree(h Header, chrs []TreeChr) (*Tree, error) {
	names := make([]string, len(chrs))
	trees := make([]*interval.IntTree, len(chrs))
	for i, c := range chrs {
		names[i] = c.Name
		var t interval.IntTree
		for j, iv := range c.Intervals {
			if iv.Start > iv.End || iv.Block.Size < 0 {
				return nil, fmt.Errorf("%w: invalid interval %d-%d for %q", ErrMalformed, iv.Start, iv.End, c.Name)
			}
			err := t.Insert(treeInterval{Interval: iv, id: uintptr(j)}, false)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
		}
		trees[i] = &t
	}
	m, err := nameMap(names)
	if err != nil {
		return nil, err
	}
	return &Tree{header: h, chrs: chrs, names: m, trees: trees}, nil
}

// Header returns the index header.
func (t *Tree) Header() Header { return t.header }

// Names returns the indexed contig names in file order.
func (t *Tree) Names() []string {
	names := make([]string, len(t.chrs))
	for i, c := range t.chrs {
		names[i] = c.Name
	}
	return names
}

// HasContig returns whether the contig is indexed.
func (t *Tree) HasContig(contig string) bool {
	_, ok := t.names[contig]
	return ok
}

// Blocks returns the blocks of intervals overlapping [beg,end] sorted by
// file position. Blocks separated by less than 1000 bytes are joined.
func (t *Tree) Blocks(contig string, beg, end int) []Block {
	i, ok := t.names[contig]
	if !ok {
		return nil
	}
	hits := t.trees[i].Get(closed{beg: beg, end: end})
	if len(hits) == 0 {
		return nil
	}
	blocks := make([]Block, len(hits))
	for j, h := range hits {
		blocks[j] = h.(treeInterval).Block
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Pos < blocks[j].Pos })

	merged := blocks[:1]
	for _, b := range blocks[1:] {
		last := &merged[len(merged)-1]
		if b.Pos < last.End()+consolidationGap {
			if b.End() > last.End() {
				last.Size = b.End() - last.Pos
			}
			continue
		}
		merged = append(merged, b)
	}
	return merged
}

func (t *Tree) indexType() int32 { return IntervalTreeType }

func (t *Tree) writeChrs(e *le.Encoder) {
	e.Int32(int32(len(t.chrs)), "chromosome count")
	for _, c := range t.chrs {
		e.CString(c.Name, "chromosome name")
		e.Int32(int32(len(c.Intervals)), "interval count")
		for _, iv := range c.Intervals {
			e.Int32(iv.Start, "interval start")
			e.Int32(iv.End, "interval end")
			e.Int64(iv.Block.Pos, "block position")
			e.Int32(int32(iv.Block.Size), "block size")
		}
	}
}

func readTree(d *le.Decoder, h Header, n int) (*Tree, error) {
	var chrs []TreeChr
	for i := 0; i < n; i++ {
		var c TreeChr
		c.Name = d.CString("chromosome name")
		m := d.Count("interval count")
		for j := 0; j < m && d.Err() == nil; j++ {
			var iv Interval
			iv.Start = d.Int32("interval start")
			iv.End = d.Int32("interval end")
			iv.Block.Pos = d.Int64("block position")
			iv.Block.Size = int64(d.Int32("block size"))
			c.Intervals = append(c.Intervals, iv)
		}
		if d.Err() != nil {
			return nil, d.Err()
		}
		chrs = append(chrs, c)
	}
	return NewTree(h, chrs)
}
