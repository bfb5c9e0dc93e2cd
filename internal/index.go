// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package internal provides the binning index shared by the tabix reader
// and writer.
package internal

import (
	"errors"
	"sort"

	"github.com/biogo/hts/bgzf"
)

const (
	// TileWidth is the length of the interval tiling used
	// in tabix linear indexes.
	TileWidth = 0x4000

	// TileShift is log2(TileWidth).
	TileShift = 14

	// StatsDummyBin is the bin number of the reference
	// statistics bin used in tabix indexes.
	StatsDummyBin = 0x924a

	// MaxPos is the exclusive upper limit of positions that
	// can be represented by the binning scheme.
	MaxPos = 1 << indexWordBits
)

// Index is a coordinate based binning index.
type Index struct {
	Refs []RefIndex

	// Unmapped is the optional count of records
	// without coordinates.
	Unmapped *uint64

	lastRef    int
	lastRecord int
}

// RefIndex is the index of a single reference.
type RefIndex struct {
	// Bins maps bin numbers to the chunks held
	// by the bin. Chunk order within a bin is
	// not significant.
	Bins map[uint32][]bgzf.Chunk

	// Intervals is the linear index, holding the
	// lowest virtual offset of any record that
	// overlaps each TileWidth window.
	Intervals []bgzf.Offset

	// Stats is the optional pseudo-bin content.
	Stats *ReferenceStats
}

// ReferenceStats holds record statistics for a reference.
type ReferenceStats struct {
	// Chunk is the span of the indexed BGZF
	// holding records on the reference.
	Chunk bgzf.Chunk

	Mapped   uint64
	Unmapped uint64
}

// Record wraps types that may be indexed by an Index. Start and End
// are zero-based half-open.
type Record interface {
	RefID() int
	Start() int
	End() int
}

// Add records r as having been located at the given chunk. Records must
// be added in reference and then start position order.
func (i *Index) Add(r Record, c bgzf.Chunk) error {
	beg, end := r.Start(), r.End()
	if !IsValidIndexPos(beg) || !IsValidIndexPos(end) || end < beg {
		return errors.New("index: attempt to add record outside indexable range")
	}
	if end == beg {
		end++
	}

	rid := r.RefID()
	switch {
	case rid < 0:
		return errors.New("index: attempt to add record with negative reference id")
	case rid < len(i.Refs)-1:
		return errors.New("index: attempt to add record out of reference ID sort order")
	case rid >= len(i.Refs):
		refs := make([]RefIndex, rid+1)
		copy(refs, i.Refs)
		i.Refs = refs
		i.lastRecord = 0
	}
	if rid != i.lastRef {
		i.lastRef = rid
		i.lastRecord = 0
	}
	if beg < i.lastRecord {
		return errors.New("index: attempt to add record out of position sort order")
	}
	i.lastRecord = beg
	ref := &i.Refs[rid]

	// Record bin information, extending the last chunk
	// of the bin when the new chunk is contiguous.
	if ref.Bins == nil {
		ref.Bins = make(map[uint32][]bgzf.Chunk)
	}
	bin := BinFor(beg, end)
	chunks := ref.Bins[bin]
	if n := len(chunks); n != 0 && chunks[n-1].End == c.Begin {
		chunks[n-1].End = c.End
	} else {
		ref.Bins[bin] = append(chunks, c)
	}

	// Record interval tile information.
	biv := beg >> TileShift
	eiv := (end - 1) >> TileShift
	if eiv >= len(ref.Intervals) {
		intvs := make([]bgzf.Offset, eiv+1)
		copy(intvs, ref.Intervals)
		ref.Intervals = intvs
	}
	for iv := biv; iv <= eiv; iv++ {
		if isZero(ref.Intervals[iv]) {
			ref.Intervals[iv] = c.Begin
		}
	}

	// Record index stats.
	if ref.Stats == nil {
		ref.Stats = &ReferenceStats{Chunk: c}
	} else {
		ref.Stats.Chunk.End = c.End
	}
	ref.Stats.Mapped++

	return nil
}

// Chunks returns the merged, sorted chunks of ref that may hold records
// overlapping the zero-based half-open interval [beg,end). The chunks
// held by ref are not altered.
func (ref *RefIndex) Chunks(beg, end int) []bgzf.Chunk {
	min := ref.MinOffset(beg)
	var chunks []bgzf.Chunk
	for _, b := range OverlappingBinsFor(beg, end) {
		for _, c := range ref.Bins[b] {
			if VOffset(c.End) > min {
				chunks = append(chunks, c)
			}
		}
	}
	return Merge(chunks)
}

// MinOffset returns the linear index lower bound on the virtual offset
// of records overlapping a position at or after beg.
func (ref *RefIndex) MinOffset(beg int) uint64 {
	n := len(ref.Intervals)
	if n == 0 {
		return 0
	}
	iv := beg >> TileShift
	if iv < 0 {
		iv = 0
	}
	if iv >= n {
		return VOffset(ref.Intervals[n-1])
	}
	return VOffset(ref.Intervals[iv])
}

// Merge sorts chunks by begin offset, collapses overlapping chunks and
// joins neighbours that end and begin in the same BGZF block. The
// returned slice shares the backing array of chunks.
func Merge(chunks []bgzf.Chunk) []bgzf.Chunk {
	if len(chunks) == 0 {
		return nil
	}
	if !sort.IsSorted(byBeginOffset(chunks)) {
		sort.Sort(byBeginOffset(chunks))
	}

	merged := chunks[:1]
	for _, c := range chunks[1:] {
		last := &merged[len(merged)-1]
		if VOffset(c.Begin) <= VOffset(last.End) || VOffset(last.End)>>16 == VOffset(c.Begin)>>16 {
			if VOffset(c.End) > VOffset(last.End) {
				last.End = c.End
			}
			continue
		}
		merged = append(merged, c)
	}
	return merged
}

const (
	indexWordBits = 29
	nextBinShift  = 3
)

// IsValidIndexPos returns a boolean indicating whether
// the given position is in the valid range for the index.
func IsValidIndexPos(i int) bool { return 0 <= i && i <= MaxPos } // 0-based.

const (
	level0 = uint32(((1 << (iota * nextBinShift)) - 1) / 7)
	level1
	level2
	level3
	level4
	level5
)

const (
	level0Shift = indexWordBits - (iota * nextBinShift)
	level1Shift
	level2Shift
	level3Shift
	level4Shift
	level5Shift
)

// BinFor returns the bin number for given an interval covering
// [beg,end) (zero-based, half-close-half-open).
func BinFor(beg, end int) uint32 {
	end--
	switch {
	case beg>>level5Shift == end>>level5Shift:
		return level5 + uint32(beg>>level5Shift)
	case beg>>level4Shift == end>>level4Shift:
		return level4 + uint32(beg>>level4Shift)
	case beg>>level3Shift == end>>level3Shift:
		return level3 + uint32(beg>>level3Shift)
	case beg>>level2Shift == end>>level2Shift:
		return level2 + uint32(beg>>level2Shift)
	case beg>>level1Shift == end>>level1Shift:
		return level1 + uint32(beg>>level1Shift)
	}
	return level0
}

// OverlappingBinsFor returns the bin numbers for all bins overlapping
// an interval covering [beg,end) (zero-based, half-close-half-open).
// Bin 0 is always included. An end beyond the indexable range is
// clamped to MaxPos.
func OverlappingBinsFor(beg, end int) []uint32 {
	list := []uint32{level0}
	if beg < 0 {
		beg = 0
	}
	if end > MaxPos {
		end = MaxPos
	}
	if beg >= end {
		return list
	}
	end--
	for _, r := range []struct {
		offset, shift uint32
	}{
		{level1, level1Shift},
		{level2, level2Shift},
		{level3, level3Shift},
		{level4, level4Shift},
		{level5, level5Shift},
	} {
		for k := r.offset + uint32(beg>>r.shift); k <= r.offset+uint32(end>>r.shift); k++ {
			list = append(list, k)
		}
	}
	return list
}

// MakeOffset returns the bgzf.Offset corresponding to the packed
// virtual offset vOff.
func MakeOffset(vOff uint64) bgzf.Offset {
	return bgzf.Offset{
		File:  int64(vOff >> 16),
		Block: uint16(vOff),
	}
}

// VOffset returns the packed virtual offset of o. Virtual offsets are
// ordered as unsigned integers.
func VOffset(o bgzf.Offset) uint64 {
	return uint64(o.File)<<16 | uint64(o.Block)
}

func isZero(o bgzf.Offset) bool {
	return o == bgzf.Offset{}
}

type byBeginOffset []bgzf.Chunk

func (c byBeginOffset) Len() int           { return len(c) }
func (c byBeginOffset) Less(i, j int) bool { return VOffset(c[i].Begin) < VOffset(c[j].Begin) }
func (c byBeginOffset) Swap(i, j int)      { c[i], c[j] = c[j], c[i] }
