// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"fmt"

	"github.com/biogo/hts/bgzf"

	"github.com/biogo/tribble/internal/le"
)

// ReadIndex reads the binning index for n references from d.
func ReadIndex(d *le.Decoder, n int, typ string) (Index, error) {
	var idx Index
	for i := 0; i < n; i++ {
		var ref RefIndex
		readBins(d, &ref, typ)
		readIntervals(d, &ref)
		if d.Err() != nil {
			return Index{}, d.Err()
		}
		idx.Refs = append(idx.Refs, ref)
	}
	nUnmapped, ok := d.OptionalUint64("unmapped record count")
	if ok {
		idx.Unmapped = &nUnmapped
	}
	if d.Err() != nil {
		return Index{}, d.Err()
	}
	return idx, nil
}

func readBins(d *le.Decoder, ref *RefIndex, typ string) {
	n := d.Count("bin count")
	if n == 0 {
		return
	}
	ref.Bins = make(map[uint32][]bgzf.Chunk)
	for i := 0; i < n && d.Err() == nil; i++ {
		bin := d.Uint32("bin number")
		nChunk := d.Count("chunk count")
		if bin == StatsDummyBin {
			if nChunk != 2 {
				d.Fail(fmt.Errorf("%s: malformed dummy bin header", typ))
				return
			}
			ref.Stats = readStats(d)
			continue
		}
		if _, dup := ref.Bins[bin]; dup {
			d.Fail(fmt.Errorf("%s: duplicate bin %d", typ, bin))
			return
		}
		ref.Bins[bin] = readChunks(d, nChunk)
	}
}

func readChunks(d *le.Decoder, n int) []bgzf.Chunk {
	if n == 0 {
		return nil
	}
	var chunks []bgzf.Chunk
	for i := 0; i < n && d.Err() == nil; i++ {
		var c bgzf.Chunk
		c.Begin = MakeOffset(d.Uint64("chunk begin virtual offset"))
		c.End = MakeOffset(d.Uint64("chunk end virtual offset"))
		chunks = append(chunks, c)
	}
	return chunks
}

func readStats(d *le.Decoder) *ReferenceStats {
	var stats ReferenceStats
	stats.Chunk.Begin = MakeOffset(d.Uint64("index stats chunk begin virtual offset"))
	stats.Chunk.End = MakeOffset(d.Uint64("index stats chunk end virtual offset"))
	stats.Mapped = d.Uint64("index stats mapped count")
	stats.Unmapped = d.Uint64("index stats unmapped count")
	return &stats
}

func readIntervals(d *le.Decoder, ref *RefIndex) {
	n := d.Count("tile interval count")
	if n == 0 {
		return
	}
	var offsets []bgzf.Offset
	for i := 0; i < n && d.Err() == nil; i++ {
		offsets = append(offsets, MakeOffset(d.Uint64("tile interval virtual offset")))
	}
	ref.Intervals = offsets
}
