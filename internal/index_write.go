// Copyright ©2014 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"sort"

	"github.com/biogo/hts/bgzf"

	"github.com/biogo/tribble/internal/le"
)

// WriteIndex writes the binning index to e. Bins are written in
// ascending bin number order and chunks in ascending begin offset
// order so that output is deterministic.
func WriteIndex(e *le.Encoder, idx *Index) error {
	for i := range idx.Refs {
		writeBins(e, &idx.Refs[i])
		writeIntervals(e, idx.Refs[i].Intervals)
	}
	if idx.Unmapped != nil {
		e.Uint64(*idx.Unmapped, "unmapped record count")
	}
	return e.Err()
}

func writeBins(e *le.Encoder, ref *RefIndex) {
	bins := make([]uint32, 0, len(ref.Bins))
	for b := range ref.Bins {
		bins = append(bins, b)
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i] < bins[j] })

	n := int32(len(bins))
	if ref.Stats != nil {
		n++
	}
	e.Int32(n, "bin count")
	for _, b := range bins {
		e.Uint32(b, "bin number")
		writeChunks(e, ref.Bins[b])
	}
	if ref.Stats != nil {
		writeStats(e, ref.Stats)
	}
}

func writeChunks(e *le.Encoder, chunks []bgzf.Chunk) {
	sorted := append([]bgzf.Chunk(nil), chunks...)
	sort.Sort(byBeginOffset(sorted))
	e.Int32(int32(len(sorted)), "chunk count")
	for _, c := range sorted {
		e.Uint64(VOffset(c.Begin), "chunk begin virtual offset")
		e.Uint64(VOffset(c.End), "chunk end virtual offset")
	}
}

func writeStats(e *le.Encoder, stats *ReferenceStats) {
	e.Uint32(StatsDummyBin, "stats bin number")
	e.Int32(2, "stats bin chunk count")
	e.Uint64(VOffset(stats.Chunk.Begin), "index stats chunk begin virtual offset")
	e.Uint64(VOffset(stats.Chunk.End), "index stats chunk end virtual offset")
	e.Uint64(stats.Mapped, "index stats mapped count")
	e.Uint64(stats.Unmapped, "index stats unmapped count")
}

func writeIntervals(e *le.Encoder, offsets []bgzf.Offset) {
	e.Int32(int32(len(offsets)), "tile interval count")
	for _, o := range offsets {
		e.Uint64(VOffset(o), "tile interval virtual offset")
	}
}
