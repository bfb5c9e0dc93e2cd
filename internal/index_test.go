// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/kortschak/utter"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

func (s *S) TestOverlappingBinsFor(c *check.C) {
	for _, test := range []struct {
		beg, end int
		want     []uint32
	}{
		{beg: 0, end: 16384, want: []uint32{0, 1, 9, 73, 585, 4681}},
		{beg: 0, end: 16385, want: []uint32{0, 1, 9, 73, 585, 4681, 4682}},
		{beg: 16384, end: 32768, want: []uint32{0, 1, 9, 73, 585, 4682}},
		{beg: 1 << 26, end: 1<<26 + 1, want: []uint32{0, 2, 17, 137, 1097, 8777}},
		{beg: 10, end: 10, want: []uint32{0}},
	} {
		c.Check(OverlappingBinsFor(test.beg, test.end), check.DeepEquals, test.want,
			check.Commentf("beg=%d end=%d", test.beg, test.end))
	}
}

func (s *S) TestOverlappingBinsForClamp(c *check.C) {
	clamped := OverlappingBinsFor(MaxPos-1, MaxPos+1000)
	c.Check(clamped, check.DeepEquals, OverlappingBinsFor(MaxPos-1, MaxPos))
	c.Check(clamped[len(clamped)-1], check.Equals, uint32(level5+(MaxPos-1)>>level5Shift))
}

func (s *S) TestOverlappingBinsAlwaysHoldsBinZero(c *check.C) {
	for _, r := range [][2]int{{0, 1}, {100, 200}, {1 << 20, 1 << 28}, {5, 3}} {
		bins := OverlappingBinsFor(r[0], r[1])
		c.Check(bins[0], check.Equals, uint32(0))
		seen := make(map[uint32]bool)
		for _, b := range bins {
			c.Check(seen[b], check.Equals, false, check.Commentf("duplicate bin %d for %v", b, r))
			seen[b] = true
		}
	}
}

func (s *S) TestBinFor(c *check.C) {
	c.Check(BinFor(0, 1), check.Equals, uint32(4681))
	c.Check(BinFor(0, 16384), check.Equals, uint32(4681))
	c.Check(BinFor(0, 16385), check.Equals, uint32(585))
	c.Check(BinFor(0, 1<<29), check.Equals, uint32(0))
	for _, r := range [][2]int{{0, 1}, {16000, 17000}, {1 << 27, 1<<27 + 5}, {0, 1 << 29}} {
		b := BinFor(r[0], r[1])
		var found bool
		for _, o := range OverlappingBinsFor(r[0], r[1]) {
			if o == b {
				found = true
			}
		}
		c.Check(found, check.Equals, true, check.Commentf("bin %d for %v", b, r))
	}
}

func (s *S) TestVOffsetUnsigned(c *check.C) {
	big := bgzf.Offset{File: 1 << 47}
	small := bgzf.Offset{File: 5}
	c.Check(VOffset(big) > VOffset(small), check.Equals, true)
	c.Check(int64(VOffset(big)) < 0, check.Equals, true)
	c.Check(MakeOffset(VOffset(big)), check.Equals, big)
	c.Check(MakeOffset(uint64(1)<<62), check.Equals, bgzf.Offset{File: 1 << 46})
}

func chunk(b, e uint64) bgzf.Chunk {
	return bgzf.Chunk{Begin: MakeOffset(b), End: MakeOffset(e)}
}

func (s *S) TestMerge(c *check.C) {
	for _, test := range []struct {
		in   []bgzf.Chunk
		want []bgzf.Chunk
	}{
		{in: nil, want: nil},
		{
			in:   []bgzf.Chunk{chunk(10<<16, 20<<16)},
			want: []bgzf.Chunk{chunk(10<<16, 20<<16)},
		},
		{
			// Overlap collapse and containment.
			in:   []bgzf.Chunk{chunk(30<<16, 40<<16), chunk(10<<16, 20<<16), chunk(15<<16, 35<<16), chunk(16<<16, 17<<16)},
			want: []bgzf.Chunk{chunk(10<<16, 40<<16)},
		},
		{
			// Same block neighbours.
			in:   []bgzf.Chunk{chunk(10<<16|5, 20<<16|10), chunk(20<<16|100, 30<<16)},
			want: []bgzf.Chunk{chunk(10<<16|5, 30<<16)},
		},
		{
			// Distinct blocks stay distinct.
			in:   []bgzf.Chunk{chunk(50<<16, 60<<16), chunk(10<<16, 20<<16)},
			want: []bgzf.Chunk{chunk(10<<16, 20<<16), chunk(50<<16, 60<<16)},
		},
		{
			// Offsets beyond 1<<63 sort after small offsets.
			in:   []bgzf.Chunk{chunk(1<<63, 1<<63|1<<20), chunk(5<<16, 6<<16)},
			want: []bgzf.Chunk{chunk(5<<16, 6<<16), chunk(1<<63, 1<<63|1<<20)},
		},
	} {
		got := Merge(append([]bgzf.Chunk(nil), test.in...))
		c.Check(got, check.DeepEquals, test.want, check.Commentf("%s", utter.Sdump(test.in)))
	}
}

type rec struct{ id, beg, end int }

func (r rec) RefID() int { return r.id }
func (r rec) Start() int { return r.beg }
func (r rec) End() int   { return r.end }

func (s *S) TestAddAndChunks(c *check.C) {
	var idx Index
	recs := []rec{{0, 99, 200}, {0, 249, 300}, {0, 20000, 20100}, {1, 5, 10}}
	for i, r := range recs {
		ch := chunk(uint64(i+1)<<16, uint64(i+2)<<16)
		c.Assert(idx.Add(r, ch), check.Equals, nil)
	}
	c.Check(len(idx.Refs), check.Equals, 2)
	c.Check(idx.Refs[0].Stats.Mapped, check.Equals, uint64(3))

	all := idx.Refs[0].Chunks(0, MaxPos)
	var raw int
	for _, b := range idx.Refs[0].Bins {
		raw += len(b)
	}
	c.Check(len(all) <= raw, check.Equals, true)
	c.Check(all, check.DeepEquals, []bgzf.Chunk{chunk(1<<16, 4<<16)})

	// The third record is in the second tile so the linear
	// index prunes chunks ending at or before its offset.
	late := idx.Refs[0].Chunks(20000, 20050)
	c.Check(late, check.DeepEquals, []bgzf.Chunk{chunk(3<<16, 4<<16)})

	c.Check(idx.Add(rec{0, 0, 1}, chunk(9<<16, 10<<16)), check.Not(check.Equals), nil)
	c.Check(idx.Add(rec{1, 1, 2}, chunk(9<<16, 10<<16)), check.Not(check.Equals), nil)
}

func (s *S) TestChunksDoesNotAlterIndex(c *check.C) {
	ref := RefIndex{Bins: map[uint32][]bgzf.Chunk{
		4681: {chunk(30<<16, 40<<16), chunk(10<<16, 20<<16)},
	}}
	_ = ref.Chunks(0, 100)
	c.Check(ref.Bins[4681], check.DeepEquals, []bgzf.Chunk{chunk(30<<16, 40<<16), chunk(10<<16, 20<<16)})
}

func (s *S) TestMinOffset(c *check.C) {
	ref := RefIndex{Intervals: []bgzf.Offset{{File: 1}, {File: 2}, {File: 3}}}
	c.Check(ref.MinOffset(0), check.Equals, uint64(1<<16))
	c.Check(ref.MinOffset(TileWidth), check.Equals, uint64(2<<16))
	c.Check(ref.MinOffset(100*TileWidth), check.Equals, uint64(3<<16))
	c.Check((&RefIndex{}).MinOffset(100), check.Equals, uint64(0))
}
