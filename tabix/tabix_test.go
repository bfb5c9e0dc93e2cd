// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabix

import (
	"bytes"
	"errors"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/index"
	"github.com/kortschak/utter"
	"gopkg.in/check.v1"

	"github.com/biogo/tribble/internal"
	"github.com/biogo/tribble/internal/le"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

type rec struct {
	ref      string
	beg, end int
}

func (r rec) RefName() string { return r.ref }
func (r rec) Start() int      { return r.beg }
func (r rec) End() int        { return r.end }

func chunk(b, e uint64) bgzf.Chunk {
	return bgzf.Chunk{Begin: internal.MakeOffset(b), End: internal.MakeOffset(e)}
}

func buildIndex(c *check.C) *Index {
	idx := New(Generic, false, 1, 2, 3, '#', 0)
	for i, r := range []rec{
		{"chr1", 99, 200},
		{"chr1", 249, 300},
		{"chr1", 499, 600},
		{"chr2", 0, 10},
	} {
		err := idx.Add(r, chunk(uint64(i+1)<<16, uint64(i+2)<<16))
		c.Assert(err, check.Equals, nil)
	}
	return idx
}

func (s *S) TestRoundTrip(c *check.C) {
	want := buildIndex(c)

	var buf bytes.Buffer
	c.Assert(WriteTo(&buf, want), check.Equals, nil)

	got, err := ReadFrom(bytes.NewReader(buf.Bytes()))
	c.Assert(err, check.Equals, nil)
	c.Check(got.Names(), check.DeepEquals, []string{"chr1", "chr2"})
	c.Check(got.IDs(), check.DeepEquals, map[string]int{"chr1": 0, "chr2": 1})
	c.Check(got.Format, check.Equals, byte(Generic))
	c.Check(got.ZeroBased, check.Equals, false)
	c.Check(got.NameColumn, check.Equals, int32(1))
	c.Check(got.BeginColumn, check.Equals, int32(2))
	c.Check(got.EndColumn, check.Equals, int32(3))
	c.Check(got.MetaChar, check.Equals, '#')

	for _, ref := range []string{"chr1", "chr2"} {
		wc, err := want.Chunks(ref, 0, internal.MaxPos)
		c.Assert(err, check.Equals, nil)
		gc, err := got.Chunks(ref, 0, internal.MaxPos)
		c.Assert(err, check.Equals, nil)
		c.Check(gc, check.DeepEquals, wc, check.Commentf("ref %s: %s", ref, utter.Sdump(gc)))
	}

	stats, ok := got.ReferenceStats(0)
	c.Check(ok, check.Equals, true)
	c.Check(stats.Mapped, check.Equals, uint64(3))
	_, ok = got.ReferenceStats(2)
	c.Check(ok, check.Equals, false)
}

func (s *S) TestReadCompressed(c *check.C) {
	idx := buildIndex(c)
	idx.ZeroBased = true
	idx.Format = VCF

	var buf bytes.Buffer
	bg := bgzf.NewWriter(&buf, 1)
	c.Assert(WriteTo(bg, idx), check.Equals, nil)
	c.Assert(bg.Close(), check.Equals, nil)

	got, err := Read(&buf)
	c.Assert(err, check.Equals, nil)
	c.Check(got.Names(), check.DeepEquals, idx.Names())
	c.Check(got.ZeroBased, check.Equals, true)
	c.Check(got.Format, check.Equals, byte(VCF))
}

func (s *S) TestChunks(c *check.C) {
	idx := buildIndex(c)

	chunks, err := idx.Chunks("chr1", 189, 260)
	c.Assert(err, check.Equals, nil)
	c.Check(chunks, check.DeepEquals, []bgzf.Chunk{chunk(1<<16, 4<<16)})

	var raw int
	for _, b := range idx.idx.Refs[0].Bins {
		raw += len(b)
	}
	all, err := idx.Chunks("chr1", 0, internal.MaxPos)
	c.Assert(err, check.Equals, nil)
	c.Check(len(all) <= raw, check.Equals, true)

	_, err = idx.Chunks("chrX", 0, 100)
	c.Check(err, check.Equals, index.ErrNoReference)

	chunks, err = idx.Chunks("chr1", 100, 100)
	c.Check(err, check.Equals, nil)
	c.Check(chunks, check.HasLen, 0)
}

func (s *S) TestEmptyIndex(c *check.C) {
	var buf bytes.Buffer
	c.Assert(WriteTo(&buf, New(Generic, false, 1, 2, 3, '#', 0)), check.Equals, nil)
	got, err := ReadFrom(&buf)
	c.Assert(err, check.Equals, nil)
	c.Check(got.NumRefs(), check.Equals, 0)
}

func (s *S) TestMalformed(c *check.C) {
	var buf bytes.Buffer
	c.Assert(WriteTo(&buf, buildIndex(c)), check.Equals, nil)
	data := buf.Bytes()

	_, err := ReadFrom(bytes.NewReader([]byte("BAI\x01")))
	c.Check(errors.Is(err, ErrMalformed), check.Equals, true, check.Commentf("%v", err))

	for _, n := range []int{2, 4, 10, 36, 50, len(data) - 9} {
		_, err = ReadFrom(bytes.NewReader(data[:n]))
		c.Check(errors.Is(err, le.ErrTruncated), check.Equals, true, check.Commentf("length %d: %v", n, err))
	}

	// A trailing partial unmapped count is a truncation, an
	// absent one is not.
	_, err = ReadFrom(bytes.NewReader(append(data[:len(data):len(data)], 1, 2, 3)))
	c.Check(errors.Is(err, le.ErrTruncated), check.Equals, true)

	// A name block length far beyond the stream length.
	var huge bytes.Buffer
	e := le.NewEncoder(&huge, "test")
	e.Bytes([]byte("TBI\x01"), "magic")
	e.Int32(1, "reference count")
	for i := 0; i < 6; i++ {
		e.Int32(0, "column")
	}
	e.Int32(0x7fffffff, "name lengths")
	e.CString("chr1", "name")
	c.Assert(e.Err(), check.Equals, nil)
	_, err = ReadFrom(bytes.NewReader(huge.Bytes()))
	c.Check(errors.Is(err, le.ErrTruncated), check.Equals, true, check.Commentf("%v", err))

	bad := append([]byte(nil), data...)
	// Corrupt the terminal NUL of the name block; names are "chr1\x00chr2\x00"
	// following the 36 byte fixed header.
	bad[36+9] = 'x'
	_, err = ReadFrom(bytes.NewReader(bad))
	c.Check(errors.Is(err, ErrMalformed), check.Equals, true, check.Commentf("%v", err))
}

func (s *S) TestCSIRoundTrip(c *check.C) {
	meta := New(Generic, true, 1, 2, 3, '#', 1)
	want := NewCSI(meta, 14, 5)
	for i, r := range []rec{
		{"chr1", 99, 200},
		{"chr1", 249, 300},
		{"chr2", 0, 10},
	} {
		err := want.Add(r, chunk(uint64(i+1)<<16, uint64(i+2)<<16))
		c.Assert(err, check.Equals, nil)
	}

	var buf bytes.Buffer
	bg := bgzf.NewWriter(&buf, 1)
	c.Assert(WriteCSI(bg, want), check.Equals, nil)
	c.Assert(bg.Close(), check.Equals, nil)

	got, err := ReadCSI(&buf)
	c.Assert(err, check.Equals, nil)
	c.Check(got.Names(), check.DeepEquals, []string{"chr1", "chr2"})
	c.Check(got.NumRefs(), check.Equals, 2)
	m := got.Meta()
	c.Check(m.ZeroBased, check.Equals, true)
	c.Check(m.Skip, check.Equals, int32(1))
	c.Check(m.EndColumn, check.Equals, int32(3))

	chunks, err := got.Chunks("chr1", 150, 260)
	c.Assert(err, check.Equals, nil)
	c.Check(len(chunks) > 0, check.Equals, true)
	c.Check(chunks[0].Begin, check.Equals, internal.MakeOffset(1<<16))

	_, err = got.Chunks("chrX", 0, 10)
	c.Check(err, check.Equals, index.ErrNoReference)
}

func (s *S) TestCSIMalformed(c *check.C) {
	_, err := ReadCSIFrom(bytes.NewReader([]byte("TBI\x01")))
	c.Check(errors.Is(err, ErrMalformed), check.Equals, true, check.Commentf("%v", err))
	_, err = ReadCSIFrom(bytes.NewReader([]byte("CS")))
	c.Check(errors.Is(err, le.ErrTruncated), check.Equals, true, check.Commentf("%v", err))
}
