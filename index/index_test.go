// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package index

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/kortschak/utter"
	"github.com/ulikunitz/xz"
	"gopkg.in/check.v1"

	"github.com/biogo/tribble/internal/le"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

var testHeader = Header{
	Version:    CurrentVersion,
	Path:       "/data/features.bed",
	Size:       5100,
	Timestamp:  1400000000,
	Properties: []Property{{Key: "DICT", Value: "hg19"}},
}

func linearIndex(c *check.C) *Linear {
	idx, err := NewLinear(testHeader, []LinearChr{
		{
			Name:           "chr1",
			BinWidth:       100,
			LongestFeature: 50,
			NFeatures:      4,
			Blocks:         []Block{{0, 10}, {10, 20}, {30, 0}, {30, 30}},
		},
		{
			Name:     "chr2",
			BinWidth: 1000,
			Blocks:   []Block{{60, 40}},
		},
	})
	c.Assert(err, check.Equals, nil)
	return idx
}

func treeIndex(c *check.C) *Tree {
	idx, err := NewTree(testHeader, []TreeChr{
		{
			Name: "chr1",
			Intervals: []Interval{
				{Start: 1, End: 100, Block: Block{0, 50}},
				{Start: 90, End: 200, Block: Block{50, 50}},
				{Start: 300, End: 400, Block: Block{5000, 100}},
				{Start: 150, End: 160, Block: Block{1040, 10}},
			},
		},
	})
	c.Assert(err, check.Equals, nil)
	return idx
}

func (s *S) TestLinearBlocks(c *check.C) {
	idx := linearIndex(c)
	for _, test := range []struct {
		contig   string
		beg, end int
		want     []Block
	}{
		{contig: "chr1", beg: 150, end: 250, want: []Block{{10, 20}}},
		{contig: "chr1", beg: 0, end: 1000, want: []Block{{0, 60}}},
		{contig: "chr1", beg: 500, end: 600, want: nil},
		{contig: "chr1", beg: 260, end: 280, want: nil},
		{contig: "chr2", beg: 0, end: 1, want: []Block{{60, 40}}},
		{contig: "chrX", beg: 0, end: 1000, want: nil},
	} {
		got := idx.Blocks(test.contig, test.beg, test.end)
		c.Check(got, check.DeepEquals, test.want, check.Commentf("%s:%d-%d", test.contig, test.beg, test.end))
	}
	c.Check(idx.HasContig("chr2"), check.Equals, true)
	c.Check(idx.HasContig("chrX"), check.Equals, false)
	c.Check(idx.Names(), check.DeepEquals, []string{"chr1", "chr2"})
}

func (s *S) TestTreeBlocks(c *check.C) {
	idx := treeIndex(c)
	for _, test := range []struct {
		beg, end int
		want     []Block
	}{
		{beg: 120, end: 155, want: []Block{{50, 1000}}},
		{beg: 250, end: 260, want: nil},
		{beg: 0, end: 1000, want: []Block{{0, 1050}, {5000, 100}}},
		{beg: 400, end: 400, want: []Block{{5000, 100}}},
	} {
		got := idx.Blocks("chr1", test.beg, test.end)
		c.Check(got, check.DeepEquals, test.want, check.Commentf("%d-%d: %s", test.beg, test.end, utter.Sdump(got)))
	}
	c.Check(idx.Blocks("chrX", 0, 1000), check.HasLen, 0)
}

func (s *S) TestNewInvalid(c *check.C) {
	_, err := NewLinear(Header{}, []LinearChr{{Name: "chr1"}})
	c.Check(errors.Is(err, ErrMalformed), check.Equals, true)
	_, err = NewLinear(Header{}, []LinearChr{{Name: "chr1", BinWidth: 10, Blocks: []Block{{0, 10}, {20, 10}}}})
	c.Check(errors.Is(err, ErrMalformed), check.Equals, true)
	_, err = NewLinear(Header{}, []LinearChr{{Name: "chr1", BinWidth: 10}, {Name: "chr1", BinWidth: 10}})
	c.Check(errors.Is(err, ErrMalformed), check.Equals, true)
	_, err = NewTree(Header{}, []TreeChr{{Name: "chr1", Intervals: []Interval{{Start: 10, End: 1}}}})
	c.Check(errors.Is(err, ErrMalformed), check.Equals, true)
}

func (s *S) TestRoundTrip(c *check.C) {
	for _, want := range []Index{linearIndex(c), treeIndex(c)} {
		var buf bytes.Buffer
		c.Assert(WriteTo(&buf, want), check.Equals, nil)
		got, err := ReadFrom(&buf)
		c.Assert(err, check.Equals, nil)
		c.Check(got, check.DeepEquals, want)
		c.Check(got.Header(), check.DeepEquals, testHeader)
	}
}

func (s *S) TestOldVersionHeader(c *check.C) {
	h := Header{Version: 2, Path: "old.vcf", Flags: SequenceDictionaryFlag}
	idx, err := NewLinear(h, []LinearChr{{Name: "1", BinWidth: 8000, Blocks: []Block{{0, 100}}}})
	c.Assert(err, check.Equals, nil)

	var buf bytes.Buffer
	c.Assert(WriteTo(&buf, idx), check.Equals, nil)
	got, err := ReadFrom(&buf)
	c.Assert(err, check.Equals, nil)
	c.Check(got.Header(), check.DeepEquals, h)
	c.Check(got.Blocks("1", 0, 10), check.DeepEquals, []Block{{0, 100}})
}

func (s *S) TestMalformed(c *check.C) {
	var buf bytes.Buffer
	c.Assert(WriteTo(&buf, linearIndex(c)), check.Equals, nil)
	data := buf.Bytes()

	for _, n := range []int{0, 3, 9, 20, 60, len(data) - 1} {
		_, err := ReadFrom(bytes.NewReader(data[:n]))
		c.Check(errors.Is(err, le.ErrTruncated), check.Equals, true, check.Commentf("length %d: %v", n, err))
	}

	_, err := ReadFrom(bytes.NewReader([]byte("TBI\x01\x00\x00\x00\x00")))
	c.Check(errors.Is(err, ErrMalformed), check.Equals, true)
	c.Check(errors.Is(err, ErrTabix), check.Equals, true)

	_, err = ReadFrom(bytes.NewReader([]byte("BAI\x01")))
	c.Check(errors.Is(err, ErrMalformed), check.Equals, true)

	// A chromosome count far beyond the stream length.
	var huge bytes.Buffer
	e := le.NewEncoder(&huge, "test")
	e.Uint32(Magic, "magic")
	e.Int32(LinearType, "type")
	e.Int32(CurrentVersion, "version")
	e.CString("", "path")
	e.Int64(0, "size")
	e.Int64(0, "timestamp")
	e.CString("", "md5")
	e.Int32(0, "flags")
	e.Int32(0, "property count")
	e.Int32(0x7fffffff, "chromosome count")
	e.CString("chr1", "name")
	c.Assert(e.Err(), check.Equals, nil)
	for _, typ := range []byte{LinearType, IntervalTreeType} {
		b := append([]byte(nil), huge.Bytes()...)
		b[4] = typ
		_, err = ReadFrom(bytes.NewReader(b))
		c.Check(errors.Is(err, le.ErrTruncated), check.Equals, true, check.Commentf("type %d: %v", typ, err))
	}

	bad := append([]byte(nil), data...)
	bad[4] = 9
	_, err = ReadFrom(bytes.NewReader(bad))
	c.Check(errors.Is(err, ErrMalformed), check.Equals, true, check.Commentf("%v", err))
}

func (s *S) TestLoad(c *check.C) {
	dir := c.MkDir()
	want := treeIndex(c)

	var raw bytes.Buffer
	c.Assert(WriteTo(&raw, want), check.Equals, nil)

	plain := filepath.Join(dir, "features.bed.idx")
	c.Assert(os.WriteFile(plain, raw.Bytes(), 0o644), check.Equals, nil)

	var gzBuf bytes.Buffer
	gz := gzip.NewWriter(&gzBuf)
	_, err := gz.Write(raw.Bytes())
	c.Assert(err, check.Equals, nil)
	c.Assert(gz.Close(), check.Equals, nil)
	gzPath := filepath.Join(dir, "features.bed.idx.gz")
	c.Assert(os.WriteFile(gzPath, gzBuf.Bytes(), 0o644), check.Equals, nil)

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	c.Assert(err, check.Equals, nil)
	_, err = xw.Write(raw.Bytes())
	c.Assert(err, check.Equals, nil)
	c.Assert(xw.Close(), check.Equals, nil)
	xzPath := filepath.Join(dir, "features.bed.idx.xz")
	c.Assert(os.WriteFile(xzPath, xzBuf.Bytes(), 0o644), check.Equals, nil)

	for _, path := range []string{plain, gzPath, xzPath} {
		got, err := Load(path)
		c.Assert(err, check.Equals, nil, check.Commentf("%s", path))
		c.Check(got.Blocks("chr1", 120, 155), check.DeepEquals, []Block{{50, 1000}})
	}

	_, err = Load(filepath.Join(dir, "missing.idx"))
	c.Check(errors.Is(err, os.ErrNotExist), check.Equals, true)

	c.Assert(os.WriteFile(plain, raw.Bytes()[:30], 0o644), check.Equals, nil)
	_, err = Load(plain)
	c.Check(errors.Is(err, le.ErrTruncated), check.Equals, true)
}
