// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tribble provides random access to indexed genomic feature files.
//
// A Reader pairs a feature file with its index, either a tabix or CSI
// index over a BGZF compressed file or a Tribble block index over an
// uncompressed file, and decodes features with a caller supplied codec.
package tribble

import (
	"errors"
	"io"
	"os"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/cache"
	bgzfindex "github.com/biogo/hts/bgzf/index"
	"github.com/go-kit/log/level"
	"github.com/klauspost/compress/gzip"

	"github.com/biogo/tribble/codec"
	"github.com/biogo/tribble/index"
	"github.com/biogo/tribble/tabix"
)

// chunkIndex is a BGZF chunk index, tabix or CSI.
type chunkIndex interface {
	Names() []string
	Chunks(ref string, beg, end int) ([]bgzf.Chunk, error)
}

var (
	_ chunkIndex = (*tabix.Index)(nil)
	_ chunkIndex = (*tabix.CSI)(nil)
)

// Reader reads features from an indexed feature file. A Reader is not
// safe for concurrent use. At most one Iterator obtained from a Reader
// is live at a time; starting a query or iteration closes the previous
// Iterator.
type Reader[F codec.Feature, S codec.Source] struct {
	path  string
	codec codec.Codec[F, S]
	cfg   config
	loc   Location

	chunks  chunkIndex
	tribble index.Index
	header  codec.Header

	reuse bool
	h     Handle
	bg    *bgzf.Reader

	live   io.Closer
	closed bool
}

// Open returns a Reader for the feature file at path using c to decode
// features. The index is found with the configured Locator and is read,
// along with the file's header, before Open returns.
func Open[F codec.Feature, S codec.Source](path string, c codec.Codec[F, S], opts ...Option) (*Reader[F, S], error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	loc, err := cfg.locator.Locate(path)
	if err != nil {
		return nil, ioError(path, err)
	}
	if loc.Kind == Plain && cfg.requireIndex {
		return nil, &Error{Kind: IndexMissing, Path: path, Pos: -1}
	}

	r := &Reader[F, S]{
		path:  path,
		codec: c,
		cfg:   cfg,
		loc:   loc,
		reuse: cfg.opener.Reusable(path),
	}
	switch loc.Kind {
	case Tabix:
		f, err := os.Open(loc.Index)
		if err != nil {
			return nil, indexError(loc.Index, err)
		}
		idx, err := tabix.Read(f)
		f.Close()
		if err != nil {
			return nil, indexError(loc.Index, err)
		}
		r.chunks = idx
	case CSI:
		f, err := os.Open(loc.Index)
		if err != nil {
			return nil, indexError(loc.Index, err)
		}
		idx, err := tabix.ReadCSI(f)
		f.Close()
		if err != nil {
			return nil, indexError(loc.Index, err)
		}
		r.chunks = idx
	case Tribble:
		idx, err := index.Load(loc.Index)
		if err != nil {
			return nil, indexError(loc.Index, err)
		}
		r.tribble = idx
	case Plain:
	default:
		return nil, ioError(path, errors.New("unknown index kind "+loc.Kind.String()))
	}

	err = r.readHeader()
	if err != nil {
		r.Close()
		return nil, err
	}
	level.Debug(cfg.logger).Log("msg", "opened feature file", "path", path, "kind", loc.Kind, "index", loc.Index, "reuse", r.reuse, "header_end", r.header.End)
	return r, nil
}

// readHeader reads the header from the start of the feature file.
func (r *Reader[F, S]) readHeader() error {
	h, release, err := r.handle()
	if err != nil {
		return ioError(r.path, err)
	}
	defer release()

	src, c, err := r.stream(h)
	if err != nil {
		return ioError(r.path, err)
	}
	r.header, err = r.codec.ReadHeader(src)
	closeSource(src, c)
	if err != nil {
		return decodeError(r.path, -1, nil, err)
	}
	return nil
}

// stream returns a source reading the feature file from its start.
func (r *Reader[F, S]) stream(h Handle) (S, io.Closer, error) {
	var zero S
	sr := io.NewSectionReader(h, 0, h.Size())
	switch {
	case r.chunks != nil:
		bg, err := bgzf.NewReader(sr, r.cfg.concurrency)
		if err != nil {
			return zero, nil, err
		}
		return r.codec.NewSource(bg, 0), bg, nil
	case isGzip(r.path):
		gz, err := gzip.NewReader(sr)
		if err != nil {
			return zero, nil, err
		}
		return r.codec.NewSource(gz, 0), gz, nil
	}
	return r.codec.NewSource(sr, 0), nil, nil
}

func closeSource[S codec.Source](src S, c io.Closer) {
	if sc, ok := any(src).(io.Closer); ok {
		sc.Close()
	}
	if c != nil {
		c.Close()
	}
}

// handle returns a handle on the feature file and a function to release
// it. Reused handles are released when the Reader is closed.
func (r *Reader[F, S]) handle() (Handle, func() error, error) {
	if !r.reuse {
		h, err := r.cfg.opener.Open(r.path)
		if err != nil {
			return nil, nil, err
		}
		return h, h.Close, nil
	}
	if r.h == nil {
		h, err := r.cfg.opener.Open(r.path)
		if err != nil {
			return nil, nil, err
		}
		r.h = h
	}
	return r.h, func() error { return nil }, nil
}

// bgzfReader returns a BGZF reader on h. When the handle is reused the
// BGZF reader and its block cache are shared between queries.
func (r *Reader[F, S]) bgzfReader(h Handle) (*bgzf.Reader, error) {
	if r.reuse && r.bg != nil {
		return r.bg, nil
	}
	bg, err := bgzf.NewReader(io.NewSectionReader(h, 0, h.Size()), r.cfg.concurrency)
	if err != nil {
		return nil, err
	}
	if r.cfg.cacheSize > 0 {
		bg.SetCache(cache.NewLRU(r.cfg.cacheSize))
	}
	if r.reuse {
		r.bg = bg
	}
	return bg, nil
}

// Kind returns the index backend of the Reader.
func (r *Reader[F, S]) Kind() Kind { return r.loc.Kind }

// Names returns the names of the contigs in the index. It returns nil
// for unindexed files.
func (r *Reader[F, S]) Names() []string {
	switch {
	case r.chunks != nil:
		return r.chunks.Names()
	case r.tribble != nil:
		return r.tribble.Names()
	}
	return nil
}

// Header returns the value of the feature file header decoded by the
// codec.
func (r *Reader[F, S]) Header() interface{} { return r.header.Value }

// HeaderEnd returns the offset of the first byte after the header in
// the uncompressed stream.
func (r *Reader[F, S]) HeaderEnd() int64 { return r.header.End }

func (r *Reader[F, S]) begin() error {
	if r.closed {
		return ioError(r.path, os.ErrClosed)
	}
	if r.live != nil {
		r.live.Close()
		r.live = nil
	}
	return nil
}

// Query returns an Iterator over the features overlapping the one-based
// closed interval [start, end] on contig. Values of start less than one
// are treated as one. If end is less than start or contig is not in the
// index the Iterator is empty. Query returns an error with kind
// IndexMissing if the file is not indexed or is a gzip compressed file
// with a Tribble index.
func (r *Reader[F, S]) Query(contig string, start, end int) (Iterator[F], error) {
	err := r.begin()
	if err != nil {
		return nil, err
	}
	if start < 1 {
		start = 1
	}
	if end < start {
		return empty[F]{}, nil
	}

	var it *iterator[F, S]
	switch {
	case r.chunks != nil:
		it, err = r.queryChunks(contig, start, end)
	case r.tribble != nil:
		it, err = r.queryBlocks(contig, start, end)
	default:
		return nil, &Error{Kind: IndexMissing, Path: r.path, Pos: -1, Err: errors.New("query on unindexed file")}
	}
	if err != nil {
		return nil, err
	}
	if it == nil {
		return empty[F]{}, nil
	}
	r.live = it
	return it, nil
}

func (r *Reader[F, S]) queryChunks(contig string, start, end int) (*iterator[F, S], error) {
	chunks, err := r.chunks.Chunks(contig, start-1, end)
	if err == bgzfindex.ErrNoReference {
		level.Debug(r.cfg.logger).Log("msg", "unknown contig", "path", r.path, "contig", contig)
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Kind: MalformedIndex, Path: r.loc.Index, Pos: -1, Err: err}
	}
	level.Debug(r.cfg.logger).Log("msg", "query", "path", r.path, "contig", contig, "start", start, "end", end, "chunks", len(chunks))
	if len(chunks) == 0 {
		return nil, nil
	}

	h, release, err := r.handle()
	if err != nil {
		return nil, ioError(r.path, err)
	}
	bg, err := r.bgzfReader(h)
	if err != nil {
		release()
		return nil, ioError(r.path, err)
	}
	return &iterator[F, S]{
		codec:  r.codec,
		path:   r.path,
		filter: true,
		beg:    start,
		end:    end,
		alias:  contig,
		chunks: chunks,
		n:      len(chunks),
		open: func(i int) (S, io.Closer, error) {
			var zero S
			cr, err := bgzfindex.NewChunkReader(bg, chunks[i:i+1])
			if err != nil {
				return zero, nil, err
			}
			return r.codec.NewSource(cr, 0), cr, nil
		},
		release: func(failed bool) error {
			if !r.reuse {
				err := bg.Close()
				if e := release(); err == nil {
					err = e
				}
				return err
			}
			if failed && r.bg == bg {
				// The shared reader may be left mid-block.
				r.bg = nil
				return bg.Close()
			}
			return nil
		},
	}, nil
}

func (r *Reader[F, S]) queryBlocks(contig string, start, end int) (*iterator[F, S], error) {
	if isGzip(r.path) {
		// Block offsets cannot address a gzip stream.
		return nil, &Error{Kind: IndexMissing, Path: r.path, Pos: -1, Err: errors.New("tribble index over gzip compressed file")}
	}
	if !r.tribble.HasContig(contig) {
		level.Debug(r.cfg.logger).Log("msg", "unknown contig", "path", r.path, "contig", contig)
		return nil, nil
	}
	var blocks []index.Block
	for _, b := range r.tribble.Blocks(contig, start-1, end) {
		if b.Size > 0 {
			blocks = append(blocks, b)
		}
	}
	level.Debug(r.cfg.logger).Log("msg", "query", "path", r.path, "contig", contig, "start", start, "end", end, "blocks", len(blocks))
	if len(blocks) == 0 {
		return nil, nil
	}

	h, release, err := r.handle()
	if err != nil {
		return nil, ioError(r.path, err)
	}
	return &iterator[F, S]{
		codec:      r.codec,
		path:       r.path,
		filter:     true,
		beg:        start,
		end:        end,
		positional: true,
		n:          len(blocks),
		open: func(i int) (S, io.Closer, error) {
			b := blocks[i]
			return r.codec.NewSource(io.NewSectionReader(h, b.Pos, b.Size), b.Pos), nil, nil
		},
		release: func(bool) error { return release() },
	}, nil
}

// Iterate returns an Iterator over all the features in the file.
func (r *Reader[F, S]) Iterate() (Iterator[F], error) {
	err := r.begin()
	if err != nil {
		return nil, err
	}
	h, release, err := r.handle()
	if err != nil {
		return nil, ioError(r.path, err)
	}

	compressed := r.chunks != nil || isGzip(r.path)
	it := &iterator[F, S]{
		codec:      r.codec,
		path:       r.path,
		positional: !compressed,
		n:          1,
		open: func(int) (S, io.Closer, error) {
			if !compressed {
				end := r.header.End
				return r.codec.NewSource(io.NewSectionReader(h, end, h.Size()-end), end), nil, nil
			}
			var zero S
			src, c, err := r.stream(h)
			if err != nil {
				return zero, c, err
			}
			_, err = r.codec.ReadHeader(src)
			if err != nil {
				if sc, ok := any(src).(io.Closer); ok {
					sc.Close()
				}
				return zero, c, err
			}
			return src, c, nil
		},
		release: func(bool) error { return release() },
	}
	level.Debug(r.cfg.logger).Log("msg", "iterate", "path", r.path, "compressed", compressed)
	r.live = it
	return it, nil
}

// Close closes the Reader and any live Iterator. It is safe to call
// Close more than once.
func (r *Reader[F, S]) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if r.live != nil {
		err = r.live.Close()
		r.live = nil
	}
	if r.bg != nil {
		if e := r.bg.Close(); err == nil {
			err = e
		}
		r.bg = nil
	}
	if r.h != nil {
		if e := r.h.Close(); err == nil {
			err = e
		}
		r.h = nil
	}
	if err != nil {
		return ioError(r.path, err)
	}
	return nil
}
