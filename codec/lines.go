// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codec

import (
	"errors"
	"fmt"
	"io"
)

// Lines is a Codec for line oriented formats. Each line holds at most
// one feature.
type Lines[F Feature] struct {
	// IsHeader reports whether the line with the given
	// zero-based index is a header line. Header lines
	// must precede all other lines. If IsHeader is nil
	// the stream has no header.
	IsHeader func(line []byte, n int) bool

	// ParseHeader returns the header value for the
	// given header lines. If ParseHeader is nil the
	// header value is the lines as a []string.
	ParseHeader func(lines []string) (interface{}, error)

	// DecodeLine decodes a feature from a line. If the
	// line does not hold a feature ok is false.
	DecodeLine func(line []byte) (f F, ok bool, err error)

	// Prefetch is the number of line batches read
	// ahead on a separate goroutine. Zero disables
	// read ahead.
	Prefetch int
}

var _ Codec[Feature, LineReader] = (*Lines[Feature])(nil)

// NewSource returns a LineReader reading from r.
func (c *Lines[F]) NewSource(r io.Reader, base int64) LineReader {
	src := NewLineSource(r, base)
	if c.Prefetch > 0 {
		return NewAsyncLineSource(src, c.Prefetch)
	}
	return src
}

// ReadHeader reads the leading header lines of src.
func (c *Lines[F]) ReadHeader(src LineReader) (Header, error) {
	var lines []string
	if c.IsHeader != nil {
		for {
			line, err := src.Peek()
			if err == io.EOF {
				break
			}
			if err != nil {
				return Header{}, err
			}
			if !c.IsHeader(line, len(lines)) {
				break
			}
			lines = append(lines, string(line))
			_, err = src.ReadLine()
			if err != nil {
				return Header{}, err
			}
		}
	}

	h := Header{End: src.Position()}
	if c.ParseHeader == nil {
		h.Value = lines
		return h, nil
	}
	v, err := c.ParseHeader(lines)
	if err != nil {
		return Header{}, malformed(err)
	}
	h.Value = v
	return h, nil
}

// Decode decodes the next line of src.
func (c *Lines[F]) Decode(src LineReader) (f F, ok bool, err error) {
	line, err := src.ReadLine()
	if err != nil {
		if err == io.EOF {
			err = nil
		}
		return f, false, err
	}
	f, ok, err = c.DecodeLine(line)
	if err != nil {
		return f, false, malformed(err)
	}
	return f, ok, nil
}

// Done returns whether src is exhausted.
func (c *Lines[F]) Done(src LineReader) bool { return src.Done() }

func malformed(err error) error {
	if errors.Is(err, ErrMalformed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
