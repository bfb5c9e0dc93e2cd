// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codec

import (
	"bufio"
	"bytes"
	"io"
)

// LineReader is a line oriented Source.
type LineReader interface {
	Source

	// ReadLine returns the next line without its line
	// terminator. The returned slice is only valid until
	// the next call to ReadLine or Peek. At the end of
	// the stream ReadLine returns io.EOF.
	ReadLine() ([]byte, error)

	// Peek returns the next line without consuming it.
	Peek() ([]byte, error)

	// Done returns whether the stream is exhausted.
	// Read errors other than io.EOF leave Done false
	// so they are reported by the next ReadLine.
	Done() bool
}

// LineSource is a LineReader reading from a buffered io.Reader. Lines
// are terminated by "\n" and an immediately preceding "\r" is removed.
type LineSource struct {
	r   *bufio.Reader
	pos int64

	buf    []byte
	peeked bool
	line   []byte
	width  int
	err    error
}

var _ LineReader = (*LineSource)(nil)

// NewLineSource returns a LineSource reading from r with position
// starting at base.
func NewLineSource(r io.Reader, base int64) *LineSource {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &LineSource{r: br, pos: base}
}

// Position returns the offset of the next unread line.
func (s *LineSource) Position() int64 { return s.pos }

func (s *LineSource) fill() {
	if s.peeked {
		return
	}
	s.peeked = true
	s.buf = s.buf[:0]
	for {
		frag, err := s.r.ReadSlice('\n')
		s.buf = append(s.buf, frag...)
		if err == bufio.ErrBufferFull {
			continue
		}
		s.err = err
		break
	}
	s.width = len(s.buf)
	if s.err == io.EOF && len(s.buf) != 0 {
		s.err = nil
	}
	line := bytes.TrimSuffix(s.buf, []byte{'\n'})
	s.line = bytes.TrimSuffix(line, []byte{'\r'})
}

// Peek returns the next line without consuming it.
func (s *LineSource) Peek() ([]byte, error) {
	s.fill()
	if s.err != nil {
		return nil, s.err
	}
	return s.line, nil
}

// ReadLine returns the next line.
func (s *LineSource) ReadLine() ([]byte, error) {
	s.fill()
	if s.err != nil {
		return nil, s.err
	}
	s.peeked = false
	s.pos += int64(s.width)
	return s.line, nil
}

// Done returns whether the stream is exhausted.
func (s *LineSource) Done() bool {
	s.fill()
	return s.err == io.EOF
}
