// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codec

import (
	"io"
	"sync"
)

const asyncBatchSize = 256

type lineBatch struct {
	lines [][]byte
	ends  []int64
	err   error
}

// AsyncLineSource is a LineReader that reads lines from a LineSource on
// a separate goroutine. At most depth batches of lines are held ahead
// of the consumer. An AsyncLineSource must be closed to release the
// reading goroutine.
type AsyncLineSource struct {
	batches chan lineBatch
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	cur lineBatch
	i   int
	pos int64
	err error
}

var _ LineReader = (*AsyncLineSource)(nil)

// NewAsyncLineSource returns an AsyncLineSource reading from src. If
// depth is less than one, a depth of one is used.
func NewAsyncLineSource(src *LineSource, depth int) *AsyncLineSource {
	if depth < 1 {
		depth = 1
	}
	s := &AsyncLineSource{
		batches: make(chan lineBatch, depth),
		done:    make(chan struct{}),
		pos:     src.Position(),
	}
	s.wg.Add(1)
	go s.read(src)
	return s
}

func (s *AsyncLineSource) read(src *LineSource) {
	defer s.wg.Done()
	defer close(s.batches)
	for {
		var b lineBatch
		for len(b.lines) < asyncBatchSize {
			line, err := src.ReadLine()
			if err != nil {
				b.err = err
				break
			}
			b.lines = append(b.lines, append([]byte(nil), line...))
			b.ends = append(b.ends, src.Position())
		}
		select {
		case s.batches <- b:
		case <-s.done:
			return
		}
		if b.err != nil {
			return
		}
	}
}

// next ensures the current batch has an unread line or that the
// terminal error has been seen.
func (s *AsyncLineSource) next() {
	for s.err == nil && s.i >= len(s.cur.lines) {
		if s.cur.err != nil {
			s.err = s.cur.err
			return
		}
		b, ok := <-s.batches
		if !ok {
			s.err = io.EOF
			return
		}
		s.cur = b
		s.i = 0
	}
}

// Position returns the offset of the next unread line.
func (s *AsyncLineSource) Position() int64 { return s.pos }

// Peek returns the next line without consuming it.
func (s *AsyncLineSource) Peek() ([]byte, error) {
	s.next()
	if s.i < len(s.cur.lines) {
		return s.cur.lines[s.i], nil
	}
	return nil, s.err
}

// ReadLine returns the next line.
func (s *AsyncLineSource) ReadLine() ([]byte, error) {
	line, err := s.Peek()
	if err != nil {
		return nil, err
	}
	s.pos = s.cur.ends[s.i]
	s.i++
	return line, nil
}

// Done returns whether the stream is exhausted.
func (s *AsyncLineSource) Done() bool {
	_, err := s.Peek()
	return err == io.EOF
}

// Close stops the reading goroutine and waits for it to exit. It does
// not close the underlying reader.
func (s *AsyncLineSource) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}
