// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tribble

import (
	"io"
	"os"

	"golang.org/x/exp/mmap"
)

// Handle is a random access handle on a feature file.
type Handle interface {
	io.ReaderAt
	io.Closer

	// Size returns the length of the file in bytes.
	Size() int64
}

// Opener opens feature files.
type Opener interface {
	// Open returns a Handle for the file at path.
	Open(path string) (Handle, error)

	// Reusable returns whether a Handle for path may
	// be held open and shared by sequential queries.
	Reusable(path string) bool
}

// FileOpener is the default Opener. Local regular files are memory
// mapped and reusable. Other files are opened afresh for each use.
type FileOpener struct{}

// Reusable returns whether path is a local regular file.
func (FileOpener) Reusable(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// Open opens the file at path.
func (o FileOpener) Open(path string) (Handle, error) {
	if o.Reusable(path) {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, err
		}
		return mapped{m}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return file{File: f, size: fi.Size()}, nil
}

type mapped struct {
	*mmap.ReaderAt
}

func (m mapped) Size() int64 { return int64(m.Len()) }

type file struct {
	*os.File
	size int64
}

func (f file) Size() int64 { return f.size }
