// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tribble

import (
	"fmt"
	"os"
	"strings"
)

// Kind is the index backend of a Reader.
type Kind int

// Index backends.
const (
	// Plain is a feature file without an index.
	Plain Kind = iota

	// Tabix is a BGZF compressed feature file
	// with a tabix index.
	Tabix

	// CSI is a BGZF compressed feature file
	// with a CSI index.
	CSI

	// Tribble is an uncompressed feature file
	// with a Tribble index.
	Tribble
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Tabix:
		return "tabix"
	case CSI:
		return "csi"
	case Tribble:
		return "tribble"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Location is the index of a feature file.
type Location struct {
	Kind Kind

	// Index is the path of the index file.
	// It is empty for Plain.
	Index string
}

// Locator finds the index of a feature file.
type Locator interface {
	Locate(path string) (Location, error)
}

// LocatorFunc is a function that implements Locator.
type LocatorFunc func(path string) (Location, error)

// Locate calls f(path).
func (f LocatorFunc) Locate(path string) (Location, error) { return f(path) }

// Index file suffixes.
const (
	TabixExt = ".tbi"
	CSIExt   = ".csi"
	IdxExt   = ".idx"
)

// DefaultLocator finds indexes by file name.
//
// A block compressed feature file, named with a ".gz" or ".bgz"
// extension, is tabix indexed if path+".tbi" exists and CSI indexed if
// path+".csi" exists. Otherwise a Tribble index is looked for at
// path+".idx", path+".idx.gz" and path+".idx.xz" in that order. If no
// index is found the Location is Plain.
//
// Only the existence of the index files is checked.
type DefaultLocator struct {
	// Exists reports whether a file exists. If Exists
	// is nil, os.Stat is used.
	Exists func(path string) bool
}

// Locate returns the Location of the index for path.
func (l DefaultLocator) Locate(path string) (Location, error) {
	exists := l.Exists
	if exists == nil {
		exists = fileExists
	}
	if IsBlockCompressed(path) {
		if idx := path + TabixExt; exists(idx) {
			return Location{Kind: Tabix, Index: idx}, nil
		}
		if idx := path + CSIExt; exists(idx) {
			return Location{Kind: CSI, Index: idx}, nil
		}
	}
	for _, ext := range []string{IdxExt, IdxExt + ".gz", IdxExt + ".xz"} {
		if idx := path + ext; exists(idx) {
			return Location{Kind: Tribble, Index: idx}, nil
		}
	}
	return Location{Kind: Plain}, nil
}

// IsBlockCompressed returns whether path names a block compressed file
// by its extension.
func IsBlockCompressed(path string) bool {
	return strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".bgz")
}

// isGzip returns whether a path without a block compressed index names
// a gzip compressed file.
func isGzip(path string) bool {
	return strings.HasSuffix(path, "gz")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
