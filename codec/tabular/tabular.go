// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tabular provides a codec for tab-delimited feature files
// described by column positions, such as the files indexed by tabix.
package tabular

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/biogo/tribble/codec"
	"github.com/biogo/tribble/tabix"
)

// Config describes the layout of a tab-delimited feature file.
type Config struct {
	// Preset is the tabix preset of the file:
	// tabix.Generic, tabix.SAM or tabix.VCF.
	Preset byte

	// ZeroBased indicates that begin positions
	// are zero-based and ends are exclusive.
	ZeroBased bool

	// NameColumn, BeginColumn and EndColumn are
	// 1-based column numbers. An EndColumn of zero
	// uses the begin column for generic files.
	NameColumn  int
	BeginColumn int
	EndColumn   int

	// MetaChar marks header and comment lines.
	MetaChar byte

	// Skip is the number of leading lines that are
	// part of the header regardless of MetaChar.
	Skip int

	// Prefetch is passed to codec.Lines.
	Prefetch int
}

// Common file layouts.
var (
	BED = Config{ZeroBased: true, NameColumn: 1, BeginColumn: 2, EndColumn: 3, MetaChar: '#'}
	GFF = Config{NameColumn: 1, BeginColumn: 4, EndColumn: 5, MetaChar: '#'}
	SAM = Config{Preset: tabix.SAM, NameColumn: 3, BeginColumn: 4, MetaChar: '@'}
	VCF = Config{Preset: tabix.VCF, NameColumn: 1, BeginColumn: 2, MetaChar: '#'}
)

// ConfigFor returns the Config described by a tabix index.
func ConfigFor(idx *tabix.Index) Config {
	return Config{
		Preset:      idx.Format,
		ZeroBased:   idx.ZeroBased,
		NameColumn:  int(idx.NameColumn),
		BeginColumn: int(idx.BeginColumn),
		EndColumn:   int(idx.EndColumn),
		MetaChar:    byte(idx.MetaChar),
		Skip:        int(idx.Skip),
	}
}

// Record is a tab-delimited feature record.
type Record struct {
	Fields []string

	contig     string
	start, end int
}

// Contig returns the contig name of the record.
func (r *Record) Contig() string { return r.contig }

// Start returns the one-based start of the record.
func (r *Record) Start() int { return r.start }

// End returns the one-based inclusive end of the record.
func (r *Record) End() int { return r.end }

func (r *Record) String() string { return strings.Join(r.Fields, "\t") }

// New returns a codec decoding records described by cfg.
func New(cfg Config) *codec.Lines[*Record] {
	return &codec.Lines[*Record]{
		IsHeader: func(line []byte, n int) bool {
			return n < cfg.Skip || (len(line) != 0 && line[0] == cfg.MetaChar)
		},
		DecodeLine: cfg.Decode,
		Prefetch:   cfg.Prefetch,
	}
}

// Decode decodes a record from line. Empty lines and lines starting with
// the meta character are not records.
func (cfg Config) Decode(line []byte) (*Record, bool, error) {
	if len(line) == 0 || line[0] == cfg.MetaChar {
		return nil, false, nil
	}
	fields := strings.Split(string(line), "\t")
	if cfg.NameColumn < 1 || cfg.NameColumn > len(fields) || cfg.BeginColumn < 1 || cfg.BeginColumn > len(fields) {
		return nil, false, fmt.Errorf("%w: too few fields: %d", codec.ErrMalformed, len(fields))
	}

	r := &Record{Fields: fields, contig: fields[cfg.NameColumn-1]}

	// beg and end are zero-based half-open.
	beg, err := strconv.Atoi(fields[cfg.BeginColumn-1])
	if err != nil {
		return nil, false, fmt.Errorf("%w: invalid begin: %v", codec.ErrMalformed, err)
	}
	end := beg
	if cfg.ZeroBased {
		end++
	} else {
		beg--
	}
	if beg < 0 {
		beg = 0
	}
	if end < 1 {
		end = 1
	}

	switch cfg.Preset {
	case tabix.SAM:
		if len(fields) < 6 {
			return nil, false, fmt.Errorf("%w: missing CIGAR", codec.ErrMalformed)
		}
		n, err := refLength(fields[5])
		if err != nil {
			return nil, false, err
		}
		end = beg + n
	case tabix.VCF:
		if len(fields) >= 4 && len(fields[3]) != 0 {
			end = beg + len(fields[3])
		}
		if len(fields) >= 8 {
			e, ok, err := infoEnd(fields[7])
			if err != nil {
				return nil, false, err
			}
			if ok {
				end = e
			}
		}
	default:
		if cfg.EndColumn > 0 && cfg.EndColumn != cfg.BeginColumn {
			if cfg.EndColumn > len(fields) {
				return nil, false, fmt.Errorf("%w: missing end column", codec.ErrMalformed)
			}
			end, err = strconv.Atoi(fields[cfg.EndColumn-1])
			if err != nil {
				return nil, false, fmt.Errorf("%w: invalid end: %v", codec.ErrMalformed, err)
			}
		}
	}
	if end <= beg {
		end = beg + 1
	}

	r.start = beg + 1
	r.end = end
	return r, true, nil
}

// refLength returns the number of reference bases consumed by a
// CIGAR string.
func refLength(cigar string) (int, error) {
	if cigar == "*" {
		return 0, nil
	}
	var n, j int
	for i := 0; i < len(cigar); i++ {
		op := cigar[i]
		if op >= '0' && op <= '9' {
			continue
		}
		l, err := strconv.Atoi(cigar[j:i])
		if err != nil {
			return 0, fmt.Errorf("%w: invalid CIGAR %q", codec.ErrMalformed, cigar)
		}
		switch op {
		case 'M', 'D', 'N', '=', 'X':
			n += l
		}
		j = i + 1
	}
	if j != len(cigar) {
		return 0, fmt.Errorf("%w: invalid CIGAR %q", codec.ErrMalformed, cigar)
	}
	return n, nil
}

// infoEnd returns the value of the END key of a VCF INFO field.
func infoEnd(info string) (end int, ok bool, err error) {
	for _, kv := range strings.Split(info, ";") {
		if !strings.HasPrefix(kv, "END=") {
			continue
		}
		end, err = strconv.Atoi(kv[len("END="):])
		if err != nil {
			return 0, false, fmt.Errorf("%w: invalid INFO END: %v", codec.ErrMalformed, err)
		}
		return end, true, nil
	}
	return 0, false, nil
}

// HeaderLines returns the header lines held in a codec.Header produced
// by a tabular codec.
func HeaderLines(h codec.Header) []string {
	lines, _ := h.Value.([]string)
	return lines
}
