// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package le provides little-endian decoding and encoding of index fields
// with a single truncation error path.
package le

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncated is returned when an index stream ends before a field
// has been completely read.
var ErrTruncated = errors.New("truncated index")

// Decoder reads little-endian values from an io.Reader. The first error
// encountered is retained and all subsequent reads return zero values,
// so a sequence of reads may be checked once with Err.
type Decoder struct {
	r   io.Reader
	typ string
	err error
	buf [8]byte
}

// NewDecoder returns a Decoder reading from r. The typ string prefixes
// error messages.
func NewDecoder(r io.Reader, typ string) *Decoder {
	return &Decoder{r: r, typ: typ}
}

// Err returns the first error encountered by the Decoder.
func (d *Decoder) Err() error { return d.err }

// Fail records err as the Decoder's error if no error has yet occurred.
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) fill(p []byte, what string) bool {
	if d.err != nil {
		return false
	}
	_, err := io.ReadFull(d.r, p)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = ErrTruncated
		}
		d.err = fmt.Errorf("%s: failed to read %s: %w", d.typ, what, err)
		return false
	}
	return true
}

// Bytes reads len(p) bytes into p.
func (d *Decoder) Bytes(p []byte, what string) {
	d.fill(p, what)
}

// Block reads n bytes. The returned slice grows as bytes are read so
// a short stream fails before n bytes are allocated.
func (d *Decoder) Block(n int, what string) []byte {
	if d.err != nil {
		return nil
	}
	var buf bytes.Buffer
	m, err := io.CopyN(&buf, d.r, int64(n))
	if err != nil {
		if err == io.EOF {
			err = ErrTruncated
		}
		d.err = fmt.Errorf("%s: failed to read %s: %w (%d of %d bytes)", d.typ, what, err, m, n)
		return nil
	}
	return buf.Bytes()
}

// Int32 reads a little-endian int32.
func (d *Decoder) Int32(what string) int32 {
	if !d.fill(d.buf[:4], what) {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(d.buf[:4]))
}

// Uint32 reads a little-endian uint32.
func (d *Decoder) Uint32(what string) uint32 {
	if !d.fill(d.buf[:4], what) {
		return 0
	}
	return binary.LittleEndian.Uint32(d.buf[:4])
}

// Uint64 reads a little-endian uint64.
func (d *Decoder) Uint64(what string) uint64 {
	if !d.fill(d.buf[:8], what) {
		return 0
	}
	return binary.LittleEndian.Uint64(d.buf[:8])
}

// OptionalUint64 reads a little-endian uint64 that may be absent at the
// end of the stream. It returns false without recording an error if the
// stream ends cleanly before the value.
func (d *Decoder) OptionalUint64(what string) (uint64, bool) {
	if d.err != nil {
		return 0, false
	}
	n, err := io.ReadFull(d.r, d.buf[:8])
	if err == io.EOF && n == 0 {
		return 0, false
	}
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			err = ErrTruncated
		}
		d.err = fmt.Errorf("%s: failed to read %s: %w", d.typ, what, err)
		return 0, false
	}
	return binary.LittleEndian.Uint64(d.buf[:8]), true
}

// Int64 reads a little-endian int64.
func (d *Decoder) Int64(what string) int64 {
	return int64(d.Uint64(what))
}

// Count reads a little-endian int32 count and checks that it is not
// negative.
func (d *Decoder) Count(what string) int {
	n := d.Int32(what)
	if n < 0 {
		d.Fail(fmt.Errorf("%s: invalid %s: %d", d.typ, what, n))
		return 0
	}
	return int(n)
}

// CString reads a NUL-terminated string. The terminating NUL is consumed
// and not included in the returned string.
func (d *Decoder) CString(what string) string {
	var (
		s bytes.Buffer
		b [1]byte
	)
	for d.fill(b[:], what) {
		if b[0] == 0 {
			return s.String()
		}
		s.WriteByte(b[0])
	}
	return ""
}

// Encoder writes little-endian values to an io.Writer. The first error
// encountered is retained and all subsequent writes are no-ops.
type Encoder struct {
	w   io.Writer
	typ string
	err error
	buf [8]byte
}

// NewEncoder returns an Encoder writing to w. The typ string prefixes
// error messages.
func NewEncoder(w io.Writer, typ string) *Encoder {
	return &Encoder{w: w, typ: typ}
}

// Err returns the first error encountered by the Encoder.
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) write(p []byte, what string) {
	if e.err != nil {
		return
	}
	_, err := e.w.Write(p)
	if err != nil {
		e.err = fmt.Errorf("%s: failed to write %s: %w", e.typ, what, err)
	}
}

// Bytes writes p.
func (e *Encoder) Bytes(p []byte, what string) { e.write(p, what) }

// Int32 writes v as a little-endian int32.
func (e *Encoder) Int32(v int32, what string) {
	binary.LittleEndian.PutUint32(e.buf[:4], uint32(v))
	e.write(e.buf[:4], what)
}

// Uint32 writes v as a little-endian uint32.
func (e *Encoder) Uint32(v uint32, what string) {
	binary.LittleEndian.PutUint32(e.buf[:4], v)
	e.write(e.buf[:4], what)
}

// Uint64 writes v as a little-endian uint64.
func (e *Encoder) Uint64(v uint64, what string) {
	binary.LittleEndian.PutUint64(e.buf[:8], v)
	e.write(e.buf[:8], what)
}

// Int64 writes v as a little-endian int64.
func (e *Encoder) Int64(v int64, what string) { e.Uint64(uint64(v), what) }

// CString writes s followed by a terminating NUL.
func (e *Encoder) CString(s, what string) {
	e.write(append([]byte(s), 0), what)
}
