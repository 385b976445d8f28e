// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package compressed

import "io"

// maxRun is the largest count - 1 that fits in a tuple's low nibble.
const maxRun = 15

// Buffer keeps the 4 most significant bits of each byte and run length
// encodes them. Each tuple is 4 bits of data followed by 4 bits of count - 1.
type Buffer struct {
	buf []byte
	off int // Read position
}

func (buffer *Buffer) Reset(buf []byte) {
	buffer.buf = buf
	buffer.off = 0
}

func (buffer *Buffer) writeByte(b byte) {
	value := b >> 4
	last := len(buffer.buf) - 1

	if last >= 0 {
		tuple := buffer.buf[last]
		if tuple>>4 == value && tuple&maxRun < maxRun {
			// Extend the current run
			buffer.buf[last] = tuple + 1
			return
		}
	}

	buffer.buf = append(buffer.buf, value<<4)
}

func (buffer *Buffer) Write(buf []byte) (int, error) {
	for _, b := range buf {
		buffer.writeByte(b)
	}
	return len(buf), nil
}

// readByte consumes one byte of the current run.
func (buffer *Buffer) readByte() (b byte, more bool) {
	tuple := buffer.buf[buffer.off]
	b = tuple &^ maxRun

	if tuple&maxRun > 0 {
		buffer.buf[buffer.off] = tuple - 1
	} else {
		buffer.off++
	}

	return b, buffer.off < len(buffer.buf)
}

// Read decodes into buf. It consumes the buffer.
func (buffer *Buffer) Read(buf []byte) (int, error) {
	if buffer.off >= len(buffer.buf) {
		return 0, io.EOF
	}

	more := true
	i := 0
	for ; i < len(buf) && more; i++ {
		buf[i], more = buffer.readByte()
	}

	return i, nil
}

// Grow makes space for about n uncompressed bytes.
func (buffer *Buffer) Grow(n int) {
	want := n / 2
	if old := buffer.Buffer(); cap(old)-len(old) < want {
		buf := make([]byte, len(old), len(old)+want)
		copy(buf, old)
		buffer.buf = buf
		buffer.off = 0
	}
}

func (buffer *Buffer) Buffer() []byte {
	return buffer.buf[buffer.off:]
}
