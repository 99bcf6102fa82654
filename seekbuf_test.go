package edf_test

import (
	"errors"
	"io"
)

// seekBuffer is a minimal in-memory io.ReadWriteSeeker, standing in for a
// file on disk across these tests since no sample .edf ships in this repo.
type seekBuffer struct {
	buf []byte
	pos int64
}

func newSeekBuffer() *seekBuffer { return &seekBuffer{} }

func (b *seekBuffer) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.pos:])
	b.pos += int64(n)
	return n, nil
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.buf)) {
		grown := make([]byte, end)
		copy(grown, b.buf)
		b.buf = grown
	}
	n := copy(b.buf[b.pos:end], p)
	b.pos = end
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = b.pos + offset
	case io.SeekEnd:
		newPos = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("seekBuffer: invalid whence")
	}
	if newPos < 0 {
		return 0, errors.New("seekBuffer: negative position")
	}
	b.pos = newPos
	return newPos, nil
}
