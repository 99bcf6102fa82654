// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf

import (
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderReader parses only the fixed prelude and signal-attribute arrays of
// an EDF/EDF+ stream, for callers that want metadata, or lazy per-signal
// sample access, without decoding every data record into memory the way
// Open does.
type HeaderReader struct {
	r          io.ReadSeeker
	hdr        *Header
	attrs      []SignalAttrs
	dataOffset int64
}

// OpenHeader reads the prelude and signal-attribute arrays from r. It
// leaves r positioned at the start of the data records.
func OpenHeader(r io.ReadSeeker, opts ...Option) (*HeaderReader, error) {
	cfg := newConfig(opts)

	hdr, err := readHeaderPrelude(r, cfg.altDateFormat)
	if err != nil {
		return nil, fmt.Errorf("edf: reading header: %w", err)
	}

	attrs, err := readSignalAttrs(r, hdr.SignalCount, preludeSize)
	if err != nil {
		return nil, fmt.Errorf("edf: reading signal headers: %w", err)
	}

	return &HeaderReader{r: r, hdr: hdr, attrs: attrs, dataOffset: int64(hdr.HeaderBytes)}, nil
}

// Header returns the parsed prelude.
func (hr *HeaderReader) Header() *Header { return hr.hdr }

// SignalAttrs returns a copy of the per-signal attribute arrays, in
// declared order.
func (hr *HeaderReader) SignalAttrs() []SignalAttrs {
	return append([]SignalAttrs{}, hr.attrs...)
}

// Signal returns a SignalReader for random-access reads of one standard
// signal's samples, seeking directly to each sample's byte offset instead
// of decoding the records in between.
func (hr *HeaderReader) Signal(index int) (*SignalReader, error) {
	if index < 0 || index >= len(hr.attrs) {
		return nil, fmt.Errorf("edf: signal index %d out of range", index)
	}
	if hr.attrs[index].Label == AnnotationSignalLabel {
		return nil, fmt.Errorf("edf: signal %d (%q) is an annotation signal, not sample data", index, hr.attrs[index].Label)
	}

	recordSize := 0
	signalOffset := 0
	for i, a := range hr.attrs {
		if i < index {
			signalOffset += a.SamplesPerRecord * 2
		}
		recordSize += a.SamplesPerRecord * 2
	}

	return &SignalReader{
		r:            hr.r,
		attrs:        hr.attrs[index],
		numRecords:   hr.hdr.NumDataRecords,
		recordSize:   recordSize,
		signalOffset: signalOffset,
		dataOffset:   hr.dataOffset,
	}, nil
}

// SignalReader reads one standard signal's physical samples directly from
// the underlying stream, one record at a time, without materializing the
// other signals in that record.
type SignalReader struct {
	r            io.ReadSeeker
	attrs        SignalAttrs
	numRecords   int
	recordSize   int
	signalOffset int
	dataOffset   int64

	currentRecord int
	currentSample int
}

// Read fills data with consecutive physical-unit samples, returning
// io.EOF once the declared number of data records is exhausted.
func (sr *SignalReader) Read(data []float64) (int, error) {
	buf := make([]byte, 2)

	n := 0
	for n < len(data) {
		if sr.currentRecord >= sr.numRecords {
			return n, io.EOF
		}

		pos := sr.dataOffset + int64(sr.currentRecord)*int64(sr.recordSize) + int64(sr.signalOffset) + int64(sr.currentSample*2)
		if _, err := sr.r.Seek(pos, io.SeekStart); err != nil {
			return n, fmt.Errorf("edf: seeking to sample: %w", err)
		}
		if _, err := io.ReadFull(sr.r, buf); err != nil {
			return n, fmt.Errorf("edf: reading sample data: %w", err)
		}

		raw := int16(binary.LittleEndian.Uint16(buf))
		data[n] = digitalToPhysical(raw, sr.attrs.DigitalMin, sr.attrs.DigitalMax, sr.attrs.PhysicalMin, sr.attrs.PhysicalMax)
		n++

		sr.currentSample++
		if sr.currentSample >= sr.attrs.SamplesPerRecord {
			sr.currentSample = 0
			sr.currentRecord++
		}
	}

	return n, nil
}
