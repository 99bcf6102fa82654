package edf

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

// digitalToPhysical maps a raw 16-bit sample to physical units by linear
// interpolation between the signal's digital and physical extremes.
// Out-of-range raw values are extrapolated by the same formula, per spec.
func digitalToPhysical(raw int16, dmin, dmax int, pmin, pmax float64) float64 {
	if dmax == dmin {
		return pmin
	}
	return pmin + (float64(raw)-float64(dmin))*(pmax-pmin)/float64(dmax-dmin)
}

// physicalToDigital maps a physical sample to a raw 16-bit value, clipping
// into the int16 range.
func physicalToDigital(phys float64, pmin, pmax float64, dmin, dmax int) int16 {
	if pmax == pmin {
		return int16(dmin)
	}
	v := float64(dmin) + (phys-pmin)*float64(dmax-dmin)/(pmax-pmin)
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(roundHalfUp(v))
}

// roundHalfUp rounds to the nearest integer, with exact .5 ties rounding
// toward positive infinity rather than away from zero. This matters at the
// digital/physical midpoint: a signal whose digital range spans an even
// count of codes (e.g. -32768..32767, 65535 apart) maps physical 0 to
// digital -0.5, and the EDF worked examples expect that to land on 0, not -1.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// readStandardRecord reads one record's worth of samples for a standard
// signal and appends the decoded physical values.
func readStandardRecord(r io.Reader, s *StandardSignal) error {
	raw := make([]int16, s.SamplesPerRecord)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return fmt.Errorf("edf: reading samples for signal %q: %w", s.Label, err)
	}
	for _, v := range raw {
		s.Samples = append(s.Samples, digitalToPhysical(v, s.DigitalMin, s.DigitalMax, s.PhysicalMin, s.PhysicalMax))
	}
	return nil
}

// writeStandardRecord writes the next block of samples for a standard
// signal, padding with the digital minimum if fewer samples remain than
// the record requires.
func writeStandardRecord(w io.Writer, s *StandardSignal) error {
	buf := bufio.NewWriter(w)
	n := s.SamplesPerRecord
	for i := 0; i < n; i++ {
		var raw int16
		if s.writePos < len(s.Samples) {
			raw = physicalToDigital(s.Samples[s.writePos], s.PhysicalMin, s.PhysicalMax, s.DigitalMin, s.DigitalMax)
			s.writePos++
		} else {
			raw = int16(s.DigitalMin)
		}
		if err := binary.Write(buf, binary.LittleEndian, raw); err != nil {
			return fmt.Errorf("edf: writing samples for signal %q: %w", s.Label, err)
		}
	}
	return buf.Flush()
}

// annotationReadResult is what decoding one annotation signal's record
// block yields.
type annotationReadResult struct {
	recordedStart *time.Duration // set only for the first annotation signal of the record
}

// readAnnotationRecord decodes one record's annotation block. isFirst marks
// the first annotation signal encountered in this record, whose first TAL
// must be a timekeeping entry.
func readAnnotationRecord(r io.Reader, s *AnnotationSignal, isFirst bool, recordIndex int) (annotationReadResult, error) {
	var result annotationReadResult

	data := make([]byte, s.byteBudget())
	if _, err := io.ReadFull(r, data); err != nil {
		return result, fmt.Errorf("edf: reading annotations for signal %q: %w", s.Label, err)
	}

	dec := newTALBlockDecoder(data, s.Label, 0)
	first := true
	for !dec.atEnd() {
		tal, err := dec.next()
		if err != nil {
			return result, err
		}

		if isFirst && first {
			if len(tal.descriptions) > 0 && normalizeDescriptions(tal.descriptions) != nil {
				warn("edf+: record %d timekeeping TAL on signal %q carries a defining event; ignoring it permissively", recordIndex, s.Label)
			}
			start := tal.onset
			result.recordedStart = &start
			first = false
			continue
		}
		first = false

		descs, channel := splitLinkedChannel(normalizeDescriptions(tal.descriptions))
		a := Annotation{Onset: tal.onset, Descriptions: descs, LinkedChannel: channel}
		if tal.hasDuration {
			d := tal.duration
			a.Duration = &d
		}
		s.Annotations = append(s.Annotations, a)
	}

	if isFirst && result.recordedStart == nil {
		return result, &FormatError{Field: s.Label, Offset: 0, Reason: "missing timekeeping TAL"}
	}

	return result, nil
}

// writeAnnotationRecord writes one record's worth of annotations for an
// annotation signal, synthesizing a timekeeping TAL first if isFirst.
func writeAnnotationRecord(w io.Writer, s *AnnotationSignal, isFirst bool, recordStart time.Duration) error {
	budget := s.byteBudget()
	var buf bytes.Buffer

	if isFirst {
		buf.Write(encodeTimekeepingTAL(recordStart))
	}

	for s.writePos < len(s.Annotations) {
		a := s.Annotations[s.writePos]
		if a.IsTimekeeping {
			s.writePos++
			continue
		}

		size := annotationByteSize(a)
		if size > budget {
			return &CapacityError{Signal: s.Label, Size: size, Budget: budget}
		}
		if buf.Len()+size > budget {
			break // doesn't fit this record; defer to the next one
		}

		encodeAnnotationTAL(&buf, a)
		s.writePos++
	}

	if buf.Len() > budget {
		return &CapacityError{Signal: s.Label, Size: buf.Len(), Budget: budget}
	}

	out := make([]byte, budget)
	copy(out, buf.Bytes())
	_, err := w.Write(out)
	return err
}
