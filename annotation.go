package edf

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TAL control bytes.
const (
	talDelim    = 0x14 // annotation delimiter
	talDurDelim = 0x15 // duration delimiter
	talPad      = 0x00 // TAL terminator and inter-TAL padding
)

// Annotation is one onset/duration/description group decoded from, or to be
// encoded into, a timestamped annotation list (TAL).
type Annotation struct {
	// Onset is relative to the file's start time and may be negative.
	Onset time.Duration
	// Duration is optional; nil means no duration was recorded.
	Duration *time.Duration
	// Descriptions is the ordered list of UTF-8 text items sharing this
	// onset/duration.
	Descriptions []string
	// LinkedChannel optionally names the channel this annotation refers
	// to. On the wire it rides inside the last description as "@@label".
	LinkedChannel string
	// IsTimekeeping marks the synthesized per-record timekeeping TAL.
	// Timekeeping annotations are never supplied by callers: Save
	// generates them and Open filters them out of AnnotationSignal's
	// Annotations.
	IsTimekeeping bool
}

// formatSeconds renders v with the invariant locale, always including a
// decimal point, trimming no further than strconv's shortest round-trip
// representation.
func formatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func formatSignedSeconds(v float64) string {
	sign := "+"
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + formatSeconds(v)
}

// encodeAnnotationTAL renders a onto buf using the EDF+ TAL grammar: a
// signed onset, an optional duration, then one or more delimited
// descriptions. A zero-description annotation (including the synthesized
// timekeeping case) is encoded as a single empty description, which
// produces the "0x14 0x14 0x00" timekeeping-style trailer.
func encodeAnnotationTAL(buf *bytes.Buffer, a Annotation) {
	buf.WriteString(formatSignedSeconds(a.Onset.Seconds()))
	if a.Duration != nil {
		buf.WriteByte(talDurDelim)
		buf.WriteString(formatSeconds(a.Duration.Seconds()))
	}
	buf.WriteByte(talDelim)

	descs := a.Descriptions
	if len(descs) == 0 {
		descs = []string{""}
	}
	for i, d := range descs {
		if a.LinkedChannel != "" && i == len(descs)-1 {
			d = d + "@@" + a.LinkedChannel
		}
		buf.WriteString(d)
		buf.WriteByte(talDelim)
	}
	buf.WriteByte(talPad)
}

// annotationByteSize returns the number of bytes encodeAnnotationTAL would
// emit for a, mirroring its layout exactly so callers can check an
// annotation's size against a signal's byte budget before encoding it.
func annotationByteSize(a Annotation) int {
	size := 1 + len(formatSeconds(math.Abs(a.Onset.Seconds()))) // sign + onset digits
	if a.Duration != nil {
		size += 1 + len(formatSeconds(a.Duration.Seconds())) // 0x15 + duration digits
	}
	size++ // delimiter opening the description section

	descs := a.Descriptions
	if len(descs) == 0 {
		descs = []string{""}
	}
	for i, d := range descs {
		n := len(d)
		if a.LinkedChannel != "" && i == len(descs)-1 {
			n += 2 + len(a.LinkedChannel)
		}
		size += n + 1 // text bytes + trailing delimiter
	}
	size++ // terminating 0x00
	return size
}

// encodeTimekeepingTAL renders the synthesized first TAL of a record's
// first annotation signal.
func encodeTimekeepingTAL(onset time.Duration) []byte {
	var buf bytes.Buffer
	encodeAnnotationTAL(&buf, Annotation{Onset: onset, IsTimekeeping: true})
	return buf.Bytes()
}

// decodedTAL is one parsed TAL, before timekeeping/description-splitting
// interpretation is applied by the caller.
type decodedTAL struct {
	onset        time.Duration
	hasDuration  bool
	duration     time.Duration
	descriptions []string
}

// talBlockDecoder walks a fixed-size annotation data-record block, yielding
// one decodedTAL at a time.
type talBlockDecoder struct {
	data   []byte
	pos    int
	signal string
	base   int64 // stream offset of data[0], for FormatError reporting
}

func newTALBlockDecoder(data []byte, signal string, base int64) *talBlockDecoder {
	return &talBlockDecoder{data: data, signal: signal, base: base}
}

func (d *talBlockDecoder) atEnd() bool {
	for d.pos < len(d.data) && d.data[d.pos] == talPad {
		d.pos++
	}
	return d.pos >= len(d.data)
}

func (d *talBlockDecoder) errf(reason string, args ...interface{}) error {
	return &FormatError{Field: d.signal + " TAL", Offset: d.base + int64(d.pos), Reason: fmt.Sprintf(reason, args...)}
}

// next decodes the TAL starting at the decoder's current position.
func (d *talBlockDecoder) next() (decodedTAL, error) {
	var out decodedTAL

	start := d.pos
	if d.pos >= len(d.data) || (d.data[d.pos] != '+' && d.data[d.pos] != '-') {
		return out, d.errf("expected onset sign")
	}
	d.pos++

	for d.pos < len(d.data) && d.data[d.pos] != talDurDelim && d.data[d.pos] != talDelim {
		d.pos++
	}
	onsetStr := string(d.data[start:d.pos])
	onsetSec, err := strconv.ParseFloat(onsetStr, 64)
	if err != nil {
		return out, d.errf("invalid onset %q: %v", onsetStr, err)
	}
	out.onset = time.Duration(onsetSec * float64(time.Second))

	if d.pos < len(d.data) && d.data[d.pos] == talDurDelim {
		d.pos++
		durStart := d.pos
		for d.pos < len(d.data) && d.data[d.pos] != talDelim {
			d.pos++
		}
		durStr := string(d.data[durStart:d.pos])
		durSec, err := strconv.ParseFloat(durStr, 64)
		if err != nil {
			return out, d.errf("invalid duration %q: %v", durStr, err)
		}
		out.hasDuration = true
		out.duration = time.Duration(durSec * float64(time.Second))
	}

	if d.pos >= len(d.data) || d.data[d.pos] != talDelim {
		return out, d.errf("missing description delimiter")
	}
	d.pos++ // consume the opening description delimiter

	for {
		textStart := d.pos
		for d.pos < len(d.data) && d.data[d.pos] != talDelim {
			d.pos++
		}
		if d.pos >= len(d.data) {
			return out, d.errf("unterminated TAL")
		}
		text := string(d.data[textStart:d.pos])
		out.descriptions = append(out.descriptions, text)
		d.pos++ // consume this description's trailing delimiter

		if d.pos < len(d.data) && d.data[d.pos] == talPad {
			d.pos++ // consume the terminating 0x00
			break
		}
		if d.pos >= len(d.data) {
			return out, d.errf("unterminated TAL")
		}
	}

	return out, nil
}

// splitLinkedChannel extracts a trailing "@@label" from the last
// description, if present.
func splitLinkedChannel(descs []string) ([]string, string) {
	if len(descs) == 0 {
		return descs, ""
	}
	last := descs[len(descs)-1]
	if idx := strings.Index(last, "@@"); idx >= 0 {
		channel := last[idx+2:]
		out := append([]string{}, descs[:len(descs)-1]...)
		if text := last[:idx]; text != "" || len(out) > 0 {
			out = append(out, text)
		} else if text == "" && len(descs) == 1 {
			out = append(out, "")
		}
		return out, channel
	}
	return descs, ""
}

// normalizeDescriptions collapses the single-empty-description sentinel
// (used to encode both timekeeping and zero-description annotations) back
// to an empty list.
func normalizeDescriptions(descs []string) []string {
	if len(descs) == 1 && descs[0] == "" {
		return nil
	}
	return descs
}
