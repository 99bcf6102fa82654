package edf

import (
	"io"
	"strconv"
	"strings"
)

// padField renders s as exactly width bytes: left-justified, space-padded,
// or silently truncated if s is longer than width. Oversized values are
// truncated here, at write time, rather than rejected; nothing truncates
// them when they are assigned to a Header or SignalAttrs field.
func padField(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// writeField writes s to w as exactly width bytes.
func writeField(w io.Writer, s string, width int) error {
	_, err := io.WriteString(w, padField(s, width))
	return err
}

// readField reads exactly width bytes from r and trims surrounding spaces.
func readField(r io.Reader, width int) (string, error) {
	b := make([]byte, width)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// formatIntField renders v using the invariant locale (no digit grouping).
func formatIntField(v int) string {
	return strconv.Itoa(v)
}

// parseIntField parses v using the invariant locale, returning a FormatError
// that names the field and stream offset on failure.
func parseIntField(raw, field string, offset int64) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &FormatError{Field: field, Offset: offset, Reason: err.Error()}
	}
	return v, nil
}

// formatFloatField renders v to fit within width bytes, reducing fractional
// precision (capped at 8 digits by the field width itself) until it fits.
func formatFloatField(v float64, width int) string {
	for prec := 8; prec >= 0; prec-- {
		s := strconv.FormatFloat(v, 'f', prec, 64)
		if len(s) <= width {
			return s
		}
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// parseFloatField parses v using the invariant locale ('.' as the decimal
// separator, no digit grouping).
func parseFloatField(raw, field string, offset int64) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &FormatError{Field: field, Offset: offset, Reason: err.Error()}
	}
	return v, nil
}
