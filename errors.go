package edf

import (
	"errors"
	"fmt"
	"time"
)

// FormatError reports a fixed-width ASCII field or TAL byte sequence that
// could not be parsed.
type FormatError struct {
	Field  string
	Offset int64
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("edf: malformed field %q at offset %d: %s", e.Field, e.Offset, e.Reason)
}

// OrderError reports a data record whose recorded start time precedes the
// time the fragment engine expected.
type OrderError struct {
	RecordIndex int
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("edf: data record %d starts before the previous record ends", e.RecordIndex)
}

// ContiguityError reports a gap between consecutive data records in a file
// whose declared type requires contiguity.
type ContiguityError struct {
	RecordIndex int
	Gap         time.Duration
}

func (e *ContiguityError) Error() string {
	return fmt.Sprintf("edf: data record %d is not contiguous with the previous record (gap %s)", e.RecordIndex, e.Gap)
}

// CapacityError reports an annotation whose encoded size exceeds the byte
// budget allocated to its signal.
type CapacityError struct {
	Signal string
	Size   int
	Budget int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("edf: annotation on signal %q needs %d bytes but only %d are allocated", e.Signal, e.Size, e.Budget)
}

// ErrOverflow is returned by Save when every standard signal has finished
// draining its samples while an annotation signal still has pending
// annotations.
var ErrOverflow = errors.New("edf: annotations remain after all standard-signal samples have been written")

// IncompatibleHeaderError reports that two files cannot be appended or
// merged because their headers describe incompatible signal layouts.
type IncompatibleHeaderError struct {
	Reason string
}

func (e *IncompatibleHeaderError) Error() string {
	return fmt.Sprintf("edf: incompatible header: %s", e.Reason)
}

// ErrAppendOutOfOrder is returned by Append when the file being appended
// starts before the receiver's recording ends.
var ErrAppendOutOfOrder = errors.New("edf: appended file starts before this file ends")
