package edf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// File is an EDF/EDF+ recording: its header, its signals (each carrying its
// own sample or annotation data), and the fragments that tie data-record
// indices to recording time.
type File struct {
	Header    Header
	Signals   []Signal
	Fragments []Fragment
}

// config holds the options shared by Open and Save.
type config struct {
	altDateFormat bool
}

// Option customizes Open or Save.
type Option func(*config)

// WithAlternateDateFormat parses/writes the header start date as MM.dd.yy
// instead of the default dd.MM.yy, for legacy corpora that wrote it that way.
func WithAlternateDateFormat() Option {
	return func(c *config) { c.altDateFormat = true }
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open reads a complete EDF/EDF+ file from r: header, signal allocation,
// and every data record, building the in-memory sample/annotation
// sequences and the fragment list.
func Open(r io.ReadSeeker, opts ...Option) (*File, error) {
	cfg := newConfig(opts)

	br := bufio.NewReader(r)

	hdr, err := readHeaderPrelude(br, cfg.altDateFormat)
	if err != nil {
		return nil, fmt.Errorf("edf: reading header: %w", err)
	}

	attrs, err := readSignalAttrs(br, hdr.SignalCount, preludeSize)
	if err != nil {
		return nil, fmt.Errorf("edf: reading signal headers: %w", err)
	}

	f := &File{Header: *hdr, Signals: allocateSignals(attrs)}

	// Pre-size sample slices from the declared record count to avoid
	// repeated reallocation while streaming.
	if hdr.NumDataRecords > 0 {
		for _, s := range f.Signals {
			if std, ok := s.(*StandardSignal); ok {
				std.Samples = make([]float64, 0, hdr.NumDataRecords*std.SamplesPerRecord)
			}
		}
	}

	if err := f.readRecords(br); err != nil {
		return nil, err
	}

	return f, nil
}

// readRecords drives the per-record decode loop and builds the fragment
// list from the timekeeping annotations it observes.
func (f *File) readRecords(r io.Reader) error {
	numRecords := f.Header.NumDataRecords
	if numRecords < 0 {
		return nil // unpatched/streaming header; nothing to read
	}

	hasAnnotations := false
	for _, s := range f.Signals {
		if s.Kind() == SignalAnnotation {
			hasAnnotations = true
			break
		}
	}

	var expected float64
	haveFragment := false

	for rec := 0; rec < numRecords; rec++ {
		firstAnnotation := true
		var recordedStart *float64

		for _, s := range f.Signals {
			switch sig := s.(type) {
			case *StandardSignal:
				if err := readStandardRecord(r, sig); err != nil {
					return err
				}
			case *AnnotationSignal:
				result, err := readAnnotationRecord(r, sig, firstAnnotation, rec)
				if err != nil {
					return err
				}
				if firstAnnotation && result.recordedStart != nil {
					v := result.recordedStart.Seconds()
					recordedStart = &v
				}
				firstAnnotation = false
			}
		}

		if !hasAnnotations {
			continue // classic EDF: implicit single fragment, nominal timing
		}
		if recordedStart == nil {
			continue
		}

		gap := *recordedStart - expected
		switch {
		case gap < -contiguityTolerance:
			return &OrderError{RecordIndex: rec}
		case !haveFragment:
			f.markFragment(rec, *recordedStart)
			haveFragment = true
		case gap > contiguityTolerance:
			if f.Header.FileType == FileTypeEDFPlusD {
				f.markFragment(rec, *recordedStart)
			} else if f.hasStandardSignals() && f.Header.DataRecordDuration > 0 {
				return &ContiguityError{RecordIndex: rec, Gap: time.Duration(gap * float64(time.Second))}
			}
			// else: annotations-only time reset, accepted permissively.
		case f.Header.FileType == FileTypeEDFPlusC && gap != 0:
			warn("edf+: record %d start time %.6fs does not exactly match the computed record start", rec, *recordedStart)
		}

		expected = *recordedStart + f.Header.DataRecordDuration.Seconds()
	}

	f.recomputeFragmentEnds()
	return nil
}

func (f *File) hasStandardSignals() bool {
	for _, s := range f.Signals {
		if s.Kind() == SignalStandard {
			return true
		}
	}
	return false
}

// Save writes the file's header, every data record, and the final patched
// record count to w. It returns ContiguityError if the file's fragments
// aren't contiguous but its declared type requires that, CapacityError if
// an annotation cannot fit its signal's budget, or ErrOverflow if every
// standard signal drains before its file's annotations do.
func (f *File) Save(w io.WriteSeeker, opts ...Option) error {
	cfg := newConfig(opts)

	if f.Header.FileType != FileTypeEDF && !f.hasAnnotationSignal() {
		f.Signals = append(f.Signals, newAnnotationSignal())
	}
	f.Header.SignalCount = len(f.Signals)

	if (f.Header.FileType == FileTypeEDF || f.Header.FileType == FileTypeEDFPlusC) && !f.isContiguous() {
		d := f.Header.DataRecordDuration.Seconds()
		for i := 1; i < len(f.Fragments); i++ {
			prev, next := f.Fragments[i-1], f.Fragments[i]
			gap := next.StartTime - (prev.StartTime + prev.Duration(d))
			if gap > contiguityTolerance || gap < -contiguityTolerance {
				return &ContiguityError{RecordIndex: next.StartRecord, Gap: time.Duration(gap * float64(time.Second))}
			}
		}
	}

	f.purgeTimekeepingAnnotations()
	f.resetWritePositions()

	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return err
	}

	placeholder := f.Header
	placeholder.NumDataRecords = 0
	if err := writeHeaderPrelude(w, &placeholder, cfg.altDateFormat); err != nil {
		return fmt.Errorf("edf: writing header: %w", err)
	}
	if err := writeSignalAttrs(w, f.Signals); err != nil {
		return fmt.Errorf("edf: writing signal headers: %w", err)
	}

	recordCount, err := f.writeRecords(w)
	if err != nil {
		return err
	}
	f.Header.NumDataRecords = recordCount
	f.recomputeFragmentEnds()

	if _, err := w.Seek(numDataRecordsOffset, io.SeekStart); err != nil {
		return err
	}
	if err := writeField(w, formatIntField(recordCount), widthNumRecords); err != nil {
		return err
	}

	_, err = w.Seek(0, io.SeekEnd)
	return err
}

func (f *File) hasAnnotationSignal() bool {
	for _, s := range f.Signals {
		if s.Kind() == SignalAnnotation {
			return true
		}
	}
	return false
}

func (f *File) purgeTimekeepingAnnotations() {
	for _, s := range f.Signals {
		ann, ok := s.(*AnnotationSignal)
		if !ok {
			continue
		}
		kept := ann.Annotations[:0]
		for _, a := range ann.Annotations {
			if !a.IsTimekeeping {
				kept = append(kept, a)
			}
		}
		ann.Annotations = kept
	}
}

func (f *File) resetWritePositions() {
	for _, s := range f.Signals {
		switch sig := s.(type) {
		case *StandardSignal:
			sig.writePos = 0
		case *AnnotationSignal:
			sig.writePos = 0
		}
	}
}

func (f *File) allStandardDrained() bool {
	for _, s := range f.Signals {
		if std, ok := s.(*StandardSignal); ok && std.writePos < len(std.Samples) {
			return false
		}
	}
	return true
}

func (f *File) allAnnotationsDrained() bool {
	for _, s := range f.Signals {
		if ann, ok := s.(*AnnotationSignal); ok && ann.writePos < len(ann.Annotations) {
			return false
		}
	}
	return true
}

// writeRecords drives the write-side record-writing state machine until
// every signal is drained, returning the number of records written. A file
// with nothing to write still emits one (empty, padded) record.
func (f *File) writeRecords(w io.Writer) (int, error) {
	rec := 0
	for {
		if rec > 0 {
			switch {
			case f.allStandardDrained() && f.allAnnotationsDrained():
				return rec, nil
			case f.hasStandardSignals() && f.allStandardDrained():
				return rec, ErrOverflow
			}
		}

		startTime := f.dataRecordStartTime(rec)
		firstAnnotation := true
		for _, s := range f.Signals {
			switch sig := s.(type) {
			case *StandardSignal:
				if err := writeStandardRecord(w, sig); err != nil {
					return rec, err
				}
			case *AnnotationSignal:
				if err := writeAnnotationRecord(w, sig, firstAnnotation, time.Duration(startTime*float64(time.Second))); err != nil {
					return rec, err
				}
				firstAnnotation = false
			}
		}
		rec++
	}
}

// IsCompatibleWith reports whether f and other can be appended or merged.
func (f *File) IsCompatibleWith(other *File) bool {
	return f.Header.IsCompatibleWith(&other.Header, f.Signals, other.Signals)
}

// EndTime returns the wall-clock time the recording ends: the start time
// plus the last fragment's span, or the nominal record count if no
// fragments have been recorded.
func (f *File) EndTime() time.Time {
	if len(f.Fragments) > 0 {
		last := f.Fragments[len(f.Fragments)-1]
		return f.Header.StartTime.Add(time.Duration((last.StartTime + last.Duration(f.Header.DataRecordDuration.Seconds())) * float64(time.Second)))
	}
	return f.Header.StartTime.Add(time.Duration(f.Header.NumDataRecords) * f.Header.DataRecordDuration)
}

// Append concatenates other's data records onto f: it requires compatible
// headers and other.Header.StartTime >= f.EndTime(), promotes f to EDF+D if
// a gap opens up, and merges other's annotations into f's first annotation
// signal, re-based by the time offset between the two files.
func (f *File) Append(other *File) error {
	if !f.IsCompatibleWith(other) {
		return &IncompatibleHeaderError{Reason: "signal layout or record duration mismatch"}
	}
	if other.Header.StartTime.Before(f.EndTime()) {
		return ErrAppendOutOfOrder
	}

	gap := other.Header.StartTime.Sub(f.EndTime())
	if gap > time.Duration(contiguityTolerance*float64(time.Second)) {
		f.Header.FileType = FileTypeEDFPlusD
	}

	offset := other.Header.StartTime.Sub(f.Header.StartTime)
	newFragmentIndex := f.Header.NumDataRecords
	f.markFragment(newFragmentIndex, offset.Seconds())

	var firstAnnotation *AnnotationSignal
	for i, s := range f.Signals {
		switch sig := s.(type) {
		case *StandardSignal:
			otherStd := other.Signals[i].(*StandardSignal)
			sig.Samples = append(sig.Samples, otherStd.Samples...)
		case *AnnotationSignal:
			if firstAnnotation == nil {
				firstAnnotation = sig
			}
		}
	}
	if firstAnnotation != nil {
		for _, s := range other.Signals {
			otherAnn, ok := s.(*AnnotationSignal)
			if !ok {
				continue
			}
			for _, a := range otherAnn.Annotations {
				if a.IsTimekeeping {
					continue
				}
				a.Onset += offset
				firstAnnotation.Annotations = append(firstAnnotation.Annotations, a)
			}
		}
	}

	f.Header.NumDataRecords += other.Header.NumDataRecords
	f.recomputeFragmentEnds()
	return nil
}

// Clone returns a deep copy of f.
func (f *File) Clone() *File {
	out := &File{Header: f.Header}
	out.Fragments = append([]Fragment{}, f.Fragments...)
	out.Signals = make([]Signal, len(f.Signals))
	for i, s := range f.Signals {
		switch sig := s.(type) {
		case *StandardSignal:
			clone := *sig
			clone.Samples = append([]float64{}, sig.Samples...)
			out.Signals[i] = &clone
		case *AnnotationSignal:
			clone := *sig
			clone.Annotations = append([]Annotation{}, sig.Annotations...)
			out.Signals[i] = &clone
		}
	}
	return out
}

// SignalByLabel returns the first standard signal whose label matches, or
// the first annotation signal if label is "EDF Annotations". It returns
// nil if nothing matches.
func (f *File) SignalByLabel(label string, ignoreCase bool) Signal {
	match := func(a, b string) bool {
		if ignoreCase {
			return strings.EqualFold(a, b)
		}
		return a == b
	}
	for _, s := range f.Signals {
		if std, ok := s.(*StandardSignal); ok && match(std.Label, label) {
			return s
		}
	}
	if match(label, AnnotationSignalLabel) {
		for _, s := range f.Signals {
			if s.Kind() == SignalAnnotation {
				return s
			}
		}
	}
	return nil
}

// StandardSignals returns every standard signal, in declared order.
func (f *File) StandardSignals() []*StandardSignal {
	var out []*StandardSignal
	for _, s := range f.Signals {
		if std, ok := s.(*StandardSignal); ok {
			out = append(out, std)
		}
	}
	return out
}

// AnnotationSignals returns every annotation signal, in declared order.
func (f *File) AnnotationSignals() []*AnnotationSignal {
	var out []*AnnotationSignal
	for _, s := range f.Signals {
		if ann, ok := s.(*AnnotationSignal); ok {
			out = append(out, ann)
		}
	}
	return out
}
