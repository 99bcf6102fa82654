package edf

import (
	"io"
	"time"
)

// Header is the fixed 256-byte prelude of an EDF/EDF+ file. Per-signal
// attributes live on the Signal values themselves (see signal.go); File.Save
// re-synchronizes the header's per-signal arrays from them before writing.
type Header struct {
	Version            Version
	Patient            PatientID
	Recording          RecordingID
	StartTime          time.Time
	HeaderBytes        int
	FileType           FileType
	NumDataRecords     int // -1 while streaming, patched once known
	DataRecordDuration time.Duration
	SignalCount        int
}

// readHeaderPrelude reads the fixed 256-byte prelude.
func readHeaderPrelude(r io.Reader, altDate bool) (*Header, error) {
	h := &Header{}
	var offset int64

	readStr := func(field string, width int) (string, error) {
		s, err := readField(r, width)
		offset += int64(width)
		if err != nil {
			return "", err
		}
		_ = field
		return s, nil
	}

	versionStr, err := readStr("version", widthVersion)
	if err != nil {
		return nil, err
	}
	h.Version = Version(versionStr)

	patientStr, err := readStr("patient-id", widthPatientID)
	if err != nil {
		return nil, err
	}
	h.Patient = parsePatientID(patientStr)

	recordingStr, err := readStr("recording-id", widthRecordingID)
	if err != nil {
		return nil, err
	}
	h.Recording = parseRecordingID(recordingStr)

	dateStr, err := readStr("startdate", widthStartDate)
	if err != nil {
		return nil, err
	}
	timeStr, err := readStr("starttime", widthStartTime)
	if err != nil {
		return nil, err
	}
	h.StartTime, err = parseStartDateTime(dateStr, timeStr, altDate, offset-int64(widthStartDate+widthStartTime))
	if err != nil {
		return nil, err
	}

	headerBytesStr, err := readStr("header-bytes", widthHeaderSize)
	if err != nil {
		return nil, err
	}
	h.HeaderBytes, err = parseIntField(headerBytesStr, "header-bytes", offset-int64(widthHeaderSize))
	if err != nil {
		return nil, err
	}

	reservedStr, err := readStr("reserved", widthReserved)
	if err != nil {
		return nil, err
	}
	h.FileType = FileType(reservedStr)

	numRecordsStr, err := readStr("n-data-records", widthNumRecords)
	if err != nil {
		return nil, err
	}
	h.NumDataRecords, err = parseIntField(numRecordsStr, "n-data-records", offset-int64(widthNumRecords))
	if err != nil {
		return nil, err
	}

	durationStr, err := readStr("duration-data-record", widthDuration)
	if err != nil {
		return nil, err
	}
	durationSec, err := parseFloatField(durationStr, "duration-data-record", offset-int64(widthDuration))
	if err != nil {
		return nil, err
	}
	h.DataRecordDuration = time.Duration(durationSec * float64(time.Second))

	numSignalsStr, err := readStr("n-signals", widthNumSignals)
	if err != nil {
		return nil, err
	}
	h.SignalCount, err = parseIntField(numSignalsStr, "n-signals", offset-int64(widthNumSignals))
	if err != nil {
		return nil, err
	}

	return h, nil
}

// writeHeaderPrelude writes the fixed 256-byte prelude, recomputing
// HeaderBytes from SignalCount.
func writeHeaderPrelude(w io.Writer, h *Header, altDate bool) error {
	h.HeaderBytes = preludeSize + h.SignalCount*signalHeaderBlockWidth

	dateStr, timeStr := formatStartDateTime(h.StartTime, altDate)

	fields := []struct {
		s     string
		width int
	}{
		{string(h.Version), widthVersion},
		{h.Patient.String(), widthPatientID},
		{h.Recording.String(), widthRecordingID},
		{dateStr, widthStartDate},
		{timeStr, widthStartTime},
		{formatIntField(h.HeaderBytes), widthHeaderSize},
		{string(h.FileType), widthReserved},
		{formatIntField(h.NumDataRecords), widthNumRecords},
		{formatFloatField(h.DataRecordDuration.Seconds(), widthDuration), widthDuration},
		{formatIntField(h.SignalCount), widthNumSignals},
	}

	for _, f := range fields {
		if err := writeField(w, f.s, f.width); err != nil {
			return err
		}
	}
	return nil
}

// readSignalAttrs reads the ten per-signal arrays for n signals.
func readSignalAttrs(r io.Reader, n int, base int64) ([]SignalAttrs, error) {
	attrs := make([]SignalAttrs, n)
	offset := base

	readColumn := func(field string, width int, assign func(i int, s string) error) error {
		for i := 0; i < n; i++ {
			s, err := readField(r, width)
			if err != nil {
				return err
			}
			if err := assign(i, s); err != nil {
				return err
			}
			offset += int64(width)
		}
		return nil
	}

	if err := readColumn("label", widthLabel, func(i int, s string) error {
		attrs[i].Label = s
		return nil
	}); err != nil {
		return nil, err
	}
	if err := readColumn("transducer", widthTransducer, func(i int, s string) error {
		attrs[i].Transducer = s
		return nil
	}); err != nil {
		return nil, err
	}
	if err := readColumn("physical-dimension", widthPhysDim, func(i int, s string) error {
		attrs[i].PhysicalDimension = s
		return nil
	}); err != nil {
		return nil, err
	}
	if err := readColumn("physical-min", widthPhysMin, func(i int, s string) error {
		v, err := parseFloatField(s, "physical-min", offset)
		if err != nil {
			return err
		}
		attrs[i].PhysicalMin = v
		return nil
	}); err != nil {
		return nil, err
	}
	if err := readColumn("physical-max", widthPhysMax, func(i int, s string) error {
		v, err := parseFloatField(s, "physical-max", offset)
		if err != nil {
			return err
		}
		attrs[i].PhysicalMax = v
		return nil
	}); err != nil {
		return nil, err
	}
	if err := readColumn("digital-min", widthDigMin, func(i int, s string) error {
		v, err := parseIntField(s, "digital-min", offset)
		if err != nil {
			return err
		}
		attrs[i].DigitalMin = v
		return nil
	}); err != nil {
		return nil, err
	}
	if err := readColumn("digital-max", widthDigMax, func(i int, s string) error {
		v, err := parseIntField(s, "digital-max", offset)
		if err != nil {
			return err
		}
		attrs[i].DigitalMax = v
		return nil
	}); err != nil {
		return nil, err
	}
	if err := readColumn("prefiltering", widthPrefilter, func(i int, s string) error {
		attrs[i].Prefiltering = s
		return nil
	}); err != nil {
		return nil, err
	}
	if err := readColumn("samples-per-record", widthSamplesPerRecord, func(i int, s string) error {
		v, err := parseIntField(s, "samples-per-record", offset)
		if err != nil {
			return err
		}
		attrs[i].SamplesPerRecord = v
		return nil
	}); err != nil {
		return nil, err
	}
	if err := readColumn("reserved", widthSignalReserved, func(i int, s string) error {
		attrs[i].Reserved = s
		return nil
	}); err != nil {
		return nil, err
	}

	return attrs, nil
}

// writeSignalAttrs writes the ten per-signal arrays, contiguously, in
// declared signal order.
func writeSignalAttrs(w io.Writer, signals []Signal) error {
	writeColumn := func(width int, get func(a *SignalAttrs) string) error {
		for _, s := range signals {
			if err := writeField(w, get(s.Attrs()), width); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeColumn(widthLabel, func(a *SignalAttrs) string { return a.Label }); err != nil {
		return err
	}
	if err := writeColumn(widthTransducer, func(a *SignalAttrs) string { return a.Transducer }); err != nil {
		return err
	}
	if err := writeColumn(widthPhysDim, func(a *SignalAttrs) string { return a.PhysicalDimension }); err != nil {
		return err
	}
	if err := writeColumn(widthPhysMin, func(a *SignalAttrs) string { return formatFloatField(a.PhysicalMin, widthPhysMin) }); err != nil {
		return err
	}
	if err := writeColumn(widthPhysMax, func(a *SignalAttrs) string { return formatFloatField(a.PhysicalMax, widthPhysMax) }); err != nil {
		return err
	}
	if err := writeColumn(widthDigMin, func(a *SignalAttrs) string { return formatIntField(a.DigitalMin) }); err != nil {
		return err
	}
	if err := writeColumn(widthDigMax, func(a *SignalAttrs) string { return formatIntField(a.DigitalMax) }); err != nil {
		return err
	}
	if err := writeColumn(widthPrefilter, func(a *SignalAttrs) string { return a.Prefiltering }); err != nil {
		return err
	}
	if err := writeColumn(widthSamplesPerRecord, func(a *SignalAttrs) string { return formatIntField(a.SamplesPerRecord) }); err != nil {
		return err
	}
	if err := writeColumn(widthSignalReserved, func(a *SignalAttrs) string { return a.Reserved }); err != nil {
		return err
	}
	return nil
}

// allocateSignals builds the tagged Signal values for each per-signal
// attribute set, dispatching on the "EDF Annotations" label.
func allocateSignals(attrs []SignalAttrs) []Signal {
	signals := make([]Signal, len(attrs))
	for i, a := range attrs {
		if a.Label == AnnotationSignalLabel {
			signals[i] = &AnnotationSignal{SignalAttrs: a}
		} else {
			signals[i] = &StandardSignal{SignalAttrs: a}
		}
	}
	return signals
}

// signalsCompatible reports whether two signal lists agree element-wise by
// serialized text, per Header.IsCompatibleWith.
func signalsCompatible(a, b []Signal) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i].Attrs(), b[i].Attrs()
		if x.Label != y.Label ||
			x.Transducer != y.Transducer ||
			x.PhysicalDimension != y.PhysicalDimension ||
			formatFloatField(x.PhysicalMin, widthPhysMin) != formatFloatField(y.PhysicalMin, widthPhysMin) ||
			formatFloatField(x.PhysicalMax, widthPhysMax) != formatFloatField(y.PhysicalMax, widthPhysMax) ||
			x.DigitalMin != y.DigitalMin ||
			x.DigitalMax != y.DigitalMax ||
			x.Prefiltering != y.Prefiltering ||
			x.SamplesPerRecord != y.SamplesPerRecord ||
			x.Reserved != y.Reserved {
			return false
		}
	}
	return true
}

// IsCompatibleWith reports whether two headers describe the same signal
// layout closely enough to append or merge their data records: equal
// signal count, data-record duration within 1e-4s, and every per-signal
// attribute agreeing by serialized text.
func (h *Header) IsCompatibleWith(other *Header, signals, otherSignals []Signal) bool {
	if h.SignalCount != other.SignalCount {
		return false
	}
	gap := h.DataRecordDuration - other.DataRecordDuration
	if gap < 0 {
		gap = -gap
	}
	if gap > time.Duration(1e-4*float64(time.Second)) {
		return false
	}
	return signalsCompatible(signals, otherSignals)
}
