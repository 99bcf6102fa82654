package edf_test

import (
	"strings"
	"testing"
	"time"

	"github.com/openedf/edf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMinimalFile(t *testing.T, start time.Time, recordDuration time.Duration, samplesPerRecord int, records [][]float64) *edf.File {
	t.Helper()

	var samples []float64
	for _, rec := range records {
		samples = append(samples, rec...)
	}

	return &edf.File{
		Header: edf.Header{
			Version:            edf.Version0,
			StartTime:          start,
			FileType:           edf.FileTypeEDFPlusC,
			DataRecordDuration: recordDuration,
			NumDataRecords:     len(records),
		},
		Signals: []edf.Signal{
			&edf.StandardSignal{
				SignalAttrs: edf.SignalAttrs{
					Label:             "EEG Fpz-Cz",
					PhysicalDimension: "uV",
					PhysicalMin:       -500,
					PhysicalMax:       500,
					DigitalMin:        -2048,
					DigitalMax:        2047,
					SamplesPerRecord:  samplesPerRecord,
				},
				Samples: samples,
			},
		},
	}
}

func TestFileRoundTrip(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := newMinimalFile(t, start, time.Second, 4, [][]float64{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
	})

	buf := newSeekBuffer()
	require.NoError(t, f.Save(buf))

	_, err := buf.Seek(0, 0)
	require.NoError(t, err)

	got, err := edf.Open(buf)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Header.NumDataRecords)
	assert.Equal(t, start, got.Header.StartTime)
	require.Len(t, got.Signals, 2) // standard signal + synthesized annotations

	std := got.StandardSignals()[0]
	require.Len(t, std.Samples, 8)
	for i, want := range []float64{1, 2, 3, 4, 5, 6, 7, 8} {
		assert.InDelta(t, want, std.Samples[i], 0.5)
	}
}

func TestFileRoundTripPreservesAnnotations(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dur := 500 * time.Millisecond
	f := &edf.File{
		Header: edf.Header{
			Version:            edf.Version0,
			StartTime:          start,
			FileType:           edf.FileTypeEDFPlusC,
			DataRecordDuration: time.Second,
		},
		Signals: []edf.Signal{
			&edf.StandardSignal{
				SignalAttrs: edf.SignalAttrs{
					Label:             "EEG Fpz-Cz",
					PhysicalDimension: "uV",
					PhysicalMin:       -500,
					PhysicalMax:       500,
					DigitalMin:        -2048,
					DigitalMax:        2047,
					SamplesPerRecord:  2,
				},
				Samples: []float64{1, 2, 3, 4},
			},
			&edf.AnnotationSignal{
				SignalAttrs: edf.SignalAttrs{
					Label:            edf.AnnotationSignalLabel,
					PhysicalMin:      0,
					PhysicalMax:      1,
					DigitalMin:       -32768,
					DigitalMax:       32767,
					SamplesPerRecord: 30,
				},
				Annotations: []edf.Annotation{
					{Onset: time.Second, Duration: &dur, Descriptions: []string{"Arousal"}},
				},
			},
		},
	}

	buf := newSeekBuffer()
	require.NoError(t, f.Save(buf))

	_, err := buf.Seek(0, 0)
	require.NoError(t, err)

	got, err := edf.Open(buf)
	require.NoError(t, err)

	anns := got.AnnotationSignals()
	require.Len(t, anns, 1)
	require.Len(t, anns[0].Annotations, 1)

	a := anns[0].Annotations[0]
	assert.Equal(t, time.Second, a.Onset)
	require.NotNil(t, a.Duration)
	assert.Equal(t, dur, *a.Duration)
	assert.Equal(t, []string{"Arousal"}, a.Descriptions)
	assert.False(t, a.IsTimekeeping)
}

func TestFileAppendPromotesToEDFPlusD(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := newMinimalFile(t, start, time.Second, 2, [][]float64{{1, 2}})
	b := newMinimalFile(t, start.Add(10*time.Second), time.Second, 2, [][]float64{{3, 4}})

	require.NoError(t, a.Append(b))
	assert.Equal(t, edf.FileTypeEDFPlusD, a.Header.FileType)
	assert.Equal(t, 2, a.Header.NumDataRecords)

	std := a.StandardSignals()[0]
	assert.Equal(t, []float64{1, 2, 3, 4}, std.Samples)

	buf := newSeekBuffer()
	require.NoError(t, a.Save(buf))
}

func TestFileAppendOutOfOrderRejected(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := newMinimalFile(t, start, time.Second, 2, [][]float64{{1, 2}})
	b := newMinimalFile(t, start.Add(-time.Hour), time.Second, 2, [][]float64{{3, 4}})

	err := a.Append(b)
	assert.ErrorIs(t, err, edf.ErrAppendOutOfOrder)
}

func TestFileAppendIncompatibleHeaders(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := newMinimalFile(t, start, time.Second, 2, [][]float64{{1, 2}})
	b := newMinimalFile(t, start.Add(time.Second), time.Second, 4, [][]float64{{3, 4, 5, 6}})

	err := a.Append(b)
	var incompatible *edf.IncompatibleHeaderError
	assert.ErrorAs(t, err, &incompatible)
}

func TestFileSaveAnnotationOverflow(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := &edf.File{
		Header: edf.Header{
			Version:            edf.Version0,
			StartTime:          start,
			FileType:           edf.FileTypeEDFPlusC,
			DataRecordDuration: time.Second,
		},
		Signals: []edf.Signal{
			&edf.StandardSignal{
				SignalAttrs: edf.SignalAttrs{
					Label:            "EEG Fpz-Cz",
					PhysicalMin:      -500,
					PhysicalMax:      500,
					DigitalMin:       -2048,
					DigitalMax:       2047,
					SamplesPerRecord: 1,
				},
				Samples: []float64{1},
			},
			&edf.AnnotationSignal{
				SignalAttrs: edf.SignalAttrs{
					Label:            edf.AnnotationSignalLabel,
					PhysicalMin:      0,
					PhysicalMax:      1,
					DigitalMin:       -32768,
					DigitalMax:       32767,
					SamplesPerRecord: 8,
				},
				Annotations: []edf.Annotation{
					{Onset: time.Second, Descriptions: []string{"event one"}},
					{Onset: 2 * time.Second, Descriptions: []string{"event two"}},
				},
			},
		},
	}

	buf := newSeekBuffer()
	err := f.Save(buf)
	assert.ErrorIs(t, err, edf.ErrOverflow)
}

func TestFileSaveAnnotationCapacityError(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := &edf.File{
		Header: edf.Header{
			Version:            edf.Version0,
			StartTime:          start,
			FileType:           edf.FileTypeEDFPlusC,
			DataRecordDuration: time.Second,
		},
		Signals: []edf.Signal{
			&edf.AnnotationSignal{
				SignalAttrs: edf.SignalAttrs{
					Label:            edf.AnnotationSignalLabel,
					PhysicalMin:      0,
					PhysicalMax:      1,
					DigitalMin:       -32768,
					DigitalMax:       32767,
					SamplesPerRecord: 8, // 16-byte budget
				},
				Annotations: []edf.Annotation{
					{Onset: time.Second, Descriptions: []string{strings.Repeat("x", 200)}},
				},
			},
		},
	}

	buf := newSeekBuffer()
	err := f.Save(buf)
	var capErr *edf.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 16, capErr.Budget)
	assert.Greater(t, capErr.Size, capErr.Budget)
}

func TestFileSaveRejectsDiscontiguousEDFPlusC(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := newMinimalFile(t, start, time.Second, 1, [][]float64{{1}, {2}})
	f.Fragments = []edf.Fragment{
		{StartRecord: 0, EndRecord: 0, StartTime: 0},
		{StartRecord: 1, EndRecord: 1, StartTime: 1.5},
	}

	buf := newSeekBuffer()
	err := f.Save(buf)
	var contigErr *edf.ContiguityError
	require.ErrorAs(t, err, &contigErr)
	assert.Equal(t, 1, contigErr.RecordIndex)
	assert.Equal(t, 500*time.Millisecond, contigErr.Gap)
}

func TestFileClone(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := newMinimalFile(t, start, time.Second, 2, [][]float64{{1, 2}})
	clone := f.Clone()

	clone.StandardSignals()[0].Samples[0] = 99
	assert.Equal(t, float64(1), f.StandardSignals()[0].Samples[0])
	assert.Equal(t, float64(99), clone.StandardSignals()[0].Samples[0])
}

func TestSignalByLabel(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := newMinimalFile(t, start, time.Second, 2, [][]float64{{1, 2}})

	sig := f.SignalByLabel("eeg fpz-cz", true)
	require.NotNil(t, sig)
	assert.Equal(t, edf.SignalStandard, sig.Kind())

	assert.Nil(t, f.SignalByLabel("eeg fpz-cz", false))
}
