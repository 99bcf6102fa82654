package edf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAnnotationTAL(t *testing.T) {
	dur := 500 * time.Millisecond
	a := Annotation{
		Onset:        time.Second,
		Duration:     &dur,
		Descriptions: []string{"Arousal"},
	}

	var buf bytes.Buffer
	encodeAnnotationTAL(&buf, a)

	want := []byte{
		0x2B, 0x31, 0x2E, 0x30, 0x15, 0x30, 0x2E, 0x35,
		0x14, 0x41, 0x72, 0x6F, 0x75, 0x73, 0x61, 0x6C,
		0x14, 0x00,
	}
	assert.Equal(t, want, buf.Bytes())
	assert.Equal(t, len(want), annotationByteSize(a))
}

func TestEncodeTimekeepingTAL(t *testing.T) {
	got := encodeTimekeepingTAL(90 * time.Second)
	want := []byte{'+', '9', '0', '.', '0', 0x14, 0x14, 0x00}
	assert.Equal(t, want, got)
}

func TestTALBlockDecoderRoundTrip(t *testing.T) {
	data := make([]byte, 16)
	copy(data, []byte{
		0x2B, 0x31, 0x2E, 0x30, 0x15, 0x30, 0x2E, 0x35,
		0x14, 0x41, 0x72, 0x6F, 0x75, 0x73, 0x61, 0x6C,
	})
	// close the description with its delimiter and the TAL terminator.
	full := append(data, 0x14, 0x00)

	dec := newTALBlockDecoder(full, "EDF Annotations", 0)
	require.False(t, dec.atEnd())

	tal, err := dec.next()
	require.NoError(t, err)
	assert.Equal(t, time.Second, tal.onset)
	require.True(t, tal.hasDuration)
	assert.Equal(t, 500*time.Millisecond, tal.duration)
	assert.Equal(t, []string{"Arousal"}, tal.descriptions)
	assert.True(t, dec.atEnd())
}

func TestSplitLinkedChannel(t *testing.T) {
	descs, channel := splitLinkedChannel([]string{"K-complex", "EEG C3@@EEG C3-A2"})
	assert.Equal(t, []string{"K-complex", "EEG C3"}, descs)
	assert.Equal(t, "EEG C3-A2", channel)
}
