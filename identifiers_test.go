package edf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePatientIDStructured(t *testing.T) {
	raw := "MCH0234567 F 02-MAY-1951 Haagse_Harry"
	p := parsePatientID(raw)

	assert.True(t, p.Matched)
	assert.Equal(t, "MCH0234567", p.Code)
	assert.Equal(t, "F", p.Sex)
	assert.Equal(t, "Haagse Harry", p.Name)
	assert.Equal(t, time.Date(1951, time.May, 2, 0, 0, 0, 0, time.UTC), p.Birthdate)
	assert.Equal(t, raw, p.String())
}

func TestParsePatientIDUnmatchedFallsBackToRaw(t *testing.T) {
	raw := "not a structured patient field"
	p := parsePatientID(raw)
	assert.False(t, p.Matched)
	assert.Equal(t, raw, p.String())
}

func TestParseRecordingIDStructured(t *testing.T) {
	raw := "Startdate 02-MAY-1951 PSG-1234 Technician_A EquipmentX"
	r := parseRecordingID(raw)

	assert.True(t, r.Matched)
	assert.Equal(t, "PSG-1234", r.Code)
	assert.Equal(t, "Technician A", r.Technician)
	assert.Equal(t, "EquipmentX", r.Equipment)
	assert.Equal(t, raw, r.String())
}
