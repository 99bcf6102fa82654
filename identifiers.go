package edf

import (
	"regexp"
	"strings"
	"time"
)

// patientIDPattern and recordingIDPattern mirror the structured subfield
// grammars from the EDF+ specification. A trimmed 80-byte field that
// doesn't match degrades to an opaque string.
var (
	patientIDPattern    = regexp.MustCompile(`^[\x21-\x7E]+\x20[\x21-\x7E]+\x20[\x21-\x7E]+\x20[\x21-\x7E]+($|\x20[\x20-\x7E]+)$`)
	recordingIDPattern  = regexp.MustCompile(`^Startdate \d{2}-[A-Za-z0-9_]{3}-\d{4}\x20[\x21-\x7E]+\x20[\x21-\x7E]+\x20[\x21-\x7E]+($|\x20[\x20-\x7E]+)$`)
	recordingIDBirthday = "02-Jan-2006"
)

// PatientID is the structured form of the 80-byte patient-identification
// field: Code Sex Birthdate Name [extra tokens...].
type PatientID struct {
	Code      string
	Sex       string
	Birthdate time.Time // zero value means "unknown" (serializes as X)
	Name      string
	Extra     []string

	// Raw holds the original text when it didn't match the structured
	// grammar; in that case Code/Sex/Name/Extra are left unset.
	Raw     string
	Matched bool
}

func tokenOrX(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "X"
	}
	return strings.ReplaceAll(s, " ", "_")
}

// String renders the structured form, or the raw opaque text if the value
// was never successfully decomposed.
func (p PatientID) String() string {
	if !p.Matched && p.Raw != "" {
		return p.Raw
	}

	birth := "X"
	if !p.Birthdate.IsZero() {
		birth = strings.ToUpper(p.Birthdate.Format(recordingIDBirthday))
	}

	parts := []string{tokenOrX(p.Code), tokenOrX(p.Sex), birth, tokenOrX(p.Name)}
	parts = append(parts, p.Extra...)
	return strings.Join(parts, " ")
}

// parsePatientID decomposes a trimmed 80-byte patient-ID field.
func parsePatientID(raw string) PatientID {
	if raw == "" || !patientIDPattern.MatchString(raw) {
		return PatientID{Raw: raw}
	}

	fields := strings.SplitN(raw, " ", 5)
	p := PatientID{Matched: true, Raw: raw}
	p.Code = unX(fields[0])
	p.Sex = unX(fields[1])
	if fields[2] != "X" {
		if t, err := time.Parse(recordingIDBirthday, fields[2]); err == nil {
			p.Birthdate = t
		}
	}
	p.Name = unX(fields[3])
	if len(fields) == 5 {
		p.Extra = strings.Fields(fields[4])
	}
	return p
}

func unX(s string) string {
	if s == "X" {
		return ""
	}
	return strings.ReplaceAll(s, "_", " ")
}

// RecordingID is the structured form of the 80-byte recording-identification
// field: Startdate dd-MMM-yyyy Code Technician Equipment [extra tokens...].
type RecordingID struct {
	StartDate  time.Time
	Code       string
	Technician string
	Equipment  string
	Extra      []string

	Raw     string
	Matched bool
}

// String renders the structured form, or the raw opaque text if the value
// was never successfully decomposed.
func (r RecordingID) String() string {
	if !r.Matched && r.Raw != "" {
		return r.Raw
	}

	date := "X"
	if !r.StartDate.IsZero() {
		date = strings.ToUpper(r.StartDate.Format(recordingIDBirthday))
	}

	parts := []string{"Startdate", date, tokenOrX(r.Code), tokenOrX(r.Technician), tokenOrX(r.Equipment)}
	parts = append(parts, r.Extra...)
	return strings.Join(parts, " ")
}

// parseRecordingID decomposes a trimmed 80-byte recording-ID field.
func parseRecordingID(raw string) RecordingID {
	if raw == "" || !recordingIDPattern.MatchString(raw) {
		return RecordingID{Raw: raw}
	}

	fields := strings.SplitN(raw, " ", 6)
	// fields[0] == "Startdate", fields[1] == date, fields[2..4] == tokens.
	r := RecordingID{Matched: true, Raw: raw}
	if fields[1] != "X" {
		if t, err := time.Parse(recordingIDBirthday, fields[1]); err == nil {
			r.StartDate = t
		}
	}
	r.Code = unX(fields[2])
	r.Technician = unX(fields[3])
	r.Equipment = unX(fields[4])
	if len(fields) == 6 {
		r.Extra = strings.Fields(fields[5])
	}
	return r
}
