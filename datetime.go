package edf

import "time"

// dateLayout and timeLayout implement the EDF start-date/start-time fields:
// dd.MM.yy and HH.mm.ss, 8 bytes each.
const (
	dateLayout    = "02.01.06"
	altDateLayout = "01.02.06" // legacy MM.dd.yy corpora, opt-in
	timeLayout    = "15.04.05"
)

// formatStartDateTime renders a start date/time as its two 8-byte fields.
// When alt is true, the date field is written as MM.dd.yy instead of the
// default dd.MM.yy, mirroring parseStartDateTime.
func formatStartDateTime(t time.Time, alt bool) (dateStr, timeStr string) {
	layout := dateLayout
	if alt {
		layout = altDateLayout
	}
	return t.Format(layout), t.Format(timeLayout)
}

// parseStartDateTime parses the date and time fields of the header prelude.
// When alt is true, the date field is parsed as MM.dd.yy instead of the
// default dd.MM.yy.
func parseStartDateTime(dateStr, timeStr string, alt bool, offset int64) (time.Time, error) {
	layout := dateLayout
	if alt {
		layout = altDateLayout
	}

	d, err := time.Parse(layout, dateStr)
	if err != nil {
		return time.Time{}, &FormatError{Field: "startdate", Offset: offset, Reason: err.Error()}
	}

	tm, err := time.Parse(timeLayout, timeStr)
	if err != nil {
		return time.Time{}, &FormatError{Field: "starttime", Offset: offset, Reason: err.Error()}
	}

	return time.Date(d.Year(), d.Month(), d.Day(), tm.Hour(), tm.Minute(), tm.Second(), 0, time.UTC), nil
}
