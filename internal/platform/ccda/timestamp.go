package ccda

import "time"

// ISOLayout is the ISO-8601 form produced for normalized timestamps. HL7
// offsets are not carried over, so the result is a naive local date-time.
const ISOLayout = "2006-01-02T15:04:05"

// hl7Layouts maps a digit count to the HL7 TS layout of that precision.
var hl7Layouts = map[int]string{
	8:  "20060102",
	10: "2006010215",
	12: "200601021504",
	14: "20060102150405",
}

// ParseHL7Timestamp converts an HL7 TS value (YYYYMMDD[HH[MM[SS]]]) to a
// time.Time. Only the first 14 characters are considered, so a fraction or
// offset after full seconds is dropped; one that starts earlier makes the
// value unreadable. The boolean is false when the value is empty or cannot be
// read as a calendar date.
func ParseHL7Timestamp(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	if len(ts) > 14 {
		ts = ts[:14]
	}

	layout, ok := hl7Layouts[len(ts)]
	if !ok || !allDigits(ts) {
		return time.Time{}, false
	}

	t, err := time.Parse(layout, ts)
	if err != nil || t.Year() < 1 {
		return time.Time{}, false
	}
	return t, true
}

// ToISO returns the ISO-8601 form of an HL7 TS value, or "" when the value
// is absent or invalid.
func ToISO(ts string) string {
	t, ok := ParseHL7Timestamp(ts)
	if !ok {
		return ""
	}
	return t.Format(ISOLayout)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
