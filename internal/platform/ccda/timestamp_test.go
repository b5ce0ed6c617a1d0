package ccda

import (
	"testing"
	"time"
)

func TestToISO(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"date only", "20210101", "2021-01-01T00:00:00"},
		{"hour precision", "2021010113", "2021-01-01T13:00:00"},
		{"minute precision", "202101011305", "2021-01-01T13:05:00"},
		{"full precision", "20210101130559", "2021-01-01T13:05:59"},
		{"fractional seconds", "20210101130559.1234", "2021-01-01T13:05:59"},
		{"offset after seconds", "20210101130559-0500", "2021-01-01T13:05:59"},
		{"offset after minutes", "202101011305+0100", ""},
		{"offset after date", "20210101-0500", ""},
		{"fraction after minutes", "202101011305.5", ""},
		{"leading space", " 20210101", ""},
		{"trailing space", "20210101 ", ""},
		{"too short", "2021", ""},
		{"seven digits", "2021010", ""},
		{"odd length", "202101011", ""},
		{"non-digit", "2021AB01", ""},
		{"invalid month", "20211301", ""},
		{"invalid day", "20210230", ""},
		{"invalid hour", "2021010125", ""},
		{"year zero", "00000101", ""},
		{"garbage", "not a date", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToISO(tt.in); got != tt.want {
				t.Errorf("ToISO(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseHL7Timestamp_Absent(t *testing.T) {
	if _, ok := ParseHL7Timestamp(""); ok {
		t.Error("expected empty timestamp to be absent")
	}
	if _, ok := ParseHL7Timestamp("20211301"); ok {
		t.Error("expected month 13 to be absent")
	}
}

func TestParseHL7Timestamp_TruncatesTo14(t *testing.T) {
	got, ok := ParseHL7Timestamp("20210101130559999999")
	if !ok {
		t.Fatal("expected over-long timestamp to parse")
	}
	want := time.Date(2021, 1, 1, 13, 5, 59, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestToISO_RoundTrip(t *testing.T) {
	inputs := []string{"20210101000000", "19991231235959", "20240229120000", "18000101010101"}
	for _, in := range inputs {
		iso := ToISO(in)
		if iso == "" {
			t.Fatalf("expected %q to normalize", in)
		}
		back, err := time.Parse(ISOLayout, iso)
		if err != nil {
			t.Fatalf("re-parse %q: %v", iso, err)
		}
		orig, _ := ParseHL7Timestamp(in)
		if !back.Equal(orig) {
			t.Errorf("round trip of %q: expected %v, got %v", in, orig, back)
		}
	}
}
