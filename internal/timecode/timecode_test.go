package timecode

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"minutes and seconds", "2:05", 125},
		{"zero", "0:00", 0},
		{"under a minute", "0:59", 59},
		{"double digit minutes", "12:34", 754},
		{"non-numeric", "bad", 0},
		{"empty", "", 0},
		{"missing seconds", "3:", 180},
		{"missing minutes", ":45", 45},
		{"garbage seconds", "1:xx", 60},
		{"no padding on seconds", "1:5", 65},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.text); got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    string
	}{
		{"minutes and seconds", 125, "2:05"},
		{"under a minute", 59, "0:59"},
		{"zero", 0, "0:00"},
		{"exact minute", 180, "3:00"},
		{"double digit minutes", 754, "12:34"},
		{"negative clamps", -7, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.seconds); got != tt.want {
				t.Errorf("Format(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	// Valid strings survive a parse/format cycle once zero-padding is
	// normalized.
	for _, text := range []string{"0:00", "0:59", "1:30", "2:05", "12:34", "99:59"} {
		if got := Format(Parse(text)); got != text {
			t.Errorf("Format(Parse(%q)) = %q", text, got)
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"1:30", true},
		{"0:00", true},
		{"12:05", true},
		{"99:59", true},
		{"130", false},
		{"1:3", false},
		{"123:45", false},
		{"1:234", false},
		{"", false},
		{"a:bc", false},
		{"-1:30", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := IsValid(tt.text); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
