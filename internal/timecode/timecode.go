// Package timecode converts between "M:SS"/"MM:SS" start-time strings and
// integer seconds.
package timecode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Default is the start time assigned to new snippets and restored when
// invalid input is corrected.
const Default = "0:00"

var timePattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// Parse converts a "M:SS" string to seconds. The parse is lenient and never
// fails: non-numeric or missing parts count as zero. Parse("2:05") == 125,
// Parse("bad") == 0.
func Parse(text string) int {
	parts := strings.Split(text, ":")
	minutes := 0
	seconds := 0
	if len(parts) > 0 {
		if n, err := strconv.Atoi(parts[0]); err == nil {
			minutes = n
		}
	}
	if len(parts) > 1 {
		if n, err := strconv.Atoi(parts[1]); err == nil {
			seconds = n
		}
	}
	return minutes*60 + seconds
}

// Format renders seconds as "M:SS" with the seconds part zero-padded to two
// digits. Negative input clamps to zero.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// IsValid reports whether text is exactly one or two digits, a colon, and
// two digits. The empty string is not valid here; callers that allow an
// empty field handle that case themselves.
func IsValid(text string) bool {
	return timePattern.MatchString(text)
}
