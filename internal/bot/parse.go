package bot

import (
	"strings"

	"github.com/xecut-space/xecut-bot/internal/visit"
)

const dateLen = len("2006-01-02")

// parseDayPurpose splits command arguments into a day and a free-form
// purpose. The day may be given as "завтра" or YYYY-MM-DD and defaults to
// today.
func parseDayPurpose(text string) (visit.Day, string) {
	text = strings.TrimSpace(text)

	if rest, ok := strings.CutPrefix(text, "завтра"); ok {
		return visit.Today() + 1, strings.TrimSpace(rest)
	}

	if len(text) >= dateLen {
		if day, err := visit.ParseDay(text[:dateLen]); err == nil {
			return day, strings.TrimSpace(text[dateLen:])
		}
	}

	return visit.Today(), text
}

// optional returns nil for an empty string so that an argument-less command
// leaves the stored purpose untouched.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
