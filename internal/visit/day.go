package visit

import (
	"fmt"
	"time"
)

// Day is a calendar date counted in whole days since the Unix epoch.
// Storing dates as a signed day number keeps range queries and retention
// cutoffs as plain integer comparisons in SQL.
type Day int64

const secondsPerDay = 24 * 60 * 60

// The space considers a night owl leaving at 3am part of the previous day.
const dayRolloverHour = 5

// DayOf returns the Day containing t, in t's location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// Today returns the current Day, shifted back by the rollover hour.
func Today() Day {
	return DayOf(time.Now().Add(-dayRolloverHour * time.Hour))
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	return d.Time().Format("2006-01-02")
}

// Weekday returns the day of the week.
func (d Day) Weekday() time.Weekday {
	return d.Time().Weekday()
}
