package domain

import (
	"fmt"
	"time"
)

// DateLayout is the storage format for due dates (date only, no time component).
const DateLayout = "2006-01-02"

// DateOnly truncates t to its calendar date, normalized to UTC midnight.
// Normalizing to UTC keeps dates parsed from storage comparable with dates
// derived from local clock readings.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a date in DateLayout
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q: expected %s", ErrValidation, s, DateLayout)
	}
	return t, nil
}

// DueWithin reports whether the task's due date falls in [today, today+days],
// inclusive on both ends, where today is the calendar date of now.
// Tasks without a due date are never due within any window.
func (t *Task) DueWithin(now time.Time, days int) bool {
	if t.DueDate == nil || days < 0 {
		return false
	}
	today := DateOnly(now)
	end := today.AddDate(0, 0, days)
	due := DateOnly(*t.DueDate)
	return !due.Before(today) && !due.After(end)
}

// IsOverdue reports whether the task has a due date strictly before today
// and has not been completed.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return DateOnly(*t.DueDate).Before(DateOnly(now))
}

// DaysUntilDue returns the number of calendar days from now until the due
// date (negative when overdue). The second return is false when the task has
// no due date.
func (t *Task) DaysUntilDue(now time.Time) (int, bool) {
	if t.DueDate == nil {
		return 0, false
	}
	diff := DateOnly(*t.DueDate).Sub(DateOnly(now))
	return int(diff.Hours() / 24), true
}
