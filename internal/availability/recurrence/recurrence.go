package recurrence

import (
	"fmt"
	"time"

	"healthfirst/pkg/model"
)

// MaxOccurrences caps the number of slots a single recurring definition can
// expand into. A daily series spanning one year stays well under this.
const MaxOccurrences = 1000

// NextDate returns the date one pattern step after the given date. Monthly
// steps follow calendar normalization, so stepping from a day that does not
// exist in the next month rolls forward into the month after.
func NextDate(date string, pattern model.RecurrencePattern) (string, error) {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}

	switch pattern {
	case model.PatternDaily:
		t = t.AddDate(0, 0, 1)
	case model.PatternWeekly:
		t = t.AddDate(0, 0, 7)
	case model.PatternMonthly:
		t = t.AddDate(0, 1, 0)
	default:
		return "", fmt.Errorf("unsupported recurrence pattern %q", pattern)
	}

	return t.Format(model.DateLayout), nil
}

// ExpandDates lists every occurrence date from start through end inclusive,
// stepping by the pattern. The start date is always the first occurrence.
func ExpandDates(start, end string, pattern model.RecurrencePattern) ([]string, error) {
	if _, err := time.Parse(model.DateLayout, start); err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	if _, err := time.Parse(model.DateLayout, end); err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if end < start {
		return nil, fmt.Errorf("recurrence end date %s is before start date %s", end, start)
	}

	var dates []string
	current := start
	for current <= end {
		dates = append(dates, current)
		if len(dates) > MaxOccurrences {
			return nil, fmt.Errorf("recurrence expansion exceeds %d occurrences", MaxOccurrences)
		}

		next, err := NextDate(current, pattern)
		if err != nil {
			return nil, err
		}
		current = next
	}

	return dates, nil
}

// Expand materializes one slot per occurrence date of a recurring
// definition. Every clone carries the full recurrence metadata of the
// definition; only the date differs. IDs are left empty for the store to
// assign, and every occurrence starts open with zero appointments no matter
// what the definition carried.
func Expand(def *model.Availability) ([]*model.Availability, error) {
	dates, err := ExpandDates(def.Date, def.RecurrenceEndDate, def.RecurrencePattern)
	if err != nil {
		return nil, err
	}

	slots := make([]*model.Availability, 0, len(dates))
	for _, date := range dates {
		slot := *def
		slot.ID = ""
		slot.Date = date
		slot.Status = model.StatusAvailable
		slot.CurrentAppointments = 0
		slots = append(slots, &slot)
	}

	return slots, nil
}
