package services

import "time"

// DayLayout is the wire format of calendar days and week labels.
const DayLayout = "2006-01-02"

// DayOf returns the calendar day containing t as observed in loc, represented
// as midnight UTC. Every date the engine compares goes through DayOf (or
// civil) so that two entries logged on the same day compare equal.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// civil drops the time of day using t's own location fields.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the ISO week containing day.
func WeekStart(day time.Time) time.Time {
	d := civil(day)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekEnd returns the Sunday of the ISO week containing day.
func WeekEnd(day time.Time) time.Time {
	return WeekStart(day).AddDate(0, 0, 6)
}

// WeeksCovering lists the Monday of every week intersecting [start, end],
// oldest first. It returns nil when end precedes start.
func WeeksCovering(start, end time.Time) []time.Time {
	first := WeekStart(start)
	last := WeekStart(end)
	if last.Before(first) {
		return nil
	}
	var weeks []time.Time
	for w := first; !w.After(last); w = w.AddDate(0, 0, 7) {
		weeks = append(weeks, w)
	}
	return weeks
}

// MonthBounds returns the first and last day of the month containing day.
func MonthBounds(day time.Time) (time.Time, time.Time) {
	d := civil(day)
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// withinDays reports whether day lies in [from, to], both inclusive.
func withinDays(day, from, to time.Time) bool {
	d := civil(day)
	return !d.Before(civil(from)) && !d.After(civil(to))
}

func dayKey(t time.Time) string {
	return civil(t).Format(DayLayout)
}

// ParseDay accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DayLayout, s, loc); err == nil {
		return DayOf(t, loc), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, NewInvalidError("invalid date")
	}
	return DayOf(t, loc), nil
}
