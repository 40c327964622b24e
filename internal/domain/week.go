package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	WeekIDLayout = "2006-01-02"
	weekLength   = 7 * 24 * time.Hour
)

// WeekCalendar places instants into evaluation weeks. A week starts at
// StartWeekday StartHour:00 in Location.
type WeekCalendar struct {
	Location     *time.Location
	StartWeekday time.Weekday
	StartHour    int
}

func DefaultWeekCalendar(loc *time.Location) WeekCalendar {
	if loc == nil {
		loc = time.UTC
	}
	return WeekCalendar{Location: loc, StartWeekday: time.Wednesday}
}

type Week struct {
	ID    string    `json:"week_id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (c WeekCalendar) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// WeekOf returns the week containing at.
func (c WeekCalendar) WeekOf(at time.Time) Week {
	loc := c.location()
	local := at.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), c.StartHour, 0, 0, 0, loc)
	offset := (int(local.Weekday()) - int(c.StartWeekday) + 7) % 7
	start = start.AddDate(0, 0, -offset)
	if start.After(local) {
		start = start.AddDate(0, 0, -7)
	}
	return c.week(start)
}

// ParseWeekID accepts the id of a week start date, e.g. "2026-10-14".
func (c WeekCalendar) ParseWeekID(id string) (Week, error) {
	day, err := time.ParseInLocation(WeekIDLayout, id, c.location())
	if err != nil {
		return Week{}, fmt.Errorf("%w: invalid week_id %q", ErrValidation, id)
	}
	if day.Weekday() != c.StartWeekday {
		return Week{}, fmt.Errorf("%w: week_id %q is not a %s", ErrValidation, id, c.StartWeekday)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), c.StartHour, 0, 0, 0, c.location())
	return c.week(start), nil
}

func (c WeekCalendar) Next(w Week) Week {
	local := w.Start.In(c.location())
	return c.week(local.AddDate(0, 0, 7))
}

func (c WeekCalendar) Previous(w Week) Week {
	local := w.Start.In(c.location())
	return c.week(local.AddDate(0, 0, -7))
}

func (c WeekCalendar) week(localStart time.Time) Week {
	end := localStart.AddDate(0, 0, 7)
	return Week{
		ID:    localStart.Format(WeekIDLayout),
		Start: localStart.UTC(),
		End:   end.UTC(),
	}
}

// WeekIndex counts whole weeks from a campaign's creation week to weekStart.
// It is negative when the campaign did not exist yet. The half-day tolerance
// absorbs daylight-saving shifts between week boundaries.
func WeekIndex(createdAt, weekStart time.Time) int {
	diff := weekStart.Sub(createdAt) + 12*time.Hour
	return int(math.Floor(float64(diff) / float64(weekLength)))
}
