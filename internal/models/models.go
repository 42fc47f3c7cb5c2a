package models

import (
	"fmt"
	"time"
)

// ISODate is the wire format for calendar dates.
const ISODate = "2006-01-02"

// WeekStatus represents the publication state of a week.
type WeekStatus string

const (
	WeekDraft     WeekStatus = "draft"
	WeekPublished WeekStatus = "published"
)

// AssignmentStatus marks a cell as a working shift or a day off.
type AssignmentStatus string

const (
	StatusOn  AssignmentStatus = "ON"
	StatusOff AssignmentStatus = "OFF"
)

// Employee is owned by the directory service; read-only here.
type Employee struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Department string `json:"department,omitempty"`
}

// ShiftDef is a persisted shift definition. The id is assigned by the
// remote store and differs across environments; matching is done on the
// key derived from start/end times instead.
type ShiftDef struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"` // "HH:MM" or "HH:MM:SS"
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
}

// Assignment is one (employee, date) entry of a week schedule.
// ShiftDefID is nil exactly when Status is OFF.
type Assignment struct {
	ID         int64            `json:"id,omitempty"`
	EmployeeID string           `json:"employee_id"`
	Date       string           `json:"date"`
	WeekStart  string           `json:"week_start"`
	ShiftDefID *int64           `json:"shift_def_id"`
	Status     AssignmentStatus `json:"status"`
}

// Validate checks the status/slot pairing invariant and week membership.
func (a Assignment) Validate() error {
	if a.Status == StatusOn && a.ShiftDefID == nil {
		return fmt.Errorf("assignment %s/%s: status ON without shift id", a.EmployeeID, a.Date)
	}
	if a.Status == StatusOff && a.ShiftDefID != nil {
		return fmt.Errorf("assignment %s/%s: status OFF with shift id %d", a.EmployeeID, a.Date, *a.ShiftDefID)
	}
	if !InWeek(a.Date, a.WeekStart) {
		return fmt.Errorf("assignment %s/%s: date outside week %s", a.EmployeeID, a.Date, a.WeekStart)
	}
	return nil
}

// ShiftWeek is the publication record of one calendar week.
type ShiftWeek struct {
	WeekStart   string     `json:"week_start"`
	Status      WeekStatus `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	PublishedBy string     `json:"published_by,omitempty"`
}

// IsDraft reports whether the week is editable. A nil week (no record
// on the server yet) counts as draft.
func (w *ShiftWeek) IsDraft() bool {
	return w == nil || w.Status != WeekPublished
}

// MondayOf returns the Monday of the week containing d.
func MondayOf(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(time.Monday - day.Weekday())
	if day.Weekday() == time.Sunday {
		diff = -6
	}
	return day.AddDate(0, 0, diff)
}

// NormalizeWeekStart parses an ISO date and snaps it to its week's Monday.
func NormalizeWeekStart(date string) (string, error) {
	d, err := ParseISODate(date)
	if err != nil {
		return "", err
	}
	return FormatISODate(MondayOf(d)), nil
}

// WeekDates returns the 7 ISO dates of the week starting at weekStart.
func WeekDates(weekStart string) ([7]string, error) {
	var days [7]string
	start, err := ParseISODate(weekStart)
	if err != nil {
		return days, err
	}
	if start.Weekday() != time.Monday {
		return days, fmt.Errorf("week start %s is not a Monday", weekStart)
	}
	for i := 0; i < 7; i++ {
		days[i] = start.AddDate(0, 0, i).Format(ISODate)
	}
	return days, nil
}

// InWeek reports whether date falls in [weekStart, weekStart+6d].
func InWeek(date, weekStart string) bool {
	d, err := ParseISODate(date)
	if err != nil {
		return false
	}
	start, err := ParseISODate(weekStart)
	if err != nil {
		return false
	}
	return !d.Before(start) && d.Before(start.AddDate(0, 0, 7))
}

// FormatISODate renders t as YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.Format(ISODate)
}

// ParseISODate parses a YYYY-MM-DD date.
func ParseISODate(s string) (time.Time, error) {
	d, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}
