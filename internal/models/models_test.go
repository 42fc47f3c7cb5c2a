package models

import (
	"testing"
	"time"
)

func TestMondayOf(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"monday stays", "2024-06-03", "2024-06-03"},
		{"tuesday", "2024-06-04", "2024-06-03"},
		{"saturday", "2024-06-08", "2024-06-03"},
		{"sunday belongs to preceding monday", "2024-06-09", "2024-06-03"},
		{"next monday", "2024-06-10", "2024-06-10"},
		{"year boundary", "2025-01-01", "2024-12-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseISODate(tt.in)
			if err != nil {
				t.Fatalf("parse %s: %v", tt.in, err)
			}
			got := MondayOf(d).Format(ISODate)
			if got != tt.want {
				t.Errorf("MondayOf(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeWeekStart(t *testing.T) {
	got, err := NormalizeWeekStart("2024-06-05")
	if err != nil {
		t.Fatal(err)
	}
	if got != "2024-06-03" {
		t.Errorf("got %s, want 2024-06-03", got)
	}

	if _, err := NormalizeWeekStart("garbage"); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestWeekDates(t *testing.T) {
	days, err := WeekDates("2024-06-03")
	if err != nil {
		t.Fatal(err)
	}
	if days[0] != "2024-06-03" || days[6] != "2024-06-09" {
		t.Errorf("unexpected week bounds: %v", days)
	}
	for i := 1; i < 7; i++ {
		prev, _ := ParseISODate(days[i-1])
		cur, _ := ParseISODate(days[i])
		if !cur.Equal(prev.AddDate(0, 0, 1)) {
			t.Errorf("days not consecutive at %d: %v", i, days)
		}
	}

	if _, err := WeekDates("2024-06-04"); err == nil {
		t.Error("expected error for non-Monday week start")
	}
}

func TestInWeek(t *testing.T) {
	if !InWeek("2024-06-03", "2024-06-03") {
		t.Error("monday should be in its own week")
	}
	if !InWeek("2024-06-09", "2024-06-03") {
		t.Error("sunday should be in week")
	}
	if InWeek("2024-06-10", "2024-06-03") {
		t.Error("next monday should not be in week")
	}
	if InWeek("2024-06-02", "2024-06-03") {
		t.Error("preceding sunday should not be in week")
	}
}

func TestAssignmentValidate(t *testing.T) {
	id := int64(5)

	valid := Assignment{EmployeeID: "E1", Date: "2024-06-04", WeekStart: "2024-06-03", ShiftDefID: &id, Status: StatusOn}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid ON assignment rejected: %v", err)
	}

	off := Assignment{EmployeeID: "E1", Date: "2024-06-04", WeekStart: "2024-06-03", Status: StatusOff}
	if err := off.Validate(); err != nil {
		t.Errorf("valid OFF assignment rejected: %v", err)
	}

	onWithoutSlot := Assignment{EmployeeID: "E1", Date: "2024-06-04", WeekStart: "2024-06-03", Status: StatusOn}
	if err := onWithoutSlot.Validate(); err == nil {
		t.Error("ON without slot id should be invalid")
	}

	offWithSlot := Assignment{EmployeeID: "E1", Date: "2024-06-04", WeekStart: "2024-06-03", ShiftDefID: &id, Status: StatusOff}
	if err := offWithSlot.Validate(); err == nil {
		t.Error("OFF with slot id should be invalid")
	}

	outside := Assignment{EmployeeID: "E1", Date: "2024-06-12", WeekStart: "2024-06-03", Status: StatusOff}
	if err := outside.Validate(); err == nil {
		t.Error("date outside week should be invalid")
	}
}

func TestWeekIsDraft(t *testing.T) {
	var nilWeek *ShiftWeek
	if !nilWeek.IsDraft() {
		t.Error("missing week record should count as draft")
	}

	draft := &ShiftWeek{WeekStart: "2024-06-03", Status: WeekDraft}
	if !draft.IsDraft() {
		t.Error("draft week should be draft")
	}

	now := time.Now()
	published := &ShiftWeek{WeekStart: "2024-06-03", Status: WeekPublished, PublishedAt: &now}
	if published.IsDraft() {
		t.Error("published week should not be draft")
	}
}
