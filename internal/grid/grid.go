// Package grid materializes the editable employee × date week view and
// translates between cell values and persisted assignment records.
package grid

import (
	"fmt"

	"shiftdesk/internal/models"
)

// CellOff is the value of a cell with no shift assigned.
const CellOff = "OFF"

// Grid holds one week of cells keyed by employee then date. Keying by
// employee first keeps single-cell edits O(1) without touching siblings.
type Grid struct {
	weekStart string
	days      [7]string
	employees []models.Employee
	cells     map[string]map[string]string
}

// Build creates a complete grid for the week: every (employee, date)
// pair gets exactly one cell, defaulting to OFF. Raw assignments are
// mapped through keyByID; null or unresolved slot ids stay OFF, records
// for unknown employees or out-of-week dates are ignored.
func Build(employees []models.Employee, assignments []models.Assignment, weekStart string, keyByID map[int64]string) (*Grid, error) {
	days, err := models.WeekDates(weekStart)
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}

	g := &Grid{
		weekStart: weekStart,
		days:      days,
		employees: employees,
		cells:     make(map[string]map[string]string, len(employees)),
	}
	for _, emp := range employees {
		row := make(map[string]string, 7)
		for _, d := range days {
			row[d] = CellOff
		}
		g.cells[emp.ID] = row
	}

	for _, a := range assignments {
		row, ok := g.cells[a.EmployeeID]
		if !ok {
			continue
		}
		if _, ok := row[a.Date]; !ok {
			continue
		}
		if a.Status != models.StatusOn || a.ShiftDefID == nil {
			continue
		}
		key, ok := keyByID[*a.ShiftDefID]
		if !ok {
			continue
		}
		row[a.Date] = key
	}

	return g, nil
}

// WeekStart returns the Monday of the grid's week.
func (g *Grid) WeekStart() string { return g.weekStart }

// Days returns the 7 ISO dates of the grid's week.
func (g *Grid) Days() [7]string { return g.days }

// Employees returns the grid rows in build order.
func (g *Grid) Employees() []models.Employee { return g.employees }

// Cell returns the value at (employeeID, date).
func (g *Grid) Cell(employeeID, date string) (string, bool) {
	row, ok := g.cells[employeeID]
	if !ok {
		return "", false
	}
	v, ok := row[date]
	return v, ok
}

// SetCell replaces exactly one cell. The employee must already have a
// row and the date must belong to the grid's week.
func (g *Grid) SetCell(employeeID, date, value string) error {
	row, ok := g.cells[employeeID]
	if !ok {
		return fmt.Errorf("set cell: unknown employee %s", employeeID)
	}
	if _, ok := row[date]; !ok {
		return fmt.Errorf("set cell: date %s outside week %s", date, g.weekStart)
	}
	if value == "" {
		value = CellOff
	}
	row[date] = value
	return nil
}

// ToAssignments emits one record per cell — a full-week replace, not a
// diff. OFF cells map to (nil, OFF); a slot key resolves through idByKey
// or degrades to OFF so no dangling reference is ever emitted.
func (g *Grid) ToAssignments(idByKey map[string]int64) []models.Assignment {
	out := make([]models.Assignment, 0, len(g.employees)*7)
	for _, emp := range g.employees {
		row := g.cells[emp.ID]
		for _, d := range g.days {
			a := models.Assignment{
				EmployeeID: emp.ID,
				Date:       d,
				WeekStart:  g.weekStart,
				Status:     models.StatusOff,
			}
			if v := row[d]; v != CellOff {
				if id, ok := idByKey[v]; ok {
					a.ShiftDefID = &id
					a.Status = models.StatusOn
				}
			}
			out = append(out, a)
		}
	}
	return out
}
