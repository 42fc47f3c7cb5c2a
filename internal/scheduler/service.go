// Package scheduler orchestrates weekly shift planning: loading the
// week session, editing the grid, bulk saves, and publishing.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shiftdesk/internal/audit"
	"shiftdesk/internal/catalog"
	"shiftdesk/internal/grid"
	"shiftdesk/internal/metrics"
	"shiftdesk/internal/models"

	"github.com/rs/zerolog"
)

// ErrWeekPublished is returned for any mutation of a published week.
var ErrWeekPublished = errors.New("published week is immutable")

// EmployeeDirectory lists employees; owned by the directory service.
type EmployeeDirectory interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
}

// AssignmentStore provides assignment persistence on the remote store.
type AssignmentStore interface {
	ListAssignments(ctx context.Context, weekStart string) ([]models.Assignment, error)
	BulkUpsertAssignments(ctx context.Context, assignments []models.Assignment) ([]models.Assignment, error)
}

// WeekLifecycle drives week status reads and transitions.
type WeekLifecycle interface {
	Status(ctx context.Context, weekStart string) (*models.ShiftWeek, error)
	Publish(ctx context.Context, weekStart string) (*models.ShiftWeek, error)
}

// CatalogReconciler reconciles the slot catalog against the remote store.
type CatalogReconciler interface {
	Reconcile(ctx context.Context) (*catalog.Catalog, []catalog.FailedSlot, error)
}

// AuditRecorder records scheduling actions; optional.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Event) error
}

// PublishNotifier announces published weeks; optional.
type PublishNotifier interface {
	WeekPublished(ctx context.Context, week *models.ShiftWeek, employees int) error
}

// WeekSession is the explicit, caller-owned state of one loaded week:
// week identity, grid, status record, and the catalog snapshot used to
// build it. Callers navigating between weeks simply discard sessions
// whose week no longer matches the one on display.
type WeekSession struct {
	WeekStart   string
	Days        [7]string
	Employees   []models.Employee
	Grid        *grid.Grid
	Week        *models.ShiftWeek
	Catalog     *catalog.Catalog
	FailedSlots []catalog.FailedSlot
	LoadedAt    time.Time
}

// IsDraft reports whether the session's week is editable.
func (s *WeekSession) IsDraft() bool {
	return s.Week.IsDraft()
}

// Service composes the directory, catalog, lifecycle and assignment
// store into the scheduling operations the admin UI calls.
type Service struct {
	directory   EmployeeDirectory
	assignments AssignmentStore
	lifecycle   WeekLifecycle
	reconciler  CatalogReconciler
	recorder    AuditRecorder
	notifier    PublishNotifier
	actor       string
	logger      *zerolog.Logger
}

// NewService creates the scheduling service. Recorder and notifier may
// be nil.
func NewService(
	directory EmployeeDirectory,
	assignments AssignmentStore,
	lifecycle WeekLifecycle,
	reconciler CatalogReconciler,
	actor string,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		directory:   directory,
		assignments: assignments,
		lifecycle:   lifecycle,
		reconciler:  reconciler,
		actor:       actor,
		logger:      logger,
	}
}

// SetAuditRecorder wires an optional audit trail.
func (s *Service) SetAuditRecorder(r AuditRecorder) { s.recorder = r }

// SetPublishNotifier wires an optional publish announcement channel.
func (s *Service) SetPublishNotifier(n PublishNotifier) { s.notifier = n }

// LoadWeek builds a complete session for the week containing date. The
// four remote reads run concurrently. A missing week record defaults to
// draft; catalog reconciliation failures degrade the affected cells to
// OFF instead of failing the load.
func (s *Service) LoadWeek(ctx context.Context, date string) (*WeekSession, error) {
	weekStart, err := models.NormalizeWeekStart(date)
	if err != nil {
		return nil, fmt.Errorf("load week: %w", err)
	}

	var (
		wg          sync.WaitGroup
		employees   []models.Employee
		week        *models.ShiftWeek
		assignments []models.Assignment
		cat         *catalog.Catalog
		failed      []catalog.FailedSlot

		empErr, weekErr, assignErr, catErr error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		employees, empErr = s.directory.ListEmployees(ctx)
	}()
	go func() {
		defer wg.Done()
		week, weekErr = s.lifecycle.Status(ctx, weekStart)
	}()
	go func() {
		defer wg.Done()
		assignments, assignErr = s.assignments.ListAssignments(ctx, weekStart)
	}()
	go func() {
		defer wg.Done()
		cat, failed, catErr = s.reconciler.Reconcile(ctx)
	}()
	wg.Wait()

	if empErr != nil {
		metrics.IncWeekLoaded("error")
		return nil, fmt.Errorf("load week %s: list employees: %w", weekStart, empErr)
	}
	if assignErr != nil {
		metrics.IncWeekLoaded("error")
		return nil, fmt.Errorf("load week %s: list assignments: %w", weekStart, assignErr)
	}
	if weekErr != nil {
		metrics.IncWeekLoaded("error")
		return nil, fmt.Errorf("load week %s: %w", weekStart, weekErr)
	}
	if catErr != nil {
		// The grid still renders; unresolved slots fall back to OFF.
		if s.logger != nil {
			s.logger.Error().Err(catErr).Str("week_start", weekStart).Msg("catalog reconcile failed, rendering without slot keys")
		}
		cat = &catalog.Catalog{IDByKey: map[string]int64{}, KeyByID: map[int64]string{}}
	}

	g, err := grid.Build(employees, assignments, weekStart, cat.KeyByID)
	if err != nil {
		metrics.IncWeekLoaded("error")
		return nil, fmt.Errorf("load week %s: %w", weekStart, err)
	}

	days, err := models.WeekDates(weekStart)
	if err != nil {
		return nil, fmt.Errorf("load week %s: %w", weekStart, err)
	}

	metrics.IncWeekLoaded("ok")
	return &WeekSession{
		WeekStart:   weekStart,
		Days:        days,
		Employees:   employees,
		Grid:        g,
		Week:        week,
		Catalog:     cat,
		FailedSlots: failed,
		LoadedAt:    time.Now(),
	}, nil
}

// SetCell edits one cell of the session's grid. Published weeks are
// rejected here; the grid itself stays passive.
func (s *Service) SetCell(session *WeekSession, employeeID, date, value string) error {
	if !session.IsDraft() {
		return ErrWeekPublished
	}
	return session.Grid.SetCell(employeeID, date, value)
}

// Save persists the full week in one bulk upsert and reloads, so the
// returned session reflects server-confirmed state. On failure the
// caller's session is untouched, allowing retry without re-entry.
func (s *Service) Save(ctx context.Context, session *WeekSession) (*WeekSession, error) {
	if !session.IsDraft() {
		return nil, ErrWeekPublished
	}

	assignments := session.Grid.ToAssignments(session.Catalog.IDByKey)
	if _, err := s.assignments.BulkUpsertAssignments(ctx, assignments); err != nil {
		return nil, fmt.Errorf("save week %s: %w", session.WeekStart, err)
	}
	metrics.AddAssignmentsSaved(len(assignments))
	s.record(ctx, audit.Event{
		Actor:     s.actor,
		Action:    audit.ActionSave,
		WeekStart: session.WeekStart,
		Details:   fmt.Sprintf("%d assignments", len(assignments)),
	})
	if s.logger != nil {
		s.logger.Info().Str("week_start", session.WeekStart).Int("assignments", len(assignments)).Msg("week saved")
	}

	return s.LoadWeek(ctx, session.WeekStart)
}

// Publish locks the session's week and reloads. Re-publishing an
// already published week is idempotent.
func (s *Service) Publish(ctx context.Context, session *WeekSession) (*WeekSession, error) {
	wasDraft := session.IsDraft()

	week, err := s.lifecycle.Publish(ctx, session.WeekStart)
	if err != nil {
		return nil, fmt.Errorf("publish week %s: %w", session.WeekStart, err)
	}

	if wasDraft {
		metrics.IncWeekPublished()
		s.record(ctx, audit.Event{
			Actor:     s.actor,
			Action:    audit.ActionPublish,
			WeekStart: session.WeekStart,
		})
		if s.notifier != nil {
			if err := s.notifier.WeekPublished(ctx, week, len(session.Employees)); err != nil && s.logger != nil {
				s.logger.Error().Err(err).Str("week_start", session.WeekStart).Msg("publish notification failed")
			}
		}
		if s.logger != nil {
			s.logger.Info().Str("week_start", session.WeekStart).Msg("week published")
		}
	}

	return s.LoadWeek(ctx, session.WeekStart)
}

func (s *Service) record(ctx context.Context, e audit.Event) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, e); err != nil && s.logger != nil {
		s.logger.Error().Err(err).Str("action", e.Action).Msg("audit record failed")
	}
}
