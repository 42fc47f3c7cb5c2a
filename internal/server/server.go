// Package server exposes the scheduling operations as a small JSON API
// for the admin dashboard.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shiftdesk/internal/audit"
	"shiftdesk/internal/models"
	"shiftdesk/internal/scheduler"

	"github.com/rs/zerolog"
)

// Scheduler is the subset of scheduling operations the facade needs.
type Scheduler interface {
	LoadWeek(ctx context.Context, date string) (*scheduler.WeekSession, error)
	SetCell(session *scheduler.WeekSession, employeeID, date, value string) error
	Save(ctx context.Context, session *scheduler.WeekSession) (*scheduler.WeekSession, error)
	Publish(ctx context.Context, session *scheduler.WeekSession) (*scheduler.WeekSession, error)
}

// AuditLog reads recorded scheduling actions for export.
type AuditLog interface {
	ListByWeek(ctx context.Context, weekStart string) ([]audit.Event, error)
	ListAll(ctx context.Context) ([]audit.Event, error)
}

// Server handles the /api/schedule endpoints. It is stateless: every
// request loads a fresh session, so there is no cross-request week state
// to invalidate.
type Server struct {
	svc      Scheduler
	auditLog AuditLog
	logger   *zerolog.Logger
}

func New(svc Scheduler, logger *zerolog.Logger) *Server {
	return &Server{svc: svc, logger: logger}
}

// SetAuditLog enables the audit export endpoint.
func (s *Server) SetAuditLog(a AuditLog) { s.auditLog = a }

// Handler returns the route mux for the facade.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/schedule", s.handleGetSchedule)
	mux.HandleFunc("/api/schedule/save", s.handleSave)
	mux.HandleFunc("/api/schedule/publish", s.handlePublish)
	mux.HandleFunc("/api/audit/export", s.handleAuditExport)
	return mux
}

type scheduleResponse struct {
	WeekStart   string                       `json:"week_start"`
	Days        [7]string                    `json:"days"`
	Status      models.WeekStatus            `json:"status"`
	PublishedAt *time.Time                   `json:"published_at,omitempty"`
	PublishedBy string                       `json:"published_by,omitempty"`
	Employees   []models.Employee            `json:"employees"`
	Cells       map[string]map[string]string `json:"cells"`
	FailedSlots []string                     `json:"failed_slots,omitempty"`
}

type saveRequest struct {
	Week  string                       `json:"week"`
	Cells map[string]map[string]string `json:"cells"`
}

type publishRequest struct {
	Week string `json:"week"`
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	week := r.URL.Query().Get("week")
	if week == "" {
		http.Error(w, "week query parameter is required", http.StatusBadRequest)
		return
	}

	session, err := s.svc.LoadWeek(r.Context(), week)
	if err != nil {
		s.writeError(w, "load week", err)
		return
	}
	s.writeSession(w, session)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Week == "" {
		http.Error(w, "week is required", http.StatusBadRequest)
		return
	}

	session, err := s.svc.LoadWeek(r.Context(), req.Week)
	if err != nil {
		s.writeError(w, "load week", err)
		return
	}
	for employeeID, row := range req.Cells {
		for date, value := range row {
			if err := s.svc.SetCell(session, employeeID, date, value); err != nil {
				s.writeError(w, "set cell", err)
				return
			}
		}
	}

	saved, err := s.svc.Save(r.Context(), session)
	if err != nil {
		s.writeError(w, "save week", err)
		return
	}
	s.writeSession(w, saved)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Week == "" {
		http.Error(w, "week is required", http.StatusBadRequest)
		return
	}

	session, err := s.svc.LoadWeek(r.Context(), req.Week)
	if err != nil {
		s.writeError(w, "load week", err)
		return
	}
	published, err := s.svc.Publish(r.Context(), session)
	if err != nil {
		s.writeError(w, "publish week", err)
		return
	}
	s.writeSession(w, published)
}

func (s *Server) handleAuditExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.auditLog == nil {
		http.Error(w, "audit trail is not enabled", http.StatusNotFound)
		return
	}

	var (
		events []audit.Event
		err    error
	)
	if week := r.URL.Query().Get("week"); week != "" {
		weekStart, nerr := models.NormalizeWeekStart(week)
		if nerr != nil {
			http.Error(w, nerr.Error(), http.StatusBadRequest)
			return
		}
		events, err = s.auditLog.ListByWeek(r.Context(), weekStart)
	} else {
		events, err = s.auditLog.ListAll(r.Context())
	}
	if err != nil {
		s.writeError(w, "list audit events", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="audit.xlsx"`)
	if err := audit.Export(events, w); err != nil && s.logger != nil {
		s.logger.Error().Err(err).Msg("write audit export")
	}
}

func (s *Server) writeSession(w http.ResponseWriter, session *scheduler.WeekSession) {
	resp := scheduleResponse{
		WeekStart: session.WeekStart,
		Days:      session.Days,
		Status:    models.WeekDraft,
		Employees: session.Employees,
		Cells:     make(map[string]map[string]string, len(session.Employees)),
	}
	if session.Week != nil {
		resp.Status = session.Week.Status
		resp.PublishedAt = session.Week.PublishedAt
		resp.PublishedBy = session.Week.PublishedBy
	}
	for _, emp := range session.Employees {
		row := make(map[string]string, 7)
		for _, d := range session.Days {
			if v, ok := session.Grid.Cell(emp.ID, d); ok {
				row[d] = v
			}
		}
		resp.Cells[emp.ID] = row
	}
	for _, f := range session.FailedSlots {
		resp.FailedSlots = append(resp.FailedSlots, f.Key)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil && s.logger != nil {
		s.logger.Error().Err(err).Msg("encode schedule response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, scheduler.ErrWeekPublished):
		status = http.StatusConflict
	case isBadInput(err):
		status = http.StatusBadRequest
	}
	if s.logger != nil {
		s.logger.Error().Err(err).Str("op", op).Int("status", status).Msg("request failed")
	}
	http.Error(w, fmt.Sprintf("%s: %v", op, err), status)
}

// isBadInput classifies client mistakes: malformed dates and grid edits
// for unknown employees or out-of-week dates.
func isBadInput(err error) bool {
	var parseErr *time.ParseError
	if errors.As(err, &parseErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unknown employee") || strings.Contains(msg, "outside week")
}
