// Package lifecycle implements the draft/published state machine for
// calendar weeks.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"shiftdesk/internal/api"
	"shiftdesk/internal/models"

	"github.com/rs/zerolog"
)

// transitions lists the allowed status changes. Published is terminal:
// reverting to draft is not exposed here.
var transitions = map[models.WeekStatus][]models.WeekStatus{
	models.WeekDraft:     {models.WeekPublished},
	models.WeekPublished: {},
}

// CanTransition checks if a status change is allowed.
func CanTransition(from, to models.WeekStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// WeekStore provides week-record operations on the remote store.
type WeekStore interface {
	GetWeek(ctx context.Context, weekStart string) (*models.ShiftWeek, error)
	PublishWeek(ctx context.Context, weekStart string) (*models.ShiftWeek, error)
}

// Lifecycle drives week status transitions against the remote store.
type Lifecycle struct {
	weeks  WeekStore
	logger *zerolog.Logger
}

// New creates a lifecycle over the given store.
func New(weeks WeekStore, logger *zerolog.Logger) *Lifecycle {
	return &Lifecycle{weeks: weeks, logger: logger}
}

// Status returns the current week record. A missing record is returned
// as a draft-status record rather than an error.
func (l *Lifecycle) Status(ctx context.Context, weekStart string) (*models.ShiftWeek, error) {
	week, err := l.weeks.GetWeek(ctx, weekStart)
	if errors.Is(err, api.ErrNotFound) {
		return &models.ShiftWeek{WeekStart: weekStart, Status: models.WeekDraft}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get week %s: %w", weekStart, err)
	}
	return week, nil
}

// Publish transitions a week to published. Publishing an already
// published week is idempotent: the existing record is returned
// unchanged.
func (l *Lifecycle) Publish(ctx context.Context, weekStart string) (*models.ShiftWeek, error) {
	current, err := l.Status(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	if !current.IsDraft() {
		if l.logger != nil {
			l.logger.Info().Str("week_start", weekStart).Msg("week already published")
		}
		return current, nil
	}

	week, err := l.weeks.PublishWeek(ctx, weekStart)
	if err != nil {
		return nil, fmt.Errorf("publish week %s: %w", weekStart, err)
	}
	return week, nil
}
