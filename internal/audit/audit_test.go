package audit

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Event{
		Actor:     "admin",
		Action:    ActionSave,
		WeekStart: "2024-06-03",
		Details:   "14 assignments",
	}))
	require.NoError(t, s.Record(ctx, Event{
		Actor:     "admin",
		Action:    ActionPublish,
		WeekStart: "2024-06-03",
	}))
	require.NoError(t, s.Record(ctx, Event{
		Actor:     "admin",
		Action:    ActionSave,
		WeekStart: "2024-06-10",
	}))

	events, err := s.ListByWeek(ctx, "2024-06-03")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionSave, events[0].Action)
	assert.Equal(t, ActionPublish, events[1].Action)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].OccurredAt.IsZero())

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteOldEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Event{
		OccurredAt: time.Now().UTC().Add(-48 * time.Hour),
		Actor:      "admin",
		Action:     ActionSave,
		WeekStart:  "2024-05-27",
	}))
	require.NoError(t, s.Record(ctx, Event{
		Actor:     "admin",
		Action:    ActionSave,
		WeekStart: "2024-06-03",
	}))

	deleted, err := s.DeleteOldEvents(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "2024-06-03", remaining[0].WeekStart)
}

func TestExport(t *testing.T) {
	events := []Event{
		{ID: "a", OccurredAt: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC), Actor: "admin", Action: ActionSave, WeekStart: "2024-06-03", Details: "14 assignments"},
		{ID: "b", OccurredAt: time.Date(2024, 6, 3, 13, 0, 0, 0, time.UTC), Actor: "admin", Action: ActionPublish, WeekStart: "2024-06-03"},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(events, &buf))
	assert.Greater(t, buf.Len(), 0)
	// xlsx files are zip archives.
	assert.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}
