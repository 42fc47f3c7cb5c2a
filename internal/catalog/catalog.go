// Package catalog keeps the fixed set of shift definitions in sync with
// the remote store and maps between slot keys and server-assigned ids.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"shiftdesk/internal/metrics"
	"shiftdesk/internal/models"

	"github.com/rs/zerolog"
)

// SlotDuration is the fixed length of every canonical slot, in hours.
const SlotDuration = 8

// SlotStore provides shift-definition operations on the remote store.
type SlotStore interface {
	ListShiftDefs(ctx context.Context) ([]models.ShiftDef, error)
	CreateShiftDef(ctx context.Context, def models.ShiftDef) (*models.ShiftDef, error)
}

// Catalog is a read-only snapshot of the reconciled slot registry.
type Catalog struct {
	IDByKey map[string]int64
	KeyByID map[int64]string
}

// FailedSlot records a desired slot that could not be created remotely.
type FailedSlot struct {
	Key string
	Err error
}

// Reconciler ensures the desired slots exist and builds the lookup maps.
type Reconciler struct {
	store  SlotStore
	logger *zerolog.Logger
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(store SlotStore, logger *zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// DesiredKeys returns the 24 canonical slot keys: one per starting hour,
// each spanning 8 hours, wrapping past midnight.
func DesiredKeys() []string {
	keys := make([]string, 0, 24)
	for h := 0; h < 24; h++ {
		keys = append(keys, fmt.Sprintf("%02d:00-%02d:00", h, (h+SlotDuration)%24))
	}
	return keys
}

// SlotKey derives the canonical "HH:MM-HH:MM" key from stored start and
// end times, discarding seconds.
func SlotKey(start, end string) string {
	return normalizeTime(start) + "-" + normalizeTime(end)
}

func normalizeTime(s string) string {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return s
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return s
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return s
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// Reconcile fetches existing definitions, creates any missing canonical
// slots, and returns the authoritative key/id maps. Individual creation
// failures are collected and counted but never abort the reconciliation;
// the error return is reserved for a failed initial fetch.
func (r *Reconciler) Reconcile(ctx context.Context) (*Catalog, []FailedSlot, error) {
	defs, err := r.store.ListShiftDefs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list shift defs: %w", err)
	}

	cat := buildCatalog(defs)

	var failed []FailedSlot
	created := 0
	for _, key := range DesiredKeys() {
		if _, ok := cat.IDByKey[key]; ok {
			continue
		}
		def, err := r.store.CreateShiftDef(ctx, desiredDef(key))
		if err != nil {
			metrics.IncSlotCreateFailure()
			if r.logger != nil {
				r.logger.Error().Err(err).Str("key", key).Msg("failed to create shift definition")
			}
			failed = append(failed, FailedSlot{Key: key, Err: err})
			continue
		}
		cat.IDByKey[key] = def.ID
		cat.KeyByID[def.ID] = key
		created++
	}

	if created > 0 {
		// Re-fetch so the maps reflect server-assigned ids; on failure
		// keep the locally recorded maps.
		defs, err = r.store.ListShiftDefs(ctx)
		if err != nil {
			if r.logger != nil {
				r.logger.Error().Err(err).Msg("refetch after slot creation failed, keeping local catalog")
			}
			return cat, failed, nil
		}
		cat = buildCatalog(defs)
	}

	return cat, failed, nil
}

func buildCatalog(defs []models.ShiftDef) *Catalog {
	cat := &Catalog{
		IDByKey: make(map[string]int64, len(defs)),
		KeyByID: make(map[int64]string, len(defs)),
	}
	for _, d := range defs {
		key := SlotKey(d.StartTime, d.EndTime)
		cat.IDByKey[key] = d.ID
		cat.KeyByID[d.ID] = key
	}
	return cat
}

func desiredDef(key string) models.ShiftDef {
	times := strings.SplitN(key, "-", 2)
	return models.ShiftDef{
		Name:      key,
		StartTime: times[0],
		EndTime:   times[1],
		IsActive:  true,
	}
}
