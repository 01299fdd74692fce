package farm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/realtime"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
)

type fakeFarmStore struct {
	snapshots map[string]models.KPISnapshot
	history   map[string]models.KPIHistoryRecord
	flocks    map[string]models.LivestockFlock
	supplies  map[string]models.Supply
	eggs      map[string]models.EggProductionRecord
}

func newFakeFarmStore() *fakeFarmStore {
	return &fakeFarmStore{
		snapshots: make(map[string]models.KPISnapshot),
		history:   make(map[string]models.KPIHistoryRecord),
		flocks:    make(map[string]models.LivestockFlock),
		supplies:  make(map[string]models.Supply),
		eggs:      make(map[string]models.EggProductionRecord),
	}
}

func (f *fakeFarmStore) UpsertKPISnapshot(_ context.Context, snap models.KPISnapshot) error {
	f.snapshots[snap.UID] = snap
	return nil
}

func (f *fakeFarmStore) GetKPISnapshot(_ context.Context, uid string) (models.KPISnapshot, error) {
	snap, ok := f.snapshots[uid]
	if !ok {
		return models.KPISnapshot{}, mongodb.ErrNotFound
	}
	return snap, nil
}

func (f *fakeFarmStore) InsertKPIHistory(_ context.Context, rec models.KPIHistoryRecord) error {
	f.history[rec.ID] = rec
	return nil
}

func (f *fakeFarmStore) ListKPIHistory(_ context.Context, uid string, _ int64) ([]models.KPIHistoryRecord, error) {
	var out []models.KPIHistoryRecord
	for _, rec := range f.history {
		if rec.UID == uid {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeFarmStore) ListKPIOwners(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(f.snapshots))
	for uid := range f.snapshots {
		out = append(out, uid)
	}
	return out, nil
}

func (f *fakeFarmStore) UpsertFlock(_ context.Context, flock models.LivestockFlock) error {
	f.flocks[flock.ID] = flock
	return nil
}

func (f *fakeFarmStore) ListFlocks(_ context.Context, uid string) ([]models.LivestockFlock, error) {
	var out []models.LivestockFlock
	for _, fl := range f.flocks {
		if fl.UID == uid {
			out = append(out, fl)
		}
	}
	return out, nil
}

func (f *fakeFarmStore) UpsertSupply(_ context.Context, supply models.Supply) error {
	f.supplies[supply.ID] = supply
	return nil
}

func (f *fakeFarmStore) ListSupplies(_ context.Context, uid string) ([]models.Supply, error) {
	var out []models.Supply
	for _, s := range f.supplies {
		if s.UID == uid {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeFarmStore) UpsertEggProduction(_ context.Context, rec models.EggProductionRecord) error {
	f.eggs[rec.ID] = rec
	return nil
}

func (f *fakeFarmStore) ListEggProduction(_ context.Context, uid string, _ int64) ([]models.EggProductionRecord, error) {
	var out []models.EggProductionRecord
	for _, rec := range f.eggs {
		if rec.UID == uid {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newTestService(store *fakeFarmStore) *Service {
	return NewService(store, realtime.NewBroker(nil), nil)
}

func TestRecordKPIsDerivesRates(t *testing.T) {
	svc := newTestService(newFakeFarmStore())

	snap, err := svc.RecordKPIs(context.Background(), "u1", KPIInput{
		FeedKg:        120,
		EggsKg:        60,
		EggsToday:     170,
		HensTotal:     200,
		FeedCostToday: 850,
		Deaths7d:      2,
		Birds7dAgo:    200,
	})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, snap.FCR, 1e-9)
	assert.InDelta(t, 85.0, snap.EggProductionRate, 1e-9)
	assert.InDelta(t, 5.0, snap.FeedCostPerEgg, 1e-9)
	assert.InDelta(t, 1.0, snap.MortalityRate, 1e-9)
	assert.False(t, snap.UpdatedAt.IsZero())
}

func TestRecordKPIsComputesDeltas(t *testing.T) {
	store := newFakeFarmStore()
	svc := newTestService(store)
	ctx := context.Background()

	first, err := svc.RecordKPIs(ctx, "u1", KPIInput{
		FeedKg: 120, EggsKg: 60, EggsToday: 160, HensTotal: 200,
		FeedCostToday: 800, Deaths7d: 2, Birds7dAgo: 200,
	})
	require.NoError(t, err)
	// With no previous snapshot every change equals the value itself.
	assert.InDelta(t, first.FCR, first.FCRChange, 1e-9)

	second, err := svc.RecordKPIs(ctx, "u1", KPIInput{
		FeedKg: 110, EggsKg: 60, EggsToday: 170, HensTotal: 200,
		FeedCostToday: 800, Deaths7d: 2, Birds7dAgo: 200,
	})
	require.NoError(t, err)
	assert.InDelta(t, second.FCR-first.FCR, second.FCRChange, 1e-9)
	assert.InDelta(t, 5.0, second.EggProductionRateChange, 1e-9)
}

func TestRecordKPIsZeroDenominators(t *testing.T) {
	svc := newTestService(newFakeFarmStore())

	// A brand new farm with no hens reports zeros, never NaN.
	snap, err := svc.RecordKPIs(context.Background(), "u1", KPIInput{})
	require.NoError(t, err)
	assert.Zero(t, snap.FCR)
	assert.Zero(t, snap.EggProductionRate)
	assert.Zero(t, snap.FeedCostPerEgg)
	assert.Zero(t, snap.MortalityRate)
}

func TestRecordKPIsRejectsNegatives(t *testing.T) {
	svc := newTestService(newFakeFarmStore())

	_, err := svc.RecordKPIs(context.Background(), "u1", KPIInput{Deaths7d: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRollupKPIHistory(t *testing.T) {
	store := newFakeFarmStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.RecordKPIs(ctx, "u1", KPIInput{FeedKg: 100, EggsKg: 50})
	require.NoError(t, err)

	day := time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RollupKPIHistory(ctx, "u1", day))

	rec, ok := store.history["u1:2026-08-31"]
	require.True(t, ok, "history keyed by member and day")
	assert.Equal(t, "2026-08-31", rec.Date)
	assert.InDelta(t, 2.0, rec.Snapshot.FCR, 1e-9)

	// Re-running the same day overwrites instead of duplicating.
	require.NoError(t, svc.RollupKPIHistory(ctx, "u1", day))
	assert.Len(t, store.history, 1)
}

func TestRollupSkipsMembersWithoutData(t *testing.T) {
	store := newFakeFarmStore()
	svc := newTestService(store)

	require.NoError(t, svc.RollupKPIHistory(context.Background(), "ghost", time.Now()))
	assert.Empty(t, store.history)
}

func TestSaveFlockStampsOwnerAndDefaults(t *testing.T) {
	store := newFakeFarmStore()
	svc := newTestService(store)

	flock, err := svc.SaveFlock(context.Background(), "u1", models.LivestockFlock{
		UID:       "someone-else", // client-sent owner is ignored
		Type:      "Rhode Island Red",
		AgeWeeks:  32,
		Headcount: 180,
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", flock.UID)
	assert.NotEmpty(t, flock.ID)
	assert.Equal(t, models.FlockNew, flock.Status)
}

func TestSaveFlockValidation(t *testing.T) {
	svc := newTestService(newFakeFarmStore())

	_, err := svc.SaveFlock(context.Background(), "u1", models.LivestockFlock{Headcount: 10})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordEggProduction(t *testing.T) {
	store := newFakeFarmStore()
	svc := newTestService(store)
	ctx := context.Background()

	rec, err := svc.RecordEggProduction(ctx, "u1", "2026-08-30", 155)
	require.NoError(t, err)
	assert.Equal(t, "u1:2026-08-30", rec.ID)

	// Same day again replaces the count.
	rec, err = svc.RecordEggProduction(ctx, "u1", "2026-08-30", 160)
	require.NoError(t, err)
	assert.Len(t, store.eggs, 1)
	assert.Equal(t, 160, store.eggs[rec.ID].Eggs)

	_, err = svc.RecordEggProduction(ctx, "u1", "31-08-2026", 10)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordEggProduction(ctx, "u1", "", -5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestKPIsForNewMemberIsZeroSnapshot(t *testing.T) {
	svc := newTestService(newFakeFarmStore())

	snap, err := svc.KPIs(context.Background(), "new-member")
	require.NoError(t, err)
	assert.Equal(t, "new-member", snap.UID)
	assert.Zero(t, snap.FCR)
}
