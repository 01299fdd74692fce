package farm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/realtime"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
)

// ErrInvalidInput is returned when a dashboard write fails validation.
var ErrInvalidInput = errors.New("invalid farm input")

const (
	historyWindow    = 30
	eggChartWindow   = 7
	collectionKPIs   = "kpis"
	collectionFlocks = "livestock"
	collectionSupply = "supplies"
	collectionEggs   = "eggProduction"
)

// KPIInput carries the raw measurements a member records. The headline rates
// are derived server-side so every dashboard computes them the same way.
type KPIInput struct {
	FeedKg        float64 `json:"fcr_feed_kg"`
	EggsKg        float64 `json:"fcr_eggs_kg"`
	EggsToday     int     `json:"prod_eggs_today"`
	HensTotal     int     `json:"prod_hens_total"`
	FeedCostToday float64 `json:"cost_feed_today_php"`
	Deaths7d      int     `json:"mort_deaths_7d"`
	Birds7dAgo    int     `json:"mort_birds_7d_ago"`
}

func (in KPIInput) validate() error {
	if in.FeedKg < 0 || in.EggsKg < 0 || in.EggsToday < 0 || in.HensTotal < 0 ||
		in.FeedCostToday < 0 || in.Deaths7d < 0 || in.Birds7dAgo < 0 {
		return fmt.Errorf("%w: measurements must not be negative", ErrInvalidInput)
	}
	return nil
}

// Service owns per-member dashboard data: KPI metrics, livestock, supplies and
// the daily egg production log.
type Service struct {
	store  mongodb.FarmStore
	broker *realtime.Broker
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new farm service instance.
func NewService(store mongodb.FarmStore, broker *realtime.Broker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, broker: broker, logger: logger, now: time.Now}
}

// KPIs returns the member's latest KPI snapshot. A member without data yet
// gets a zero snapshot rather than an error.
func (s *Service) KPIs(ctx context.Context, uid string) (models.KPISnapshot, error) {
	snap, err := s.store.GetKPISnapshot(ctx, uid)
	if errors.Is(err, mongodb.ErrNotFound) {
		return models.KPISnapshot{UID: uid}, nil
	}
	if err != nil {
		return models.KPISnapshot{}, fmt.Errorf("load kpis: %w", err)
	}
	return snap, nil
}

// RecordKPIs derives the headline metrics from raw measurements, computes the
// change against the previous snapshot and stores the result.
func (s *Service) RecordKPIs(ctx context.Context, uid string, in KPIInput) (models.KPISnapshot, error) {
	if err := in.validate(); err != nil {
		return models.KPISnapshot{}, err
	}

	prev, err := s.store.GetKPISnapshot(ctx, uid)
	if err != nil && !errors.Is(err, mongodb.ErrNotFound) {
		return models.KPISnapshot{}, fmt.Errorf("load previous kpis: %w", err)
	}

	snap := models.KPISnapshot{
		UID:           uid,
		FCRFeedKg:     in.FeedKg,
		FCREggsKg:     in.EggsKg,
		EggsToday:     in.EggsToday,
		HensTotal:     in.HensTotal,
		FeedCostToday: in.FeedCostToday,
		Deaths7d:      in.Deaths7d,
		Birds7dAgo:    in.Birds7dAgo,
		UpdatedAt:     s.now().UTC(),
	}
	snap.FCR = ratio(in.FeedKg, in.EggsKg)
	snap.EggProductionRate = ratio(float64(in.EggsToday), float64(in.HensTotal)) * 100
	snap.FeedCostPerEgg = ratio(in.FeedCostToday, float64(in.EggsToday))
	snap.MortalityRate = ratio(float64(in.Deaths7d), float64(in.Birds7dAgo)) * 100

	snap.FCRChange = snap.FCR - prev.FCR
	snap.EggProductionRateChange = snap.EggProductionRate - prev.EggProductionRate
	snap.FeedCostPerEggChange = snap.FeedCostPerEgg - prev.FeedCostPerEgg
	snap.MortalityRateChange = snap.MortalityRate - prev.MortalityRate

	if err := s.store.UpsertKPISnapshot(ctx, snap); err != nil {
		return models.KPISnapshot{}, fmt.Errorf("save kpis: %w", err)
	}

	s.broker.Publish(realtime.UserTopic(uid, collectionKPIs), snap)
	s.logger.Info("kpis recorded", zap.String("uid", uid), zap.Float64("fcr", snap.FCR))
	return snap, nil
}

// KPIHistory returns the member's dated KPI records, newest first.
func (s *Service) KPIHistory(ctx context.Context, uid string) ([]models.KPIHistoryRecord, error) {
	return s.store.ListKPIHistory(ctx, uid, historyWindow)
}

// RollupKPIHistory writes today's dated copy of a member's latest snapshot.
// Running it twice for the same day overwrites rather than duplicates. The
// scheduler calls this once per member every night.
func (s *Service) RollupKPIHistory(ctx context.Context, uid string, day time.Time) error {
	snap, err := s.store.GetKPISnapshot(ctx, uid)
	if errors.Is(err, mongodb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load kpis for rollup: %w", err)
	}

	date := day.Format("2006-01-02")
	rec := models.KPIHistoryRecord{
		ID:       models.DailyRecordID(uid, date),
		UID:      uid,
		Date:     date,
		Snapshot: snap,
	}
	if err := s.store.InsertKPIHistory(ctx, rec); err != nil {
		return fmt.Errorf("save kpi history: %w", err)
	}
	return nil
}

// KPIOwners lists every member with recorded KPI data.
func (s *Service) KPIOwners(ctx context.Context) ([]string, error) {
	return s.store.ListKPIOwners(ctx)
}

// Flocks returns the member's livestock flocks.
func (s *Service) Flocks(ctx context.Context, uid string) ([]models.LivestockFlock, error) {
	return s.store.ListFlocks(ctx, uid)
}

// SaveFlock creates or replaces a flock record. The record is always stamped
// with the calling member's uid regardless of what the client sent.
func (s *Service) SaveFlock(ctx context.Context, uid string, flock models.LivestockFlock) (models.LivestockFlock, error) {
	if flock.Type == "" || flock.Headcount < 0 || flock.AgeWeeks < 0 {
		return models.LivestockFlock{}, fmt.Errorf("%w: flock needs a type and non-negative counts", ErrInvalidInput)
	}
	if flock.ID == "" {
		flock.ID = uuid.NewString()
	}
	if flock.Status == "" {
		flock.Status = models.FlockNew
	}
	flock.UID = uid

	if err := s.store.UpsertFlock(ctx, flock); err != nil {
		return models.LivestockFlock{}, fmt.Errorf("save flock: %w", err)
	}

	s.publishFlocks(ctx, uid)
	return flock, nil
}

// Supplies returns the member's supply inventory.
func (s *Service) Supplies(ctx context.Context, uid string) ([]models.Supply, error) {
	return s.store.ListSupplies(ctx, uid)
}

// SaveSupply creates or replaces a supply line, stamped with the member's uid.
func (s *Service) SaveSupply(ctx context.Context, uid string, supply models.Supply) (models.Supply, error) {
	if supply.Item == "" {
		return models.Supply{}, fmt.Errorf("%w: supply needs an item name", ErrInvalidInput)
	}
	if supply.ID == "" {
		supply.ID = uuid.NewString()
	}
	supply.UID = uid

	if err := s.store.UpsertSupply(ctx, supply); err != nil {
		return models.Supply{}, fmt.Errorf("save supply: %w", err)
	}

	s.publishSupplies(ctx, uid)
	return supply, nil
}

// EggProduction returns the most recent daily egg counts, newest first.
func (s *Service) EggProduction(ctx context.Context, uid string) ([]models.EggProductionRecord, error) {
	return s.store.ListEggProduction(ctx, uid, eggChartWindow)
}

// RecordEggProduction logs one day of egg output. An empty date means today;
// recording the same day again overwrites the earlier count.
func (s *Service) RecordEggProduction(ctx context.Context, uid, date string, eggs int) (models.EggProductionRecord, error) {
	if eggs < 0 {
		return models.EggProductionRecord{}, fmt.Errorf("%w: egg count must not be negative", ErrInvalidInput)
	}
	if date == "" {
		date = s.now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return models.EggProductionRecord{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	rec := models.EggProductionRecord{
		ID:   models.DailyRecordID(uid, date),
		UID:  uid,
		Date: date,
		Eggs: eggs,
	}
	if err := s.store.UpsertEggProduction(ctx, rec); err != nil {
		return models.EggProductionRecord{}, fmt.Errorf("save egg production: %w", err)
	}

	s.publishEggProduction(ctx, uid)
	return rec, nil
}

// ratio divides and returns 0 when the denominator is 0, so a member with no
// data yet sees zeros instead of NaN.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func (s *Service) publishFlocks(ctx context.Context, uid string) {
	flocks, err := s.store.ListFlocks(ctx, uid)
	if err != nil {
		s.logger.Warn("failed refreshing flocks snapshot", zap.Error(err))
		return
	}
	s.broker.Publish(realtime.UserTopic(uid, collectionFlocks), flocks)
}

func (s *Service) publishSupplies(ctx context.Context, uid string) {
	supplies, err := s.store.ListSupplies(ctx, uid)
	if err != nil {
		s.logger.Warn("failed refreshing supplies snapshot", zap.Error(err))
		return
	}
	s.broker.Publish(realtime.UserTopic(uid, collectionSupply), supplies)
}

func (s *Service) publishEggProduction(ctx context.Context, uid string) {
	records, err := s.store.ListEggProduction(ctx, uid, eggChartWindow)
	if err != nil {
		s.logger.Warn("failed refreshing egg production snapshot", zap.Error(err))
		return
	}
	s.broker.Publish(realtime.UserTopic(uid, collectionEggs), records)
}
