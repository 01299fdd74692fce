package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/legalchicks/coopnet/internal/domain/models"
)

// UpsertKPISnapshot replaces the latest KPI document for a member.
func (s *MongoStore) UpsertKPISnapshot(ctx context.Context, snap models.KPISnapshot) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll(collKPILatest).ReplaceOne(ctx, bson.M{"_id": snap.UID}, snap, opts); err != nil {
		return fmt.Errorf("upsert kpi snapshot: %w", err)
	}
	return nil
}

// GetKPISnapshot fetches the latest KPI document for a member.
func (s *MongoStore) GetKPISnapshot(ctx context.Context, uid string) (models.KPISnapshot, error) {
	var snap models.KPISnapshot
	err := s.coll(collKPILatest).FindOne(ctx, bson.M{"_id": uid}).Decode(&snap)
	if err != nil {
		return models.KPISnapshot{}, mapErr(err)
	}
	return snap, nil
}

// InsertKPIHistory appends a dated copy of a KPI snapshot. Re-running the
// rollup for the same day overwrites the day's record rather than duplicating.
func (s *MongoStore) InsertKPIHistory(ctx context.Context, rec models.KPIHistoryRecord) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll(collKPIHistory).ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts); err != nil {
		return fmt.Errorf("insert kpi history: %w", err)
	}
	return nil
}

// ListKPIHistory returns the most recent dated KPI records, newest first.
func (s *MongoStore) ListKPIHistory(ctx context.Context, uid string, limit int64) ([]models.KPIHistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := s.coll(collKPIHistory).Find(ctx, bson.M{"uid": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("list kpi history: %w", err)
	}
	var records []models.KPIHistoryRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode kpi history: %w", err)
	}
	return records, nil
}

// ListKPIOwners returns the uid of every member with a latest KPI document.
// The scheduler iterates this set for the daily rollup.
func (s *MongoStore) ListKPIOwners(ctx context.Context) ([]string, error) {
	values, err := s.coll(collKPILatest).Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list kpi owners: %w", err)
	}
	owners := make([]string, 0, len(values))
	for _, v := range values {
		if uid, ok := v.(string); ok {
			owners = append(owners, uid)
		}
	}
	return owners, nil
}

// UpsertFlock inserts or replaces a livestock flock record.
func (s *MongoStore) UpsertFlock(ctx context.Context, flock models.LivestockFlock) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll(collLivestock).ReplaceOne(ctx, bson.M{"_id": flock.ID}, flock, opts); err != nil {
		return fmt.Errorf("upsert flock: %w", err)
	}
	return nil
}

// ListFlocks returns a member's livestock flocks.
func (s *MongoStore) ListFlocks(ctx context.Context, uid string) ([]models.LivestockFlock, error) {
	cursor, err := s.coll(collLivestock).Find(ctx, bson.M{"uid": uid})
	if err != nil {
		return nil, fmt.Errorf("list flocks: %w", err)
	}
	var flocks []models.LivestockFlock
	if err := cursor.All(ctx, &flocks); err != nil {
		return nil, fmt.Errorf("decode flocks: %w", err)
	}
	return flocks, nil
}

// UpsertSupply inserts or replaces a supply record.
func (s *MongoStore) UpsertSupply(ctx context.Context, supply models.Supply) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll(collSupplies).ReplaceOne(ctx, bson.M{"_id": supply.ID}, supply, opts); err != nil {
		return fmt.Errorf("upsert supply: %w", err)
	}
	return nil
}

// ListSupplies returns a member's supply inventory.
func (s *MongoStore) ListSupplies(ctx context.Context, uid string) ([]models.Supply, error) {
	cursor, err := s.coll(collSupplies).Find(ctx, bson.M{"uid": uid})
	if err != nil {
		return nil, fmt.Errorf("list supplies: %w", err)
	}
	var supplies []models.Supply
	if err := cursor.All(ctx, &supplies); err != nil {
		return nil, fmt.Errorf("decode supplies: %w", err)
	}
	return supplies, nil
}

// UpsertEggProduction records one day of egg output, keyed by member and date.
func (s *MongoStore) UpsertEggProduction(ctx context.Context, rec models.EggProductionRecord) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll(collEggHistory).ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts); err != nil {
		return fmt.Errorf("upsert egg production: %w", err)
	}
	return nil
}

// ListEggProduction returns the most recent daily egg records, newest first.
func (s *MongoStore) ListEggProduction(ctx context.Context, uid string, limit int64) ([]models.EggProductionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := s.coll(collEggHistory).Find(ctx, bson.M{"uid": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("list egg production: %w", err)
	}
	var records []models.EggProductionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode egg production: %w", err)
	}
	return records, nil
}
