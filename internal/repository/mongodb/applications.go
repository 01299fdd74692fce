package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/legalchicks/coopnet/internal/domain/models"
)

// InsertApplication stores one membership application from the public funnel.
func (s *MongoStore) InsertApplication(ctx context.Context, app models.MembershipApplication) error {
	if _, err := s.coll(collApplications).InsertOne(ctx, app); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// ListApplications returns all applications, newest first.
func (s *MongoStore) ListApplications(ctx context.Context) ([]models.MembershipApplication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cursor, err := s.coll(collApplications).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	var apps []models.MembershipApplication
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}
	return apps, nil
}

// UpdateApplicationStatus changes the status of a single application.
func (s *MongoStore) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	res, err := s.coll(collApplications).UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkUpdateApplicationStatus applies the status to every id inside one
// transaction: either all N documents carry the new status afterwards or none
// do. An unknown id aborts the whole batch.
func (s *MongoStore) BulkUpdateApplicationStatus(ctx context.Context, ids []string, status models.ApplicationStatus) error {
	if len(ids) == 0 {
		return nil
	}

	return s.withTxn(ctx, func(sc mongo.SessionContext) error {
		for _, id := range ids {
			res, err := s.coll(collApplications).UpdateByID(sc, id, bson.M{"$set": bson.M{"status": status}})
			if err != nil {
				return fmt.Errorf("bulk update %s: %w", id, err)
			}
			if res.MatchedCount == 0 {
				return fmt.Errorf("bulk update %s: %w", id, ErrNotFound)
			}
		}
		return nil
	})
}

// CountPendingApplications counts applications still awaiting triage.
func (s *MongoStore) CountPendingApplications(ctx context.Context) (int64, error) {
	count, err := s.coll(collApplications).CountDocuments(ctx, bson.M{"status": models.StatusPending})
	if err != nil {
		return 0, fmt.Errorf("count pending applications: %w", err)
	}
	return count, nil
}
