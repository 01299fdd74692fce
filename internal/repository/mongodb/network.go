package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/legalchicks/coopnet/internal/domain/models"
)

// ListAlerts returns every network-wide alert.
func (s *MongoStore) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	cursor, err := s.coll(collAlerts).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	var alerts []models.Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}
	return alerts, nil
}

// InsertAnnouncement stores one announcement.
func (s *MongoStore) InsertAnnouncement(ctx context.Context, ann models.Announcement) error {
	if _, err := s.coll(collAnnouncements).InsertOne(ctx, ann); err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	return nil
}

// ListAnnouncements returns announcements newest first.
func (s *MongoStore) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := s.coll(collAnnouncements).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	var anns []models.Announcement
	if err := cursor.All(ctx, &anns); err != nil {
		return nil, fmt.Errorf("decode announcements: %w", err)
	}
	return anns, nil
}

// DeleteAnnouncement removes an announcement permanently.
func (s *MongoStore) DeleteAnnouncement(ctx context.Context, id string) error {
	res, err := s.coll(collAnnouncements).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
