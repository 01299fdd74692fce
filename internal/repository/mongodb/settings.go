package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/legalchicks/coopnet/internal/domain/models"
)

// GetSettings fetches a member's settings document. A missing document yields
// empty settings, not an error.
func (s *MongoStore) GetSettings(ctx context.Context, uid string) (models.UserSettings, error) {
	var settings models.UserSettings
	err := s.coll(collSettings).FindOne(ctx, bson.M{"_id": uid}).Decode(&settings)
	if err != nil {
		if errors.Is(mapErr(err), ErrNotFound) {
			return models.UserSettings{UID: uid}, nil
		}
		return models.UserSettings{}, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// MergeSettings merges the provided fields onto the settings document,
// creating it on first write. Unset fields are left untouched.
func (s *MongoStore) MergeSettings(ctx context.Context, settings models.UserSettings) error {
	set := bson.M{}
	if settings.FarmName != "" {
		set["farm_name"] = settings.FarmName
	}
	if settings.ContactName != "" {
		set["contact_name"] = settings.ContactName
	}
	if settings.PhoneNumber != "" {
		set["phone_number"] = settings.PhoneNumber
	}
	if settings.NotifyMarket != nil {
		set["notify_market"] = *settings.NotifyMarket
	}
	if settings.NotifyNews != nil {
		set["notify_news"] = *settings.NotifyNews
	}
	if settings.NotifyPrice != nil {
		set["notify_price"] = *settings.NotifyPrice
	}
	if len(set) == 0 {
		return nil
	}

	opts := options.Update().SetUpsert(true)
	if _, err := s.coll(collSettings).UpdateByID(ctx, settings.UID, bson.M{"$set": set}, opts); err != nil {
		return fmt.Errorf("merge settings: %w", err)
	}
	return nil
}
