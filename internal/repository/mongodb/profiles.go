package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/legalchicks/coopnet/internal/domain/models"
)

// CreateProfile inserts a new profile document keyed by the auth uid.
func (s *MongoStore) CreateProfile(ctx context.Context, profile models.Profile) error {
	if _, err := s.coll(collProfiles).InsertOne(ctx, profile); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetProfile fetches a profile by uid.
func (s *MongoStore) GetProfile(ctx context.Context, uid string) (models.Profile, error) {
	var profile models.Profile
	err := s.coll(collProfiles).FindOne(ctx, bson.M{"_id": uid}).Decode(&profile)
	if err != nil {
		return models.Profile{}, mapErr(err)
	}
	return profile, nil
}

// FindProfileByEmail fetches a profile by email address.
func (s *MongoStore) FindProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	var profile models.Profile
	err := s.coll(collProfiles).FindOne(ctx, bson.M{"email": email}).Decode(&profile)
	if err != nil {
		return models.Profile{}, mapErr(err)
	}
	return profile, nil
}

// ListProfiles returns every member profile.
func (s *MongoStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	cursor, err := s.coll(collProfiles).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	var profiles []models.Profile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return profiles, nil
}

// UpdateProfileRole sets the role field only; the uid itself is never touched.
func (s *MongoStore) UpdateProfileRole(ctx context.Context, uid string, role models.Role) error {
	res, err := s.coll(collProfiles).UpdateByID(ctx, uid, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MergeProfile merges the provided fields onto the profile document. The uid
// key is rejected to keep the identity immutable.
func (s *MongoStore) MergeProfile(ctx context.Context, uid string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if _, ok := fields["_id"]; ok {
		return fmt.Errorf("profile uid is immutable")
	}
	res, err := s.coll(collProfiles).UpdateByID(ctx, uid, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("merge profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountProfiles returns the total member count via a server-side aggregate.
func (s *MongoStore) CountProfiles(ctx context.Context) (int64, error) {
	count, err := s.coll(collProfiles).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}

// CreateCredential stores the password hash for a new account.
func (s *MongoStore) CreateCredential(ctx context.Context, cred models.Credential) error {
	if _, err := s.coll(collCredentials).InsertOne(ctx, cred); err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// FindCredentialByEmail fetches stored credentials for sign-in checks.
func (s *MongoStore) FindCredentialByEmail(ctx context.Context, email string) (models.Credential, error) {
	var cred models.Credential
	err := s.coll(collCredentials).FindOne(ctx, bson.M{"email": email}).Decode(&cred)
	if err != nil {
		return models.Credential{}, mapErr(err)
	}
	return cred, nil
}
