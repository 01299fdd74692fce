package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/legalchicks/coopnet/internal/domain/models"
)

// ListMarketPrices returns all network reference prices.
func (s *MongoStore) ListMarketPrices(ctx context.Context) ([]models.MarketPrice, error) {
	cursor, err := s.coll(collPrices).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list market prices: %w", err)
	}
	var prices []models.MarketPrice
	if err := cursor.All(ctx, &prices); err != nil {
		return nil, fmt.Errorf("decode market prices: %w", err)
	}
	return prices, nil
}

// GetMarketPrice fetches one reference price.
func (s *MongoStore) GetMarketPrice(ctx context.Context, id string) (models.MarketPrice, error) {
	var price models.MarketPrice
	err := s.coll(collPrices).FindOne(ctx, bson.M{"_id": id}).Decode(&price)
	if err != nil {
		return models.MarketPrice{}, mapErr(err)
	}
	return price, nil
}

// UpdateMarketPrice writes the new price and trend and appends the audit
// record in one transaction, so the trend and history are never visible out of
// sync with the price they describe.
func (s *MongoStore) UpdateMarketPrice(ctx context.Context, price models.MarketPrice, history models.PriceHistoryRecord) error {
	return s.withTxn(ctx, func(sc mongo.SessionContext) error {
		res, err := s.coll(collPrices).UpdateByID(sc, price.ID, bson.M{
			"$set": bson.M{"price": price.Price, "trend": price.Trend},
		})
		if err != nil {
			return fmt.Errorf("update price %s: %w", price.ID, err)
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("update price %s: %w", price.ID, ErrNotFound)
		}
		if _, err := s.coll(collPriceHistory).InsertOne(sc, history); err != nil {
			return fmt.Errorf("append price history: %w", err)
		}
		return nil
	})
}

// ListPriceHistory returns the oldest-first audit trail for one price.
func (s *MongoStore) ListPriceHistory(ctx context.Context, priceID string, limit int64) ([]models.PriceHistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := s.coll(collPriceHistory).Find(ctx, bson.M{"price_id": priceID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	var records []models.PriceHistoryRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode price history: %w", err)
	}
	return records, nil
}

// InsertListing stores one marketplace listing.
func (s *MongoStore) InsertListing(ctx context.Context, listing models.Listing) error {
	if _, err := s.coll(collListings).InsertOne(ctx, listing); err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// ListListings returns every listing, newest first.
func (s *MongoStore) ListListings(ctx context.Context) ([]models.Listing, error) {
	return s.findListings(ctx, bson.M{})
}

// ListListingsByUser returns one member's listings, newest first.
func (s *MongoStore) ListListingsByUser(ctx context.Context, uid string) ([]models.Listing, error) {
	return s.findListings(ctx, bson.M{"user_id": uid})
}

func (s *MongoStore) findListings(ctx context.Context, filter bson.M) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := s.coll(collListings).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	var listings []models.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	return listings, nil
}

// GetListing fetches one listing.
func (s *MongoStore) GetListing(ctx context.Context, id string) (models.Listing, error) {
	var listing models.Listing
	err := s.coll(collListings).FindOne(ctx, bson.M{"_id": id}).Decode(&listing)
	if err != nil {
		return models.Listing{}, mapErr(err)
	}
	return listing, nil
}

// UpdateListing replaces the mutable fields of a listing. Ownership and the
// original timestamp are preserved.
func (s *MongoStore) UpdateListing(ctx context.Context, listing models.Listing) error {
	res, err := s.coll(collListings).UpdateByID(ctx, listing.ID, bson.M{"$set": bson.M{
		"product_name": listing.ProductName,
		"quantity":     listing.Quantity,
		"price":        listing.Price,
		"description":  listing.Description,
	}})
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteListing removes a listing permanently.
func (s *MongoStore) DeleteListing(ctx context.Context, id string) error {
	res, err := s.coll(collListings).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountListings returns the number of active marketplace listings.
func (s *MongoStore) CountListings(ctx context.Context) (int64, error) {
	count, err := s.coll(collListings).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return count, nil
}
