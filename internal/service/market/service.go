package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/realtime"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
)

// Mutation failures surfaced to handlers.
var (
	ErrNotOwner     = errors.New("listing belongs to another member")
	ErrInvalidInput = errors.New("invalid input")
)

const historyWindow = 30

// Service owns the market hub: reference prices with their audit trail and
// member listings.
type Service struct {
	store  mongodb.MarketStore
	broker *realtime.Broker
	logger *zap.Logger
}

// NewService wires a new market service instance.
func NewService(store mongodb.MarketStore, broker *realtime.Broker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, broker: broker, logger: logger}
}

// Prices returns all network reference prices.
func (s *Service) Prices(ctx context.Context) ([]models.MarketPrice, error) {
	return s.store.ListMarketPrices(ctx)
}

// PriceHistory returns the recent audit trail for one price, oldest first.
func (s *Service) PriceHistory(ctx context.Context, priceID string) ([]models.PriceHistoryRecord, error) {
	return s.store.ListPriceHistory(ctx, priceID, historyWindow)
}

// UpdatePrice stores the new price with a derived trend flag and appends
// exactly one history record, atomically. A no-op price is skipped entirely:
// no write, no history entry.
func (s *Service) UpdatePrice(ctx context.Context, priceID string, newPrice float64) (models.MarketPrice, error) {
	if newPrice < 0 {
		return models.MarketPrice{}, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}

	current, err := s.store.GetMarketPrice(ctx, priceID)
	if err != nil {
		return models.MarketPrice{}, fmt.Errorf("load price: %w", err)
	}
	if current.Price == newPrice {
		return current, nil
	}

	updated := current
	updated.Price = newPrice
	updated.Trend = models.TrendFor(current.Price, newPrice)

	history := models.PriceHistoryRecord{
		ID:      uuid.NewString(),
		PriceID: priceID,
		Date:    time.Now().UTC(),
		Price:   newPrice,
	}

	if err := s.store.UpdateMarketPrice(ctx, updated, history); err != nil {
		return models.MarketPrice{}, fmt.Errorf("update price: %w", err)
	}

	s.logger.Info("market price updated",
		zap.String("price_id", priceID),
		zap.Float64("price", newPrice),
		zap.String("trend", string(updated.Trend)))

	s.publishPrices(ctx)
	s.publishPriceHistory(ctx, priceID)
	return updated, nil
}

// ListingInput carries the mutable listing fields.
type ListingInput struct {
	ProductName string  `json:"productName"`
	Quantity    string  `json:"quantity"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

func (in ListingInput) validate() error {
	if strings.TrimSpace(in.ProductName) == "" || strings.TrimSpace(in.Quantity) == "" {
		return fmt.Errorf("%w: productName and quantity are required", ErrInvalidInput)
	}
	if in.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	return nil
}

// CreateListing publishes a new marketplace entry owned by uid, stamped with
// the server time.
func (s *Service) CreateListing(ctx context.Context, uid string, in ListingInput) (models.Listing, error) {
	if err := in.validate(); err != nil {
		return models.Listing{}, err
	}

	listing := models.Listing{
		ID:          uuid.NewString(),
		ProductName: strings.TrimSpace(in.ProductName),
		Quantity:    strings.TrimSpace(in.Quantity),
		Price:       in.Price,
		Description: strings.TrimSpace(in.Description),
		UserID:      uid,
		Timestamp:   time.Now().UTC(),
	}

	if err := s.store.InsertListing(ctx, listing); err != nil {
		return models.Listing{}, fmt.Errorf("create listing: %w", err)
	}

	s.publishListings(ctx)
	return listing, nil
}

// UpdateListing edits a listing. Only the owner (or an admin) may touch it.
func (s *Service) UpdateListing(ctx context.Context, actor models.Profile, id string, in ListingInput) (models.Listing, error) {
	if err := in.validate(); err != nil {
		return models.Listing{}, err
	}

	existing, err := s.store.GetListing(ctx, id)
	if err != nil {
		return models.Listing{}, fmt.Errorf("load listing: %w", err)
	}
	if existing.UserID != actor.UID && !actor.Role.IsAdmin() {
		return models.Listing{}, ErrNotOwner
	}

	existing.ProductName = strings.TrimSpace(in.ProductName)
	existing.Quantity = strings.TrimSpace(in.Quantity)
	existing.Price = in.Price
	existing.Description = strings.TrimSpace(in.Description)

	if err := s.store.UpdateListing(ctx, existing); err != nil {
		return models.Listing{}, fmt.Errorf("update listing: %w", err)
	}

	s.publishListings(ctx)
	return existing, nil
}

// DeleteListing removes a listing. Only the owner (or an admin) may delete it.
func (s *Service) DeleteListing(ctx context.Context, actor models.Profile, id string) error {
	existing, err := s.store.GetListing(ctx, id)
	if err != nil {
		return fmt.Errorf("load listing: %w", err)
	}
	if existing.UserID != actor.UID && !actor.Role.IsAdmin() {
		return ErrNotOwner
	}

	if err := s.store.DeleteListing(ctx, id); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	s.publishListings(ctx)
	return nil
}

// Listings returns every marketplace entry, newest first.
func (s *Service) Listings(ctx context.Context) ([]models.Listing, error) {
	return s.store.ListListings(ctx)
}

// ListingsByUser returns one member's entries, newest first.
func (s *Service) ListingsByUser(ctx context.Context, uid string) ([]models.Listing, error) {
	return s.store.ListListingsByUser(ctx, uid)
}

func (s *Service) publishPrices(ctx context.Context) {
	prices, err := s.store.ListMarketPrices(ctx)
	if err != nil {
		s.logger.Warn("failed refreshing prices snapshot", zap.Error(err))
		return
	}
	s.broker.Publish(realtime.TopicMarketPrices, prices)
}

func (s *Service) publishPriceHistory(ctx context.Context, priceID string) {
	history, err := s.store.ListPriceHistory(ctx, priceID, historyWindow)
	if err != nil {
		s.logger.Warn("failed refreshing price history snapshot", zap.Error(err))
		return
	}
	s.broker.Publish(realtime.PriceHistoryTopic(priceID), history)
}

func (s *Service) publishListings(ctx context.Context) {
	listings, err := s.store.ListListings(ctx)
	if err != nil {
		s.logger.Warn("failed refreshing listings snapshot", zap.Error(err))
		return
	}
	s.broker.Publish(realtime.TopicListings, listings)
}
