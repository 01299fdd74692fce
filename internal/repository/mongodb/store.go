package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/legalchicks/coopnet/internal/domain/models"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// ProfileStore covers member profiles and sign-in credentials.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile models.Profile) error
	GetProfile(ctx context.Context, uid string) (models.Profile, error)
	FindProfileByEmail(ctx context.Context, email string) (models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	UpdateProfileRole(ctx context.Context, uid string, role models.Role) error
	MergeProfile(ctx context.Context, uid string, fields map[string]any) error
	CountProfiles(ctx context.Context) (int64, error)

	CreateCredential(ctx context.Context, cred models.Credential) error
	FindCredentialByEmail(ctx context.Context, email string) (models.Credential, error)
}

// ApplicationStore covers the membership application funnel.
type ApplicationStore interface {
	InsertApplication(ctx context.Context, app models.MembershipApplication) error
	ListApplications(ctx context.Context) ([]models.MembershipApplication, error)
	UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) error
	BulkUpdateApplicationStatus(ctx context.Context, ids []string, status models.ApplicationStatus) error
	CountPendingApplications(ctx context.Context) (int64, error)
}

// MarketStore covers reference prices, their audit history and listings.
type MarketStore interface {
	ListMarketPrices(ctx context.Context) ([]models.MarketPrice, error)
	GetMarketPrice(ctx context.Context, id string) (models.MarketPrice, error)
	UpdateMarketPrice(ctx context.Context, price models.MarketPrice, history models.PriceHistoryRecord) error
	ListPriceHistory(ctx context.Context, priceID string, limit int64) ([]models.PriceHistoryRecord, error)

	InsertListing(ctx context.Context, listing models.Listing) error
	ListListings(ctx context.Context) ([]models.Listing, error)
	ListListingsByUser(ctx context.Context, uid string) ([]models.Listing, error)
	GetListing(ctx context.Context, id string) (models.Listing, error)
	UpdateListing(ctx context.Context, listing models.Listing) error
	DeleteListing(ctx context.Context, id string) error
	CountListings(ctx context.Context) (int64, error)
}

// NetworkStore covers network-wide alerts and announcements.
type NetworkStore interface {
	ListAlerts(ctx context.Context) ([]models.Alert, error)
	InsertAnnouncement(ctx context.Context, ann models.Announcement) error
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id string) error
}

// FarmStore covers per-user dashboard data.
type FarmStore interface {
	UpsertKPISnapshot(ctx context.Context, snap models.KPISnapshot) error
	GetKPISnapshot(ctx context.Context, uid string) (models.KPISnapshot, error)
	InsertKPIHistory(ctx context.Context, rec models.KPIHistoryRecord) error
	ListKPIHistory(ctx context.Context, uid string, limit int64) ([]models.KPIHistoryRecord, error)
	ListKPIOwners(ctx context.Context) ([]string, error)

	UpsertFlock(ctx context.Context, flock models.LivestockFlock) error
	ListFlocks(ctx context.Context, uid string) ([]models.LivestockFlock, error)
	UpsertSupply(ctx context.Context, supply models.Supply) error
	ListSupplies(ctx context.Context, uid string) ([]models.Supply, error)
	UpsertEggProduction(ctx context.Context, rec models.EggProductionRecord) error
	ListEggProduction(ctx context.Context, uid string, limit int64) ([]models.EggProductionRecord, error)
}

// SettingsStore covers the per-user settings document.
type SettingsStore interface {
	GetSettings(ctx context.Context, uid string) (models.UserSettings, error)
	MergeSettings(ctx context.Context, settings models.UserSettings) error
}

// Store is the full persistence surface backed by MongoDB.
type Store interface {
	ProfileStore
	ApplicationStore
	MarketStore
	NetworkStore
	FarmStore
	SettingsStore
}

const (
	collProfiles      = "profiles"
	collCredentials   = "credentials"
	collApplications  = "membership_applications"
	collAlerts        = "alerts"
	collAnnouncements = "announcements"
	collPrices        = "market_prices"
	collPriceHistory  = "market_price_history"
	collListings      = "listings"
	collKPILatest     = "kpis_latest"
	collKPIHistory    = "kpi_history"
	collLivestock     = "livestock"
	collSupplies      = "supplies"
	collEggHistory    = "egg_production"
	collSettings      = "user_settings"
)

// MongoStore implements Store on top of a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	dbName string
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, uri string, dbName string) (*MongoStore, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{client: client, dbName: dbName}, nil
}

// Close closes the MongoDB connection.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) coll(name string) *mongo.Collection {
	return s.client.Database(s.dbName).Collection(name)
}

// withTxn runs fn inside a single multi-document transaction. Every write the
// callback performs through the session context commits entirely or not at all.
func (s *MongoStore) withTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
