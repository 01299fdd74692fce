package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/realtime"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
	"github.com/legalchicks/coopnet/internal/service/market"
)

type memoryMarketStore struct {
	prices  map[string]models.MarketPrice
	history []models.PriceHistoryRecord
}

func (m *memoryMarketStore) ListMarketPrices(_ context.Context) ([]models.MarketPrice, error) {
	return nil, nil
}

func (m *memoryMarketStore) GetMarketPrice(_ context.Context, id string) (models.MarketPrice, error) {
	p, ok := m.prices[id]
	if !ok {
		return models.MarketPrice{}, mongodb.ErrNotFound
	}
	return p, nil
}

func (m *memoryMarketStore) UpdateMarketPrice(_ context.Context, price models.MarketPrice, history models.PriceHistoryRecord) error {
	m.prices[price.ID] = price
	m.history = append(m.history, history)
	return nil
}

func (m *memoryMarketStore) ListPriceHistory(_ context.Context, _ string, _ int64) ([]models.PriceHistoryRecord, error) {
	return m.history, nil
}

func (m *memoryMarketStore) InsertListing(_ context.Context, _ models.Listing) error { return nil }

func (m *memoryMarketStore) ListListings(_ context.Context) ([]models.Listing, error) {
	return nil, nil
}

func (m *memoryMarketStore) ListListingsByUser(_ context.Context, _ string) ([]models.Listing, error) {
	return nil, nil
}

func (m *memoryMarketStore) GetListing(_ context.Context, _ string) (models.Listing, error) {
	return models.Listing{}, mongodb.ErrNotFound
}

func (m *memoryMarketStore) UpdateListing(_ context.Context, _ models.Listing) error { return nil }
func (m *memoryMarketStore) DeleteListing(_ context.Context, _ string) error         { return nil }
func (m *memoryMarketStore) CountListings(_ context.Context) (int64, error)          { return 0, nil }

func putJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func newPriceEngine(t *testing.T, store *memoryMarketStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	marketSvc := market.NewService(store, realtime.NewBroker(nil), nil)
	h := NewAdminHandler(nil, nil, marketSvc, nil)

	r := gin.New()
	r.PUT("/admin/market/prices/:id", h.UpdateMarketPrice)
	return r
}

func TestUpdateMarketPriceAcceptsZero(t *testing.T) {
	store := &memoryMarketStore{prices: map[string]models.MarketPrice{
		"egg-medium": {ID: "egg-medium", Name: "Medium Eggs", Price: 7.5, Trend: models.TrendStable},
	}}
	r := newPriceEngine(t, store)

	// A free giveaway price is legitimate; only negatives are rejected.
	w := putJSON(t, r, "/admin/market/prices/egg-medium", `{"price":0}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(0), store.prices["egg-medium"].Price)
	assert.Equal(t, models.TrendDown, store.prices["egg-medium"].Trend)
	require.Len(t, store.history, 1)
}

func TestUpdateMarketPriceRejectsNegative(t *testing.T) {
	store := &memoryMarketStore{prices: map[string]models.MarketPrice{
		"egg-medium": {ID: "egg-medium", Name: "Medium Eggs", Price: 7.5, Trend: models.TrendStable},
	}}
	r := newPriceEngine(t, store)

	w := putJSON(t, r, "/admin/market/prices/egg-medium", `{"price":-1}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, store.history)
}

func TestUpdateMarketPriceMissingBodyGets400(t *testing.T) {
	store := &memoryMarketStore{prices: map[string]models.MarketPrice{}}
	r := newPriceEngine(t, store)

	w := putJSON(t, r, "/admin/market/prices/egg-medium", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
