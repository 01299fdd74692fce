package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/repository/mongodb"
	"github.com/legalchicks/coopnet/internal/service/market"
)

// MarketHandler handles reference prices and member listings.
type MarketHandler struct {
	svc    *market.Service
	logger *zap.Logger
}

// NewMarketHandler constructs the HTTP handler adapter.
func NewMarketHandler(svc *market.Service, logger *zap.Logger) *MarketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketHandler{svc: svc, logger: logger}
}

// Prices returns the current reference price board.
func (h *MarketHandler) Prices(c *gin.Context) {
	prices, err := h.svc.Prices(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing prices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load prices"})
		return
	}
	c.JSON(http.StatusOK, prices)
}

// PriceHistory returns the audit trail of one reference price, newest first.
func (h *MarketHandler) PriceHistory(c *gin.Context) {
	history, err := h.svc.PriceHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed listing price history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load price history"})
		return
	}
	c.JSON(http.StatusOK, history)
}

// Listings returns every marketplace listing.
func (h *MarketHandler) Listings(c *gin.Context) {
	listings, err := h.svc.Listings(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing marketplace", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load listings"})
		return
	}
	c.JSON(http.StatusOK, listings)
}

// MyListings returns the caller's own listings.
func (h *MarketHandler) MyListings(c *gin.Context) {
	profile, _ := CurrentProfile(c)
	listings, err := h.svc.ListingsByUser(c.Request.Context(), profile.UID)
	if err != nil {
		h.logger.Error("failed listing own listings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load listings"})
		return
	}
	c.JSON(http.StatusOK, listings)
}

// CreateListing publishes a new listing owned by the caller.
func (h *MarketHandler) CreateListing(c *gin.Context) {
	profile, _ := CurrentProfile(c)

	var in market.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing payload"})
		return
	}

	listing, err := h.svc.CreateListing(c.Request.Context(), profile.UID, in)
	if err != nil {
		if errors.Is(err, market.ErrInvalidInput) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed creating listing", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to create listing"})
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// UpdateListing edits a listing the caller owns (admins may edit any).
func (h *MarketHandler) UpdateListing(c *gin.Context) {
	profile, _ := CurrentProfile(c)

	var in market.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing payload"})
		return
	}

	listing, err := h.svc.UpdateListing(c.Request.Context(), profile, c.Param("id"), in)
	if err != nil {
		switch {
		case errors.Is(err, market.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "you can only edit your own listings"})
		case errors.Is(err, mongodb.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		case errors.Is(err, market.ErrInvalidInput):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			h.logger.Error("failed updating listing", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to update listing"})
		}
		return
	}

	c.JSON(http.StatusOK, listing)
}

// DeleteListing removes a listing the caller owns (admins may remove any).
func (h *MarketHandler) DeleteListing(c *gin.Context) {
	profile, _ := CurrentProfile(c)

	if err := h.svc.DeleteListing(c.Request.Context(), profile, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, market.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "you can only remove your own listings"})
		case errors.Is(err, mongodb.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		default:
			h.logger.Error("failed deleting listing", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to delete listing"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
