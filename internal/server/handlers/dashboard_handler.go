package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/service/advisor"
	"github.com/legalchicks/coopnet/internal/service/farm"
	"github.com/legalchicks/coopnet/internal/service/network"
)

// DashboardHandler serves a member's own dashboard data: KPI metrics,
// livestock, supplies, egg production, alerts and the AI advisory report.
type DashboardHandler struct {
	farm    *farm.Service
	network *network.Service
	advisor *advisor.Service
	logger  *zap.Logger
}

// NewDashboardHandler constructs the HTTP handler adapter.
func NewDashboardHandler(farmSvc *farm.Service, networkSvc *network.Service, advisorSvc *advisor.Service, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{farm: farmSvc, network: networkSvc, advisor: advisorSvc, logger: logger}
}

// KPIs returns the caller's latest KPI snapshot.
func (h *DashboardHandler) KPIs(c *gin.Context) {
	profile, _ := CurrentProfile(c)
	snap, err := h.farm.KPIs(c.Request.Context(), profile.UID)
	if err != nil {
		h.logger.Error("failed loading kpis", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load metrics"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// RecordKPIs stores new raw measurements and returns the derived snapshot.
func (h *DashboardHandler) RecordKPIs(c *gin.Context) {
	profile, _ := CurrentProfile(c)

	var in farm.KPIInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid measurements payload"})
		return
	}

	snap, err := h.farm.RecordKPIs(c.Request.Context(), profile.UID, in)
	if err != nil {
		if errors.Is(err, farm.ErrInvalidInput) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed recording kpis", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to save metrics"})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// KPIHistory returns the caller's dated KPI records, newest first.
func (h *DashboardHandler) KPIHistory(c *gin.Context) {
	profile, _ := CurrentProfile(c)
	records, err := h.farm.KPIHistory(c.Request.Context(), profile.UID)
	if err != nil {
		h.logger.Error("failed loading kpi history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load metric history"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// Flocks returns the caller's livestock flocks.
func (h *DashboardHandler) Flocks(c *gin.Context) {
	profile, _ := CurrentProfile(c)
	flocks, err := h.farm.Flocks(c.Request.Context(), profile.UID)
	if err != nil {
		h.logger.Error("failed loading flocks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load livestock"})
		return
	}
	c.JSON(http.StatusOK, flocks)
}

// SaveFlock creates or replaces one of the caller's flocks.
func (h *DashboardHandler) SaveFlock(c *gin.Context) {
	profile, _ := CurrentProfile(c)

	var flock models.LivestockFlock
	if err := c.ShouldBindJSON(&flock); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flock payload"})
		return
	}

	saved, err := h.farm.SaveFlock(c.Request.Context(), profile.UID, flock)
	if err != nil {
		if errors.Is(err, farm.ErrInvalidInput) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed saving flock", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to save flock"})
		return
	}

	c.JSON(http.StatusOK, saved)
}

// Supplies returns the caller's supply inventory.
func (h *DashboardHandler) Supplies(c *gin.Context) {
	profile, _ := CurrentProfile(c)
	supplies, err := h.farm.Supplies(c.Request.Context(), profile.UID)
	if err != nil {
		h.logger.Error("failed loading supplies", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load supplies"})
		return
	}
	c.JSON(http.StatusOK, supplies)
}

// SaveSupply creates or replaces one of the caller's supply lines.
func (h *DashboardHandler) SaveSupply(c *gin.Context) {
	profile, _ := CurrentProfile(c)

	var supply models.Supply
	if err := c.ShouldBindJSON(&supply); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supply payload"})
		return
	}

	saved, err := h.farm.SaveSupply(c.Request.Context(), profile.UID, supply)
	if err != nil {
		if errors.Is(err, farm.ErrInvalidInput) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed saving supply", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to save supply"})
		return
	}

	c.JSON(http.StatusOK, saved)
}

// EggProduction returns the caller's recent daily egg counts.
func (h *DashboardHandler) EggProduction(c *gin.Context) {
	profile, _ := CurrentProfile(c)
	records, err := h.farm.EggProduction(c.Request.Context(), profile.UID)
	if err != nil {
		h.logger.Error("failed loading egg production", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load egg production"})
		return
	}
	c.JSON(http.StatusOK, records)
}

type eggProductionRequest struct {
	Date string `json:"date"`
	Eggs int    `json:"eggs"`
}

// RecordEggProduction logs one day of egg output for the caller.
func (h *DashboardHandler) RecordEggProduction(c *gin.Context) {
	profile, _ := CurrentProfile(c)

	var req eggProductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid egg production payload"})
		return
	}

	rec, err := h.farm.RecordEggProduction(c.Request.Context(), profile.UID, req.Date, req.Eggs)
	if err != nil {
		if errors.Is(err, farm.ErrInvalidInput) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed recording egg production", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to save egg production"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// Alerts returns the network-wide alert feed.
func (h *DashboardHandler) Alerts(c *gin.Context) {
	alerts, err := h.network.Alerts(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading alerts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load alerts"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// Announcements returns the network-wide announcement feed.
func (h *DashboardHandler) Announcements(c *gin.Context) {
	anns, err := h.network.Announcements(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading announcements", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load announcements"})
		return
	}
	c.JSON(http.StatusOK, anns)
}

// AdvisoryReport generates the AI Diagnosis / Action Plan report for the
// caller's current metrics. The report body is always served, even when
// generation fails: the failure text is the report.
func (h *DashboardHandler) AdvisoryReport(c *gin.Context) {
	profile, _ := CurrentProfile(c)

	snap, err := h.farm.KPIs(c.Request.Context(), profile.UID)
	if err != nil {
		h.logger.Error("failed loading kpis for report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load metrics"})
		return
	}

	report := h.advisor.GenerateReport(c.Request.Context(), snap)
	c.JSON(http.StatusOK, gin.H{"report": report})
}
