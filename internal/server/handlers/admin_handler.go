package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
	"github.com/legalchicks/coopnet/internal/service/market"
	"github.com/legalchicks/coopnet/internal/service/membership"
	"github.com/legalchicks/coopnet/internal/service/network"
)

// AdminHandler serves the admin console: stats, members, application triage,
// announcements, reference price updates and roster exports.
type AdminHandler struct {
	network    *network.Service
	membership *membership.Service
	market     *market.Service
	logger     *zap.Logger
}

// NewAdminHandler constructs the HTTP handler adapter.
func NewAdminHandler(networkSvc *network.Service, membershipSvc *membership.Service, marketSvc *market.Service, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{network: networkSvc, membership: membershipSvc, market: marketSvc, logger: logger}
}

// Stats returns the aggregate counters for the admin overview.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.network.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading network stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Members returns every member profile.
func (h *AdminHandler) Members(c *gin.Context) {
	members, err := h.network.Members(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading members", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load members"})
		return
	}
	c.JSON(http.StatusOK, members)
}

type roleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// UpdateMemberRole changes one member's role.
func (h *AdminHandler) UpdateMemberRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}

	if err := h.network.UpdateMemberRole(c.Request.Context(), c.Param("uid"), req.Role); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidRole):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown role"})
		case errors.Is(err, mongodb.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		default:
			h.logger.Error("failed updating member role", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to update role"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// Applications returns the full application triage queue.
func (h *AdminHandler) Applications(c *gin.Context) {
	apps, err := h.membership.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading applications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load applications"})
		return
	}
	c.JSON(http.StatusOK, apps)
}

type statusRequest struct {
	Status models.ApplicationStatus `json:"status" binding:"required"`
}

// UpdateApplicationStatus approves or rejects a single application.
func (h *AdminHandler) UpdateApplicationStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	if err := h.membership.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidStatus):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown status"})
		case errors.Is(err, mongodb.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
		default:
			h.logger.Error("failed updating application", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to update application"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

type bulkStatusRequest struct {
	IDs    []string                 `json:"ids" binding:"required"`
	Status models.ApplicationStatus `json:"status" binding:"required"`
}

// BulkUpdateApplicationStatus applies one status to many applications. The
// whole batch commits or none of it does.
func (h *AdminHandler) BulkUpdateApplicationStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids and status are required"})
		return
	}

	if err := h.membership.BulkUpdateStatus(c.Request.Context(), req.IDs, req.Status); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidStatus):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown status"})
		case errors.Is(err, mongodb.ErrNotFound):
			c.JSON(http.StatusConflict, gin.H{"error": "one or more applications no longer exist; nothing was changed"})
		default:
			h.logger.Error("failed bulk updating applications", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to update applications"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": len(req.IDs)})
}

type announcementRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

// CreateAnnouncement posts a network-wide announcement authored by the caller.
func (h *AdminHandler) CreateAnnouncement(c *gin.Context) {
	profile, _ := CurrentProfile(c)

	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and body are required"})
		return
	}

	ann, err := h.network.CreateAnnouncement(c.Request.Context(), profile.Name, req.Title, req.Body)
	if err != nil {
		h.logger.Error("failed creating announcement", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to create announcement"})
		return
	}

	c.JSON(http.StatusCreated, ann)
}

// DeleteAnnouncement removes an announcement.
func (h *AdminHandler) DeleteAnnouncement(c *gin.Context) {
	if err := h.network.DeleteAnnouncement(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "announcement not found"})
			return
		}
		h.logger.Error("failed deleting announcement", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to delete announcement"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Price is a pointer so an explicit 0 binds; validation lives in the service.
type priceRequest struct {
	Price *float64 `json:"price" binding:"required"`
}

// UpdateMarketPrice sets a reference price. The trend and the audit history
// record are derived server-side.
func (h *AdminHandler) UpdateMarketPrice(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price is required"})
		return
	}

	price, err := h.market.UpdatePrice(c.Request.Context(), c.Param("id"), *req.Price)
	if err != nil {
		switch {
		case errors.Is(err, market.ErrInvalidInput):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, mongodb.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "price not found"})
		default:
			h.logger.Error("failed updating market price", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to update price"})
		}
		return
	}

	c.JSON(http.StatusOK, price)
}

// ExportRosterCSV serves the member roster as a CSV download.
func (h *AdminHandler) ExportRosterCSV(c *gin.Context) {
	data, err := h.network.ExportRosterCSV(c.Request.Context())
	if err != nil {
		h.logger.Error("failed exporting roster csv", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to export roster"})
		return
	}

	filename := fmt.Sprintf("members-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportRosterToSheet appends the member roster to the configured spreadsheet.
func (h *AdminHandler) ExportRosterToSheet(c *gin.Context) {
	count, err := h.network.ExportRosterToSheet(c.Request.Context())
	if err != nil {
		if errors.Is(err, network.ErrExportDisabled) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "spreadsheet export is not configured"})
			return
		}
		h.logger.Error("failed exporting roster to sheet", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to export roster"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"exported": count})
}
