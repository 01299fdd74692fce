package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/metrics"
	"github.com/legalchicks/coopnet/internal/service/membership"
)

// MembershipHandler handles the public application funnel.
type MembershipHandler struct {
	svc    *membership.Service
	logger *zap.Logger
}

// NewMembershipHandler constructs the HTTP handler adapter.
func NewMembershipHandler(svc *membership.Service, logger *zap.Logger) *MembershipHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipHandler{svc: svc, logger: logger}
}

// ValidateStep checks one funnel step's fields without persisting anything, so
// the client can gate its Next button server-side.
func (h *MembershipHandler) ValidateStep(c *gin.Context) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "step must be a number"})
		return
	}

	var form membership.ApplicationForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form payload"})
		return
	}

	if err := h.svc.ValidateStep(step, form); err != nil {
		if errors.Is(err, membership.ErrMissingFields) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// Submit files a completed application into the triage queue.
func (h *MembershipHandler) Submit(c *gin.Context) {
	var form membership.ApplicationForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form payload"})
		return
	}

	app, err := h.svc.Submit(c.Request.Context(), form)
	if err != nil {
		if errors.Is(err, membership.ErrMissingFields) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("application submit failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to submit application"})
		return
	}

	metrics.RecordApplicationSubmitted()
	c.JSON(http.StatusCreated, app)
}
