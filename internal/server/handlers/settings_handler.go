package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/service/settings"
)

// maxPhotoBytes caps profile photo uploads at 5 MiB.
const maxPhotoBytes = 5 << 20

// SettingsHandler serves per-member settings and the profile photo upload.
type SettingsHandler struct {
	svc    *settings.Service
	logger *zap.Logger
}

// NewSettingsHandler constructs the HTTP handler adapter.
func NewSettingsHandler(svc *settings.Service, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{svc: svc, logger: logger}
}

// Settings returns the caller's settings document.
func (h *SettingsHandler) Settings(c *gin.Context) {
	profile, _ := CurrentProfile(c)
	s, err := h.svc.Settings(c.Request.Context(), profile.UID)
	if err != nil {
		h.logger.Error("failed loading settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load settings"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// SaveSettings merges the provided fields into the caller's settings. Omitted
// fields keep their stored values.
func (h *SettingsHandler) SaveSettings(c *gin.Context) {
	profile, _ := CurrentProfile(c)

	var in models.UserSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}

	saved, err := h.svc.Save(c.Request.Context(), profile.UID, in)
	if err != nil {
		h.logger.Error("failed saving settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to save settings"})
		return
	}

	c.JSON(http.StatusOK, saved)
}

// UploadPhoto stores a new profile photo and returns its public URL.
func (h *SettingsHandler) UploadPhoto(c *gin.Context) {
	profile, _ := CurrentProfile(c)

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo must be 5MB or smaller"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read photo"})
		return
	}
	if len(data) > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo must be 5MB or smaller"})
		return
	}

	url, err := h.svc.UploadProfilePhoto(c.Request.Context(), profile.UID, header.Header.Get("Content-Type"), data)
	if err != nil {
		switch {
		case errors.Is(err, settings.ErrUnsupportedImage):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "photo must be a JPEG, PNG or WebP image"})
		case errors.Is(err, settings.ErrStorageDisabled):
			c.JSON(http.StatusNotImplemented, gin.H{"error": "photo uploads are not configured"})
		default:
			h.logger.Error("failed uploading photo", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "unable to upload photo"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"photoUrl": url})
}
