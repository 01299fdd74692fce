package settings

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/realtime"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
	"github.com/legalchicks/coopnet/pkg/clients/supastore"
)

const collectionSettings = "settings"

// ErrStorageDisabled is returned when no object storage is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// ErrUnsupportedImage is returned for photo uploads that are not images.
var ErrUnsupportedImage = errors.New("unsupported image type")

// Store is the persistence slice this service needs.
type Store interface {
	mongodb.SettingsStore
	MergeProfile(ctx context.Context, uid string, fields map[string]any) error
}

// Service owns per-member settings and the profile photo upload flow.
type Service struct {
	store   Store
	storage supastore.Client // nil when uploads are disabled
	broker  *realtime.Broker
	logger  *zap.Logger
}

// NewService wires a new settings service instance.
func NewService(store Store, storage supastore.Client, broker *realtime.Broker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, storage: storage, broker: broker, logger: logger}
}

// Settings returns the member's settings document. A member who has never
// saved settings gets an empty document rather than an error.
func (s *Service) Settings(ctx context.Context, uid string) (models.UserSettings, error) {
	settings, err := s.store.GetSettings(ctx, uid)
	if errors.Is(err, mongodb.ErrNotFound) {
		return models.UserSettings{UID: uid}, nil
	}
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// Save merges the provided fields into the member's settings document. Fields
// the client omitted keep their stored values.
func (s *Service) Save(ctx context.Context, uid string, settings models.UserSettings) (models.UserSettings, error) {
	settings.UID = uid
	if err := s.store.MergeSettings(ctx, settings); err != nil {
		return models.UserSettings{}, fmt.Errorf("save settings: %w", err)
	}

	merged, err := s.Settings(ctx, uid)
	if err != nil {
		return models.UserSettings{}, err
	}
	s.broker.Publish(realtime.UserTopic(uid, collectionSettings), merged)
	return merged, nil
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadProfilePhoto stores the image in object storage and points the
// member's profile at its public URL.
func (s *Service) UploadProfilePhoto(ctx context.Context, uid, contentType string, data []byte) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}

	// A fresh object name per upload, so stale CDN caches never show the
	// previous photo.
	objectPath := path.Join("avatars", uid, uuid.NewString()+ext)
	if err := s.storage.Upload(ctx, objectPath, contentType, data); err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}

	url := s.storage.PublicURL(objectPath)
	if err := s.store.MergeProfile(ctx, uid, map[string]any{"photo_url": url}); err != nil {
		return "", fmt.Errorf("save photo url: %w", err)
	}

	s.logger.Info("profile photo updated", zap.String("uid", uid))
	return url, nil
}
