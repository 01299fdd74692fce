package network

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/realtime"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
	"github.com/legalchicks/coopnet/internal/repository/sheets"
)

// ErrExportDisabled is returned when the sheets export is not configured.
var ErrExportDisabled = errors.New("sheets export is not configured")

// Store is the persistence slice this service needs.
type Store interface {
	CountProfiles(ctx context.Context) (int64, error)
	CountPendingApplications(ctx context.Context) (int64, error)
	CountListings(ctx context.Context) (int64, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	UpdateProfileRole(ctx context.Context, uid string, role models.Role) error
	mongodb.NetworkStore
}

// Service owns the admin console: network stats, member roles, announcements
// and roster exports.
type Service struct {
	store  Store
	roster sheets.Repository // nil when the export is disabled
	broker *realtime.Broker
	logger *zap.Logger
}

// NewService wires a new network service instance.
func NewService(store Store, roster sheets.Repository, broker *realtime.Broker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, roster: roster, broker: broker, logger: logger}
}

// Stats aggregates the admin overview counters via server-side counts.
func (s *Service) Stats(ctx context.Context) (models.NetworkStats, error) {
	members, err := s.store.CountProfiles(ctx)
	if err != nil {
		return models.NetworkStats{}, fmt.Errorf("count members: %w", err)
	}
	pending, err := s.store.CountPendingApplications(ctx)
	if err != nil {
		return models.NetworkStats{}, fmt.Errorf("count pending: %w", err)
	}
	listings, err := s.store.CountListings(ctx)
	if err != nil {
		return models.NetworkStats{}, fmt.Errorf("count listings: %w", err)
	}

	return models.NetworkStats{
		TotalMembers:        members,
		PendingApplications: pending,
		ActiveListings:      listings,
	}, nil
}

// Members returns every member profile.
func (s *Service) Members(ctx context.Context) ([]models.Profile, error) {
	return s.store.ListProfiles(ctx)
}

// UpdateMemberRole changes one member's role. The uid is never touched.
func (s *Service) UpdateMemberRole(ctx context.Context, uid string, role models.Role) error {
	if !role.Valid() {
		return models.ErrInvalidRole
	}
	if err := s.store.UpdateProfileRole(ctx, uid, role); err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	s.logger.Info("member role updated", zap.String("uid", uid), zap.String("role", string(role)))
	return nil
}

// Alerts returns the network-wide alert feed.
func (s *Service) Alerts(ctx context.Context) ([]models.Alert, error) {
	return s.store.ListAlerts(ctx)
}

// Announcements returns the announcement feed, newest first.
func (s *Service) Announcements(ctx context.Context) ([]models.Announcement, error) {
	return s.store.ListAnnouncements(ctx)
}

// CreateAnnouncement posts a new announcement stamped with the author and the
// server time.
func (s *Service) CreateAnnouncement(ctx context.Context, author, title, body string) (models.Announcement, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return models.Announcement{}, fmt.Errorf("title and body are required")
	}

	ann := models.Announcement{
		ID:     uuid.NewString(),
		Date:   time.Now().UTC(),
		Author: author,
		Title:  title,
		Body:   body,
	}

	if err := s.store.InsertAnnouncement(ctx, ann); err != nil {
		return models.Announcement{}, fmt.Errorf("create announcement: %w", err)
	}

	s.publishAnnouncements(ctx)
	return ann, nil
}

// DeleteAnnouncement removes an announcement permanently.
func (s *Service) DeleteAnnouncement(ctx context.Context, id string) error {
	if err := s.store.DeleteAnnouncement(ctx, id); err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	s.publishAnnouncements(ctx)
	return nil
}

// ExportRosterCSV renders the member roster as CSV for download.
func (s *Service) ExportRosterCSV(ctx context.Context) ([]byte, error) {
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"UID", "Name", "Email", "Role"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range profiles {
		if err := w.Write([]string{p.UID, p.Name, p.Email, string(p.Role)}); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportRosterToSheet appends the member roster to the configured spreadsheet.
func (s *Service) ExportRosterToSheet(ctx context.Context) (int, error) {
	if s.roster == nil {
		return 0, ErrExportDisabled
	}

	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("load roster: %w", err)
	}
	if err := s.roster.AppendRoster(ctx, profiles); err != nil {
		return 0, fmt.Errorf("export roster: %w", err)
	}

	s.logger.Info("roster exported", zap.Int("members", len(profiles)))
	return len(profiles), nil
}

func (s *Service) publishAnnouncements(ctx context.Context) {
	anns, err := s.store.ListAnnouncements(ctx)
	if err != nil {
		s.logger.Warn("failed refreshing announcements snapshot", zap.Error(err))
		return
	}
	s.broker.Publish(realtime.TopicAnnouncements, anns)
}
