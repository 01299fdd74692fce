package network

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/realtime"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
)

type fakeNetworkStore struct {
	profiles      []models.Profile
	pendingApps   int64
	listings      int64
	alerts        []models.Alert
	announcements map[string]models.Announcement
}

func newFakeNetworkStore() *fakeNetworkStore {
	return &fakeNetworkStore{announcements: make(map[string]models.Announcement)}
}

func (f *fakeNetworkStore) CountProfiles(_ context.Context) (int64, error) {
	return int64(len(f.profiles)), nil
}

func (f *fakeNetworkStore) CountPendingApplications(_ context.Context) (int64, error) {
	return f.pendingApps, nil
}

func (f *fakeNetworkStore) CountListings(_ context.Context) (int64, error) {
	return f.listings, nil
}

func (f *fakeNetworkStore) ListProfiles(_ context.Context) ([]models.Profile, error) {
	return f.profiles, nil
}

func (f *fakeNetworkStore) UpdateProfileRole(_ context.Context, uid string, role models.Role) error {
	for i, p := range f.profiles {
		if p.UID == uid {
			f.profiles[i].Role = role
			return nil
		}
	}
	return mongodb.ErrNotFound
}

func (f *fakeNetworkStore) ListAlerts(_ context.Context) ([]models.Alert, error) {
	return f.alerts, nil
}

func (f *fakeNetworkStore) InsertAnnouncement(_ context.Context, ann models.Announcement) error {
	f.announcements[ann.ID] = ann
	return nil
}

func (f *fakeNetworkStore) ListAnnouncements(_ context.Context) ([]models.Announcement, error) {
	out := make([]models.Announcement, 0, len(f.announcements))
	for _, a := range f.announcements {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeNetworkStore) DeleteAnnouncement(_ context.Context, id string) error {
	if _, ok := f.announcements[id]; !ok {
		return mongodb.ErrNotFound
	}
	delete(f.announcements, id)
	return nil
}

func TestStats(t *testing.T) {
	store := newFakeNetworkStore()
	store.profiles = []models.Profile{{UID: "a"}, {UID: "b"}, {UID: "c"}}
	store.pendingApps = 2
	store.listings = 5

	svc := NewService(store, nil, realtime.NewBroker(nil), nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.NetworkStats{
		TotalMembers:        3,
		PendingApplications: 2,
		ActiveListings:      5,
	}, stats)
}

func TestUpdateMemberRole(t *testing.T) {
	store := newFakeNetworkStore()
	store.profiles = []models.Profile{{UID: "u1", Role: models.RoleMember}}
	svc := NewService(store, nil, realtime.NewBroker(nil), nil)
	ctx := context.Background()

	require.NoError(t, svc.UpdateMemberRole(ctx, "u1", models.RoleEditor))
	assert.Equal(t, models.RoleEditor, store.profiles[0].Role)

	assert.ErrorIs(t, svc.UpdateMemberRole(ctx, "u1", "emperor"), models.ErrInvalidRole)
	assert.ErrorIs(t, svc.UpdateMemberRole(ctx, "ghost", models.RoleAdmin), mongodb.ErrNotFound)
}

func TestAnnouncementLifecycle(t *testing.T) {
	store := newFakeNetworkStore()
	broker := realtime.NewBroker(nil)
	svc := NewService(store, nil, broker, nil)
	ctx := context.Background()

	sub := broker.Subscribe(ctx, realtime.TopicAnnouncements)
	defer sub.Close()

	ann, err := svc.CreateAnnouncement(ctx, "Admin Ana", "Vaccination drive", "Schedule for September is out.")
	require.NoError(t, err)
	assert.Equal(t, "Admin Ana", ann.Author)
	assert.False(t, ann.Date.IsZero())

	snap := <-sub.C()
	posted, ok := snap.Data.([]models.Announcement)
	require.True(t, ok)
	assert.Len(t, posted, 1)

	require.NoError(t, svc.DeleteAnnouncement(ctx, ann.ID))
	assert.Empty(t, store.announcements)

	assert.ErrorIs(t, svc.DeleteAnnouncement(ctx, ann.ID), mongodb.ErrNotFound)
}

func TestCreateAnnouncementRequiresTitleAndBody(t *testing.T) {
	svc := NewService(newFakeNetworkStore(), nil, realtime.NewBroker(nil), nil)

	_, err := svc.CreateAnnouncement(context.Background(), "Admin Ana", "  ", "body")
	assert.Error(t, err)
}

func TestExportRosterCSV(t *testing.T) {
	store := newFakeNetworkStore()
	store.profiles = []models.Profile{
		{UID: "u1", Name: "Maria Santos", Email: "maria@example.com", Role: models.RoleMember},
		{UID: "u2", Name: "José Cruz", Email: "jose@example.com", Role: models.RoleAdmin},
	}
	svc := NewService(store, nil, realtime.NewBroker(nil), nil)

	data, err := svc.ExportRosterCSV(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "UID,Name,Email,Role", lines[0])
	assert.Contains(t, lines[1], "maria@example.com")
	assert.Contains(t, lines[2], "admin")
}

func TestExportRosterToSheetDisabled(t *testing.T) {
	svc := NewService(newFakeNetworkStore(), nil, realtime.NewBroker(nil), nil)

	_, err := svc.ExportRosterToSheet(context.Background())
	assert.ErrorIs(t, err, ErrExportDisabled)
}
