package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/realtime"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
)

type fakeSettingsStore struct {
	settings map[string]models.UserSettings
	photos   map[string]string
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{
		settings: make(map[string]models.UserSettings),
		photos:   make(map[string]string),
	}
}

func (f *fakeSettingsStore) GetSettings(_ context.Context, uid string) (models.UserSettings, error) {
	s, ok := f.settings[uid]
	if !ok {
		return models.UserSettings{}, mongodb.ErrNotFound
	}
	return s, nil
}

// MergeSettings applies only the fields the update carries, like the real
// store's $set document.
func (f *fakeSettingsStore) MergeSettings(_ context.Context, update models.UserSettings) error {
	s := f.settings[update.UID]
	s.UID = update.UID
	if update.FarmName != "" {
		s.FarmName = update.FarmName
	}
	if update.ContactName != "" {
		s.ContactName = update.ContactName
	}
	if update.PhoneNumber != "" {
		s.PhoneNumber = update.PhoneNumber
	}
	if update.NotifyMarket != nil {
		s.NotifyMarket = update.NotifyMarket
	}
	if update.NotifyNews != nil {
		s.NotifyNews = update.NotifyNews
	}
	if update.NotifyPrice != nil {
		s.NotifyPrice = update.NotifyPrice
	}
	f.settings[update.UID] = s
	return nil
}

func (f *fakeSettingsStore) MergeProfile(_ context.Context, uid string, fields map[string]any) error {
	if url, ok := fields["photo_url"].(string); ok {
		f.photos[uid] = url
	}
	return nil
}

type fakeStorage struct {
	uploads map[string][]byte
}

func (f *fakeStorage) Upload(_ context.Context, path, _ string, data []byte) error {
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[path] = data
	return nil
}

func (f *fakeStorage) PublicURL(path string) string {
	return "https://cdn.example.com/" + path
}

func boolPtr(b bool) *bool { return &b }

func TestSettingsForNewMemberIsEmpty(t *testing.T) {
	svc := NewService(newFakeSettingsStore(), nil, realtime.NewBroker(nil), nil)

	s, err := svc.Settings(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UID)
	assert.Empty(t, s.FarmName)
}

func TestSaveMergesWithoutClobbering(t *testing.T) {
	store := newFakeSettingsStore()
	svc := NewService(store, nil, realtime.NewBroker(nil), nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, "u1", models.UserSettings{
		FarmName:     "Santos Layers",
		NotifyMarket: boolPtr(true),
	})
	require.NoError(t, err)

	// A later partial update must leave the farm name untouched.
	saved, err := svc.Save(ctx, "u1", models.UserSettings{PhoneNumber: "+63 912 345 6789"})
	require.NoError(t, err)
	assert.Equal(t, "Santos Layers", saved.FarmName)
	assert.Equal(t, "+63 912 345 6789", saved.PhoneNumber)
	require.NotNil(t, saved.NotifyMarket)
	assert.True(t, *saved.NotifyMarket)

	// Toggling a notification to false must persist, not be dropped.
	saved, err = svc.Save(ctx, "u1", models.UserSettings{NotifyMarket: boolPtr(false)})
	require.NoError(t, err)
	require.NotNil(t, saved.NotifyMarket)
	assert.False(t, *saved.NotifyMarket)
}

func TestSavePublishesSettingsSnapshot(t *testing.T) {
	store := newFakeSettingsStore()
	broker := realtime.NewBroker(nil)
	svc := NewService(store, nil, broker, nil)

	sub := broker.Subscribe(context.Background(), realtime.UserTopic("u1", "settings"))
	defer sub.Close()

	_, err := svc.Save(context.Background(), "u1", models.UserSettings{FarmName: "Santos Layers"})
	require.NoError(t, err)

	select {
	case snap := <-sub.C():
		saved, ok := snap.Data.(models.UserSettings)
		require.True(t, ok)
		assert.Equal(t, "Santos Layers", saved.FarmName)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published after save")
	}
}

func TestUploadProfilePhoto(t *testing.T) {
	store := newFakeSettingsStore()
	storage := &fakeStorage{}
	svc := NewService(store, storage, realtime.NewBroker(nil), nil)

	url, err := svc.UploadProfilePhoto(context.Background(), "u1", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Contains(t, url, "https://cdn.example.com/avatars/u1/")
	assert.Equal(t, url, store.photos["u1"], "profile points at the uploaded object")
	assert.Len(t, storage.uploads, 1)
}

func TestUploadProfilePhotoRejectsNonImages(t *testing.T) {
	svc := NewService(newFakeSettingsStore(), &fakeStorage{}, realtime.NewBroker(nil), nil)

	_, err := svc.UploadProfilePhoto(context.Background(), "u1", "application/pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestUploadProfilePhotoWithoutStorage(t *testing.T) {
	svc := NewService(newFakeSettingsStore(), nil, realtime.NewBroker(nil), nil)

	_, err := svc.UploadProfilePhoto(context.Background(), "u1", "image/png", []byte("x"))
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
