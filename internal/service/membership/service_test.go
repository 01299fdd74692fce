package membership

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

// fakeApplicationStore mimics the transactional bulk semantics of the real
// store: if any id in the batch is unknown, nothing changes.
type fakeApplicationStore struct {
	apps map[string]models.MembershipApplication
}

func newFakeApplicationStore() *fakeApplicationStore {
	return &fakeApplicationStore{apps: make(map[string]models.MembershipApplication)}
}

func (f *fakeApplicationStore) InsertApplication(_ context.Context, app models.MembershipApplication) error {
	f.apps[app.ID] = app
	return nil
}

func (f *fakeApplicationStore) ListApplications(_ context.Context) ([]models.MembershipApplication, error) {
	out := make([]models.MembershipApplication, 0, len(f.apps))
	for _, a := range f.apps {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeApplicationStore) UpdateApplicationStatus(_ context.Context, id string, status models.ApplicationStatus) error {
	a, ok := f.apps[id]
	if !ok {
		return mongodb.ErrNotFound
	}
	a.Status = status
	f.apps[id] = a
	return nil
}

func (f *fakeApplicationStore) BulkUpdateApplicationStatus(_ context.Context, ids []string, status models.ApplicationStatus) error {
	for _, id := range ids {
		if _, ok := f.apps[id]; !ok {
			return mongodb.ErrNotFound
		}
	}
	for _, id := range ids {
		a := f.apps[id]
		a.Status = status
		f.apps[id] = a
	}
	return nil
}

func (f *fakeApplicationStore) CountPendingApplications(_ context.Context) (int64, error) {
	var n int64
	for _, a := range f.apps {
		if a.Status == models.StatusPending {
			n++
		}
	}
	return n, nil
}

func completeForm() ApplicationForm {
	return ApplicationForm{
		Name:         "Maria Santos",
		Email:        "maria@example.com",
		Phone:        "+63 912 345 6789",
		FarmName:     "Santos Layers",
		FarmLocation: "Tuguegarao",
		FarmSize:     "250 birds",
	}
}

func TestValidateStepGatesMissingFields(t *testing.T) {
	svc := NewService(newFakeApplicationStore(), realtime.NewBroker(nil), nil)

	tests := []struct {
		name    string
		step    int
		mutate  func(*ApplicationForm)
		wantErr error
	}{
		{"complete contact step", StepContact, func(f *ApplicationForm) {}, nil},
		{"missing phone", StepContact, func(f *ApplicationForm) { f.Phone = "" }, ErrMissingFields},
		{"whitespace-only name", StepContact, func(f *ApplicationForm) { f.Name = "   " }, ErrMissingFields},
		{"complete farm step", StepFarm, func(f *ApplicationForm) {}, nil},
		{"missing location", StepFarm, func(f *ApplicationForm) { f.FarmLocation = "" }, ErrMissingFields},
		{"farm name is optional", StepFarm, func(f *ApplicationForm) { f.FarmName = "" }, nil},
		{"confirm re-checks earlier steps", StepConfirm, func(f *ApplicationForm) { f.Email = "" }, ErrMissingFields},
		{"complete confirmation", StepConfirm, func(f *ApplicationForm) {}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := completeForm()
			tt.mutate(&form)

			err := svc.ValidateStep(tt.step, form)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStepUnknownStep(t *testing.T) {
	svc := NewService(newFakeApplicationStore(), realtime.NewBroker(nil), nil)
	assert.Error(t, svc.ValidateStep(7, completeForm()))
}

func TestSubmitCreatesPendingApplication(t *testing.T) {
	store := newFakeApplicationStore()
	svc := NewService(store, realtime.NewBroker(nil), nil)

	before := time.Now().UTC()
	app, err := svc.Submit(context.Background(), completeForm())
	require.NoError(t, err)

	assert.NotEmpty(t, app.ID)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.False(t, app.SubmittedAt.Before(before.Add(-time.Second)))
	assert.Len(t, store.apps, 1)
}

func TestSubmitRejectsIncompleteForm(t *testing.T) {
	store := newFakeApplicationStore()
	svc := NewService(store, realtime.NewBroker(nil), nil)

	form := completeForm()
	form.FarmSize = ""

	_, err := svc.Submit(context.Background(), form)
	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Empty(t, store.apps)
}

func TestSubmitPublishesApplicationsSnapshot(t *testing.T) {
	store := newFakeApplicationStore()
	broker := realtime.NewBroker(nil)
	svc := NewService(store, broker, nil)

	sub := broker.Subscribe(context.Background(), realtime.TopicApplications)
	defer sub.Close()

	_, err := svc.Submit(context.Background(), completeForm())
	require.NoError(t, err)

	select {
	case snap := <-sub.C():
		apps, ok := snap.Data.([]models.MembershipApplication)
		require.True(t, ok)
		assert.Len(t, apps, 1)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published after submit")
	}
}

func TestBulkUpdateIsAllOrNothing(t *testing.T) {
	store := newFakeApplicationStore()
	svc := NewService(store, realtime.NewBroker(nil), nil)
	ctx := context.Background()

	a, err := svc.Submit(ctx, completeForm())
	require.NoError(t, err)
	b, err := svc.Submit(ctx, completeForm())
	require.NoError(t, err)

	// One id in the batch does not exist: neither application may change.
	err = svc.BulkUpdateStatus(ctx, []string{a.ID, "missing", b.ID}, models.StatusApproved)
	require.Error(t, err)
	assert.Equal(t, models.StatusPending, store.apps[a.ID].Status)
	assert.Equal(t, models.StatusPending, store.apps[b.ID].Status)

	// A clean batch lands everywhere.
	require.NoError(t, svc.BulkUpdateStatus(ctx, []string{a.ID, b.ID}, models.StatusApproved))
	assert.Equal(t, models.StatusApproved, store.apps[a.ID].Status)
	assert.Equal(t, models.StatusApproved, store.apps[b.ID].Status)
}

func TestBulkUpdateRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newFakeApplicationStore(), realtime.NewBroker(nil), nil)

	err := svc.BulkUpdateStatus(context.Background(), []string{"x"}, "archived")
	assert.ErrorIs(t, err, models.ErrInvalidStatus)
}

func TestUpdateStatusSingle(t *testing.T) {
	store := newFakeApplicationStore()
	svc := NewService(store, realtime.NewBroker(nil), nil)
	ctx := context.Background()

	app, err := svc.Submit(ctx, completeForm())
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, app.ID, models.StatusRejected))
	assert.Equal(t, models.StatusRejected, store.apps[app.ID].Status)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, app.ID, "archived"), models.ErrInvalidStatus)
}
