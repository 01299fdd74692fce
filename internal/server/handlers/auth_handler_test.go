package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalchicks/coopnet/internal/config"
	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
	"github.com/legalchicks/coopnet/internal/service/auth"
)

type memoryProfileStore struct {
	profiles    map[string]models.Profile
	credentials map[string]models.Credential
}

func newMemoryProfileStore() *memoryProfileStore {
	return &memoryProfileStore{
		profiles:    make(map[string]models.Profile),
		credentials: make(map[string]models.Credential),
	}
}

func (m *memoryProfileStore) CreateProfile(_ context.Context, p models.Profile) error {
	m.profiles[p.UID] = p
	return nil
}

func (m *memoryProfileStore) GetProfile(_ context.Context, uid string) (models.Profile, error) {
	p, ok := m.profiles[uid]
	if !ok {
		return models.Profile{}, mongodb.ErrNotFound
	}
	return p, nil
}

func (m *memoryProfileStore) FindProfileByEmail(_ context.Context, email string) (models.Profile, error) {
	for _, p := range m.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return models.Profile{}, mongodb.ErrNotFound
}

func (m *memoryProfileStore) ListProfiles(_ context.Context) ([]models.Profile, error) {
	return nil, nil
}

func (m *memoryProfileStore) UpdateProfileRole(_ context.Context, uid string, role models.Role) error {
	p, ok := m.profiles[uid]
	if !ok {
		return mongodb.ErrNotFound
	}
	p.Role = role
	m.profiles[uid] = p
	return nil
}

func (m *memoryProfileStore) MergeProfile(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func (m *memoryProfileStore) CountProfiles(_ context.Context) (int64, error) {
	return int64(len(m.profiles)), nil
}

func (m *memoryProfileStore) CreateCredential(_ context.Context, cred models.Credential) error {
	m.credentials[cred.Email] = cred
	return nil
}

func (m *memoryProfileStore) FindCredentialByEmail(_ context.Context, email string) (models.Credential, error) {
	cred, ok := m.credentials[email]
	if !ok {
		return models.Credential{}, mongodb.ErrNotFound
	}
	return cred, nil
}

func newAuthEngine(t *testing.T) (*gin.Engine, *auth.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := auth.NewService(newMemoryProfileStore(), config.AuthConfig{
		JWTSecret:    "test-secret",
		SessionTTL:   time.Hour,
		MagicLinkTTL: time.Minute,
	}, nil)
	h := NewAuthHandler(svc, nil)

	r := gin.New()
	r.POST("/signin", h.SignIn)
	return r, svc
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSignInUnknownEmailGets401(t *testing.T) {
	r, _ := newAuthEngine(t)

	w := postJSON(t, r, "/signin", `{"email":"nobody@example.com","password":"hunter22"}`)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid email or password", body["error"],
		"unknown emails must not be distinguishable from wrong passwords")
}

func TestSignInWrongPasswordGets401WithSameBody(t *testing.T) {
	r, svc := newAuthEngine(t)
	_, err := svc.SignUp(context.Background(), "maria@example.com", "hunter22")
	require.NoError(t, err)

	w := postJSON(t, r, "/signin", `{"email":"maria@example.com","password":"wrong-pass"}`)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid email or password")
}

func TestSignInSucceedsWithCorrectPassword(t *testing.T) {
	r, svc := newAuthEngine(t)
	_, err := svc.SignUp(context.Background(), "maria@example.com", "hunter22")
	require.NoError(t, err)

	w := postJSON(t, r, "/signin", `{"email":"maria@example.com","password":"hunter22"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")
}
