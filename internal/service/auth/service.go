package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/legalchicks/coopnet/internal/config"
	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
)

// Failure signals surfaced to the client, mirroring the auth provider's
// error taxonomy.
var (
	ErrEmailInUse        = errors.New("email already in use")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrWeakPassword      = errors.New("weak password")
	ErrUserNotFound      = errors.New("user not found")
)

const minPasswordLength = 6

// Session is an authenticated session handed back to the client.
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Profile   models.Profile `json:"profile"`
}

// Service owns sign-up, sign-in, magic links and profile resolution.
type Service struct {
	store       mongodb.ProfileStore
	tokens      *TokenIssuer
	superAdmins map[string]struct{}
	linkBaseURL string
	logger      *zap.Logger
}

// NewService wires a new auth service instance.
func NewService(store mongodb.ProfileStore, cfg config.AuthConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	admins := make(map[string]struct{}, len(cfg.SuperAdminEmails))
	for _, email := range cfg.SuperAdminEmails {
		admins[strings.ToLower(email)] = struct{}{}
	}

	return &Service{
		store:       store,
		tokens:      NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL, cfg.MagicLinkTTL),
		superAdmins: admins,
		linkBaseURL: cfg.MagicLinkBaseURL,
		logger:      logger,
	}
}

// SignUp registers a new account, creates its profile document and returns a
// fresh session.
func (s *Service) SignUp(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" {
		return Session{}, ErrInvalidCredential
	}
	if len(password) < minPasswordLength {
		return Session{}, ErrWeakPassword
	}

	if _, err := s.store.FindCredentialByEmail(ctx, email); err == nil {
		return Session{}, ErrEmailInUse
	} else if !errors.Is(err, mongodb.ErrNotFound) {
		return Session{}, fmt.Errorf("lookup credential: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	uid := uuid.NewString()
	if err := s.store.CreateCredential(ctx, models.Credential{UID: uid, Email: email, PasswordHash: hash}); err != nil {
		return Session{}, fmt.Errorf("create credential: %w", err)
	}

	profile := models.Profile{
		UID:   uid,
		Name:  nameFromEmail(email),
		Email: email,
		Role:  models.RoleMember,
	}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return Session{}, fmt.Errorf("create profile: %w", err)
	}

	profile, err = s.provisionSuperAdmin(ctx, profile)
	if err != nil {
		return Session{}, err
	}

	s.logger.Info("account created", zap.String("uid", uid))
	return s.issueSession(profile)
}

// SignIn authenticates an email+password pair and returns a session. The
// profile document is created on first sign-in if it is somehow missing.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)

	cred, err := s.store.FindCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return Session{}, ErrUserNotFound
		}
		return Session{}, fmt.Errorf("lookup credential: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)); err != nil {
		return Session{}, ErrInvalidCredential
	}

	profile, err := s.resolveProfile(ctx, cred.UID, email)
	if err != nil {
		return Session{}, err
	}

	return s.issueSession(profile)
}

// RequestMagicLink issues a short-lived single-purpose sign-in link for an
// existing account. Delivery (email) is outside this service; the link is
// returned to the caller.
func (s *Service) RequestMagicLink(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)

	cred, err := s.store.FindCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("lookup credential: %w", err)
	}

	token, err := s.tokens.IssueMagicLink(cred.UID, email)
	if err != nil {
		return "", fmt.Errorf("issue magic link: %w", err)
	}

	return fmt.Sprintf("%s?magic=%s", s.linkBaseURL, token), nil
}

// RedeemMagicLink exchanges a valid magic-link token for a session.
func (s *Service) RedeemMagicLink(ctx context.Context, token string) (Session, error) {
	claims, err := s.tokens.ParseMagicLink(token)
	if err != nil {
		return Session{}, ErrInvalidCredential
	}

	profile, err := s.resolveProfile(ctx, claims.Subject, claims.Email)
	if err != nil {
		return Session{}, err
	}

	return s.issueSession(profile)
}

// Authenticate validates a session token and returns the current profile,
// re-read from the store so role changes take effect on the next request.
func (s *Service) Authenticate(ctx context.Context, token string) (models.Profile, error) {
	claims, err := s.tokens.ParseSession(token)
	if err != nil {
		return models.Profile{}, ErrInvalidCredential
	}

	profile, err := s.store.GetProfile(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return models.Profile{}, ErrUserNotFound
		}
		return models.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// resolveProfile loads the profile for a signed-in identity, creating it on
// first sign-in and applying the one-time super-admin provisioning step.
func (s *Service) resolveProfile(ctx context.Context, uid, email string) (models.Profile, error) {
	profile, err := s.store.GetProfile(ctx, uid)
	if errors.Is(err, mongodb.ErrNotFound) {
		profile = models.Profile{UID: uid, Name: nameFromEmail(email), Email: email, Role: models.RoleMember}
		if err := s.store.CreateProfile(ctx, profile); err != nil {
			return models.Profile{}, fmt.Errorf("create profile: %w", err)
		}
	} else if err != nil {
		return models.Profile{}, fmt.Errorf("load profile: %w", err)
	}

	return s.provisionSuperAdmin(ctx, profile)
}

// provisionSuperAdmin promotes allowlisted identities to the top privilege.
// Idempotent: exactly one role write on first recognition, zero afterwards.
func (s *Service) provisionSuperAdmin(ctx context.Context, profile models.Profile) (models.Profile, error) {
	if _, ok := s.superAdmins[strings.ToLower(profile.Email)]; !ok {
		return profile, nil
	}
	if profile.Role == models.RolePowerAdmin {
		return profile, nil
	}

	if err := s.store.UpdateProfileRole(ctx, profile.UID, models.RolePowerAdmin); err != nil {
		return models.Profile{}, fmt.Errorf("provision super admin: %w", err)
	}
	profile.Role = models.RolePowerAdmin
	s.logger.Info("super admin provisioned", zap.String("uid", profile.UID))
	return profile, nil
}

func (s *Service) issueSession(profile models.Profile) (Session, error) {
	token, expiresAt, err := s.tokens.IssueSession(profile)
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w", err)
	}
	return Session{Token: token, ExpiresAt: expiresAt, Profile: profile}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nameFromEmail derives a display name placeholder from the address local part.
func nameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
