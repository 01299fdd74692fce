package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/realtime"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
)

// ErrMissingFields is returned when a funnel step lacks required fields.
var ErrMissingFields = errors.New("missing required fields")

// Funnel steps: contact info, farm details, confirmation.
const (
	StepContact = 1
	StepFarm    = 2
	StepConfirm = 3
)

// ApplicationForm carries the raw funnel input across steps.
type ApplicationForm struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	FarmName     string `json:"farmName"`
	FarmLocation string `json:"farmLocation"`
	FarmSize     string `json:"farmSize"`
}

// Service owns the public application funnel and admin triage.
type Service struct {
	store  mongodb.ApplicationStore
	broker *realtime.Broker
	logger *zap.Logger
}

// NewService wires a new membership service instance.
func NewService(store mongodb.ApplicationStore, broker *realtime.Broker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, broker: broker, logger: logger}
}

// ValidateStep gates forward movement through the funnel: a step with a
// missing required field refuses advancement and names the gaps.
func (s *Service) ValidateStep(step int, form ApplicationForm) error {
	var missing []string

	switch step {
	case StepContact:
		missing = requireFields(
			field{"name", form.Name},
			field{"email", form.Email},
			field{"phone", form.Phone},
		)
	case StepFarm:
		missing = requireFields(
			field{"farmLocation", form.FarmLocation},
			field{"farmSize", form.FarmSize},
		)
	case StepConfirm:
		// Confirmation re-checks everything before submit.
		if err := s.ValidateStep(StepContact, form); err != nil {
			return err
		}
		return s.ValidateStep(StepFarm, form)
	default:
		return fmt.Errorf("unknown funnel step %d", step)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	return nil
}

// Submit creates exactly one pending application with a server timestamp.
// Duplicate submissions are not deduplicated.
func (s *Service) Submit(ctx context.Context, form ApplicationForm) (models.MembershipApplication, error) {
	if err := s.ValidateStep(StepConfirm, form); err != nil {
		return models.MembershipApplication{}, err
	}

	app := models.MembershipApplication{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(form.Name),
		Email:        strings.TrimSpace(form.Email),
		Phone:        strings.TrimSpace(form.Phone),
		FarmName:     strings.TrimSpace(form.FarmName),
		FarmLocation: strings.TrimSpace(form.FarmLocation),
		FarmSize:     strings.TrimSpace(form.FarmSize),
		Status:       models.StatusPending,
		SubmittedAt:  time.Now().UTC(),
	}

	if err := s.store.InsertApplication(ctx, app); err != nil {
		return models.MembershipApplication{}, fmt.Errorf("submit application: %w", err)
	}

	s.logger.Info("application submitted", zap.String("id", app.ID))
	s.publishApplications(ctx)
	return app, nil
}

// List returns every application, newest first.
func (s *Service) List(ctx context.Context) ([]models.MembershipApplication, error) {
	return s.store.ListApplications(ctx)
}

// UpdateStatus triages one application.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	if !status.Valid() {
		return models.ErrInvalidStatus
	}
	if err := s.store.UpdateApplicationStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	s.publishApplications(ctx)
	return nil
}

// BulkUpdateStatus triages N applications atomically: all of them carry the
// new status afterwards, or none do.
func (s *Service) BulkUpdateStatus(ctx context.Context, ids []string, status models.ApplicationStatus) error {
	if !status.Valid() {
		return models.ErrInvalidStatus
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.store.BulkUpdateApplicationStatus(ctx, ids, status); err != nil {
		return fmt.Errorf("bulk update status: %w", err)
	}
	s.logger.Info("bulk status applied", zap.Int("count", len(ids)), zap.String("status", string(status)))
	s.publishApplications(ctx)
	return nil
}

// publishApplications pushes the fresh application list to admin subscribers.
// A failed re-read only costs the echo; the write itself already succeeded.
func (s *Service) publishApplications(ctx context.Context) {
	apps, err := s.store.ListApplications(ctx)
	if err != nil {
		s.logger.Warn("failed refreshing applications snapshot", zap.Error(err))
		return
	}
	s.broker.Publish(realtime.TopicApplications, apps)
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) []string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
