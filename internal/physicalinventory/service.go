package physicalinventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/stockmanagement/internal/permission"
	"github.com/odyssey-erp/stockmanagement/internal/shared"
	"github.com/odyssey-erp/stockmanagement/internal/stockevent"
)

const idempotencyModule = "physical_inventory"

// Authorizer gates the submission behind the edit physical inventory right.
type Authorizer interface {
	Require(ctx context.Context, op permission.Operation, scope permission.Scope) error
}

// EventPublisher hands derived events to the event processing pipeline.
type EventPublisher interface {
	PublishStockEvents(ctx context.Context, sourceKey string, events []stockevent.Event) error
}

// IdempotencyPort guards against processing the same document twice.
type IdempotencyPort interface {
	Exists(ctx context.Context, key string) (bool, error)
	CheckAndInsert(ctx context.Context, key, module string) error
}

// Service coordinates physical inventory submissions.
type Service struct {
	authz       Authorizer
	publisher   EventPublisher
	idempotency IdempotencyPort
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewService builds Service. idempotency and logger may be nil.
func NewService(authz Authorizer, publisher EventPublisher, idempotency IdempotencyPort, logger *slog.Logger) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return &Service{authz: authz, publisher: publisher, idempotency: idempotency, validate: v, logger: logger}
}

// Preview checks access and returns the events a submission would produce.
func (s *Service) Preview(ctx context.Context, inv PhysicalInventory) ([]stockevent.Event, error) {
	if err := s.authorize(ctx, inv); err != nil {
		return nil, err
	}
	return ToEvents(inv)
}

// Submit checks access, derives stock events and publishes them for processing.
func (s *Service) Submit(ctx context.Context, inv PhysicalInventory) (SubmitResult, error) {
	if err := s.authorize(ctx, inv); err != nil {
		return SubmitResult{}, err
	}
	if inv.IsDraft {
		return SubmitResult{}, ErrDraftNotSubmittable
	}
	events, err := ToEvents(inv)
	if err != nil {
		return SubmitResult{}, err
	}

	// Keys are recorded after a successful publish; publishing dedupes by source key.
	key := sourceKey(inv)
	guarded := s.idempotency != nil && inv.DocumentNumber != ""
	if guarded {
		seen, err := s.idempotency.Exists(ctx, key)
		if err != nil {
			return SubmitResult{}, err
		}
		if seen {
			return SubmitResult{}, ErrAlreadySubmitted
		}
	}

	if err := s.publisher.PublishStockEvents(ctx, key, events); err != nil {
		return SubmitResult{}, fmt.Errorf("physicalinventory: publish events: %w", err)
	}

	if guarded {
		err := s.idempotency.CheckAndInsert(ctx, key, idempotencyModule)
		if err != nil && !errors.Is(err, shared.ErrIdempotencyConflict) {
			return SubmitResult{}, err
		}
	}

	if s.logger != nil {
		s.logger.Info("physical inventory submitted",
			slog.String("program_id", inv.ProgramID.String()),
			slog.String("facility_id", inv.FacilityID.String()),
			slog.String("document_number", inv.DocumentNumber),
			slog.Int("events", len(events)))
	}
	return SubmitResult{DocumentNumber: inv.DocumentNumber, Events: len(events)}, nil
}

func (s *Service) authorize(ctx context.Context, inv PhysicalInventory) error {
	if err := s.validateSubmission(inv); err != nil {
		return err
	}
	return s.authz.Require(ctx, permission.OpEditPhysicalInventory, permission.Scope{
		ProgramID:  permission.ID(inv.ProgramID),
		FacilityID: permission.ID(inv.FacilityID),
	})
}

func (s *Service) validateSubmission(inv PhysicalInventory) error {
	err := s.validate.Struct(inv)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.TrimPrefix(fe.Namespace(), "PhysicalInventory.")
		msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

// sourceKey identifies the submission; without a document number every submission is distinct.
func sourceKey(inv PhysicalInventory) string {
	if inv.DocumentNumber == "" {
		return fmt.Sprintf("pi:%s:%s:%s", inv.ProgramID, inv.FacilityID, uuid.NewString())
	}
	return fmt.Sprintf("pi:%s:%s:%s", inv.ProgramID, inv.FacilityID, inv.DocumentNumber)
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
