package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/geocoder89/fleetreg/internal/cache"
	"github.com/geocoder89/fleetreg/internal/domain/event"
	"github.com/geocoder89/fleetreg/internal/domain/registration"
	"github.com/geocoder89/fleetreg/internal/observability"
	"github.com/geocoder89/fleetreg/internal/storage"
	"github.com/geocoder89/fleetreg/internal/validation"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultDocumentType = "document"

var documentTypePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

// requestValidator applies the request's binding tags for callers that bypass the HTTP layer.
var requestValidator = validation.New()

type RegistrationStore interface {
	PlateLookup
	Create(ctx context.Context, reg registration.Registration) (registration.Registration, error)
	GetByID(ctx context.Context, id string) (registration.Registration, error)
	List(ctx context.Context, params registration.ListParams) ([]registration.Registration, int64, error)
}

// EventPublisher must not block; the return value only reports whether the event was accepted.
type EventPublisher interface {
	Publish(evt event.RegistrationCreated) bool
}

type UploadPresigner interface {
	PresignUpload(ctx context.Context, registrationID, documentType string) (storage.UploadURL, error)
}

type Registrations struct {
	store     RegistrationStore
	guard     *DuplicateGuard
	publisher EventPublisher
	presigner UploadPresigner
	cache     *cache.Cache[registration.Registration]
	log       *slog.Logger
	prom      *observability.Prom
	tracer    trace.Tracer
	now       func() time.Time
}

type Option func(*Registrations)

func WithClock(now func() time.Time) Option {
	return func(s *Registrations) { s.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Registrations) { s.log = log }
}

func WithProm(prom *observability.Prom) Option {
	return func(s *Registrations) { s.prom = prom }
}

// WithReadCache serves GetByID and upload existence checks from c. Status
// changes made through StatusChanges evict the entry when they share c.
func WithReadCache(c *cache.Cache[registration.Registration]) Option {
	return func(s *Registrations) { s.cache = c }
}

func NewRegistrations(store RegistrationStore, publisher EventPublisher, presigner UploadPresigner, opts ...Option) *Registrations {
	s := &Registrations{
		store:     store,
		guard:     NewDuplicateGuard(store),
		publisher: publisher,
		presigner: presigner,
		log:       slog.Default(),
		tracer:    otel.Tracer(observability.TracerName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create runs normalize, year rule, precheck, insert, publish, in that order.
func (s *Registrations) Create(ctx context.Context, req registration.CreateRegistrationRequest) (resp registration.Response, err error) {
	ctx, span := s.tracer.Start(ctx, "registrations.create")
	defer func() {
		kind := "created"
		if err != nil {
			kind = string(registration.KindOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, kind)
		}
		s.prom.RegistrationOutcome(kind)
		span.End()
	}()

	req.Normalize()

	plate := validation.NormalizePlate(req.Plate)
	taxID := validation.NormalizeTaxID(req.TaxID)
	span.SetAttributes(attribute.String("registration.plate", plate))

	if !validation.IsValidPlate(plate) {
		return registration.Response{}, registration.NewValidationError(fmt.Sprintf("plate %q does not match a known format", req.Plate))
	}
	if !validation.IsValidTaxID(taxID) {
		return registration.Response{}, registration.NewValidationError("tax ID check digit is invalid")
	}

	if req.Year < 1900 {
		return registration.Response{}, registration.NewValidationError("vehicle year must be 1900 or later")
	}
	if err := checkRequest(req); err != nil {
		return registration.Response{}, err
	}

	currentYear := s.now().Year()
	if req.Year > currentYear {
		s.log.InfoContext(ctx, "registration.create.rejected", "plate", plate, "reason", "future_year", "year", req.Year)
		return registration.Response{}, registration.NewBusinessRuleError(
			fmt.Sprintf("vehicle year %d cannot be later than the current year %d", req.Year, currentYear))
	}

	taken, err := s.guard.Precheck(ctx, plate)
	if err != nil {
		s.log.ErrorContext(ctx, "registration.create.precheck_failed", "plate", plate, "err", err)
		return registration.Response{}, registration.NewInternalError("could not verify plate availability", err)
	}
	if taken {
		s.log.InfoContext(ctx, "registration.create.duplicate", "plate", plate, "path", "precheck")
		return registration.Response{}, registration.NewDuplicatePlateError(plate, nil)
	}

	rec := registration.NewFromCreateRequest(req, plate, taxID)

	saved, err := s.store.Create(ctx, rec)
	if err != nil {
		return registration.Response{}, s.translateCreateErr(ctx, plate, err)
	}

	s.log.InfoContext(ctx, "registration.create.ok", "registration_id", saved.ID, "plate", saved.Plate)
	if s.cache != nil {
		s.cache.Set(saved.ID, saved)
	}

	if s.publisher != nil {
		if !s.publisher.Publish(event.NewRegistrationCreated(saved, s.now())) {
			s.log.WarnContext(ctx, "registration.create.event_not_queued", "registration_id", saved.ID)
		}
	}

	return registration.ToResponse(saved), nil
}

func (s *Registrations) translateCreateErr(ctx context.Context, plate string, err error) error {
	switch {
	case errors.Is(err, registration.ErrPlateTaken):
		s.log.InfoContext(ctx, "registration.create.duplicate", "plate", plate, "path", "constraint")
		return registration.NewDuplicatePlateError(plate, err)
	case errors.Is(err, registration.ErrConstraint):
		s.log.WarnContext(ctx, "registration.create.integrity", "plate", plate, "err", err)
		return registration.NewIntegrityError(plate, err)
	default:
		s.log.ErrorContext(ctx, "registration.create.store_failed", "plate", plate, "err", err)
		return registration.NewInternalError("could not save registration", err)
	}
}

func (s *Registrations) GetByID(ctx context.Context, id string) (registration.Response, error) {
	ctx, span := s.tracer.Start(ctx, "registrations.get_by_id", trace.WithAttributes(attribute.String("registration.id", id)))
	defer span.End()

	reg, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			return registration.Response{}, registration.NewNotFoundError(id)
		}
		span.RecordError(err)
		return registration.Response{}, registration.NewInternalError("could not load registration", err)
	}
	return registration.ToResponse(reg), nil
}

func (s *Registrations) load(ctx context.Context, id string) (registration.Registration, error) {
	if s.cache != nil {
		if reg, ok := s.cache.Get(id); ok {
			return reg, nil
		}
	}

	reg, err := s.store.GetByID(ctx, id)
	if err != nil {
		return registration.Registration{}, err
	}

	if s.cache != nil {
		s.cache.Set(id, reg)
	}
	return reg, nil
}

func (s *Registrations) List(ctx context.Context, params registration.ListParams) (registration.Page[registration.Response], error) {
	params = params.Normalize()
	if _, ok := params.SortColumn(); !ok {
		return registration.Page[registration.Response]{}, registration.NewValidationError(
			fmt.Sprintf("unsupported sortBy %q", params.SortBy))
	}

	ctx, span := s.tracer.Start(ctx, "registrations.list")
	defer span.End()

	items, total, err := s.store.List(ctx, params)
	if err != nil {
		span.RecordError(err)
		return registration.Page[registration.Response]{}, registration.NewInternalError("could not list registrations", err)
	}

	page := registration.NewPage(items, params.Page, params.Size, total)
	return registration.MapPage(page, registration.ToResponse), nil
}

// IssueUploadURL returns a presigned PUT URL for a document of an existing registration.
func (s *Registrations) IssueUploadURL(ctx context.Context, id, documentType string) (storage.UploadURL, error) {
	documentType = strings.TrimSpace(documentType)
	if documentType == "" {
		documentType = DefaultDocumentType
	}
	if !documentTypePattern.MatchString(documentType) {
		return storage.UploadURL{}, registration.NewValidationError(
			"documentType must be 1-50 letters, digits, '_' or '-'")
	}

	ctx, span := s.tracer.Start(ctx, "registrations.issue_upload_url", trace.WithAttributes(attribute.String("registration.id", id)))
	defer span.End()

	if _, err := s.load(ctx, id); err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			return storage.UploadURL{}, registration.NewNotFoundError(id)
		}
		return storage.UploadURL{}, registration.NewInternalError("could not load registration", err)
	}

	out, err := s.presigner.PresignUpload(ctx, id, documentType)
	if err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "registration.upload_url.failed", "registration_id", id, "err", err)
		return storage.UploadURL{}, registration.NewUpstreamError(id, "could not generate upload URL", err)
	}
	return out, nil
}

// checkRequest runs the binding tags on an already normalized request. The year upper bound
// is left to the caller because it depends on the clock.
func checkRequest(req registration.CreateRegistrationRequest) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return registration.NewValidationError("invalid registration request")
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fe.Field()+" ("+fe.Tag()+")")
	}
	return registration.NewValidationError("invalid fields: " + strings.Join(parts, ", "))
}
