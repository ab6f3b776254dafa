package medication

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/events"
	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

const (
	instrumentationName = "github.com/wosledon/vitanote/internal/medication"
	eventKind           = "medication"

	maxNameLength      = 200
	maxUnitLength      = 20
	maxFrequencyLength = 100
	maxNotesLength     = 1000
)

// Service manages medication events.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService creates a medication service.
func NewService(repo Repository, publisher events.Publisher, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("medication repository is required")
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		now:       time.Now,
	}, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", v1.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func validate(in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Frequency = strings.TrimSpace(in.Frequency)
	in.Notes = strings.TrimSpace(in.Notes)

	if n := utf8.RuneCountInString(in.Name); n == 0 || n > maxNameLength {
		return invalid("name must be 1-%d characters", maxNameLength)
	}
	if in.Dosage <= 0 || math.IsNaN(in.Dosage) || math.IsInf(in.Dosage, 0) {
		return invalid("dosage must be greater than 0")
	}
	if n := utf8.RuneCountInString(in.Unit); n == 0 || n > maxUnitLength {
		return invalid("unit must be 1-%d characters", maxUnitLength)
	}
	if utf8.RuneCountInString(in.Frequency) > maxFrequencyLength {
		return invalid("frequency must be at most %d characters", maxFrequencyLength)
	}
	if utf8.RuneCountInString(in.Notes) > maxNotesLength {
		return invalid("notes must be at most %d characters", maxNotesLength)
	}
	return nil
}

func (m *Medication) apply(in Input) {
	m.Name = in.Name
	m.Dosage = in.Dosage
	m.Unit = in.Unit
	m.Frequency = in.Frequency
	m.Notes = in.Notes
	if !in.TakenAt.IsZero() {
		m.TakenAt = in.TakenAt.UTC().Truncate(time.Millisecond)
	}
}

// Create stores a medication event.
func (s *Service) Create(ctx context.Context, userID string, in Input) (*Medication, error) {
	ctx, span := s.tracer.Start(ctx, "medication.Create")
	defer span.End()

	if err := validate(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	m := &Medication{ID: uuid.NewString(), UserID: userID, TakenAt: now, CreatedAt: now, UpdatedAt: now}
	m.apply(in)

	if err := s.repo.CreateMedication(ctx, m); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("creating medication: %w", err)
	}
	events.PublishAsync(ctx, s.publisher, s.logger, events.RecordCreated(eventKind), events.RecordEvent{
		RecordID: m.ID, UserID: userID, Kind: eventKind, OccurredAt: now,
	})
	return m, nil
}

// Get returns one of the user's medication events.
func (s *Service) Get(ctx context.Context, userID, id string) (*Medication, error) {
	ctx, span := s.tracer.Start(ctx, "medication.Get")
	defer span.End()

	m, err := s.repo.GetMedication(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting medication: %w", err)
	}
	return m, nil
}

// Update replaces a medication event's fields.
func (s *Service) Update(ctx context.Context, userID, id string, in Input) (*Medication, error) {
	ctx, span := s.tracer.Start(ctx, "medication.Update")
	defer span.End()

	if err := validate(&in); err != nil {
		return nil, err
	}
	m, err := s.repo.GetMedication(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting medication: %w", err)
	}
	m.apply(in)
	m.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.UpdateMedication(ctx, m); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("updating medication: %w", err)
	}
	return m, nil
}

// Delete removes one of the user's medication events.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "medication.Delete")
	defer span.End()

	if err := s.repo.DeleteMedication(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting medication: %w", err)
	}
	return nil
}

// List returns a page of the user's medication events, newest first.
func (s *Service) List(ctx context.Context, userID string, opts v1.ListOptions) (v1.Page[*Medication], error) {
	ctx, span := s.tracer.Start(ctx, "medication.List")
	defer span.End()

	opts, err := opts.Normalize()
	if err != nil {
		return v1.Page[*Medication]{}, err
	}
	items, total, err := s.repo.ListMedications(ctx, Filter{
		UserID: userID,
		From:   opts.From,
		To:     opts.To,
		Limit:  opts.PageSize,
		Offset: opts.Offset(),
	})
	if err != nil {
		span.RecordError(err)
		return v1.Page[*Medication]{}, fmt.Errorf("listing medications: %w", err)
	}
	return v1.NewPage(items, total, opts), nil
}
