package food

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
	instrumentationName = "github.com/wosledon/vitanote/internal/food"
	eventKind           = "food"

	maxNameLength  = 200
	maxNotesLength = 1000
)

// Service manages food records.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService creates a food service.
func NewService(repo Repository, publisher events.Publisher, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("food repository is required")
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

// validate trims and checks in.
func validate(in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Notes = strings.TrimSpace(in.Notes)
	if n := utf8.RuneCountInString(in.Name); n == 0 || n > maxNameLength {
		return invalid("name must be 1-%d characters", maxNameLength)
	}
	if !in.MealType.Valid() {
		return invalid("meal_type must be breakfast, lunch, dinner or snack")
	}
	for name, v := range map[string]float64{
		"quantity_grams": in.QuantityGrams,
		"calories":       in.Calories,
		"carbohydrates":  in.Carbohydrates,
		"protein":        in.Protein,
		"fat":            in.Fat,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("%s must be a non-negative number", name)
		}
	}
	if utf8.RuneCountInString(in.Notes) > maxNotesLength {
		return invalid("notes must be at most %d characters", maxNotesLength)
	}
	return nil
}

func (r *Record) apply(in Input) {
	r.Name = in.Name
	r.MealType = in.MealType
	r.QuantityGrams = in.QuantityGrams
	r.Calories = in.Calories
	r.Carbohydrates = in.Carbohydrates
	r.Protein = in.Protein
	r.Fat = in.Fat
	r.Notes = in.Notes
	if !in.EatenAt.IsZero() {
		r.EatenAt = in.EatenAt.UTC().Truncate(time.Millisecond)
	}
}

// Create stores a food record.
func (s *Service) Create(ctx context.Context, userID string, in Input) (*Record, error) {
	ctx, span := s.tracer.Start(ctx, "food.Create")
	defer span.End()

	if err := validate(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	r := &Record{ID: uuid.NewString(), UserID: userID, EatenAt: now, CreatedAt: now, UpdatedAt: now}
	r.apply(in)

	if err := s.repo.CreateFood(ctx, r); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("creating food record: %w", err)
	}
	events.PublishAsync(ctx, s.publisher, s.logger, events.RecordCreated(eventKind), events.RecordEvent{
		RecordID: r.ID, UserID: userID, Kind: eventKind, OccurredAt: now,
	})
	return r, nil
}

// Get returns one of the user's food records.
func (s *Service) Get(ctx context.Context, userID, id string) (*Record, error) {
	ctx, span := s.tracer.Start(ctx, "food.Get")
	defer span.End()

	r, err := s.repo.GetFood(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting food record: %w", err)
	}
	return r, nil
}

// Update replaces a food record's fields.
func (s *Service) Update(ctx context.Context, userID, id string, in Input) (*Record, error) {
	ctx, span := s.tracer.Start(ctx, "food.Update")
	defer span.End()

	if err := validate(&in); err != nil {
		return nil, err
	}
	r, err := s.repo.GetFood(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting food record: %w", err)
	}
	r.apply(in)
	r.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.UpdateFood(ctx, r); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("updating food record: %w", err)
	}
	return r, nil
}

// Delete removes one of the user's food records.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "food.Delete")
	defer span.End()

	if err := s.repo.DeleteFood(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting food record: %w", err)
	}
	return nil
}

// List returns a page of the user's food records, newest first.
func (s *Service) List(ctx context.Context, userID string, opts v1.ListOptions) (v1.Page[*Record], error) {
	ctx, span := s.tracer.Start(ctx, "food.List")
	defer span.End()

	opts, err := opts.Normalize()
	if err != nil {
		return v1.Page[*Record]{}, err
	}
	items, total, err := s.repo.ListFoods(ctx, Filter{
		UserID: userID,
		From:   opts.From,
		To:     opts.To,
		Limit:  opts.PageSize,
		Offset: opts.Offset(),
	})
	if err != nil {
		span.RecordError(err)
		return v1.Page[*Record]{}, fmt.Errorf("listing food records: %w", err)
	}
	return v1.NewPage(items, total, opts), nil
}
