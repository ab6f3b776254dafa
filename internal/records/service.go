package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/events"
	"github.com/wosledon/vitanote/internal/users"
	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

const instrumentationName = "github.com/wosledon/vitanote/internal/records"

// MaxNotesLength is the longest accepted notes text in characters.
const MaxNotesLength = 1000

// UserLookup loads the profile whose glucose target overrides thresholds.
type UserLookup interface {
	Get(ctx context.Context, userID string) (*users.User, error)
}

// Service manages health records.
type Service struct {
	repo       Repository
	users      UserLookup
	publisher  events.Publisher
	thresholds Thresholds
	logger     *zap.Logger

	tracer       trace.Tracer
	alertCounter metric.Int64Counter
	now          func() time.Time
}

// Options configures a records Service.
type Options struct {
	Repository Repository
	Users      UserLookup
	Publisher  events.Publisher
	Thresholds Thresholds
	Logger     *zap.Logger
}

// NewService creates a records service.
func NewService(opts Options) (*Service, error) {
	if opts.Repository == nil {
		return nil, errors.New("record repository is required")
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Service{
		repo:       opts.Repository,
		users:      opts.Users,
		publisher:  opts.Publisher,
		thresholds: opts.Thresholds,
		logger:     opts.Logger,
		tracer:     otel.Tracer(instrumentationName),
		now:        time.Now,
	}

	var err error
	s.alertCounter, err = otel.Meter(instrumentationName).Int64Counter(
		"vitanote.records.alerts_total",
		metric.WithDescription("Health alerts raised by new readings"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		s.logger.Warn("failed to create alert counter", zap.Error(err))
	}
	return s, nil
}

func (s *Service) prepare(in Input) (json.RawMessage, string, error) {
	if !in.Type.Valid() {
		return nil, "", invalid("unknown record type %q", in.Type)
	}
	value, err := normalizeValue(in.Type, in.Value, in.Unit)
	if err != nil {
		return nil, "", err
	}
	notes := strings.TrimSpace(in.Notes)
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return nil, "", invalid("notes must be at most %d characters", MaxNotesLength)
	}
	return value, notes, nil
}

// Create validates and stores a record, then evaluates alerts.
func (s *Service) Create(ctx context.Context, userID string, in Input) (*CreateResult, error) {
	ctx, span := s.tracer.Start(ctx, "records.Create", trace.WithAttributes(
		attribute.String("record.type", string(in.Type)),
	))
	defer span.End()

	value, notes, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	recordedAt := in.RecordedAt.UTC().Truncate(time.Millisecond)
	if in.RecordedAt.IsZero() {
		recordedAt = now
	}

	r := &HealthRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		Type:       in.Type,
		Value:      value,
		RecordedAt: recordedAt,
		Notes:      notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateRecord(ctx, r); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("creating record: %w", err)
	}
	span.SetAttributes(attribute.String("record.id", r.ID))

	events.PublishAsync(ctx, s.publisher, s.logger, events.RecordCreated(string(r.Type)), events.RecordEvent{
		RecordID:   r.ID,
		UserID:     userID,
		Kind:       string(r.Type),
		OccurredAt: now,
	})

	alerts := s.evaluate(ctx, r)
	for _, a := range alerts {
		events.PublishAsync(ctx, s.publisher, s.logger, events.Alert(string(a.Type)), a)
		if s.alertCounter != nil {
			s.alertCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("alert", string(a.Type))))
		}
		s.logger.Info("health alert raised",
			zap.String("user_id", userID),
			zap.String("record_id", r.ID),
			zap.String("alert", string(a.Type)),
		)
	}

	return &CreateResult{HealthRecord: r, Alerts: alerts}, nil
}

// thresholdsFor applies the user's glucose target, if any.
func (s *Service) thresholdsFor(ctx context.Context, userID string) Thresholds {
	th := s.thresholds
	if s.users == nil {
		return th
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("loading user thresholds failed", zap.String("user_id", userID), zap.Error(err))
		return th
	}
	return th.WithGlucoseTarget(u.TargetGlucoseMin, u.TargetGlucoseMax)
}

func (s *Service) evaluate(ctx context.Context, r *HealthRecord) []Alert {
	var types []AlertType
	switch r.Type {
	case TypeGlucose:
		g, err := r.Glucose()
		if err != nil {
			return []Alert{}
		}
		types = s.thresholdsFor(ctx, r.UserID).EvaluateGlucose(g)
	case TypeBloodPressure:
		bp, err := r.BloodPressure()
		if err != nil {
			return []Alert{}
		}
		types = s.thresholds.EvaluateBloodPressure(bp)
	}

	alerts := make([]Alert, 0, len(types))
	for _, t := range types {
		alerts = append(alerts, Alert{
			Type:       t,
			Message:    alertMessage(t, r),
			RecordID:   r.ID,
			UserID:     r.UserID,
			RecordedAt: r.RecordedAt,
		})
	}
	return alerts
}

// Get returns one of the user's records. A non-empty typ must match.
func (s *Service) Get(ctx context.Context, userID, id string, typ RecordType) (*HealthRecord, error) {
	ctx, span := s.tracer.Start(ctx, "records.Get")
	defer span.End()

	r, err := s.repo.GetRecord(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	if typ != "" && r.Type != typ {
		return nil, fmt.Errorf("getting record: %w", v1.ErrNotFound)
	}
	return r, nil
}

// Update replaces the value, time and notes of a record. The type cannot
// change; an empty Input.Type keeps the stored one.
func (s *Service) Update(ctx context.Context, userID, id string, in Input) (*HealthRecord, error) {
	ctx, span := s.tracer.Start(ctx, "records.Update")
	defer span.End()

	r, err := s.repo.GetRecord(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	if in.Type == "" {
		in.Type = r.Type
	}
	if in.Type != r.Type {
		return nil, invalid("record type cannot change from %s to %s", r.Type, in.Type)
	}

	value, notes, err := s.prepare(in)
	if err != nil {
		return nil, err
	}
	r.Value = value
	r.Notes = notes
	if !in.RecordedAt.IsZero() {
		r.RecordedAt = in.RecordedAt.UTC().Truncate(time.Millisecond)
	}
	r.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

	if err := s.repo.UpdateRecord(ctx, r); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("updating record: %w", err)
	}
	return r, nil
}

// Delete removes one of the user's records. A non-empty typ must match.
func (s *Service) Delete(ctx context.Context, userID, id string, typ RecordType) error {
	ctx, span := s.tracer.Start(ctx, "records.Delete")
	defer span.End()

	if typ != "" {
		if _, err := s.Get(ctx, userID, id, typ); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteRecord(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// List returns a page of the user's records, newest first.
func (s *Service) List(ctx context.Context, userID string, typ RecordType, opts v1.ListOptions) (v1.Page[*HealthRecord], error) {
	ctx, span := s.tracer.Start(ctx, "records.List")
	defer span.End()

	if typ != "" && !typ.Valid() {
		return v1.Page[*HealthRecord]{}, invalid("unknown record type %q", typ)
	}
	opts, err := opts.Normalize()
	if err != nil {
		return v1.Page[*HealthRecord]{}, err
	}

	items, total, err := s.repo.ListRecords(ctx, Filter{
		UserID: userID,
		Type:   typ,
		From:   opts.From,
		To:     opts.To,
		Limit:  opts.PageSize,
		Offset: opts.Offset(),
	})
	if err != nil {
		span.RecordError(err)
		return v1.Page[*HealthRecord]{}, fmt.Errorf("listing records: %w", err)
	}
	return v1.NewPage(items, total, opts), nil
}
