package statistics

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wosledon/vitanote/internal/food"
	"github.com/wosledon/vitanote/internal/medication"
	"github.com/wosledon/vitanote/internal/records"
	"github.com/wosledon/vitanote/internal/users"
)

const instrumentationName = "github.com/wosledon/vitanote/internal/statistics"

// RecordLister loads health records.
type RecordLister interface {
	ListRecords(ctx context.Context, f records.Filter) ([]*records.HealthRecord, int, error)
}

// FoodLister loads food records.
type FoodLister interface {
	ListFoods(ctx context.Context, f food.Filter) ([]*food.Record, int, error)
}

// MedicationLister loads medication events.
type MedicationLister interface {
	ListMedications(ctx context.Context, f medication.Filter) ([]*medication.Medication, int, error)
}

// UserLookup loads the profile (target range, height) used by aggregates.
type UserLookup interface {
	Get(ctx context.Context, userID string) (*users.User, error)
}

// Overview bundles every aggregate for one range.
type Overview struct {
	Range         Range              `json:"range"`
	Glucose       GlucoseStats       `json:"glucose"`
	BloodPressure BloodPressureStats `json:"blood_pressure"`
	Weight        WeightStats        `json:"weight"`
	Food          FoodStats          `json:"food"`
	Medication    MedicationStats    `json:"medication"`
}

// Options configures a statistics Service.
type Options struct {
	Records     RecordLister
	Foods       FoodLister
	Medications MedicationLister
	Users       UserLookup
	Thresholds  records.Thresholds
	Logger      *zap.Logger
}

// Service computes statistics from stored records.
type Service struct {
	records     RecordLister
	foods       FoodLister
	medications MedicationLister
	users       UserLookup
	thresholds  records.Thresholds
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewService creates a statistics service.
func NewService(opts Options) (*Service, error) {
	if opts.Records == nil || opts.Foods == nil || opts.Medications == nil {
		return nil, errors.New("record, food and medication sources are required")
	}
	if opts.Thresholds == (records.Thresholds{}) {
		opts.Thresholds = records.DefaultThresholds()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		records:     opts.Records,
		foods:       opts.Foods,
		medications: opts.Medications,
		users:       opts.Users,
		thresholds:  opts.Thresholds,
		logger:      opts.Logger,
		tracer:      otel.Tracer(instrumentationName),
	}, nil
}

func (s *Service) start(ctx context.Context, name, userID string, r Range) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int("range.days", len(r.Days())),
	))
}

func (s *Service) profile(ctx context.Context, userID string) *users.User {
	if s.users == nil {
		return &users.User{ID: userID}
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("loading user profile for statistics failed", zap.String("user_id", userID), zap.Error(err))
		return &users.User{ID: userID}
	}
	return u
}

func (s *Service) loadRecords(ctx context.Context, userID string, t records.RecordType, r Range) ([]*records.HealthRecord, error) {
	recs, _, err := s.records.ListRecords(ctx, records.Filter{UserID: userID, Type: t, From: r.From, To: r.To})
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	return recs, nil
}

func (s *Service) loadFoods(ctx context.Context, userID string, r Range) ([]*food.Record, error) {
	foods, _, err := s.foods.ListFoods(ctx, food.Filter{UserID: userID, From: r.From, To: r.To})
	if err != nil {
		return nil, fmt.Errorf("loading food records: %w", err)
	}
	return foods, nil
}

func (s *Service) loadMedications(ctx context.Context, userID string, r Range) ([]*medication.Medication, error) {
	meds, _, err := s.medications.ListMedications(ctx, medication.Filter{UserID: userID, From: r.From, To: r.To})
	if err != nil {
		return nil, fmt.Errorf("loading medications: %w", err)
	}
	return meds, nil
}

func (s *Service) glucoseTarget(u *users.User) (float64, float64) {
	th := s.thresholds.WithGlucoseTarget(u.TargetGlucoseMin, u.TargetGlucoseMax)
	return th.GlucoseLow, th.GlucoseHigh
}

// Glucose returns glucose statistics.
func (s *Service) Glucose(ctx context.Context, userID string, r Range) (GlucoseStats, error) {
	ctx, span := s.start(ctx, "statistics.Glucose", userID, r)
	defer span.End()

	recs, err := s.loadRecords(ctx, userID, records.TypeGlucose, r)
	if err != nil {
		span.RecordError(err)
		return GlucoseStats{}, err
	}
	low, high := s.glucoseTarget(s.profile(ctx, userID))
	return Glucose(recs, low, high), nil
}

// BloodPressure returns blood-pressure statistics.
func (s *Service) BloodPressure(ctx context.Context, userID string, r Range) (BloodPressureStats, error) {
	ctx, span := s.start(ctx, "statistics.BloodPressure", userID, r)
	defer span.End()

	recs, err := s.loadRecords(ctx, userID, records.TypeBloodPressure, r)
	if err != nil {
		span.RecordError(err)
		return BloodPressureStats{}, err
	}
	return BloodPressure(recs), nil
}

// Weight returns weight statistics.
func (s *Service) Weight(ctx context.Context, userID string, r Range) (WeightStats, error) {
	ctx, span := s.start(ctx, "statistics.Weight", userID, r)
	defer span.End()

	recs, err := s.loadRecords(ctx, userID, records.TypeWeight, r)
	if err != nil {
		span.RecordError(err)
		return WeightStats{}, err
	}
	return Weight(recs, s.profile(ctx, userID).HeightCM), nil
}

// Food returns food statistics.
func (s *Service) Food(ctx context.Context, userID string, r Range) (FoodStats, error) {
	ctx, span := s.start(ctx, "statistics.Food", userID, r)
	defer span.End()

	foods, err := s.loadFoods(ctx, userID, r)
	if err != nil {
		span.RecordError(err)
		return FoodStats{}, err
	}
	return Food(foods, len(r.Days())), nil
}

// Medications returns medication statistics.
func (s *Service) Medications(ctx context.Context, userID string, r Range) (MedicationStats, error) {
	ctx, span := s.start(ctx, "statistics.Medications", userID, r)
	defer span.End()

	meds, err := s.loadMedications(ctx, userID, r)
	if err != nil {
		span.RecordError(err)
		return MedicationStats{}, err
	}
	return Medications(meds), nil
}

// Overview returns every aggregate for the range. The three sources are
// loaded concurrently.
func (s *Service) Overview(ctx context.Context, userID string, r Range) (*Overview, error) {
	ctx, span := s.start(ctx, "statistics.Overview", userID, r)
	defer span.End()

	var (
		recs  []*records.HealthRecord
		foods []*food.Record
		meds  []*medication.Medication
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		recs, err = s.loadRecords(gctx, userID, "", r)
		return err
	})
	g.Go(func() (err error) {
		foods, err = s.loadFoods(gctx, userID, r)
		return err
	})
	g.Go(func() (err error) {
		meds, err = s.loadMedications(gctx, userID, r)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	u := s.profile(ctx, userID)
	low, high := s.glucoseTarget(u)
	return &Overview{
		Range:         r,
		Glucose:       Glucose(recs, low, high),
		BloodPressure: BloodPressure(recs),
		Weight:        Weight(recs, u.HeightCM),
		Food:          Food(foods, len(r.Days())),
		Medication:    Medications(meds),
	}, nil
}

// Daily returns one point per day of the range.
func (s *Service) Daily(ctx context.Context, userID string, r Range) ([]DailyPoint, error) {
	ctx, span := s.start(ctx, "statistics.Daily", userID, r)
	defer span.End()

	recs, err := s.loadRecords(ctx, userID, "", r)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	foods, err := s.loadFoods(ctx, userID, r)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return Daily(r, recs, foods), nil
}
