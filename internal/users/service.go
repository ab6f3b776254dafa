package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/config"
	v1 "github.com/wosledon/vitanote/pkg/api/v1"
	"github.com/wosledon/vitanote/pkg/auth"
)

const instrumentationName = "github.com/wosledon/vitanote/internal/users"

// errBadCredentials is shared by unknown users and wrong passwords.
var errBadCredentials = fmt.Errorf("%w: invalid username or password", v1.ErrUnauthorized)

// GlucoseRange is the configured glucose target in mmol/L that a one-sided
// user target is completed with.
type GlucoseRange struct {
	Low  float64
	High float64
}

// Service handles accounts.
type Service struct {
	repo    Repository
	hasher  *auth.Hasher
	tokens  *auth.TokenIssuer
	glucose GlucoseRange
	logger  *zap.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewService creates a user service.
func NewService(repo Repository, hasher *auth.Hasher, tokens *auth.TokenIssuer, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("user repository is required")
	}
	if hasher == nil || tokens == nil {
		return nil, errors.New("hasher and token issuer are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	th := config.Default().Thresholds
	return &Service{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		glucose: GlucoseRange{Low: th.GlucoseLow, High: th.GlucoseHigh},
		logger:  logger,
		tracer:  otel.Tracer(instrumentationName),
		now:     time.Now,
	}, nil
}

// SetGlucoseDefaults replaces the configured glucose range used to validate
// one-sided targets.
func (s *Service) SetGlucoseDefaults(r GlucoseRange) {
	s.glucose = r
}

// Register creates an account and returns a token for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "users.Register")
	defer span.End()

	username := strings.TrimSpace(req.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = username
	}
	if err := validateDisplayName(displayName); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", v1.ErrInvalidRequest, err)
	}
	diabetesType := req.DiabetesType
	if diabetesType == "" {
		diabetesType = DiabetesNone
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		DiabetesType: diabetesType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := validateProfile(u, s.glucose); err != nil {
		return nil, err
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		span.RecordError(err)
		if !errors.Is(err, v1.ErrConflict) {
			span.SetStatus(codes.Error, "create user failed")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	span.SetAttributes(attribute.String("user.id", u.ID))

	tok, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return &AuthResult{Token: tok, User: u}, nil
}

// Login verifies credentials. The identifier may be a username or an email.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "users.Login")
	defer span.End()

	ident := strings.TrimSpace(req.Username)
	if ident == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", v1.ErrInvalidRequest)
	}

	var (
		u   *User
		err error
	)
	if strings.Contains(ident, "@") {
		u, err = s.repo.GetUserByEmail(ctx, strings.ToLower(ident))
	} else {
		u, err = s.repo.GetUserByUsername(ctx, ident)
	}
	if errors.Is(err, v1.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", zap.String("user_id", u.ID))
			return nil, errBadCredentials
		}
		span.RecordError(err)
		return nil, err
	}

	tok, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Debug("user logged in", zap.String("user_id", u.ID))
	return &AuthResult{Token: tok, User: u}, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "users.Get")
	defer span.End()

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of upd.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "users.UpdateProfile")
	defer span.End()

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if name == "" {
			name = u.Username
		}
		if err := validateDisplayName(name); err != nil {
			return nil, err
		}
		u.DisplayName = name
	}
	if upd.Email != nil {
		email, err := normalizeEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		u.Email = email
	}
	if upd.DiabetesType != nil {
		u.DiabetesType = *upd.DiabetesType
	}
	if upd.HeightCM != nil {
		u.HeightCM = *upd.HeightCM
	}
	if upd.TargetGlucoseMin != nil {
		u.TargetGlucoseMin = *upd.TargetGlucoseMin
	}
	if upd.TargetGlucoseMax != nil {
		u.TargetGlucoseMax = *upd.TargetGlucoseMax
	}
	if err := validateProfile(u, s.glucose); err != nil {
		return nil, err
	}

	u.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID string, change PasswordChange) error {
	ctx, span := s.tracer.Start(ctx, "users.ChangePassword")
	defer span.End()

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("getting user: %w", err)
	}
	if err := s.hasher.Compare(u.PasswordHash, change.Current); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return fmt.Errorf("%w: current password is incorrect", v1.ErrInvalidRequest)
		}
		return err
	}
	if change.New == change.Current {
		return fmt.Errorf("%w: new password must differ from the current one", v1.ErrInvalidRequest)
	}
	hash, err := s.hasher.Hash(change.New)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return fmt.Errorf("%w: %v", v1.ErrInvalidRequest, err)
		}
		return err
	}

	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		span.RecordError(err)
		return fmt.Errorf("updating user: %w", err)
	}
	s.logger.Info("password changed", zap.String("user_id", u.ID))
	return nil
}
