package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/chat"
	"github.com/wosledon/vitanote/internal/config"
	"github.com/wosledon/vitanote/internal/events"
	"github.com/wosledon/vitanote/internal/food"
	"github.com/wosledon/vitanote/internal/medication"
	"github.com/wosledon/vitanote/internal/records"
	"github.com/wosledon/vitanote/internal/statistics"
	"github.com/wosledon/vitanote/internal/store"
	"github.com/wosledon/vitanote/internal/users"
	"github.com/wosledon/vitanote/pkg/auth"
)

// Build opens the store and event publisher described by cfg and wires every
// service. The returned close function releases both.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Registry, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Key:      []byte(cfg.Auth.JWTSecret.Value()),
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TTL:      cfg.Auth.TokenTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("token issuer: %w", err)
	}

	db, err := store.Open(ctx, store.Config{
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}, logger.Named("store"))
	if err != nil {
		return nil, nil, err
	}

	publisher, err := events.New(events.NATSConfig{
		URL:           cfg.Events.NATSURL,
		SubjectPrefix: cfg.Events.SubjectPrefix,
		Name:          cfg.Observability.ServiceName,
	}, logger.Named("events"))
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	closeAll := func() error {
		return errors.Join(publisher.Close(), db.Close())
	}

	reg, err := wire(db, publisher, tokens, cfg, logger)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	return reg, closeAll, nil
}

func wire(db *store.Store, publisher events.Publisher, tokens *auth.TokenIssuer, cfg *config.Config, logger *zap.Logger) (Registry, error) {
	thresholds := records.ThresholdsFromConfig(cfg.Thresholds)

	userSvc, err := users.NewService(db, auth.NewHasher(cfg.Auth.BcryptCost), tokens, logger.Named("users"))
	if err != nil {
		return nil, err
	}
	userSvc.SetGlucoseDefaults(users.GlucoseRange{Low: thresholds.GlucoseLow, High: thresholds.GlucoseHigh})
	recordSvc, err := records.NewService(records.Options{
		Repository: db,
		Users:      userSvc,
		Publisher:  publisher,
		Thresholds: thresholds,
		Logger:     logger.Named("records"),
	})
	if err != nil {
		return nil, err
	}
	foodSvc, err := food.NewService(db, publisher, logger.Named("food"))
	if err != nil {
		return nil, err
	}
	medSvc, err := medication.NewService(db, publisher, logger.Named("medication"))
	if err != nil {
		return nil, err
	}
	statsSvc, err := statistics.NewService(statistics.Options{
		Records:     db,
		Foods:       db,
		Medications: db,
		Users:       userSvc,
		Thresholds:  thresholds,
		Logger:      logger.Named("statistics"),
	})
	if err != nil {
		return nil, err
	}
	chatSvc, err := chat.NewService(db, chat.NewRuleAssistant(), statsSvc, logger.Named("chat"))
	if err != nil {
		return nil, err
	}

	return NewRegistry(Options{
		Users:      userSvc,
		Records:    recordSvc,
		Food:       foodSvc,
		Medication: medSvc,
		Statistics: statsSvc,
		Chat:       chatSvc,
		Tokens:     tokens,
		Publisher:  publisher,
		Database:   db,
	}), nil
}
