package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/config"
	"github.com/wosledon/vitanote/internal/events"
	"github.com/wosledon/vitanote/internal/records"
	"github.com/wosledon/vitanote/internal/users"
)

func TestNewRegistry(t *testing.T) {
	var _ Registry = (*registry)(nil)

	reg := NewRegistry(Options{})
	assert.Nil(t, reg.Users())
	assert.Nil(t, reg.Records())
	assert.Nil(t, reg.Food())
	assert.Nil(t, reg.Medication())
	assert.Nil(t, reg.Statistics())
	assert.Nil(t, reg.Chat())
	assert.Nil(t, reg.Tokens())
	assert.Nil(t, reg.Database())
	assert.IsType(t, events.NopPublisher{}, reg.Publisher())
}

func TestBuild_RejectsWeakSecret(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "vitanote.db")
	cfg.Auth.JWTSecret = config.Secret("short")

	_, _, err := Build(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestBuild_WiresServices(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "vitanote.db")
	cfg.Auth.JWTSecret = config.Secret(strings.Repeat("k", 32))
	cfg.Auth.BcryptCost = 4

	reg, closeFn, err := Build(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, closeFn()) })

	require.NoError(t, reg.Database().Ping(ctx))
	assert.IsType(t, events.NopPublisher{}, reg.Publisher())

	res, err := reg.Users().Register(ctx, users.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	claims, err := reg.Tokens().Validate(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID())

	created, err := reg.Records().Create(ctx, res.User.ID, records.Input{
		Type:  records.TypeGlucose,
		Value: []byte(`{"value": 12.5}`),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.Alerts)
}
