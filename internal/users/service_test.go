package users_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wosledon/vitanote/internal/store"
	"github.com/wosledon/vitanote/internal/users"
	v1 "github.com/wosledon/vitanote/pkg/api/v1"
	"github.com/wosledon/vitanote/pkg/auth"
)

func newTestService(t *testing.T) (*users.Service, *auth.TokenIssuer) {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{Path: filepath.Join(t.TempDir(), "users.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Key:      []byte("0123456789abcdef0123456789abcdef"),
		Issuer:   "vitanote",
		Audience: "vitanote-clients",
		TTL:      time.Hour,
	})
	require.NoError(t, err)

	svc, err := users.NewService(st, auth.NewHasher(bcrypt.MinCost), tokens, zap.NewNop())
	require.NoError(t, err)
	return svc, tokens
}

func register(t *testing.T, svc *users.Service, username string) *users.AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), users.RegisterRequest{
		Username: username,
		Email:    username + "@Example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	return res
}

func TestRegister(t *testing.T) {
	svc, tokens := newTestService(t)
	res := register(t, svc, "alice")

	assert.NotEmpty(t, res.User.ID)
	assert.Equal(t, "alice@example.com", res.User.Email, "email is lower-cased")
	assert.Equal(t, "alice", res.User.DisplayName, "display name defaults to username")
	assert.Equal(t, users.DiabetesNone, res.User.DiabetesType)
	assert.NotEqual(t, "s3cret-pass", res.User.PasswordHash)

	claims, err := tokens.Validate(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID())
	assert.Equal(t, "alice", claims.Username)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "alice")

	_, err := svc.Register(context.Background(), users.RegisterRequest{
		Username: "alice", Email: "other@example.com", Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, v1.ErrConflict)

	_, err = svc.Register(context.Background(), users.RegisterRequest{
		Username: "alice2", Email: "ALICE@example.com", Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, v1.ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	tests := []struct {
		name string
		req  users.RegisterRequest
	}{
		{"short username", users.RegisterRequest{Username: "al", Email: "a@b.c", Password: "password1"}},
		{"bad username chars", users.RegisterRequest{Username: "al ice", Email: "a@b.c", Password: "password1"}},
		{"bad email", users.RegisterRequest{Username: "alice", Email: "alice.example.com", Password: "password1"}},
		{"short password", users.RegisterRequest{Username: "alice", Email: "a@b.c", Password: "short"}},
		{"bad diabetes type", users.RegisterRequest{Username: "alice", Email: "a@b.c", Password: "password1", DiabetesType: "type9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, v1.ErrInvalidRequest)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	reg := register(t, svc, "alice")
	ctx := context.Background()

	res, err := svc.Login(ctx, users.LoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.NotEmpty(t, res.AccessToken)

	res, err = svc.Login(ctx, users.LoginRequest{Username: "ALICE@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID, "login by email")

	_, errWrong := svc.Login(ctx, users.LoginRequest{Username: "alice", Password: "wrong-pass"})
	_, errUnknown := svc.Login(ctx, users.LoginRequest{Username: "nobody", Password: "s3cret-pass"})
	assert.ErrorIs(t, errWrong, v1.ErrUnauthorized)
	assert.ErrorIs(t, errUnknown, v1.ErrUnauthorized)
	assert.Equal(t, errWrong.Error(), errUnknown.Error(), "no user enumeration")

	_, err = svc.Login(ctx, users.LoginRequest{})
	assert.ErrorIs(t, err, v1.ErrInvalidRequest)
}

func ptr[T any](v T) *T { return &v }

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	reg := register(t, svc, "alice")
	ctx := context.Background()

	u, err := svc.UpdateProfile(ctx, reg.User.ID, users.ProfileUpdate{
		DisplayName:      ptr("Alice A."),
		DiabetesType:     ptr(users.DiabetesType1),
		HeightCM:         ptr(168.0),
		TargetGlucoseMin: ptr(4.0),
		TargetGlucoseMax: ptr(9.0),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", u.DisplayName)
	assert.Equal(t, 168.0, u.HeightCM)

	got, err := svc.Get(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, users.DiabetesType1, got.DiabetesType)
	assert.Equal(t, 9.0, got.TargetGlucoseMax)

	_, err = svc.UpdateProfile(ctx, reg.User.ID, users.ProfileUpdate{TargetGlucoseMin: ptr(10.0)})
	assert.ErrorIs(t, err, v1.ErrInvalidRequest, "min must stay below max")

	_, err = svc.UpdateProfile(ctx, reg.User.ID, users.ProfileUpdate{HeightCM: ptr(20.0)})
	assert.ErrorIs(t, err, v1.ErrInvalidRequest)

	_, err = svc.UpdateProfile(ctx, "missing", users.ProfileUpdate{})
	assert.ErrorIs(t, err, v1.ErrNotFound)
}

func TestUpdateProfile_OneSidedTarget(t *testing.T) {
	svc, _ := newTestService(t)
	reg := register(t, svc, "alice")
	ctx := context.Background()

	// the default range is 3.9-10.0
	_, err := svc.UpdateProfile(ctx, reg.User.ID, users.ProfileUpdate{TargetGlucoseMin: ptr(12.0)})
	assert.ErrorIs(t, err, v1.ErrInvalidRequest, "min above the default max")

	_, err = svc.UpdateProfile(ctx, reg.User.ID, users.ProfileUpdate{TargetGlucoseMax: ptr(3.0)})
	assert.ErrorIs(t, err, v1.ErrInvalidRequest, "max below the default min")

	u, err := svc.UpdateProfile(ctx, reg.User.ID, users.ProfileUpdate{TargetGlucoseMin: ptr(5.0)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, u.TargetGlucoseMin)
	assert.Zero(t, u.TargetGlucoseMax)

	svc.SetGlucoseDefaults(users.GlucoseRange{Low: 4, High: 15})
	u, err = svc.UpdateProfile(ctx, reg.User.ID, users.ProfileUpdate{TargetGlucoseMin: ptr(12.0)})
	require.NoError(t, err)
	assert.Equal(t, 12.0, u.TargetGlucoseMin)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	reg := register(t, svc, "alice")
	ctx := context.Background()

	err := svc.ChangePassword(ctx, reg.User.ID, users.PasswordChange{Current: "wrong-pass", New: "new-s3cret"})
	assert.ErrorIs(t, err, v1.ErrInvalidRequest)

	err = svc.ChangePassword(ctx, reg.User.ID, users.PasswordChange{Current: "s3cret-pass", New: "short"})
	assert.ErrorIs(t, err, v1.ErrInvalidRequest)

	require.NoError(t, svc.ChangePassword(ctx, reg.User.ID, users.PasswordChange{Current: "s3cret-pass", New: "new-s3cret"}))

	_, err = svc.Login(ctx, users.LoginRequest{Username: "alice", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, v1.ErrUnauthorized)
	_, err = svc.Login(ctx, users.LoginRequest{Username: "alice", Password: "new-s3cret"})
	assert.NoError(t, err)
}
