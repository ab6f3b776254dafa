package chat_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/chat"
	"github.com/wosledon/vitanote/internal/statistics"
	"github.com/wosledon/vitanote/internal/store"
	"github.com/wosledon/vitanote/internal/users"
	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

type fakeStats struct {
	overview *statistics.Overview
	err      error
	calls    int
}

func (f *fakeStats) Overview(_ context.Context, _ string, r statistics.Range) (*statistics.Overview, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ov := *f.overview
	ov.Range = r
	return &ov, nil
}

type failingAssistant struct{}

func (failingAssistant) Reply(context.Context, chat.AssistantInput) (string, error) {
	return "", errors.New("assistant unavailable")
}

func newTestService(t *testing.T, stats chat.StatsSource) *chat.Service {
	t.Helper()
	return newTestServiceWith(t, nil, stats)
}

func newTestServiceWith(t *testing.T, assistant chat.Assistant, stats chat.StatsSource) *chat.Service {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Path: filepath.Join(t.TempDir(), "chat.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	now := time.Now().UTC()
	require.NoError(t, st.CreateUser(ctx, &users.User{
		ID: "u1", Username: "alice", Email: "alice@example.com", PasswordHash: "x",
		DiabetesType: users.DiabetesType2, CreatedAt: now, UpdatedAt: now,
	}))

	svc, err := chat.NewService(st, assistant, stats, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestSend(t *testing.T) {
	stats := &fakeStats{overview: &statistics.Overview{
		Weight: statistics.WeightStats{Count: 2, Latest: &statistics.WeightReading{Kg: 81.2}, Change: -0.8},
	}}
	svc := newTestService(t, stats)
	ctx := context.Background()

	ex, err := svc.Send(ctx, "u1", "  Have I lost weight?  ")
	require.NoError(t, err)
	assert.Equal(t, chat.RoleUser, ex.Message.Role)
	assert.Equal(t, "Have I lost weight?", ex.Message.Content)
	assert.Equal(t, chat.RoleAssistant, ex.Reply.Role)
	assert.Contains(t, ex.Reply.Content, "81.2 kg")
	assert.True(t, ex.Reply.CreatedAt.After(ex.Message.CreatedAt))
	assert.Equal(t, 1, stats.calls)

	history, err := svc.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ex.Message.ID, history[0].ID)
	assert.Equal(t, ex.Reply.ID, history[1].ID)
}

func TestSend_StatsFailureStillReplies(t *testing.T) {
	svc := newTestService(t, &fakeStats{err: errors.New("db down")})
	ex, err := svc.Send(context.Background(), "u1", "how is my glucose")
	require.NoError(t, err)
	assert.Contains(t, ex.Reply.Content, chat.Disclaimer)
}

func TestSend_AssistantFailureStoresNothing(t *testing.T) {
	svc := newTestServiceWith(t, failingAssistant{}, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, "u1", "how is my glucose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assistant unavailable")

	history, err := svc.History(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSend_Validation(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, "u1", "   ")
	assert.ErrorIs(t, err, v1.ErrInvalidRequest)

	_, err = svc.Send(ctx, "u1", strings.Repeat("x", chat.MaxContentLength+1))
	assert.ErrorIs(t, err, v1.ErrInvalidRequest)
}

func TestHistoryAndClear(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Send(ctx, "u1", "hello")
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, "u1", 4)
	require.NoError(t, err)
	assert.Len(t, history, 4)

	_, err = svc.History(ctx, "u1", chat.MaxHistoryLimit+1)
	assert.ErrorIs(t, err, v1.ErrInvalidRequest)

	n, err := svc.Clear(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	history, err = svc.History(ctx, "u1", 0)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}
