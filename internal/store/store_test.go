package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/chat"
	"github.com/wosledon/vitanote/internal/food"
	"github.com/wosledon/vitanote/internal/medication"
	"github.com/wosledon/vitanote/internal/records"
	"github.com/wosledon/vitanote/internal/users"
	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Path: filepath.Join(t.TempDir(), "vitanote.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var baseTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func createUser(t *testing.T, s *Store, id, username string) *users.User {
	t.Helper()
	u := &users.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		DisplayName:  username,
		DiabetesType: users.DiabetesType2,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestOpen_Migrates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, LatestVersion(), v)

	// Re-running is a no-op.
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitanote.db")
	ctx := context.Background()

	s, err := Open(ctx, Config{Path: path}, nil)
	require.NoError(t, err)
	createUser(t, s, "u1", "alice")
	require.NoError(t, s.Close())

	s, err = Open(ctx, Config{Path: path}, nil)
	require.NoError(t, err)
	defer s.Close()
	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "u1", "alice")

	got, err := s.GetUserByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, baseTime, got.CreatedAt)
	assert.Equal(t, users.DiabetesType2, got.DiabetesType)

	got, err = s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, v1.ErrNotFound)

	dup := *u
	dup.ID = "u2"
	assert.ErrorIs(t, s.CreateUser(ctx, &dup), v1.ErrConflict, "duplicate username")

	dup.Username = "Alice"
	dup.Email = "other@example.com"
	assert.ErrorIs(t, s.CreateUser(ctx, &dup), v1.ErrConflict, "usernames are case-insensitive")

	got.HeightCM = 172
	got.TargetGlucoseMin = 4
	got.TargetGlucoseMax = 8
	require.NoError(t, s.UpdateUser(ctx, got))
	got, err = s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 172.0, got.HeightCM)
	assert.Equal(t, 8.0, got.TargetGlucoseMax)

	assert.ErrorIs(t, s.UpdateUser(ctx, &users.User{ID: "missing"}), v1.ErrNotFound)
}

func newRecord(id, userID string, typ records.RecordType, value string, at time.Time) *records.HealthRecord {
	return &records.HealthRecord{
		ID:         id,
		UserID:     userID,
		Type:       typ,
		Value:      json.RawMessage(value),
		RecordedAt: at,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func TestRecords_CRUDAndScoping(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	createUser(t, s, "u1", "alice")
	createUser(t, s, "u2", "bob")

	r := newRecord("r1", "u1", records.TypeGlucose, `{"value":5.4,"measurement":"fasting"}`, baseTime)
	require.NoError(t, s.CreateRecord(ctx, r))
	assert.ErrorIs(t, s.CreateRecord(ctx, r), v1.ErrConflict)

	got, err := s.GetRecord(ctx, "u1", "r1")
	require.NoError(t, err)
	g, err := got.Glucose()
	require.NoError(t, err)
	assert.Equal(t, 5.4, g.Value)
	assert.Equal(t, baseTime, got.RecordedAt)

	_, err = s.GetRecord(ctx, "u2", "r1")
	assert.ErrorIs(t, err, v1.ErrNotFound, "other users cannot see the record")
	assert.ErrorIs(t, s.DeleteRecord(ctx, "u2", "r1"), v1.ErrNotFound)

	got.Value = json.RawMessage(`{"value":6.1,"measurement":"random"}`)
	got.Notes = "after walk"
	require.NoError(t, s.UpdateRecord(ctx, got))
	got, err = s.GetRecord(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "after walk", got.Notes)
	assert.JSONEq(t, `{"value":6.1,"measurement":"random"}`, string(got.Value))

	require.NoError(t, s.DeleteRecord(ctx, "u1", "r1"))
	_, err = s.GetRecord(ctx, "u1", "r1")
	assert.ErrorIs(t, err, v1.ErrNotFound)
}

func TestRecords_UnknownUser(t *testing.T) {
	s := openTestStore(t)
	err := s.CreateRecord(context.Background(), newRecord("r1", "ghost", records.TypeWeight, `{"kg":70}`, baseTime))
	assert.ErrorIs(t, err, v1.ErrNotFound)
}

func TestListRecords_FilterAndPaging(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	createUser(t, s, "u1", "alice")
	createUser(t, s, "u2", "bob")

	for i := 0; i < 5; i++ {
		at := baseTime.Add(time.Duration(i) * 24 * time.Hour)
		require.NoError(t, s.CreateRecord(ctx, newRecord("g"+string(rune('0'+i)), "u1", records.TypeGlucose, `{"value":5,"measurement":"random"}`, at)))
	}
	require.NoError(t, s.CreateRecord(ctx, newRecord("w1", "u1", records.TypeWeight, `{"kg":70}`, baseTime)))
	require.NoError(t, s.CreateRecord(ctx, newRecord("x1", "u2", records.TypeGlucose, `{"value":5,"measurement":"random"}`, baseTime)))

	all, total, err := s.ListRecords(ctx, records.Filter{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Len(t, all, 6)

	page, total, err := s.ListRecords(ctx, records.Filter{UserID: "u1", Type: records.TypeGlucose, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "g3", page[0].ID, "newest first")
	assert.Equal(t, "g2", page[1].ID)

	ranged, total, err := s.ListRecords(ctx, records.Filter{
		UserID: "u1",
		Type:   records.TypeGlucose,
		From:   baseTime.Add(24 * time.Hour),
		To:     baseTime.Add(3 * 24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total, "from inclusive, to exclusive")
	assert.Len(t, ranged, 2)
}

func TestFoods(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	createUser(t, s, "u1", "alice")

	r := &food.Record{
		ID: "f1", UserID: "u1", Name: "Oatmeal", MealType: food.MealBreakfast,
		QuantityGrams: 80, Calories: 300, Carbohydrates: 54, Protein: 10, Fat: 5,
		EatenAt: baseTime, CreatedAt: baseTime, UpdatedAt: baseTime,
	}
	require.NoError(t, s.CreateFood(ctx, r))

	got, err := s.GetFood(ctx, "u1", "f1")
	require.NoError(t, err)
	assert.Equal(t, *r, *got)

	got.Calories = 320
	require.NoError(t, s.UpdateFood(ctx, got))
	list, total, err := s.ListFoods(ctx, food.Filter{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 320.0, list[0].Calories)

	_, err = s.GetFood(ctx, "u2", "f1")
	assert.ErrorIs(t, err, v1.ErrNotFound)
	require.NoError(t, s.DeleteFood(ctx, "u1", "f1"))
	assert.ErrorIs(t, s.DeleteFood(ctx, "u1", "f1"), v1.ErrNotFound)
}

func TestMedications(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	createUser(t, s, "u1", "alice")

	m := &medication.Medication{
		ID: "m1", UserID: "u1", Name: "Metformin", Dosage: 500, Unit: "mg", Frequency: "twice daily",
		TakenAt: baseTime, CreatedAt: baseTime, UpdatedAt: baseTime,
	}
	require.NoError(t, s.CreateMedication(ctx, m))

	got, err := s.GetMedication(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, *m, *got)

	got.Dosage = 850
	require.NoError(t, s.UpdateMedication(ctx, got))
	list, total, err := s.ListMedications(ctx, medication.Filter{UserID: "u1", From: baseTime.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, list)

	list, _, err = s.ListMedications(ctx, medication.Filter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 850.0, list[0].Dosage)

	require.NoError(t, s.DeleteMedication(ctx, "u1", "m1"))
}

func TestAppendMessages_Atomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	createUser(t, s, "u1", "alice")

	err := s.AppendMessages(ctx,
		&chat.Message{ID: "m1", UserID: "u1", Role: chat.RoleUser, Content: "hi", CreatedAt: baseTime},
		&chat.Message{ID: "m1", UserID: "u1", Role: chat.RoleAssistant, Content: "hello", CreatedAt: baseTime.Add(time.Millisecond)},
	)
	assert.ErrorIs(t, err, v1.ErrConflict)

	msgs, err := s.ListMessages(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestChatMessages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	createUser(t, s, "u1", "alice")
	createUser(t, s, "u2", "bob")

	for i, content := range []string{"one", "two", "three"} {
		require.NoError(t, s.AppendMessages(ctx, &chat.Message{
			ID: content, UserID: "u1", Role: chat.RoleUser, Content: content,
			CreatedAt: baseTime.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, s.AppendMessages(ctx, &chat.Message{ID: "b", UserID: "u2", Role: chat.RoleUser, Content: "b", CreatedAt: baseTime}))

	msgs, err := s.ListMessages(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].Content, "newest two, oldest first")
	assert.Equal(t, "three", msgs[1].Content)

	n, err := s.ClearMessages(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	msgs, err = s.ListMessages(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = s.ListMessages(ctx, "u2", 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}
