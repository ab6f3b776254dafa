package v1

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOptions_Normalize(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		opts, err := ListOptions{}.Normalize()
		require.NoError(t, err)
		assert.Equal(t, 1, opts.Page)
		assert.Equal(t, DefaultPageSize, opts.PageSize)
		assert.Equal(t, 0, opts.Offset())
	})

	t.Run("computes offset", func(t *testing.T) {
		opts, err := ListOptions{Page: 3, PageSize: 10}.Normalize()
		require.NoError(t, err)
		assert.Equal(t, 20, opts.Offset())
	})

	t.Run("rejects oversized pages", func(t *testing.T) {
		_, err := ListOptions{PageSize: MaxPageSize + 1}.Normalize()
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("rejects negative page", func(t *testing.T) {
		_, err := ListOptions{Page: -1}.Normalize()
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("rejects pages whose offset would overflow", func(t *testing.T) {
		_, err := ListOptions{Page: math.MaxInt / 2, PageSize: MaxPageSize}.Normalize()
		assert.ErrorIs(t, err, ErrInvalidRequest)

		opts, err := ListOptions{Page: MaxPage, PageSize: MaxPageSize}.Normalize()
		require.NoError(t, err)
		assert.Equal(t, (MaxPage-1)*MaxPageSize, opts.Offset())
	})

	t.Run("offset is never negative", func(t *testing.T) {
		assert.Positive(t, ListOptions{Page: math.MaxInt, PageSize: MaxPageSize}.Offset())
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		now := time.Now()
		_, err := ListOptions{From: now, To: now.Add(-time.Hour)}.Normalize()
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseTime("2024-03-05T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC), got)

	got, err = ParseTime("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseTime("yesterday")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestNewPage_NilItems(t *testing.T) {
	page := NewPage[int](nil, 0, ListOptions{Page: 1, PageSize: 20})
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}
