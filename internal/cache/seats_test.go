package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*SeatCache, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	t.Cleanup(func() { _ = db.Close() })
	return NewSeatCache(db, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func TestSeatCache_Hit(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectGet("cinema:seats:5").SetVal(`["A1","A2"]`)

	seats, ok := c.Get(context.Background(), 5)

	require.True(t, ok)
	assert.Equal(t, []string{"A1", "A2"}, seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatCache_FullyBookedIsAHit(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectGet("cinema:seats:5").SetVal(`[]`)

	seats, ok := c.Get(context.Background(), 5)

	require.True(t, ok)
	assert.NotNil(t, seats)
	assert.Empty(t, seats)
}

func TestSeatCache_Miss(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectGet("cinema:seats:9").RedisNil()

	_, ok := c.Get(context.Background(), 9)

	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatCache_ErrorIsMiss(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectGet("cinema:seats:9").SetErr(errors.New("connection refused"))

	_, ok := c.Get(context.Background(), 9)

	assert.False(t, ok)
}

func TestSeatCache_CorruptEntryIsMiss(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectGet("cinema:seats:3").SetVal(`{oops`)

	_, ok := c.Get(context.Background(), 3)

	assert.False(t, ok)
}

func TestSeatCache_SetAndInvalidate(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectSet("cinema:seats:7", `["B1"]`, time.Minute).SetVal("OK")
	mock.ExpectDel("cinema:seats:7").SetVal(1)

	c.Set(context.Background(), 7, []string{"B1"})
	c.Invalidate(context.Background(), 7)

	assert.NoError(t, mock.ExpectationsWereMet())
}
