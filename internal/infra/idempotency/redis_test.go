package idempotency

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/middleware"
)

func TestRedisStoreSave(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, time.Hour)

	rec := middleware.IdempotencyRecord{
		Key:        "k-1",
		Payload:    []byte(`{"booking_id":"bk-1"}`),
		OccurredAt: time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(storedRecord{
		Key:        rec.Key,
		Payload:    rec.Payload,
		OccurredAt: rec.OccurredAt,
	})
	require.NoError(t, err)

	mock.ExpectSet("staybook:idem:k-1", raw, time.Hour).SetVal("OK")
	require.NoError(t, store.Save(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreGet(t *testing.T) {
	t.Run("hit", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewRedisStore(db, time.Hour)

		raw, err := json.Marshal(storedRecord{
			Key:        "k-1",
			Payload:    []byte(`{"booking_id":"bk-1"}`),
			OccurredAt: time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		mock.ExpectGet("staybook:idem:k-1").SetVal(string(raw))

		rec, found, err := store.Get(context.Background(), "k-1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "k-1", rec.Key)
		assert.JSONEq(t, `{"booking_id":"bk-1"}`, string(rec.Payload))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss is not an error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewRedisStore(db, time.Hour)

		mock.ExpectGet("staybook:idem:k-missing").RedisNil()
		_, found, err := store.Get(context.Background(), "k-missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stored failure round-trips", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewRedisStore(db, time.Hour)

		raw, err := json.Marshal(storedRecord{
			Key:        "k-err",
			Error:      "availability: range overlaps with an existing block",
			OccurredAt: time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		mock.ExpectGet("staybook:idem:k-err").SetVal(string(raw))

		rec, found, err := store.Get(context.Background(), "k-err")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "availability: range overlaps with an existing block", rec.Error)
		assert.Empty(t, rec.Payload)
	})
}

func TestNewRedisStoreDefaultsTTL(t *testing.T) {
	db, _ := redismock.NewClientMock()
	store := NewRedisStore(db, 0)
	assert.Equal(t, 168*time.Hour, store.ttl)
}
