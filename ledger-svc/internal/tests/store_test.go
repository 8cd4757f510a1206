package tests

import (
	"context"
	"testing"
	"time"

	"lunchbox/ledger-svc/internal/domain"
	"lunchbox/ledger-svc/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*storage.Store, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return storage.NewStore(client, 24*time.Hour), server
}

func TestStore_RecordPayment(t *testing.T) {
	ctx := context.Background()
	store, server := newStore(t)

	first := paymentMessage(domain.EventPaymentCompleted)
	recorded, err := store.RecordPayment(ctx, first)
	require.NoError(t, err)
	assert.True(t, recorded)

	// redelivery
	recorded, err = store.RecordPayment(ctx, first)
	require.NoError(t, err)
	assert.False(t, recorded)

	second := paymentMessage(domain.EventPaymentCompleted)
	second.OrderCode = "CODE2"
	second.UserID = "u2"
	second.Amount = 50000
	second.OrderIDs = []string{"L3"}
	second.Breakdown = map[string]int64{"r1": 20000, "r2": 30000}
	recorded, err = store.RecordPayment(ctx, second)
	require.NoError(t, err)
	assert.True(t, recorded)

	ledger, err := store.Daily(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, int64(2), ledger.Sessions)
	assert.Equal(t, int64(132000), ledger.Amount)
	assert.Equal(t, int64(3), ledger.LineCount)
	assert.Equal(t, map[string]int64{"r1": 102000, "r2": 30000}, ledger.ByRestaurant)
	assert.Equal(t, map[string]int64{"u1": 82000, "u2": 50000}, ledger.ByUser)
	assert.Equal(t, 24*time.Hour, server.TTL("ledger:daily:2025-03-10"))
}

func TestStore_RecordSettlement(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	msg := paymentMessage(domain.EventOrdersSettled)
	recorded, err := store.RecordSettlement(ctx, msg)
	require.NoError(t, err)
	assert.True(t, recorded)
	recorded, err = store.RecordSettlement(ctx, msg)
	require.NoError(t, err)
	assert.False(t, recorded)

	ledger, err := store.Daily(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, int64(1), ledger.SettledSessions)
	assert.Zero(t, ledger.Amount)
}

func TestStore_DailyEmpty(t *testing.T) {
	store, _ := newStore(t)

	ledger, err := store.Daily(context.Background(), "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", ledger.Date)
	assert.Zero(t, ledger.Sessions)
	assert.Empty(t, ledger.ByRestaurant)
}
