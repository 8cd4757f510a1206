package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lunchbox/order-svc/internal/domain"
	"lunchbox/order-svc/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	today      = "2025-03-10"
	restaurant = "r1"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func scope(userID string) domain.Scope {
	return domain.Scope{UserID: userID, RestaurantID: restaurant, Date: today}
}

func line(id, userID, menuItemID string, quantity int, unitPrice int64) domain.OrderLine {
	return domain.OrderLine{
		ID:           id,
		UserID:       userID,
		UserName:     "User " + userID,
		RestaurantID: restaurant,
		MenuItemID:   menuItemID,
		MenuItemName: "Item " + menuItemID,
		UnitPrice:    unitPrice,
		Date:         today,
		Quantity:     quantity,
	}
}

func cart(userID string, items map[string]int) domain.Cart {
	c := domain.Cart{
		Scope: scope(userID),
		User:  domain.User{ID: userID, Name: "User " + userID},
		Items: make(map[string]domain.CartItem, len(items)),
	}
	for id, quantity := range items {
		c.Items[id] = domain.CartItem{
			MenuItem: domain.MenuItem{ID: id, Name: "Item " + id, UnitPrice: 10000},
			Quantity: quantity,
		}
	}
	return c
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return server, client
}

// flakyStore fails paid-flag updates for the listed order ids.
type flakyStore struct {
	*storage.MemoryStore

	mu      sync.Mutex
	failing map[string]bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: storage.NewMemoryStore(), failing: make(map[string]bool)}
}

func (s *flakyStore) FailPaid(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = make(map[string]bool)
	for _, id := range ids {
		s.failing[id] = true
	}
}

func (s *flakyStore) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (bool, error) {
	s.mu.Lock()
	fail := patch.IsPaid != nil && s.failing[id]
	s.mu.Unlock()
	if fail {
		return false, errors.New("connection reset")
	}
	return s.MemoryStore.UpdateOrder(ctx, id, patch)
}

func seed(t *testing.T, store interface {
	CreateOrder(context.Context, domain.OrderLine) (domain.OrderLine, error)
}, lines ...domain.OrderLine) []domain.OrderLine {
	t.Helper()
	created := make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		saved, err := store.CreateOrder(context.Background(), l)
		if err != nil {
			t.Fatalf("seed %s: %v", l.MenuItemID, err)
		}
		created = append(created, saved)
	}
	return created
}
