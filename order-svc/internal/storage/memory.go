package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lunchbox/order-svc/internal/domain"

	"github.com/google/uuid"
)

// MemoryStore keeps order lines in process. It enforces the same natural key
// uniqueness as the database stores.
type MemoryStore struct {
	mu    sync.RWMutex
	lines map[string]domain.OrderLine
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lines: make(map[string]domain.OrderLine),
		now:   time.Now,
	}
}

func (s *MemoryStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := toSet(filter.IDs)
	dates := toSet(filter.Dates)
	lines := make([]domain.OrderLine, 0)
	for _, line := range s.lines {
		if filter.UserID != "" && line.UserID != filter.UserID {
			continue
		}
		if filter.RestaurantID != "" && line.RestaurantID != filter.RestaurantID {
			continue
		}
		if filter.Date != "" && line.Date != filter.Date {
			continue
		}
		if dates != nil && !dates[line.Date] {
			continue
		}
		if ids != nil && !ids[line.ID] {
			continue
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Date != lines[j].Date {
			return lines[i].Date < lines[j].Date
		}
		if !lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].CreatedAt.Before(lines[j].CreatedAt)
		}
		return lines[i].ID < lines[j].ID
	})
	return lines, nil
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func (s *MemoryStore) CreateOrder(ctx context.Context, line domain.OrderLine) (domain.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.lines {
		if existing.Scope() == line.Scope() && existing.MenuItemID == line.MenuItemID {
			return domain.OrderLine{}, fmt.Errorf("order line for menu item %s already exists", line.MenuItemID)
		}
	}
	now := s.now()
	line.ID = uuid.NewString()
	line.CreatedAt = now
	line.UpdatedAt = now
	s.lines[line.ID] = line
	return line, nil
}

func (s *MemoryStore) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lines[id]
	if !ok {
		return false, nil
	}
	if patch.Quantity != nil {
		line.Quantity = *patch.Quantity
	}
	if patch.Note != nil {
		line.Note = *patch.Note
	}
	if patch.IsPaid != nil {
		line.IsPaid = *patch.IsPaid
	}
	line.UpdatedAt = s.now()
	s.lines[id] = line
	return true, nil
}

func (s *MemoryStore) DeleteOrder(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lines[id]; !ok {
		return false, nil
	}
	delete(s.lines, id)
	return true, nil
}
