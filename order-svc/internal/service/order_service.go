package service

import (
	"context"

	"lunchbox/order-svc/internal/domain"
)

type OrderService struct {
	store  OrderStore
	engine *ReconcileEngine
	clock  Clock
}

func NewOrderService(store OrderStore, engine *ReconcileEngine, clock Clock) *OrderService {
	return &OrderService{
		store:  store,
		engine: engine,
		clock:  clock,
	}
}

func (s *OrderService) Reconcile(ctx context.Context, cart domain.Cart) (domain.ReconcileResult, error) {
	return s.engine.Reconcile(ctx, cart)
}

func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderLine, error) {
	lines, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, storeError("list", filter.Date, err)
	}
	return lines, nil
}

func (s *OrderService) ListUserGroups(ctx context.Context, restaurantID, date, currentUserID string) ([]domain.UserOrderGroup, error) {
	lines, err := s.dayLines(ctx, restaurantID, date)
	if err != nil {
		return nil, err
	}
	ordering := ByName
	if currentUserID != "" {
		ordering = CurrentUserFirst(currentUserID)
	}
	return GroupByUser(lines, ordering), nil
}

func (s *OrderService) ListMenuItems(ctx context.Context, restaurantID, date string) ([]domain.MenuItemSummary, error) {
	lines, err := s.dayLines(ctx, restaurantID, date)
	if err != nil {
		return nil, err
	}
	return GroupByMenuItem(lines), nil
}

// WeeklyRollup covers Monday to Friday of the week containing weekOf,
// or of the current week when weekOf is empty.
func (s *OrderService) WeeklyRollup(ctx context.Context, restaurantID, weekOf string) (domain.WeeklyRollup, error) {
	day := s.clock.Now()
	if weekOf != "" {
		parsed, err := domain.ParseDate(weekOf)
		if err != nil {
			return domain.WeeklyRollup{}, domain.Invalid("week_of", "expected YYYY-MM-DD")
		}
		day = parsed
	}
	days := WeekDays(day)
	lines, err := s.ListOrders(ctx, domain.OrderFilter{RestaurantID: restaurantID, Dates: days})
	if err != nil {
		return domain.WeeklyRollup{}, err
	}
	return WeeklyRollup(lines, days), nil
}

func (s *OrderService) dayLines(ctx context.Context, restaurantID, date string) ([]domain.OrderLine, error) {
	if date == "" {
		date = Today(s.clock)
	} else if _, err := domain.ParseDate(date); err != nil {
		return nil, domain.Invalid("date", "expected YYYY-MM-DD")
	}
	return s.ListOrders(ctx, domain.OrderFilter{RestaurantID: restaurantID, Date: date})
}
