package service

import (
	"context"

	"lunchbox/order-svc/internal/domain"
)

type OrderStore interface {
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderLine, error)
	CreateOrder(ctx context.Context, line domain.OrderLine) (domain.OrderLine, error)
	UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (bool, error)
	DeleteOrder(ctx context.Context, id string) (bool, error)
}

// OrderLocker reports which order lines are held by a payment session that is
// pending or whose payment has not been settled onto the lines yet.
type OrderLocker interface {
	LockedOrders(ctx context.Context, ids []string) (map[string]string, error)
}

// SessionRepository persists payment sessions. Create fails with a
// *domain.ConflictError when the session's scope already has a pending
// session. Update applies fn under compare-and-set and keeps the pending,
// unsettled and lock indexes in line with the resulting status.
type SessionRepository interface {
	OrderLocker
	Create(ctx context.Context, session *domain.PaymentSession) error
	Get(ctx context.Context, orderCode string) (*domain.PaymentSession, error)
	Update(ctx context.Context, orderCode string, fn func(*domain.PaymentSession) error) (*domain.PaymentSession, error)
	ReleaseScope(ctx context.Context, key domain.SessionKey, orderCode string) error
	ListPending(ctx context.Context) ([]string, error)
	ListUnsettled(ctx context.Context) ([]string, error)
}

type PaymentGateway interface {
	CreateCheckout(ctx context.Context, input domain.CheckoutInput) (domain.Checkout, error)
	GetStatus(ctx context.Context, orderCode string) (domain.PaymentStatus, error)
}

type EventPublisher interface {
	PublishPayment(ctx context.Context, event domain.PaymentEvent) error
}

type OrderServiceInterface interface {
	Reconcile(ctx context.Context, cart domain.Cart) (domain.ReconcileResult, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderLine, error)
	ListUserGroups(ctx context.Context, restaurantID, date, currentUserID string) ([]domain.UserOrderGroup, error)
	ListMenuItems(ctx context.Context, restaurantID, date string) ([]domain.MenuItemSummary, error)
	WeeklyRollup(ctx context.Context, restaurantID, weekOf string) (domain.WeeklyRollup, error)
}

type PaymentServiceInterface interface {
	StartCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.PaymentSession, bool, error)
	GetSession(ctx context.Context, orderCode string) (*domain.PaymentSession, error)
	Cancel(ctx context.Context, orderCode, userID string) (*domain.PaymentSession, error)
	QRCode(ctx context.Context, orderCode string) ([]byte, error)
}

var (
	_ OrderServiceInterface   = (*OrderService)(nil)
	_ PaymentServiceInterface = (*SessionManager)(nil)
)
