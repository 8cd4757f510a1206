package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"lunchbox/order-svc/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSessionTTL  = 15 * time.Minute
	DefaultRetryBase   = 30 * time.Second
	DefaultRetryMax    = 30 * time.Minute
	DefaultMaxAttempts = 20
)

type SessionConfig struct {
	TTL         time.Duration
	RetryBase   time.Duration
	RetryMax    time.Duration
	MaxAttempts int
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.TTL <= 0 {
		c.TTL = DefaultSessionTTL
	}
	if c.RetryBase <= 0 {
		c.RetryBase = DefaultRetryBase
	}
	if c.RetryMax <= 0 {
		c.RetryMax = DefaultRetryMax
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Backoff is the wait before settlement attempt n+1 after n failed attempts.
func (c SessionConfig) Backoff(attempts int) time.Duration {
	c = c.withDefaults()
	delay := c.RetryBase
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= c.RetryMax {
			return c.RetryMax
		}
	}
	return delay
}

// NewOrderCode returns a short upper-case code that fits bank transfer notes.
func NewOrderCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

type SessionManager struct {
	sessions  SessionRepository
	orders    OrderStore
	gateway   PaymentGateway
	publisher EventPublisher
	qr        QRGenerator
	clock     Clock
	cfg       SessionConfig

	NewCode func() string
}

func NewSessionManager(sessions SessionRepository, orders OrderStore, gateway PaymentGateway, publisher EventPublisher, qr QRGenerator, clock Clock, cfg SessionConfig) *SessionManager {
	return &SessionManager{
		sessions:  sessions,
		orders:    orders,
		gateway:   gateway,
		publisher: publisher,
		qr:        qr,
		clock:     clock,
		cfg:       cfg.withDefaults(),
		NewCode:   NewOrderCode,
	}
}

// StartCheckout creates a payment session for the requested unpaid lines.
// When the user already has a pending session for the day that session is
// returned and created is false.
func (m *SessionManager) StartCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.PaymentSession, bool, error) {
	lines, err := m.loadCheckoutLines(ctx, req)
	if err != nil {
		return nil, false, err
	}

	var amount int64
	breakdown := make(map[string]int64)
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		amount += line.Amount()
		breakdown[line.RestaurantID] += line.Amount()
		ids = append(ids, line.ID)
	}
	if amount != req.Amount {
		return nil, false, fmt.Errorf("expected %d, got %d: %w", amount, req.Amount, domain.ErrAmountMismatch)
	}
	sort.Strings(ids)

	held, err := m.heldBy(ctx, req, ids)
	if err != nil {
		return nil, false, err
	}
	if held != nil {
		log.Printf("Reusing pending payment session: code=%s user=%s date=%s", held.OrderCode, held.UserID, held.Date)
		return held, false, nil
	}

	now := m.clock.Now()
	session := &domain.PaymentSession{
		OrderCode:       m.NewCode(),
		UserID:          req.UserID,
		Date:            lines[0].Date,
		Amount:          amount,
		CoveredOrderIDs: ids,
		Breakdown:       breakdown,
		Status:          domain.SessionPending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(m.cfg.TTL),
	}

	for attempt := 0; ; attempt++ {
		err := m.sessions.Create(ctx, session)
		if err == nil {
			break
		}
		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) || attempt >= 2 {
			return nil, false, err
		}
		if conflict.OrderCode == "" {
			session.OrderCode = m.NewCode()
			continue
		}
		existing, err := m.reusable(ctx, session.Key(), conflict.OrderCode)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			log.Printf("Reusing pending payment session: code=%s user=%s date=%s", existing.OrderCode, existing.UserID, existing.Date)
			return existing, false, nil
		}
	}

	checkout, err := m.gateway.CreateCheckout(ctx, domain.CheckoutInput{
		OrderCode:   session.OrderCode,
		Amount:      session.Amount,
		Description: "LUNCH " + session.OrderCode,
		Metadata:    map[string]string{"user_id": session.UserID, "date": session.Date},
		ExpiresAt:   session.ExpiresAt,
	})
	if err != nil {
		log.Printf("Payment provider rejected checkout: code=%s err=%v", session.OrderCode, err)
		failed, updateErr := m.sessions.Update(ctx, session.OrderCode, func(s *domain.PaymentSession) error {
			if !domain.CanTransitionTo(s.Status, domain.SessionError) {
				return domain.ErrIllegalTransition
			}
			s.Status = domain.SessionError
			s.FailureReason = err.Error()
			return nil
		})
		if updateErr != nil {
			log.Printf("Failed to mark session as errored: code=%s err=%v", session.OrderCode, updateErr)
			failed = session
		}
		return failed, false, providerError("create checkout", err)
	}

	updated, err := m.sessions.Update(ctx, session.OrderCode, func(s *domain.PaymentSession) error {
		s.QRReference = checkout.QRReference
		s.CheckoutURL = checkout.CheckoutURL
		s.Account = checkout.Account
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	log.Printf("Payment session created: code=%s user=%s date=%s amount=%d lines=%d", updated.OrderCode, updated.UserID, updated.Date, updated.Amount, len(ids))
	return updated, true, nil
}

func (m *SessionManager) loadCheckoutLines(ctx context.Context, req domain.CheckoutRequest) ([]domain.OrderLine, error) {
	if req.UserID == "" {
		return nil, domain.Invalid("user_id", "required")
	}
	ids := dedupe(req.OrderIDs)
	if len(ids) == 0 {
		return nil, domain.ErrEmptyCheckout
	}

	lines, err := m.orders.ListOrders(ctx, domain.OrderFilter{IDs: ids})
	if err != nil {
		return nil, storeError("list", req.Date, err)
	}
	found := make(map[string]bool, len(lines))
	for _, line := range lines {
		found[line.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("order %s: %w", id, domain.ErrUnknownOrder)
		}
	}

	date := req.Date
	if date == "" {
		date = lines[0].Date
	}
	for _, line := range lines {
		if line.UserID != req.UserID || line.Date != date {
			return nil, fmt.Errorf("order %s: %w", line.ID, domain.ErrForeignOrder)
		}
		if line.IsPaid {
			return nil, fmt.Errorf("order %s: %w", line.ID, domain.ErrAlreadyPaid)
		}
	}
	return lines, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// heldBy checks the payment locks on ids. A lock owned by the user's own
// pending session returns that session for reuse; a line held by any other
// pending session, or by a paid session still settling, is refused.
func (m *SessionManager) heldBy(ctx context.Context, req domain.CheckoutRequest, ids []string) (*domain.PaymentSession, error) {
	locked, err := m.sessions.LockedOrders(ctx, ids)
	if err != nil {
		return nil, storeError("locks", req.Date, err)
	}
	for _, id := range ids {
		code, ok := locked[id]
		if !ok {
			continue
		}
		holder, err := m.GetSession(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		switch {
		case holder.Status == domain.SessionPending && holder.UserID == req.UserID:
			return holder, nil
		case holder.Status == domain.SessionPending, holder.Status == domain.SessionCompleted:
			return nil, fmt.Errorf("order %s held by payment %s: %w", id, code, domain.ErrLineInCheckout)
		}
	}
	return nil, nil
}

// reusable returns the session holding key when it is still pending. A claim
// whose session is gone or finished is released so the caller can retry.
func (m *SessionManager) reusable(ctx context.Context, key domain.SessionKey, orderCode string) (*domain.PaymentSession, error) {
	existing, err := m.GetSession(ctx, orderCode)
	switch {
	case err == nil && existing.Status == domain.SessionPending:
		return existing, nil
	case err == nil, errors.Is(err, domain.ErrNotFound):
		return nil, m.sessions.ReleaseScope(ctx, key, orderCode)
	default:
		return nil, err
	}
}

// GetSession reads a session, expiring it first when its deadline has passed.
func (m *SessionManager) GetSession(ctx context.Context, orderCode string) (*domain.PaymentSession, error) {
	session, err := m.sessions.Get(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionPending && session.Expired(m.clock.Now()) {
		return m.transition(ctx, orderCode, domain.SessionExpired, nil)
	}
	return session, nil
}

// transition moves a pending session to status. Losing a race to another
// transition is not an error: the winner's state is returned.
func (m *SessionManager) transition(ctx context.Context, orderCode string, status domain.SessionStatus, mutate func(*domain.PaymentSession)) (*domain.PaymentSession, error) {
	updated, err := m.sessions.Update(ctx, orderCode, func(s *domain.PaymentSession) error {
		if !domain.CanTransitionTo(s.Status, status) {
			return domain.ErrIllegalTransition
		}
		s.Status = status
		if mutate != nil {
			mutate(s)
		}
		return nil
	})
	if errors.Is(err, domain.ErrIllegalTransition) {
		return m.sessions.Get(ctx, orderCode)
	}
	if err == nil {
		log.Printf("Payment session %s: code=%s", status, orderCode)
	}
	return updated, err
}

// PollStatus runs one polling tick for a session. Provider errors leave the
// session untouched; the next tick tries again.
func (m *SessionManager) PollStatus(ctx context.Context, orderCode string) (*domain.PaymentSession, error) {
	session, err := m.GetSession(ctx, orderCode)
	if err != nil || session.Status != domain.SessionPending {
		return session, err
	}

	status, err := m.gateway.GetStatus(ctx, orderCode)
	if err != nil {
		log.Printf("Payment status check failed: code=%s err=%v", orderCode, err)
		return session, nil
	}
	if !status.IsPaid {
		return session, nil
	}
	if status.AmountPaid != session.Amount {
		log.Printf("Payment amount mismatch: code=%s expected=%d paid=%d", orderCode, session.Amount, status.AmountPaid)
		return session, nil
	}

	now := m.clock.Now()
	if session.Expired(now) {
		log.Printf("Ignoring confirmation after expiry: code=%s", orderCode)
		return m.transition(ctx, orderCode, domain.SessionExpired, nil)
	}

	completedNow := false
	completed, err := m.sessions.Update(ctx, orderCode, func(s *domain.PaymentSession) error {
		completedNow = false
		if !domain.CanTransitionTo(s.Status, domain.SessionCompleted) || s.Expired(m.clock.Now()) {
			return domain.ErrIllegalTransition
		}
		s.Status = domain.SessionCompleted
		s.PaidAt = &now
		completedNow = true
		return nil
	})
	if errors.Is(err, domain.ErrIllegalTransition) {
		return m.GetSession(ctx, orderCode)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("Payment completed: code=%s amount=%d", orderCode, completed.Amount)

	if completedNow {
		m.publish(ctx, domain.EventPaymentCompleted, completed, completed.CoveredOrderIDs)
	}
	if _, err := m.settle(ctx, completed); err != nil {
		log.Printf("Settlement failed: code=%s err=%v", orderCode, err)
	}
	return m.sessions.Get(ctx, orderCode)
}

// Settle marks every covered line paid. It is safe to call any number of
// times; lines that fail are retried later by the SettlementRetrier.
func (m *SessionManager) Settle(ctx context.Context, orderCode string) (domain.SettlementResult, error) {
	session, err := m.GetSession(ctx, orderCode)
	if err != nil {
		return domain.SettlementResult{}, err
	}
	if session.Status != domain.SessionCompleted {
		return domain.SettlementResult{}, domain.ErrNotSettleable
	}
	return m.settle(ctx, session)
}

// RetrySettlement settles a completed session whose retry time has come.
func (m *SessionManager) RetrySettlement(ctx context.Context, orderCode string) (domain.SettlementResult, error) {
	session, err := m.sessions.Get(ctx, orderCode)
	if err != nil {
		return domain.SettlementResult{}, err
	}
	if !session.NeedsSettlement() {
		return domain.SettlementResult{OrderCode: orderCode, Complete: session.Settled()}, nil
	}
	if session.NextSettleAt != nil && m.clock.Now().Before(*session.NextSettleAt) {
		return domain.SettlementResult{OrderCode: orderCode}, nil
	}
	return m.settle(ctx, session)
}

func (m *SessionManager) settle(ctx context.Context, session *domain.PaymentSession) (domain.SettlementResult, error) {
	targets := session.CoveredOrderIDs
	if !session.Settled() && len(session.UnsettledOrderIDs) > 0 {
		targets = session.UnsettledOrderIDs
	}

	result := domain.SettlementResult{OrderCode: session.OrderCode}
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(DefaultMaxParallel)
	for _, id := range targets {
		id := id
		g.Go(func() error {
			paid := true
			ok, err := m.orders.UpdateOrder(ctx, id, domain.OrderPatch{IsPaid: &paid})
			mu.Lock()
			defer mu.Unlock()
			if err != nil || !ok {
				log.Printf("Failed to mark order paid: code=%s order=%s found=%t err=%v", session.OrderCode, id, ok, err)
				result.Failed = append(result.Failed, id)
				return nil
			}
			result.Settled = append(result.Settled, id)
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(result.Settled)
	sort.Strings(result.Failed)
	result.Complete = len(result.Failed) == 0

	now := m.clock.Now()
	firstSettle := false
	updated, err := m.sessions.Update(ctx, session.OrderCode, func(s *domain.PaymentSession) error {
		firstSettle = false
		if s.Status != domain.SessionCompleted {
			return domain.ErrNotSettleable
		}
		s.SettleAttempts++
		if result.Complete {
			if s.SettledAt == nil {
				s.SettledAt = &now
				firstSettle = true
			}
			s.UnsettledOrderIDs = nil
			s.NextSettleAt = nil
			return nil
		}
		s.UnsettledOrderIDs = result.Failed
		s.NextSettleAt = nil
		if s.SettleAttempts < m.cfg.MaxAttempts {
			next := now.Add(m.cfg.Backoff(s.SettleAttempts))
			s.NextSettleAt = &next
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	if updated.NextSettleAt == nil && !result.Complete {
		log.Printf("Giving up on settlement: code=%s unsettled=%v attempts=%d", updated.OrderCode, updated.UnsettledOrderIDs, updated.SettleAttempts)
	}
	if firstSettle {
		log.Printf("Orders settled: code=%s lines=%d", updated.OrderCode, len(updated.CoveredOrderIDs))
		m.publish(ctx, domain.EventOrdersSettled, updated, updated.CoveredOrderIDs)
	}
	return result, nil
}

// Cancel abandons a pending session on the user's request. The order lines
// are left as they are.
func (m *SessionManager) Cancel(ctx context.Context, orderCode, userID string) (*domain.PaymentSession, error) {
	session, err := m.GetSession(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if userID != "" && session.UserID != userID {
		return nil, domain.ErrNotSessionUser
	}
	return m.sessions.Update(ctx, orderCode, func(s *domain.PaymentSession) error {
		if !domain.CanTransitionTo(s.Status, domain.SessionCancelled) {
			return domain.ErrIllegalTransition
		}
		s.Status = domain.SessionCancelled
		return nil
	})
}

// QRCode renders the session's payment payload as a PNG.
func (m *SessionManager) QRCode(ctx context.Context, orderCode string) ([]byte, error) {
	session, err := m.GetSession(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	payload := session.QRReference
	if payload == "" {
		payload = session.CheckoutURL
	}
	if payload == "" {
		return nil, fmt.Errorf("qr code for %s: %w", orderCode, domain.ErrNotFound)
	}
	return m.qr.Generate(payload)
}

func (m *SessionManager) publish(ctx context.Context, eventType string, session *domain.PaymentSession, orderIDs []string) {
	if m.publisher == nil {
		return
	}
	event := domain.PaymentEvent{
		Type:      eventType,
		OrderCode: session.OrderCode,
		UserID:    session.UserID,
		Date:      session.Date,
		Amount:    session.Amount,
		OrderIDs:  orderIDs,
		Breakdown: session.Breakdown,
		Timestamp: m.clock.Now(),
	}
	if err := m.publisher.PublishPayment(ctx, event); err != nil {
		log.Printf("Failed to publish %s: code=%s err=%v", eventType, session.OrderCode, err)
	}
}

func providerError(op string, err error) error {
	var providerErr *domain.ProviderError
	if errors.As(err, &providerErr) {
		return err
	}
	return &domain.ProviderError{Op: op, Err: err}
}
