package gateway

import (
	"context"
	"fmt"
	"sync"

	"lunchbox/order-svc/internal/domain"
)

// SandboxGateway is an in-process provider for local runs. Payments are
// confirmed by calling MarkPaid.
type SandboxGateway struct {
	mu       sync.Mutex
	payments map[string]*sandboxPayment
	account  domain.Account
}

type sandboxPayment struct {
	amount int64
	paid   int64
}

func NewSandboxGateway(account domain.Account) *SandboxGateway {
	return &SandboxGateway{
		payments: make(map[string]*sandboxPayment),
		account:  account,
	}
}

func (g *SandboxGateway) CreateCheckout(ctx context.Context, input domain.CheckoutInput) (domain.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.payments[input.OrderCode]; ok {
		return domain.Checkout{}, &domain.ProviderError{Op: "create checkout", Err: fmt.Errorf("order code %s already used", input.OrderCode)}
	}
	g.payments[input.OrderCode] = &sandboxPayment{amount: input.Amount}
	return domain.Checkout{
		OrderCode:   input.OrderCode,
		QRReference: fmt.Sprintf("SANDBOX|%s|%s|%d|%s", g.account.BankBin, g.account.AccountNumber, input.Amount, input.Description),
		CheckoutURL: "sandbox://pay/" + input.OrderCode,
		Account:     g.account,
		ExpiresAt:   input.ExpiresAt,
	}, nil
}

func (g *SandboxGateway) GetStatus(ctx context.Context, orderCode string) (domain.PaymentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	payment, ok := g.payments[orderCode]
	if !ok {
		return domain.PaymentStatus{}, &domain.ProviderError{Op: "get status", Err: fmt.Errorf("order code %s: %w", orderCode, domain.ErrNotFound)}
	}
	return domain.PaymentStatus{
		IsPaid:     payment.paid >= payment.amount,
		AmountPaid: payment.paid,
	}, nil
}

// MarkPaid records a transfer of amount, or of the full amount when amount is zero.
func (g *SandboxGateway) MarkPaid(orderCode string, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	payment, ok := g.payments[orderCode]
	if !ok {
		return fmt.Errorf("order code %s: %w", orderCode, domain.ErrNotFound)
	}
	if amount <= 0 {
		amount = payment.amount
	}
	payment.paid += amount
	return nil
}
