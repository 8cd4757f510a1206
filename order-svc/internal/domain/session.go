package domain

import "time"

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionCompleted SessionStatus = "completed"
	SessionExpired   SessionStatus = "expired"
	SessionCancelled SessionStatus = "cancelled"
	SessionError     SessionStatus = "error"
)

func (s SessionStatus) IsTerminal() bool {
	return s != SessionPending
}

func (s SessionStatus) String() string {
	return string(s)
}

// CanTransitionTo allows exactly one move away from pending.
func CanTransitionTo(from, to SessionStatus) bool {
	return from == SessionPending && to != SessionPending
}

// Account is the bank transfer target shown next to the QR code.
type Account struct {
	BankBin       string `json:"bank_bin,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
}

// PaymentSession is one checkout attempt covering a fixed set of order lines.
type PaymentSession struct {
	OrderCode       string           `json:"order_code"`
	UserID          string           `json:"user_id"`
	Date            string           `json:"date"`
	Amount          int64            `json:"amount"`
	CoveredOrderIDs []string         `json:"covered_order_ids"`
	Breakdown       map[string]int64 `json:"breakdown,omitempty"`
	Status          SessionStatus    `json:"status"`
	QRReference     string           `json:"qr_reference,omitempty"`
	CheckoutURL     string           `json:"checkout_url,omitempty"`
	Account         Account          `json:"account"`
	CreatedAt       time.Time        `json:"created_at"`
	ExpiresAt       time.Time        `json:"expires_at"`
	PaidAt          *time.Time       `json:"paid_at,omitempty"`
	FailureReason   string           `json:"failure_reason,omitempty"`

	SettledAt         *time.Time `json:"settled_at,omitempty"`
	UnsettledOrderIDs []string   `json:"unsettled_order_ids,omitempty"`
	SettleAttempts    int        `json:"settle_attempts,omitempty"`
	NextSettleAt      *time.Time `json:"next_settle_at,omitempty"`
}

func (s *PaymentSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *PaymentSession) Settled() bool {
	return s.SettledAt != nil
}

// NeedsSettlement is true for a completed session whose lines are not all
// marked paid and which still has settlement attempts scheduled.
func (s *PaymentSession) NeedsSettlement() bool {
	if s.Status != SessionCompleted || s.Settled() {
		return false
	}
	return s.SettleAttempts == 0 || s.NextSettleAt != nil
}

// Covers reports whether the session was opened for exactly the lines and
// amount in req.
func (s *PaymentSession) Covers(req CheckoutRequest) bool {
	if s.Amount != req.Amount {
		return false
	}
	requested := make(map[string]bool, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		if id != "" {
			requested[id] = true
		}
	}
	if len(requested) != len(s.CoveredOrderIDs) {
		return false
	}
	for _, id := range s.CoveredOrderIDs {
		if !requested[id] {
			return false
		}
	}
	return true
}

func (s *PaymentSession) Key() SessionKey {
	return SessionKey{UserID: s.UserID, Date: s.Date}
}

// SessionKey is the scope that may hold at most one pending session.
type SessionKey struct {
	UserID string
	Date   string
}

type CheckoutRequest struct {
	UserID   string   `json:"user_id"`
	Date     string   `json:"date"`
	OrderIDs []string `json:"order_ids"`
	Amount   int64    `json:"amount"`
}

// CheckoutInput is what the gateway needs to create a remote payment request.
type CheckoutInput struct {
	OrderCode   string
	Amount      int64
	Description string
	Metadata    map[string]string
	ExpiresAt   time.Time
}

type Checkout struct {
	OrderCode   string
	QRReference string
	CheckoutURL string
	Account     Account
	ExpiresAt   time.Time
}

type PaymentStatus struct {
	IsPaid     bool
	AmountPaid int64
}

type SettlementResult struct {
	OrderCode string   `json:"order_code"`
	Settled   []string `json:"settled"`
	Failed    []string `json:"failed"`
	Complete  bool     `json:"complete"`
}

const (
	EventPaymentCompleted = "payment_completed"
	EventOrdersSettled    = "orders_settled"
)

// PaymentEvent is published to the payments topic.
type PaymentEvent struct {
	Type      string           `json:"type"`
	OrderCode string           `json:"order_code"`
	UserID    string           `json:"user_id"`
	Date      string           `json:"date"`
	Amount    int64            `json:"amount"`
	OrderIDs  []string         `json:"order_ids"`
	Breakdown map[string]int64 `json:"breakdown,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
