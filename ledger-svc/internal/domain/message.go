package domain

import "time"

const (
	EventPaymentCompleted = "payment_completed"
	EventOrdersSettled    = "orders_settled"
)

// PaymentMessage is the payload order-svc publishes to the payments topic.
type PaymentMessage struct {
	Type      string           `json:"type"`
	OrderCode string           `json:"order_code"`
	UserID    string           `json:"user_id"`
	Date      string           `json:"date"`
	Amount    int64            `json:"amount"`
	OrderIDs  []string         `json:"order_ids"`
	Breakdown map[string]int64 `json:"breakdown,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// DailyLedger is the paid total of one order day.
type DailyLedger struct {
	Date            string           `json:"date"`
	Sessions        int64            `json:"sessions"`
	SettledSessions int64            `json:"settled_sessions"`
	Amount          int64            `json:"amount"`
	LineCount       int64            `json:"line_count"`
	ByRestaurant    map[string]int64 `json:"by_restaurant"`
	ByUser          map[string]int64 `json:"by_user"`
}
