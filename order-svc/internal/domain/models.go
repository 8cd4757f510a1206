package domain

import "time"

// DateLayout is the calendar-day format used for order dates.
const DateLayout = "2006-01-02"

// OrderLine is one ordered quantity of one menu item by one user on one day
// at one restaurant. Amounts are in the smallest currency unit.
type OrderLine struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	UserEmail    string    `json:"user_email"`
	RestaurantID string    `json:"restaurant_id"`
	MenuItemID   string    `json:"menu_item_id"`
	MenuItemName string    `json:"menu_item_name"`
	Category     string    `json:"category,omitempty"`
	UnitPrice    int64     `json:"unit_price"`
	Date         string    `json:"date"`
	Quantity     int       `json:"quantity"`
	Note         string    `json:"note,omitempty"`
	IsPaid       bool      `json:"is_paid"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (l OrderLine) Amount() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

func (l OrderLine) Scope() Scope {
	return Scope{UserID: l.UserID, RestaurantID: l.RestaurantID, Date: l.Date}
}

// Scope is the (user, restaurant, day) tuple a reconciliation works on.
type Scope struct {
	UserID       string `json:"user_id"`
	RestaurantID string `json:"restaurant_id"`
	Date         string `json:"date"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MenuItem carries the denormalized display fields copied onto an OrderLine.
type MenuItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	UnitPrice int64  `json:"unit_price"`
}

type CartItem struct {
	MenuItem MenuItem `json:"menu_item"`
	Quantity int      `json:"quantity"`
	Note     string   `json:"note,omitempty"`
}

// Cart is the client-owned working set for one scope, keyed by menu item id.
type Cart struct {
	Scope Scope               `json:"scope"`
	User  User                `json:"user"`
	Items map[string]CartItem `json:"items"`
}

// OrderFilter narrows ListOrders. Empty fields do not filter.
type OrderFilter struct {
	UserID       string
	RestaurantID string
	Date         string
	Dates        []string
	IDs          []string
}

// OrderPatch is a partial update; nil fields are left untouched.
type OrderPatch struct {
	Quantity *int
	Note     *string
	IsPaid   *bool
}

func (p OrderPatch) Empty() bool {
	return p.Quantity == nil && p.Note == nil && p.IsPaid == nil
}

// ParseDate validates a calendar day string.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}
