package domain

type UserOrderGroup struct {
	UserID       string      `json:"user_id"`
	UserName     string      `json:"user_name"`
	UserEmail    string      `json:"user_email"`
	Lines        []OrderLine `json:"lines"`
	TotalAmount  int64       `json:"total_amount"`
	TotalItems   int         `json:"total_items"`
	PaidAmount   int64       `json:"paid_amount"`
	UnpaidAmount int64       `json:"unpaid_amount"`
	AllPaid      bool        `json:"all_paid"`
}

// UnpaidOrderIDs returns the ids a checkout for this group would cover.
func (g UserOrderGroup) UnpaidOrderIDs() []string {
	ids := make([]string, 0, len(g.Lines))
	for _, line := range g.Lines {
		if !line.IsPaid {
			ids = append(ids, line.ID)
		}
	}
	return ids
}

type Contributor struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Quantity int    `json:"quantity"`
}

type MenuItemSummary struct {
	MenuItemID    string        `json:"menu_item_id"`
	MenuItemName  string        `json:"menu_item_name"`
	TotalQuantity int           `json:"total_quantity"`
	TotalAmount   int64         `json:"total_amount"`
	Contributors  []Contributor `json:"contributors"`
}

// DayCell is one user's orders on one day. HasOrder false renders as "no order".
type DayCell struct {
	Date     string `json:"date"`
	HasOrder bool   `json:"has_order"`
	Items    int    `json:"items"`
	Amount   int64  `json:"amount"`
	AllPaid  bool   `json:"all_paid"`
}

type WeeklyRow struct {
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	Cells    []DayCell `json:"cells"`
	Total    int64     `json:"total"`
}

type WeeklyRollup struct {
	Days       []string    `json:"days"`
	Rows       []WeeklyRow `json:"rows"`
	DayTotals  []int64     `json:"day_totals"`
	GrandTotal int64       `json:"grand_total"`
}
