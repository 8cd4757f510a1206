package domain

type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Operation is one write of a reconciliation plan. LineID is empty for creates.
type Operation struct {
	Kind       OpKind    `json:"kind"`
	MenuItemID string    `json:"menu_item_id"`
	LineID     string    `json:"line_id,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	Note       string    `json:"note,omitempty"`
	Line       OrderLine `json:"-"`
}

// Plan groups the writes needed to make the store match a cart.
type Plan struct {
	Scope   Scope       `json:"scope"`
	Creates []Operation `json:"creates"`
	Updates []Operation `json:"updates"`
	Deletes []Operation `json:"deletes"`
}

func (p Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

func (p Plan) Len() int {
	return len(p.Creates) + len(p.Updates) + len(p.Deletes)
}

func (p Plan) Operations() []Operation {
	ops := make([]Operation, 0, p.Len())
	ops = append(ops, p.Creates...)
	ops = append(ops, p.Updates...)
	return append(ops, p.Deletes...)
}

// ApplyTo projects the plan onto a snapshot as if every operation succeeded.
// Created lines get no id; callers diffing the result only key on menu item.
func (p Plan) ApplyTo(snapshot []OrderLine) []OrderLine {
	deleted := make(map[string]bool, len(p.Deletes))
	for _, op := range p.Deletes {
		deleted[op.LineID] = true
	}
	updated := make(map[string]Operation, len(p.Updates))
	for _, op := range p.Updates {
		updated[op.LineID] = op
	}

	out := make([]OrderLine, 0, len(snapshot)+len(p.Creates))
	for _, line := range snapshot {
		if deleted[line.ID] {
			continue
		}
		if op, ok := updated[line.ID]; ok {
			line.Quantity = op.Quantity
			line.Note = op.Note
		}
		out = append(out, line)
	}
	for _, op := range p.Creates {
		out = append(out, op.Line)
	}
	return out
}

// OpFailure names one operation that did not reach the store.
type OpFailure struct {
	Operation Operation `json:"operation"`
	Err       error     `json:"-"`
	Message   string    `json:"error"`
}

// ReconcileResult is what the UI layer gets back from a reconciliation.
type ReconcileResult struct {
	Scope     Scope       `json:"scope"`
	Created   []OrderLine `json:"created"`
	Updated   []string    `json:"updated"`
	Deleted   []string    `json:"deleted"`
	Unchanged bool        `json:"unchanged"`
	Failures  []OpFailure `json:"failures"`
}

func (r ReconcileResult) Failed() bool {
	return len(r.Failures) > 0
}

// FailedMenuItems lists the menu items whose writes failed, for "which items didn't save".
func (r ReconcileResult) FailedMenuItems() map[string]bool {
	items := make(map[string]bool, len(r.Failures))
	for _, f := range r.Failures {
		items[f.Operation.MenuItemID] = true
	}
	return items
}
