package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"lunchbox/order-svc/internal/domain"

	"golang.org/x/sync/errgroup"
)

const DefaultMaxParallel = 8

type ReconcileEngine struct {
	store       OrderStore
	locks       OrderLocker
	clock       Clock
	maxParallel int
}

// NewReconcileEngine builds an engine. locks may be nil when no payment
// sessions can hold order lines.
func NewReconcileEngine(store OrderStore, locks OrderLocker, clock Clock, maxParallel int) *ReconcileEngine {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	return &ReconcileEngine{
		store:       store,
		locks:       locks,
		clock:       clock,
		maxParallel: maxParallel,
	}
}

func validateScope(scope domain.Scope) error {
	if scope.UserID == "" || scope.RestaurantID == "" || scope.Date == "" {
		return domain.ErrInvalidScope
	}
	if _, err := domain.ParseDate(scope.Date); err != nil {
		return domain.ErrInvalidScope
	}
	return nil
}

// Diff computes the writes that turn snapshot into cart for the cart's scope.
// Lines outside the scope are ignored. It never touches the store.
func Diff(snapshot []domain.OrderLine, cart domain.Cart) (domain.Plan, error) {
	if err := validateScope(cart.Scope); err != nil {
		return domain.Plan{}, err
	}
	plan := domain.Plan{Scope: cart.Scope}

	scoped := make([]domain.OrderLine, 0, len(snapshot))
	for _, line := range snapshot {
		if line.Scope() == cart.Scope {
			scoped = append(scoped, line)
		}
	}
	sort.SliceStable(scoped, func(i, j int) bool {
		if !scoped[i].CreatedAt.Equal(scoped[j].CreatedAt) {
			return scoped[i].CreatedAt.Before(scoped[j].CreatedAt)
		}
		return scoped[i].ID < scoped[j].ID
	})

	existing := make(map[string]domain.OrderLine, len(scoped))
	for _, line := range scoped {
		if _, ok := existing[line.MenuItemID]; !ok {
			existing[line.MenuItemID] = line
			continue
		}
		// duplicate active line for the same item: keep the oldest
		if !line.IsPaid {
			plan.Deletes = append(plan.Deletes, deleteOp(line))
		}
	}

	wanted := make(map[string]domain.CartItem, len(cart.Items))
	for key, item := range cart.Items {
		if item.Quantity <= 0 {
			continue
		}
		if item.MenuItem.ID == "" {
			item.MenuItem.ID = key
		}
		if item.MenuItem.ID != key {
			return domain.Plan{}, domain.Invalid("items", fmt.Sprintf("cart key %s does not match menu item %s", key, item.MenuItem.ID))
		}
		wanted[key] = item
	}

	for _, menuItemID := range sortedKeys(wanted) {
		item := wanted[menuItemID]
		line, ok := existing[menuItemID]
		if !ok {
			plan.Creates = append(plan.Creates, createOp(cart, item))
			continue
		}
		if line.Quantity == item.Quantity && line.Note == item.Note {
			continue
		}
		if line.IsPaid {
			return domain.Plan{}, fmt.Errorf("menu item %s: %w", menuItemID, domain.ErrPaidLineLocked)
		}
		plan.Updates = append(plan.Updates, domain.Operation{
			Kind:       domain.OpUpdate,
			MenuItemID: menuItemID,
			LineID:     line.ID,
			Quantity:   item.Quantity,
			Note:       item.Note,
			Line:       line,
		})
	}

	for _, menuItemID := range sortedKeys(existing) {
		if _, ok := wanted[menuItemID]; ok {
			continue
		}
		line := existing[menuItemID]
		if line.IsPaid {
			return domain.Plan{}, fmt.Errorf("menu item %s: %w", menuItemID, domain.ErrPaidLineLocked)
		}
		plan.Deletes = append(plan.Deletes, deleteOp(line))
	}
	sort.SliceStable(plan.Deletes, func(i, j int) bool {
		return plan.Deletes[i].MenuItemID < plan.Deletes[j].MenuItemID
	})

	return plan, nil
}

func createOp(cart domain.Cart, item domain.CartItem) domain.Operation {
	return domain.Operation{
		Kind:       domain.OpCreate,
		MenuItemID: item.MenuItem.ID,
		Quantity:   item.Quantity,
		Note:       item.Note,
		Line: domain.OrderLine{
			UserID:       cart.Scope.UserID,
			UserName:     cart.User.Name,
			UserEmail:    cart.User.Email,
			RestaurantID: cart.Scope.RestaurantID,
			MenuItemID:   item.MenuItem.ID,
			MenuItemName: item.MenuItem.Name,
			Category:     item.MenuItem.Category,
			UnitPrice:    item.MenuItem.UnitPrice,
			Date:         cart.Scope.Date,
			Quantity:     item.Quantity,
			Note:         item.Note,
		},
	}
}

func deleteOp(line domain.OrderLine) domain.Operation {
	return domain.Operation{
		Kind:       domain.OpDelete,
		MenuItemID: line.MenuItemID,
		LineID:     line.ID,
		Line:       line,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Reconcile re-reads the scope from the store, diffs it against the cart and
// applies the plan. Validation errors reject the whole plan before any write.
// A failure to read the snapshot is returned as a *domain.StoreError.
func (e *ReconcileEngine) Reconcile(ctx context.Context, cart domain.Cart) (domain.ReconcileResult, error) {
	if err := validateScope(cart.Scope); err != nil {
		return domain.ReconcileResult{}, err
	}
	if cart.Scope.Date < Today(e.clock) {
		return domain.ReconcileResult{}, domain.ErrPastOrderDay
	}

	snapshot, err := e.store.ListOrders(ctx, domain.OrderFilter{
		UserID:       cart.Scope.UserID,
		RestaurantID: cart.Scope.RestaurantID,
		Date:         cart.Scope.Date,
	})
	if err != nil {
		return domain.ReconcileResult{}, storeError("list", cart.Scope.Date, err)
	}

	plan, err := Diff(snapshot, cart)
	if err != nil {
		return domain.ReconcileResult{}, err
	}
	if plan.Empty() {
		return domain.ReconcileResult{Scope: plan.Scope, Unchanged: true}, nil
	}
	if err := e.checkLocks(ctx, plan); err != nil {
		return domain.ReconcileResult{}, err
	}

	return e.Apply(ctx, plan), nil
}

func (e *ReconcileEngine) checkLocks(ctx context.Context, plan domain.Plan) error {
	if e.locks == nil {
		return nil
	}
	ids := make([]string, 0, len(plan.Updates)+len(plan.Deletes))
	for _, op := range plan.Updates {
		ids = append(ids, op.LineID)
	}
	for _, op := range plan.Deletes {
		ids = append(ids, op.LineID)
	}
	if len(ids) == 0 {
		return nil
	}
	locked, err := e.locks.LockedOrders(ctx, ids)
	if err != nil {
		return storeError("locks", plan.Scope.Date, err)
	}
	for _, id := range ids {
		if code, ok := locked[id]; ok {
			return fmt.Errorf("order %s held by payment %s: %w", id, code, domain.ErrLineInCheckout)
		}
	}
	return nil
}

// Apply runs every operation of the plan concurrently and waits for all of
// them. It never returns early: each failure is recorded against its
// operation and the rest still run.
func (e *ReconcileEngine) Apply(ctx context.Context, plan domain.Plan) domain.ReconcileResult {
	result := domain.ReconcileResult{Scope: plan.Scope, Unchanged: plan.Empty()}
	if plan.Empty() {
		return result
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(e.maxParallel)
	for _, op := range plan.Operations() {
		op := op
		g.Go(func() error {
			created, err := e.applyOne(ctx, op)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Reconcile %s failed: menu_item=%s line=%s err=%v", op.Kind, op.MenuItemID, op.LineID, err)
				result.Failures = append(result.Failures, domain.OpFailure{Operation: op, Err: err, Message: err.Error()})
				return nil
			}
			switch op.Kind {
			case domain.OpCreate:
				result.Created = append(result.Created, created)
			case domain.OpUpdate:
				result.Updated = append(result.Updated, op.LineID)
			case domain.OpDelete:
				result.Deleted = append(result.Deleted, op.LineID)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Created, func(i, j int) bool { return result.Created[i].MenuItemID < result.Created[j].MenuItemID })
	sort.Strings(result.Updated)
	sort.Strings(result.Deleted)
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Operation.MenuItemID < result.Failures[j].Operation.MenuItemID
	})
	return result
}

func (e *ReconcileEngine) applyOne(ctx context.Context, op domain.Operation) (domain.OrderLine, error) {
	switch op.Kind {
	case domain.OpCreate:
		line, err := e.store.CreateOrder(ctx, op.Line)
		if err != nil {
			return domain.OrderLine{}, storeError("create", op.MenuItemID, err)
		}
		return line, nil
	case domain.OpUpdate:
		quantity, note := op.Quantity, op.Note
		ok, err := e.store.UpdateOrder(ctx, op.LineID, domain.OrderPatch{Quantity: &quantity, Note: &note})
		if err != nil {
			return domain.OrderLine{}, storeError("update", op.LineID, err)
		}
		if !ok {
			return domain.OrderLine{}, storeError("update", op.LineID, domain.ErrNotFound)
		}
		return domain.OrderLine{}, nil
	case domain.OpDelete:
		// a line that is already gone is the state we wanted
		if _, err := e.store.DeleteOrder(ctx, op.LineID); err != nil {
			return domain.OrderLine{}, storeError("delete", op.LineID, err)
		}
		return domain.OrderLine{}, nil
	}
	return domain.OrderLine{}, fmt.Errorf("unknown operation kind %q", op.Kind)
}

func storeError(op, key string, err error) error {
	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &domain.StoreError{Op: op, Key: key, Err: err}
}
