package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lunchbox/order-svc/internal/domain"
	"lunchbox/order-svc/internal/mocks"
	"lunchbox/order-svc/internal/service"
	"lunchbox/order-svc/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	older := line("L1", "u1", "itemA", 1, 10000)
	older.CreatedAt = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	newer := line("L9", "u1", "itemA", 1, 10000)
	newer.CreatedAt = older.CreatedAt.Add(time.Minute)

	tests := []struct {
		name            string
		snapshot        []domain.OrderLine
		cart            domain.Cart
		expectedCreates []string
		expectedUpdates map[string]int
		expectedDeletes []string
	}{
		{
			name: "create_update_delete",
			snapshot: []domain.OrderLine{
				line("L1", "u1", "itemA", 2, 10000),
				line("L2", "u1", "itemB", 1, 20000),
			},
			cart:            cart("u1", map[string]int{"itemA": 3, "itemC": 1}),
			expectedCreates: []string{"itemC"},
			expectedUpdates: map[string]int{"L1": 3},
			expectedDeletes: []string{"L2"},
		},
		{
			name:     "unchanged",
			snapshot: []domain.OrderLine{line("L1", "u1", "itemA", 2, 10000)},
			cart:     cart("u1", map[string]int{"itemA": 2}),
		},
		{
			name:            "non_positive_quantities_mean_absent",
			snapshot:        []domain.OrderLine{line("L1", "u1", "itemA", 2, 10000)},
			cart:            cart("u1", map[string]int{"itemA": 0, "itemB": -1}),
			expectedDeletes: []string{"L1"},
		},
		{
			name:     "other_scopes_ignored",
			snapshot: []domain.OrderLine{line("L1", "u2", "itemA", 2, 10000)},
			cart:     cart("u1", map[string]int{}),
		},
		{
			name:            "duplicate_lines_healed",
			snapshot:        []domain.OrderLine{newer, older},
			cart:            cart("u1", map[string]int{"itemA": 1}),
			expectedDeletes: []string{"L9"},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			plan, err := service.Diff(testCase.snapshot, testCase.cart)
			require.NoError(t, err)

			var creates []string
			for _, op := range plan.Creates {
				creates = append(creates, op.MenuItemID)
				assert.Equal(t, testCase.cart.Scope, op.Line.Scope())
			}
			updates := make(map[string]int)
			for _, op := range plan.Updates {
				updates[op.LineID] = op.Quantity
			}
			var deletes []string
			for _, op := range plan.Deletes {
				deletes = append(deletes, op.LineID)
			}

			assert.Equal(t, testCase.expectedCreates, creates)
			if testCase.expectedUpdates == nil {
				assert.Empty(t, updates)
			} else {
				assert.Equal(t, testCase.expectedUpdates, updates)
			}
			assert.Equal(t, testCase.expectedDeletes, deletes)
		})
	}
}

func TestDiff_idempotent(t *testing.T) {
	snapshots := [][]domain.OrderLine{
		nil,
		{line("L1", "u1", "itemA", 2, 10000)},
		{line("L1", "u1", "itemA", 2, 10000), line("L2", "u1", "itemB", 1, 20000)},
	}
	carts := []domain.Cart{
		cart("u1", map[string]int{}),
		cart("u1", map[string]int{"itemA": 2}),
		cart("u1", map[string]int{"itemA": 5, "itemC": 1}),
		cart("u1", map[string]int{"itemB": 0, "itemD": 2}),
	}

	for _, snapshot := range snapshots {
		for _, c := range carts {
			plan, err := service.Diff(snapshot, c)
			require.NoError(t, err)

			again, err := service.Diff(plan.ApplyTo(snapshot), c)
			require.NoError(t, err)
			assert.True(t, again.Empty(), "second diff should be empty, got %+v", again)
		}
	}
}

func TestDiff_noteChangeIsUpdate(t *testing.T) {
	c := cart("u1", map[string]int{"itemA": 2})
	item := c.Items["itemA"]
	item.Note = "no onions"
	c.Items["itemA"] = item

	plan, err := service.Diff([]domain.OrderLine{line("L1", "u1", "itemA", 2, 10000)}, c)
	require.NoError(t, err)
	require.Len(t, plan.Updates, 1)
	assert.Equal(t, "no onions", plan.Updates[0].Note)
}

func TestDiff_paidLines(t *testing.T) {
	paid := line("L1", "u1", "itemA", 2, 10000)
	paid.IsPaid = true

	tests := []struct {
		name string
		cart domain.Cart
	}{
		{name: "remove_paid_line", cart: cart("u1", map[string]int{})},
		{name: "change_paid_quantity", cart: cart("u1", map[string]int{"itemA": 3})},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := service.Diff([]domain.OrderLine{paid}, testCase.cart)
			assert.ErrorIs(t, err, domain.ErrPaidLineLocked)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	plan, err := service.Diff([]domain.OrderLine{paid}, cart("u1", map[string]int{"itemA": 2, "itemB": 1}))
	require.NoError(t, err)
	assert.Len(t, plan.Creates, 1)
	assert.Empty(t, plan.Updates)
	assert.Empty(t, plan.Deletes)
}

func TestDiff_invalidScope(t *testing.T) {
	c := cart("u1", map[string]int{"itemA": 1})
	c.Scope.Date = "10/03/2025"

	_, err := service.Diff(nil, c)
	assert.ErrorIs(t, err, domain.ErrInvalidScope)
}

func TestReconcileEngine_Reconcile(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()

	t.Run("unchanged_cart_writes_nothing", func(t *testing.T) {
		store := mocks.NewOrderStore(t)
		engine := service.NewReconcileEngine(store, nil, clock, 4)

		store.On("ListOrders", ctx, domain.OrderFilter{UserID: "u1", RestaurantID: restaurant, Date: today}).
			Return([]domain.OrderLine{line("L1", "u1", "itemA", 2, 10000)}, nil).Once()

		result, err := engine.Reconcile(ctx, cart("u1", map[string]int{"itemA": 2}))
		require.NoError(t, err)
		assert.True(t, result.Unchanged)
		store.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "DeleteOrder", mock.Anything, mock.Anything)
	})

	t.Run("past_day_rejected", func(t *testing.T) {
		store := mocks.NewOrderStore(t)
		engine := service.NewReconcileEngine(store, nil, clock, 4)

		c := cart("u1", map[string]int{"itemA": 1})
		c.Scope.Date = "2025-03-09"
		_, err := engine.Reconcile(ctx, c)
		assert.ErrorIs(t, err, domain.ErrPastOrderDay)
	})

	t.Run("line_in_checkout_rejected", func(t *testing.T) {
		store := mocks.NewOrderStore(t)
		locks := mocks.NewOrderLocker(t)
		engine := service.NewReconcileEngine(store, locks, clock, 4)

		store.On("ListOrders", ctx, mock.Anything).
			Return([]domain.OrderLine{line("L1", "u1", "itemA", 2, 10000)}, nil).Once()
		locks.On("LockedOrders", ctx, []string{"L1"}).Return(map[string]string{"L1": "CODE1"}, nil).Once()

		_, err := engine.Reconcile(ctx, cart("u1", map[string]int{"itemA": 3}))
		assert.ErrorIs(t, err, domain.ErrLineInCheckout)
	})

	t.Run("snapshot_failure_is_store_error", func(t *testing.T) {
		store := mocks.NewOrderStore(t)
		engine := service.NewReconcileEngine(store, nil, clock, 4)

		store.On("ListOrders", ctx, mock.Anything).Return(nil, errors.New("timeout")).Once()

		_, err := engine.Reconcile(ctx, cart("u1", map[string]int{"itemA": 3}))
		var storeErr *domain.StoreError
		assert.ErrorAs(t, err, &storeErr)
	})

	t.Run("partial_failure_names_failed_items", func(t *testing.T) {
		store := mocks.NewOrderStore(t)
		engine := service.NewReconcileEngine(store, nil, clock, 4)

		store.On("ListOrders", ctx, mock.Anything).Return([]domain.OrderLine{
			line("L1", "u1", "itemA", 2, 10000),
			line("L2", "u1", "itemB", 1, 20000),
		}, nil).Once()
		store.On("CreateOrder", ctx, mock.MatchedBy(func(l domain.OrderLine) bool { return l.MenuItemID == "itemC" })).
			Return(domain.OrderLine{}, errors.New("insert failed")).Once()
		store.On("CreateOrder", ctx, mock.MatchedBy(func(l domain.OrderLine) bool { return l.MenuItemID == "itemD" })).
			Return(domain.OrderLine{ID: "L4", MenuItemID: "itemD"}, nil).Once()
		store.On("UpdateOrder", ctx, "L1", mock.Anything).Return(true, nil).Once()
		store.On("DeleteOrder", ctx, "L2").Return(true, nil).Once()

		result, err := engine.Reconcile(ctx, cart("u1", map[string]int{"itemA": 3, "itemC": 1, "itemD": 1}))
		require.NoError(t, err)

		require.Len(t, result.Failures, 1)
		failure := result.Failures[0]
		assert.Equal(t, domain.OpCreate, failure.Operation.Kind)
		assert.Equal(t, "itemC", failure.Operation.MenuItemID)
		var storeErr *domain.StoreError
		assert.ErrorAs(t, failure.Err, &storeErr)
		assert.Equal(t, map[string]bool{"itemC": true}, result.FailedMenuItems())

		require.Len(t, result.Created, 1)
		assert.Equal(t, "L4", result.Created[0].ID)
		assert.Equal(t, []string{"L1"}, result.Updated)
		assert.Equal(t, []string{"L2"}, result.Deleted)
	})
}

func TestReconcileEngine_endToEnd(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	engine := service.NewReconcileEngine(store, nil, newTestClock(), 4)

	result, err := engine.Reconcile(ctx, cart("u1", map[string]int{"itemA": 2, "itemB": 1}))
	require.NoError(t, err)
	assert.Len(t, result.Created, 2)

	result, err = engine.Reconcile(ctx, cart("u1", map[string]int{"itemA": 3}))
	require.NoError(t, err)
	assert.Len(t, result.Updated, 1)
	assert.Len(t, result.Deleted, 1)

	result, err = engine.Reconcile(ctx, cart("u1", map[string]int{"itemA": 3}))
	require.NoError(t, err)
	assert.True(t, result.Unchanged)

	lines, err := store.ListOrders(ctx, domain.OrderFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

// Two tabs diff against the same stale snapshot. The writes touch different
// menu items, so both land.
func TestReconcileEngine_concurrentStaleSnapshots(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	engine := service.NewReconcileEngine(store, nil, newTestClock(), 4)
	seed(t, store, line("", "u1", "itemA", 1, 10000))

	stale, err := store.ListOrders(ctx, domain.OrderFilter{UserID: "u1", RestaurantID: restaurant, Date: today})
	require.NoError(t, err)

	keepAndAdd, err := service.Diff(stale, cart("u1", map[string]int{"itemA": 1, "itemC": 1}))
	require.NoError(t, err)
	removeAll, err := service.Diff(stale, cart("u1", map[string]int{}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]domain.ReconcileResult, 2)
	for i, plan := range []domain.Plan{keepAndAdd, removeAll} {
		i, plan := i, plan
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = engine.Apply(ctx, plan)
		}()
	}
	wg.Wait()

	for _, result := range results {
		assert.False(t, result.Failed())
	}
	lines, err := store.ListOrders(ctx, domain.OrderFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "itemC", lines[0].MenuItemID)
}
