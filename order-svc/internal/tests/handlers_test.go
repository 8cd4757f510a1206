package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpapi "lunchbox/order-svc/internal/api/http"
	"lunchbox/order-svc/internal/domain"
	"lunchbox/order-svc/internal/mocks"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type handlerMocks struct {
	orders   *mocks.OrderServiceInterface
	payments *mocks.PaymentServiceInterface
}

func serve(t *testing.T, setup func(m handlerMocks), method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	m := handlerMocks{
		orders:   mocks.NewOrderServiceInterface(t),
		payments: mocks.NewPaymentServiceInterface(t),
	}
	if setup != nil {
		setup(m)
	}
	handler := httpapi.NewHandler(m.orders, m.payments, newTestClock())

	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReconcileHandler(t *testing.T) {
	body := `{"scope":{"user_id":"u1","restaurant_id":"r1","date":"2025-03-10"},"items":{"itemA":{"menu_item":{"id":"itemA","unit_price":35000},"quantity":2}}}`
	failure := domain.OpFailure{Operation: domain.Operation{Kind: domain.OpCreate, MenuItemID: "itemB"}, Message: "connection reset"}

	tests := []struct {
		name         string
		body         string
		prepareMocks func(m handlerMocks)
		wantCode     int
	}{
		{
			name: "applied",
			body: body,
			prepareMocks: func(m handlerMocks) {
				m.orders.On("Reconcile", mock.Anything, mock.MatchedBy(func(c domain.Cart) bool {
					return c.Scope == scope("u1") && c.Items["itemA"].Quantity == 2
				})).Return(domain.ReconcileResult{Scope: scope("u1"), Updated: []string{"L1"}}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name: "partial_failure",
			body: body,
			prepareMocks: func(m handlerMocks) {
				m.orders.On("Reconcile", mock.Anything, mock.Anything).
					Return(domain.ReconcileResult{Updated: []string{"L1"}, Failures: []domain.OpFailure{failure}}, nil).Once()
			},
			wantCode: http.StatusMultiStatus,
		},
		{
			name: "every_write_failed",
			body: body,
			prepareMocks: func(m handlerMocks) {
				m.orders.On("Reconcile", mock.Anything, mock.Anything).
					Return(domain.ReconcileResult{Failures: []domain.OpFailure{failure}}, nil).Once()
			},
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name: "past_day",
			body: body,
			prepareMocks: func(m handlerMocks) {
				m.orders.On("Reconcile", mock.Anything, mock.Anything).Return(domain.ReconcileResult{}, domain.ErrPastOrderDay).Once()
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "snapshot_unavailable",
			body: body,
			prepareMocks: func(m handlerMocks) {
				m.orders.On("Reconcile", mock.Anything, mock.Anything).
					Return(domain.ReconcileResult{}, &domain.StoreError{Op: "list", Key: today, Err: errors.New("timeout")}).Once()
			},
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:     "invalid_json",
			body:     `{invalid}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			w := serve(t, testCase.prepareMocks, "POST", "/api/orders/reconcile", testCase.body)
			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestListUserGroupsHandler(t *testing.T) {
	groups := []domain.UserOrderGroup{{UserID: "u2", UserName: "Bob", TotalAmount: 70000}}

	w := serve(t, func(m handlerMocks) {
		m.orders.On("ListUserGroups", mock.Anything, restaurant, today, "u2").Return(groups, nil).Once()
	}, "GET", "/api/orders/groups?restaurant_id=r1&date=2025-03-10&current_user_id=u2", "")

	require.Equal(t, http.StatusOK, w.Code)
	var got []domain.UserOrderGroup
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Bob", got[0].UserName)
	assert.Equal(t, int64(70000), got[0].TotalAmount)
}

func TestWeeklyRollupHandler(t *testing.T) {
	w := serve(t, func(m handlerMocks) {
		m.orders.On("WeeklyRollup", mock.Anything, restaurant, "2025-03-12").
			Return(domain.WeeklyRollup{}, domain.Invalid("week_of", "not a date")).Once()
	}, "GET", "/api/orders/weekly?restaurant_id=r1&week_of=2025-03-12", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutHandler(t *testing.T) {
	clock := newTestClock()
	session := &domain.PaymentSession{
		OrderCode: "CODE1",
		UserID:    "u1",
		Status:    domain.SessionPending,
		ExpiresAt: clock.Now().Add(10 * time.Minute),
	}

	tests := []struct {
		name         string
		prepareMocks func(m handlerMocks)
		wantCode     int
	}{
		{
			name: "created",
			prepareMocks: func(m handlerMocks) {
				m.payments.On("StartCheckout", mock.Anything, mock.Anything).Return(session, true, nil).Once()
			},
			wantCode: http.StatusCreated,
		},
		{
			name: "reused",
			prepareMocks: func(m handlerMocks) {
				m.payments.On("StartCheckout", mock.Anything, mock.Anything).Return(session, false, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name: "amount_changed",
			prepareMocks: func(m handlerMocks) {
				m.payments.On("StartCheckout", mock.Anything, mock.Anything).Return(nil, false, domain.ErrAmountMismatch).Once()
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "provider_down",
			prepareMocks: func(m handlerMocks) {
				m.payments.On("StartCheckout", mock.Anything, mock.Anything).
					Return(nil, false, &domain.ProviderError{Op: "create checkout", Err: errors.New("timeout")}).Once()
			},
			wantCode: http.StatusBadGateway,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			w := serve(t, testCase.prepareMocks, "POST", "/api/payments/checkout",
				`{"user_id":"u1","date":"2025-03-10","order_ids":["L1"],"amount":35000}`)
			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestCheckoutHandler_reusedScope(t *testing.T) {
	session := &domain.PaymentSession{
		OrderCode:       "CODE1",
		UserID:          "u1",
		Status:          domain.SessionPending,
		Amount:          35000,
		CoveredOrderIDs: []string{"L1"},
	}

	tests := []struct {
		name        string
		body        string
		wantDiffers bool
	}{
		{
			name: "same_lines",
			body: `{"user_id":"u1","date":"2025-03-10","order_ids":["L1"],"amount":35000}`,
		},
		{
			name:        "more_lines_requested",
			body:        `{"user_id":"u1","date":"2025-03-10","order_ids":["L1","L2"],"amount":47000}`,
			wantDiffers: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			w := serve(t, func(m handlerMocks) {
				m.payments.On("StartCheckout", mock.Anything, mock.Anything).Return(session, false, nil).Once()
			}, "POST", "/api/payments/checkout", testCase.body)

			require.Equal(t, http.StatusOK, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, "CODE1", body["order_code"])
			if testCase.wantDiffers {
				assert.Equal(t, true, body["reused_scope_differs"])
			} else {
				assert.NotContains(t, body, "reused_scope_differs")
			}
		})
	}
}

func TestGetSessionHandler(t *testing.T) {
	clock := newTestClock()
	session := &domain.PaymentSession{
		OrderCode: "CODE1",
		Status:    domain.SessionPending,
		ExpiresAt: clock.Now().Add(90 * time.Second),
	}

	w := serve(t, func(m handlerMocks) {
		m.payments.On("GetSession", mock.Anything, "CODE1").Return(session, nil).Once()
	}, "GET", "/api/payments/CODE1", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "CODE1", body["order_code"])
	assert.Equal(t, float64(90), body["expires_in_seconds"])

	w = serve(t, func(m handlerMocks) {
		m.payments.On("GetSession", mock.Anything, "NOPE").Return(nil, domain.ErrNotFound).Once()
	}, "GET", "/api/payments/NOPE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelSessionHandler(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		prepareMocks func(m handlerMocks)
		wantCode     int
	}{
		{
			name: "cancelled",
			body: `{"user_id":"u1"}`,
			prepareMocks: func(m handlerMocks) {
				m.payments.On("Cancel", mock.Anything, "CODE1", "u1").
					Return(&domain.PaymentSession{OrderCode: "CODE1", Status: domain.SessionCancelled}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name: "without_body",
			prepareMocks: func(m handlerMocks) {
				m.payments.On("Cancel", mock.Anything, "CODE1", "").
					Return(&domain.PaymentSession{OrderCode: "CODE1", Status: domain.SessionCancelled}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name: "already_finished",
			body: `{"user_id":"u1"}`,
			prepareMocks: func(m handlerMocks) {
				m.payments.On("Cancel", mock.Anything, "CODE1", "u1").Return(nil, domain.ErrIllegalTransition).Once()
			},
			wantCode: http.StatusConflict,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			w := serve(t, testCase.prepareMocks, "POST", "/api/payments/CODE1/cancel", testCase.body)
			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestQRCodeHandler(t *testing.T) {
	w := serve(t, func(m handlerMocks) {
		m.payments.On("QRCode", mock.Anything, "CODE1").Return([]byte("\x89PNG"), nil).Once()
	}, "GET", "/api/payments/CODE1/qrcode", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, []byte("\x89PNG"), w.Body.Bytes())
}

func TestSandboxPayRouteOnlyWithSandbox(t *testing.T) {
	w := serve(t, nil, "POST", "/api/payments/CODE1/sandbox-pay", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
