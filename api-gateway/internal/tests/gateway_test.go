package tests

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lunchbox/api-gateway/internal/gateway"
	"lunchbox/api-gateway/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func jsonResponse(status int, body string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp
}

func TestGateway_HealthCheck(t *testing.T) {
	gw := gateway.NewGateway(gateway.Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	gw.SetupRoutes().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	json.NewDecoder(rr.Body).Decode(&body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "api-gateway", body["service"])
}

func TestGateway_RouteHandler(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		expectedURL string
		status      int
	}{
		{
			name:        "reconcile",
			method:      http.MethodPost,
			path:        "/api/orders/reconcile",
			expectedURL: "http://order-svc/api/orders/reconcile",
			status:      http.StatusOK,
		},
		{
			name:        "order groups with query",
			method:      http.MethodGet,
			path:        "/api/orders/groups?restaurant_id=r1&date=2025-03-10",
			expectedURL: "http://order-svc/api/orders/groups?restaurant_id=r1&date=2025-03-10",
			status:      http.StatusOK,
		},
		{
			name:        "checkout",
			method:      http.MethodPost,
			path:        "/api/payments/checkout",
			expectedURL: "http://order-svc/api/payments/checkout",
			status:      http.StatusCreated,
		},
		{
			name:        "payment qr code",
			method:      http.MethodGet,
			path:        "/api/payments/CODE1/qrcode",
			expectedURL: "http://order-svc/api/payments/CODE1/qrcode",
			status:      http.StatusOK,
		},
		{
			name:        "daily ledger",
			method:      http.MethodGet,
			path:        "/api/ledger/daily/2025-03-10",
			expectedURL: "http://ledger-svc/api/ledger/daily/2025-03-10",
			status:      http.StatusOK,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			mockClient := mocks.NewHTTPClient(t)
			gw := gateway.NewGateway(gateway.Config{
				OrderSvcURL:  "http://order-svc",
				LedgerSvcURL: "http://ledger-svc",
			}, mockClient)

			mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
				return req.URL.String() == testCase.expectedURL && req.Method == testCase.method
			})).Return(jsonResponse(testCase.status, `{"ok":true}`), nil).Once()

			req := httptest.NewRequest(testCase.method, testCase.path, strings.NewReader(`{}`))
			rr := httptest.NewRecorder()

			gw.RouteHandler(rr, req)

			assert.Equal(t, testCase.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestGateway_RouteHandler_UnknownAPI(t *testing.T) {
	tests := []string{"/api/unknown", "/api/ordersx", "/api/restaurants"}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			gw := gateway.NewGateway(gateway.Config{}, nil)

			req := httptest.NewRequest(http.MethodGet, path, nil)
			rr := httptest.NewRecorder()

			gw.RouteHandler(rr, req)

			assert.Equal(t, http.StatusNotFound, rr.Code)
		})
	}
}

func TestGateway_RouteHandler_ProxyError(t *testing.T) {
	mockClient := mocks.NewHTTPClient(t)
	gw := gateway.NewGateway(gateway.Config{
		OrderSvcURL: "http://invalid",
	}, mockClient)

	mockClient.On("Do", mock.Anything).Return(nil, errors.New("connection failed")).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rr := httptest.NewRecorder()

	gw.RouteHandler(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestGateway_RouteHandler_UpstreamStatusPassesThrough(t *testing.T) {
	mockClient := mocks.NewHTTPClient(t)
	gw := gateway.NewGateway(gateway.Config{
		OrderSvcURL: "http://order-svc",
	}, mockClient)

	mockClient.On("Do", mock.Anything).Return(jsonResponse(http.StatusMultiStatus, `{"failures":[{"error":"timeout"}]}`), nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/orders/reconcile", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	gw.RouteHandler(rr, req)

	assert.Equal(t, http.StatusMultiStatus, rr.Code)
	assert.Contains(t, rr.Body.String(), "timeout")
}
