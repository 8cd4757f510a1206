package tests

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	httpapi "lunchbox/ledger-svc/internal/api/http"
	"lunchbox/ledger-svc/internal/domain"
	"lunchbox/ledger-svc/internal/mocks"
	"lunchbox/ledger-svc/internal/service"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetDailyHandler(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		setupMock func(*mocks.StoreInterface)
		wantCode  int
	}{
		{
			name: "found",
			date: "2025-03-10",
			setupMock: func(m *mocks.StoreInterface) {
				m.On("Daily", mock.Anything, "2025-03-10").
					Return(domain.DailyLedger{Date: "2025-03-10", Sessions: 2, Amount: 132000}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name:      "invalid date",
			date:      "10-03-2025",
			setupMock: func(m *mocks.StoreInterface) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "redis down",
			date: "2025-03-10",
			setupMock: func(m *mocks.StoreInterface) {
				m.On("Daily", mock.Anything, "2025-03-10").Return(domain.DailyLedger{}, errors.New("connection refused")).Once()
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			mockStore := mocks.NewStoreInterface(t)
			testCase.setupMock(mockStore)
			handler := httpapi.NewHandler(service.NewLedgerService(mockStore))

			req := httptest.NewRequest("GET", "/api/ledger/daily/"+testCase.date, nil)
			w := httptest.NewRecorder()

			r := mux.NewRouter()
			handler.RegisterRoutes(r)
			r.ServeHTTP(w, req)

			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestGetDailyHandler_body(t *testing.T) {
	mockLedger := mocks.NewLedgerInterface(t)
	mockLedger.On("Daily", mock.Anything, "2025-03-10").
		Return(domain.DailyLedger{Date: "2025-03-10", Amount: 82000, ByUser: map[string]int64{"u1": 82000}}, nil).Once()

	r := mux.NewRouter()
	httpapi.NewHandler(mockLedger).RegisterRoutes(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/ledger/daily/2025-03-10", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got domain.DailyLedger
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, int64(82000), got.ByUser["u1"])
}
