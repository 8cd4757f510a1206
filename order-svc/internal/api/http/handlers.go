package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"lunchbox/order-svc/internal/domain"
	"lunchbox/order-svc/internal/service"

	"github.com/gorilla/mux"
)

// SandboxPayer confirms payments by hand when the sandbox provider is active.
type SandboxPayer interface {
	MarkPaid(orderCode string, amount int64) error
}

type Handler struct {
	Orders   service.OrderServiceInterface
	Payments service.PaymentServiceInterface
	Sandbox  SandboxPayer
	Clock    service.Clock
}

func NewHandler(orders service.OrderServiceInterface, payments service.PaymentServiceInterface, clock service.Clock) *Handler {
	return &Handler{
		Orders:   orders,
		Payments: payments,
		Clock:    clock,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/orders/reconcile", h.reconcile).Methods("POST")
	r.HandleFunc("/api/orders", h.listOrders).Methods("GET")
	r.HandleFunc("/api/orders/groups", h.listUserGroups).Methods("GET")
	r.HandleFunc("/api/orders/items", h.listMenuItems).Methods("GET")
	r.HandleFunc("/api/orders/weekly", h.weeklyRollup).Methods("GET")

	r.HandleFunc("/api/payments/checkout", h.checkout).Methods("POST")
	r.HandleFunc("/api/payments/{code}", h.getSession).Methods("GET")
	r.HandleFunc("/api/payments/{code}/cancel", h.cancelSession).Methods("POST")
	r.HandleFunc("/api/payments/{code}/qrcode", h.getQRCode).Methods("GET")
	if h.Sandbox != nil {
		r.HandleFunc("/api/payments/{code}/sandbox-pay", h.sandboxPay).Methods("POST")
	}
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "order-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	var (
		providerErr *domain.ProviderError
		storeErr    *domain.StoreError
	)
	switch {
	case domain.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrIllegalTransition), errors.Is(err, domain.ErrSessionConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &providerErr):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.As(err, &storeErr):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	var cart domain.Cart
	if err := json.NewDecoder(r.Body).Decode(&cart); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	result, err := h.Orders.Reconcile(r.Context(), cart)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if result.Failed() {
		status = http.StatusMultiStatus
		if len(result.Created)+len(result.Updated)+len(result.Deleted) == 0 {
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, result)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	lines, err := h.Orders.ListOrders(r.Context(), domain.OrderFilter{
		UserID:       query.Get("user_id"),
		RestaurantID: query.Get("restaurant_id"),
		Date:         query.Get("date"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (h *Handler) listUserGroups(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	groups, err := h.Orders.ListUserGroups(r.Context(), query.Get("restaurant_id"), query.Get("date"), query.Get("current_user_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) listMenuItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	items, err := h.Orders.ListMenuItems(r.Context(), query.Get("restaurant_id"), query.Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) weeklyRollup(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rollup, err := h.Orders.WeeklyRollup(r.Context(), query.Get("restaurant_id"), query.Get("week_of"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}

type sessionView struct {
	*domain.PaymentSession
	ExpiresInSeconds int64 `json:"expires_in_seconds"`
	// set when an existing session was returned for a different set of lines
	ReusedScopeDiffers bool `json:"reused_scope_differs,omitempty"`
}

func (h *Handler) view(session *domain.PaymentSession) sessionView {
	now := time.Now()
	if h.Clock != nil {
		now = h.Clock.Now()
	}
	view := sessionView{PaymentSession: session}
	if session.Status == domain.SessionPending {
		if remaining := session.ExpiresAt.Sub(now); remaining > 0 {
			view.ExpiresInSeconds = int64(remaining.Seconds())
		}
	}
	return view
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	session, created, err := h.Payments.StartCheckout(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	view := h.view(session)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	} else {
		view.ReusedScopeDiffers = !session.Covers(req)
	}
	writeJSON(w, status, view)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.Payments.GetSession(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(session))
}

func (h *Handler) cancelSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID string `json:"user_id"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
	}

	session, err := h.Payments.Cancel(r.Context(), mux.Vars(r)["code"], payload.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(session))
}

func (h *Handler) getQRCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.Payments.QRCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) sandboxPay(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Amount int64 `json:"amount"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
	}
	if err := h.Sandbox.MarkPaid(mux.Vars(r)["code"], payload.Amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
