package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"lunchbox/ledger-svc/internal/domain"
	"lunchbox/ledger-svc/internal/service"

	"github.com/gorilla/mux"
)

type Handler struct {
	Ledger service.LedgerInterface
}

func NewHandler(svc service.LedgerInterface) *Handler {
	return &Handler{Ledger: svc}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "ledger-svc"})
	}).Methods("GET")
	r.HandleFunc("/api/ledger/daily/{date}", h.getDaily).Methods("GET")
}

func (h *Handler) getDaily(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.Ledger.Daily(r.Context(), mux.Vars(r)["date"])
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDate) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ledger)
}
