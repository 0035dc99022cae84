package paymentservice

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type paymentResponse struct {
	PaymentID     string    `json:"payment_id"`
	OrderID       string    `json:"order_id"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	FailureReason string    `json:"failure_reason,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// NewRouter exposes read-only payment lookups for auditing.
func NewRouter(processor *Processor) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/payments", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, mapPayments(processor.All()))
	})

	r.Get("/payments/order/{orderId}", func(w http.ResponseWriter, req *http.Request) {
		orderID := chi.URLParam(req, "orderId")
		writeJSON(w, http.StatusOK, mapPayments(processor.ByOrder(orderID)))
	})

	return r
}

func mapPayments(payments []Payment) []paymentResponse {
	out := make([]paymentResponse, len(payments))
	for i, p := range payments {
		out[i] = paymentResponse{
			PaymentID:     p.PaymentID,
			OrderID:       p.OrderID,
			Amount:        p.Amount,
			Status:        string(p.Status),
			FailureReason: p.FailureReason,
			ProcessedAt:   p.ProcessedAt,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
