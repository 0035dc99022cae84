package inventoryservice

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/order-choreography/internal/pkg/apperr"
)

type stockResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Available   int    `json:"available_stock"`
	Reserved    int    `json:"reserved_stock"`
}

type setStockRequest struct {
	Available int `json:"available_stock"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewRouter exposes the stock query consumed by the order service's
// pre-check, plus the administrative stock override.
func NewRouter(ledger *Ledger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/inventory", func(w http.ResponseWriter, req *http.Request) {
		records := ledger.All()
		out := make([]stockResponse, len(records))
		for i, rec := range records {
			out[i] = mapRecord(rec)
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/inventory/{productId}", func(w http.ResponseWriter, req *http.Request) {
		productID := chi.URLParam(req, "productId")
		rec, ok := ledger.Get(productID)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "product " + productID + " not found"})
			return
		}
		writeJSON(w, http.StatusOK, mapRecord(rec))
	})

	r.Put("/inventory/{productId}/stock", func(w http.ResponseWriter, req *http.Request) {
		productID := chi.URLParam(req, "productId")

		var body setStockRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Message: err.Error()})
			return
		}

		if err := ledger.SetAvailable(productID, body.Available); err != nil {
			var nf *apperr.NotFoundError
			if errors.As(err, &nf) {
				writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()})
				return
			}
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation_error", Message: err.Error()})
			return
		}

		rec, _ := ledger.Get(productID)
		writeJSON(w, http.StatusOK, mapRecord(rec))
	})

	return r
}

func mapRecord(r Record) stockResponse {
	return stockResponse{
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		Available:   r.Available,
		Reserved:    r.Reserved,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
