package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/order-choreography/internal/order-service/app"
	"github.com/jcmexdev/order-choreography/internal/order-service/domain"
	"github.com/jcmexdev/order-choreography/internal/pkg/apperr"
)

// Handler exposes the order workflows over HTTP.
type Handler struct {
	orders *app.Service
}

func NewHandler(orders *app.Service) *Handler {
	return &Handler{orders: orders}
}

// CreateOrder validates the payload and runs the create-order workflow.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.CustomerID == "" || len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer_id and lines are required")
		return
	}

	lines := make([]app.LineRequest, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, app.LineRequest{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}

	slog.InfoContext(r.Context(), "creating order", "customer_id", req.CustomerID, "lines", len(lines))

	order, err := h.orders.CreateOrder(r.Context(), req.CustomerID, lines)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapOrder(order))
}

// GetOrderByID serves the cached point lookup.
func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

// GetOrdersByCustomer lists a customer's orders, newest first.
func (h *Handler) GetOrdersByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	orders, err := h.orders.ListByCustomer(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrders(orders))
}

// GetOrdersByStatus lists orders in one lifecycle state, newest first.
func (h *Handler) GetOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	orders, err := h.orders.ListByStatus(r.Context(), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrders(orders))
}

// ApproveOrder is the manual admin transition Pending -> Confirmed.
func (h *Handler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := h.orders.Approve(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

// CancelOrder is the manual admin cancellation.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CancelOrderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
	}

	order, err := h.orders.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

// writeDomainError maps the error taxonomy onto status codes. Callers can
// tell "insufficient stock" (409) apart from "system unavailable" (502).
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		validation   *apperr.ValidationError
		invalidState *apperr.InvalidStateError
		notFound     *apperr.NotFoundError
		noStock      *apperr.InsufficientStockError
		persistence  *apperr.PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.As(err, &invalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.As(err, &noStock):
		writeError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &persistence):
		writeError(w, http.StatusServiceUnavailable, "persistence_error", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "system_unavailable", err.Error())
	}
}

func mapOrders(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = mapOrder(o)
	}
	return out
}

func mapOrder(o *domain.Order) OrderResponse {
	lines := make([]OrderLineDTO, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineDTO{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
	}
	return OrderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount(),
		Lines:       lines,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
