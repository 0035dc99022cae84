package httpx

import "time"

type CreateOrderRequest struct {
	CustomerID string               `json:"customer_id"`
	Lines      []CreateOrderLineDTO `json:"lines"`
}

type CreateOrderLineDTO struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type OrderResponse struct {
	ID          string             `json:"id"`
	CustomerID  string             `json:"customer_id"`
	Status      string             `json:"status"`
	TotalAmount float64            `json:"total_amount"`
	Lines       []OrderLineDTO     `json:"lines"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type OrderLineDTO struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
