// Package inventory is the order service's HTTP client for the inventory
// service's stock query. The create-order workflow uses it for its advisory
// pre-check only; the authoritative reservation happens later in the
// inventory consumer.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jcmexdev/order-choreography/internal/order-service/app"
	"github.com/jcmexdev/order-choreography/internal/pkg/apperr"
)

// Ensure the client satisfies the workflow's port at compile time.
var _ app.StockChecker = (*Client)(nil)

// stockDTO mirrors the inventory service's stock query response.
type stockDTO struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Available   int    `json:"available_stock"`
	Reserved    int    `json:"reserved_stock"`
}

// Client queries the inventory service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// ProductStock fetches the live stock for a product. A missing product
// returns *apperr.NotFoundError; connectivity failures return a wrapped
// transport error the caller surfaces as "system unavailable".
func (c *Client) ProductStock(ctx context.Context, productID string) (*app.ProductStock, error) {
	url := fmt.Sprintf("%s/inventory/%s", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("inventory: build stock request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inventory: query stock for %s: %w", productID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &apperr.NotFoundError{Entity: "product", ID: productID}
	default:
		return nil, fmt.Errorf("inventory: query stock for %s: unexpected status %d", productID, resp.StatusCode)
	}

	var dto stockDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("inventory: decode stock for %s: %w", productID, err)
	}
	return &app.ProductStock{
		ProductID:   dto.ProductID,
		ProductName: dto.ProductName,
		Available:   dto.Available,
		Reserved:    dto.Reserved,
	}, nil
}
