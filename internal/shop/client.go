package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// APIError is a non-2xx response from the shop API.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("shop api returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("shop api returned %d", e.Status)
}

// Client talks to the ShopHub REST API. Every call is one independent
// network round-trip; the orchestration core does no batching and no
// cross-call transactions.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the client's logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a shop API client for the given base URL.
func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  zerolog.Nop(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// SearchProducts searches the catalog with the given filters.
func (c *Client) SearchProducts(ctx context.Context, q SearchQuery) ([]Product, error) {
	values := url.Values{}
	if q.Query != "" {
		values.Set("search", q.Query)
	}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Brand != "" {
		values.Set("brand", q.Brand)
	}
	if q.MaxPrice > 0 {
		values.Set("maxPrice", strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	var products []Product
	if err := c.do(ctx, http.MethodGet, "/api/products", values, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches a single catalog item.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetCustomer fetches one account record.
func (c *Client) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var customer Customer
	if err := c.do(ctx, http.MethodGet, "/api/customers/"+url.PathEscape(id), nil, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetCustomerAddresses fetches the addresses on file for a customer.
func (c *Client) GetCustomerAddresses(ctx context.Context, customerID string) ([]Address, error) {
	var addresses []Address
	path := "/api/customers/" + url.PathEscape(customerID) + "/addresses"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// GetCustomerOrders fetches all orders for a customer. An empty slice with
// a nil error means the customer has no orders.
func (c *Client) GetCustomerOrders(ctx context.Context, customerID string) ([]Order, error) {
	var orders []Order
	path := "/api/customers/" + url.PathEscape(customerID) + "/orders"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches one order record.
func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(id), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItems fetches the line items of an order.
func (c *Client) GetOrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	var items []OrderItem
	path := "/api/orders/" + url.PathEscape(orderID) + "/items"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateOrder places a new order.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// do performs one JSON round-trip against the shop API.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("shop api call")

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); decodeErr == nil {
			if payload.Message != "" {
				apiErr.Message = payload.Message
			} else {
				apiErr.Message = payload.Error
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
