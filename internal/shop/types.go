// Package shop is the HTTP client for the ShopHub commerce API. The API is
// an external collaborator: this package only normalizes its entities and
// errors for the tool layer.
package shop

import "time"

// Product is one catalog item.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	InStock     bool    `json:"in_stock"`
}

// Customer is one account record.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Address is a customer shipping address.
type Address struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

// OrderItem is one line item of an order.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Order is one order record with its line items.
type Order struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customer_id"`
	Status     string      `json:"status"`
	Total      float64     `json:"total"`
	PlacedAt   time.Time   `json:"placed_at"`
	Items      []OrderItem `json:"items,omitempty"`
}

// SearchQuery holds the catalog search filters. Zero values are omitted
// from the request.
type SearchQuery struct {
	Query    string
	Category string
	Brand    string
	MaxPrice float64
	Limit    int
}

// CreateOrderRequest is the payload for placing a new order.
type CreateOrderRequest struct {
	CustomerID string      `json:"customer_id"`
	AddressID  string      `json:"address_id,omitempty"`
	Items      []OrderItem `json:"items"`
}
