package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"time"
)

// ApiClient handles API requests to the Mensa API
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	Token      string
}

// NewApiClient creates a new API client. The bearer token comes from the
// MENSA_TOKEN environment variable.
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("MENSA_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
		Token:   os.Getenv("MENSA_TOKEN"),
	}
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API health check failed with status code: %d", resp.StatusCode)
	}

	return true, nil
}

// Vendor represents a cafeteria outlet
type Vendor struct {
	VendorID string `json:"vendor_id"`
	Name     string `json:"name"`
	Open     bool   `json:"open"`
}

// MenuItem represents an orderable item
type MenuItem struct {
	ItemID      string  `json:"item_id"`
	VendorID    string  `json:"vendor_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Available   bool    `json:"available"`
	PrepMinutes int     `json:"prep_minutes"`
}

// Cart represents the patron's pending cart
type Cart struct {
	OwnerID  string     `json:"owner_id"`
	VendorID string     `json:"vendor_id"`
	Items    []CartItem `json:"items"`
}

// CartItem represents one cart line
type CartItem struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	LineNote  string  `json:"line_note,omitempty"`
}

// Total sums the cart lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// Order represents a placed order
type Order struct {
	OrderID          string      `json:"order_id"`
	VendorID         string      `json:"vendor_id"`
	Items            []OrderItem `json:"items"`
	PaymentMethod    string      `json:"payment_method"`
	Kind             string      `json:"kind"`
	Notes            string      `json:"notes,omitempty"`
	Subtotal         float64     `json:"subtotal"`
	Surcharge        float64     `json:"surcharge"`
	Total            float64     `json:"total"`
	Status           string      `json:"status"`
	EffectiveStatus  string      `json:"effective_status"`
	PlacedAt         time.Time   `json:"placed_at"`
	EstimatedReadyAt time.Time   `json:"estimated_ready_at"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
}

// OrderItem represents a frozen order line
type OrderItem struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
	LineNote  string  `json:"line_note,omitempty"`
}

// OrderPage is one page of an order listing
type OrderPage struct {
	Orders []Order `json:"orders"`
	Page   int     `json:"page"`
	Total  int     `json:"total"`
}

// UserStats summarizes the patron's order history
type UserStats struct {
	TotalOrders     int     `json:"total_orders"`
	CompletedOrders int     `json:"completed_orders"`
	TotalSpent      float64 `json:"total_spent"`
	FavoriteVendor  string  `json:"favorite_vendor,omitempty"`
}

func (c *ApiClient) do(method, path string, payload, out interface{}) error {
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

// GetVendors retrieves all vendors
func (c *ApiClient) GetVendors() ([]Vendor, error) {
	var vendors []Vendor
	if err := c.do("GET", "/api/v1/vendors", nil, &vendors); err != nil {
		return nil, err
	}
	return vendors, nil
}

// GetMenu retrieves one vendor's menu
func (c *ApiClient) GetMenu(vendorID string) ([]MenuItem, error) {
	var items []MenuItem
	if err := c.do("GET", "/api/v1/vendors/"+vendorID+"/menu", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetCart retrieves the current cart
func (c *ApiClient) GetCart() (*Cart, error) {
	var cart Cart
	if err := c.do("GET", "/api/v1/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart adds an item to the cart
func (c *ApiClient) AddToCart(itemID string, quantity int) (*Cart, error) {
	payload := map[string]interface{}{"item_id": itemID, "quantity": quantity}
	var cart Cart
	if err := c.do("POST", "/api/v1/cart/items", payload, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveFromCart removes one line from the cart
func (c *ApiClient) RemoveFromCart(itemID string) (*Cart, error) {
	var cart Cart
	if err := c.do("DELETE", "/api/v1/cart/items/"+itemID, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ClearCart empties the cart
func (c *ApiClient) ClearCart() (*Cart, error) {
	var cart Cart
	if err := c.do("DELETE", "/api/v1/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Checkout converts the cart into an order
func (c *ApiClient) Checkout(paymentMethod, kind, notes string) (*Order, error) {
	payload := map[string]interface{}{
		"payment_method": paymentMethod,
		"kind":           kind,
		"notes":          notes,
	}
	var order Order
	if err := c.do("POST", "/api/v1/orders", payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrders retrieves one page of orders with optional status filter
func (c *ApiClient) GetOrders(status string) ([]Order, error) {
	path := "/api/v1/orders"
	if status != "" {
		path += "?status=" + status
	}
	var page OrderPage
	if err := c.do("GET", path, nil, &page); err != nil {
		return nil, err
	}
	return page.Orders, nil
}

// GetOrder retrieves a specific order
func (c *ApiClient) GetOrder(orderID string) (*Order, error) {
	var order Order
	if err := c.do("GET", "/api/v1/orders/"+orderID, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder cancels a placed order
func (c *ApiClient) CancelOrder(orderID, reason string) (*Order, error) {
	payload := map[string]interface{}{"status": "cancelled", "reason": reason}
	var order Order
	if err := c.do("PATCH", "/api/v1/orders/"+orderID, payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetStats retrieves the patron's aggregate stats
func (c *ApiClient) GetStats() (*UserStats, error) {
	var stats UserStats
	if err := c.do("GET", "/api/v1/orders/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
