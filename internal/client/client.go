package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"giftmarket/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// DefaultTimeout bounds every gateway call. A hung request must fail instead
// of pinning a loading indicator forever.
const DefaultTimeout = 15 * time.Second

// RegisterPayload is the identity payload sent to the registration upsert.
type RegisterPayload struct {
	TelegramID   int64          `json:"telegramId"`
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName,omitempty"`
	Username     string         `json:"username,omitempty"`
	PhotoURL     string         `json:"photoUrl,omitempty"`
	LanguageCode string         `json:"languageCode,omitempty"`
	TelegramData map[string]any `json:"telegramData,omitempty"`
}

// OrderDraft is the order placement payload.
type OrderDraft struct {
	User          string             `json:"user"`
	WalletAddress string             `json:"walletAddress"`
	Products      []domain.OrderItem `json:"products"`
	TotalAmount   float64            `json:"totalAmount"`
	CouponCode    string             `json:"couponCode,omitempty"`
	Status        domain.OrderStatus `json:"status"`
}

// UserProfile mirrors the profile-plus-recent-orders response.
type UserProfile struct {
	Profile      *domain.User    `json:"profile"`
	RecentOrders []*domain.Order `json:"recentOrders"`
}

// Metrics mirrors the back-office dashboard response.
type Metrics struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalUsers    int64   `json:"totalUsers"`
	PendingOrders int64   `json:"pendingOrders"`
}

// envelope is the {success, data, message} wrapper on user/order/admin routes.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// errorBody is the structured error shape on product routes.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client is a typed HTTP client for the persistence gateway. It performs no
// retries; retrying is the caller's decision.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	sessionToken string
}

// New creates a gateway client with a bounded request timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SetSessionToken attaches an admin session token to subsequent requests.
func (c *Client) SetSessionToken(token string) {
	c.sessionToken = token
}

// Products fetches the catalog, optionally filtered by category.
func (c *Client) Products(ctx context.Context, category string) ([]*domain.Product, error) {
	path := "/products"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var products []*domain.Product
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Product fetches a single catalog entry.
func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	product := &domain.Product{}
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, product); err != nil {
		return nil, err
	}
	return product, nil
}

// CreateProduct submits a new listing.
func (c *Client) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	created := &domain.Product{}
	if err := c.do(ctx, http.MethodPost, "/products", product, created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateProduct submits a partial listing update.
func (c *Client) UpdateProduct(ctx context.Context, id string, update *domain.ProductUpdate) (*domain.Product, error) {
	product := &domain.Product{}
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id), update, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a listing.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
}

// RecordView bumps a listing's view counter.
func (c *Client) RecordView(ctx context.Context, id string) (*domain.Product, error) {
	product := &domain.Product{}
	if err := c.do(ctx, http.MethodPost, "/products/"+url.PathEscape(id)+"/views", nil, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Users fetches all users (admin).
func (c *Client) Users(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	if err := c.doEnvelope(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// RegisterUser performs the registration upsert keyed on telegramId.
func (c *Client) RegisterUser(ctx context.Context, payload *RegisterPayload) (*domain.User, error) {
	user := &domain.User{}
	if err := c.doEnvelope(ctx, http.MethodPost, "/users", payload, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser submits a partial user update (admin).
func (c *Client) UpdateUser(ctx context.Context, telegramID int64, update *domain.UserUpdate) (*domain.User, error) {
	user := &domain.User{}
	path := fmt.Sprintf("/users/%d", telegramID)
	if err := c.doEnvelope(ctx, http.MethodPut, path, update, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UserOrders fetches a profile with its recent orders.
func (c *Client) UserOrders(ctx context.Context, telegramID int64) (*UserProfile, error) {
	profile := &UserProfile{}
	path := fmt.Sprintf("/users/%d/orders", telegramID)
	if err := c.doEnvelope(ctx, http.MethodGet, path, nil, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Orders fetches all orders (admin).
func (c *Client) Orders(ctx context.Context) ([]*domain.Order, error) {
	var orders []*domain.Order
	if err := c.doEnvelope(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// PlaceOrder submits a new order.
func (c *Client) PlaceOrder(ctx context.Context, draft *OrderDraft) (*domain.Order, error) {
	order := &domain.Order{}
	if err := c.doEnvelope(ctx, http.MethodPost, "/orders", draft, order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus transitions an order's settlement state (admin).
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, transactionHash string) (*domain.Order, error) {
	body := map[string]string{"status": string(status)}
	if transactionHash != "" {
		body["transactionHash"] = transactionHash
	}
	order := &domain.Order{}
	path := "/orders/" + url.PathEscape(id) + "/status"
	if err := c.doEnvelope(ctx, http.MethodPatch, path, body, order); err != nil {
		return nil, err
	}
	return order, nil
}

// AdminLogin exchanges the passkey for a session token and attaches it to
// subsequent requests.
func (c *Client) AdminLogin(ctx context.Context, passkey string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"passkey": passkey}
	if err := c.doEnvelope(ctx, http.MethodPost, "/admin/login", body, &resp); err != nil {
		return "", err
	}
	c.sessionToken = resp.Token
	return resp.Token, nil
}

// AdminMetrics fetches the dashboard snapshot (admin).
func (c *Client) AdminMetrics(ctx context.Context) (*Metrics, error) {
	metrics := &Metrics{}
	if err := c.doEnvelope(ctx, http.MethodGet, "/admin/metrics", nil, metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// do issues a request and decodes a plain JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	data, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// doEnvelope issues a request and unwraps a {success, data} response into out.
func (c *Client) doEnvelope(ctx context.Context, method, path string, body, out interface{}) error {
	data, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("gateway rejected request: %s", env.Message)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, statusError(resp.StatusCode, data)
	}
	return data, nil
}

// statusError maps a failure response to a typed error carrying the gateway's
// message, whichever error shape the route uses.
func statusError(statusCode int, data []byte) error {
	message := http.StatusText(statusCode)

	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Message != "" {
		message = env.Message
	} else {
		var eb errorBody
		if err := json.Unmarshal(data, &eb); err == nil && eb.Error.Message != "" {
			message = eb.Error.Message
		}
	}

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, message)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, message)
	default:
		return fmt.Errorf("gateway returned %d: %s", statusCode, message)
	}
}
