package pantry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foxxcyber/smart-pantry/internal/models"
	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

const (
	apiPrefix      = "/api/smart-pantry"
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

var (
	ErrUnauthorized = errors.New("session expired, please log in again")
	ErrNoBaseURL    = errors.New("backend url is not configured")
)

// StatusError is a non-2xx response from the backend
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client talks to the smart-pantry REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

var _ shopping.Backend = (*Client)(nil)

// NewClient creates a new Client for the backend at baseURL
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token sent with every request
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// FetchSuggestedRecipes returns the recipes the backend suggests for the
// user's pantry. A body that is not an array yields no suggestions.
func (c *Client) FetchSuggestedRecipes(ctx context.Context) ([]models.Recipe, error) {
	body, err := c.do(ctx, http.MethodGet, "/recipes", nil)
	if err != nil {
		return nil, err
	}
	if !isArray(body) {
		return []models.Recipe{}, nil
	}
	var recipes []models.Recipe
	if err := json.Unmarshal(body, &recipes); err != nil {
		return nil, &shopping.ShapeError{Field: "recipes", Reason: err.Error()}
	}
	return recipes, nil
}

// FetchMissingIngredients posts the recipe ids and returns the raw response
func (c *Client) FetchMissingIngredients(ctx context.Context, recipeIDs []int) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/missing-ingredients", &models.MissingIngredientsRequest{RecipeIDs: recipeIDs})
}

// ListShoppingLists returns the user's saved lists
func (c *Client) ListShoppingLists(ctx context.Context) ([]models.ShoppingList, error) {
	body, err := c.do(ctx, http.MethodGet, "/shopping-lists", nil)
	if err != nil {
		return nil, err
	}
	if !isArray(body) {
		return []models.ShoppingList{}, nil
	}
	var wire []wireList
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &shopping.ShapeError{Field: "shopping-lists", Reason: err.Error()}
	}
	lists := make([]models.ShoppingList, 0, len(wire))
	for _, w := range wire {
		list, err := w.toModel()
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, nil
}

// GetShoppingList fetches one saved list
func (c *Client) GetShoppingList(ctx context.Context, id int) (*models.ShoppingList, error) {
	body, err := c.do(ctx, http.MethodGet, listPath(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

// CreateShoppingList saves a new list and returns it with its id
func (c *Client) CreateShoppingList(ctx context.Context, req *models.SaveListRequest) (*models.ShoppingList, error) {
	body, err := c.do(ctx, http.MethodPost, "/shopping-list", req)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

// UpdateShoppingList replaces a saved list
func (c *Client) UpdateShoppingList(ctx context.Context, id int, req *models.SaveListRequest) (*models.ShoppingList, error) {
	body, err := c.do(ctx, http.MethodPut, listPath(id), req)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

// DeleteShoppingList removes a saved list
func (c *Client) DeleteShoppingList(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, listPath(id), nil)
	return err
}

func listPath(id int) string {
	return "/shopping-list/" + strconv.Itoa(id)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if c.baseURL == "" {
		return nil, ErrNoBaseURL
	}

	reqURL := c.baseURL + apiPrefix + path
	if method == http.MethodGet {
		params := url.Values{}
		params.Set("_", strconv.FormatInt(time.Now().UnixMilli(), 10))
		reqURL += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Expires", "0")
	req.Header.Set("X-Request-ID", requestID)
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("Backend request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.log.Debug("Backend request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			Path:       apiPrefix + path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}
	return data, nil
}

// errorMessage extracts a message from FastAPI-style {"detail": ...} or
// {"error": ...} bodies.
func errorMessage(body []byte) string {
	var e struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if s, ok := e.Detail.(string); ok && s != "" {
		return s
	}
	return e.Error
}

func isArray(body []byte) bool {
	body = bytes.TrimSpace(body)
	return len(body) > 0 && body[0] == '['
}

// wireList is a saved list as the backend serializes it. Timestamps may
// lack a zone.
type wireList struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Items     json.RawMessage `json:"items"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

func (w wireList) toModel() (models.ShoppingList, error) {
	items, err := shopping.DecodeItems(w.Items)
	if err != nil {
		return models.ShoppingList{}, err
	}
	list := models.ShoppingList{
		ID:        w.ID,
		Name:      w.Name,
		Items:     items,
		CreatedAt: parseTimestamp(w.CreatedAt),
	}
	if t := parseTimestamp(w.UpdatedAt); !t.IsZero() {
		list.UpdatedAt = &t
	}
	return list, nil
}

func decodeList(body []byte) (*models.ShoppingList, error) {
	var w wireList
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, &shopping.ShapeError{Field: "shopping-list", Reason: err.Error()}
	}
	list, err := w.toModel()
	if err != nil {
		return nil, err
	}
	return &list, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
