package shopapi

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

	"github.com/ikkim/shopsphere-storefront/pkg/logger"
)

// Client talks to the storefront REST API
type Client struct {
	config     Config
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates a new storefront API client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	// Resolving "products/" against ".../api" would drop the api segment.
	if base.Path == "" || base.Path[len(base.Path)-1] != '/' {
		base.Path += "/"
	}

	return &Client{
		config:  config,
		baseURL: base,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// ListProducts fetches one page of the catalogue
func (c *Client) ListProducts(ctx context.Context, q PageQuery) (*Page[Product], error) {
	body, err := c.doRequest(ctx, http.MethodGet, "products/", pageValues(q.Limit, q.Cursor), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	page := &Page[Product]{}
	if page.NextCursor, err = decodeList(body, &page.Items); err != nil {
		return nil, fmt.Errorf("failed to decode product list: %w", err)
	}
	return page, nil
}

// GetProduct fetches a single product
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	body, err := c.doRequest(ctx, http.MethodGet, "products/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}

	var product Product
	if err := decodeData(body, &product, false); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	return &product, nil
}

// ListReviews fetches one page of reviews, filtered by product when set
func (c *Client) ListReviews(ctx context.Context, q ReviewQuery) (*Page[Review], error) {
	values := pageValues(q.Limit, q.Cursor)
	if q.ProductID != "" {
		values.Set("product_id", q.ProductID)
	}

	body, err := c.doRequest(ctx, http.MethodGet, "reviews/", values, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	page := &Page[Review]{}
	if page.NextCursor, err = decodeList(body, &page.Items); err != nil {
		return nil, fmt.Errorf("failed to decode review list: %w", err)
	}
	return page, nil
}

// GetReview fetches a single review. Both the {success,data} envelope and a
// bare review body are accepted.
func (c *Client) GetReview(ctx context.Context, id string) (*Review, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	body, err := c.doRequest(ctx, http.MethodGet, "reviews/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get review %s: %w", id, err)
	}

	var review Review
	if err := decodeData(body, &review, true); err != nil {
		return nil, fmt.Errorf("failed to decode review: %w", err)
	}
	return &review, nil
}

// CreateReview posts a new review and returns the id the server assigned
func (c *Client) CreateReview(ctx context.Context, review NewReview) (string, error) {
	if err := review.Validate(); err != nil {
		return "", err
	}

	body, err := c.doRequest(ctx, http.MethodPost, "reviews/", nil, review)
	if err != nil {
		return "", fmt.Errorf("failed to create review: %w", err)
	}

	var created createdResponse
	if err := decodeData(body, &created, true); err != nil {
		return "", fmt.Errorf("failed to decode created review: %w", err)
	}
	if created.ID == "" {
		return "", ErrMissingID
	}
	return string(created.ID), nil
}

// UpdateReview applies a partial update to a review
func (c *Client) UpdateReview(ctx context.Context, id string, update ReviewUpdate) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := update.Validate(); err != nil {
		return err
	}
	if _, err := c.doRequest(ctx, http.MethodPut, "reviews/"+url.PathEscape(id), nil, update); err != nil {
		return fmt.Errorf("failed to update review %s: %w", id, err)
	}
	return nil
}

// DeleteReview removes a review
func (c *Client) DeleteReview(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if _, err := c.doRequest(ctx, http.MethodDelete, "reviews/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete review %s: %w", id, err)
	}
	return nil
}

// AnalyzeAll runs the fake review analysis over every stored review
func (c *Client) AnalyzeAll(ctx context.Context) (*AnalysisResult, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "reviews/analyze_all", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze reviews: %w", err)
	}

	var result AnalysisResult
	if err := decodeData(body, &result, true); err != nil {
		return nil, fmt.Errorf("failed to decode analysis result: %w", err)
	}
	return &result, nil
}

// Signup creates an account
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "users/signup", nil, req)
	if err != nil {
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}

	var created createdResponse
	if err := decodeData(body, &created, true); err != nil {
		return nil, fmt.Errorf("failed to decode signup response: %w", err)
	}
	return &SignupResponse{ID: string(created.ID)}, nil
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "users/login", nil, req)
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	var resp LoginResponse
	if err := decodeData(body, &resp, true); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	return &resp, nil
}

func pageValues(limit int, cursor string) url.Values {
	values := url.Values{}
	values.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		values.Set("cursor", cursor)
	}
	return values
}

// doRequest performs an HTTP request against the storefront API and returns
// the body of any 2xx response.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to build request url: %w", err)
	}
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	target := c.baseURL.ResolveReference(rel)

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("storefront API unreachable", map[string]interface{}{
			"method": method,
			"url":    target.String(),
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrNetwork, err)
	}

	logger.Debug("storefront API call", map[string]interface{}{
		"method":      method,
		"url":         target.String(),
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp envelope
		if json.Unmarshal(body, &errResp) == nil {
			apiErr.Message = errResp.message()
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}

	return body, nil
}

// decodeList unpacks a {success, data, next_cursor} list body. A bare JSON
// array is accepted as a final page.
func decodeList[T any](body []byte, items *[]T) (string, error) {
	*items = []T{}
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, items); err != nil {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return "", nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if env.Success != nil && !*env.Success {
		return "", &unsuccessfulError{message: env.message()}
	}

	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, items); err != nil {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}
	return string(env.NextCursor), nil
}

// decodeData unpacks an envelope's data into out. With allowBare, a body
// that is not an envelope is decoded into out directly.
func decodeData(body []byte, out interface{}, allowBare bool) error {
	if len(bytes.TrimSpace(body)) == 0 {
		if allowBare {
			return nil
		}
		return fmt.Errorf("%w: empty body", ErrDecode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if env.Success != nil && !*env.Success {
		return &unsuccessfulError{message: env.message()}
	}

	payload := []byte(env.Data)
	if env.Success == nil || len(env.Data) == 0 {
		if !allowBare {
			return fmt.Errorf("%w: missing data envelope", ErrDecode)
		}
		payload = body
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// requireID keeps an empty id from turning a single-entity path into the
// collection path.
func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return nil
}
