// Package flowkey is a Go client for the flowkey wallet login service.
package flowkey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/layer-3/flowkey/core"
)

const defaultTimeout = 30 * time.Second

// Client logs a Signer in against a flowkey server and keeps its session token
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     Signer

	mu    sync.RWMutex
	token string
}

// ClientOption customizes a Client
type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken resumes an existing session
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// NewClient creates a client for the API mounted at baseURL, e.g. http://localhost:8080/api
func NewClient(baseURL string, signer Signer, opts ...ClientOption) *Client {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		signer:     signer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current session token, empty before Login
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Challenge(ctx context.Context) (string, error) {
	var resp struct {
		Code string `json:"code"`
	}
	query := url.Values{"publicAddress": {c.signer.Address()}}
	if err := c.do(ctx, http.MethodGet, "/token", query, nil, false, &resp); err != nil {
		return "", err
	}
	if resp.Code == "" {
		return "", fmt.Errorf("%w: empty challenge", ErrUnexpectedResponse)
	}
	return resp.Code, nil
}

func (c *Client) Login(ctx context.Context) (string, error) {
	code, err := c.Challenge(ctx)
	if err != nil {
		return "", fmt.Errorf("challenge: %w", err)
	}

	signature, err := c.signer.SignMessage(code)
	if err != nil {
		return "", err
	}

	var resp struct {
		Token string `json:"token"`
	}
	query := url.Values{"publicAddress": {c.signer.Address()}, "signature": {signature}}
	if err := c.do(ctx, http.MethodGet, "/verify", query, nil, false, &resp); err != nil {
		return "", fmt.Errorf("verify: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrUnexpectedResponse)
	}

	c.setToken(resp.Token)
	return resp.Token, nil
}

func (c *Client) Me(ctx context.Context) (*core.Profile, error) {
	var profile core.Profile
	if err := c.do(ctx, http.MethodGet, "/me", nil, nil, true, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveLayouts uploads the wallet's layouts
func (c *Client) SaveLayouts(ctx context.Context, layouts []json.RawMessage) error {
	if layouts == nil {
		layouts = []json.RawMessage{}
	}
	body := map[string]interface{}{"layouts": layouts}
	return c.do(ctx, http.MethodPut, "/layouts", nil, body, true, nil)
}

// Access asks whether the service currently admits clients
func (c *Client) Access(ctx context.Context) (*core.AccessDecision, error) {
	var decision core.AccessDecision
	if err := c.do(ctx, http.MethodGet, "/access", nil, nil, false, &decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/logout", nil, nil, true, nil); err != nil {
		return err
	}
	c.setToken("")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, auth bool, out any) error {
	var token string
	if auth {
		token = c.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Message == "" {
			errResp.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
	}
	return nil
}
