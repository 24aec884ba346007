// Package gigachat is a minimal GigaChat client: an OAuth client-credentials
// token exchange and a single chat-completions call.
package gigachat

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	DefaultAPIURL  = "https://gigachat.devices.sberbank.ru/api/v1/chat/completions"

	// A token is refreshed this long before it expires.
	tokenMargin = time.Minute
)

var ErrNoChoices = errors.New("gigachat: response has no choices")

// APIError is returned for any non-200 answer from the auth or chat endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gigachat: unexpected status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	// Credentials is the base64 authorization key issued for the project.
	Credentials string
	Scope       string
	Model       string
	AuthURL     string
	APIURL      string
	InsecureTLS bool
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // unix milliseconds
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Scope == "" {
		cfg.Scope = "GIGACHAT_API_PERS"
	}
	if cfg.Model == "" {
		cfg.Model = "GigaChat"
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // GigaChat certificates are issued by the Russian national CA
			MinVersion:         tls.VersionTLS12,
		}
	}

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Transport: transport},
		logger: logger,
	}
}

// Generate sends prompt as a single user message and returns the text of the
// first choice. Deadlines come from ctx. Failed calls are not retried.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	const operation = "gigachat.Generate"

	token, err := c.accessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: token: %w", operation, err)
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.cfg.Model,
		Messages: []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("%s: marshal request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", operation, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	respBody, status, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	if status == http.StatusUnauthorized {
		c.dropToken()
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%s: %w", operation, &APIError{StatusCode: status, Body: string(respBody)})
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", operation, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", operation, ErrNoChoices)
	}

	c.logger.Debug("Completion received",
		zap.String("request_id", requestID),
		zap.Duration("took", time.Since(started)),
		zap.Int("length", len(resp.Choices[0].Message.Content)))

	return resp.Choices[0].Message.Content, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Add(tokenMargin).Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("scope", c.cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+c.cfg.Credentials)
	req.Header.Set("RqUID", uuid.NewString())

	body, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", &APIError{StatusCode: status, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("empty access token")
	}

	c.token = tr.AccessToken
	c.expiresAt = time.UnixMilli(tr.ExpiresAt)

	c.logger.Info("GigaChat access token refreshed", zap.Time("expires_at", c.expiresAt))
	return c.token, nil
}

func (c *Client) dropToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
