// Package sap is the thin Service Layer client the order workflows submit
// through. Every operation logs in, acts, and logs out again: sessions are
// scoped to the call that needed them, never parked in shared state.
package sap

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Config carries the Service Layer connection settings.
type Config struct {
	BaseURL   string // e.g. https://host:50000/b1s/v1/
	CompanyDB string
	Username  string
	Password  string
	// InsecureSkipVerify disables TLS verification. Service Layer instances
	// routinely run on self-signed certificates inside the LAN.
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Client talks to one SAP Business One Service Layer instance.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a Client from cfg, normalizing the base URL to end in /.
func NewClient(cfg Config) *Client {
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// APIError is a Service Layer failure. Message carries the server-provided
// text when the response had one, so callers can show it verbatim.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("service layer: %s (code %d, http %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("service layer: request failed (http %d)", e.Status)
}

// serviceLayerError mirrors the Service Layer's OData error envelope.
type serviceLayerError struct {
	Error struct {
		Code    int `json:"code"`
		Message struct {
			Lang  string `json:"lang"`
			Value string `json:"value"`
		} `json:"message"`
	} `json:"error"`
}

func parseAPIError(status int, body []byte) *APIError {
	var env serviceLayerError
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message.Value != "" {
		return &APIError{Status: status, Code: env.Error.Code, Message: env.Error.Message.Value}
	}
	return &APIError{Status: status}
}

// session is one logged-in Service Layer session. It is passed explicitly
// through the calls that use it rather than cached on the client.
type session struct {
	id string
}

type loginRequest struct {
	CompanyDB string `json:"CompanyDB"`
	UserName  string `json:"UserName"`
	Password  string `json:"Password"`
}

type loginResponse struct {
	SessionID string `json:"SessionId"`
}

// login opens a session.
func (c *Client) login(ctx context.Context) (session, error) {
	body, _ := json.Marshal(loginRequest{
		CompanyDB: c.cfg.CompanyDB,
		UserName:  c.cfg.Username,
		Password:  c.cfg.Password,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"Login", bytes.NewReader(body))
	if err != nil {
		return session{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return session{}, fmt.Errorf("service layer login: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return session{}, fmt.Errorf("read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return session{}, fmt.Errorf("service layer login: %w", parseAPIError(resp.StatusCode, raw))
	}

	var lr loginResponse
	if err := json.Unmarshal(raw, &lr); err != nil {
		return session{}, fmt.Errorf("decode login response: %w", err)
	}
	if lr.SessionID == "" {
		return session{}, fmt.Errorf("service layer login: empty session id")
	}
	return session{id: lr.SessionID}, nil
}

// logout releases a session. Failures are logged, not propagated: the order
// operation already succeeded or failed on its own merits by now.
func (c *Client) logout(ctx context.Context, s session) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"Logout", nil)
	if err != nil {
		return
	}
	c.setSessionHeaders(req, s)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("service layer logout: %v", err)
		return
	}
	resp.Body.Close()
}

func (c *Client) setSessionHeaders(req *http.Request, s session) {
	req.Header.Set("Cookie", "B1SESSION="+s.id+"; ROUTEID=.node4")
	req.Header.Set("Accept", "*/*")
}

// do performs one authenticated request and decodes the response into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, s session, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setSessionHeaders(req, s)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: %w", method, path, parseAPIError(resp.StatusCode, raw))
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}
