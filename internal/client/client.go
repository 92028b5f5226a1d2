// Package client talks to the chat server over HTTP and WebSocket.
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
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thereayou/securechat/internal/handlers/dto"
	ws "github.com/thereayou/securechat/internal/websocket"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRejected means the server refused the websocket handshake,
	// usually because the token is missing, expired or invalid.
	ErrRejected = errors.New("connection rejected")
)

// APIError is a non-2xx reply carrying the server's error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	dialer  *websocket.Dialer
}

func New(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 15 * time.Second},
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, username, password string) error {
	body, err := json.Marshal(dto.SignupRequest{Username: username, Password: password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/signup"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp dto.SignupResponse
	return c.do(req, &resp)
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/token"), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp dto.TokenResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Me returns the username the token was issued to.
func (c *Client) Me(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/me"), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var resp dto.MeResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.Username, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)
		apiErr := &APIError{Status: resp.StatusCode, Message: body.Error}
		if resp.StatusCode == http.StatusUnauthorized {
			return errors.Join(ErrUnauthorized, apiErr)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Conn is a live chat connection.
type Conn struct {
	conn *websocket.Conn
}

// Dial opens the chat stream authenticated by token.
func (c *Client) Dial(ctx context.Context, token string) (*Conn, error) {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusForbidden {
			return nil, ErrRejected
		}
		return nil, fmt.Errorf("dial chat: %w", err)
	}
	return &Conn{conn: conn}, nil
}

// Send posts text to the room.
func (c *Conn) Send(text string) error {
	return c.conn.WriteJSON(map[string]string{"text": text})
}

// Receive blocks for the next broadcast.
func (c *Conn) Receive() (ws.Envelope, error) {
	var env ws.Envelope
	err := c.conn.ReadJSON(&env)
	return env, err
}

func (c *Conn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}

// IsNormalClose reports whether err from Receive is an orderly close by the
// server, such as a newer login replacing this connection.
func IsNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
