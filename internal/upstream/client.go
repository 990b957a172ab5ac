package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/darahtanyoe/mitra-dashboard/internal/models"
	"github.com/darahtanyoe/mitra-dashboard/internal/session"
)

// ErrSessionExpired means the refresh-token exchange itself failed. The
// session state has already been purged; the web layer redirects to /login.
var ErrSessionExpired = errors.New("upstream: session expired")

// APIError is a non-2xx response from the remote API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream: status %d", e.StatusCode)
}

// Client calls the Darah Tanyoe API on behalf of a browser session. Every
// request carries the session's bearer token when one is stored; a 401
// triggers exactly one refresh-and-retry, and concurrent 401s for the same
// session share a single in-flight refresh call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *session.Store

	refreshGroup singleflight.Group
}

func NewClient(baseURL string, sessions *session.Store) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		sessions:   sessions,
	}
}

// do sends one JSON request for the session and decodes a 2xx body into out
// (when out is non-nil). On the first 401 it refreshes the token pair and
// retries the original request exactly once; a second 401 propagates as a
// normal *APIError.
func (c *Client) do(ctx context.Context, sid, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	retried := false
	for {
		resp, err := c.send(ctx, sid, method, path, payload)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized && !retried && sid != "" {
			drain(resp)
			if err := c.refresh(ctx, sid); err != nil {
				return err
			}
			retried = true
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: readMessage(resp)}
			drain(resp)
			return apiErr
		}

		if out != nil {
			err = json.NewDecoder(resp.Body).Decode(out)
		}
		drain(resp)
		return err
	}
}

func (c *Client) send(ctx context.Context, sid, method, path string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	// Absent token: the request goes out unauthenticated and the API decides.
	if sid != "" {
		if tokens, err := c.sessions.Tokens(ctx, sid); err == nil && tokens.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		}
	}
	return c.httpClient.Do(req)
}

// refresh rotates the session's token pair through the refresh endpoint.
// Coalesced per session id: callers hitting 401 while a refresh is already
// in flight wait for that refresh instead of issuing their own.
func (c *Client) refresh(ctx context.Context, sid string) error {
	_, err, _ := c.refreshGroup.Do(sid, func() (any, error) {
		tokens, err := c.sessions.Tokens(ctx, sid)
		if err != nil || tokens.RefreshToken == "" {
			return nil, c.expire(ctx, sid)
		}

		payload, err := json.Marshal(map[string]string{"refresh_token": tokens.RefreshToken})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/refresh-token", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, c.expire(ctx, sid)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, c.expire(ctx, sid)
		}

		var refreshed struct {
			Session models.Session `json:"session"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil || refreshed.Session.AccessToken == "" {
			return nil, c.expire(ctx, sid)
		}
		if err := c.sessions.SetTokens(ctx, sid, refreshed.Session); err != nil {
			return nil, err
		}
		log.Printf("[upstream] token pair rotated for session")
		return nil, nil
	})
	return err
}

// expire purges the session after an irrecoverable refresh failure.
func (c *Client) expire(ctx context.Context, sid string) error {
	if err := c.sessions.Clear(ctx, sid); err != nil {
		log.Printf("[upstream] failed to clear expired session: %v", err)
	}
	return ErrSessionExpired
}

func readMessage(resp *http.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err != nil {
		return ""
	}
	return body.Message
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
