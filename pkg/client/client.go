// Package client is the HTTP client for the libris API. It attaches the
// session's bearer token, stamps every call with a request ID and turns error
// responses into *Error values.
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/libris/pkg/session"
)

const (
	authPrefix      = "/auth/"
	headerRequestID = "X-Request-ID"
	defaultTimeout  = 30 * time.Second
)

// SessionStore persists the session between runs.
type SessionStore interface {
	Load() (*session.Session, error)
	Save(sess *session.Session) error
	Clear() error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	store      SessionStore
	session    *session.Session
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// New builds a client for baseURL (for example http://localhost:8000/api)
// and loads any stored session.
func New(baseURL string, store SessionStore, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      store,
	}
	for _, opt := range opts {
		opt(c)
	}

	sess, err := store.Load()
	if err != nil {
		return nil, err
	}
	c.session = sess

	return c, nil
}

// Session returns the current session, or nil when logged out.
func (c *Client) Session() *session.Session {
	return c.session
}

func (c *Client) setSession(sess *session.Session) error {
	c.session = sess
	return c.store.Save(sess)
}

// Logout forgets the session locally. Tokens are stateless, so there is
// nothing to revoke on the server.
func (c *Client) Logout() error {
	c.session = nil
	return c.store.Clear()
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.WithStack(err)
		}
		reader = bytes.NewReader(b)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	isAuthCall := strings.HasPrefix(path, authPrefix)
	if !isAuthCall && c.session != nil && c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.WithStack(ctxErr)
		}
		return &networkError{cause: err}
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return &networkError{cause: err}
	}

	if res.StatusCode == http.StatusUnauthorized && !isAuthCall {
		if err := c.Logout(); err != nil {
			return err
		}
		return ErrReauthenticate
	}

	if res.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{StatusCode: res.StatusCode}
		eb := errorBody{}
		if json.Unmarshal(b, &eb) == nil && eb.Message != "" {
			apiErr.Code = eb.Code
			apiErr.Message = eb.Message
		} else {
			apiErr.Message = http.StatusText(res.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(b) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(b, out), "failed to decode response")
}
