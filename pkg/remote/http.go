package remote

import (
	"bytes"
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/modelkit/uisync/pkg/cache"
	"github.com/modelkit/uisync/pkg/errors"
	"github.com/modelkit/uisync/pkg/httputil"
)

// Config configures the HTTP store client.
type Config struct {
	// BaseURL is the platform root, e.g. "https://tenant.example.com".
	BaseURL string
	// Token is sent as a bearer token on every request. Empty disables auth.
	Token string
	// Cache stores raw GET responses (record queries, document bodies).
	// nil disables caching.
	Cache cache.Cache
	// CacheTTL bounds cached response age. 0 keeps entries forever.
	CacheTTL time.Duration
	// Refresh bypasses cache reads (entries are still refreshed on fetch).
	Refresh bool
	// HTTPClient overrides the transport; nil uses a 30s-timeout default.
	HTTPClient *http.Client
}

// Client implements [Store] against the hosted platform's HTTP API.
// Transient failures (network errors, 5xx) are retried with backoff; only
// raw GET responses are cached, never decoded trees.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates an HTTP store client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "remote base URL is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

// QueryRecords implements [Store].
func (c *Client) QueryRecords(ctx context.Context, q Query) ([]Record, error) {
	u := c.cfg.BaseURL + "/api/records"
	if len(q.Names) > 0 {
		vals := url.Values{}
		for _, n := range q.Names {
			vals.Add("name", n)
		}
		u += "?" + vals.Encode()
	}

	var records []Record
	if err := c.cachedGetJSON(ctx, u, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FetchDocumentBody implements [Store]. The platform strips one encoding
// layer when serving the body; the caller's codec strips the rest.
func (c *Client) FetchDocumentBody(ctx context.Context, docID string) (string, error) {
	u := fmt.Sprintf("%s/api/documents/%s/body", c.cfg.BaseURL, url.PathEscape(docID))

	key := "body:" + docID
	if c.cfg.Cache != nil && !c.cfg.Refresh {
		if data, hit, _ := c.cfg.Cache.Get(ctx, key); hit {
			return string(data), nil
		}
	}

	body, err := c.getText(ctx, u)
	if err != nil {
		return "", err
	}
	if c.cfg.Cache != nil {
		_ = c.cfg.Cache.Set(ctx, key, []byte(body), c.cfg.CacheTTL)
	}
	return body, nil
}

// FetchDocumentByName implements [Store].
func (c *Client) FetchDocumentByName(ctx context.Context, folderID, name string) (*Document, error) {
	u := fmt.Sprintf("%s/api/folders/%s/documents/%s",
		c.cfg.BaseURL, url.PathEscape(folderID), url.PathEscape(name))

	var doc Document
	if err := c.getJSON(ctx, u, &doc); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeDocumentNotFound, err, "document %s in folder %s", name, folderID)
		}
		return nil, err
	}
	return &doc, nil
}

// CreateDocument implements [Store].
func (c *Client) CreateDocument(ctx context.Context, folderID, name, body string) (string, error) {
	u := fmt.Sprintf("%s/api/folders/%s/documents", c.cfg.BaseURL, url.PathEscape(folderID))

	var out struct {
		ID string `json:"id"`
	}
	in := map[string]string{"name": name, "body": body}
	if err := c.sendJSON(ctx, http.MethodPost, u, in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UpdateDocument implements [Store].
func (c *Client) UpdateDocument(ctx context.Context, docID, body string) error {
	u := fmt.Sprintf("%s/api/documents/%s", c.cfg.BaseURL, url.PathEscape(docID))
	in := map[string]string{"body": body}
	return c.sendJSON(ctx, http.MethodPut, u, in, nil)
}

// EnsureFolder implements [Store]. The platform treats folder creation as
// get-or-create, so this is safe to call repeatedly.
func (c *Client) EnsureFolder(ctx context.Context, name string) (string, error) {
	u := c.cfg.BaseURL + "/api/folders"

	var out struct {
		ID string `json:"id"`
	}
	in := map[string]string{"name": name}
	if err := c.sendJSON(ctx, http.MethodPost, u, in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// cachedGetJSON serves v from cache when allowed, fetching and refreshing
// the cache otherwise.
func (c *Client) cachedGetJSON(ctx context.Context, u string, v any) error {
	key := "get:" + u
	if c.cfg.Cache != nil && !c.cfg.Refresh {
		if data, hit, _ := c.cfg.Cache.Get(ctx, key); hit {
			return json.Unmarshal(data, v)
		}
	}

	data, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.cfg.Cache != nil {
		_ = c.cfg.Cache.Set(ctx, key, data, c.cfg.CacheTTL)
	}
	return json.Unmarshal(data, v)
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	data, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (c *Client) getText(ctx context.Context, u string) (string, error) {
	data, err := c.do(ctx, http.MethodGet, u, nil)
	return string(data), err
}

func (c *Client) sendJSON(ctx context.Context, method, u string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	data, err := c.do(ctx, method, u, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// do performs one request with retry/backoff and returns the response body.
func (c *Client) do(ctx context.Context, method, u string, payload []byte) ([]byte, error) {
	var data []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			code := errors.ErrCodeNetwork
			var nerr net.Error
			if goerrors.As(err, &nerr) && nerr.Timeout() {
				code = errors.ErrCodeTimeout
			}
			return &httputil.RetryableError{Err: errors.Wrap(code, err, "%s %s", method, u)}
		}
		defer resp.Body.Close()

		if err := checkStatus(resp.StatusCode); err != nil {
			return err
		}
		data, err = io.ReadAll(resp.Body)
		return err
	})
	return data, err
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "resource not found")
	case code == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "authentication failed")
	case code == http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden, "access denied")
	case code >= 500:
		return &httputil.RetryableError{Err: errors.New(errors.ErrCodeNetwork, "server error: status %d", code)}
	default:
		return errors.New(errors.ErrCodeNetwork, "unexpected status %d", code)
	}
}

var _ Store = (*Client)(nil)
