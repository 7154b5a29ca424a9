// Package gateway はカートAPIのHTTPクライアント。cmd/api のバックエンドに対する
// cartsync.Gateway の実装。
package gateway

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
	"sync"
	"time"

	"github.com/pkg/errors"

	"storefront/internal/cartsync"
)

// Error はバックエンドの2xx以外の応答
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// AsError はerrがバックエンドの応答由来かを返す
func AsError(err error) (*Error, bool) {
	var ge *Error
	ok := errors.As(err, &ge)
	return ge, ok
}

// Session は POST /cart/session の応答
type Session struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Currency  string    `json:"currency"`
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ cartsync.Gateway = (*Client)(nil)

// New はbaseURL向けのクライアントを作る。httpClientがnilなら http.DefaultClient。
// 呼び出しごとの期限は呼び出し側のctxで決める。
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// StartSession はゲスト用カートを発行し、トークンを以降の呼び出し用に保持する
func (c *Client) StartSession(ctx context.Context) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/cart/session", nil, &s); err != nil {
		return Session{}, err
	}
	c.SetToken(s.Token)
	return s, nil
}

// GetProduct は明細に必要な商品情報を取る
func (c *Client) GetProduct(ctx context.Context, id int64) (cartsync.Product, error) {
	var p productResponse
	if err := c.do(ctx, http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, &p); err != nil {
		return cartsync.Product{}, err
	}
	return cartsync.Product{ID: p.ID, Title: p.Title, UnitPrice: p.Price, StockCap: p.Stock}, nil
}

func (c *Client) FetchCart(ctx context.Context) (cartsync.Snapshot, error) {
	return c.cart(ctx, http.MethodGet, "/cart", nil)
}

func (c *Client) AddLine(ctx context.Context, productID int64, quantity int64) (cartsync.Snapshot, error) {
	return c.cart(ctx, http.MethodPost, "/cart", addRequest{ProductID: productID, Quantity: quantity})
}

func (c *Client) UpdateLine(ctx context.Context, lineKey string, quantity int64) (cartsync.Snapshot, error) {
	return c.cart(ctx, http.MethodPatch, "/cart/"+url.PathEscape(lineKey), updateRequest{Quantity: quantity})
}

func (c *Client) RemoveLine(ctx context.Context, lineKey string) (cartsync.Snapshot, error) {
	return c.cart(ctx, http.MethodDelete, "/cart/"+url.PathEscape(lineKey), nil)
}

func (c *Client) cart(ctx context.Context, method, path string, body interface{}) (cartsync.Snapshot, error) {
	var out cartResponse
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return cartsync.Snapshot{}, err
	}
	return out.snapshot(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read %s %s", method, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var e errorResponse
	if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
		e.Error = strings.TrimSpace(string(data))
		if e.Error == "" {
			e.Error = http.StatusText(status)
		}
	}
	return &Error{Status: status, Message: e.Error}
}
