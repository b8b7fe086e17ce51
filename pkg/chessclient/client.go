// Package chessclient is the Go client for the chessd HTTP API.
package chessclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/karowl/chessd/pkg/chessdto"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chessd api: status=%d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("chessd api: status=%d", e.Status)
}

type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateMatch starts a match; ruleset may be empty for the server default.
func (c *Client) CreateMatch(ctx context.Context, ruleset string) (*chessdto.MatchState, error) {
	var st chessdto.MatchState
	req := chessdto.CreateMatchRequest{Ruleset: ruleset}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/matches", req, &st, false); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) GetMatch(ctx context.Context, id string) (*chessdto.MatchState, error) {
	var st chessdto.MatchState
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/matches/"+url.PathEscape(id), nil, &st, true); err != nil {
		return nil, err
	}
	return &st, nil
}

// PlayMove submits a coordinate move like "e2 e4" or "e2e4". Moves are
// never retried; a transport error after a successful apply would replay
// the move as the other side.
func (c *Client) PlayMove(ctx context.Context, id, move string) (*chessdto.MatchState, error) {
	var st chessdto.MatchState
	req := chessdto.MoveRequest{Move: move}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/matches/"+url.PathEscape(id)+"/moves", req, &st, false); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Resign(ctx context.Context, id, color string) (*chessdto.MatchState, error) {
	var st chessdto.MatchState
	req := chessdto.ResignRequest{Color: color}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/matches/"+url.PathEscape(id)+"/resign", req, &st, false); err != nil {
		return nil, err
	}
	return &st, nil
}

// SquareMoves lists the destinations generated for the piece on square.
func (c *Client) SquareMoves(ctx context.Context, id, square string) (*chessdto.MoveList, error) {
	var ml chessdto.MoveList
	path := "/api/matches/" + url.PathEscape(id) + "/squares/" + url.PathEscape(square) + "/moves"
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &ml, true); err != nil {
		return nil, err
	}
	return &ml, nil
}

// BoardText fetches the terminal rendering of the position.
func (c *Client) BoardText(ctx context.Context, id string) (string, error) {
	body, err := c.doRaw(ctx, "/api/matches/"+url.PathEscape(id)+"/board.txt")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// BoardPNG fetches the position as PNG bytes.
func (c *Client) BoardPNG(ctx context.Context, id string) ([]byte, error) {
	return c.doRaw(ctx, "/api/matches/"+url.PathEscape(id)+"/board.png")
}

// RecentMatches lists finished games from the archive.
func (c *Client) RecentMatches(ctx context.Context, limit int) ([]chessdto.ArchivedMatch, error) {
	path := "/api/archive"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var rows []chessdto.ArchivedMatch
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &rows, true); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.deadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if serr := sleepWithContext(ctx, backoff(attempt)); serr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			apiErr := &APIError{Status: status, Message: decodeErrMessage(resp.Body())}
			if attempt == attempts || !retryableStatus(status) {
				return apiErr
			}
			lastErr = apiErr
			if serr := sleepWithContext(ctx, backoff(attempt)); serr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}

func (c *Client) doRaw(ctx context.Context, path string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + path)
	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return nil, &APIError{Status: status, Message: decodeErrMessage(resp.Body())}
	}
	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

func decodeErrMessage(body []byte) string {
	var er chessdto.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return er.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}

func (c *Client) deadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 5 {
		attempt = 5
	}
	return time.Duration(1<<uint(attempt-1)) * 200 * time.Millisecond
}

func retryableStatus(status int) bool {
	switch status {
	case fasthttp.StatusTooManyRequests,
		fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable,
		fasthttp.StatusGatewayTimeout:
		return true
	}
	return false
}
