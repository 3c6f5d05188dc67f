package api

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

	"github.com/cenkalti/backoff/v4"
)

// ErrNoSession is returned by authorized calls made before a session exists.
var ErrNoSession = errors.New("no session")

// APIError represents a non-2xx response.
type APIError struct {
	StatusCode int
	URL        string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s) at %s: %s", e.StatusCode, e.Code, e.URL, msg)
	}
	return fmt.Sprintf("api error %d at %s: %s", e.StatusCode, e.URL, msg)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

const accountsSegment = "accounts/"

// obfuscateAccountURL masks the path segment following "accounts/".
func obfuscateAccountURL(u string) string {
	idx := strings.Index(u, accountsSegment)
	if idx < 0 {
		return u
	}
	start := idx + len(accountsSegment)
	rest := u[start:]
	end := strings.IndexByte(rest, '/')
	if end < 0 {
		end = len(rest)
	}
	return u[:start] + strings.Repeat("*", len([]rune(rest[:end]))) + rest[end:]
}

type request struct {
	method     string
	path       string
	body       any
	header     http.Header
	authorized bool
}

// doRequest performs a single HTTP request.
func (c *Client) doRequest(ctx context.Context, r request) ([]byte, error) {
	fullURL := c.baseURL + r.path
	safeURL := obfuscateAccountURL(fullURL)

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", safeURL, err)
	}

	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.authorized {
		s := c.Session()
		if s == nil {
			return nil, ErrNoSession
		}
		req.Header.Set("Authorization", s.Token())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("do request %s: %w", safeURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			URL:        safeURL,
		}
		var env envelope[json.RawMessage]
		if json.Unmarshal(data, &env) == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return nil, apiErr
	}

	return data, nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, r request) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryBackoff
	bo.MaxElapsedTime = 0

	var b backoff.BackOff = bo
	if c.maxRetries >= 0 {
		b = backoff.WithMaxRetries(bo, uint64(c.maxRetries))
	}

	attempt := 0
	var body []byte
	operation := func() error {
		attempt++
		data, err := c.doRequest(ctx, r)
		if err == nil {
			body = data
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsRetryable() {
			return err
		}
		if errors.Is(err, ErrNoSession) || errors.As(err, &apiErr) {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		c.logger.Debug("retrying request",
			"attempt", attempt,
			"backoff", delay,
			"path", obfuscateAccountURL(r.path),
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		if attempt > 1 {
			return nil, fmt.Errorf("after %d attempts: %w", attempt, err)
		}
		return nil, err
	}
	return body, nil
}

// call performs a request with retries and decodes the envelope data into result.
func call[T any](ctx context.Context, c *Client, r request) (T, error) {
	var zero T
	body, err := c.doWithRetry(ctx, r)
	if err != nil {
		return zero, err
	}

	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, fmt.Errorf("unmarshal response: %w", err)
	}
	return env.Data, nil
}
