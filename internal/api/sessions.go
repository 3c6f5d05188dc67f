package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rickgao/tastystream/internal/auth"
)

// Login exchanges credentials for a session token. otp is sent as the
// X-Tastyworks-OTP header when non-empty. On success the client adopts
// the new session.
func (c *Client) Login(ctx context.Context, login, password, otp string) (*auth.Session, error) {
	if login == "" || password == "" {
		return nil, errors.New("login and password are required")
	}

	r := request{
		method: http.MethodPost,
		path:   "/sessions",
		body:   LoginRequest{Login: login, Password: password},
	}
	if otp != "" {
		r.header = http.Header{"X-Tastyworks-OTP": []string{otp}}
	}

	resp, err := call[LoginResponse](ctx, c, r)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	session, err := auth.FromToken(resp.SessionToken)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	c.SetSession(session)

	c.logger.Info("logged in", "user", resp.User.Username)
	return session, nil
}

// QuoteStreamerToken fetches the token and URL for the quote streamer.
func (c *Client) QuoteStreamerToken(ctx context.Context) (*QuoteToken, error) {
	tok, err := call[QuoteToken](ctx, c, request{
		method:     http.MethodGet,
		path:       "/api-quote-tokens",
		authorized: true,
	})
	if err != nil {
		return nil, fmt.Errorf("quote streamer token: %w", err)
	}
	if tok.Token == "" {
		return nil, fmt.Errorf("quote streamer token: %w", auth.ErrTokenMissing)
	}
	return &tok, nil
}
