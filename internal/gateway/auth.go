package gateway

import (
	"context"
	"net/http"

	"tangled.org/lewlew.social/lewctl/internal/metrics"
	"tangled.org/lewlew.social/lewctl/internal/models"
)

// loginFallback is used when a failed login carries no message field.
const loginFallback = "Admin login failed. Please check your credentials or admin permissions."

// LoginResult is the successful login exchange.
type LoginResult struct {
	Token string           `json:"token"`
	User  models.AdminUser `json:"user"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token. On success the token is written
// to the credential store under the fixed key before returning, so every
// subsequent authenticated call picks it up.
func (c *Client) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/admin/login",
		body:     loginRequest{Login: login, Password: password},
		endpoint: "login",
		fallback: loginFallback,
	}, &result)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	if err := c.creds.SetToken(result.Token); err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		return nil, serverError("login", "Failed to persist admin token.", 0)
	}

	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()
	return &result, nil
}
