package backend

import (
	"context"
	"net/http"
)

type loginRequest struct {
	Password string `json:"password"`
}

// Login opens a back-office session; the cookie is kept in the client jar
func (c *Client) Login(ctx context.Context, password string) error {
	if err := c.do(ctx, http.MethodPost, pathAdminLogin, nil, loginRequest{Password: password}, nil); err != nil {
		return err
	}
	c.logger.Info("Back-office session opened")
	return nil
}

// Logout closes the back-office session
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, pathAdminLogout, nil, nil, nil)
}
