package gateway

import (
	"context"
	"net/http"

	"github.com/kigundalevi/carsawa/internal/convert"
	"github.com/kigundalevi/carsawa/internal/model"
)

// Login exchanges credentials for user fields plus a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (model.Dealer, string, error) {
	p, err := jsonPayload(map[string]string{"email": email, "password": password})
	if err != nil {
		return model.Dealer{}, "", err
	}
	body, err := c.do(ctx, http.MethodPost, "/auth/login", p)
	if err != nil {
		return model.Dealer{}, "", err
	}
	return convert.DecodeAuth(body)
}

// Register creates a dealer account. Coordinate validation happens in
// the session store before this is called.
func (c *Client) Register(ctx context.Context, reg model.Registration) (model.Dealer, string, error) {
	p, err := registrationPayload(reg)
	if err != nil {
		return model.Dealer{}, "", err
	}
	body, err := c.do(ctx, http.MethodPost, "/auth/register", p)
	if err != nil {
		return model.Dealer{}, "", err
	}
	return convert.DecodeAuth(body)
}

// Logout notifies the server that the token should be revoked.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", payload{})
	return err
}

// Me fetches the profile of the authenticated dealer. Used to validate
// a restored token at startup.
func (c *Client) Me(ctx context.Context) (model.Dealer, error) {
	body, err := c.do(ctx, http.MethodGet, "/auth/me", payload{})
	if err != nil {
		return model.Dealer{}, err
	}
	return convert.DecodeDealer(body)
}

// UpdateProfile submits a partial profile edit and returns the
// server-confirmed dealer.
func (c *Client) UpdateProfile(ctx context.Context, up model.ProfileUpdate) (model.Dealer, error) {
	p, err := profilePayload(up)
	if err != nil {
		return model.Dealer{}, err
	}
	body, err := c.do(ctx, http.MethodPut, "/auth/update-profile", p)
	if err != nil {
		return model.Dealer{}, err
	}
	return convert.DecodeDealer(body)
}

// UnreadNotifications returns the dealer's unread notification count.
func (c *Client) UnreadNotifications(ctx context.Context) (int, error) {
	body, err := c.do(ctx, http.MethodGet, "/notifications/unread-count", payload{})
	if err != nil {
		return 0, err
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := decodeInto(body, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}
