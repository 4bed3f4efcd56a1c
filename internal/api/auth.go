package api

import (
	"context"
	"net/http"

	"github.com/safar/go-storefront/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Mobile   string `json:"mobile"`
}

// ProfilePatch is a partial profile update; nil fields are left alone.
type ProfilePatch struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Mobile *string `json:"mobile,omitempty"`
}

type userEnvelope struct {
	User *models.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	var out models.AuthResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/login",
		body:   map[string]string{"email": email, "password": password},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (*models.AuthResult, error) {
	var out models.AuthResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/register",
		body:   in,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	if token == "" {
		return errMissingToken
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/logout",
		token:  token,
	}, nil)
}

// Profile fetches the user behind token.
func (c *Client) Profile(ctx context.Context, token string) (*models.User, error) {
	var out userEnvelope
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/profile",
		token:  token,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, patch ProfilePatch) (*models.User, error) {
	var out userEnvelope
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/profile",
		body:   patch,
		token:  token,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) ForgotPassword(ctx context.Context, mobile string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/forgot-password",
		body:   map[string]string{"mobile": mobile},
	}, nil)
}

func (c *Client) VerifyOTP(ctx context.Context, mobile, otp string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/verify-otp",
		body:   map[string]string{"mobile": mobile, "otp": otp},
	}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, mobile, otp, newPassword string) error {
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   "/reset-password",
		body: map[string]string{
			"mobile":      mobile,
			"otp":         otp,
			"newPassword": newPassword,
		},
	}, nil)
}
