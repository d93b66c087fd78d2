package api

import (
	"context"
	"errors"

	"arenda/internal/models"
)

type authRequest struct {
	Action       string          `json:"action"`
	Email        string          `json:"email,omitempty"`
	Password     string          `json:"password,omitempty"`
	FullName     string          `json:"full_name,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	UserType     models.UserType `json:"user_type,omitempty"`
	SessionToken string          `json:"session_token,omitempty"`
}

type authResponse struct {
	Success      bool        `json:"success"`
	User         models.User `json:"user"`
	SessionToken string      `json:"session_token"`
	Error        string      `json:"error"`
}

func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	req := authRequest{Action: "login", Email: creds.Email, Password: creds.Password}

	var resp authResponse
	if err := c.doPost(ctx, opLogin, c.authURL, "", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RequestError{Op: opLogin, Message: resp.Error, Kind: ErrInvalidCredentials}
	}
	return authResult(opLogin, resp)
}

func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.AuthResult, error) {
	userType := reg.UserType
	if userType == "" {
		userType = models.UserTypeRenter
	}
	req := authRequest{
		Action:   "register",
		Email:    reg.Email,
		Password: reg.Password,
		FullName: reg.FullName,
		Phone:    reg.Phone,
		UserType: userType,
	}

	var resp authResponse
	if err := c.doPost(ctx, opRegister, c.authURL, "", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "registration rejected"
		}
		return nil, &ValidationError{Op: opRegister, Message: msg}
	}
	return authResult(opRegister, resp)
}

// VerifySession asks the server whether token is still valid.
func (c *Client) VerifySession(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, &RequestError{Op: opVerify, Kind: ErrUnauthorized}
	}
	req := authRequest{Action: "verify", SessionToken: token}

	var resp authResponse
	if err := c.doPost(ctx, opVerify, c.authURL, token, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RequestError{Op: opVerify, Message: resp.Error, Kind: ErrUnauthorized}
	}
	if !resp.User.Complete() {
		return nil, networkError(opVerify, errors.New("response has no user"))
	}
	user := resp.User
	return &user, nil
}

func authResult(op string, resp authResponse) (*models.AuthResult, error) {
	if resp.SessionToken == "" || !resp.User.Complete() {
		return nil, networkError(op, errors.New("response has no session"))
	}
	return &models.AuthResult{User: resp.User, Token: resp.SessionToken}, nil
}
