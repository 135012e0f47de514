package service

import (
	"context"
	"fmt"
	"time"

	"bugtrail/internal/models"

	"github.com/go-resty/resty/v2"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleClaims are the identity fields extracted from a verified Google token.
type GoogleClaims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleVerifier validates a Google ID token and returns its claims.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleClaims, error)
}

type googleTokenInfoVerifier struct {
	client   *resty.Client
	clientID string
}

// NewGoogleVerifier builds a verifier backed by Google's tokeninfo endpoint.
// clientID is the OAuth audience the token must be issued for.
func NewGoogleVerifier(clientID string) GoogleVerifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)

	return &googleTokenInfoVerifier{client: client, clientID: clientID}
}

type tokenInfoResponse struct {
	Subject       string `json:"sub"`
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Expiry        string `json:"exp"`
}

func (v *googleTokenInfoVerifier) Verify(ctx context.Context, idToken string) (*GoogleClaims, error) {
	if idToken == "" {
		return nil, models.NewUnauthorizedError("missing ID token")
	}

	var info tokenInfoResponse
	resp, err := v.client.R().
		SetContext(ctx).
		SetQueryParam("id_token", idToken).
		SetResult(&info).
		Get(googleTokenInfoURL)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("google tokeninfo request: %w", err))
	}
	if resp.IsError() {
		return nil, models.NewUnauthorizedError("invalid Google ID token")
	}

	if v.clientID != "" && info.Audience != v.clientID {
		return nil, models.NewUnauthorizedError("Google token issued for a different client")
	}
	if info.Subject == "" || info.Email == "" {
		return nil, models.NewUnauthorizedError("Google token missing identity claims")
	}

	return &GoogleClaims{
		Subject: info.Subject,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
