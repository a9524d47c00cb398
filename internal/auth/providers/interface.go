package providers

import (
	"context"

	"github.com/brizzai/auto-eda/internal/auth/models"
	"golang.org/x/oauth2"
)

// Provider defines the identity provider calls the auth controller makes
type Provider interface {
	// AuthCodeURL returns the authorization URL carrying state
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for tokens
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// UserInfo fetches identity claims with the access token
	UserInfo(ctx context.Context, token *oauth2.Token) (*models.Identity, error)

	// VerifyIDToken checks the signature, issuer and audience of an id_token
	VerifyIDToken(ctx context.Context, rawIDToken string) error
}
