package models

import "time"

// TokenRecord is the result of a successful authorization-code exchange.
// ExpiresIn and Expiry are informational; tokens are never refreshed.
type TokenRecord struct {
	AccessToken  string    `json:"access_token" yaml:"-"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty" yaml:"-"`
	IDToken      string    `json:"id_token,omitempty" yaml:"-"`
}

// Identity holds the claims returned by the userinfo endpoint
type Identity struct {
	Subject string `json:"sub,omitempty"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}
