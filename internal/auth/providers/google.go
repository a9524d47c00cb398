package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/brizzai/auto-eda/internal/auth/constants"
	"github.com/brizzai/auto-eda/internal/auth/models"
	"github.com/brizzai/auto-eda/internal/config"
	"github.com/brizzai/auto-eda/internal/logger"
	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// maxErrorBody caps how much of a failed provider response is kept
const maxErrorBody = 4 << 10

// oauth2 reports a token response without access_token as a plain error
const missingAccessTokenMsg = "server response missing access_token"

// ErrNoUserInfoEndpoint is returned when the provider has no userinfo URL
var ErrNoUserInfoEndpoint = errors.New("provider has no userinfo endpoint")

// ProviderError describes a failed call to one of the provider endpoints.
// StatusCode is zero for transport failures.
type ProviderError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s endpoint returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s endpoint request failed: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("%s endpoint request failed", e.Endpoint)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrMissingAccessToken is returned when a 2xx token response has no access_token
var ErrMissingAccessToken = errors.New("token response missing access_token")

// Endpoint names used in ProviderError
const (
	EndpointToken    = "token"
	EndpointUserInfo = "userinfo"
	EndpointIDToken  = "id_token"
)

// GoogleProvider talks to Google's OpenID Connect endpoints. The endpoints are
// fixed by config, so no discovery request is made at startup.
type GoogleProvider struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	userInfoURL  string
	client       *http.Client
}

// NewGoogleProvider builds the provider. client bounds every provider call.
func NewGoogleProvider(cfg config.OAuthConfig, redirectURI string, client *http.Client) (*GoogleProvider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client id is required")
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	providerCfg := &oidc.ProviderConfig{
		IssuerURL:   cfg.Issuer,
		AuthURL:     cfg.AuthURL,
		TokenURL:    cfg.TokenURL,
		UserInfoURL: cfg.UserInfoURL,
		JWKSURL:     cfg.JWKSURL,
		Algorithms:  []string{oidc.RS256},
	}
	provider := providerCfg.NewProvider(oidc.ClientContext(context.Background(), client))

	endpoint := provider.Endpoint()
	// Client credentials go in the form body, and a rejected exchange is sent once
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	scopes := cfg.ScopeList()
	if len(scopes) == 0 {
		scopes = constants.DefaultScopes
	}

	return &GoogleProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		verifier:    provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		userInfoURL: cfg.UserInfoURL,
		client:      client,
	}, nil
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
	)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.oauth2Config.Exchange(oidc.ClientContext(ctx, p.client), code)
	if err == nil {
		return token, nil
	}

	var retrieveErr *oauth2.RetrieveError
	switch {
	case errors.As(err, &retrieveErr):
		pe := &ProviderError{Endpoint: EndpointToken, Body: truncate(string(retrieveErr.Body)), Err: err}
		if retrieveErr.Response != nil {
			pe.StatusCode = retrieveErr.Response.StatusCode
		}
		return nil, pe
	case strings.Contains(err.Error(), missingAccessTokenMsg):
		return nil, ErrMissingAccessToken
	default:
		return nil, &ProviderError{Endpoint: EndpointToken, Err: err}
	}
}

func (p *GoogleProvider) UserInfo(ctx context.Context, token *oauth2.Token) (*models.Identity, error) {
	if p.userInfoURL == "" {
		return nil, ErrNoUserInfoEndpoint
	}

	client := oauth2.NewClient(oidc.ClientContext(ctx, p.client), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   constants.TokenType,
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("Failed to call userinfo endpoint", zap.Error(err))
		return nil, &ProviderError{Endpoint: EndpointUserInfo, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ProviderError{Endpoint: EndpointUserInfo, StatusCode: resp.StatusCode, Body: truncate(string(body))}
	}

	var userInfo struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, &ProviderError{Endpoint: EndpointUserInfo, Err: fmt.Errorf("failed to decode userinfo response: %w", err)}
	}

	return &models.Identity{
		Subject: userInfo.Sub,
		Email:   userInfo.Email,
		Name:    userInfo.Name,
		Picture: userInfo.Picture,
	}, nil
}

func (p *GoogleProvider) VerifyIDToken(ctx context.Context, rawIDToken string) error {
	if _, err := p.verifier.Verify(oidc.ClientContext(ctx, p.client), rawIDToken); err != nil {
		return &ProviderError{Endpoint: EndpointIDToken, Err: fmt.Errorf("failed to verify ID token: %w", err)}
	}
	return nil
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
