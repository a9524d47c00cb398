package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/brizzai/auto-eda/internal/auth/constants"
	"github.com/brizzai/auto-eda/internal/auth/models"
	"github.com/brizzai/auto-eda/internal/auth/providers"
	"github.com/brizzai/auto-eda/internal/config"
	"github.com/brizzai/auto-eda/internal/logger"
	"github.com/brizzai/auto-eda/internal/metrics"
	"github.com/brizzai/auto-eda/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Controller drives the authorization-code grant for one session at a time.
// Callers hold the session lock for the duration of every call.
type Controller struct {
	provider      providers.Provider
	timeout       time.Duration
	verifyIDToken bool
	metrics       *metrics.Metrics
	newState      func() string
}

// NewController creates a controller bound to provider
func NewController(cfg config.OAuthConfig, provider providers.Provider, m *metrics.Metrics) *Controller {
	return &Controller{
		provider:      provider,
		timeout:       cfg.Timeout,
		verifyIDToken: cfg.VerifyIDToken,
		metrics:       m,
		newState:      uuid.NewString,
	}
}

// BuildAuthorizationLink issues a fresh state for sess and returns the
// provider's authorization URL. Any previously issued state stops being valid.
func (c *Controller) BuildAuthorizationLink(sess *session.Session) string {
	sess.State = c.newState()
	return c.provider.AuthCodeURL(sess.State)
}

// HandleCallback exchanges the authorization code in query for a token and
// identity and stores both in sess. It is a no-op when sess is already
// authenticated or query carries no code. On any error sess is left
// unauthenticated.
func (c *Controller) HandleCallback(ctx context.Context, sess *session.Session, query url.Values) error {
	if sess.Authenticated() {
		c.metrics.AuthExchange(constants.ResultSkipped)
		return nil
	}
	codes := query[constants.CodeParam]
	if len(codes) == 0 || codes[0] == "" {
		return nil
	}
	code := codes[0]

	// The stored state is single-use whatever the outcome
	expected := sess.State
	sess.State = ""
	got := query.Get(constants.StateParam)
	if expected == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
		c.metrics.AuthExchange(constants.ResultStateMismatch)
		return ErrStateMismatch
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	token, err := c.provider.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, providers.ErrMissingAccessToken) {
			c.metrics.AuthExchange(constants.ResultMissingToken)
			return ErrMissingToken
		}
		c.metrics.AuthExchange(constants.ResultExchangeError)
		return exchangeError(err)
	}
	if token == nil || token.AccessToken == "" {
		c.metrics.AuthExchange(constants.ResultMissingToken)
		return ErrMissingToken
	}

	record := tokenRecord(token)
	if c.verifyIDToken && record.IDToken != "" {
		if err := c.provider.VerifyIDToken(ctx, record.IDToken); err != nil {
			c.metrics.AuthExchange(constants.ResultExchangeError)
			return exchangeError(err)
		}
	}

	identity, err := c.provider.UserInfo(ctx, token)
	if err != nil {
		c.metrics.AuthExchange(constants.ResultIdentityError)
		return exchangeError(err)
	}
	if identity == nil || identity.Email == "" {
		c.metrics.AuthExchange(constants.ResultIdentityIncomplete)
		return ErrIdentityIncomplete
	}

	// Token and identity are committed together
	sess.Token = record
	sess.Identity = identity

	c.metrics.AuthExchange(constants.ResultOK)
	logger.Info("User signed in",
		zap.String("session", sess.ID),
		zap.String("email", identity.Email),
	)
	return nil
}

// CurrentIdentity returns the identity of an authenticated session, else nil
func (c *Controller) CurrentIdentity(sess *session.Session) *models.Identity {
	if sess == nil || !sess.Authenticated() {
		return nil
	}
	return sess.Identity
}

// Logout clears token, identity and state. Safe on an empty session.
func (c *Controller) Logout(sess *session.Session) {
	if sess == nil {
		return
	}
	if sess.Identity != nil {
		logger.Info("User signed out", zap.String("session", sess.ID), zap.String("email", sess.Identity.Email))
	}
	sess.Clear()
}

func tokenRecord(token *oauth2.Token) *models.TokenRecord {
	record := &models.TokenRecord{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		ExpiresIn:    token.ExpiresIn,
		Expiry:       token.Expiry,
		RefreshToken: token.RefreshToken,
	}
	if scope, ok := token.Extra(constants.ScopeField).(string); ok {
		record.Scope = scope
	}
	if idToken, ok := token.Extra(constants.IDTokenField).(string); ok {
		record.IDToken = idToken
	}
	return record
}

func exchangeError(err error) error {
	var pe *providers.ProviderError
	if errors.As(err, &pe) {
		return &ExchangeError{
			Endpoint:   pe.Endpoint,
			StatusCode: pe.StatusCode,
			Body:       pe.Body,
			Err:        pe.Err,
		}
	}
	var ee *ExchangeError
	if errors.As(err, &ee) {
		return ee
	}
	return &ExchangeError{Endpoint: "provider", Err: fmt.Errorf("unexpected provider error: %w", err)}
}
