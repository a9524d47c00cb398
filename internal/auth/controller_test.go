package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brizzai/auto-eda/internal/auth/constants"
	"github.com/brizzai/auto-eda/internal/auth/models"
	"github.com/brizzai/auto-eda/internal/auth/providers"
	"github.com/brizzai/auto-eda/internal/config"
	"github.com/brizzai/auto-eda/internal/metrics"
	"github.com/brizzai/auto-eda/internal/session"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedirectURI = "http://localhost:8501"

// fakeGoogle stands in for the token and userinfo endpoints
type fakeGoogle struct {
	t              *testing.T
	server         *httptest.Server
	tokenCalls     atomic.Int32
	userInfoCalls  atomic.Int32
	tokenStatus    int
	tokenBody      any
	userInfoStatus int
	userInfoBody   any
	delay          time.Duration

	mu       sync.Mutex
	lastForm url.Values
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{
		t:              t,
		tokenStatus:    http.StatusOK,
		tokenBody:      map[string]any{"access_token": "t1", "token_type": "Bearer", "expires_in": 3599, "scope": "openid email profile"},
		userInfoStatus: http.StatusOK,
		userInfoBody:   map[string]any{"sub": "42", "email": "u@x.com"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.lastForm = r.PostForm
		f.mu.Unlock()
		writeJSON(w, f.tokenStatus, f.tokenBody)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		f.userInfoCalls.Add(1)
		assert.Equal(t, constants.AuthHeaderPrefix+"t1", r.Header.Get(constants.AuthHeaderName))
		writeJSON(w, f.userInfoStatus, f.userInfoBody)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeGoogle) oauthConfig() config.OAuthConfig {
	return config.OAuthConfig{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		Scopes:       "openid email profile",
		Timeout:      2 * time.Second,
		Issuer:       f.server.URL,
		AuthURL:      "https://accounts.example.com/o/oauth2/v2/auth",
		TokenURL:     f.server.URL + "/token",
		UserInfoURL:  f.server.URL + "/userinfo",
		JWKSURL:      f.server.URL + "/certs",
	}
}

func (f *fakeGoogle) form() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm
}

func (f *fakeGoogle) calls() int {
	return int(f.tokenCalls.Load() + f.userInfoCalls.Load())
}

func newTestController(t *testing.T, f *fakeGoogle, mutate ...func(*config.OAuthConfig)) *Controller {
	t.Helper()
	cfg := f.oauthConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	provider, err := providers.NewGoogleProvider(cfg, testRedirectURI, &http.Client{Timeout: cfg.Timeout})
	require.NoError(t, err)
	return NewController(cfg, provider, metrics.New())
}

func callbackQuery(code, state string) url.Values {
	return url.Values{"code": {code}, "state": {state}}
}

func TestBuildAuthorizationLink(t *testing.T) {
	f := newFakeGoogle(t)
	ctrl := newTestController(t, f)
	sess := session.NewStore().Create()

	link := ctrl.BuildAuthorizationLink(sess)
	u, err := url.Parse(link)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "accounts.example.com", u.Host)
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, testRedirectURI, q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, sess.State, q.Get("state"))
	assert.NotEmpty(t, sess.State)
	assert.Zero(t, f.calls())
}

func TestBuildAuthorizationLink_StateIsFreshEachTime(t *testing.T) {
	ctrl := newTestController(t, newFakeGoogle(t))
	sess := session.NewStore().Create()

	ctrl.BuildAuthorizationLink(sess)
	first := sess.State
	ctrl.BuildAuthorizationLink(sess)
	second := sess.State

	assert.NotEqual(t, first, second)

	// only the latest state is accepted
	err := ctrl.HandleCallback(context.Background(), sess, callbackQuery("abc123", first))
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestHandleCallback_HappyPath(t *testing.T) {
	f := newFakeGoogle(t)
	ctrl := newTestController(t, f)
	sess := session.NewStore().Create()

	ctrl.BuildAuthorizationLink(sess)
	err := ctrl.HandleCallback(context.Background(), sess, callbackQuery("abc123", sess.State))
	require.NoError(t, err)

	ident := ctrl.CurrentIdentity(sess)
	require.NotNil(t, ident)
	assert.Equal(t, "u@x.com", ident.Email)
	require.NotNil(t, sess.Token)
	assert.Equal(t, "t1", sess.Token.AccessToken)
	assert.Equal(t, "openid email profile", sess.Token.Scope)
	assert.Empty(t, sess.State)

	assert.Equal(t, "abc123", f.form().Get("code"))
	assert.Equal(t, "client-123", f.form().Get("client_id"))
	assert.Equal(t, "secret-456", f.form().Get("client_secret"))
	assert.Equal(t, testRedirectURI, f.form().Get("redirect_uri"))
	assert.Equal(t, "authorization_code", f.form().Get("grant_type"))
}

func TestHandleCallback_MinimalTokenResponse(t *testing.T) {
	f := newFakeGoogle(t)
	f.tokenBody = map[string]any{"access_token": "t1"}
	ctrl := newTestController(t, f)
	sess := session.NewStore().Create()

	ctrl.BuildAuthorizationLink(sess)
	require.NoError(t, ctrl.HandleCallback(context.Background(), sess, callbackQuery("abc123", sess.State)))
	assert.Equal(t, "u@x.com", ctrl.CurrentIdentity(sess).Email)
}

func TestHandleCallback_TakesFirstCode(t *testing.T) {
	f := newFakeGoogle(t)
	ctrl := newTestController(t, f)
	sess := session.NewStore().Create()
	ctrl.BuildAuthorizationLink(sess)

	query := url.Values{"code": {"first", "second"}, "state": {sess.State}}
	require.NoError(t, ctrl.HandleCallback(context.Background(), sess, query))
	assert.Equal(t, "first", f.form().Get("code"))
}

func TestHandleCallback_IdempotentWhenAuthenticated(t *testing.T) {
	f := newFakeGoogle(t)
	ctrl := newTestController(t, f)
	sess := session.NewStore().Create()

	ctrl.BuildAuthorizationLink(sess)
	query := callbackQuery("abc123", sess.State)
	require.NoError(t, ctrl.HandleCallback(context.Background(), sess, query))
	callsAfterFirst := f.calls()

	before := struct {
		Token    models.TokenRecord
		Identity models.Identity
		State    string
	}{*sess.Token, *sess.Identity, sess.State}

	require.NoError(t, ctrl.HandleCallback(context.Background(), sess, query))
	require.NoError(t, ctrl.HandleCallback(context.Background(), sess, query))

	assert.Equal(t, callsAfterFirst, f.calls())
	after := struct {
		Token    models.TokenRecord
		Identity models.Identity
		State    string
	}{*sess.Token, *sess.Identity, sess.State}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("session changed (-before +after):\n%s", diff)
	}
}

func TestHandleCallback_NoCodeIsNoop(t *testing.T) {
	f := newFakeGoogle(t)
	ctrl := newTestController(t, f)
	sess := session.NewStore().Create()
	ctrl.BuildAuthorizationLink(sess)
	state := sess.State

	require.NoError(t, ctrl.HandleCallback(context.Background(), sess, url.Values{"state": {state}}))
	require.NoError(t, ctrl.HandleCallback(context.Background(), sess, url.Values{"code": {""}}))

	assert.Zero(t, f.calls())
	assert.Equal(t, state, sess.State)
	assert.False(t, sess.Authenticated())
}

func TestHandleCallback_StateMismatch(t *testing.T) {
	tests := []struct {
		name  string
		issue bool
		state string
	}{
		{name: "wrong state", issue: true, state: "forged"},
		{name: "missing state", issue: true, state: ""},
		{name: "no state issued", issue: false, state: "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeGoogle(t)
			ctrl := newTestController(t, f)
			sess := session.NewStore().Create()
			if tt.issue {
				ctrl.BuildAuthorizationLink(sess)
			}

			err := ctrl.HandleCallback(context.Background(), sess, callbackQuery("abc123", tt.state))
			assert.ErrorIs(t, err, ErrStateMismatch)
			assert.Zero(t, f.calls())
			assert.False(t, sess.Authenticated())
			assert.Empty(t, sess.State, "state is consumed by the attempt")
		})
	}
}

func TestHandleCallback_TokenEndpointRejects(t *testing.T) {
	f := newFakeGoogle(t)
	f.tokenStatus = http.StatusBadRequest
	f.tokenBody = map[string]any{"error": "invalid_grant", "error_description": "Bad Request"}
	ctrl := newTestController(t, f)
	sess := session.NewStore().Create()

	ctrl.BuildAuthorizationLink(sess)
	err := ctrl.HandleCallback(context.Background(), sess, callbackQuery("abc123", sess.State))

	require.ErrorIs(t, err, ErrAuthExchange)
	var exErr *ExchangeError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, http.StatusBadRequest, exErr.StatusCode)
	assert.Equal(t, providers.EndpointToken, exErr.Endpoint)
	assert.Contains(t, exErr.Body, "invalid_grant")

	assert.Nil(t, sess.Token)
	assert.Nil(t, sess.Identity)
	assert.Nil(t, ctrl.CurrentIdentity(sess))
	assert.Equal(t, int32(1), f.tokenCalls.Load())
	assert.Zero(t, f.userInfoCalls.Load())
}

func TestHandleCallback_MissingAccessToken(t *testing.T) {
	f := newFakeGoogle(t)
	f.tokenBody = map[string]any{"token_type": "Bearer", "expires_in": 3599}
	ctrl := newTestController(t, f)
	sess := session.NewStore().Create()

	ctrl.BuildAuthorizationLink(sess)
	err := ctrl.HandleCallback(context.Background(), sess, callbackQuery("abc123", sess.State))

	assert.ErrorIs(t, err, ErrMissingToken)
	assert.False(t, sess.Authenticated())
	assert.Zero(t, f.userInfoCalls.Load())
}

func TestHandleCallback_UserInfoFailureRollsBack(t *testing.T) {
	f := newFakeGoogle(t)
	f.userInfoStatus = http.StatusUnauthorized
	f.userInfoBody = map[string]any{"error": "invalid_token"}
	ctrl := newTestController(t, f)
	sess := session.NewStore().Create()

	ctrl.BuildAuthorizationLink(sess)
	err := ctrl.HandleCallback(context.Background(), sess, callbackQuery("abc123", sess.State))

	require.ErrorIs(t, err, ErrAuthExchange)
	var exErr *ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, providers.EndpointUserInfo, exErr.Endpoint)
	assert.Equal(t, http.StatusUnauthorized, exErr.StatusCode)

	assert.Nil(t, sess.Token, "token must not survive a failed identity fetch")
	assert.Nil(t, sess.Identity)
}

func TestHandleCallback_IdentityWithoutEmail(t *testing.T) {
	f := newFakeGoogle(t)
	f.userInfoBody = map[string]any{"sub": "42", "name": "Jane"}
	ctrl := newTestController(t, f)
	sess := session.NewStore().Create()

	ctrl.BuildAuthorizationLink(sess)
	err := ctrl.HandleCallback(context.Background(), sess, callbackQuery("abc123", sess.State))

	assert.ErrorIs(t, err, ErrIdentityIncomplete)
	assert.False(t, sess.Authenticated())
}

func TestHandleCallback_Timeout(t *testing.T) {
	f := newFakeGoogle(t)
	f.delay = 300 * time.Millisecond
	ctrl := newTestController(t, f, func(c *config.OAuthConfig) { c.Timeout = 50 * time.Millisecond })
	sess := session.NewStore().Create()

	ctrl.BuildAuthorizationLink(sess)
	err := ctrl.HandleCallback(context.Background(), sess, callbackQuery("abc123", sess.State))

	assert.ErrorIs(t, err, ErrAuthExchange)
	assert.False(t, sess.Authenticated())
}

func TestHandleCallback_InvalidIDToken(t *testing.T) {
	f := newFakeGoogle(t)
	f.tokenBody = map[string]any{"access_token": "t1", "id_token": "not-a-jwt"}
	ctrl := newTestController(t, f, func(c *config.OAuthConfig) { c.VerifyIDToken = true })
	sess := session.NewStore().Create()

	ctrl.BuildAuthorizationLink(sess)
	err := ctrl.HandleCallback(context.Background(), sess, callbackQuery("abc123", sess.State))

	require.ErrorIs(t, err, ErrAuthExchange)
	var exErr *ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, providers.EndpointIDToken, exErr.Endpoint)
	assert.False(t, sess.Authenticated())
	assert.Zero(t, f.userInfoCalls.Load())
}

func TestHandleCallback_IDTokenIgnoredWhenVerificationOff(t *testing.T) {
	f := newFakeGoogle(t)
	f.tokenBody = map[string]any{"access_token": "t1", "id_token": "not-a-jwt"}
	ctrl := newTestController(t, f)
	sess := session.NewStore().Create()

	ctrl.BuildAuthorizationLink(sess)
	require.NoError(t, ctrl.HandleCallback(context.Background(), sess, callbackQuery("abc123", sess.State)))
	assert.Equal(t, "not-a-jwt", sess.Token.IDToken)
}

func TestLogout(t *testing.T) {
	f := newFakeGoogle(t)
	ctrl := newTestController(t, f)
	sess := session.NewStore().Create()

	// empty session
	assert.NotPanics(t, func() { ctrl.Logout(sess) })
	assert.False(t, sess.Authenticated())
	assert.Nil(t, ctrl.CurrentIdentity(sess))

	ctrl.BuildAuthorizationLink(sess)
	require.NoError(t, ctrl.HandleCallback(context.Background(), sess, callbackQuery("abc123", sess.State)))
	require.True(t, sess.Authenticated())

	ctrl.Logout(sess)
	ctrl.Logout(sess)
	assert.Nil(t, sess.Token)
	assert.Nil(t, sess.Identity)
	assert.Empty(t, sess.State)
	assert.Nil(t, ctrl.CurrentIdentity(sess))
}

func TestCurrentIdentity_NilSession(t *testing.T) {
	ctrl := newTestController(t, newFakeGoogle(t))
	assert.Nil(t, ctrl.CurrentIdentity(nil))
}
