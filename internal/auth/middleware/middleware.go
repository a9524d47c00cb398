package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/brizzai/auto-eda/internal/auth"
	"github.com/brizzai/auto-eda/internal/auth/constants"
	"github.com/brizzai/auto-eda/internal/auth/models"
	"github.com/brizzai/auto-eda/internal/logger"
	"github.com/brizzai/auto-eda/internal/session"
	"go.uber.org/zap"
)

type contextKey string

const (
	sessionContextKey  contextKey = "session"
	identityContextKey contextKey = "identity"
)

// ErrProviderDenied is shown when the provider redirects back with an error
// instead of a code, e.g. when the user declines consent.
var ErrProviderDenied = errors.New("sign-in was cancelled at the provider")

// LoginRenderer renders the sign-in page with a freshly built link and an
// optional error from the last attempt.
type LoginRenderer interface {
	RenderLogin(w http.ResponseWriter, r *http.Request, link string, err error)
}

// SessionFromContext returns the session attached by Sessions
func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionContextKey).(*session.Session)
	return sess
}

// IdentityFromContext returns the identity attached by Authenticate
func IdentityFromContext(ctx context.Context) *models.Identity {
	ident, _ := ctx.Value(identityContextKey).(*models.Identity)
	return ident
}

// WithSession attaches sess to ctx
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// Sessions resolves the session for the request, creating one when the cookie
// is missing or stale. The session stays locked until the request completes,
// so one browser's requests are handled one at a time.
func Sessions(store *session.Store, jar *session.CookieJar) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess *session.Session
			if id, ok := jar.Read(r); ok {
				sess, _ = store.Get(id)
			}
			if sess == nil {
				sess = store.Create()
				jar.Write(w, sess.ID)
				logger.Debug("Created session", zap.String("session", sess.ID))
			}

			sess.Lock()
			defer sess.Unlock()

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// Authenticate gates the wrapped handler behind a signed-in session. An
// unauthenticated request carrying a code runs the exchange and is redirected
// to the same path without the callback parameters; any other unauthenticated
// request gets the sign-in page.
func Authenticate(ctrl *auth.Controller, login LoginRenderer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil {
				logger.Error("Authenticate used without Sessions middleware")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if !sess.Authenticated() {
				query := r.URL.Query()

				if query.Has(constants.CodeParam) {
					err := ctrl.HandleCallback(r.Context(), sess, query)
					if err != nil {
						logger.Warn("Authorization callback failed",
							zap.String("session", sess.ID),
							zap.Error(err),
						)
						login.RenderLogin(w, r, ctrl.BuildAuthorizationLink(sess), err)
						return
					}
					http.Redirect(w, r, stripCallbackParams(r.URL), http.StatusSeeOther)
					return
				}

				var loginErr error
				if providerErr := query.Get(constants.ErrorParam); providerErr != "" {
					logger.Info("Provider returned an error", zap.String("error", providerErr),
						zap.String("description", query.Get(constants.ErrorDescriptionParam)))
					loginErr = ErrProviderDenied
				}
				login.RenderLogin(w, r, ctrl.BuildAuthorizationLink(sess), loginErr)
				return
			}

			// A reload of the callback URL after sign-in must not redeem the code again
			if query := r.URL.Query(); query.Has(constants.CodeParam) {
				if err := ctrl.HandleCallback(r.Context(), sess, query); err != nil {
					logger.Warn("Repeated authorization callback failed",
						zap.String("session", sess.ID),
						zap.Error(err),
					)
				}
				http.Redirect(w, r, stripCallbackParams(r.URL), http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, ctrl.CurrentIdentity(sess))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// stripCallbackParams returns the request path and query without the
// parameters the provider appended
func stripCallbackParams(u *url.URL) string {
	query := u.Query()
	for _, p := range constants.CallbackParams {
		query.Del(p)
	}
	clean := url.URL{Path: u.Path, RawQuery: query.Encode()}
	if clean.Path == "" {
		clean.Path = "/"
	}
	return clean.String()
}
