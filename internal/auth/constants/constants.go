package constants

const (
	// TokenType for Bearer authentication
	TokenType = "Bearer"

	// AuthHeaderName is the name of the Authorization header
	AuthHeaderName = "Authorization"

	// AuthHeaderPrefix is the prefix for the Authorization header value
	AuthHeaderPrefix = "Bearer "
)

// Query parameters the provider appends to the redirect URI
const (
	CodeParam             = "code"
	StateParam            = "state"
	ErrorParam            = "error"
	ErrorDescriptionParam = "error_description"
	ScopeParam            = "scope"
	AuthUserParam         = "authuser"
	PromptParam           = "prompt"
)

// CallbackParams lists every parameter cleared from the visible URL after a callback
var CallbackParams = []string{
	CodeParam,
	StateParam,
	ScopeParam,
	AuthUserParam,
	PromptParam,
	ErrorParam,
	ErrorDescriptionParam,
	"hd",
}

// OAuth scopes
var DefaultScopes = []string{"openid", "email", "profile"}

// Token response fields outside of oauth2.Token
const (
	IDTokenField = "id_token"
	ScopeField   = "scope"
)

// Exchange result labels for metrics
const (
	ResultOK                 = "ok"
	ResultStateMismatch      = "state_mismatch"
	ResultExchangeError      = "exchange_error"
	ResultMissingToken       = "missing_token"
	ResultIdentityError      = "identity_error"
	ResultIdentityIncomplete = "identity_incomplete"
	ResultSkipped            = "skipped"
)
