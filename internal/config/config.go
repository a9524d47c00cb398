package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("auto-eda version %s, commit %s, built at %s", version, commit, date)
}

// Google OpenID Connect endpoints used when the config leaves them empty.
const (
	GoogleIssuer      = "https://accounts.google.com"
	GoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenURL    = "https://oauth2.googleapis.com/token"
	GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	GoogleJWKSURL     = "https://www.googleapis.com/oauth2/v3/certs"
)

// DefaultOAuthTimeout bounds every call to the provider
const DefaultOAuthTimeout = 15 * time.Second

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	App      AppConfig      `mapstructure:"app"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Session  SessionConfig  `mapstructure:"session"`
	Profiler ProfilerConfig `mapstructure:"profiler"`
}

// Environment selects which redirect URI is registered with the provider
type Environment string

const (
	EnvironmentLocal  Environment = "local"
	EnvironmentPublic Environment = "public"
)

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type AppConfig struct {
	Environment Environment `mapstructure:"environment"`
	LocalURL    string      `mapstructure:"local_url"`
	PublicURL   string      `mapstructure:"public_url"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

type OAuthConfig struct {
	ClientID      string        `mapstructure:"client_id"`
	ClientSecret  string        `mapstructure:"client_secret"`
	RedirectURL   string        `mapstructure:"redirect_url"` // must match the URI registered with Google byte for byte
	Scopes        string        `mapstructure:"scopes"`       // space-delimited
	Timeout       time.Duration `mapstructure:"timeout"`
	VerifyIDToken bool          `mapstructure:"verify_id_token"`
	Issuer        string        `mapstructure:"issuer"`
	AuthURL       string        `mapstructure:"auth_url"`
	TokenURL      string        `mapstructure:"token_url"`
	UserInfoURL   string        `mapstructure:"userinfo_url"`
	JWKSURL       string        `mapstructure:"jwks_url"`
}

type SessionConfig struct {
	CookieName    string        `mapstructure:"cookie_name"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type ProfilerConfig struct {
	MaxUploadBytes int64             `mapstructure:"max_upload_bytes"`
	PreviewRows    int               `mapstructure:"preview_rows"`
	FetchTimeout   time.Duration     `mapstructure:"fetch_timeout"`
	Samples        map[string]string `mapstructure:"samples"`
}

// ScopeList splits the configured scopes on whitespace
func (c OAuthConfig) ScopeList() []string {
	return strings.Fields(c.Scopes)
}

// RedirectURI resolves the callback URL handed to the provider. An explicit
// oauth.redirect_url wins over the environment selection.
func (c *Config) RedirectURI() string {
	if c.OAuth.RedirectURL != "" {
		return c.OAuth.RedirectURL
	}
	if c.App.Environment == EnvironmentPublic {
		return c.App.PublicURL
	}
	return c.App.LocalURL
}

// ListenAddr returns host:port for the HTTP server
func (c ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8501)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("app.environment", string(EnvironmentLocal))
	v.SetDefault("app.local_url", "http://localhost:8501")
	v.SetDefault("app.public_url", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)

	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("oauth.redirect_url", "")
	v.SetDefault("oauth.scopes", "openid email profile")
	v.SetDefault("oauth.timeout", DefaultOAuthTimeout)
	v.SetDefault("oauth.verify_id_token", true)
	v.SetDefault("oauth.issuer", GoogleIssuer)
	v.SetDefault("oauth.auth_url", GoogleAuthURL)
	v.SetDefault("oauth.token_url", GoogleTokenURL)
	v.SetDefault("oauth.userinfo_url", GoogleUserInfoURL)
	v.SetDefault("oauth.jwks_url", GoogleJWKSURL)

	v.SetDefault("session.cookie_name", "eda_session")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.idle_timeout", 24*time.Hour)
	v.SetDefault("session.sweep_interval", 10*time.Minute)

	v.SetDefault("profiler.max_upload_bytes", int64(32<<20))
	v.SetDefault("profiler.preview_rows", 50)
	v.SetDefault("profiler.fetch_timeout", 30*time.Second)
	v.SetDefault("profiler.samples", map[string]string{
		"titanic":  "https://raw.githubusercontent.com/mwaskom/seaborn-data/master/titanic.csv",
		"iris":     "https://raw.githubusercontent.com/mwaskom/seaborn-data/master/iris.csv",
		"diabetes": "https://www4.stat.ncsu.edu/~boos/var.select/diabetes.tab.txt",
	})
}

// InitFlags initializes command line flags (without parsing)
func InitFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to the config file")
	fs.String("env-file", ".env", "Path to a dotenv file with secrets")
	fs.Int("server.port", 8501, "HTTP listen port")
	fs.String("app.environment", string(EnvironmentLocal), "Redirect URI selection (local|public)")
	fs.String("logging.level", "info", "Log level")
}

func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}

	// Secrets may live in a dotenv file next to the binary
	envFile := v.GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v.SetEnvPrefix("AUTO_EDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/auto-eda")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	//Loading additionals config files
	if _, err := os.Stat("/config/config.yaml"); err == nil {
		v.SetConfigFile("/config/config.yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings the OAuth flow cannot run without
func (c *Config) Validate() error {
	if c.OAuth.ClientID == "" {
		return fmt.Errorf("oauth.client_id is required, please adjust the config or set AUTO_EDA_OAUTH_CLIENT_ID")
	}
	if c.OAuth.ClientSecret == "" {
		return fmt.Errorf("oauth.client_secret is required, please adjust the config or set AUTO_EDA_OAUTH_CLIENT_SECRET")
	}

	switch c.App.Environment {
	case EnvironmentLocal:
	case EnvironmentPublic:
		if c.App.PublicURL == "" && c.OAuth.RedirectURL == "" {
			return fmt.Errorf("app.public_url is required when app.environment is %q", EnvironmentPublic)
		}
	default:
		return fmt.Errorf("unsupported app.environment: %s", c.App.Environment)
	}

	if c.RedirectURI() == "" {
		return fmt.Errorf("redirect URI is empty, set app.local_url or oauth.redirect_url")
	}
	if c.OAuth.Timeout <= 0 {
		return fmt.Errorf("oauth.timeout must be positive")
	}
	return nil
}
