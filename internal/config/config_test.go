package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
oauth:
  client_id: id.apps.googleusercontent.com
  client_secret: shh
  timeout: 5s
app:
  local_url: http://localhost:9000
`)

	cfg, err := Load(newFlags(t, "--config", path, "--env-file", ""))
	require.NoError(t, err)

	assert.Equal(t, "id.apps.googleusercontent.com", cfg.OAuth.ClientID)
	assert.Equal(t, "shh", cfg.OAuth.ClientSecret)
	assert.Equal(t, 5*time.Second, cfg.OAuth.Timeout)
	assert.Equal(t, "http://localhost:9000", cfg.RedirectURI())
	assert.Equal(t, []string{"openid", "email", "profile"}, cfg.OAuth.ScopeList())
	assert.Equal(t, GoogleTokenURL, cfg.OAuth.TokenURL)
	assert.Equal(t, 8501, cfg.Server.Port)
	assert.Contains(t, cfg.Profiler.Samples, "titanic")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "oauth:\n  client_id: from-file\n")
	t.Setenv("AUTO_EDA_OAUTH_CLIENT_ID", "from-env")
	t.Setenv("AUTO_EDA_OAUTH_CLIENT_SECRET", "secret-env")

	cfg, err := Load(newFlags(t, "--config", path, "--env-file", ""))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.OAuth.ClientID)
	assert.Equal(t, "secret-env", cfg.OAuth.ClientSecret)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9100\n")
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("AUTO_EDA_OAUTH_CLIENT_ID=dot-id\nAUTO_EDA_OAUTH_CLIENT_SECRET=dot-secret\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("AUTO_EDA_OAUTH_CLIENT_ID")
		_ = os.Unsetenv("AUTO_EDA_OAUTH_CLIENT_SECRET")
	})

	cfg, err := Load(newFlags(t, "--config", path, "--env-file", envFile))
	require.NoError(t, err)
	assert.Equal(t, "dot-id", cfg.OAuth.ClientID)
	assert.Equal(t, "dot-secret", cfg.OAuth.ClientSecret)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_MissingClientID(t *testing.T) {
	path := writeConfig(t, "oauth:\n  client_secret: shh\n")

	_, err := Load(newFlags(t, "--config", path, "--env-file", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oauth.client_id is required")
}

func TestRedirectURI(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "local environment uses local url",
			cfg:  Config{App: AppConfig{Environment: EnvironmentLocal, LocalURL: "http://localhost:8501", PublicURL: "https://eda.example.com"}},
			want: "http://localhost:8501",
		},
		{
			name: "public environment uses public url",
			cfg:  Config{App: AppConfig{Environment: EnvironmentPublic, LocalURL: "http://localhost:8501", PublicURL: "https://eda.example.com"}},
			want: "https://eda.example.com",
		},
		{
			name: "explicit redirect url wins",
			cfg: Config{
				App:   AppConfig{Environment: EnvironmentPublic, PublicURL: "https://eda.example.com"},
				OAuth: OAuthConfig{RedirectURL: "https://eda.example.com/"},
			},
			want: "https://eda.example.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.RedirectURI())
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			App:   AppConfig{Environment: EnvironmentLocal, LocalURL: "http://localhost:8501"},
			OAuth: OAuthConfig{ClientID: "id", ClientSecret: "secret", Timeout: time.Second},
		}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.App.Environment = EnvironmentPublic
	assert.ErrorContains(t, cfg.Validate(), "app.public_url is required")

	cfg = base()
	cfg.App.Environment = "staging"
	assert.ErrorContains(t, cfg.Validate(), "unsupported app.environment")

	cfg = base()
	cfg.OAuth.Timeout = 0
	assert.ErrorContains(t, cfg.Validate(), "oauth.timeout must be positive")
}
