// Package config loads application configuration from CODEGUARDIAN_
// environment variables and an optional YAML file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "CODEGUARDIAN"

// Config holds the application configuration.
type Config struct {
	ListenAddr       string
	DBPath           string
	BackendURL       string
	BackendTimeout   time.Duration
	SecretKey        []byte // 32-byte AES-256 key; nil when not configured.
	SessionTTL       time.Duration
	GitHubClientID   string
	GitHubOAuthScope string
	GitHubToken      string
	GeminiAPIKey     string
	GeminiModel      string
	ReviewTimeout    time.Duration
	AllowedOrigins   []string
	PublicURL        string
	LogLevel         slog.Level
}

// HasSecretKey reports whether a session encryption key is configured.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) == 32
}

// HasReviewer reports whether a Gemini API key is configured.
func (c *Config) HasReviewer() bool {
	return c.GeminiAPIKey != ""
}

// OAuthRedirectURL returns the OAuth callback URL derived from PublicURL,
// or "" to use the OAuth app's registered callback.
func (c *Config) OAuthRedirectURL() string {
	if c.PublicURL == "" {
		return ""
	}
	return strings.TrimRight(c.PublicURL, "/") + "/auth/callback"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("db_path", "codeguardian.db")
	v.SetDefault("backend_url", "http://localhost:3000")
	v.SetDefault("backend_timeout", "15s")
	v.SetDefault("session_ttl", "720h")
	v.SetDefault("github_oauth_scope", "user:email")
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("review_timeout", "2m")
	v.SetDefault("log_level", "info")
}

// Load reads configuration from CODEGUARDIAN_ environment variables and,
// when CODEGUARDIAN_CONFIG names one, a YAML file. Environment variables
// take precedence over the file.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(EnvPrefix + "_CONFIG"))
}

// LoadFile is Load with an explicit config file path. An empty path reads
// the environment only.
//
// Optional variables with defaults: LISTEN_ADDR (127.0.0.1:8080), DB_PATH
// (codeguardian.db), BACKEND_URL (http://localhost:3000), BACKEND_TIMEOUT
// (15s), SESSION_TTL (720h), GITHUB_OAUTH_SCOPE (user:email), GEMINI_MODEL
// (gemini-2.5-flash), REVIEW_TIMEOUT (2m), LOG_LEVEL (info). SECRET_KEY must
// be 64 hex characters when set.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		ListenAddr:       v.GetString("listen_addr"),
		DBPath:           v.GetString("db_path"),
		BackendURL:       strings.TrimRight(v.GetString("backend_url"), "/"),
		GitHubClientID:   v.GetString("github_client_id"),
		GitHubOAuthScope: v.GetString("github_oauth_scope"),
		GitHubToken:      v.GetString("github_token"),
		GeminiAPIKey:     v.GetString("gemini_api_key"),
		GeminiModel:      v.GetString("gemini_model"),
		PublicURL:        v.GetString("public_url"),
		AllowedOrigins:   stringList(v.Get("allowed_origins")),
	}

	var errs []error
	cfg.BackendTimeout = positiveDuration(v, "backend_timeout", &errs)
	cfg.SessionTTL = positiveDuration(v, "session_ttl", &errs)
	cfg.ReviewTimeout = positiveDuration(v, "review_timeout", &errs)

	if cfg.ListenAddr == "" {
		errs = append(errs, errors.New(key("listen_addr")+" must not be empty"))
	}
	if u, err := url.Parse(cfg.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", key("backend_url"), cfg.BackendURL))
	}
	if cfg.PublicURL != "" {
		if u, err := url.Parse(cfg.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", key("public_url"), cfg.PublicURL))
		}
	}

	if raw := v.GetString("secret_key"); raw != "" {
		secret, err := hex.DecodeString(raw)
		if err != nil || len(secret) != 32 {
			errs = append(errs, fmt.Errorf("%s must be 64 hex characters (32 bytes)", key("secret_key")))
		} else {
			cfg.SecretKey = secret
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", key("log_level"), err))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func key(name string) string {
	return EnvPrefix + "_" + strings.ToUpper(name)
}

func positiveDuration(v *viper.Viper, name string, errs *[]error) time.Duration {
	raw := v.GetString(name)
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s has invalid duration %q: %w", key(name), raw, err))
		return 0
	}
	if d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s must be positive, got %s", key(name), d))
		return 0
	}
	return d
}

// stringList accepts a comma-separated string (environment) or a YAML list.
func stringList(raw any) []string {
	var parts []string
	switch t := raw.(type) {
	case nil:
	case string:
		parts = strings.Split(t, ",")
	case []any:
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
	case []string:
		parts = t
	}

	out := []string{}
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
