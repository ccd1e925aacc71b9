// Package config loads the YAML configuration file and applies environment
// overrides on top of it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// BaseURL is the externally visible root of the site, e.g.
		// "https://lana.example.net". Sign-in redirect URLs are built from it.
		BaseURL string `yaml:"base_url"`
		// InstallPath is the path prefix the site is served under ("" = root).
		// Cookies are scoped to it.
		InstallPath        string   `yaml:"install_path"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		SameSite   string `yaml:"samesite"`
		Secure     bool   `yaml:"secure"`
		TTL        string `yaml:"ttl"`
	} `yaml:"session"`

	Remember struct {
		CookieName string `yaml:"cookie_name"`
		TTL        string `yaml:"ttl"`
	} `yaml:"remember"`

	// Sites holds the external sign-in site credentials. A site with no
	// client ID configured (Steam excepted, it needs none) is not offered.
	Sites struct {
		Twitch struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
		} `yaml:"twitch"`
		Google struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
		} `yaml:"google"`
		Steam struct {
			Enabled bool `yaml:"enabled"`
		} `yaml:"steam"`
	} `yaml:"sites"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "lanasession"
	}
	if c.Session.SameSite == "" {
		c.Session.SameSite = "Lax"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "24h"
	}
	if c.Remember.CookieName == "" {
		c.Remember.CookieName = "player"
	}
	if c.Remember.TTL == "" {
		c.Remember.TTL = "720h" // 30d
	}

	c.applyEnvOverrides()

	// validate string durations
	for _, d := range []string{
		c.Cache.Memory.DefaultTTL,
		c.Session.TTL,
		c.Remember.TTL,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return nil, err
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return nil, err
		}
	}

	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	c.Server.InstallPath = strings.TrimRight(c.Server.InstallPath, "/")

	return &c, nil
}

// SessionTTL returns the parsed session TTL. Load validated the string.
func (c *Config) SessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.Session.TTL)
	return d
}

// RememberTTL returns the parsed remember-me cookie TTL.
func (c *Config) RememberTTL() time.Duration {
	d, _ := time.ParseDuration(c.Remember.TTL)
	return d
}

// Validate checks that the parts needed to serve are present.
func (c *Config) Validate() error {
	if c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn is required")
	}
	if c.Cache.Kind == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("config: cache.redis.addr is required when cache.kind=redis")
	}
	return nil
}

// applyEnvOverrides replaces YAML values with LANA_* environment variables.
// In prod the session cookie is always Secure.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("LANA_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("LANA_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LANA_BASE_URL"); ok {
		c.Server.BaseURL = v
	}
	if v, ok := getEnvStr("LANA_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("LANA_CACHE"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("LANA_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("LANA_REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("LANA_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("LANA_TWITCH_CLIENT_ID"); ok {
		c.Sites.Twitch.ClientID = v
	}
	if v, ok := getEnvStr("LANA_TWITCH_CLIENT_SECRET"); ok {
		c.Sites.Twitch.ClientSecret = v
	}
	if v, ok := getEnvStr("LANA_GOOGLE_CLIENT_ID"); ok {
		c.Sites.Google.ClientID = v
	}
	if v, ok := getEnvStr("LANA_GOOGLE_CLIENT_SECRET"); ok {
		c.Sites.Google.ClientSecret = v
	}
	if v, ok := getEnvBool("LANA_STEAM_ENABLED"); ok {
		c.Sites.Steam.Enabled = v
	}

	if strings.EqualFold(c.App.Env, "prod") {
		c.Session.Secure = true
	}
}

// ---- env helpers ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
