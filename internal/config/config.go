package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		BaseURL            string   `yaml:"base_url"` // URL pública para callbacks
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		SecureCookies      bool     `yaml:"secure_cookies"`
	} `yaml:"server"`

	Frontend struct {
		SuccessURL string `yaml:"success_url"`
		FailureURL string `yaml:"failure_url"`
	} `yaml:"frontend"`

	Storage struct {
		Driver   string `yaml:"driver"` // postgres | memory
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
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Session struct {
		Issuer string `yaml:"issuer"`
		Secret string `yaml:"secret"` // admite valor cifrado con secretbox
		TTL    string `yaml:"ttl"`
	} `yaml:"session"`

	Providers struct {
		Chat struct {
			AuthURL      string `yaml:"auth_url"`
			TokenURL     string `yaml:"token_url"`
			ProfileURL   string `yaml:"profile_url"`
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
		} `yaml:"chat"`
		Twitter struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
		} `yaml:"twitter"`
		Discord struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
		} `yaml:"discord"`
	} `yaml:"providers"`

	Access struct {
		BackendURL string `yaml:"backend_url"`
		APIKey     string `yaml:"api_key"`
	} `yaml:"access"`

	Risk struct {
		Enabled bool   `yaml:"enabled"`
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"risk"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c, nil
}

// Default retorna una config sin YAML, solo defaults + entorno.
func Default() *Config {
	var c Config
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	if c.Frontend.SuccessURL == "" {
		c.Frontend.SuccessURL = "/"
	}
	if c.Frontend.FailureURL == "" {
		c.Frontend.FailureURL = "/login/error"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Session.Issuer == "" {
		c.Session.Issuer = "castlink"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "24h"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// SessionTTL parsea el TTL de sesión (fallback 24h).
func (c *Config) SessionTTL() time.Duration {
	if d, err := time.ParseDuration(c.Session.TTL); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

// PGConnMaxLifetime parsea el lifetime de conexiones postgres.
func (c *Config) PGConnMaxLifetime() time.Duration {
	if d, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err == nil {
		return d
	}
	return 0
}

// ---- Helpers env ----

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
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_BASE_URL"); ok {
		c.Server.BaseURL = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvBool("SERVER_SECURE_COOKIES"); ok {
		c.Server.SecureCookies = v
	}

	if v, ok := getEnvStr("FRONTEND_SUCCESS_URL"); ok {
		c.Frontend.SuccessURL = v
	}
	if v, ok := getEnvStr("FRONTEND_FAILURE_URL"); ok {
		c.Frontend.FailureURL = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("STORAGE_PG_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvInt("STORAGE_PG_MAX_IDLE_CONNS"); ok {
		c.Storage.Postgres.MaxIdleConns = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("CACHE_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("CACHE_REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	if v, ok := getEnvStr("SESSION_SECRET"); ok {
		c.Session.Secret = v
	}
	if v, ok := getEnvStr("SESSION_TTL"); ok {
		c.Session.TTL = v
	}

	if v, ok := getEnvStr("PROVIDER_CHAT_AUTH_URL"); ok {
		c.Providers.Chat.AuthURL = v
	}
	if v, ok := getEnvStr("PROVIDER_CHAT_TOKEN_URL"); ok {
		c.Providers.Chat.TokenURL = v
	}
	if v, ok := getEnvStr("PROVIDER_CHAT_PROFILE_URL"); ok {
		c.Providers.Chat.ProfileURL = v
	}
	if v, ok := getEnvStr("PROVIDER_CHAT_CLIENT_ID"); ok {
		c.Providers.Chat.ClientID = v
	}
	if v, ok := getEnvStr("PROVIDER_CHAT_CLIENT_SECRET"); ok {
		c.Providers.Chat.ClientSecret = v
	}
	if v, ok := getEnvStr("PROVIDER_TWITTER_CLIENT_ID"); ok {
		c.Providers.Twitter.ClientID = v
	}
	if v, ok := getEnvStr("PROVIDER_TWITTER_CLIENT_SECRET"); ok {
		c.Providers.Twitter.ClientSecret = v
	}
	if v, ok := getEnvStr("PROVIDER_DISCORD_CLIENT_ID"); ok {
		c.Providers.Discord.ClientID = v
	}
	if v, ok := getEnvStr("PROVIDER_DISCORD_CLIENT_SECRET"); ok {
		c.Providers.Discord.ClientSecret = v
	}

	if v, ok := getEnvStr("ACCESS_BACKEND_URL"); ok {
		c.Access.BackendURL = v
	}
	if v, ok := getEnvStr("ACCESS_API_KEY"); ok {
		c.Access.APIKey = v
	}

	if v, ok := getEnvBool("RISK_ENABLED"); ok {
		c.Risk.Enabled = v
	}
	if v, ok := getEnvStr("RISK_BASE_URL"); ok {
		c.Risk.BaseURL = v
	}
	if v, ok := getEnvStr("RISK_API_KEY"); ok {
		c.Risk.APIKey = v
	}

	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
}
