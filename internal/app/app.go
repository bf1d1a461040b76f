// Package app wires configuration into the running service graph.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/castward/castlink/internal/access"
	"github.com/castward/castlink/internal/cache"
	"github.com/castward/castlink/internal/config"
	"github.com/castward/castlink/internal/domain/repository"
	httpx "github.com/castward/castlink/internal/http"
	accessctrl "github.com/castward/castlink/internal/http/controllers/access"
	accountsctrl "github.com/castward/castlink/internal/http/controllers/accounts"
	adminctrl "github.com/castward/castlink/internal/http/controllers/admin"
	authflowctrl "github.com/castward/castlink/internal/http/controllers/authflow"
	healthctrl "github.com/castward/castlink/internal/http/controllers/health"
	sessionctrl "github.com/castward/castlink/internal/http/controllers/session"
	accountssvc "github.com/castward/castlink/internal/http/services/accounts"
	authflowsvc "github.com/castward/castlink/internal/http/services/authflow"
	"github.com/castward/castlink/internal/oauth"
	"github.com/castward/castlink/internal/risk"
	"github.com/castward/castlink/internal/security/secretbox"
	"github.com/castward/castlink/internal/session"
	"github.com/castward/castlink/internal/store/memory"
	"github.com/castward/castlink/internal/store/pg"
)

// Container holds the wired service graph.
type Container struct {
	Config   *config.Config
	Handler  http.Handler
	Accounts repository.AccountRepository
	Risk     repository.RiskRepository
	Cache    cache.Client

	pgStore *pg.Store
}

// Build constructs the full graph from config. Secrets may arrive encrypted
// with secretbox; plain values pass through untouched.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	// Storage
	switch cfg.Storage.Driver {
	case "postgres":
		store, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxConns:        int32(cfg.Storage.Postgres.MaxOpenConns),
			MinConns:        int32(cfg.Storage.Postgres.MaxIdleConns),
			ConnMaxLifetime: cfg.PGConnMaxLifetime(),
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		c.pgStore = store
		c.Accounts = store
		c.Risk = store
	case "memory", "":
		store := memory.New()
		c.Accounts = store
		c.Risk = store
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	// Cache
	cacheClient, err := cache.New(cache.Config{
		Driver: cfg.Cache.Kind,
		Addr:   cfg.Cache.Redis.Addr,
		DB:     cfg.Cache.Redis.DB,
		Prefix: cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	c.Cache = cacheClient

	// Sessions
	secret, err := secretbox.MaybeDecrypt(cfg.Session.Secret)
	if err != nil {
		return nil, fmt.Errorf("session secret: %w", err)
	}
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	sessions := session.NewManager([]byte(secret), cfg.Session.Issuer, cfg.SessionTTL())

	// Providers
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	// Services
	attempts := authflowsvc.NewAttemptStore(cacheClient)
	linkSvc := accountssvc.NewLinkService(accountssvc.LinkDeps{Accounts: c.Accounts})
	roleSvc := accountssvc.NewRoleService(accountssvc.RoleDeps{Accounts: c.Accounts})

	var dispatcher authflowsvc.RiskDispatcher
	if cfg.Risk.Enabled {
		tracker := risk.NewTracker(risk.NewHTTPReputationClient(cfg.Risk.BaseURL, cfg.Risk.APIKey), c.Risk)
		dispatcher = tracker
	} else {
		tracker := risk.NewTracker(nil, c.Risk)
		dispatcher = tracker
	}

	startSvc := authflowsvc.NewStartService(authflowsvc.StartDeps{
		Registry: registry,
		Attempts: attempts,
	})
	callbackSvc := authflowsvc.NewCallbackService(authflowsvc.CallbackDeps{
		Registry:  registry,
		Attempts:  attempts,
		Exchanger: oauth.NewExchanger(),
		Accounts:  c.Accounts,
		Linker:    linkSvc,
		Risk:      dispatcher,
	})

	// Access evaluation
	var featureSource access.FeatureSource
	if cfg.Access.BackendURL != "" {
		featureSource = access.NewBackendClient(cfg.Access.BackendURL, cfg.Access.APIKey)
	}
	evaluator := access.NewEvaluator(access.NewRepoRoleSource(c.Accounts), featureSource)

	// Controllers
	secure := cfg.Server.SecureCookies
	startCtrl := authflowctrl.NewStartController(startSvc, cfg.Server.BaseURL, secure)
	callbackCtrl := authflowctrl.NewCallbackController(callbackSvc, sessions, cfg.Server.BaseURL, cfg.Frontend.SuccessURL, cfg.Frontend.FailureURL, secure)
	linksCtrl := accountsctrl.NewLinksController(linkSvc, secure)
	sessCtrl := sessionctrl.NewController(c.Accounts, secure)
	accessCtrl := accessctrl.NewController(evaluator)
	adminCtrl := adminctrl.NewController(roleSvc)

	healthDeps := map[string]healthctrl.Pinger{"cache": cacheClient}
	if c.pgStore != nil {
		healthDeps["postgres"] = c.pgStore
	}
	healthCtrl := healthctrl.NewController(healthDeps)

	c.Handler = httpx.NewRouter(httpx.RouterDeps{
		Controllers: httpx.Controllers{
			Start:         startCtrl.Start,
			Callback:      callbackCtrl.Callback,
			Unlink:        linksCtrl.Unlink,
			Session:       sessCtrl.Get,
			Logout:        sessCtrl.Logout,
			Role:          accessCtrl.Role,
			Features:      accessCtrl.Features,
			StreamerPanel: accessCtrl.StreamerPanel,
			AdminPanel:    accessCtrl.AdminPanel,
			AdminSetRole:  adminCtrl.SetRole,
			Healthz:       healthCtrl.Healthz,
			Readyz:        healthCtrl.Readyz,
		},
		Sessions:    sessions,
		Evaluator:   evaluator,
		Registry:    prometheus.NewRegistry(),
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
	})

	return c, nil
}

func buildRegistry(cfg *config.Config) (*oauth.Registry, error) {
	var providers []*oauth.Provider

	if cfg.Providers.Chat.ClientID != "" {
		p := oauth.ChatProvider(cfg.Providers.Chat.AuthURL, cfg.Providers.Chat.TokenURL, cfg.Providers.Chat.ProfileURL)
		p.ClientID = cfg.Providers.Chat.ClientID
		secret, err := secretbox.MaybeDecrypt(cfg.Providers.Chat.ClientSecret)
		if err != nil {
			return nil, fmt.Errorf("chat client secret: %w", err)
		}
		p.ClientSecret = secret
		providers = append(providers, p)
	}
	if cfg.Providers.Twitter.ClientID != "" {
		p := oauth.TwitterProvider()
		p.ClientID = cfg.Providers.Twitter.ClientID
		secret, err := secretbox.MaybeDecrypt(cfg.Providers.Twitter.ClientSecret)
		if err != nil {
			return nil, fmt.Errorf("twitter client secret: %w", err)
		}
		p.ClientSecret = secret
		providers = append(providers, p)
	}
	if cfg.Providers.Discord.ClientID != "" {
		p := oauth.DiscordProvider()
		p.ClientID = cfg.Providers.Discord.ClientID
		secret, err := secretbox.MaybeDecrypt(cfg.Providers.Discord.ClientSecret)
		if err != nil {
			return nil, fmt.Errorf("discord client secret: %w", err)
		}
		p.ClientSecret = secret
		providers = append(providers, p)
	}

	return oauth.NewRegistry(providers...), nil
}

// Close releases held resources.
func (c *Container) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.pgStore != nil {
		c.pgStore.Close()
	}
}
