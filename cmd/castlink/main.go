package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/castward/castlink/internal/app"
	"github.com/castward/castlink/internal/config"
	httpx "github.com/castward/castlink/internal/http"
	"github.com/castward/castlink/internal/observability/logger"
)

func main() {
	_ = godotenv.Load(".env")

	var configPath string

	root := &cobra.Command{
		Use:          "castlink",
		Short:        "Identity linking and access control service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to YAML config")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate [dir]",
		Short: "Apply SQL migrations in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "migrations/postgres"
			if len(args) > 0 {
				dir = args[0]
			}
			return runMigrate(configPath, dir)
		},
	}

	root.AddCommand(serve, migrate)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config.Default()
		}
		fmt.Fprintf(os.Stderr, "config load: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func runServe(configPath string) error {
	cfg := loadConfig(configPath)

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	defer func() { _ = logger.Sync() }()
	log := logger.L().With(logger.Component("main"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg)
	if err != nil {
		log.Error("bootstrap failed", logger.Err(err))
		return err
	}
	defer container.Close()

	srv := httpx.NewServer(cfg.Server.Addr, container.Handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", cfg.Server.Addr))
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logger.Err(err))
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown incomplete", logger.Err(err))
		}
	}
	return nil
}

func runMigrate(configPath, dir string) error {
	cfg := loadConfig(configPath)
	if cfg.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for migrations")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("pgxpool: %w", err)
	}
	defer pool.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		fmt.Println("no migrations found, nothing to do")
		return nil
	}
	sort.Strings(files)

	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		fmt.Printf("applied %s\n", f)
	}
	return nil
}
