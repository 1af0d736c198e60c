package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/taskbotics/b24bot/config"
	"github.com/taskbotics/b24bot/pkg/b24"
	"github.com/taskbotics/b24bot/pkg/buildinfo"
	"github.com/taskbotics/b24bot/pkg/funcs"
	"github.com/taskbotics/b24bot/pkg/logging"
	"github.com/taskbotics/b24bot/pkg/server"
	"github.com/taskbotics/b24bot/pkg/sheet"
)

// Serve command flags
var (
	serveListenAddr string
)

// shutdownTimeout bounds the drain of in-flight requests on SIGTERM.
const shutdownTimeout = 10 * time.Second

// ServeCommandDeps holds the dependencies for the serve command.
type ServeCommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)

	// Mock function overrides for testing
	RunFn func(ctx context.Context, cfg *config.CLIConfig) error
}

// DefaultServeDeps returns the default dependencies for production use.
func DefaultServeDeps() *ServeCommandDeps {
	return &ServeCommandDeps{
		LoadConfig: config.LoadConfig,
	}
}

// NewServeCommand creates the serve command.
func NewServeCommand(deps *ServeCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultServeDeps()
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bot operations over HTTP",
		Long: `Run the HTTP function surface a bot platform calls into.

Exposes POST /v1/functions/{create_task,update_task,delete_task,show_tasks,
create_project}, each taking the flat JSON argument map and answering
HTTP 200 with the in-band result object regardless of outcome. Also serves
/healthz, /version and Prometheus /metrics.

Webhook lookups go to the published sheet; configure redis.addr to cache
them between invocations. Logs are JSON in this mode.`,
		Example: `  # Listen on the configured address (default localhost:8484)
  b24bot serve

  # Explicit bind address
  b24bot serve --listen 0.0.0.0:8080

  # Invoke a function
  curl -s localhost:8484/v1/functions/show_tasks \
      -d '{"nameUser":"Анна","deadline":"завтра"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, deps)
		},
	}

	cmd.Flags().StringVar(&serveListenAddr, "listen", "", "Bind address (overrides listen_addr from config)")

	return cmd
}

func runServe(cmd *cobra.Command, deps *ServeCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	deps.Config = cfg
	if serveListenAddr != "" {
		cfg.ListenAddr = serveListenAddr
	}

	if deps.RunFn != nil {
		return deps.RunFn(cmd.Context(), cfg)
	}

	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	log := logging.NewLogger(&logging.Config{
		Level:       level,
		ServiceName: "b24bot",
		Environment: "production",
		JSONFormat:  true,
	})

	var cache sheet.Cache
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		defer client.Close()
		cache = sheet.NewRedisCache(client, cfg.Redis.TTL, log)
		log.Info("webhook cache enabled", logging.F("addr", cfg.Redis.Addr), logging.F("ttl", cfg.Redis.TTL))
	}

	dir, err := newDirectory(cfg, log, cache)
	if err != nil {
		return err
	}

	clientOpts := b24.DefaultOptions()
	clientOpts.Timeout = cfg.Timeout

	svc := funcs.New(funcs.Deps{
		Directory: dir,
		NewBackend: func(webhook string) funcs.Backend {
			return b24.NewClient(webhook, clientOpts)
		},
		Log:                  log,
		DefaultResponsibleID: cfg.DefaultResponsibleID,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(svc, log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("listening",
			logging.F("addr", cfg.ListenAddr),
			logging.F("version", buildinfo.String()),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
