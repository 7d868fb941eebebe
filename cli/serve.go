package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/calheatmap/api"
	"github.com/warp/calheatmap/store/sqlite"
	"golang.org/x/sync/errgroup"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Port      int
	DB        string
	LogFormat string // "text" | "json"
	RateLimit float64
	Origins   []string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}
	defaults := api.DefaultRouterOptions()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API backed by a SQLite database.

--locale and --timezone set the engine used when a request names neither.

On SIGINT/SIGTERM the server stops accepting connections, waits up to 30s for
active requests, then closes the database.`,
		Example: `  calheatmap serve --db ./data/heatmap.db --port 3000
  CALHEATMAP_LOG_FORMAT=json calheatmap serve --db :memory:`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Port = rootOpts.v.GetInt("port")
			opts.DB = rootOpts.v.GetString("db")
			opts.LogFormat = rootOpts.v.GetString("log-format")
			opts.RateLimit = rootOpts.v.GetFloat64("rate-limit")
			opts.Origins = rootOpts.v.GetStringSlice("cors-origins")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, opts, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 8080, "HTTP server port")
	cmd.Flags().StringVar(&opts.DB, "db", "calheatmap.db", `SQLite database path (":memory:" for in-memory)`)
	cmd.Flags().StringVar(&opts.LogFormat, "log-format", "text", "log format (text|json)")
	cmd.Flags().Float64Var(&opts.RateLimit, "rate-limit", defaults.RateLimit, "requests per second per client (0 disables)")
	cmd.Flags().StringSliceVar(&opts.Origins, "cors-origins", defaults.AllowedOrigins, "allowed CORS origins")

	return cmd
}

// newLogger builds the structured logger for the server.
func newLogger(format string, verbose bool, w io.Writer) (*slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	default:
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid log format %q: must be text or json", format), nil)
	}
}

func runServe(ctx context.Context, rootOpts *RootOptions, opts *ServeOptions, logw io.Writer) error {
	logger, err := newLogger(opts.LogFormat, rootOpts.Verbose, logw)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("opening database", "path", opts.DB)
	store, err := sqlite.New(opts.DB)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to initialize database", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}()

	handler, err := api.NewHandler(store, rootOpts.EngineConfig(), logger)
	if err != nil {
		return err
	}

	routerOpts := api.DefaultRouterOptions()
	routerOpts.RateLimit = opts.RateLimit
	routerOpts.AllowedOrigins = opts.Origins

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      api.NewRouter(handler, routerOpts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting",
			"addr", server.Addr,
			"locale", rootOpts.Locale,
			"timezone", rootOpts.Timezone,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}
