package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// app carries what every command needs once flags and environment are read.
type app struct {
	cfg    Config
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	var (
		a       app
		verbose bool
	)

	root := &cobra.Command{
		Use:          "hanzibox",
		Short:        "Hanzi blind box: a character-learning card game",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = newLogger(os.Stderr, parseLevel(cfg.LogLevel, verbose))
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd(&a))
	root.AddCommand(newGenerateCmd(&a))
	return root
}

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			return serve(cmd.Context(), a.cfg, a.logger)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, release, err := newBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("cannot initialise AI backend", "err", err)
		return err
	}
	defer release()

	themes, err := LoadThemeTable(cfg.ThemesFile)
	if err != nil {
		logger.Error("cannot load themes", "err", err)
		return err
	}

	store := NewStore()
	srv := NewServer(store, backend, ServerOptions{
		Themes:      themes,
		Slots:       cfg.GridSlots,
		RevealDelay: cfg.RevealDelay,
		Logger:      logger,
	})
	defer srv.Shutdown()

	go pruneSessions(ctx, srv, cfg.SessionIdleTTL, logger)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("server started", "url", "http://localhost:"+cfg.Port)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "err", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

// pruneSessions drops idle sessions every minute until ctx is done.
func pruneSessions(ctx context.Context, srv *Server, ttl time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := srv.PruneIdle(ttl); n > 0 {
				logger.Debug("pruned idle sessions", "count", n)
			}
		}
	}
}
