package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"schoollicense.app/renewal/handlers"
	"schoollicense.app/renewal/internal/app"
	"schoollicense.app/renewal/internal/config"
	"schoollicense.app/renewal/internal/logger"
	"schoollicense.app/renewal/internal/reporter"
	"schoollicense.app/renewal/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "license-renewal",
	Short:         "School license renewal webhook",
	Long:          `Extends school licenses when a payment gateway confirms a payment or an operator triggers a renewal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := version.Load("VERSION"); err != nil {
			return err
		}
		return config.LoadDotEnv()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renewCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	flush, err := reporter.Init(cfg.SentryDSN, cfg.Env, version.Version)
	if err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	defer flush()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	api := handlers.NewHttpServer(cfg, a.Store, a.Service)
	server := api.HTTPServer(":" + cfg.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		api.PruneLimiter(gctx, cfg.ManualRateWindow)
		return nil
	})
	g.Go(func() error {
		logger.Info("License renewal API starting", map[string]interface{}{
			"version": version.Version,
			"port":    cfg.Port,
			"store":   cfg.StoreDriver,
			"env":     cfg.Env,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
