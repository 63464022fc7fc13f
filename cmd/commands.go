package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/triplecrown/internal/config"
	"github.com/okian/triplecrown/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// cli carries state shared by the subcommands.
type cli struct {
	configPath string
	logLevel   string
	out        io.Writer
	cfg        *config.Config
}

func newRootCommand(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:   "triplecrown",
		Short: "Link race results across a series and rank the finishers",
		Long: `triplecrown reads the results of every race in a series, links runners
across races by a blocking key built from name, age group and gender, and
ranks the runners who finished all of them by combined gun time.`,
		PersistentPreRunE: c.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (default $"+config.EnvConfig+")")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	root.AddCommand(c.runCommand(), c.serveCommand())
	return root
}

// setup loads configuration and initializes logging before any command.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Context(), c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := logger.InitWithOptions(logger.Options{Format: cfg.LogFormat}); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	c.cfg = cfg
	return nil
}

func (c *cli) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once, write the result tables and print the leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logger.Get()
			svc, err := newService(c.cfg, log)
			if err != nil {
				return err
			}
			rep, err := runPipeline(ctx, c.cfg, svc, log)
			if err != nil {
				return err
			}
			if err := writeOutputs(ctx, c.cfg.Output, rep); err != nil {
				return err
			}
			printLeaderboard(c.out, rep, c.cfg.Output.Top)
			pushMetrics(ctx, c.cfg.Metrics, log)
			return nil
		},
	}
}

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline and serve the leaderboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logger.Get()
			svc, err := newService(c.cfg, log)
			if err != nil {
				return err
			}
			rep, err := runPipeline(ctx, c.cfg, svc, log)
			if err != nil {
				return err
			}
			if err := writeOutputs(ctx, c.cfg.Output, rep); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              c.cfg.Addr,
				Handler:           newMux(svc, c.cfg.MaxLeaderboardLimit),
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
				IdleTimeout:       idleTimeout,
				ReadHeaderTimeout: readHeaderTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info(ctx, "starting HTTP server", logger.String("addr", c.cfg.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info(ctx, "shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error(ctx, "server shutdown failed", logger.Error(err))
				return err
			}
			log.Info(ctx, "server stopped")
			return nil
		},
	}
}
