package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"repocrawler/internal/api"
	"repocrawler/internal/config"
	"repocrawler/internal/crawler"
	"repocrawler/pkg/hostapi/githubhost"
	"repocrawler/pkg/logger"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// setupServer configures and starts the admin HTTP server asynchronously and
// returns a function that gracefully shuts it down using the provided context.
func setupServer(ctx context.Context, cfg *config.Config, deps api.Deps) func(ctx context.Context) {
	server, err := api.NewServer(deps, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...")
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

// crawlCommand constructs the 'crawl' subcommand that runs the crawl engine
// and its admin server until the target is reached, the frontier is
// exhausted, or the process is interrupted.
func crawlCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs the crawl engine and admin server",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			client := githubhost.New(&http.Client{Timeout: cfg.Crawler.RequestTimeout}, cfg.GitHubAPIToken)

			opts := crawler.Options{
				TotalRepositories: cfg.Crawler.TotalRepositories,
				SeedQueries:       cfg.Crawler.SeedQueries,
				NumberWorkers:     cfg.Crawler.NumberWorkers,
				PageSize:          cfg.Crawler.MaxRepositoryFetchedPerRequest,
				QueueCapacity:     cfg.Crawler.QueueCapacity,
				WorkerStagger:     cfg.Crawler.WorkerStaggerInterval,
				ProgressInterval:  cfg.Crawler.ProgressReportInterval,
				RequestTimeout:    cfg.Crawler.RequestTimeout,
			}

			var supervisor *crawler.Supervisor
			if cfg.Crawler.DurableQueue {
				queue, err := crawler.NewRiverQueue(ctx, strg.Pool, cfg.Crawler.NumberWorkers)
				if err != nil {
					logger.Fatal(ctx, "could not start durable queue", zap.Error(err))
				}
				defer queue.Close()

				supervisor = crawler.NewSupervisorWithQueue(opts, client, strg, queue)
			} else {
				supervisor = crawler.NewSupervisor(opts, client, strg)
			}

			stopWebserver := setupServer(ctx, cfg, api.Deps{Supervisor: supervisor})

			runErr := make(chan error, 1)
			go func() {
				runErr <- supervisor.Run(ctx)
			}()

			var fatalErr error

			select {
			case err := <-runErr:
				if err != nil {
					fatalErr = err
				} else {
					logger.Info(ctx, "crawl finished")
				}
			case <-ctx.Done():
				logger.Info(ctx, "interrupted, waiting for crawl to wind down...")
				fatalErr = <-runErr
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)

			if fatalErr != nil {
				logger.Fatal(ctx, "crawl ended with an error", zap.Error(fatalErr))
			}
		},
	}

	return cmd
}
