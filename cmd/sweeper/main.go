// Command sweeper archives rejected notes whose retention window has passed.
// It runs once and exits, so an external scheduler (cron, Kubernetes CronJob)
// decides when it runs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notesphere/notesphere/internal/app/repositories"
	"github.com/notesphere/notesphere/internal/bootstrap"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	database, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		return 1
	}
	defer database.Close()

	redisClient, err := bootstrap.SetupRedis(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to redis")
		return 1
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	repos := repositories.NewRepositories(database)
	storage, err := bootstrap.SetupStorage(ctx, cfg, repos.UserAuthRepository, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return 1
	}

	sweeper := bootstrap.NewSweeper(cfg, repos, storage, redisClient)
	result, err := sweeper.Sweep(ctx, time.Now().UTC())
	if err != nil {
		lgr.Error().Err(err).Msg("Sweep failed")
		return 1
	}

	lgr.Info().
		Int("processed", result.ProcessedCount).
		Strs("errors", result.Errors).
		Strs("warnings", result.Warnings).
		Msg("Sweep finished")
	if len(result.Errors) > 0 {
		return 2
	}
	return 0
}
