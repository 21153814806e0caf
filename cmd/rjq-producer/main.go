// Command rjq-producer enqueues jobs and then polls their status and
// result. Positional arguments become the job args of every enqueued job.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/rjq-io/rjq"
	"github.com/rjq-io/rjq/internal/config"
	"github.com/rjq-io/rjq/internal/logging"
	redisstore "github.com/rjq-io/rjq/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	configPath := flag.String("config", os.Getenv("RJQ_CONFIG_PATH"), "Path to configuration file")
	count := flag.Int("n", 10, "Number of jobs to enqueue")
	settle := flag.Duration("settle", 10*time.Second, "How long to wait before polling results")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	queue, err := redisstore.Open(cfg.Redis.URL, cfg.Queue.Name)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}

	ctx := context.Background()
	args := flag.Args()

	uuids := make([]string, 0, *count)
	for i := 0; i < *count; i++ {
		id, err := queue.Enqueue(ctx, args, cfg.Queue.Expire)
		if err != nil {
			return fmt.Errorf("enqueue: %w", err)
		}
		logger.Info("Job enqueued", slog.String("uuid", id))
		uuids = append(uuids, id)
		time.Sleep(100 * time.Millisecond)
	}

	logger.Info("Waiting for workers", slog.Duration("settle", *settle))
	time.Sleep(*settle)

	for _, id := range uuids {
		status, err := queue.Status(ctx, id)
		if errors.Is(err, rjq.ErrNotFound) {
			// Expired or never picked up; display as a failure.
			status = rjq.StatusFailed
		} else if err != nil {
			return fmt.Errorf("status %s: %w", id, err)
		}

		result, err := queue.Result(ctx, id)
		if err != nil && !errors.Is(err, rjq.ErrNotFound) {
			return fmt.Errorf("result %s: %w", id, err)
		}

		logger.Info("Job state",
			slog.String("uuid", id),
			slog.String("status", string(status)),
			slog.String("result", result),
		)
	}
	return nil
}
