// Command rjq-worker runs a queue worker that executes each job's args as
// a local command and stores its combined output as the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

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
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	store, err := redisstore.New(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer store.Close()

	queue := rjq.New(store, cfg.Queue.Name, rjq.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Worker started",
		slog.String("queue", cfg.Queue.Name),
		slog.Duration("timeout", cfg.Worker.Timeout),
		slog.Bool("fall", cfg.Worker.Fall),
	)

	err = queue.Work(ctx, rjq.WorkOptions{
		Wait:     cfg.Worker.Wait,
		Timeout:  cfg.Worker.Timeout,
		Freq:     cfg.Worker.Freq,
		Expire:   cfg.Worker.Expire,
		Fall:     cfg.Worker.Fall,
		Infinite: cfg.Worker.Infinite,
	}, runCommand)
	if errors.Is(err, rjq.ErrJobLost) {
		// Exit non-zero so a process supervisor restarts a clean worker.
		return fmt.Errorf("worker stopping: %w", err)
	}
	if err != nil {
		return fmt.Errorf("worker loop: %w", err)
	}

	logger.Info("Worker stopped")
	return nil
}

// runCommand executes the job's args as a command line and returns its
// trimmed combined output.
func runCommand(ctx context.Context, id string, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("job %s: no command given", id)
	}

	out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("run %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}
