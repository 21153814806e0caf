// Package config loads configuration for the rjq binaries.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete binary configuration.
type Config struct {
	Redis   RedisConfig   `yaml:"redis"`
	Queue   QueueConfig   `yaml:"queue"`
	Worker  WorkerConfig  `yaml:"worker"`
	Logging LoggingConfig `yaml:"logging"`
}

// RedisConfig locates the backing store.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// QueueConfig names the queue and sets the producer-side expiry.
type QueueConfig struct {
	Name   string        `yaml:"name"`
	Expire time.Duration `yaml:"expire"`
}

// WorkerConfig tunes the worker supervision loop.
type WorkerConfig struct {
	Wait     time.Duration `yaml:"wait"`
	Timeout  time.Duration `yaml:"timeout"`
	Freq     int           `yaml:"freq"`
	Expire   time.Duration `yaml:"expire"`
	Fall     bool          `yaml:"fall"`
	Infinite bool          `yaml:"infinite"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Redis: RedisConfig{URL: "redis://localhost:6379/0"},
		Queue: QueueConfig{Name: "rjq", Expire: 30 * time.Second},
		Worker: WorkerConfig{
			Wait:     time.Second,
			Timeout:  30 * time.Second,
			Freq:     10,
			Expire:   30 * time.Second,
			Infinite: true,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads the yaml file at path, layered over Default and under any
// RJQ_* environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from RJQ_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("RJQ_REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("RJQ_QUEUE_NAME"); v != "" {
		c.Queue.Name = v
	}
	if v := os.Getenv("RJQ_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("RJQ_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("RJQ_WORKER_FALL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Worker.Fall = b
		}
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required")
	}
	if c.Queue.Name == "" {
		return fmt.Errorf("queue.name is required")
	}
	if c.Queue.Expire <= 0 {
		return fmt.Errorf("queue.expire must be positive, got %s", c.Queue.Expire)
	}
	if c.Worker.Wait <= 0 {
		return fmt.Errorf("worker.wait must be positive, got %s", c.Worker.Wait)
	}
	if c.Worker.Timeout <= 0 {
		return fmt.Errorf("worker.timeout must be positive, got %s", c.Worker.Timeout)
	}
	if c.Worker.Freq <= 0 {
		return fmt.Errorf("worker.freq must be positive, got %d", c.Worker.Freq)
	}
	if c.Worker.Expire <= 0 {
		return fmt.Errorf("worker.expire must be positive, got %s", c.Worker.Expire)
	}
	return nil
}
