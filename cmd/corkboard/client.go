package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kalambet/corkboard/internal/client"
	"github.com/kalambet/corkboard/internal/config"
)

var newAPIClient = func() (*client.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	timeout, err := cfg.Client.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.Client.BaseURL, client.WithTimeout(timeout)), nil
}

// explain turns a transport failure into a hint that the backend is down.
func explain(err error) error {
	if err == nil {
		return nil
	}
	var se *client.StatusError
	if errors.As(err, &se) {
		return err
	}
	return fmt.Errorf("server not reachable, is corkboard serve running? (%w)", err)
}

// openLogFile returns a logger writing to <dataDir>/corkboard.log. The
// terminal UI owns stdout and stderr, so its logs go to a file.
func openLogFile(dataDir string, level slog.Level) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "corkboard.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}
