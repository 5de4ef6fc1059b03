package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lepinkainen/abacus/internal/config"
	"github.com/lepinkainen/abacus/internal/watcher"
)

// WatchCmd watches the store for table file changes
type WatchCmd struct{}

func (w *WatchCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fw := watcher.New(config.StorageDir, config.TableExtension)

	done := make(chan error, 1)
	go func() { done <- fw.Run(ctx) }()

	for event := range fw.Events() {
		slog.Info("Table changed", "type", event.Type.String(), "path", event.Path)
	}

	return <-done
}
