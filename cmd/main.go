package main

import (
	"bufio"
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tasksync/internal/config"
	"tasksync/internal/connectivity"
	"tasksync/internal/controller"
	"tasksync/internal/notify"
	"tasksync/internal/remote"
	"tasksync/internal/routes"
	"tasksync/internal/store"
	"tasksync/internal/syncer"
	"tasksync/pkg/logger"
)

func main() {
	loadEnvFile(".env")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.Get()

	scheduler := notify.NewScheduler(
		time.Duration(cfg.ReminderLeadMin)*time.Minute, notify.LogSink{})

	st, err := store.Open(ctx, cfg.StorePath,
		store.WithScheduler(scheduler),
		store.WithLogCap(cfg.ActionLogCap),
		store.WithCooldown(time.Duration(cfg.SyncCooldownSec)*time.Second),
	)
	if err != nil {
		logger.Error(ctx, "Store open failed; exiting", "error", err)
		os.Exit(1)
	}

	// Scheduled reminders do not survive a restart; rebuild from the tasks.
	scheduler.RescheduleAll(ctx, st.SortedTasks())

	client := remote.New(cfg)
	runner := syncer.NewRunner(st, syncer.New(client, cfg.MaxRetries))

	// Reachability watcher: first sync at start if there is a backlog, then
	// one sync per offline -> online edge.
	monitor := connectivity.New(
		client.Probe,
		st.PendingCount,
		func(ctx context.Context) { runner.Trigger(ctx) },
		time.Duration(cfg.PollIntervalSec)*time.Second,
	)
	go monitor.Run(ctx)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      routes.Router(controller.New(st, runner, client.Probe)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown error", "error", err)
	}
	logger.Info(context.Background(), "Stopped")
}

// loadEnvFile reads a .env file and sets env vars (only if not already set).
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`) {
			val = strings.Trim(val, `"`)
		} else if strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
			val = strings.Trim(val, "'")
		}
		if key != "" && os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
}
