package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/haojie06/visualgen-http/internal/backend"
	"github.com/haojie06/visualgen-http/internal/config"
	"github.com/haojie06/visualgen-http/internal/logger"
	"github.com/haojie06/visualgen-http/internal/notify"
	"github.com/haojie06/visualgen-http/internal/server"
	"github.com/haojie06/visualgen-http/internal/server/handler"
	"github.com/haojie06/visualgen-http/internal/socket"
	"github.com/haojie06/visualgen-http/internal/store"
	"github.com/haojie06/visualgen-http/internal/tracker"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic(err)
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Development); err != nil {
		panic(err)
	}
	err = run(cfg)
	if err != nil {
		logger.Errorf("service stopped: %s", err)
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	st, err := store.Open(cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	backendClient := backend.NewClient(cfg.Backend.BaseURL, st, cfg.Backend.Timeout,
		backend.WithUnauthorizedHook(func() {
			if err := st.ClearCredentials(); err != nil {
				logger.Warnf("failed to clear credentials: %s", err)
			}
		}))

	var opts []tracker.Option
	if cfg.Discord.BotToken != "" {
		ds, err := notify.NewDiscordSession(cfg.Discord.BotToken)
		if err != nil {
			return fmt.Errorf("failed to create discord session: %w", err)
		}
		opts = append(opts, tracker.WithNotifier(notify.NewDiscordNotifier(ds, cfg.Discord.ChannelId)))
	}

	socketConfig := socket.Config{
		URL:               cfg.Socket.URL,
		Namespace:         cfg.Socket.Namespace,
		ReconnectAttempts: cfg.Socket.ReconnectAttempts,
		ReconnectDelay:    cfg.Socket.ReconnectDelay,
		AwaitConnectFrame: cfg.Socket.AwaitConnectFrame,
	}
	session := tracker.New(backendClient, func(callbacks socket.Callbacks) tracker.Watcher {
		return socket.NewManager(socketConfig, callbacks, socket.WithTokenSource(st))
	}, tracker.Config{
		PollInterval:     cfg.Tracker.PollInterval,
		SafetyTimeout:    cfg.Tracker.SafetyTimeout,
		DefaultShotTypes: cfg.Tracker.DefaultShotTypes,
	}, opts...)
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := handler.New(backendClient, st, session, cfg.Server.SignInPath)
	logger.Infof("service is starting, host: %s, port: %s", cfg.Server.Host, cfg.Server.Port)
	return server.Start(ctx, cfg.Server, h)
}
