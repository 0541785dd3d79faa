// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authd/internal/auth"
	"github.com/holomush/authd/internal/config"
	"github.com/holomush/authd/internal/logging"
	"github.com/holomush/authd/internal/observability"
	"github.com/holomush/authd/internal/web"
	"github.com/holomush/authd/internal/xdg"
	"github.com/holomush/authd/pkg/errutil"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication API",
		Long: `Start the HTTP API (register, login, current user) and the
metrics/health server, and serve until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(xdg.ResolveConfigFile(configFile), cmd.Flags())
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServeWithDeps starts the service with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.StoreOpener == nil {
		deps.StoreOpener = openStore
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if deps.APIServerFactory == nil {
		deps.APIServerFactory = func(cfg web.ServerConfig, handler http.Handler, logger *slog.Logger) APIServer {
			return web.NewServer(cfg, handler, logger)
		}
	}

	logger, err := logging.Setup(logging.Options{
		Service: "authd",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	}, deps.LogOutput)
	if err != nil {
		return oops.Code("LOG_SETUP_FAILED").Wrap(err)
	}
	slog.SetDefault(logger)

	logger.Info("starting authd",
		"http_addr", cfg.HTTP.Addr,
		"store_driver", cfg.Store.Driver,
		"hasher", cfg.Hasher.Algorithm,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}

	// Readiness flips once the store is connected and the API is listening.
	var ready atomic.Bool
	var recorder auth.Recorder

	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, ready.Load)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if err := obsServer.Stop(stopCtx); err != nil {
				logger.Warn("error stopping observability server", "error", err)
			}
		}()
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
		recorder = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	users, closeStore, err := deps.StoreOpener(ctx, cfg.Store, logger)
	if err != nil {
		return oops.Code("STORE_CONNECT_FAILED").With("driver", cfg.Store.Driver).Wrap(err)
	}
	defer closeStore()
	logger.Info("user store connected", "driver", cfg.Store.Driver)

	svc, err := newService(cfg, users, logger, recorder)
	if err != nil {
		return err
	}

	handler, err := web.NewHandler(svc, logger)
	if err != nil {
		return oops.Code("WEB_SETUP_FAILED").Wrap(err)
	}

	apiServer := deps.APIServerFactory(web.ServerConfig{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}, handler, logger)
	apiErrChan, err := apiServer.Start()
	if err != nil {
		return oops.Code("WEB_START_FAILED").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api", logger)
	ready.Store(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("authd started")
	logger.Info("authd ready", "http_addr", apiServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	ready.Store(false)
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := apiServer.Stop(stopCtx); err != nil {
		errutil.LogError(stopCtx, logger, "error stopping api server", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// newService builds the auth workflow from the immutable configuration.
func newService(cfg *config.Config, users auth.UserStore, logger *slog.Logger, recorder auth.Recorder) (*auth.Service, error) {
	hasher, err := auth.NewPasswordHasher(cfg.AuthHasher())
	if err != nil {
		return nil, oops.Code("AUTH_SETUP_FAILED").With("component", "hasher").Wrap(err)
	}
	codec, err := auth.NewJWTCodec(cfg.AuthToken())
	if err != nil {
		return nil, oops.Code("AUTH_SETUP_FAILED").With("component", "token codec").Wrap(err)
	}

	opts := []auth.ServiceOption{auth.WithLogger(logger)}
	if recorder != nil {
		opts = append(opts, auth.WithRecorder(recorder))
	}
	svc, err := auth.NewService(users, hasher, codec, opts...)
	if err != nil {
		return nil, oops.Code("AUTH_SETUP_FAILED").With("component", "service").Wrap(err)
	}
	return svc, nil
}

// monitorServerErrors cancels ctx when a server reports a serve error.
// It exits when the channel closes or ctx is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
