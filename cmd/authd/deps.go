// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/holomush/authd/internal/auth"
	"github.com/holomush/authd/internal/config"
	"github.com/holomush/authd/internal/observability"
	"github.com/holomush/authd/internal/web"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// StoreOpener connects the configured user store. The returned func
	// releases it.
	// Default: openStore
	StoreOpener func(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (auth.UserStore, func(), error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// APIServerFactory creates the HTTP API server.
	// Default: web.NewServer
	APIServerFactory func(cfg web.ServerConfig, handler http.Handler, logger *slog.Logger) APIServer

	// LogOutput receives log records.
	// Default: os.Stderr
	LogOutput io.Writer
}

// ObservabilityServer wraps the methods used by serve from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// APIServer wraps the methods used by serve from web.Server.
type APIServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// Compile-time interface checks.
var (
	_ ObservabilityServer = (*observability.Server)(nil)
	_ APIServer           = (*web.Server)(nil)
)
