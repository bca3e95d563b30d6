// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/callbridge/internal/api"
	"github.com/tomtom215/callbridge/internal/config"
	"github.com/tomtom215/callbridge/internal/events"
	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/supervisor"
	"github.com/tomtom215/callbridge/internal/supervisor/services"
	intsync "github.com/tomtom215/callbridge/internal/sync"
)

func main() {
	flag.Usage = usage
	issueToken := flag.String("issue-token", "", "print an API token for `subject` and exit")
	tokenTTL := flag.Duration("token-ttl", 720*time.Hour, "lifetime of the token printed by -issue-token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(loggingConfig(&cfg.Logging))

	if *issueToken != "" {
		token, err := issueAPIToken(&cfg.API, *issueToken, *tokenTTL)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to issue API token")
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		logging.Fatal().Err(err).Msg("Callbridge stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func issueAPIToken(cfg *config.APIConfig, subject string, ttl time.Duration) (string, error) {
	jm, err := api.NewJWTManager(cfg.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("JWT_SECRET must be set: %w", err)
	}
	return jm.GenerateToken(subject, ttl)
}

// run wires every component and blocks until ctx is canceled.
func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("ringcentral", cfg.RingCentral.ServerURL).
		Str("checkpoint_backend", cfg.Checkpoint.Backend).
		Bool("events", cfg.Events.Enabled).
		Bool("api", cfg.API.Enabled).
		Msg("Starting callbridge with supervisor tree")

	rc := newRingCentralClient(&cfg.RingCentral)
	if err := rc.Login(ctx); err != nil {
		return fmt.Errorf("ringcentral login: %w", err)
	}
	logging.Info().Msg("RingCentral session established")

	crm, anchorCRM := newCloseClients(&cfg.Close)

	checkpoint, err := intsync.NewCheckpointStore(ctx, &cfg.Checkpoint, cfg.Sync.Lookback, anchorCRM)
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}
	defer func() {
		if err := checkpoint.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing checkpoint store")
		}
	}()

	manager := intsync.NewManager(managerConfig(cfg), rc, crm, checkpoint)
	refresher := intsync.NewRefresher(rc, refresherConfig(&cfg.RingCentral))

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(&cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if cfg.Events.Enabled {
		bus := events.NewBus(&cfg.Events, watermill.NewSlogLogger(logging.NewSlogLogger()))
		manager.SetEventPublisher(bus)
		tree.AddDataService(services.NewEventBusService(bus, cfg.Supervisor.ShutdownTimeout))
		logging.Info().Bool("embedded", cfg.Events.Embedded).Bool("jetstream", cfg.Events.JetStream).Msg("Event bus service added")
	}

	tree.AddSyncService(services.NewSessionRefresherService(refresher))
	tree.AddSyncService(services.NewSyncService(manager))

	if cfg.API.Enabled {
		server, err := newHTTPServer(&cfg.API, manager, rc)
		if err != nil {
			return fmt.Errorf("create HTTP server: %w", err)
		}
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.API.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// errCh yields one value and is never closed.
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-issue-token subject [-token-ttl 720h]]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Configuration is read from CONFIG_PATH, ./config.yaml and the environment.")
	flag.PrintDefaults()
}
