// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/callbridge/internal/config"
	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/models"
)

// ErrBusNotRunning is returned by publishes before Start or after Shutdown.
var ErrBusNotRunning = errors.New("event bus is not running")

// Bus owns the event infrastructure: an optional embedded server, the
// JetStream stream and the publisher. It satisfies the sync manager's
// EventPublisher and is started and stopped by the supervisor.
type Bus struct {
	cfg    config.EventsConfig
	logger watermill.LoggerAdapter

	mu        sync.RWMutex
	running   bool
	server    *EmbeddedServer
	conn      *natsgo.Conn
	publisher *Publisher
	url       string
}

// NewBus creates a stopped bus.
func NewBus(cfg *config.EventsConfig, logger watermill.LoggerAdapter) *Bus {
	return &Bus{cfg: *cfg, logger: logger}
}

// Start brings up the server (when embedded), the stream (when JetStream
// is on) and the publisher. On error everything started so far is torn
// down again.
func (b *Bus) Start(ctx context.Context) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return fmt.Errorf("event bus already running")
	}

	defer func() {
		if err != nil {
			b.teardownLocked(context.Background())
		}
	}()

	url := b.cfg.URL
	if b.cfg.Embedded {
		srvCfg := DefaultServerConfig()
		srvCfg.Host = b.cfg.Host
		srvCfg.Port = b.cfg.Port
		srvCfg.StoreDir = b.cfg.StoreDir
		srvCfg.JetStream = b.cfg.JetStream
		b.server, err = NewEmbeddedServer(&srvCfg)
		if err != nil {
			return err
		}
		url = b.server.ClientURL()
		logging.Info().Str("url", url).Bool("jetstream", b.cfg.JetStream).Msg("Embedded NATS server started")
	}

	if b.cfg.JetStream {
		if err = b.ensureStreamLocked(ctx, url); err != nil {
			return err
		}
	}

	pubCfg := DefaultPublisherConfig(url)
	pubCfg.TopicPrefix = b.cfg.TopicPrefix
	pubCfg.JetStream = b.cfg.JetStream
	b.publisher, err = NewPublisher(pubCfg, b.logger)
	if err != nil {
		return err
	}

	b.url = url
	b.running = true
	logging.Info().Str("url", url).Str("topic_prefix", pubCfg.TopicPrefix).Msg("Event publisher ready")
	return nil
}

func (b *Bus) ensureStreamLocked(ctx context.Context, url string) error {
	nc, err := natsgo.Connect(url,
		natsgo.Name("callbridge-admin"),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	b.conn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := DefaultStreamConfig(b.cfg.TopicPrefix)
	initializer, err := NewStreamInitializer(js, &streamCfg)
	if err != nil {
		return err
	}
	stream, err := initializer.EnsureStream(ctx)
	if err != nil {
		return fmt.Errorf("ensure stream exists: %w", err)
	}
	info := stream.CachedInfo()
	logging.Info().
		Str("name", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Dur("max_age", info.Config.MaxAge).
		Msg("JetStream stream ready")
	return nil
}

// Shutdown closes the publisher, the admin connection and the embedded
// server.
func (b *Bus) Shutdown(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teardownLocked(ctx)
	logging.Info().Msg("Event bus stopped")
}

func (b *Bus) teardownLocked(ctx context.Context) {
	b.running = false
	b.url = ""
	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close event publisher")
		}
		b.publisher = nil
	}
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	if b.server != nil {
		if err := b.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Embedded NATS server did not stop cleanly")
		}
		b.server = nil
	}
}

// IsRunning reports whether the bus accepts publishes.
func (b *Bus) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

// URL returns the NATS URL in use, or "" when stopped.
func (b *Bus) URL() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.url
}

// PublishActivityPosted forwards to the publisher.
func (b *Bus) PublishActivityPosted(ctx context.Context, ev *models.ActivityPostedEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running {
		return ErrBusNotRunning
	}
	return b.publisher.PublishActivityPosted(ctx, ev)
}

// PublishCycleCompleted forwards to the publisher.
func (b *Bus) PublishCycleCompleted(ctx context.Context, ev *models.CycleCompletedEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running {
		return ErrBusNotRunning
	}
	return b.publisher.PublishCycleCompleted(ctx, ev)
}
