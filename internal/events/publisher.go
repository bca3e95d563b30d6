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
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/callbridge/internal/breaker"
	"github.com/tomtom215/callbridge/internal/metrics"
	"github.com/tomtom215/callbridge/internal/models"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher sends sync events through a Watermill NATS publisher guarded
// by a circuit breaker.
type Publisher struct {
	publisher message.Publisher
	breaker   *breaker.Breaker
	prefix    string

	mu     sync.RWMutex
	closed bool
}

// NewPublisher connects a Watermill NATS publisher to cfg.URL.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("callbridge"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
		natsgo.ErrorHandler(func(_ *natsgo.Conn, sub *natsgo.Subscription, err error) {
			fields := watermill.LogFields{}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			logger.Error("NATS error", err, fields)
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      !cfg.JetStream,
			AutoProvision: false, // the Bus creates the stream
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &Publisher{
		publisher: pub,
		breaker:   breaker.New("nats-publisher", breaker.DefaultSettings()),
		prefix:    prefix,
	}, nil
}

// Publish sends msg to topic. The message UUID becomes the Nats-Msg-Id
// unless one is already set.
func (p *Publisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}
	msg.SetContext(ctx)

	_, err := breaker.Do(p.breaker, func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(topic, msg)
	})
	metrics.RecordEventPublish(topic, err)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// PublishActivityPosted publishes ev on <prefix>.activity.posted, assigning
// an event id when it has none.
func (p *Publisher) PublishActivityPosted(ctx context.Context, ev *models.ActivityPostedEvent) error {
	if ev.EventID == "" {
		ev.EventID = uuid.New().String()
	}
	msg, err := newJSONMessage(ev.EventID, ev)
	if err != nil {
		return err
	}
	msg.Metadata.Set("correlation_id", ev.CorrelationID)
	msg.Metadata.Set("call_id", ev.CallID)
	msg.Metadata.Set("lead_id", ev.LeadID)
	return p.Publish(ctx, Topic(p.prefix, TopicActivityPosted), msg)
}

// PublishCycleCompleted publishes ev on <prefix>.cycle.completed,
// assigning an event id when it has none.
func (p *Publisher) PublishCycleCompleted(ctx context.Context, ev *models.CycleCompletedEvent) error {
	if ev.EventID == "" {
		ev.EventID = uuid.New().String()
	}
	msg, err := newJSONMessage(ev.EventID, ev)
	if err != nil {
		return err
	}
	msg.Metadata.Set("correlation_id", ev.Result.CorrelationID)
	return p.Publish(ctx, Topic(p.prefix, TopicCycleCompleted), msg)
}

func newJSONMessage(id string, v interface{}) (*message.Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serialize event: %w", err)
	}
	msg := message.NewMessage(id, data)
	msg.Metadata.Set("content_type", "application/json")
	return msg, nil
}

// Close shuts the publisher down. Further publishes fail.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
