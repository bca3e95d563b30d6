// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/callbridge/internal/config"
	"github.com/tomtom215/callbridge/internal/models"
)

func TestTopic(t *testing.T) {
	tests := []struct {
		prefix, name, want string
	}{
		{"callbridge", TopicActivityPosted, "callbridge.activity.posted"},
		{"acme.prod", TopicCycleCompleted, "acme.prod.cycle.completed"},
		{"trailing.", TopicCycleCompleted, "trailing.cycle.completed"},
		{"", TopicActivityPosted, "callbridge.activity.posted"},
	}
	for _, tt := range tests {
		if got := Topic(tt.prefix, tt.name); got != tt.want {
			t.Errorf("Topic(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestDefaultStreamConfig(t *testing.T) {
	cfg := DefaultStreamConfig("acme.prod-1")
	if cfg.Name != "ACME_PROD_1_EVENTS" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if len(cfg.Subjects) != 1 || cfg.Subjects[0] != "acme.prod-1.>" {
		t.Errorf("Subjects = %v", cfg.Subjects)
	}
	if cfg.DuplicateWindow <= 0 {
		t.Error("DuplicateWindow not set")
	}
}

// startBus starts an embedded bus on a random port and stops it at cleanup.
func startBus(t *testing.T, jetStream bool) *Bus {
	t.Helper()
	bus := NewBus(&config.EventsConfig{
		Enabled:     true,
		Embedded:    true,
		Host:        "127.0.0.1",
		Port:        -1,
		StoreDir:    t.TempDir(),
		JetStream:   jetStream,
		TopicPrefix: "callbridge",
	}, nil)
	if err := bus.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		bus.Shutdown(ctx)
	})
	return bus
}

func subscribe(t *testing.T, url, subject string) *natsgo.Subscription {
	t.Helper()
	nc, err := natsgo.Connect(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(nc.Close)
	sub, err := nc.SubscribeSync(subject)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return sub
}

func TestBus_PublishesCycleCompleted(t *testing.T) {
	bus := startBus(t, false)
	sub := subscribe(t, bus.URL(), "callbridge.>")

	ev := &models.CycleCompletedEvent{
		Result:  models.CycleResult{CorrelationID: "abc12345", Fetched: 3, Posted: 2, PostFailures: 1},
		Partial: true,
	}
	if err := bus.PublishCycleCompleted(context.Background(), ev); err != nil {
		t.Fatalf("PublishCycleCompleted() error = %v", err)
	}
	if ev.EventID == "" {
		t.Error("event id not assigned")
	}

	msg, err := sub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg() error = %v", err)
	}
	if msg.Subject != "callbridge.cycle.completed" {
		t.Errorf("subject = %q", msg.Subject)
	}
	var got models.CycleCompletedEvent
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.EventID != ev.EventID || got.Result.Posted != 2 || !got.Partial {
		t.Errorf("event = %+v", got)
	}
	if got := msg.Header.Get("correlation_id"); got != "abc12345" {
		t.Errorf("correlation_id header = %q", got)
	}
}

func TestBus_PublishesActivityPosted(t *testing.T) {
	bus := startBus(t, false)
	sub := subscribe(t, bus.URL(), "callbridge.activity.posted")

	ev := &models.ActivityPostedEvent{
		EventID:    "fixed-id",
		CallID:     "c1",
		LeadID:     "lead_a",
		ActivityID: "acti_1",
		Direction:  "outbound",
	}
	if err := bus.PublishActivityPosted(context.Background(), ev); err != nil {
		t.Fatalf("PublishActivityPosted() error = %v", err)
	}

	msg, err := sub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg() error = %v", err)
	}
	var got models.ActivityPostedEvent
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.EventID != "fixed-id" || got.CallID != "c1" || got.LeadID != "lead_a" {
		t.Errorf("event = %+v", got)
	}
}

func TestBus_JetStreamPersists(t *testing.T) {
	bus := startBus(t, true)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := bus.PublishCycleCompleted(ctx, &models.CycleCompletedEvent{}); err != nil {
			t.Fatalf("PublishCycleCompleted() error = %v", err)
		}
	}

	nc, err := natsgo.Connect(bus.URL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("jetstream: %v", err)
	}
	stream, err := js.Stream(ctx, DefaultStreamConfig("callbridge").Name)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.State.Msgs != 2 {
		t.Errorf("stream messages = %d, want 2", info.State.Msgs)
	}
}

func TestBus_NotRunning(t *testing.T) {
	bus := NewBus(&config.EventsConfig{TopicPrefix: "callbridge"}, nil)
	ctx := context.Background()

	if err := bus.PublishCycleCompleted(ctx, &models.CycleCompletedEvent{}); !errors.Is(err, ErrBusNotRunning) {
		t.Errorf("PublishCycleCompleted() = %v, want ErrBusNotRunning", err)
	}
	if err := bus.PublishActivityPosted(ctx, &models.ActivityPostedEvent{}); !errors.Is(err, ErrBusNotRunning) {
		t.Errorf("PublishActivityPosted() = %v, want ErrBusNotRunning", err)
	}
	if bus.IsRunning() || bus.URL() != "" {
		t.Error("new bus reports running")
	}
}

func TestBus_StartTwice(t *testing.T) {
	bus := startBus(t, false)
	if err := bus.Start(context.Background()); err == nil {
		t.Error("second Start() returned nil error")
	}
	if !bus.IsRunning() {
		t.Error("bus stopped by failed second Start")
	}
}

func TestPublisher_Closed(t *testing.T) {
	srv, err := NewEmbeddedServer(&ServerConfig{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	defer srv.Shutdown(context.Background())
	if !srv.IsRunning() || srv.JetStreamEnabled() {
		t.Errorf("running = %v, jetstream = %v", srv.IsRunning(), srv.JetStreamEnabled())
	}

	pub, err := NewPublisher(DefaultPublisherConfig(srv.ClientURL()), nil)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	err = pub.Publish(context.Background(), "callbridge.test", message.NewMessage("id", []byte("{}")))
	if !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("Publish() after Close = %v, want ErrPublisherClosed", err)
	}
}

func TestNewEmbeddedServer_NilConfig(t *testing.T) {
	if _, err := NewEmbeddedServer(nil); err == nil {
		t.Error("NewEmbeddedServer(nil) returned nil error")
	}
}
