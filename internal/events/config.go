// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package events

import (
	"strings"
	"time"
)

// Topic suffixes appended to the configured prefix.
const (
	TopicActivityPosted = "activity.posted"
	TopicCycleCompleted = "cycle.completed"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "callbridge"

// Topic joins prefix and name with a dot.
func Topic(prefix, name string) string {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "." + name
}

// ServerConfig configures the embedded NATS server.
type ServerConfig struct {
	Host string
	// Port -1 picks a random free port.
	Port              int
	StoreDir          string
	JetStream         bool
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns defaults for a single-instance deployment.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats",
		JetStreamMaxMem:   64 << 20,  // 64MB
		JetStreamMaxStore: 512 << 20, // 512MB
	}
}

// PublisherConfig configures a Publisher.
type PublisherConfig struct {
	URL         string
	TopicPrefix string

	// JetStream publishes with acknowledgement into an existing stream.
	JetStream bool

	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
}

// DefaultPublisherConfig returns reconnect defaults for url.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:             url,
		TopicPrefix:     DefaultTopicPrefix,
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 << 20, // 8MB
	}
}

// StreamConfig configures the JetStream stream holding sync events.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxMsgs         int64
	DuplicateWindow time.Duration
}

// DefaultStreamConfig returns a stream covering every topic under prefix.
func DefaultStreamConfig(prefix string) StreamConfig {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return StreamConfig{
		Name:            strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(prefix)) + "_EVENTS",
		Subjects:        []string{prefix + ".>"},
		MaxAge:          7 * 24 * time.Hour,
		MaxMsgs:         1_000_000,
		DuplicateWindow: 2 * time.Minute,
	}
}
