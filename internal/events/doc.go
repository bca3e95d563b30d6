// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

/*
Package events publishes sync events to NATS through Watermill.

Two events are published, both JSON encoded:

	<prefix>.activity.posted   one per call activity created in Close
	<prefix>.cycle.completed   one per sync cycle, with its CycleResult

Each message carries a UUID that doubles as the Nats-Msg-Id header, so a
JetStream stream with a duplicate window drops redelivered publishes.

# Deployment

Events are off unless events.enabled is set. With events.embedded the
process runs its own nats-server; otherwise it dials events.url. With
events.jetstream the Bus creates a file-backed stream covering
"<prefix>.>" before the publisher starts; without it messages go to core
NATS subjects and are only seen by live subscribers.

# Usage

	bus := events.NewBus(&cfg.Events, watermill.NewSlogLogger(logging.NewSlogLogger()))
	manager.SetEventPublisher(bus)
	tree.AddDataService(services.NewEventBusService(bus, cfg.Supervisor.ShutdownTimeout))

The Bus can be handed to the manager before it starts; publishes made
while it is stopped return ErrBusNotRunning.

Publishing is best-effort: the sync manager logs a failed publish and
carries on. A circuit breaker stops a down broker from adding a timeout to
every posted activity.
*/
package events
