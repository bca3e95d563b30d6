// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

/*
Package supervisor runs the long-lived callbridge services under a suture v4
supervisor tree.

# Overview

Services are grouped into three layers so a failing layer restarts on its
own without taking the others down:

	RootSupervisor ("callbridge")
	├── DataSupervisor ("data-layer")
	│   └── EventBusService (if EVENTS_ENABLED)
	├── SyncSupervisor ("sync-layer")
	│   ├── SessionRefresherService
	│   └── SyncManagerService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (if API_ENABLED)

The checkpoint store is not a service. It is opened before the tree starts
and closed after the tree stops.

# Restart Policy

The restart policy comes from config.SupervisorConfig:

  - FailureThreshold: failures tolerated before backoff (default 5)
  - FailureDecay: seconds for the failure count to decay (default 30)
  - FailureBackoff: pause once the threshold is hit (default 15s)
  - ShutdownTimeout: per-service stop deadline (default 10s)

Supervisor events are logged through sutureslog, bridged onto zerolog with
logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(&cfg.Supervisor))
	if err != nil {
	    return err
	}
	tree.AddSyncService(services.NewSyncService(manager))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.API.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	<-errCh

# See Also

  - internal/supervisor/services: suture.Service wrappers
  - github.com/thejerf/suture/v4
*/
package supervisor
