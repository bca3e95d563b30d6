// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

/*
Package services adapts callbridge components to suture.Service.

Each wrapper turns a component lifecycle into Serve(ctx) error:

  - SyncService: Start(ctx)/Stop() components (sync manager, session refresher)
  - EventBusService: Start(ctx)/Shutdown(ctx) components (events.Bus)
  - HTTPServerService: ListenAndServe/Shutdown (*http.Server)

A wrapper returns an error when its component fails to start, so suture
restarts it under the tree's backoff policy. On context cancellation it
stops the component and returns ctx.Err().
*/
package services
