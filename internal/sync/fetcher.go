// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"context"
	"time"

	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/metrics"
	"github.com/tomtom215/callbridge/internal/models"
)

// DefaultPageDelay is the pause between call-log pages. The call-log
// endpoint sits in RingCentral's "Heavy" rate-limit group.
const DefaultPageDelay = 6 * time.Second

// FetcherConfig configures a CallFetcher.
type FetcherConfig struct {
	PageDelay time.Duration
	PerPage   int
}

// CallFetcher pulls every call record in a window from the call log.
type CallFetcher struct {
	client    TelephonyClient
	pageDelay time.Duration
	perPage   int

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCallFetcher creates a fetcher. A negative PageDelay is treated as zero.
func NewCallFetcher(client TelephonyClient, cfg FetcherConfig) *CallFetcher {
	delay := cfg.PageDelay
	if delay < 0 {
		delay = 0
	}
	return &CallFetcher{
		client:    client,
		pageDelay: delay,
		perPage:   cfg.PerPage,
		sleep:     sleepContext,
	}
}

// Fetch returns the voice calls started in w, in provider order. Pages are
// requested from 1 while the response carries a next-page link, with a
// pause between pages but not after the last one. Any error, including
// cancellation during a pause, ends the fetch and returns the records read
// so far.
func (f *CallFetcher) Fetch(ctx context.Context, w models.SyncWindow) []models.CallRecord {
	q := models.CallLogQuery{DateFrom: w.From, DateTo: w.To, PerPage: f.perPage}
	log := logging.Ctx(ctx)

	var records []models.CallRecord
	for page := 1; ; page++ {
		resp, err := f.client.GetCallLog(ctx, q, page)
		if err != nil {
			log.Error().Err(err).Int("page", page).Int("records", len(records)).Msg("Failed to get calls, returning partial results")
			return records
		}
		metrics.FetchPages.Inc()
		records = append(records, resp.Records...)

		if !resp.HasNextPage() {
			log.Debug().Int("pages", page).Int("records", len(records)).Msg("Fetched call log")
			return records
		}

		if err := f.sleep(ctx, f.pageDelay); err != nil {
			log.Warn().Err(err).Int("page", page).Int("records", len(records)).Msg("Call log fetch interrupted")
			return records
		}
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
