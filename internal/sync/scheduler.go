// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/callbridge/internal/logging"
)

// cronParser accepts 5 or 6 field expressions and descriptors such as
// "@every 1m" or "@hourly".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// newScheduler returns a UTC cron that skips a run while the previous one
// is still going and recovers job panics.
func newScheduler() *cron.Cron {
	logger := logging.CronLogger()
	return cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
}

// scheduleSpec returns schedule when set, else "@every <interval>".
func scheduleSpec(schedule string, interval time.Duration) (string, error) {
	if schedule != "" {
		if _, err := cronParser.Parse(schedule); err != nil {
			return "", fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}
		return schedule, nil
	}
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %v", interval)
	}
	return "@every " + interval.String(), nil
}
