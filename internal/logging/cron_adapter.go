// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package logging

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// cronLogger adapts zerolog to cron.Logger. Scheduler chatter (wake, run,
// skip) is written at debug level; job panics and errors at error level.
type cronLogger struct {
	logger zerolog.Logger
}

// CronLogger returns a cron.Logger backed by the global logger with a
// component=scheduler field.
func CronLogger() cron.Logger {
	return &cronLogger{logger: WithComponent("scheduler")}
}

func (c *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	event := c.logger.Debug()
	addKeysAndValues(event, keysAndValues).Msg(msg)
}

func (c *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	event := c.logger.Error().Err(err)
	addKeysAndValues(event, keysAndValues).Msg(msg)
}

func addKeysAndValues(event *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		event = event.Interface(key, kv[i+1])
	}
	return event
}
