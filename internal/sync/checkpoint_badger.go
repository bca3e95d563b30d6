// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/metrics"
)

const badgerCheckpointKey = "checkpoint/last_ringcentral_sync_time"

// BadgerCheckpointStore keeps the checkpoint in a local BadgerDB.
type BadgerCheckpointStore struct {
	db       *badger.DB
	lookback time.Duration
}

// OpenBadgerCheckpointStore opens (or creates) the database at path.
func OpenBadgerCheckpointStore(path string, lookback time.Duration) (*BadgerCheckpointStore, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = true
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint BadgerDB: %w", err)
	}
	logging.Info().Str("path", path).Msg("Checkpoint store opened")
	return &BadgerCheckpointStore{db: db, lookback: lookback}, nil
}

// Read returns the stored checkpoint, or now minus the lookback.
func (s *BadgerCheckpointStore) Read(ctx context.Context, now time.Time) time.Time {
	var t time.Time
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerCheckpointKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return t.UnmarshalText(val)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			metrics.CheckpointErrors.WithLabelValues("read").Inc()
			logging.Ctx(ctx).Error().Err(err).Msg("Failed to read checkpoint, using default lookback")
		}
		return fallbackTime(now, s.lookback)
	}
	return t.UTC()
}

// Write stores t as RFC 3339.
func (s *BadgerCheckpointStore) Write(ctx context.Context, t time.Time) {
	val, err := t.UTC().MarshalText()
	if err == nil {
		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(badgerCheckpointKey), val)
		})
	}
	if err != nil {
		metrics.CheckpointErrors.WithLabelValues("write").Inc()
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to write checkpoint")
	}
}

// Close closes the database.
func (s *BadgerCheckpointStore) Close() error {
	return s.db.Close()
}
