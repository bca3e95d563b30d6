// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/callbridge/internal/models"
)

var (
	cycleT0 = time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	cycleT1 = time.Date(2024, 1, 2, 3, 5, 0, 0, time.UTC)
)

type managerFixture struct {
	m          *Manager
	tel        *fakeTelephony
	crm        *fakeCRM
	checkpoint *memCheckpoint
}

func newManagerFixture(t *testing.T, cfg ManagerConfig, pages ...models.CallLogPage) *managerFixture {
	t.Helper()
	if cfg.Interval == 0 && cfg.Schedule == "" {
		cfg.Interval = time.Hour
	}
	f := &managerFixture{
		tel:        &fakeTelephony{pages: pages},
		crm:        newFakeCRM(),
		checkpoint: &memCheckpoint{value: cycleT0, lookback: DefaultLookback},
	}
	f.m = NewManager(cfg, f.tel, f.crm, f.checkpoint)
	f.m.now = func() time.Time { return cycleT1 }
	f.m.fetcher.sleep = func(context.Context, time.Duration) error { return nil }
	return f
}

func missedOutbound() models.CallRecord {
	return models.CallRecord{
		ID:        "c1",
		StartTime: "2024-01-02T03:01:00.000Z",
		Duration:  intPtr(42),
		Direction: models.DirectionOutbound,
		Result:    models.ResultMissed,
		From:      party("+15550000001"),
		To:        party("+15551234567"),
	}
}

func TestManager_RunCycle_PostsMissedCall(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{}, page(false, missedOutbound()))
	f.crm.leads["+15551234567"] = []string{"lead_a"}

	res := f.m.RunCycle(context.Background())

	posted := f.crm.postedPayloads()
	if len(posted) != 1 {
		t.Fatalf("posted = %d, want 1", len(posted))
	}
	want := models.ActivityPayload{
		LeadID:      "lead_a",
		Duration:    0,
		Direction:   "outbound",
		RemotePhone: "+15551234567",
		DateCreated: "2024-01-02T03:01:00.000+00:00",
		Note:        "RingCentral Call:\nRC ID: c1\nFrom: +15550000001\nTo: +15551234567\nDuration: 0s\nDirection: Outbound\nResult: Missed",
	}
	if posted[0] != want {
		t.Errorf("payload = %+v\nwant %+v", posted[0], want)
	}

	if writes := f.checkpoint.written(); len(writes) != 1 || !writes[0].Equal(cycleT1) {
		t.Errorf("checkpoint writes = %v, want [%v]", writes, cycleT1)
	}
	if !res.Window.From.Equal(cycleT0) || !res.Window.To.Equal(cycleT1) {
		t.Errorf("window = %+v", res.Window)
	}
	if res.Fetched != 1 || res.Posted != 1 || res.LeadsResolved != 1 || res.Partial() {
		t.Errorf("result = %+v", res)
	}
	if q := f.tel.queries[0]; !q.DateFrom.Equal(cycleT0) || !q.DateTo.Equal(cycleT1) {
		t.Errorf("call log query = %+v", q)
	}
	if got := f.crm.activityQueries; len(got) != 1 || got[0] != "lead_a@2024-01-02" {
		t.Errorf("dedup queries = %v", got)
	}
	if !f.m.LastSyncTime().Equal(cycleT1) || f.m.LastResult() == nil {
		t.Errorf("LastSyncTime() = %v, LastResult() = %v", f.m.LastSyncTime(), f.m.LastResult())
	}
	if f.m.State() != StateIdle {
		t.Errorf("State() = %q after cycle", f.m.State())
	}
}

func TestManager_RunCycle_Idempotent(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{}, page(false, missedOutbound()))
	f.crm.leads["+15551234567"] = []string{"lead_a", "lead_b"}

	first := f.m.RunCycle(context.Background())
	second := f.m.RunCycle(context.Background())

	if first.Posted != 2 || first.Duplicates != 0 {
		t.Errorf("first cycle = %+v", first)
	}
	if second.Posted != 0 || second.Duplicates != 2 {
		t.Errorf("second cycle = %+v", second)
	}
	if got := len(f.crm.postedPayloads()); got != 2 {
		t.Errorf("activities posted = %d, want 2", got)
	}
}

func TestManager_RunCycle_PostedCacheSkipsActivityQuery(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{PostedCacheSize: 100}, page(false, missedOutbound()))
	f.crm.leads["+15551234567"] = []string{"lead_a", "lead_b"}

	first := f.m.RunCycle(context.Background())
	queriesAfterFirst := len(f.crm.activityQueries)
	second := f.m.RunCycle(context.Background())

	if first.Posted != 2 {
		t.Errorf("first cycle = %+v", first)
	}
	if second.Posted != 0 || second.Duplicates != 2 {
		t.Errorf("second cycle = %+v", second)
	}
	if got := len(f.crm.activityQueries); got != queriesAfterFirst {
		t.Errorf("activity queries after second cycle = %d, want %d", got, queriesAfterFirst)
	}
	if !f.m.posted.Contains("lead_b|c1") {
		t.Error("memo lacks lead_b|c1")
	}
}

func TestManager_RunCycle_CreatesLeadForUnknownNumber(t *testing.T) {
	rec := models.CallRecord{
		ID:        "c2",
		StartTime: "2024-01-02T03:02:00Z",
		Duration:  intPtr(65),
		Direction: models.DirectionInbound,
		Result:    "Accepted",
		From:      party("+15550000001"),
		To:        party("+15559999999"),
		Legs: []models.CallLeg{{
			LegType: models.LegTypeAccept,
			To:      &models.CallParty{ExtensionID: "101", Name: "Dana"},
		}},
	}
	f := newManagerFixture(t, ManagerConfig{}, page(false, rec))

	res := f.m.RunCycle(context.Background())

	if len(f.crm.createdPhones) != 1 || f.crm.createdPhones[0] != "+15550000001" {
		t.Fatalf("created phones = %v", f.crm.createdPhones)
	}
	posted := f.crm.postedPayloads()
	if len(posted) != 1 {
		t.Fatalf("posted = %d, want 1", len(posted))
	}
	p := posted[0]
	if p.LeadID != "lead_created_1" || p.Direction != "inbound" || p.Duration != 65 || p.RemotePhone != "+15550000001" {
		t.Errorf("payload = %+v", p)
	}
	wantNote := "RingCentral Call:\nRC ID: c2\nFrom: +15550000001\nTo: +15559999999\nDuration: 1m 5s\nDirection: Inbound\nResult: Accepted\nRC Users: Dana"
	if p.Note != wantNote {
		t.Errorf("note = %q\nwant %q", p.Note, wantNote)
	}
	if res.Posted != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestManager_RunCycle_SkipsIncompleteRecords(t *testing.T) {
	recs := []models.CallRecord{
		{StartTime: "2024-01-02T03:01:00Z", Direction: models.DirectionOutbound, From: party("+2"), To: party("+1")},
		{ID: "no-start", Direction: models.DirectionOutbound, From: party("+2"), To: party("+1")},
		{ID: "no-remote", StartTime: "2024-01-02T03:01:00Z", Direction: models.DirectionOutbound, From: party("+1")},
		{ID: "inbound-no-from", StartTime: "2024-01-02T03:01:00Z", Direction: models.DirectionInbound, To: party("+1")},
		{
			ID:        "inbound-to-extension",
			StartTime: "2024-01-02T03:01:00Z",
			Direction: models.DirectionInbound,
			From:      party("+15550001111"),
			To:        &models.CallParty{ExtensionNumber: "101"},
		},
		{
			ID:        "outbound-from-extension",
			StartTime: "2024-01-02T03:01:00Z",
			Direction: models.DirectionOutbound,
			From:      &models.CallParty{ExtensionNumber: "101"},
			To:        party("+15550001111"),
		},
	}
	f := newManagerFixture(t, ManagerConfig{}, page(false, recs...))
	f.crm.leads["+15550001111"] = []string{"lead_a"}

	res := f.m.RunCycle(context.Background())

	if res.Skipped != 6 || res.Fetched != 6 {
		t.Errorf("result = %+v", res)
	}
	if f.crm.queryLeadsCalls != 0 || len(f.crm.postedPayloads()) != 0 {
		t.Error("skipped records reached the CRM")
	}
	if len(f.checkpoint.written()) != 1 {
		t.Error("checkpoint not advanced after a cycle of skips")
	}
}

func TestManager_RunCycle_FailuresDoNotAbort(t *testing.T) {
	// Accepted loss: a call whose lead lookup fails is not retried, because
	// the checkpoint still moves past it.
	t.Run("resolve failure drops call and still advances checkpoint", func(t *testing.T) {
		f := newManagerFixture(t, ManagerConfig{}, page(false, missedOutbound()))
		f.crm.queryLeadsErr = errFake

		res := f.m.RunCycle(context.Background())

		if res.ResolveFailures != 1 || !res.Partial() {
			t.Errorf("result = %+v", res)
		}
		if len(f.checkpoint.written()) != 1 {
			t.Error("checkpoint not advanced after resolve failure")
		}
	})

	t.Run("post failure", func(t *testing.T) {
		f := newManagerFixture(t, ManagerConfig{}, page(false, missedOutbound()))
		f.crm.leads["+15551234567"] = []string{"lead_a", "lead_b"}
		f.crm.postErr = errFake

		res := f.m.RunCycle(context.Background())

		if res.PostFailures != 2 || res.Posted != 0 || !res.Partial() {
			t.Errorf("result = %+v", res)
		}
		if len(f.checkpoint.written()) != 1 {
			t.Error("checkpoint not advanced after post failure")
		}
	})

	t.Run("dedup failure posts anyway", func(t *testing.T) {
		f := newManagerFixture(t, ManagerConfig{}, page(false, missedOutbound()))
		f.crm.leads["+15551234567"] = []string{"lead_a"}
		f.crm.activitiesErr = errFake

		res := f.m.RunCycle(context.Background())

		if res.Posted != 1 {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("fetch failure keeps partial records", func(t *testing.T) {
		f := newManagerFixture(t, ManagerConfig{},
			page(true, missedOutbound()),
			page(false, models.CallRecord{ID: "never"}),
		)
		f.tel.errPage = 2
		f.crm.leads["+15551234567"] = []string{"lead_a"}

		res := f.m.RunCycle(context.Background())

		if res.Fetched != 1 || res.Posted != 1 {
			t.Errorf("result = %+v", res)
		}
		if len(f.checkpoint.written()) != 1 {
			t.Error("checkpoint not advanced after fetch failure")
		}
	})
}

func TestManager_RunCycle_ClampsFutureCheckpoint(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{}, page(false))
	f.checkpoint.value = cycleT1.Add(time.Hour)

	res := f.m.RunCycle(context.Background())

	if !res.Window.From.Equal(cycleT1) || !res.Window.To.Equal(cycleT1) {
		t.Errorf("window = %+v, want empty window at %v", res.Window, cycleT1)
	}
}

func TestManager_RunCycle_NoCheckpointUsesLookback(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{}, page(false))
	f.checkpoint.value = time.Time{}

	res := f.m.RunCycle(context.Background())

	if want := cycleT1.Add(-DefaultLookback); !res.Window.From.Equal(want) {
		t.Errorf("window from = %v, want %v", res.Window.From, want)
	}
}

// A canceled cycle deliberately skips the checkpoint write that a finished
// cycle always performs, so an interrupted window is fetched again.
func TestManager_RunCycle_CanceledSkipsUnconditionalCheckpointWrite(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{}, page(false, missedOutbound()))
	f.crm.leads["+15551234567"] = []string{"lead_a"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.m.RunCycle(ctx)

	if writes := f.checkpoint.written(); len(writes) != 0 {
		t.Errorf("checkpoint writes = %v, want none", writes)
	}
}

func TestManager_RunCycle_Concurrency(t *testing.T) {
	const n = 20
	recs := make([]models.CallRecord, n)
	for i := range recs {
		phone := fmt.Sprintf("+1555000%04d", i)
		recs[i] = models.CallRecord{
			ID:        fmt.Sprintf("c%d", i),
			StartTime: "2024-01-02T03:01:00Z",
			Duration:  intPtr(i),
			Direction: models.DirectionOutbound,
			From:      party("+15550000001"),
			To:        party(phone),
		}
	}
	f := newManagerFixture(t, ManagerConfig{Concurrency: 4}, page(false, recs...))
	for i := range recs {
		f.crm.leads[recs[i].ToNumber()] = []string{fmt.Sprintf("lead_%d", i)}
	}

	res := f.m.RunCycle(context.Background())

	if res.Posted != n || res.Fetched != n || res.LeadsResolved != n {
		t.Errorf("result = %+v", res)
	}
	seen := map[string]bool{}
	for _, p := range f.crm.postedPayloads() {
		seen[p.LeadID] = true
	}
	if len(seen) != n {
		t.Errorf("distinct leads posted = %d, want %d", len(seen), n)
	}
}

func TestManager_RunCycle_ConcurrentSameNumberCreatesOneLead(t *testing.T) {
	const phone = "+15550009999"
	recs := []models.CallRecord{
		{ID: "c1", StartTime: "2024-01-02T03:01:00Z", Direction: models.DirectionOutbound, From: party("+15550000001"), To: party(phone)},
		{ID: "c2", StartTime: "2024-01-02T03:02:00Z", Direction: models.DirectionOutbound, From: party("+15550000001"), To: party(phone)},
		{ID: "c3", StartTime: "2024-01-02T03:03:00Z", Direction: models.DirectionInbound, From: party(phone), To: party("+15550000001")},
	}
	f := newManagerFixture(t, ManagerConfig{Concurrency: 3}, page(false, recs...))
	f.crm.queryDelay = 50 * time.Millisecond

	res := f.m.RunCycle(context.Background())

	if f.crm.createCalls != 1 {
		t.Errorf("CreateLead calls = %d, want 1 (leads %v)", f.crm.createCalls, f.crm.leads[phone])
	}
	if res.Posted != 3 || res.Partial() {
		t.Errorf("result = %+v", res)
	}
	for _, p := range f.crm.postedPayloads() {
		if p.LeadID != "lead_created_1" {
			t.Errorf("posted to %q, want lead_created_1", p.LeadID)
		}
	}
}

func TestGroupByRemotePhone(t *testing.T) {
	recs := []models.CallRecord{
		{Direction: models.DirectionOutbound, To: party("+1")},
		{Direction: models.DirectionInbound, From: party("+2")},
		{Direction: models.DirectionInbound, From: party("+1")},
		{Direction: models.DirectionOutbound},
	}

	got := groupByRemotePhone(recs)

	want := [][]int{{0, 2}, {1}, {3}}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("groupByRemotePhone() = %v, want %v", got, want)
	}
}

func TestManager_PublishesEvents(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{}, page(false, missedOutbound()))
	f.crm.leads["+15551234567"] = []string{"lead_a"}
	pub := &recordingPublisher{err: errors.New("broker down")}
	f.m.SetEventPublisher(pub)

	res := f.m.RunCycle(context.Background())

	if res.Posted != 1 {
		t.Fatalf("publish failure changed the cycle: %+v", res)
	}
	if len(pub.activities) != 1 || len(pub.cycles) != 1 {
		t.Fatalf("events = %d activity, %d cycle", len(pub.activities), len(pub.cycles))
	}
	ev := pub.activities[0]
	if ev.CallID != "c1" || ev.LeadID != "lead_a" || ev.ActivityID != "acti_1" || ev.Duration != 0 {
		t.Errorf("activity event = %+v", ev)
	}
	if ev.CorrelationID == "" || ev.CorrelationID != res.CorrelationID {
		t.Errorf("correlation id = %q, cycle %q", ev.CorrelationID, res.CorrelationID)
	}
	if cyc := pub.cycles[0]; cyc.Result.Posted != 1 || cyc.Partial {
		t.Errorf("cycle event = %+v", cyc)
	}
}

func TestManager_StartStop(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{RunOnStart: true}, page(false))

	if err := f.m.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() before Start = %v, want ErrNotRunning", err)
	}
	if err := f.m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := f.m.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}
	if !f.m.Running() || f.m.NextRun().IsZero() {
		t.Errorf("Running() = %v, NextRun() = %v", f.m.Running(), f.m.NextRun())
	}
	if err := f.m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// Stop waits for the start-up cycle.
	if f.m.LastResult() == nil {
		t.Error("start-up cycle did not run")
	}
	if f.m.Running() || !f.m.NextRun().IsZero() {
		t.Error("manager still running after Stop")
	}
}

func TestManager_StartRejectsBadSchedule(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{Schedule: "not cron"})
	if err := f.m.Start(context.Background()); err == nil {
		t.Fatal("Start() with bad schedule returned nil error")
	}
	if f.m.Running() {
		t.Error("manager running after failed Start")
	}
}

func TestManager_TriggerSync(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{}, page(false))
	f.tel.block = make(chan struct{})

	if err := f.m.TriggerSync(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("TriggerSync() before Start = %v, want ErrNotRunning", err)
	}
	if err := f.m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := f.m.TriggerSync(); err != nil {
		t.Fatalf("TriggerSync() error = %v", err)
	}
	waitForState(t, f.m, StateRunning)

	if err := f.m.TriggerSync(); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("TriggerSync() during cycle = %v, want ErrSyncInProgress", err)
	}

	close(f.tel.block)
	waitForState(t, f.m, StateIdle)
	if err := f.m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if f.m.LastResult() == nil {
		t.Error("triggered cycle did not complete")
	}
}

func TestManager_StopCancelsCycle(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{}, page(false))
	f.tel.block = make(chan struct{})

	if err := f.m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := f.m.TriggerSync(); err != nil {
		t.Fatalf("TriggerSync() error = %v", err)
	}
	waitForState(t, f.m, StateRunning)

	done := make(chan error, 1)
	go func() { done <- f.m.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not cancel the running cycle")
	}
	if writes := f.checkpoint.written(); len(writes) != 0 {
		t.Errorf("checkpoint writes = %v after canceled cycle", writes)
	}
}

func waitForState(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for m.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %q, want %q", m.State(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
