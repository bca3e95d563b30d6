// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/callbridge/internal/models"
)

var errFake = errors.New("fake upstream failure")

// fakeCRM is an in-memory Close. Posted activities become visible to
// QueryCallActivities, so repeated cycles exercise dedup.
type fakeCRM struct {
	mu sync.Mutex

	leads      map[string][]string // phone -> lead ids
	pageSize   int                 // 0 returns every match on one page
	emptyMore  bool                // return has_more with no data
	nextLeadID int
	queryDelay time.Duration // slows QueryLeadsByPhone outside the lock

	activities map[string][]models.CallActivity
	posted     []models.ActivityPayload
	fields     map[string]string // leadID/field -> value

	queryLeadsErr error
	createErr     error
	activitiesErr error
	postErr       error
	getFieldErr   error
	setFieldErr   error

	queryLeadsCalls int
	createCalls     int
	createdPhones   []string
	activityQueries []string
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		leads:      map[string][]string{},
		activities: map[string][]models.CallActivity{},
		fields:     map[string]string{},
	}
}

func (f *fakeCRM) QueryLeadsByPhone(_ context.Context, phone string, offset int) (models.LeadPage, error) {
	if f.queryDelay > 0 {
		time.Sleep(f.queryDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryLeadsCalls++
	if f.queryLeadsErr != nil {
		return models.LeadPage{}, f.queryLeadsErr
	}
	if f.emptyMore {
		return models.LeadPage{HasMore: true}, nil
	}

	ids := f.leads[phone]
	end := len(ids)
	if f.pageSize > 0 && offset+f.pageSize < end {
		end = offset + f.pageSize
	}
	var page models.LeadPage
	if offset < len(ids) {
		for _, id := range ids[offset:end] {
			page.Data = append(page.Data, models.LeadRef{ID: id})
		}
	}
	page.HasMore = end < len(ids)
	return page, nil
}

func (f *fakeCRM) CreateLead(_ context.Context, phone string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextLeadID++
	id := fmt.Sprintf("lead_created_%d", f.nextLeadID)
	f.leads[phone] = append(f.leads[phone], id)
	f.createdPhones = append(f.createdPhones, phone)
	return id, nil
}

func (f *fakeCRM) QueryCallActivities(_ context.Context, leadID, sinceDate string) ([]models.CallActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activityQueries = append(f.activityQueries, leadID+"@"+sinceDate)
	if f.activitiesErr != nil {
		return nil, f.activitiesErr
	}
	return append([]models.CallActivity(nil), f.activities[leadID]...), nil
}

func (f *fakeCRM) PostCallActivity(_ context.Context, payload models.ActivityPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return "", f.postErr
	}
	id := fmt.Sprintf("acti_%d", len(f.posted)+1)
	f.posted = append(f.posted, payload)
	f.activities[payload.LeadID] = append(f.activities[payload.LeadID], models.CallActivity{ID: id, Note: payload.Note})
	return id, nil
}

func (f *fakeCRM) GetCustomField(_ context.Context, leadID, field string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getFieldErr != nil {
		return "", f.getFieldErr
	}
	return f.fields[leadID+"/"+field], nil
}

func (f *fakeCRM) SetCustomField(_ context.Context, leadID, field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setFieldErr != nil {
		return f.setFieldErr
	}
	f.fields[leadID+"/"+field] = value
	return nil
}

func (f *fakeCRM) postedPayloads() []models.ActivityPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ActivityPayload(nil), f.posted...)
}

// fakeTelephony serves preset call-log pages.
type fakeTelephony struct {
	mu sync.Mutex

	pages   []models.CallLogPage
	errPage int // 1-based page that fails; 0 never

	// block, when set, is waited on before every page is served.
	block chan struct{}

	queries      []models.CallLogQuery
	pagesServed  []int
	refreshCalls int
	refreshErrs  []error
	hasSession   bool
}

func (f *fakeTelephony) Login(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hasSession = true
	return nil
}

func (f *fakeTelephony) RefreshSession(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if len(f.refreshErrs) > 0 {
		err := f.refreshErrs[0]
		f.refreshErrs = f.refreshErrs[1:]
		return err
	}
	f.hasSession = true
	return nil
}

func (f *fakeTelephony) HasSession() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasSession
}

func (f *fakeTelephony) GetCallLog(ctx context.Context, q models.CallLogQuery, page int) (*models.CallLogPage, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	f.pagesServed = append(f.pagesServed, page)
	if page == f.errPage {
		return nil, errFake
	}
	if page < 1 || page > len(f.pages) {
		return &models.CallLogPage{}, nil
	}
	p := f.pages[page-1]
	return &p, nil
}

func (f *fakeTelephony) served() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pagesServed...)
}

// memCheckpoint is an in-memory CheckpointStore.
type memCheckpoint struct {
	mu       sync.Mutex
	value    time.Time
	lookback time.Duration
	writes   []time.Time
}

func (c *memCheckpoint) Read(_ context.Context, now time.Time) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value.IsZero() {
		return fallbackTime(now, c.lookback)
	}
	return c.value
}

func (c *memCheckpoint) Write(_ context.Context, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = t
	c.writes = append(c.writes, t)
}

func (c *memCheckpoint) Close() error { return nil }

func (c *memCheckpoint) written() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Time(nil), c.writes...)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu         sync.Mutex
	activities []*models.ActivityPostedEvent
	cycles     []*models.CycleCompletedEvent
	err        error
}

func (p *recordingPublisher) PublishActivityPosted(_ context.Context, ev *models.ActivityPostedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = append(p.activities, ev)
	return p.err
}

func (p *recordingPublisher) PublishCycleCompleted(_ context.Context, ev *models.CycleCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cycles = append(p.cycles, ev)
	return p.err
}

// helpers for building records

func intPtr(i int) *int { return &i }

func party(phone string) *models.CallParty {
	return &models.CallParty{PhoneNumber: phone}
}

func page(next bool, recs ...models.CallRecord) models.CallLogPage {
	p := models.CallLogPage{Records: recs}
	if next {
		p.Navigation.NextPage = &models.NavigationLink{URI: "next"}
	}
	return p
}
