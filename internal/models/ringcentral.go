// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package models

import "time"

// Call directions and results as reported by RingCentral.
const (
	DirectionInbound  = "Inbound"
	DirectionOutbound = "Outbound"

	ResultMissed = "Missed"

	LegTypeAccept = "Accept"
)

// CallParty is one endpoint of a call or call leg. Every field is optional.
type CallParty struct {
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	ExtensionNumber string `json:"extensionNumber,omitempty"`
	ExtensionID     string `json:"extensionId,omitempty"`
	Name            string `json:"name,omitempty"`
}

// CallLeg is a sub-segment of a multi-party call.
type CallLeg struct {
	LegType string     `json:"legType,omitempty"`
	From    *CallParty `json:"from,omitempty"`
	To      *CallParty `json:"to,omitempty"`
}

// CallRecord is a RingCentral call-log entry in the Detailed view.
// StartTime is kept as the raw provider string (e.g. "2026-01-02T03:04:05.000Z").
// Duration is nil when the provider omitted it.
type CallRecord struct {
	ID                string     `json:"id"`
	SessionID         string     `json:"sessionId,omitempty"`
	StartTime         string     `json:"startTime"`
	Duration          *int       `json:"duration,omitempty"`
	Type              string     `json:"type,omitempty"`
	Direction         string     `json:"direction,omitempty"`
	Action            string     `json:"action,omitempty"`
	Result            string     `json:"result,omitempty"`
	Reason            string     `json:"reason,omitempty"`
	ReasonDescription string     `json:"reasonDescription,omitempty"`
	From              *CallParty `json:"from,omitempty"`
	To                *CallParty `json:"to,omitempty"`
	Legs              []CallLeg  `json:"legs,omitempty"`
}

// DurationSeconds returns the call duration, or 0 when absent.
func (c *CallRecord) DurationSeconds() int {
	if c.Duration == nil {
		return 0
	}
	return *c.Duration
}

// FromNumber returns the caller's phone number, or "".
func (c *CallRecord) FromNumber() string {
	if c.From == nil {
		return ""
	}
	return c.From.PhoneNumber
}

// ToNumber returns the callee's phone number, or "".
func (c *CallRecord) ToNumber() string {
	if c.To == nil {
		return ""
	}
	return c.To.PhoneNumber
}

// RemotePhone returns the number on the far side of the call: the callee
// for outbound calls, the caller otherwise.
func (c *CallRecord) RemotePhone() string {
	if c.Direction == DirectionOutbound {
		return c.ToNumber()
	}
	return c.FromNumber()
}

// Navigation is the paging block of a call-log response. NextPage is
// present only when another page exists.
type Navigation struct {
	NextPage *NavigationLink `json:"nextPage,omitempty"`
}

// NavigationLink points at another page.
type NavigationLink struct {
	URI string `json:"uri"`
}

// Paging is the paging summary of a call-log response.
type Paging struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

// CallLogPage is one response of GET /restapi/v1.0/account/~/call-log.
type CallLogPage struct {
	Records    []CallRecord `json:"records"`
	Navigation Navigation   `json:"navigation"`
	Paging     Paging       `json:"paging"`
}

// HasNextPage reports whether the provider signalled another page.
func (p *CallLogPage) HasNextPage() bool {
	return p.Navigation.NextPage != nil
}

// CallLogTimeLayout is the dateFrom/dateTo format of the call-log API.
const CallLogTimeLayout = "2006-01-02T15:04:05Z"

// CallLogQuery selects voice calls started in [DateFrom, DateTo).
// PerPage 0 leaves the provider default page size.
type CallLogQuery struct {
	DateFrom time.Time
	DateTo   time.Time
	PerPage  int
}
