// Package observability collects lightweight process counters. The runtime
// components increment them on their hot paths; the telemetry worker reads a
// snapshot periodically and logs it. Not a metrics backend, just enough
// visibility for the failures the core intentionally keeps silent on the wire.
package observability

import "sync/atomic"

type Metrics struct {
	connectionsOpened  atomic.Uint64
	connectionsClosed  atomic.Uint64
	authSuccesses      atomic.Uint64
	authFailures       atomic.Uint64
	rejectedMessages   atomic.Uint64
	routedMessages     atomic.Uint64
	droppedEvents      atomic.Uint64
	instanceFaults     atomic.Uint64
	undeliverableSends atomic.Uint64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	ConnectionsOpened  uint64
	ConnectionsClosed  uint64
	AuthSuccesses      uint64
	AuthFailures       uint64
	RejectedMessages   uint64
	RoutedMessages     uint64
	DroppedEvents      uint64
	InstanceFaults     uint64
	UndeliverableSends uint64
}

func NewMetrics() *Metrics { return &Metrics{} }

// All increment methods tolerate a nil receiver so components can run
// without metrics wired in (tests mostly).

func (m *Metrics) IncrConnectionsOpened() {
	if m != nil {
		m.connectionsOpened.Add(1)
	}
}

func (m *Metrics) IncrConnectionsClosed() {
	if m != nil {
		m.connectionsClosed.Add(1)
	}
}

func (m *Metrics) IncrAuthSuccesses() {
	if m != nil {
		m.authSuccesses.Add(1)
	}
}

func (m *Metrics) IncrAuthFailures() {
	if m != nil {
		m.authFailures.Add(1)
	}
}

func (m *Metrics) IncrRejectedMessages() {
	if m != nil {
		m.rejectedMessages.Add(1)
	}
}

func (m *Metrics) IncrRoutedMessages() {
	if m != nil {
		m.routedMessages.Add(1)
	}
}

func (m *Metrics) IncrDroppedEvents() {
	if m != nil {
		m.droppedEvents.Add(1)
	}
}

func (m *Metrics) IncrInstanceFaults() {
	if m != nil {
		m.instanceFaults.Add(1)
	}
}

func (m *Metrics) IncrUndeliverableSends() {
	if m != nil {
		m.undeliverableSends.Add(1)
	}
}

func (m *Metrics) GetSnapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		ConnectionsOpened:  m.connectionsOpened.Load(),
		ConnectionsClosed:  m.connectionsClosed.Load(),
		AuthSuccesses:      m.authSuccesses.Load(),
		AuthFailures:       m.authFailures.Load(),
		RejectedMessages:   m.rejectedMessages.Load(),
		RoutedMessages:     m.routedMessages.Load(),
		DroppedEvents:      m.droppedEvents.Load(),
		InstanceFaults:     m.instanceFaults.Load(),
		UndeliverableSends: m.undeliverableSends.Load(),
	}
}
