// Package health implements the background health monitor (§5): a
// periodic, skip-on-miss tick that probes peer connectivity, attempts
// reconnection when the node falls below a minimum peer threshold,
// persists the known-peer directory to disk every few minutes, and
// publishes a read-only Snapshot for the CLI/UI (§6 Health snapshot).
package health

import "github.com/nodalync/engine/internal/primitives"

// Status is the coarse health classification read by the UI/ops.
type Status string

const (
	StatusHealthy      Status = "healthy"
	StatusDegraded     Status = "degraded"
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusOffline      Status = "offline"
)

// Snapshot is the point-in-time health view exposed to callers (§6: active,
// connected peer count, known peer count, uptime seconds, reconnect
// attempts/successes, last check/save timestamps, coarse status, message).
type Snapshot struct {
	Active             bool
	ConnectedPeers     int
	KnownPeers         int
	UptimeSeconds      uint64
	ReconnectAttempts  uint32
	ReconnectSuccesses uint32
	LastCheck          *primitives.Timestamp
	LastPeerSave       *primitives.Timestamp
	Status             Status
	Message            string
}

// offlineSnapshot is what a Monitor reports before its first tick, and
// again once stopped.
func offlineSnapshot() Snapshot {
	return Snapshot{Status: StatusOffline, Message: "network not started"}
}

// classify turns a raw peer/listen-address count into the coarse Status the
// reference monitor reports, unchanged down to the under-a-minute
// "still connecting" grace window.
func classify(peers, listenAddrs int, uptimeSeconds uint64) (Status, string) {
	if listenAddrs == 0 {
		return StatusDegraded, "no listen addresses, network may not be reachable"
	}
	if peers == 0 {
		if uptimeSeconds < 60 {
			return StatusConnecting, "searching for peers"
		}
		return StatusDisconnected, "no peers connected, attempting reconnection"
	}
	if peers < 3 {
		return StatusDegraded, "network is sparse"
	}
	return StatusHealthy, "peers connected"
}
