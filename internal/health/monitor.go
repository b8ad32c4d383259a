package health

import (
	"context"
	"sync"
	"time"

	"github.com/nodalync/engine/internal/adapter"
	"github.com/nodalync/engine/internal/logctx"
	"github.com/nodalync/engine/internal/p2p"
	"github.com/nodalync/engine/internal/primitives"
)

// Default cadences, unchanged from the reference monitor: a 30s health
// check and a 5 minute peer-directory save.
const (
	DefaultCheckInterval    = 30 * time.Second
	DefaultPeerSaveInterval = 5 * time.Minute

	minPeerThreshold     = 1
	maxReconnectAttempts = 10
)

// NetworkView is the subset of *p2p.Host the monitor needs: connectivity
// probing, known-peer enumeration, and reconnection. A narrow interface
// keeps this package testable without a real libp2p swarm, the same
// boundary internal/ops draws around its own Transport/Locator/Announcer.
type NetworkView interface {
	Addrs() []string
	ConnectedPeers() int
	KnownPeers() []p2p.PeerAddr
	Reconnect(ctx context.Context, addr string) error
	Bootstrap(ctx context.Context) error
}

// EngineView is the subset of *ops.Engine the monitor drives on its idle
// tick (§5: "a settlement trigger check runs ... whenever an idle tick
// fires").
type EngineView interface {
	ShouldSettle(now primitives.Timestamp) (bool, error)
	TriggerSettlement(ctx context.Context, now primitives.Timestamp) (adapter.TransactionID, error)
}

// Monitor runs the periodic background health check described in §5.
type Monitor struct {
	network NetworkView
	engine  EngineView
	peers   *PeerStore

	checkInterval    time.Duration
	peerSaveInterval time.Duration

	mu       sync.RWMutex
	snapshot Snapshot

	start              time.Time
	lastPeerSave       time.Time
	reconnectAttempts  uint32
	reconnectSuccesses uint32

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor constructs a Monitor at the reference cadence. engine and
// peers may be nil: a nil engine skips the settlement-trigger check, a nil
// peer store skips reconnection and directory persistence.
func NewMonitor(network NetworkView, engine EngineView, peers *PeerStore) *Monitor {
	now := time.Now()
	return &Monitor{
		network:          network,
		engine:           engine,
		peers:            peers,
		checkInterval:    DefaultCheckInterval,
		peerSaveInterval: DefaultPeerSaveInterval,
		snapshot:         offlineSnapshot(),
		start:            now,
		lastPeerSave:     now,
	}
}

// WithIntervals overrides the check/peer-save cadence. Tests use this to
// avoid waiting on the real 30s/5m defaults.
func (m *Monitor) WithIntervals(check, peerSave time.Duration) *Monitor {
	m.checkInterval = check
	m.peerSaveInterval = peerSave
	return m
}

// Start launches the monitor loop in a background goroutine. Cancelling ctx
// or calling Stop both end it.
func (m *Monitor) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.start = time.Now()
	m.lastPeerSave = time.Now()
	m.done = make(chan struct{})

	go m.run(runCtx)
}

// Stop signals the monitor to end its loop and waits for it to finish.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// Snapshot returns the most recently computed health snapshot.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	logctx.For("health").Info("health monitor loop started")

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.snapshot.Active = false
			m.snapshot.Status = StatusOffline
			m.snapshot.Message = "network stopped"
			m.mu.Unlock()
			logctx.For("health").Info("health monitor stopped")
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick runs one check cycle: peer-count probe, reconnect-if-needed,
// periodic peer-directory save, settlement trigger, and snapshot refresh.
// time.Ticker already drops a tick if the receiver is still busy when the
// next one fires, giving the same skip-on-miss behavior the reference
// monitor configures explicitly on its interval.
func (m *Monitor) tick(ctx context.Context) {
	now := time.Now()
	peerCount := m.network.ConnectedPeers()
	listenAddrs := len(m.network.Addrs())

	if peerCount < minPeerThreshold {
		m.reconnect(ctx)
	}

	var lastSave *primitives.Timestamp
	if now.Sub(m.lastPeerSave) >= m.peerSaveInterval {
		m.savePeers()
		ts := primitives.Timestamp(now.UnixMilli())
		lastSave = &ts
		m.lastPeerSave = now
	}

	m.maybeTriggerSettlement(ctx, now)

	known := 0
	if m.peers != nil {
		if n, err := m.peers.Count(); err == nil {
			known = n
		}
	}

	uptime := uint64(now.Sub(m.start).Seconds())
	status, message := classify(peerCount, listenAddrs, uptime)
	checkTS := primitives.Timestamp(now.UnixMilli())

	m.mu.Lock()
	m.snapshot.Active = true
	m.snapshot.ConnectedPeers = peerCount
	m.snapshot.KnownPeers = known
	m.snapshot.UptimeSeconds = uptime
	m.snapshot.ReconnectAttempts = m.reconnectAttempts
	m.snapshot.ReconnectSuccesses = m.reconnectSuccesses
	m.snapshot.LastCheck = &checkTS
	if lastSave != nil {
		m.snapshot.LastPeerSave = lastSave
	}
	m.snapshot.Status = status
	m.snapshot.Message = message
	m.mu.Unlock()
}

func (m *Monitor) maybeTriggerSettlement(ctx context.Context, now time.Time) {
	if m.engine == nil {
		return
	}
	at := primitives.Timestamp(now.UnixMilli())
	due, err := m.engine.ShouldSettle(at)
	if err != nil {
		logctx.For("health").WithError(err).Warn("settlement trigger check failed")
		return
	}
	if !due {
		return
	}
	if _, err := m.engine.TriggerSettlement(ctx, at); err != nil {
		logctx.For("health").WithError(err).Warn("settlement trigger failed")
	}
}

// reconnect dials up to maxReconnectAttempts known peers from the
// persistent store, then re-bootstraps the DHT, mirroring
// attempt_reconnect in the reference monitor.
func (m *Monitor) reconnect(ctx context.Context) {
	if m.peers == nil {
		return
	}
	entries, err := m.peers.BootstrapEntries(maxReconnectAttempts)
	if err != nil || len(entries) == 0 {
		return
	}

	logctx.For("health").WithField("candidates", len(entries)).Info("attempting reconnection to known peers")

	for _, rec := range entries {
		for _, addr := range rec.Addresses {
			m.mu.Lock()
			m.reconnectAttempts++
			m.mu.Unlock()

			if err := m.network.Reconnect(ctx, addr); err != nil {
				logctx.For("health").WithField("addr", addr).WithError(err).Debug("reconnect attempt failed")
				continue
			}
			m.mu.Lock()
			m.reconnectSuccesses++
			m.mu.Unlock()
			break
		}
	}

	if err := m.network.Bootstrap(ctx); err != nil {
		logctx.For("health").WithError(err).Debug("post-reconnect bootstrap note")
	}
}

// savePeers durable-izes the network's live directory into the persistent
// PeerStore, the supplemented feature from the original's peer_store.rs.
func (m *Monitor) savePeers() {
	if m.peers == nil {
		return
	}
	now := primitives.Timestamp(time.Now().UnixMilli())
	for _, known := range m.network.KnownPeers() {
		rec := PeerRecord{PeerID: known.PeerID, Addresses: known.Addresses, LastSeen: now}
		if err := m.peers.Upsert(rec); err != nil {
			logctx.For("health").WithError(err).Warn("failed to persist peer record")
		}
	}
}
