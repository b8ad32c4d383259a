package p2p

import (
	"context"
	"fmt"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/sirupsen/logrus"

	"github.com/nodalync/engine/internal/primitives"
)

// Host wraps a libp2p host and its gossipsub router, the same pairing the
// teacher's network layer builds, generalized to the protocol's own
// control topic and query stream protocol instead of block/orphan gossip.
type Host struct {
	host   host.Host
	pubsub *pubsub.PubSub
	ctx    context.Context
	cancel context.CancelFunc

	Directory *PeerDirectory
	Index     *AnnounceIndex
	DHT       *DHTLocator // nil if Kademlia bootstrap failed; Locator still works off the gossip cache
	Locator   *CompositeLocator

	control *pubsub.Topic
	ownID   primitives.PeerId
	ownPriv primitives.PrivateKey
}

// NewHost creates a libp2p host bound to cfg.ListenAddr, joins the control
// gossip topic, dials any configured bootstrap peers, and registers mDNS
// discovery so locally reachable peers are found without bootstrap
// configuration (the teacher's NewNode does all four in this order).
//
// The host's libp2p identity is derived from the same ed25519 key as the
// node's protocol identity (cfg.Identity), so a stream's authenticated
// remote public key can be used directly as the wire-level payer key
// without a second identity handshake.
func NewHost(ctx context.Context, cfg Config) (*Host, error) {
	if len(cfg.Identity) == 0 {
		return nil, fmt.Errorf("p2p: host requires an identity key")
	}
	priv, err := crypto.UnmarshalEd25519PrivateKey(cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("p2p: unmarshal identity: %w", err)
	}

	hctx, cancel := context.WithCancel(ctx)

	h, err := libp2p.New(
		libp2p.ListenAddrStrings(cfg.ListenAddr),
		libp2p.Identity(priv),
		libp2p.NATPortMap(),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("p2p: create host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(hctx, h)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("p2p: create pubsub: %w", err)
	}

	topic, err := ps.Join(ControlTopic)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("p2p: join control topic: %w", err)
	}

	pubBytes, err := priv.GetPublic().Raw()
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("p2p: derive public key: %w", err)
	}

	n := &Host{
		host:      h,
		pubsub:    ps,
		ctx:       hctx,
		cancel:    cancel,
		Directory: NewPeerDirectory(),
		Index:     NewAnnounceIndex(),
		control:   topic,
		ownID:     primitives.PeerIdFromPublicKey(primitives.PublicKey(pubBytes)),
		ownPriv:   cfg.Identity,
	}

	for _, addr := range cfg.BootstrapPeers {
		ai, err := peer.AddrInfoFromString(addr)
		if err != nil {
			logrus.Warnf("p2p: invalid bootstrap address %s: %v", addr, err)
			continue
		}
		if err := h.Connect(hctx, *ai); err != nil {
			logrus.Warnf("p2p: bootstrap dial %s: %v", addr, err)
			continue
		}
	}

	if cfg.DiscoveryTag != "" {
		mdns.NewMdnsService(h, cfg.DiscoveryTag, &discoveryNotifee{host: n})
	}

	if kad, err := NewDHTLocator(hctx, n); err != nil {
		logrus.Warnf("p2p: kademlia dht unavailable, falling back to gossip-only discovery: %v", err)
	} else {
		n.DHT = kad
	}
	n.Locator = &CompositeLocator{Cache: n.Index, DHT: n.DHT}

	go n.consumeControlTopic()

	return n, nil
}

// ID returns the node's protocol-level peer identity.
func (n *Host) ID() primitives.PeerId { return n.ownID }

// Addrs returns the host's listen multiaddrs as strings, suitable for a
// PeerInfoPayload broadcast.
func (n *Host) Addrs() []string {
	addrs := n.host.Addrs()
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, fmt.Sprintf("%s/p2p/%s", a.String(), n.host.ID().String()))
	}
	return out
}

// ConnectedPeers returns the number of libp2p peers this host currently
// holds an open connection to.
func (n *Host) ConnectedPeers() int {
	return len(n.host.Network().Peers())
}

// KnownPeers returns a snapshot of every peer this host has learned an
// address for, for the health monitor's periodic directory save.
func (n *Host) KnownPeers() []PeerAddr {
	return n.Directory.Entries()
}

// Reconnect dials a previously-known peer address (typically one recalled
// from health.PeerStore), the same recovery path attempt_reconnect takes in
// the reference health monitor.
func (n *Host) Reconnect(ctx context.Context, addr string) error {
	ai, err := peer.AddrInfoFromString(addr)
	if err != nil {
		return fmt.Errorf("p2p: parse reconnect address: %w", err)
	}
	return n.host.Connect(ctx, *ai)
}

// Bootstrap re-runs Kademlia bootstrap, called after a batch of
// reconnections to re-seed routing table entries that may have gone stale.
func (n *Host) Bootstrap(ctx context.Context) error {
	if n.DHT == nil {
		return nil
	}
	return n.DHT.dht.Bootstrap(ctx)
}

// Close tears down the DHT, the pubsub subscription, and the libp2p host.
func (n *Host) Close() error {
	n.cancel()
	if n.DHT != nil {
		_ = n.DHT.Close()
	}
	return n.host.Close()
}

// discoveryNotifee bridges mDNS-discovered peers into the libp2p host's
// connection manager, mirroring the teacher's Node.HandlePeerFound but
// without protocol-level peer bookkeeping: mDNS only tells us a libp2p
// peer.ID is locally reachable, not which content-protocol identity it
// maps to. That mapping still arrives over the control topic's PeerInfo
// broadcasts once connected.
type discoveryNotifee struct {
	host *Host
}

func (d *discoveryNotifee) HandlePeerFound(info peer.AddrInfo) {
	if info.ID == d.host.host.ID() {
		return
	}
	if err := d.host.host.Connect(d.host.ctx, info); err != nil {
		logrus.Warnf("p2p: mdns connect to %s: %v", info.ID, err)
	}
}
