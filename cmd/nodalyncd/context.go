package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/nodalync/engine/internal/adapter"
	"github.com/nodalync/engine/internal/cache"
	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/content"
	"github.com/nodalync/engine/internal/extract"
	"github.com/nodalync/engine/internal/health"
	"github.com/nodalync/engine/internal/logctx"
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/ops"
	"github.com/nodalync/engine/internal/p2p"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/provenance"
	"github.com/nodalync/engine/internal/settlement"
	"github.com/nodalync/engine/pkg/config"
)

// nodeContext bundles everything a command needs: the already-open stores
// and operations engine, plus, for commands that require it, a live libp2p
// host and background health monitor. This mirrors the reference CLI's
// NodeContext: a local() variant for storage-only commands (list, preview)
// and a withNetwork() variant for commands that must reach the outside
// world (publish, query, start).
type nodeContext struct {
	cfg    *config.Config
	engine *ops.Engine

	host    *p2p.Host
	monitor *health.Monitor
	peers   *health.PeerStore

	closers []func() error
}

func (n *nodeContext) Close() {
	if n.monitor != nil {
		n.monitor.Stop()
	}
	if n.host != nil {
		_ = n.host.Close()
	}
	for i := len(n.closers) - 1; i >= 0; i-- {
		_ = n.closers[i]()
	}
}

func openStores(cfg *config.Config) (*ops.Engine, []func() error, error) {
	var closers []func() error

	contentStore, err := content.New(cfg.ContentDir())
	if err != nil {
		return nil, nil, fmt.Errorf("open content store: %w", err)
	}

	manifests, err := manifest.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open manifest store: %w", err)
	}
	closers = append(closers, manifests.Close)

	prov, err := provenance.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open provenance graph: %w", err)
	}
	closers = append(closers, prov.Close)

	channels, err := channel.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open channel store: %w", err)
	}
	closers = append(closers, channels.Close)

	cacheStore, err := cache.Open(cfg.CacheDir())
	if err != nil {
		return nil, nil, fmt.Errorf("open cache store: %w", err)
	}
	closers = append(closers, cacheStore.Close)

	queue, err := settlement.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open settlement queue: %w", err)
	}
	closers = append(closers, queue.Close)

	keystore, err := primitives.NewKeyStore(cfg.IdentityDir())
	if err != nil {
		return nil, nil, fmt.Errorf("open identity directory: %w", err)
	}
	if !keystore.Exists() {
		return nil, nil, errIdentityNotInitialized
	}
	peerID, err := keystore.LoadPeerID()
	if err != nil {
		return nil, nil, fmt.Errorf("load peer id: %w", err)
	}

	engine := ops.New(peerID, nil, cfg.OpsConfig(), contentStore, manifests, prov, channels, cacheStore, queue)
	engine.Extractor = extract.NewRuleBasedExtractor()

	return engine, closers, nil
}

// localContext opens every store but does not load the identity's private
// key or start networking. Suitable for storage-only commands.
func localContext(cfg *config.Config) (*nodeContext, error) {
	engine, closers, err := openStores(cfg)
	if err != nil {
		return nil, err
	}
	return &nodeContext{cfg: cfg, engine: engine, closers: closers}, nil
}

// identityContext opens every store and loads the identity's private key,
// but never starts the libp2p host or health monitor. Suitable for
// commands that must sign a channel state offline (close, dispute,
// counter-dispute).
func identityContext(cfg *config.Config) (*nodeContext, error) {
	engine, closers, err := openStores(cfg)
	if err != nil {
		return nil, err
	}
	keystore, err := primitives.NewKeyStore(cfg.IdentityDir())
	if err != nil {
		return nil, fmt.Errorf("open identity directory: %w", err)
	}
	password, err := readPassword("Identity password: ")
	if err != nil {
		return nil, err
	}
	priv, _, err := keystore.Load(password)
	if err != nil {
		return nil, err
	}
	engine.PrivateKey = priv
	if settlementAdapter, ok := buildSettlementAdapter(cfg); ok {
		engine.Settlement = settlementAdapter
	}
	return &nodeContext{cfg: cfg, engine: engine, closers: closers}, nil
}

// networkedContext loads the identity's private key (prompting for its
// password on the controlling terminal), starts the libp2p host, registers
// the query handler, and launches the background health monitor.
func networkedContext(ctx context.Context, cfg *config.Config) (*nodeContext, error) {
	engine, closers, err := openStores(cfg)
	if err != nil {
		return nil, err
	}

	keystore, err := primitives.NewKeyStore(cfg.IdentityDir())
	if err != nil {
		return nil, fmt.Errorf("open identity directory: %w", err)
	}
	password, err := readPassword("Identity password: ")
	if err != nil {
		return nil, err
	}
	priv, _, err := keystore.Load(password)
	if err != nil {
		return nil, err
	}
	engine.PrivateKey = priv

	host, err := p2p.NewHost(ctx, cfg.P2PConfig(priv))
	if err != nil {
		return nil, fmt.Errorf("start network host: %w", err)
	}
	engine.Announcer = host
	engine.Locator = host.Locator
	engine.Transport = host
	p2p.RegisterQueryHandler(host, engine)

	if settlementAdapter, ok := buildSettlementAdapter(cfg); ok {
		engine.Settlement = settlementAdapter
	}

	peers, err := health.OpenPeerStore(cfg.PeersDBPath())
	if err != nil {
		_ = host.Close()
		return nil, fmt.Errorf("open peer store: %w", err)
	}

	checkMs, peerSaveMs := cfg.HealthIntervals()
	monitor := health.NewMonitor(host, engine, peers).
		WithIntervals(msToDuration(checkMs), msToDuration(peerSaveMs))
	monitor.Start(ctx)

	return &nodeContext{
		cfg:     cfg,
		engine:  engine,
		host:    host,
		monitor: monitor,
		peers:   peers,
		closers: closers,
	}, nil
}

func readPassword(prompt string) (string, error) {
	if env := os.Getenv("NODALYNC_IDENTITY_PASSWORD"); env != "" {
		return env, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func configureLogging(cfg *config.Config) {
	lvl, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	lg := logrus.New()
	lg.SetLevel(lvl)
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			lg.SetOutput(f)
		}
	}
	logctx.SetLogger(lg)
}

// buildSettlementAdapter wires the in-memory settlement adapter from the
// configured settlement.account_id (shard.realm.num form). No real
// on-chain settlement SDK is wired into this repository (§4.L is reached
// only through the pluggable SettlementAdapter interface), so a node
// without settlement.account_id configured runs with Settlement left nil
// and fails paid queries closed, exactly as the engine is designed to.
func buildSettlementAdapter(cfg *config.Config) (*adapter.MockAdapter, bool) {
	if cfg.Settlement.AccountID == "" {
		return nil, false
	}
	account, err := parseAccountID(cfg.Settlement.AccountID)
	if err != nil {
		logctx.For("nodalyncd").WithError(err).Warn("ignoring invalid settlement.account_id")
		return nil, false
	}
	return adapter.New(0).WithAccount(account), true
}

// parseAccountID parses Hedera-style "shard.realm.num" identifiers.
func parseAccountID(s string) (adapter.AccountID, error) {
	var a adapter.AccountID
	n, err := fmt.Sscanf(s, "%d.%d.%d", &a.Shard, &a.Realm, &a.Num)
	if err != nil || n != 3 {
		return adapter.AccountID{}, fmt.Errorf("invalid account id %q: expected shard.realm.num", s)
	}
	return a, nil
}
