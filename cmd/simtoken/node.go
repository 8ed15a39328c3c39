package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mourao666/cassandra-sim/blobstore"
	"github.com/mourao666/cassandra-sim/cluster"
	"github.com/mourao666/cassandra-sim/dht"
	"github.com/mourao666/cassandra-sim/internal/server"
	metricsprom "github.com/mourao666/cassandra-sim/metrics/prometheus"
	"github.com/mourao666/cassandra-sim/ring"
	"github.com/mourao666/cassandra-sim/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// announceTimeout bounds how long a token change waits to reach peers.
const announceTimeout = 5 * time.Second

// minOpenFiles is the descriptor limit below which an on-disk store warns.
// Badger keeps every table and value log file open.
const minOpenFiles = 4096

// node is one running simtoken process.
type node struct {
	name     string
	logger   *dht.Logger
	blobs    blobstore.Store
	store    *storage.Store
	p        *dht.SimilarityPartitioner
	registry *prometheus.Registry
	handler  *server.Server

	// Exactly one of membership and static is set.
	membership *cluster.Membership
	static     *ring.Ring
}

func (a *app) newNode(ctx context.Context, seeds []string) (_ *node, err error) {
	n := &node{logger: a.logger, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			n.close()
		}
	}()

	n.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metricsprom.New(n.registry)
	if err != nil {
		return nil, err
	}

	if n.blobs, err = openBlobStore(ctx, a.cfg.BlobStore); err != nil {
		return nil, err
	}
	bank, err := loadBank(ctx, a.cfg.Bank, n.blobs)
	if err != nil {
		return nil, err
	}

	base, err := dht.NewSimilarityPartitioner(bank)
	if err != nil {
		return nil, err
	}
	sc := a.cfg.Storage
	if !sc.InMemory {
		if limit, ok := openFileLimit(); ok && limit < minOpenFiles {
			a.logger.Warn("open file limit is low for an on-disk store", "limit", limit, "recommended", minOpenFiles)
		}
	}
	n.store, err = storage.Open(storage.Config{
		Path:           sc.Path,
		InMemory:       sc.InMemory,
		SyncWrites:     sc.SyncWrites,
		Logger:         a.logger.Logger,
		GCInterval:     sc.GCInterval,
		GCDiscardRatio: sc.GCDiscardRatio,
		KeysPerSplit:   sc.KeysPerSplit,
	}, base)
	if err != nil {
		return nil, err
	}

	n.p, err = dht.NewSimilarityPartitioner(bank, a.partitionerOptions(
		dht.WithCatalog(n.store),
		dht.WithMetricsCollector(collector),
	)...)
	if err != nil {
		return nil, err
	}

	tok := n.p.RandomToken()
	if a.cfg.Cluster.Token != "" {
		if tok, err = n.p.TokenFactory().FromString(a.cfg.Cluster.Token); err != nil {
			return nil, fmt.Errorf("cluster.token: %w", err)
		}
	}

	var tokenRing server.TokenRing
	if a.cfg.Cluster.Enabled {
		if err := n.startCluster(ctx, a, tok, seeds); err != nil {
			return nil, err
		}
		tokenRing = n.membership
	} else {
		if err := n.startStatic(ctx, a, tok); err != nil {
			return nil, err
		}
		tokenRing = n.static
	}

	n.handler = server.New(n.p,
		server.WithLogger(a.logger),
		server.WithRing(tokenRing),
		server.WithRowStore(n.store),
		server.WithGatherer(n.registry),
		server.WithCORSOrigins(a.cfg.HTTP.CORSOrigins...),
		server.WithRequestTimeout(a.cfg.HTTP.WriteTimeout),
	)
	return n, nil
}

func (n *node) startCluster(ctx context.Context, a *app, tok dht.Token, seeds []string) error {
	cc := a.cfg.Cluster
	m, err := cluster.New(cluster.Config{
		Name:          cc.Name,
		BindAddr:      cc.BindAddr,
		BindPort:      cc.BindPort,
		AdvertiseAddr: cc.AdvertiseAddr,
		AdvertisePort: cc.AdvertisePort,
		Token:         tok,
		Logger:        a.logger.Logger,
	}, n.p)
	if err != nil {
		return err
	}
	n.membership = m
	n.name = m.Name()

	if len(seeds) == 0 {
		return nil
	}
	if _, err := m.Join(seeds); err != nil {
		n.logger.Warn("join failed, running alone", "seeds", seeds, "error", err)
		return nil
	}
	if cc.Token == "" {
		n.rebalance(ctx)
	}
	return nil
}

// rebalance moves the local token into the heaviest splittable range.
// The random token is kept when ownership cannot be described yet or no
// range can be split.
func (n *node) rebalance(ctx context.Context) {
	r, err := n.membership.Ring(ring.WithLogger(n.logger))
	if err != nil {
		n.logger.Debug("keeping initial token", "error", err)
		return
	}
	tok, err := r.SuggestToken(ctx)
	if err != nil {
		n.logger.Debug("keeping initial token", "error", err)
		return
	}
	if err := n.membership.SetToken(tok, announceTimeout); err != nil {
		n.logger.Warn("announce suggested token", "error", err)
		return
	}
	n.logger.WithToken(tok).Info("moved to suggested token")
}

// startStatic restores this node's ring snapshot, or starts a one-node ring.
func (n *node) startStatic(ctx context.Context, a *app, tok dht.Token) error {
	n.name = a.cfg.Cluster.Name
	if n.name == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "local"
		}
		n.name = host
	}

	r, err := ring.LoadSnapshot(ctx, n.blobs, n.snapshotName(), n.p, nil, ring.WithLogger(n.logger))
	switch {
	case err == nil:
		n.logger.Info("ring restored", "tokens", r.Len())
	case errors.Is(err, blobstore.ErrNotFound):
		r, err = ring.New(n.p, []ring.Entry{{Endpoint: n.name, Token: tok}}, ring.WithLogger(n.logger))
		if err != nil {
			return err
		}
	default:
		return err
	}
	n.static = r
	return nil
}

func (n *node) snapshotName() string { return "rings/" + n.name + ".json" }

// currentRing returns the ring as this node sees it now.
func (n *node) currentRing() (*ring.Ring, error) {
	if n.membership != nil {
		return n.membership.Ring(ring.WithLogger(n.logger))
	}
	return n.static, nil
}

// shutdown saves the ring snapshot, leaves the cluster and closes storage.
func (n *node) shutdown(ctx context.Context, leaveTimeout time.Duration) error {
	var errs []error
	if r, err := n.currentRing(); err == nil && r != nil {
		if err := ring.SaveSnapshot(ctx, n.blobs, n.snapshotName(), r, nil); err != nil {
			errs = append(errs, fmt.Errorf("save ring snapshot: %w", err))
		}
	}
	if n.membership != nil {
		if err := n.membership.Leave(leaveTimeout); err != nil {
			errs = append(errs, fmt.Errorf("leave cluster: %w", err))
		}
	}
	errs = append(errs, n.close())
	return errors.Join(errs...)
}

func (n *node) close() error {
	var errs []error
	if n.membership != nil {
		errs = append(errs, n.membership.Shutdown())
	}
	if n.store != nil {
		errs = append(errs, n.store.Close())
	}
	if c, ok := n.blobs.(*blobstore.CachingStore); ok {
		c.Close()
	}
	return errors.Join(errs...)
}
