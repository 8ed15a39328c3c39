package cluster

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/memberlist"
	"github.com/mourao666/cassandra-sim/dht"
	"github.com/mourao666/cassandra-sim/ring"
)

// Config configures a Membership.
type Config struct {
	// Name identifies the node. Default: a random UUID.
	Name string

	// BindAddr and BindPort are the gossip listen address. Port 0 picks a
	// free port.
	BindAddr string
	BindPort int

	// AdvertiseAddr and AdvertisePort override the address announced to
	// peers.
	AdvertiseAddr string
	AdvertisePort int

	// Token is the local node's ring token.
	Token dht.Token

	// Logger receives membership events and memberlist's own log lines.
	Logger *slog.Logger
}

// Membership is the local view of the cluster and the tokens its members
// announced.
type Membership struct {
	p        dht.Partitioner
	list     *memberlist.Memberlist
	delegate *delegate
	logger   *slog.Logger
}

// New starts gossiping on the configured address. The node is alone until
// Join is called.
func New(cfg Config, p dht.Partitioner) (*Membership, error) {
	if p == nil {
		return nil, errors.New("cluster: partitioner is required")
	}
	if cfg.Name == "" {
		cfg.Name = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("node", cfg.Name)

	m := &Membership{p: p, logger: logger}
	m.delegate = newDelegate(Member{Name: cfg.Name, Token: cfg.Token}, p.TokenFactory(), logger, func() int {
		if m.list == nil {
			return 1
		}
		return m.list.NumMembers()
	})

	mlc := memberlist.DefaultLANConfig()
	mlc.Name = cfg.Name
	if cfg.BindAddr != "" {
		mlc.BindAddr = cfg.BindAddr
	}
	mlc.BindPort = cfg.BindPort
	mlc.AdvertiseAddr = cfg.AdvertiseAddr
	mlc.AdvertisePort = cfg.AdvertisePort
	mlc.Delegate = m.delegate
	mlc.Events = m.delegate
	mlc.LogOutput = nil
	mlc.Logger = slog.NewLogLogger(logger.Handler(), slog.LevelDebug)

	list, err := memberlist.Create(mlc)
	if err != nil {
		return nil, fmt.Errorf("create memberlist: %w", err)
	}
	m.list = list

	if addr := list.LocalNode(); addr != nil {
		m.delegate.mu.Lock()
		m.delegate.local.Addr = nodeAddr(addr)
		m.delegate.mu.Unlock()
	}
	return m, nil
}

// Name returns the local node name.
func (m *Membership) Name() string { return m.list.LocalNode().Name }

// Addr returns the local gossip address.
func (m *Membership) Addr() string { return nodeAddr(m.list.LocalNode()) }

// Join contacts seeds and returns how many of them answered.
func (m *Membership) Join(seeds []string) (int, error) {
	if len(seeds) == 0 {
		return 0, nil
	}
	n, err := m.list.Join(seeds)
	if err != nil {
		return n, fmt.Errorf("join %v: %w", seeds, err)
	}
	m.logger.Info("joined cluster", "contacted", n, "members", m.list.NumMembers())
	return n, nil
}

// SetToken changes the local token and announces it.
func (m *Membership) SetToken(tok dht.Token, timeout time.Duration) error {
	m.delegate.setLocalToken(tok)
	if err := m.list.UpdateNode(timeout); err != nil {
		return fmt.Errorf("announce token: %w", err)
	}
	return nil
}

// Token returns the local token.
func (m *Membership) Token() dht.Token {
	m.delegate.mu.RLock()
	defer m.delegate.mu.RUnlock()
	return m.delegate.local.Token
}

// NumMembers returns the number of live members, including the local node.
func (m *Membership) NumMembers() int { return m.list.NumMembers() }

// Members returns every member with a known token, sorted by name.
func (m *Membership) Members() []Member {
	members := m.delegate.members()
	slices.SortFunc(members, func(a, b Member) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return members
}

// Entries returns the members as ring entries.
func (m *Membership) Entries() []ring.Entry {
	return entries(m.delegate.members())
}

// SortedTokens returns the member tokens in ring order.
func (m *Membership) SortedTokens() []dht.Token {
	return sortedTokens(m.p, m.delegate.members())
}

// Ring builds a ring from the current members.
func (m *Membership) Ring(opts ...ring.Option) (*ring.Ring, error) {
	return ring.New(m.p, m.Entries(), opts...)
}

// Leave announces departure and waits up to timeout for it to spread.
func (m *Membership) Leave(timeout time.Duration) error {
	return m.list.Leave(timeout)
}

// Shutdown stops gossiping without announcing departure.
func (m *Membership) Shutdown() error {
	return m.list.Shutdown()
}

func entries(members []Member) []ring.Entry {
	out := make([]ring.Entry, len(members))
	for i, mb := range members {
		out[i] = ring.Entry{Endpoint: mb.Name, Token: mb.Token}
	}
	return out
}

func sortedTokens(p dht.Partitioner, members []Member) []dht.Token {
	tokens := make([]dht.Token, len(members))
	for i, mb := range members {
		tokens[i] = mb.Token
	}
	slices.SortFunc(tokens, p.Compare)
	return tokens
}
