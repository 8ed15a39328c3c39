package cluster

import (
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/hashicorp/memberlist"
	"github.com/mourao666/cassandra-sim/codec"
	"github.com/mourao666/cassandra-sim/dht"
)

// Member is a node and the token it announced.
type Member struct {
	Name  string    `json:"name"`
	Addr  string    `json:"addr,omitempty"`
	Token dht.Token `json:"token"`
}

// tokenMessage is the gossip payload for broadcasts and state sync.
type tokenMessage struct {
	Name  string    `json:"name"`
	Token dht.Token `json:"token"`
}

// delegate implements memberlist.Delegate and memberlist.EventDelegate.
type delegate struct {
	factory dht.TokenFactory
	codec   codec.Codec
	logger  *slog.Logger

	mu    sync.RWMutex
	local Member
	peers map[string]Member
	queue *memberlist.TransmitLimitedQueue
}

var (
	_ memberlist.Delegate      = (*delegate)(nil)
	_ memberlist.EventDelegate = (*delegate)(nil)
)

func newDelegate(local Member, factory dht.TokenFactory, logger *slog.Logger, numNodes func() int) *delegate {
	return &delegate{
		factory: factory,
		codec:   codec.Default,
		logger:  logger,
		local:   local,
		peers:   make(map[string]Member),
		queue: &memberlist.TransmitLimitedQueue{
			NumNodes:       numNodes,
			RetransmitMult: 3,
		},
	}
}

// NodeMeta implements memberlist.Delegate.
func (d *delegate) NodeMeta(limit int) []byte {
	d.mu.RLock()
	tok := d.local.Token
	d.mu.RUnlock()

	meta, err := EncodeMeta(tok)
	if err != nil || len(meta) > limit {
		d.logger.Error("token does not fit in node metadata", "limit", limit, "error", err)
		return nil
	}
	return meta
}

// NotifyMsg implements memberlist.Delegate.
func (d *delegate) NotifyMsg(buf []byte) {
	var msg tokenMessage
	if err := d.codec.Unmarshal(buf, &msg); err != nil {
		d.logger.Warn("dropping malformed token broadcast", "error", err)
		return
	}
	d.observe(msg)
}

// GetBroadcasts implements memberlist.Delegate.
func (d *delegate) GetBroadcasts(overhead, limit int) [][]byte {
	return d.queue.GetBroadcasts(overhead, limit)
}

// LocalState implements memberlist.Delegate. Only the local token is sent;
// other members announce their own.
func (d *delegate) LocalState(bool) []byte {
	d.mu.RLock()
	msg := tokenMessage{Name: d.local.Name, Token: d.local.Token}
	d.mu.RUnlock()

	buf, err := d.codec.Marshal(msg)
	if err != nil {
		d.logger.Error("encode local state", "error", err)
		return nil
	}
	return buf
}

// MergeRemoteState implements memberlist.Delegate.
func (d *delegate) MergeRemoteState(buf []byte, _ bool) {
	var msg tokenMessage
	if err := d.codec.Unmarshal(buf, &msg); err != nil {
		d.logger.Warn("dropping malformed remote state", "error", err)
		return
	}
	d.observe(msg)
}

// NotifyJoin implements memberlist.EventDelegate.
func (d *delegate) NotifyJoin(node *memberlist.Node) {
	d.logger.Info("node joined", "node", node.Name, "addr", nodeAddr(node))
	d.observeNode(node)
}

// NotifyUpdate implements memberlist.EventDelegate.
func (d *delegate) NotifyUpdate(node *memberlist.Node) {
	d.observeNode(node)
}

// NotifyLeave implements memberlist.EventDelegate.
func (d *delegate) NotifyLeave(node *memberlist.Node) {
	d.logger.Info("node left", "node", node.Name)

	d.mu.Lock()
	delete(d.peers, node.Name)
	d.mu.Unlock()
}

func (d *delegate) observeNode(node *memberlist.Node) {
	tok, ok, err := DecodeMeta(d.factory, node.Meta)
	if err != nil {
		d.logger.Warn("ignoring node metadata", "node", node.Name, "error", err)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if node.Name == d.local.Name {
		return
	}
	m, known := d.peers[node.Name]
	m.Name = node.Name
	m.Addr = nodeAddr(node)
	if ok {
		m.Token = tok
	} else if !known {
		// Joined without metadata; wait for a broadcast or state sync.
		return
	}
	d.peers[node.Name] = m
}

// observe refreshes a token learned from gossip. Only members memberlist
// reported alive are updated, so late messages cannot resurrect a node that
// left.
func (d *delegate) observe(msg tokenMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()

	m, known := d.peers[msg.Name]
	if !known {
		return
	}
	m.Token = msg.Token
	d.peers[msg.Name] = m
}

func (d *delegate) setLocalToken(tok dht.Token) {
	d.mu.Lock()
	d.local.Token = tok
	name := d.local.Name
	d.mu.Unlock()

	buf, err := d.codec.Marshal(tokenMessage{Name: name, Token: tok})
	if err != nil {
		d.logger.Error("encode token broadcast", "error", err)
		return
	}
	d.queue.QueueBroadcast(&tokenBroadcast{name: name, msg: buf})
}

func (d *delegate) members() []Member {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Member, 0, len(d.peers)+1)
	out = append(out, d.local)
	for _, m := range d.peers {
		out = append(out, m)
	}
	return out
}

func nodeAddr(node *memberlist.Node) string {
	if node.Addr == nil {
		return ""
	}
	return net.JoinHostPort(node.Addr.String(), strconv.Itoa(int(node.Port)))
}

// tokenBroadcast implements memberlist.NamedBroadcast. A newer announcement
// from the same node replaces a queued one.
type tokenBroadcast struct {
	name string
	msg  []byte
}

func (b *tokenBroadcast) Invalidates(other memberlist.Broadcast) bool {
	o, ok := other.(*tokenBroadcast)
	return ok && o.name == b.name
}

func (b *tokenBroadcast) Name() string    { return b.name }
func (b *tokenBroadcast) Message() []byte { return b.msg }
func (b *tokenBroadcast) Finished()       {}
