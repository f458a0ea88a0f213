// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package chat

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ManuGH/ecosystem/internal/log"
	"github.com/ManuGH/ecosystem/internal/metrics"
)

// peer is a joined client. out is written by the peer's writer goroutine and
// closed by the room when the peer is removed.
type peer struct {
	addr     string
	username string
	out      chan Message
	gone     atomic.Bool
	dropped  atomic.Int64
}

func newPeer(addr, username string, queueSize int) *peer {
	return &peer{addr: addr, username: username, out: make(chan Message, queueSize)}
}

// room is the set of joined peers keyed by remote address.
type room struct {
	mu     sync.Mutex
	peers  map[string]*peer
	logger zerolog.Logger
}

func newRoom(logger zerolog.Logger) *room {
	return &room{peers: make(map[string]*peer), logger: logger}
}

func (r *room) add(p *peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[p.addr] = p
	metrics.ChatPeerJoined()
}

// remove drops p from the room and closes its queue. It reports whether p
// was still present.
func (r *room) remove(p *peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(p)
}

func (r *room) removeLocked(p *peer) bool {
	cur, ok := r.peers[p.addr]
	if !ok || cur != p {
		return false
	}
	delete(r.peers, p.addr)
	close(p.out)
	metrics.ChatPeerLeft()
	return true
}

// broadcast queues msg for every peer except from. Peers whose writer has
// failed are removed; peers with a full queue miss this message.
func (r *room) broadcast(from *peer, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.peers {
		if p == from {
			continue
		}
		if p.gone.Load() {
			r.logger.Warn().
				Str(log.FieldEvent, "chat.peer_gone").
				Str(log.FieldPeer, p.addr).
				Msg("removing peer with failed writer")
			r.removeLocked(p)
			continue
		}
		select {
		case p.out <- msg:
		default:
			p.dropped.Add(1)
			metrics.RecordChatDropped()
			r.logger.Debug().
				Str(log.FieldEvent, "chat.message_dropped").
				Str(log.FieldPeer, p.addr).
				Msg("peer queue full, message dropped")
		}
	}
}

func (r *room) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}
