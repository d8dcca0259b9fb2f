// Package pubsub replicates a log between replicas connected to the same
// in-process hub. Peers announce their heads and pull the records they miss.
package pubsub

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrUnknownPeer = errors.New("unknown peer")

// Message is an announcement published to a topic
type Message struct {
	From  string
	Heads []string
	// Records carries raw records the sender expects to be new for the receivers
	Records [][]byte
}

type peer interface {
	deliver(msg Message)
	serve(ids []string) [][]byte
}

// Hub routes messages between peers grouped by topic, a topic is a replica id
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]peer
}

func NewHub() *Hub {
	return &Hub{topics: map[string]map[string]peer{}}
}

func newPeerId() string {
	return uuid.NewString()
}

func (h *Hub) join(topic, id string, p peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers, ok := h.topics[topic]
	if !ok {
		peers = map[string]peer{}
		h.topics[topic] = peers
	}
	peers[id] = p
}

func (h *Hub) leave(topic, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers := h.topics[topic]
	delete(peers, id)
	if len(peers) == 0 {
		delete(h.topics, topic)
	}
}

// Peers returns the ids of peers joined to topic
func (h *Hub) Peers(topic string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.topics[topic]))
	for id := range h.topics[topic] {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) publish(topic string, msg Message) {
	h.mu.RLock()
	targets := make([]peer, 0, len(h.topics[topic]))
	for id, p := range h.topics[topic] {
		if id != msg.From {
			targets = append(targets, p)
		}
	}
	h.mu.RUnlock()
	for _, p := range targets {
		p.deliver(msg)
	}
}

func (h *Hub) fetch(topic, from string, ids []string) ([][]byte, error) {
	h.mu.RLock()
	p, ok := h.topics[topic][from]
	h.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownPeer
	}
	return p.serve(ids), nil
}
