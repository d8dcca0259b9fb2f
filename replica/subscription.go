package replica

import (
	"sync"

	"github.com/hldb/welo-sub001/util/lifecycle"
)

// Update is emitted after a graph change has been materialized
type Update struct {
	Heads []string
	// Applied lists the records materialized since the previous update was received
	Applied []string
}

// Subscription delivers updates with last-value-wins semantics: a slow reader
// gets the latest heads with the applied ids of all skipped updates merged in.
type Subscription struct {
	ch chan Update
}

// Updates is closed on Unsubscribe or when the replica stops
func (s *Subscription) Updates() <-chan Update {
	return s.ch
}

func (s *Subscription) push(u Update) {
	for {
		select {
		case s.ch <- u:
			return
		default:
		}
		select {
		case old := <-s.ch:
			u.Applied = append(old.Applied, u.Applied...)
		default:
		}
	}
}

type subscriptions struct {
	mu     sync.Mutex
	active bool
	set    map[*Subscription]struct{}
}

func (s *subscriptions) open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.set = map[*Subscription]struct{}{}
}

func (s *subscriptions) add() (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, lifecycle.ErrNotStarted
	}
	sub := &Subscription{ch: make(chan Update, 1)}
	s.set[sub] = struct{}{}
	return sub, nil
}

func (s *subscriptions) remove(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[sub]; ok {
		delete(s.set, sub)
		close(sub.ch)
	}
}

func (s *subscriptions) publish(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.set {
		sub.push(Update{Heads: u.Heads, Applied: append([]string(nil), u.Applied...)})
	}
}

func (s *subscriptions) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	for sub := range s.set {
		close(sub.ch)
	}
	s.set = nil
}

// Subscribe returns a subscription to updates, only a started replica accepts subscribers
func (r *Replica) Subscribe() (*Subscription, error) {
	return r.subs.add()
}

func (r *Replica) Unsubscribe(sub *Subscription) {
	r.subs.remove(sub)
}
