// Package closure tracks every identifier a replica has seen or been pointed
// at, together with the edges between them and their existence state.
package closure

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/hldb/welo-sub001/replica/record"
)

type State int

const (
	// StateMissing is a node known only because something references it
	StateMissing State = iota
	// StatePresent is an accepted record, its references are outbound edges
	StatePresent
	// StateDenied is a record that failed access control, its references don't propagate
	StateDenied
	// StatePending is a record waiting for its epochs to be known before access can be checked
	StatePending
)

func (s State) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StatePresent:
		return "present"
	case StateDenied:
		return "denied"
	case StatePending:
		return "pending"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Node is a copy of an index node, In and Out are sorted
type Node struct {
	Id    string
	State State
	Clock uint64
	In    []string
	Out   []string
}

type node struct {
	state State
	clock uint64
	in    map[string]struct{}
	out   []string
}

// Index is the closure graph. It is not safe for concurrent use, the owner serializes access.
type Index struct {
	nodes   map[string]*node
	heads   map[string]struct{}
	missing map[string]struct{}
}

func New() *Index {
	return &Index{
		nodes:   map[string]*node{},
		heads:   map[string]struct{}{},
		missing: map[string]struct{}{},
	}
}

func (i *Index) Len() int {
	return len(i.nodes)
}

func (i *Index) Has(id string) bool {
	_, ok := i.nodes[id]
	return ok
}

func (i *Index) State(id string) (State, bool) {
	n, ok := i.nodes[id]
	if !ok {
		return 0, false
	}
	return n.state, true
}

// Known reports whether the record bytes for id have been ingested
func (i *Index) Known(id string) bool {
	n, ok := i.nodes[id]
	return ok && n.state != StateMissing
}

func (i *Index) Get(id string) (Node, bool) {
	n, ok := i.nodes[id]
	if !ok {
		return Node{}, false
	}
	res := Node{
		Id:    id,
		State: n.state,
		Clock: n.clock,
		In:    make([]string, 0, len(n.in)),
		Out:   slices.Clone(n.out),
	}
	for in := range n.in {
		res.In = append(res.In, in)
	}
	slices.Sort(res.In)
	return res, true
}

// Reference records that from cites refs. Unknown refs become missing nodes,
// their ids are returned.
func (i *Index) Reference(from string, refs []string) (created []string) {
	for _, ref := range refs {
		n, ok := i.nodes[ref]
		if !ok {
			n = &node{state: StateMissing, in: map[string]struct{}{}}
			i.nodes[ref] = n
			i.missing[ref] = struct{}{}
			created = append(created, ref)
		}
		n.in[from] = struct{}{}
	}
	return
}

// SetPresent marks id as accepted with the given references as outbound edges
func (i *Index) SetPresent(id string, clock uint64, refs []string) {
	n := i.set(id, StatePresent, clock)
	n.out = slices.Clone(refs)
	slices.Sort(n.out)
	i.updateHeads(id)
	for _, ref := range n.out {
		i.updateHeads(ref)
	}
}

// SetDenied marks id as denied, denied is terminal. A present node can still
// be denied, its outbound edges are dropped then.
func (i *Index) SetDenied(id string, clock uint64) {
	var prevOut []string
	if n, ok := i.nodes[id]; ok {
		prevOut = n.out
	}
	i.set(id, StateDenied, clock)
	i.updateHeads(id)
	for _, ref := range prevOut {
		i.updateHeads(ref)
	}
}

// SetPending marks id as ingested but not yet access checked
func (i *Index) SetPending(id string, clock uint64) {
	i.set(id, StatePending, clock)
	i.updateHeads(id)
}

func (i *Index) set(id string, state State, clock uint64) *node {
	n, ok := i.nodes[id]
	if !ok {
		n = &node{in: map[string]struct{}{}}
		i.nodes[id] = n
	}
	if n.state == StateDenied || (n.state == StatePresent && state == StatePending) {
		panic(fmt.Sprintf("closure: illegal transition of %s from %s to %s", id, n.state, state))
	}
	delete(i.missing, id)
	n.state = state
	n.clock = clock
	n.out = nil
	return n
}

func (i *Index) updateHeads(id string) {
	if i.isHead(id) {
		i.heads[id] = struct{}{}
	} else {
		delete(i.heads, id)
	}
}

// isHead reports whether id is present and not cited by any present node
func (i *Index) isHead(id string) bool {
	n, ok := i.nodes[id]
	if !ok || n.state != StatePresent {
		return false
	}
	for in := range n.in {
		if citing, ok := i.nodes[in]; ok && citing.state == StatePresent {
			return false
		}
	}
	return true
}

// Heads returns the frontier sorted by clock and then id
func (i *Index) Heads() []string {
	heads := make([]string, 0, len(i.heads))
	for id := range i.heads {
		heads = append(heads, id)
	}
	i.sort(heads)
	return heads
}

// RecomputeHeads rebuilds the head set from the whole graph
func (i *Index) RecomputeHeads() []string {
	i.heads = map[string]struct{}{}
	for id := range i.nodes {
		if i.isHead(id) {
			i.heads[id] = struct{}{}
		}
	}
	return i.Heads()
}

// Missing returns ids referenced but not ingested yet, sorted
func (i *Index) Missing() []string {
	missing := make([]string, 0, len(i.missing))
	for id := range i.missing {
		missing = append(missing, id)
	}
	slices.Sort(missing)
	return missing
}

func (i *Index) Count(state State) (count int) {
	for _, n := range i.nodes {
		if n.state == state {
			count++
		}
	}
	return
}

func (i *Index) sort(ids []string) {
	slices.SortFunc(ids, func(a, b string) int {
		return record.OrderKey{Clock: i.nodes[a].clock, Id: a}.Compare(record.OrderKey{Clock: i.nodes[b].clock, Id: b})
	})
}

// CheckInvariants validates the structural invariants of the graph
func (i *Index) CheckInvariants() error {
	for id, n := range i.nodes {
		switch n.state {
		case StateMissing:
			if len(n.in) == 0 {
				return fmt.Errorf("missing node %s has no inbound edges", id)
			}
			fallthrough
		case StateDenied, StatePending:
			if len(n.out) != 0 {
				return fmt.Errorf("%s node %s has outbound edges", n.state, id)
			}
		case StatePresent:
			for _, ref := range n.out {
				target, ok := i.nodes[ref]
				if !ok {
					return fmt.Errorf("node %s points to unknown %s", id, ref)
				}
				if _, ok := target.in[id]; !ok {
					return fmt.Errorf("edge %s -> %s has no inbound counterpart", id, ref)
				}
			}
		}
		if _, isMissing := i.missing[id]; isMissing != (n.state == StateMissing) {
			return fmt.Errorf("missing set is out of sync for %s", id)
		}
		if _, isHead := i.heads[id]; isHead != i.isHead(id) {
			return fmt.Errorf("head set is out of sync for %s", id)
		}
	}
	return nil
}
