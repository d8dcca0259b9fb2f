package closure

import "golang.org/x/exp/slices"

type Direction int

const (
	// Outbound walks from a record towards its ancestors
	Outbound Direction = iota
	// Inbound walks from a record towards the records citing it
	Inbound
)

// Traversal is a lazy breadth-first walk. Every call to Next reads the index
// as it is at that moment, so the owner must hold its lock around Next.
type Traversal struct {
	idx   *Index
	dir   Direction
	queue []string
	seen  map[string]struct{}
}

// Traverse starts a walk at from, the first id returned is from itself.
// An unknown from yields an empty walk.
func (i *Index) Traverse(from string, dir Direction) *Traversal {
	t := &Traversal{idx: i, dir: dir, seen: map[string]struct{}{}}
	if i.Has(from) {
		t.queue = append(t.queue, from)
		t.seen[from] = struct{}{}
	}
	return t
}

func (t *Traversal) Next() (id string, ok bool) {
	if len(t.queue) == 0 {
		return "", false
	}
	id, t.queue = t.queue[0], t.queue[1:]
	n, exists := t.idx.nodes[id]
	if !exists {
		return id, true
	}
	var next []string
	if t.dir == Outbound {
		next = n.out
	} else {
		next = make([]string, 0, len(n.in))
		for in := range n.in {
			next = append(next, in)
		}
		slices.Sort(next)
	}
	for _, nid := range next {
		if _, done := t.seen[nid]; !done {
			t.seen[nid] = struct{}{}
			t.queue = append(t.queue, nid)
		}
	}
	return id, true
}

// Collect drains the traversal
func (t *Traversal) Collect() (ids []string) {
	for {
		id, ok := t.Next()
		if !ok {
			return
		}
		ids = append(ids, id)
	}
}
