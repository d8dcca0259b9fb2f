package replica

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/hldb/welo-sub001/replica/access"
	"github.com/hldb/welo-sub001/replica/closure"
	"github.com/hldb/welo-sub001/replica/record"
	"github.com/hldb/welo-sub001/util/lifecycle"
)

type Status int

const (
	StatusAccepted Status = iota
	StatusDuplicate
	StatusDenied
	// StatusPending means the epochs governing the record are not known yet
	StatusPending
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusDuplicate:
		return "duplicate"
	case StatusDenied:
		return "denied"
	case StatusPending:
		return "pending"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IngestResult describes what happened to an ingested record. Err carries the
// soft outcome: access.ErrAccessDenied, ErrCausality or ErrMissingDependency.
type IngestResult struct {
	Id     string
	Status Status
	// Missing lists the references of the record that are still unknown
	Missing []string
	// Applied lists the records materialized as a consequence of this call
	Applied []string
	Err     error
}

// Ingest decodes, verifies and inserts record bytes. Structural and signature
// failures are returned as errors and never change the replica state.
func (r *Replica) Ingest(ctx context.Context, raw []byte) (IngestResult, error) {
	r.ingestMu.RLock()
	defer r.ingestMu.RUnlock()
	if !r.accepting {
		return IngestResult{}, lifecycle.ErrNotStarted
	}
	rec, err := record.Decode(raw)
	if err != nil {
		r.metrics.rejected()
		return IngestResult{}, err
	}
	if rec.IsGenesis() {
		if rec.Id == r.genesis.Id {
			r.metrics.duplicate()
			return IngestResult{Id: rec.Id, Status: StatusDuplicate}, nil
		}
		r.metrics.rejected()
		return IngestResult{}, fmt.Errorf("%w: foreign genesis %s", record.ErrStructural, rec.Id)
	}
	if err = r.verify(rec); err != nil {
		r.metrics.rejected()
		return IngestResult{}, err
	}

	r.mu.RLock()
	known := r.index.Known(rec.Id)
	r.mu.RUnlock()
	if known {
		r.metrics.duplicate()
		return IngestResult{Id: rec.Id, Status: StatusDuplicate}, nil
	}
	if err = r.deps.Store.Put(ctx, rec.Id, rec.Raw); err != nil {
		return IngestResult{}, fmt.Errorf("store record: %w", err)
	}
	return r.insert(ctx, rec), nil
}

func (r *Replica) verify(rec *record.Record) error {
	ok, err := r.deps.Identity.Verify(rec.Author, rec.RawData, rec.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", record.ErrSignature, err)
	}
	if !ok {
		return record.ErrSignature
	}
	return nil
}

// verdict is the access outcome of a record given the current graph
type verdict struct {
	state    closure.State
	awaiting []string
	err      error
}

func (r *Replica) insert(ctx context.Context, rec *record.Record) IngestResult {
	r.mu.Lock()
	if r.index.Known(rec.Id) {
		r.mu.Unlock()
		r.metrics.duplicate()
		return IngestResult{Id: rec.Id, Status: StatusDuplicate}
	}
	prevHeads := r.index.Heads()
	created := r.index.Reference(rec.Id, rec.Refs())
	r.records[rec.Id] = rec

	v, present := r.resolve(rec)
	batch, demoted := r.collectEligible(present)
	if err, ok := demoted[rec.Id]; ok {
		v = verdict{state: closure.StateDenied, err: err}
	}
	job := r.order(batch)
	job.heads = r.index.Heads()
	job.notify = len(batch) > 0 || !slices.Equal(prevHeads, job.heads)

	res := IngestResult{Id: rec.Id}
	for _, ref := range rec.Refs() {
		if st, _ := r.index.State(ref); st == closure.StateMissing {
			res.Missing = append(res.Missing, ref)
		}
	}
	switch v.state {
	case closure.StatePresent:
		res.Status = StatusAccepted
		if len(res.Missing) > 0 {
			res.Err = fmt.Errorf("%w: %d unknown references", ErrMissingDependency, len(res.Missing))
		}
	case closure.StateDenied:
		res.Status = StatusDenied
		res.Err = v.err
	case closure.StatePending:
		res.Status = StatusPending
		res.Err = fmt.Errorf("%w: waiting for epochs %v", ErrMissingDependency, v.awaiting)
	}
	for _, b := range batch {
		res.Applied = append(res.Applied, b.Id)
	}
	r.metrics.ingested(res.Status)

	ticket := r.applyTicket
	r.applyTicket++
	r.mu.Unlock()
	r.applyInTurn(ctx, ticket, job)

	// ancestors of denied records are only loaded on an explicit Sync
	if v.state != closure.StateDenied {
		r.enqueueFetch(created)
	}
	log.Debug("record ingested",
		zap.String("id", rec.Id),
		zap.Stringer("status", res.Status),
		zap.Int("missing", len(res.Missing)),
		zap.Int("applied", len(res.Applied)))
	return res
}

// resolve evaluates rec and every pending record waiting on it, iteratively.
// It returns the verdict for rec and the ids that became present.
func (r *Replica) resolve(rec *record.Record) (first verdict, present []string) {
	queue := []*record.Record{rec}
	for i := 0; len(queue) > 0; i++ {
		cur := queue[0]
		queue = queue[1:]
		v := r.evaluate(cur)
		if i == 0 {
			first = v
		}
		switch v.state {
		case closure.StatePending:
			r.index.SetPending(cur.Id, cur.Clock())
			for _, e := range v.awaiting {
				if r.waiting[e] == nil {
					r.waiting[e] = map[string]struct{}{}
				}
				r.waiting[e][cur.Id] = struct{}{}
			}
			continue
		case closure.StateDenied:
			r.index.SetDenied(cur.Id, cur.Clock())
			log.Debug("record denied", zap.String("id", cur.Id), zap.Error(v.err))
		case closure.StatePresent:
			r.index.SetPresent(cur.Id, cur.Clock(), cur.Refs())
			present = append(present, cur.Id)
		}
		waiters := make([]string, 0, len(r.waiting[cur.Id]))
		for w := range r.waiting[cur.Id] {
			waiters = append(waiters, w)
		}
		delete(r.waiting, cur.Id)
		slices.Sort(waiters)
		for _, w := range waiters {
			if st, _ := r.index.State(w); st == closure.StatePending {
				queue = append(queue, r.records[w])
			}
		}
	}
	return
}

// evaluate checks rec against the snapshot of its governing epoch, the
// referenced epoch greatest in clock and id order
func (r *Replica) evaluate(rec *record.Record) verdict {
	var (
		governing *record.Record
		awaiting  []string
	)
	for _, e := range rec.EpochRefs {
		st, ok := r.index.State(e)
		switch {
		case !ok || st == closure.StateMissing || st == closure.StatePending:
			awaiting = append(awaiting, e)
		case st == closure.StateDenied:
			return verdict{state: closure.StateDenied, err: fmt.Errorf("%w: epoch %s is denied", access.ErrAccessDenied, e)}
		default:
			epoch := r.records[e]
			if !epoch.IsEpoch() {
				return verdict{state: closure.StateDenied, err: fmt.Errorf("%w: %s is not an epoch", access.ErrAccessDenied, e)}
			}
			if governing == nil || governing.Key().Less(epoch.Key()) {
				governing = epoch
			}
		}
	}
	if len(awaiting) > 0 {
		return verdict{state: closure.StatePending, awaiting: awaiting}
	}
	if err := access.Check(r.deps.Access, rec, governing.Data.Access); err != nil {
		return verdict{state: closure.StateDenied, err: err}
	}
	return verdict{state: closure.StatePresent}
}

// collectEligible returns the records that became eligible for
// materialization: present, with every reference eligible and a clock greater
// than the clock of every reference. Records failing the clock rule are
// denied along with the records relying on them as epochs.
func (r *Replica) collectEligible(present []string) (batch []*record.Record, demoted map[string]error) {
	queue := slices.Clone(present)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, done := r.eligible[id]; done {
			continue
		}
		node, ok := r.index.Get(id)
		if !ok || node.State != closure.StatePresent {
			continue
		}
		var (
			ready    = true
			refClock uint64
		)
		for _, ref := range node.Out {
			if _, ok := r.eligible[ref]; !ok {
				ready = false
				break
			}
			refClock = max(refClock, r.records[ref].Clock())
		}
		if !ready {
			continue
		}
		if node.Clock <= refClock {
			if demoted == nil {
				demoted = map[string]error{}
			}
			r.demote(id, fmt.Errorf("%w: clock %d, references reach %d", ErrCausality, node.Clock, refClock), demoted)
			continue
		}
		r.eligible[id] = struct{}{}
		batch = append(batch, r.records[id])
		queue = append(queue, node.In...)
	}
	slices.SortFunc(batch, func(a, b *record.Record) int {
		return a.Key().Compare(b.Key())
	})
	return
}

// demote denies a present or pending record and every record citing it as an
// epoch. None of them is eligible, so the materialized sequence is untouched.
func (r *Replica) demote(id string, cause error, demoted map[string]error) {
	type item struct {
		id  string
		err error
	}
	queue := []item{{id: id, err: cause}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if st, _ := r.index.State(cur.id); st != closure.StatePresent && st != closure.StatePending {
			continue
		}
		node, _ := r.index.Get(cur.id)
		r.index.SetDenied(cur.id, node.Clock)
		delete(r.waiting, cur.id)
		demoted[cur.id] = cur.err
		log.Debug("record denied", zap.String("id", cur.id), zap.Error(cur.err))
		for _, in := range node.In {
			if citer, ok := r.records[in]; ok && slices.Contains(citer.EpochRefs, cur.id) {
				queue = append(queue, item{id: in, err: fmt.Errorf("%w: epoch %s is denied", access.ErrAccessDenied, cur.id)})
			}
		}
	}
}

// order merges batch into the materialized sequence
func (r *Replica) order(batch []*record.Record) (job applyJob) {
	job.batch = batch
	if len(batch) == 0 {
		return
	}
	last := r.ordered[len(r.ordered)-1].Key()
	if last.Less(batch[0].Key()) {
		r.ordered = append(r.ordered, batch...)
		job.mode = Append
	} else {
		merged := make([]*record.Record, 0, len(r.ordered)+len(batch))
		i, j := 0, 0
		for i < len(r.ordered) && j < len(batch) {
			if r.ordered[i].Key().Less(batch[j].Key()) {
				merged = append(merged, r.ordered[i])
				i++
			} else {
				merged = append(merged, batch[j])
				j++
			}
		}
		merged = append(merged, r.ordered[i:]...)
		merged = append(merged, batch[j:]...)
		r.ordered = merged
		job.mode = Rebuild
	}
	job.ordered = r.ordered
	for _, b := range batch {
		if b.IsEpoch() && r.root.Key().Less(b.Key()) {
			r.root = b
		}
	}
	return
}

// Sync hands heads announced by a peer to the replica. Unknown heads are
// loaded from the block store, missing ancestors are queued for fetching again.
func (r *Replica) Sync(ctx context.Context, heads []string) error {
	r.mu.RLock()
	var unknown []string
	for _, h := range heads {
		if !r.index.Known(h) {
			unknown = append(unknown, h)
		}
	}
	missing := r.index.Missing()
	r.mu.RUnlock()

	var errs []error
	for _, id := range unknown {
		if err := r.load(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("head %s: %w", id, err))
		}
	}
	r.enqueueFetch(missing)
	return errors.Join(errs...)
}
