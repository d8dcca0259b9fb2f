// Package replica implements the replicated log engine: it ingests signed
// records, keeps the closure graph, and materializes accepted entries in a
// deterministic order.
package replica

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cheggaaa/mb/v3"
	"go.uber.org/zap"

	"github.com/hldb/welo-sub001/app/logger"
	"github.com/hldb/welo-sub001/blockstore"
	"github.com/hldb/welo-sub001/identity"
	"github.com/hldb/welo-sub001/replica/access"
	"github.com/hldb/welo-sub001/replica/closure"
	"github.com/hldb/welo-sub001/replica/record"
	"github.com/hldb/welo-sub001/util/lifecycle"
)

var log = logger.NewNamed("welo.replica")

var (
	// ErrMissingDependency is reported in IngestResult when a record references unknown ids
	ErrMissingDependency = errors.New("missing dependency")
	// ErrCausality is reported in IngestResult when a record's clock does not
	// exceed the clocks of the records it references
	ErrCausality = errors.New("clock does not follow references")
	ErrClosed            = errors.New("replica is closed")
	ErrNotFound          = errors.New("record not found")
)

// Deps enumerates the implementation used for every role of a replica
type Deps struct {
	Access   access.Controller
	Identity identity.Verifier
	// Store is not closed by the replica
	Store blockstore.Store
	// Materializer is optional, without it accepted entries are only ordered
	Materializer Materializer
}

const DefaultFetchWorkers = 2

type Config struct {
	// FetchWorkers is the number of goroutines loading missing ancestors from
	// the block store, 0 disables background fetching
	FetchWorkers int `yaml:"fetchWorkers"`
	// FetchQueueSize bounds the missing-ancestor queue, 0 means unbounded
	FetchQueueSize int `yaml:"fetchQueueSize"`
}

type Option func(r *Replica)

func WithConfig(conf Config) Option {
	return func(r *Replica) {
		r.conf = conf
	}
}

type Replica struct {
	genesis *record.Record
	deps    Deps
	conf    Config
	lc      *lifecycle.Lifecycle
	metrics *metrics

	// ingestMu lets Stop wait for in-flight ingestion
	ingestMu  sync.RWMutex
	accepting bool
	closed    bool

	// mu guards the graph
	mu       sync.RWMutex
	index    *closure.Index
	records  map[string]*record.Record
	waiting  map[string]map[string]struct{}
	eligible map[string]struct{}
	ordered  []*record.Record
	root     *record.Record
	// applyTicket numbers graph updates, they are applied in that order
	applyTicket uint64

	applyMu     sync.Mutex
	applyCond   *sync.Cond
	applyNext   uint64
	needRebuild bool
	initApplied bool

	subs subscriptions

	fetchMu     sync.Mutex
	fetchQueue  *mb.MB[string]
	fetchCancel context.CancelFunc
	fetchDone   sync.WaitGroup
}

// New creates a replica anchored at genesis. Nothing is validated against the
// access controller until Start.
func New(genesis *record.Record, deps Deps, opts ...Option) (*Replica, error) {
	if genesis == nil || !genesis.IsGenesis() {
		return nil, fmt.Errorf("%w: replica must be anchored at a genesis epoch", record.ErrStructural)
	}
	if deps.Access == nil || deps.Identity == nil || deps.Store == nil {
		return nil, errors.New("replica: access, identity and store are required")
	}
	if deps.Materializer == nil {
		deps.Materializer = nopMaterializer{}
	}
	r := &Replica{
		genesis: genesis,
		deps:    deps,
		conf:    Config{FetchWorkers: DefaultFetchWorkers},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.applyCond = sync.NewCond(&r.applyMu)
	r.resetGraph()
	r.lc = lifecycle.New(r.onStart, r.onStop)
	return r, nil
}

// resetGraph leaves the genesis as the only record
func (r *Replica) resetGraph() {
	r.index = closure.New()
	r.index.SetPresent(r.genesis.Id, r.genesis.Clock(), nil)
	r.records = map[string]*record.Record{r.genesis.Id: r.genesis}
	r.waiting = map[string]map[string]struct{}{}
	r.eligible = map[string]struct{}{r.genesis.Id: {}}
	r.ordered = []*record.Record{r.genesis}
	r.root = r.genesis
}

func (r *Replica) Id() string {
	return r.genesis.Id
}

func (r *Replica) Genesis() *record.Record {
	return r.genesis
}

func (r *Replica) Start(ctx context.Context) error {
	return r.lc.Start(ctx)
}

// Stop stops accepting records, waits for in-flight ingestion and closes subscriptions.
// A stopped replica keeps its state and may be started again.
func (r *Replica) Stop(ctx context.Context) error {
	return r.lc.Stop(ctx)
}

// Close stops the replica for good and releases the graph, a closed replica
// only knows its genesis. The block store belongs to the caller that passed it in Deps.
func (r *Replica) Close(ctx context.Context) error {
	if err := r.lc.Stop(ctx); err != nil {
		return err
	}
	r.ingestMu.Lock()
	defer r.ingestMu.Unlock()
	r.closed = true
	r.mu.Lock()
	r.resetGraph()
	r.mu.Unlock()
	return nil
}

func (r *Replica) onStart(ctx context.Context) error {
	r.ingestMu.Lock()
	defer r.ingestMu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if err := r.deps.Access.ValidateConfig(r.genesis.Data.Access); err != nil {
		return fmt.Errorf("%w: genesis: %w", access.ErrConfig, err)
	}
	if err := r.deps.Store.Put(ctx, r.genesis.Id, r.genesis.Raw); err != nil {
		return err
	}
	r.applyMu.Lock()
	if !r.initApplied {
		if err := r.deps.Materializer.Append(ctx, []*record.Record{r.genesis}); err != nil {
			log.Warn("can't apply genesis", zap.Error(err))
			r.needRebuild = true
		}
		r.initApplied = true
	}
	r.applyMu.Unlock()

	r.subs.open()
	r.startFetcher()
	r.accepting = true

	// ancestors left missing by a previous run are fetched again
	r.mu.RLock()
	missing := r.index.Missing()
	r.mu.RUnlock()
	r.enqueueFetch(missing)
	log.Info("replica started", zap.String("id", r.genesis.Id))
	return nil
}

func (r *Replica) onStop(ctx context.Context) error {
	r.ingestMu.Lock()
	r.accepting = false
	r.ingestMu.Unlock()
	r.stopFetcher()
	r.subs.closeAll()
	log.Info("replica stopped", zap.String("id", r.genesis.Id))
	return nil
}

// Heads returns the current frontier sorted by clock and id
func (r *Replica) Heads() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Heads()
}

// Get returns the graph node of any id the replica has seen or been pointed at
func (r *Replica) Get(id string) (closure.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Get(id)
}

// Record returns an ingested record regardless of its state
func (r *Replica) Record(id string) (*record.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Ordered returns the materialized sequence, genesis first
func (r *Replica) Ordered() []*record.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*record.Record, len(r.ordered))
	copy(res, r.ordered)
	return res
}

// Root returns the latest materialized epoch
func (r *Replica) Root() *record.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.root
}

// ActiveAccess returns the snapshot of the latest materialized epoch
func (r *Replica) ActiveAccess() *record.AccessSnapshot {
	return r.Root().Data.Access.Clone()
}

// Missing returns ids referenced by ingested records whose bytes are not known yet
func (r *Replica) Missing() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Missing()
}

// Traverse walks the graph breadth-first starting at from. Each step reads
// the graph under the replica lock.
func (r *Replica) Traverse(from string, dir closure.Direction) *Traversal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Traversal{r: r, t: r.index.Traverse(from, dir)}
}

type Traversal struct {
	r *Replica
	t *closure.Traversal
}

func (t *Traversal) Next() (string, bool) {
	t.r.mu.RLock()
	defer t.r.mu.RUnlock()
	return t.t.Next()
}

func (t *Traversal) Collect() (ids []string) {
	for {
		id, ok := t.Next()
		if !ok {
			return
		}
		ids = append(ids, id)
	}
}
