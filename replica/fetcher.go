package replica

import (
	"context"
	"errors"

	"github.com/cheggaaa/mb/v3"
	"go.uber.org/zap"

	"github.com/hldb/welo-sub001/blockstore"
	"github.com/hldb/welo-sub001/replica/closure"
)

func (r *Replica) startFetcher() {
	var ctx context.Context
	ctx, r.fetchCancel = context.WithCancel(context.Background())
	q := mb.New[string](r.conf.FetchQueueSize)
	r.fetchMu.Lock()
	r.fetchQueue = q
	r.fetchMu.Unlock()
	for i := 0; i < r.conf.FetchWorkers; i++ {
		r.fetchDone.Add(1)
		go r.fetchLoop(ctx, q)
	}
}

func (r *Replica) stopFetcher() {
	if r.fetchCancel == nil {
		return
	}
	r.fetchCancel()
	r.fetchMu.Lock()
	_ = r.fetchQueue.Close()
	r.fetchQueue = nil
	r.fetchMu.Unlock()
	r.fetchDone.Wait()
	r.fetchCancel = nil
}

// enqueueFetch never blocks, ids that don't fit stay missing until the next Sync
func (r *Replica) enqueueFetch(ids []string) {
	if len(ids) == 0 {
		return
	}
	r.fetchMu.Lock()
	defer r.fetchMu.Unlock()
	q := r.fetchQueue
	if q == nil {
		return
	}
	for _, id := range ids {
		if err := q.TryAdd(id); err != nil {
			log.Debug("fetch queue is full", zap.String("id", id), zap.Error(err))
			return
		}
	}
}

func (r *Replica) fetchLoop(ctx context.Context, q *mb.MB[string]) {
	defer r.fetchDone.Done()
	for {
		id, err := q.WaitOne(ctx)
		if err != nil {
			return
		}
		r.mu.RLock()
		st, ok := r.index.State(id)
		r.mu.RUnlock()
		if !ok || st != closure.StateMissing {
			continue
		}
		if err = r.load(ctx, id); err != nil && !errors.Is(err, blockstore.ErrNotFound) {
			log.Warn("can't fetch missing record", zap.String("id", id), zap.Error(err))
		}
	}
}

// load ingests the bytes of id found in the block store
func (r *Replica) load(ctx context.Context, id string) error {
	raw, err := r.deps.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	res, err := r.Ingest(ctx, raw)
	if err != nil {
		return err
	}
	if res.Id != id {
		log.Warn("block store returned another record", zap.String("want", id), zap.String("got", res.Id))
	}
	return nil
}
