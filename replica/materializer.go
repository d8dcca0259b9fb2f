//go:generate mockgen -destination mock_replica/mock_replica.go github.com/hldb/welo-sub001/replica Materializer
package replica

import (
	"context"

	"go.uber.org/zap"

	"github.com/hldb/welo-sub001/replica/record"
)

type Mode int

const (
	// Append means the applied records sort after everything applied before
	Append Mode = iota
	// Rebuild means the state has to be rebuilt from the whole ordered sequence
	Rebuild
)

func (m Mode) String() string {
	if m == Rebuild {
		return "rebuild"
	}
	return "append"
}

// Materializer builds application state from accepted records. Records come
// in clock and id order, epochs included. Calls are never concurrent.
type Materializer interface {
	Append(ctx context.Context, records []*record.Record) error
	Rebuild(ctx context.Context, records []*record.Record) error
}

type nopMaterializer struct{}

func (nopMaterializer) Append(ctx context.Context, records []*record.Record) error {
	return nil
}

func (nopMaterializer) Rebuild(ctx context.Context, records []*record.Record) error {
	return nil
}

type applyJob struct {
	batch   []*record.Record
	ordered []*record.Record
	mode    Mode
	heads   []string
	notify  bool
}

// applyInTurn waits until every earlier graph update is applied, then applies job
func (r *Replica) applyInTurn(ctx context.Context, ticket uint64, job applyJob) {
	r.applyMu.Lock()
	defer r.applyMu.Unlock()
	for r.applyNext != ticket {
		r.applyCond.Wait()
	}
	r.apply(ctx, job)
	r.applyNext++
	r.applyCond.Broadcast()
}

func (r *Replica) apply(ctx context.Context, job applyJob) {
	if len(job.batch) > 0 {
		mode := job.mode
		if r.needRebuild {
			mode = Rebuild
		}
		var err error
		if mode == Append {
			err = r.deps.Materializer.Append(ctx, job.batch)
		} else {
			err = r.deps.Materializer.Rebuild(ctx, job.ordered)
		}
		// a failed batch is retried as a full rebuild with the next one
		r.needRebuild = err != nil
		if err != nil {
			log.Error("materialize error", zap.Stringer("mode", mode), zap.Int("records", len(job.batch)), zap.Error(err))
		}
		r.metrics.applied(mode, len(job.batch))
	}
	if job.notify {
		update := Update{Heads: job.heads}
		for _, rec := range job.batch {
			update.Applied = append(update.Applied, rec.Id)
		}
		r.subs.publish(update)
	}
}
