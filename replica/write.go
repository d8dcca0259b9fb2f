package replica

import (
	"context"

	"github.com/hldb/welo-sub001/replica/record"
	"github.com/hldb/welo-sub001/util/crypto"
)

// Write appends a local entry on top of the current heads, chained under the
// latest materialized epoch. Its clock exceeds the clocks of everything it cites.
func (r *Replica) Write(ctx context.Context, key crypto.PrivKey, payload []byte) (*record.Record, IngestResult, error) {
	r.mu.RLock()
	heads := r.index.Heads()
	clock := r.root.Clock() + 1
	for _, h := range heads {
		clock = max(clock, r.records[h].Clock()+1)
	}
	root := r.root.Id
	r.mu.RUnlock()

	rec, err := record.Build(record.BuilderContent{
		EpochRefs: []string{root},
		Parents:   heads,
		Clock:     clock,
		Payload:   payload,
		PrivKey:   key,
	})
	if err != nil {
		return nil, IngestResult{}, err
	}
	res, err := r.Ingest(ctx, rec.Raw)
	return rec, res, err
}
