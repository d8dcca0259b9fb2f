package pubsub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cheggaaa/mb/v3"
	"go.uber.org/zap"

	"github.com/hldb/welo-sub001/app/logger"
	"github.com/hldb/welo-sub001/replica"
	"github.com/hldb/welo-sub001/replica/closure"
	"github.com/hldb/welo-sub001/replica/record"
	"github.com/hldb/welo-sub001/util/lifecycle"
	"github.com/hldb/welo-sub001/util/periodicsync"
)

var log = logger.NewNamed("welo.replicator")

const (
	defaultInboxSize         = 64
	defaultRebroadcastPeriod = 10 * time.Second
	syncTimeout              = time.Minute
)

type Config struct {
	RebroadcastPeriodSec int `yaml:"rebroadcastPeriod"`
	InboxSize            int `yaml:"inboxSize"`
}

// Replica is the part of a replica the replicator drives
type Replica interface {
	Id() string
	Heads() []string
	Get(id string) (closure.Node, bool)
	Record(id string) (*record.Record, error)
	Ingest(ctx context.Context, raw []byte) (replica.IngestResult, error)
	Sync(ctx context.Context, heads []string) error
	Subscribe() (*replica.Subscription, error)
	Unsubscribe(sub *replica.Subscription)
}

// Replicator keeps a replica in sync with the other peers of its topic
type Replicator struct {
	id      string
	hub     *Hub
	replica Replica
	conf    Config
	log     logger.CtxLogger
	lc      *lifecycle.Lifecycle

	inbox    *mb.MB[Message]
	periodic periodicsync.PeriodicSync
	sub      *replica.Subscription
	cancel   context.CancelFunc
	done     sync.WaitGroup
}

func NewReplicator(hub *Hub, r Replica, conf Config) *Replicator {
	rp := &Replicator{
		id:      newPeerId(),
		hub:     hub,
		replica: r,
		conf:    conf,
	}
	rp.log = log.With(zap.String("peerId", rp.id), zap.String("replicaId", r.Id()))
	rp.lc = lifecycle.New(rp.onStart, rp.onStop)
	return rp
}

// PeerId identifies the replicator on the hub
func (rp *Replicator) PeerId() string {
	return rp.id
}

func (rp *Replicator) Start(ctx context.Context) error {
	return rp.lc.Start(ctx)
}

func (rp *Replicator) Stop(ctx context.Context) error {
	return rp.lc.Stop(ctx)
}

func (rp *Replicator) onStart(ctx context.Context) (err error) {
	if rp.sub, err = rp.replica.Subscribe(); err != nil {
		return err
	}
	size := rp.conf.InboxSize
	if size <= 0 {
		size = defaultInboxSize
	}
	rp.inbox = mb.New[Message](size)
	loopCtx, cancel := context.WithCancel(context.Background())
	rp.cancel = cancel
	rp.done.Add(2)
	go rp.inboxLoop(loopCtx, rp.inbox)
	go rp.updateLoop(rp.sub)

	period := time.Duration(rp.conf.RebroadcastPeriodSec) * time.Second
	if period <= 0 {
		period = defaultRebroadcastPeriod
	}
	rp.periodic = periodicsync.NewPeriodicSyncDuration(period, 0, rp.announce, rp.log)
	rp.hub.join(rp.replica.Id(), rp.id, rp)
	rp.periodic.Run()
	return nil
}

func (rp *Replicator) onStop(ctx context.Context) error {
	rp.hub.leave(rp.replica.Id(), rp.id)
	rp.periodic.Close()
	rp.replica.Unsubscribe(rp.sub)
	rp.cancel()
	err := rp.inbox.Close()
	rp.done.Wait()
	return err
}

// Kick announces the current heads without waiting for the next period
func (rp *Replicator) Kick() {
	if rp.lc.State() == lifecycle.Started {
		rp.periodic.Kick()
	}
}

func (rp *Replicator) announce(ctx context.Context) error {
	rp.hub.publish(rp.replica.Id(), Message{From: rp.id, Heads: rp.replica.Heads()})
	return nil
}

// updateLoop pushes locally materialized records to the topic
func (rp *Replicator) updateLoop(sub *replica.Subscription) {
	defer rp.done.Done()
	for u := range sub.Updates() {
		msg := Message{From: rp.id, Heads: u.Heads}
		for _, id := range u.Applied {
			rec, err := rp.replica.Record(id)
			if err != nil || rec.IsGenesis() {
				continue
			}
			msg.Records = append(msg.Records, rec.Raw)
		}
		rp.hub.publish(rp.replica.Id(), msg)
	}
}

func (rp *Replicator) deliver(msg Message) {
	if err := rp.inbox.TryAdd(msg); err != nil {
		rp.log.Debug("inbox is full, dropping announcement", zap.String("from", msg.From), zap.Error(err))
	}
}

func (rp *Replicator) serve(ids []string) [][]byte {
	raws := make([][]byte, 0, len(ids))
	for _, id := range ids {
		if rec, err := rp.replica.Record(id); err == nil {
			raws = append(raws, rec.Raw)
		}
	}
	return raws
}

func (rp *Replicator) inboxLoop(ctx context.Context, inbox *mb.MB[Message]) {
	defer rp.done.Done()
	for {
		msg, err := inbox.WaitOne(ctx)
		if err != nil {
			return
		}
		opCtx, cancel := context.WithTimeout(ctx, syncTimeout)
		if err = rp.handle(opCtx, msg); err != nil && !errors.Is(err, context.Canceled) {
			rp.log.InfoCtx(opCtx, "sync with peer failed", zap.String("from", msg.From), zap.Error(err))
		}
		cancel()
	}
}

func (rp *Replicator) handle(ctx context.Context, msg Message) error {
	var want []string
	for _, raw := range msg.Records {
		want = append(want, rp.ingest(ctx, raw)...)
	}
	// the local store may already hold announced heads
	if err := rp.replica.Sync(ctx, msg.Heads); err != nil {
		rp.log.DebugCtx(ctx, "local sync incomplete", zap.Error(err))
	}
	want = append(want, msg.Heads...)
	for {
		want = rp.unknown(want)
		if len(want) == 0 {
			return nil
		}
		raws, err := rp.hub.fetch(rp.replica.Id(), msg.From, want)
		if err != nil {
			return err
		}
		want = want[:0]
		progress := false
		for _, raw := range raws {
			res, err := rp.replica.Ingest(ctx, raw)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}
			if res.Status != replica.StatusDuplicate {
				progress = true
			}
			want = append(want, res.Missing...)
		}
		if !progress {
			return nil
		}
	}
}

// ingest returns the ids the record still waits for
func (rp *Replicator) ingest(ctx context.Context, raw []byte) []string {
	res, err := rp.replica.Ingest(ctx, raw)
	if err != nil {
		rp.log.DebugCtx(ctx, "rejected pushed record", zap.Error(err))
		return nil
	}
	return res.Missing
}

func (rp *Replicator) unknown(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var res []string
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if node, ok := rp.replica.Get(id); !ok || node.State == closure.StateMissing {
			res = append(res, id)
		}
	}
	return res
}
