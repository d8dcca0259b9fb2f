// Package periodicsync calls a function in a loop: once on Run, then on every
// period tick and whenever kicked.
package periodicsync

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hldb/welo-sub001/app/logger"
)

type PeriodicSync interface {
	Run()
	// Kick makes an extra call as soon as possible
	Kick()
	// Reset makes a call and restarts the period
	Reset()
	Close()
}

type SyncerFunc func(ctx context.Context) error

func NewPeriodicSync(periodSeconds int, timeout time.Duration, caller SyncerFunc, l logger.CtxLogger) PeriodicSync {
	return NewPeriodicSyncDuration(time.Duration(periodSeconds)*time.Second, timeout, caller, l)
}

func NewPeriodicSyncDuration(period, timeout time.Duration, caller SyncerFunc, l logger.CtxLogger) PeriodicSync {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logger.CtxWithFields(ctx, zap.String("rootOp", "periodicCall"))
	return &periodicCall{
		caller:     caller,
		log:        l,
		loopCtx:    ctx,
		loopCancel: cancel,
		loopDone:   make(chan struct{}),
		kick:       make(chan struct{}, 1),
		reset:      make(chan struct{}, 1),
		period:     period,
		timeout:    timeout,
		newTicker:  newTimeTicker,
	}
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func newTimeTicker(d time.Duration) ticker {
	return timeTicker{time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

type periodicCall struct {
	log        logger.CtxLogger
	caller     SyncerFunc
	loopCtx    context.Context
	loopCancel context.CancelFunc
	loopDone   chan struct{}
	kick       chan struct{}
	reset      chan struct{}
	period     time.Duration
	timeout    time.Duration
	isRunning  atomic.Bool
	newTicker  func(d time.Duration) ticker
}

func (p *periodicCall) Run() {
	p.isRunning.Store(true)
	go p.loop()
}

func (p *periodicCall) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *periodicCall) Reset() {
	select {
	case p.reset <- struct{}{}:
	default:
	}
}

func (p *periodicCall) doCall() {
	ctx := p.loopCtx
	if p.timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(p.loopCtx, p.timeout)
		defer cancel()
	}
	if err := p.caller(ctx); err != nil {
		p.log.WarnCtx(ctx, "periodic call error", zap.Error(err))
	}
}

func (p *periodicCall) loop() {
	defer close(p.loopDone)
	var (
		t     ticker
		tickC <-chan time.Time
	)
	startTicker := func() {
		if p.period > 0 {
			t = p.newTicker(p.period)
			tickC = t.C()
		}
	}
	defer func() {
		if t != nil {
			t.Stop()
		}
	}()
	p.doCall()
	startTicker()
	for {
		select {
		case <-p.loopCtx.Done():
			return
		case <-tickC:
			p.doCall()
		case <-p.kick:
			p.doCall()
		case <-p.reset:
			if t != nil {
				t.Stop()
				t, tickC = nil, nil
			}
			p.doCall()
			startTicker()
		}
	}
}

func (p *periodicCall) Close() {
	if !p.isRunning.Load() {
		return
	}
	p.loopCancel()
	<-p.loopDone
}
