// Package lifecycle provides a start/stop state machine that lets concurrent
// callers converge on a single transition at a time.
package lifecycle

import (
	"context"
	"errors"
	"sync"
)

var ErrNotStarted = errors.New("not started")

type State int

const (
	Stopped State = iota
	Starting
	Started
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Started:
		return "started"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// TransitionFunc performs the underlying start or stop work
type TransitionFunc func(ctx context.Context) error

// Lifecycle runs onStart and onStop so that there is never more than one of
// them in flight. Start on a started lifecycle and Stop on a stopped one are no-ops.
// A failed start leaves the lifecycle stopped, a failed stop leaves it stopped too.
type Lifecycle struct {
	mu      sync.Mutex
	state   State
	pending *transition

	onStart TransitionFunc
	onStop  TransitionFunc
}

// transition is an in-flight start or stop, err is set before done is closed
type transition struct {
	via  State
	done chan struct{}
	err  error
}

func New(onStart, onStop TransitionFunc) *Lifecycle {
	return &Lifecycle{onStart: onStart, onStop: onStop}
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start waits for an in-flight transition if any and then starts
func (l *Lifecycle) Start(ctx context.Context) error {
	return l.transition(ctx, Started, Starting, l.onStart)
}

// Stop waits for an in-flight transition if any and then stops
func (l *Lifecycle) Stop(ctx context.Context) error {
	return l.transition(ctx, Stopped, Stopping, l.onStop)
}

func (l *Lifecycle) transition(ctx context.Context, target, via State, do TransitionFunc) error {
	for {
		l.mu.Lock()
		if l.state == target {
			l.mu.Unlock()
			return nil
		}
		if inFlight := l.pending; inFlight != nil {
			l.mu.Unlock()
			select {
			case <-inFlight.done:
			case <-ctx.Done():
				return ctx.Err()
			}
			if inFlight.via == via {
				// joined the same transition, share its result
				return inFlight.err
			}
			continue
		}
		t := &transition{via: via, done: make(chan struct{})}
		l.pending = t
		l.state = via
		l.mu.Unlock()

		var err error
		if do != nil {
			err = do(ctx)
		}

		l.mu.Lock()
		if err != nil && target == Started {
			l.state = Stopped
		} else {
			l.state = target
		}
		t.err = err
		l.pending = nil
		close(t.done)
		l.mu.Unlock()
		return err
	}
}
