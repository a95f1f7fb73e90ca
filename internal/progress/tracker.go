// Package progress implements the per-generation progress state machine.
//
// A Tracker is the explicit handle for one generation: it owns a bounded
// event queue that the pipeline publishes into and a single observer drains.
// Delivery never blocks the pipeline; when the queue is full the oldest
// intermediate event is dropped. Terminal events (complete, error) are never
// dropped.
package progress

import (
	"fmt"
	"sync"

	"github.com/astralhq/astral/internal/model"
)

// DefaultQueueSize bounds the event queue between pipeline and observer.
const DefaultQueueSize = 16

// Tracker is the state machine for a single generation id.
type Tracker struct {
	id string

	mu       sync.Mutex
	current  model.Stage
	finished bool
	events   chan model.ProgressState
}

// NewTracker creates a tracker in the pending stage and emits the initial
// pending state. queueSize <= 0 selects DefaultQueueSize.
func NewTracker(id string, queueSize int) *Tracker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	t := &Tracker{
		id:      id,
		current: model.StagePending,
		events:  make(chan model.ProgressState, queueSize),
	}
	t.push(model.ProgressState{Stage: model.StagePending, Percentage: 0}, false)
	return t
}

// ID returns the generation id this tracker belongs to.
func (t *Tracker) ID() string { return t.id }

// Events is the observer side of the queue. The channel is closed after the
// terminal state has been queued; ranging over it therefore terminates.
func (t *Tracker) Events() <-chan model.ProgressState { return t.events }

// Current returns the stage the generation is in right now.
func (t *Tracker) Current() model.Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Advance moves the generation to stage, which must be strictly later in the
// forward progression than the current stage. Entering StageComplete finishes
// the tracker.
func (t *Tracker) Advance(stage model.Stage, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return fmt.Errorf("generation %s already finished in stage %s", t.id, t.current)
	}
	if stage.Order() < 0 {
		return fmt.Errorf("cannot Advance to %s, use Fail", stage)
	}
	if stage.Order() <= t.current.Order() {
		return fmt.Errorf("backward transition %s -> %s for generation %s", t.current, stage, t.id)
	}

	t.current = stage
	state := model.ProgressState{
		Stage:      stage,
		Percentage: stage.Percentage(),
		Message:    message,
	}

	if stage == model.StageComplete {
		t.finished = true
		t.push(state, true)
		close(t.events)
		return nil
	}
	t.push(state, false)
	return nil
}

// Fail moves the generation to the error stage from any non-terminal stage
// and finishes the tracker. The failing stage's percentage is retained so
// observers can tell how far the generation got.
func (t *Tracker) Fail(err error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return fmt.Errorf("generation %s already finished in stage %s", t.id, t.current)
	}

	failedAt := t.current
	t.current = model.StageError
	t.finished = true

	state := model.ProgressState{
		Stage:      model.StageError,
		Percentage: failedAt.Percentage(),
		Message:    fmt.Sprintf("failed during %s", failedAt),
	}
	if err != nil {
		state.Error = err.Error()
	}
	t.push(state, true)
	close(t.events)
	return nil
}

// push enqueues without ever blocking. Intermediate events evict the oldest
// queued event when full; terminal events keep evicting until they fit.
func (t *Tracker) push(state model.ProgressState, terminal bool) {
	for {
		select {
		case t.events <- state:
			return
		default:
		}

		// Queue full: drop the oldest event to make room.
		select {
		case <-t.events:
		default:
		}

		if !terminal {
			// One eviction attempt is enough for intermediate states; if a
			// racing reader refilled the queue the event is simply dropped.
			select {
			case t.events <- state:
			default:
			}
			return
		}
	}
}
