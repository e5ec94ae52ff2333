// Package player turns a run's transition stream into a finite ordered
// sequence of labeled steps and exposes deterministic step-wise playback:
// next, previous, play, pause, reset. Recording is append-only while the
// run produces transitions; playback is a pure walk over the recorded
// sequence and never re-executes anything.
package player

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vk/gridflow/internal/engine"
	"github.com/vk/gridflow/internal/graph"
)

// State is the player's own state machine.
type State string

// Player states.
const (
	StateIdle      State = "idle"
	StateAdvancing State = "advancing"
	StatePaused    State = "paused"
	StatePlaying   State = "playing"
	StateFinished  State = "finished"
)

// Step is one entry of the playback sequence: an ordinal index, a
// human-readable label derived from the dominant transition, and the
// engine state snapshot captured at that point.
type Step struct {
	Index      int
	Label      string
	Transition engine.Transition
	Snapshot   engine.Snapshot
}

// Player records a run's transitions and replays them one decision at a
// time.
type Player struct {
	g       *graph.Graph
	resetFn func()

	mu       sync.Mutex
	steps    []Step
	cursor   int
	state    State
	recorded bool
	stopPlay chan struct{}
}

// New creates a Player over the given graph. resetFn is invoked on Reset
// to return every node to idle and swap in a fresh event bus; it may be
// nil when the caller handles that elsewhere.
func New(g *graph.Graph, resetFn func()) *Player {
	return &Player{g: g, resetFn: resetFn, state: StateIdle}
}

// Observer returns the recording hook to register with the engine via
// engine.WithObserver. Transitions arrive serialized in run-loop order.
func (p *Player) Observer() func(engine.Transition) {
	return p.record
}

func (p *Player) record(tr engine.Transition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, Step{
		Index:      len(p.steps) + 1,
		Label:      p.labelFor(tr),
		Transition: tr,
		Snapshot:   tr.Snapshot,
	})
	if tr.Kind == engine.KindRunCompleted {
		p.recorded = true
	}
}

// Next materializes the next recorded transition, moves the cursor over
// it, and leaves the player paused. It reports false when no step is
// pending; once recording has finished that also flips the player to
// finished.
func (p *Player) Next() (Step, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.advance()
}

// advance is Next without the lock; Play's ticker shares it.
func (p *Player) advance() (Step, bool) {
	if p.cursor >= len(p.steps) {
		if p.recorded {
			p.state = StateFinished
		}
		return Step{}, false
	}
	p.state = StateAdvancing
	step := p.steps[p.cursor]
	p.cursor++
	if p.cursor == len(p.steps) && p.recorded {
		p.state = StateFinished
	} else {
		p.state = StatePaused
	}
	return step, true
}

// Prev moves the visible cursor back one step without re-executing
// anything; it replays the prior snapshot.
func (p *Player) Prev() (Step, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor <= 1 {
		return Step{}, false
	}
	p.cursor--
	p.state = StatePaused
	return p.steps[p.cursor-1], true
}

// Current returns the step under the cursor.
func (p *Player) Current() (Step, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor == 0 {
		return Step{}, false
	}
	return p.steps[p.cursor-1], true
}

// Play auto-advances on a timer until the sequence is exhausted or Pause
// is requested. Each revealed step is handed to onStep when non-nil.
func (p *Player) Play(interval time.Duration, onStep func(Step)) {
	p.mu.Lock()
	if p.state == StatePlaying {
		p.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	p.stopPlay = stop
	p.state = StatePlaying
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.mu.Lock()
				step, ok := p.advance()
				finished := p.state == StateFinished
				if ok && !finished {
					p.state = StatePlaying
				}
				p.mu.Unlock()
				if ok && onStep != nil {
					onStep(step)
				}
				if finished {
					return
				}
			}
		}
	}()
}

// Pause stops auto-advance.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopPlay != nil {
		close(p.stopPlay)
		p.stopPlay = nil
	}
	if p.state == StatePlaying {
		p.state = StatePaused
	}
}

// Reset discards all recorded steps, returns every node to idle via the
// reset hook, and puts the player back in the idle state. Resetting an
// already-idle player is a no-op producing the same state.
func (p *Player) Reset() {
	p.Pause()
	p.mu.Lock()
	p.steps = nil
	p.cursor = 0
	p.state = StateIdle
	p.recorded = false
	p.mu.Unlock()
	if p.resetFn != nil {
		p.resetFn()
	}
}

// State returns the player's current state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// StepCount returns the number of recorded steps.
func (p *Player) StepCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.steps)
}

// Cursor returns how many steps have been revealed.
func (p *Player) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Steps returns a copy of the recorded sequence.
func (p *Player) Steps() []Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Step(nil), p.steps...)
}

// labelFor derives the display label from the dominant transition. The
// final transition of a run always reflects overall completion.
func (p *Player) labelFor(tr engine.Transition) string {
	switch tr.Kind {
	case engine.KindRunStarted:
		return "Run started"
	case engine.KindGroupDispatched:
		if len(tr.NodeIDs) > 1 {
			return fmt.Sprintf("%s running (concurrent)", strings.Join(p.names(tr.NodeIDs), ", "))
		}
		return fmt.Sprintf("Dispatching %s", p.name(tr.NodeID, tr.NodeIDs))
	case engine.KindNodeWaking:
		return fmt.Sprintf("%s waking", p.name(tr.NodeID, nil))
	case engine.KindNodeRunning:
		return fmt.Sprintf("%s running", p.name(tr.NodeID, nil))
	case engine.KindNodeDone:
		return fmt.Sprintf("%s done", p.name(tr.NodeID, nil))
	case engine.KindNodeError:
		return fmt.Sprintf("%s failed: %v", p.name(tr.NodeID, nil), tr.Err)
	case engine.KindGroupCompleted:
		return "Group done"
	case engine.KindRunCompleted:
		switch tr.Outcome {
		case engine.OutcomeCompletedWithErrors:
			return "Run completed with errors"
		case engine.OutcomeCanceled:
			return "Run canceled"
		default:
			return "All nodes done"
		}
	default:
		return string(tr.Kind)
	}
}

func (p *Player) names(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, p.name(id, nil))
	}
	return out
}

func (p *Player) name(id string, ids []string) string {
	if id == "" && len(ids) > 0 {
		id = ids[0]
	}
	if n, ok := p.g.Node(id); ok && n.Label != "" {
		return n.Label
	}
	return id
}
