package engine

import (
	"context"
	"sync"
	"time"
)

// Runner drives a State with a single fixed-tick loop, replacing the
// per-phase animation-frame callbacks of the browser build. One goroutine
// owns the state; jump input arrives over a channel, so the simulation
// itself needs no locks.
type Runner struct {
	cfg        Config
	onGameOver func(finalScore int)

	jumpCh chan struct{}

	// tick is the wall-clock interval between frames. The simulation always
	// advances by FrameMs per tick, so shrinking it fast-forwards a run.
	tick time.Duration

	mu       sync.RWMutex
	snapshot State
}

// NewRunner prepares an idle simulation with the given gap seed.
// onGameOver may be nil.
func NewRunner(cfg Config, seed int64, onGameOver func(finalScore int)) *Runner {
	return &Runner{
		cfg:        cfg,
		onGameOver: onGameOver,
		jumpCh:     make(chan struct{}, 1),
		tick:       time.Second / FrameRate,
		snapshot:   NewState(cfg, seed),
	}
}

// Jump queues a jump for the next tick. Extra jumps within one frame collapse
// into a single impulse, matching the one-input-per-frame client behavior.
func (r *Runner) Jump() {
	select {
	case r.jumpCh <- struct{}{}:
	default:
	}
}

// State returns the latest published simulation snapshot.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Run ticks the simulation at FrameRate until game over or ctx cancellation.
// It blocks; callers usually run it on its own goroutine.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	state := r.State()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			in := Input{}
			select {
			case <-r.jumpCh:
				in.Jump = true
			default:
			}

			state = Step(r.cfg, state, in, FrameMs)

			r.mu.Lock()
			r.snapshot = state
			r.mu.Unlock()

			if state.Phase == PhaseGameOver {
				if r.onGameOver != nil {
					r.onGameOver(state.Score)
				}
				return
			}
		}
	}
}
