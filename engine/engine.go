// engine implements the deterministic fixed-timestep simulation behind the
// promo game: a vertically-jumping actor dodging horizontally-scrolling paired
// obstacles. The whole simulation is a value transform — Step(cfg, state, input)
// returns the next State — so a run is replayable from (config, seed, inputs).
package engine

import "math/rand"

const (
	// FrameRate is the assumed client frame rate. The score validator derives
	// its pixels-per-second figure from the same constant.
	FrameRate = 60
	FrameMs   = 1000.0 / FrameRate

	// Fixed instructional phases before real play
	PracticeMs  = 3000.0
	CountdownMs = 3000.0

	gapEdgeMargin = 40.0
)

// Phase is the simulation lifecycle. Transitions only ever move forward;
// a new game requires a fresh State.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePractice  Phase = "practice"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseGameOver  Phase = "gameover"
)

// Config carries the physics parameters. Speeds are px/frame at FrameRate,
// intervals are milliseconds. Mirrors models.DifficultyConfig.
type Config struct {
	CanvasWidth  float64
	CanvasHeight float64

	ActorX       float64
	ActorSize    float64
	Gravity      float64
	JumpForce    float64
	MaxFallSpeed float64

	ObstacleWidth float64
	ObstacleSpeed float64

	SpawnIntervalMs         float64
	MinSpawnIntervalMs      float64
	SpawnIntervalDecreaseMs float64

	GapSize     float64
	MinGap      float64
	GapDecrease float64

	SpeedIncrement           float64
	SpeedIncrementIntervalMs float64
	MaxSpeed                 float64
}

// Obstacle is a paired column with a vertical gap. Passed guards the
// exactly-once score increment.
type Obstacle struct {
	X       float64 `json:"x"`
	GapY    float64 `json:"gap_y"`
	GapSize float64 `json:"gap_size"`
	Passed  bool    `json:"passed"`
}

// Input is the per-frame player input.
type Input struct {
	Jump bool
}

// State is the full simulation state, threaded through Step as a value.
// Serializing it at any frame captures the run for replay/debugging.
type State struct {
	Phase          Phase   `json:"phase"`
	PhaseElapsedMs float64 `json:"phase_elapsed_ms"`
	Seed           int64   `json:"seed"`

	ActorY    float64 `json:"actor_y"`
	VelocityY float64 `json:"velocity_y"`

	Score     int        `json:"score"`
	Obstacles []Obstacle `json:"obstacles"`

	// Difficulty ramp values, advanced while playing
	CurrentSpeed           float64 `json:"current_speed"`
	CurrentGap             float64 `json:"current_gap"`
	CurrentSpawnIntervalMs float64 `json:"current_spawn_interval_ms"`

	SinceSpawnMs float64 `json:"since_spawn_ms"`
	SinceRampMs  float64 `json:"since_ramp_ms"`
	Spawned      int     `json:"spawned"`
}

// NewState returns an idle simulation. The seed fixes the obstacle gap
// sequence for the whole run.
func NewState(cfg Config, seed int64) State {
	return State{
		Phase:  PhaseIdle,
		Seed:   seed,
		ActorY: cfg.CanvasHeight/2 - cfg.ActorSize/2,
	}
}

// Step advances the simulation by dtMs (normally FrameMs) and returns the next
// state. It never mutates s. Collisions are an expected terminal transition,
// not an error.
func Step(cfg Config, s State, in Input, dtMs float64) State {
	switch s.Phase {
	case PhaseIdle:
		if in.Jump {
			return enterPractice(cfg, s)
		}
		return s
	case PhasePractice:
		return stepPractice(cfg, s, in, dtMs)
	case PhaseCountdown:
		return stepCountdown(cfg, s, in, dtMs)
	case PhasePlaying:
		return stepPlaying(cfg, s, in, dtMs)
	default:
		// gameover is terminal — callers start a new State to play again
		return s
	}
}

func enterPractice(cfg Config, s State) State {
	next := s
	next.Phase = PhasePractice
	next.PhaseElapsedMs = 0
	next.ActorY = cfg.CanvasHeight/2 - cfg.ActorSize/2
	next.VelocityY = 0
	// Static preview obstacles, instructional only — never moved, never collided
	next.Obstacles = []Obstacle{
		{X: cfg.CanvasWidth * 0.55, GapY: gapYFor(s.Seed, -2, cfg, cfg.GapSize), GapSize: cfg.GapSize, Passed: true},
		{X: cfg.CanvasWidth * 0.85, GapY: gapYFor(s.Seed, -1, cfg, cfg.GapSize), GapSize: cfg.GapSize, Passed: true},
	}
	return next
}

func stepPractice(cfg Config, s State, in Input, dtMs float64) State {
	next := s
	next.PhaseElapsedMs += dtMs
	next = integrateActor(cfg, next, in, dtMs)
	next = clampActor(cfg, next)
	if next.PhaseElapsedMs >= PracticeMs {
		return enterCountdown(cfg, next)
	}
	return next
}

func enterCountdown(cfg Config, s State) State {
	next := s
	next.Phase = PhaseCountdown
	next.PhaseElapsedMs = 0
	// The preview obstacle slides in from off-screen during the countdown and
	// lands exactly at the right edge when play begins.
	next.Obstacles = []Obstacle{
		{X: cfg.CanvasWidth + cfg.ObstacleWidth, GapY: gapYFor(s.Seed, 0, cfg, cfg.GapSize), GapSize: cfg.GapSize},
	}
	return next
}

func stepCountdown(cfg Config, s State, in Input, dtMs float64) State {
	next := s
	next.PhaseElapsedMs += dtMs
	next = integrateActor(cfg, next, in, dtMs)
	next = clampActor(cfg, next)

	// Linear slide: CanvasWidth+ObstacleWidth → CanvasWidth over the countdown
	progress := next.PhaseElapsedMs / CountdownMs
	if progress > 1 {
		progress = 1
	}
	if len(next.Obstacles) > 0 {
		obs := make([]Obstacle, len(next.Obstacles))
		copy(obs, next.Obstacles)
		obs[0].X = cfg.CanvasWidth + cfg.ObstacleWidth*(1-progress)
		next.Obstacles = obs
	}

	if next.PhaseElapsedMs >= CountdownMs {
		return enterPlaying(cfg, next)
	}
	return next
}

func enterPlaying(cfg Config, s State) State {
	next := s
	next.Phase = PhasePlaying
	next.PhaseElapsedMs = 0
	next.Score = 0
	next.CurrentSpeed = cfg.ObstacleSpeed
	next.CurrentGap = cfg.GapSize
	next.CurrentSpawnIntervalMs = cfg.SpawnIntervalMs
	next.SinceSpawnMs = 0
	next.SinceRampMs = 0
	// First scoring obstacle starts at the right edge at t=0
	next.Obstacles = []Obstacle{
		{X: cfg.CanvasWidth, GapY: gapYFor(s.Seed, 0, cfg, cfg.GapSize), GapSize: cfg.GapSize},
	}
	next.Spawned = 1
	return next
}

func stepPlaying(cfg Config, s State, in Input, dtMs float64) State {
	next := s
	next.PhaseElapsedMs += dtMs
	next.SinceSpawnMs += dtMs
	next.SinceRampMs += dtMs

	// Difficulty ramp on elapsed play time
	for next.SinceRampMs >= cfg.SpeedIncrementIntervalMs && cfg.SpeedIncrementIntervalMs > 0 {
		next.SinceRampMs -= cfg.SpeedIncrementIntervalMs
		next.CurrentSpeed += cfg.SpeedIncrement
		if next.CurrentSpeed > cfg.MaxSpeed {
			next.CurrentSpeed = cfg.MaxSpeed
		}
		next.CurrentGap -= cfg.GapDecrease
		if next.CurrentGap < cfg.MinGap {
			next.CurrentGap = cfg.MinGap
		}
		next.CurrentSpawnIntervalMs -= cfg.SpawnIntervalDecreaseMs
		if next.CurrentSpawnIntervalMs < cfg.MinSpawnIntervalMs {
			next.CurrentSpawnIntervalMs = cfg.MinSpawnIntervalMs
		}
	}

	next = integrateActor(cfg, next, in, dtMs)

	// Move obstacles, score passes, cull off-screen
	frames := dtMs / FrameMs
	obs := make([]Obstacle, 0, len(next.Obstacles)+1)
	score := next.Score
	for _, o := range next.Obstacles {
		o.X -= next.CurrentSpeed * frames
		if !o.Passed && o.X+cfg.ObstacleWidth < cfg.ActorX {
			o.Passed = true
			score++
		}
		if o.X+cfg.ObstacleWidth >= 0 {
			obs = append(obs, o)
		}
	}

	if next.SinceSpawnMs >= next.CurrentSpawnIntervalMs {
		next.SinceSpawnMs -= next.CurrentSpawnIntervalMs
		obs = append(obs, Obstacle{
			X:       cfg.CanvasWidth,
			GapY:    gapYFor(next.Seed, next.Spawned, cfg, next.CurrentGap),
			GapSize: next.CurrentGap,
		})
		next.Spawned++
	}

	next.Obstacles = obs
	next.Score = score

	if collides(cfg, next) {
		next.Phase = PhaseGameOver
		return next
	}
	return next
}

// integrateActor applies jump impulse, gravity and fall-speed clamp.
func integrateActor(cfg Config, s State, in Input, dtMs float64) State {
	next := s
	frames := dtMs / FrameMs
	if in.Jump {
		next.VelocityY = -cfg.JumpForce
	}
	next.VelocityY += cfg.Gravity * frames
	if next.VelocityY > cfg.MaxFallSpeed {
		next.VelocityY = cfg.MaxFallSpeed
	}
	next.ActorY += next.VelocityY * frames
	return next
}

// clampActor keeps the actor inside the canvas during the non-lethal phases.
func clampActor(cfg Config, s State) State {
	next := s
	if next.ActorY < 0 {
		next.ActorY = 0
		next.VelocityY = 0
	}
	if max := cfg.CanvasHeight - cfg.ActorSize; next.ActorY > max {
		next.ActorY = max
		next.VelocityY = 0
	}
	return next
}

// collides reports whether the actor box hits the ground, the ceiling, or any
// obstacle's non-gap region.
func collides(cfg Config, s State) bool {
	if s.ActorY < 0 || s.ActorY+cfg.ActorSize > cfg.CanvasHeight {
		return true
	}
	for _, o := range s.Obstacles {
		if o.X >= cfg.ActorX+cfg.ActorSize || o.X+cfg.ObstacleWidth <= cfg.ActorX {
			continue
		}
		if s.ActorY < o.GapY || s.ActorY+cfg.ActorSize > o.GapY+o.GapSize {
			return true
		}
	}
	return false
}

// gapYFor places the gap for the nth spawned obstacle. Deterministic in
// (seed, index) so a run can be reproduced exactly.
func gapYFor(seed int64, index int, cfg Config, gap float64) float64 {
	rng := rand.New(rand.NewSource(seed + int64(index)*7919))
	span := cfg.CanvasHeight - gap - 2*gapEdgeMargin
	if span <= 0 {
		return gapEdgeMargin
	}
	return gapEdgeMargin + rng.Float64()*span
}
