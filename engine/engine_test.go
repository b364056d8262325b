package engine

import (
	"math"
	"testing"
)

func testConfig() Config {
	return Config{
		CanvasWidth:  400,
		CanvasHeight: 600,

		ActorX:       80,
		ActorSize:    40,
		Gravity:      0.5,
		JumpForce:    8,
		MaxFallSpeed: 10,

		ObstacleWidth: 70,
		ObstacleSpeed: 2.5,

		SpawnIntervalMs:         2000,
		MinSpawnIntervalMs:      1200,
		SpawnIntervalDecreaseMs: 100,

		GapSize:     200,
		MinGap:      120,
		GapDecrease: 5,

		SpeedIncrement:           0.2,
		SpeedIncrementIntervalMs: 10000,
		MaxSpeed:                 6,
	}
}

func stepFrames(cfg Config, s State, in Input, frames int) State {
	for i := 0; i < frames; i++ {
		s = Step(cfg, s, in, FrameMs)
	}
	return s
}

const framesPerPhase = int(PracticeMs/FrameMs) + 1

func TestIdleUntilFirstJump(t *testing.T) {
	cfg := testConfig()
	s := NewState(cfg, 1)
	if s.Phase != PhaseIdle {
		t.Fatalf("new state should be idle, got %s", s.Phase)
	}

	s = stepFrames(cfg, s, Input{}, 120)
	if s.Phase != PhaseIdle {
		t.Errorf("idle state advanced without input to %s", s.Phase)
	}

	s = Step(cfg, s, Input{Jump: true}, FrameMs)
	if s.Phase != PhasePractice {
		t.Errorf("first jump should enter practice, got %s", s.Phase)
	}
	if s.Score != 0 {
		t.Errorf("practice must not affect score, got %d", s.Score)
	}
}

func TestPhaseProgressionTiming(t *testing.T) {
	cfg := testConfig()
	s := Step(cfg, NewState(cfg, 1), Input{Jump: true}, FrameMs)

	s = stepFrames(cfg, s, Input{}, framesPerPhase)
	if s.Phase != PhaseCountdown {
		t.Fatalf("expected countdown after 3s of practice, got %s", s.Phase)
	}

	s = stepFrames(cfg, s, Input{}, framesPerPhase)
	if s.Phase != PhasePlaying {
		t.Fatalf("expected playing after 3s of countdown, got %s", s.Phase)
	}
	if len(s.Obstacles) == 0 {
		t.Fatal("playing should start with the first obstacle spawned")
	}
	if s.Obstacles[0].X > cfg.CanvasWidth {
		t.Errorf("first obstacle should start at the right edge, got X=%f", s.Obstacles[0].X)
	}
}

func TestNoDeathBeforePlaying(t *testing.T) {
	cfg := testConfig()
	s := Step(cfg, NewState(cfg, 7), Input{Jump: true}, FrameMs)

	// Never jump again: the actor free-falls through practice and countdown
	// and must be clamped to the ground instead of dying
	for i := 0; i < 3*framesPerPhase; i++ {
		s = Step(cfg, s, Input{}, FrameMs)
		if s.Phase == PhasePlaying {
			return // warmup survived; playing rules take over from here
		}
		if s.Phase == PhaseGameOver {
			t.Fatalf("died during warmup at frame %d", i)
		}
		if s.ActorY+cfg.ActorSize > cfg.CanvasHeight {
			t.Fatalf("actor fell through the ground in %s: y=%f", s.Phase, s.ActorY)
		}
	}
	t.Fatal("never reached playing phase")
}

func TestJumpImpulse(t *testing.T) {
	cfg := testConfig()
	s := Step(cfg, NewState(cfg, 1), Input{Jump: true}, FrameMs)
	s = Step(cfg, s, Input{Jump: true}, FrameMs)
	// One frame of gravity is already integrated on top of the impulse
	if want := -cfg.JumpForce + cfg.Gravity; math.Abs(s.VelocityY-want) > 1e-9 {
		t.Errorf("expected velocity %f after jump, got %f", want, s.VelocityY)
	}
}

// playingState builds a mid-game state directly, bypassing the warmup phases.
func playingState(cfg Config, seed int64) State {
	s := NewState(cfg, seed)
	s.Phase = PhasePlaying
	s.CurrentSpeed = cfg.ObstacleSpeed
	s.CurrentGap = cfg.GapSize
	s.CurrentSpawnIntervalMs = cfg.SpawnIntervalMs
	return s
}

func TestScoreExactlyOncePerObstacle(t *testing.T) {
	cfg := testConfig()
	cfg.Gravity = 0 // hold the actor still; only obstacle traversal matters here

	s := playingState(cfg, 1)
	s.Obstacles = []Obstacle{{X: cfg.ActorX + 1, GapY: 0, GapSize: cfg.CanvasHeight}}

	scored := 0
	for i := 0; i < 60; i++ {
		before := s.Score
		s = Step(cfg, s, Input{}, FrameMs)
		if s.Phase == PhaseGameOver {
			t.Fatalf("unexpected game over at frame %d", i)
		}
		if s.Score > before {
			scored += s.Score - before
		}
	}
	if scored != 1 {
		t.Errorf("obstacle should score exactly once, scored %d", scored)
	}
}

func TestObstaclesCulledOffscreen(t *testing.T) {
	cfg := testConfig()
	cfg.Gravity = 0

	s := playingState(cfg, 1)
	s.Obstacles = []Obstacle{{X: -cfg.ObstacleWidth + 1, GapY: 0, GapSize: cfg.CanvasHeight, Passed: true}}
	s = stepFrames(cfg, s, Input{}, 5)
	if len(s.Obstacles) != 0 {
		t.Errorf("off-screen obstacle should be removed, still have %d", len(s.Obstacles))
	}
}

func TestDifficultyRampCapsAndFloors(t *testing.T) {
	cfg := testConfig()
	cfg.Gravity = 0
	cfg.SpeedIncrementIntervalMs = 100 // ramp fast so caps are reached in-test

	s := playingState(cfg, 1)
	// 20s of play at a 100ms ramp interval saturates every limit. Obstacles
	// are dropped after each frame — only the ramp values are under test.
	for i := 0; i < 20*FrameRate; i++ {
		s = Step(cfg, s, Input{}, FrameMs)
		s.Obstacles = nil
		if s.Phase == PhaseGameOver {
			t.Fatalf("unexpected game over at frame %d", i)
		}
		if s.CurrentSpeed > cfg.MaxSpeed {
			t.Fatalf("speed exceeded cap: %f", s.CurrentSpeed)
		}
		if s.CurrentGap < cfg.MinGap {
			t.Fatalf("gap below floor: %f", s.CurrentGap)
		}
		if s.CurrentSpawnIntervalMs < cfg.MinSpawnIntervalMs {
			t.Fatalf("spawn interval below floor: %f", s.CurrentSpawnIntervalMs)
		}
	}
	if s.CurrentSpeed != cfg.MaxSpeed {
		t.Errorf("expected speed capped at %f, got %f", cfg.MaxSpeed, s.CurrentSpeed)
	}
	if s.CurrentGap != cfg.MinGap {
		t.Errorf("expected gap floored at %f, got %f", cfg.MinGap, s.CurrentGap)
	}
	if s.CurrentSpawnIntervalMs != cfg.MinSpawnIntervalMs {
		t.Errorf("expected spawn interval floored at %f, got %f", cfg.MinSpawnIntervalMs, s.CurrentSpawnIntervalMs)
	}
}

func TestCollisionIsTerminal(t *testing.T) {
	cfg := testConfig()
	s := playingState(cfg, 1)
	// Obstacle column directly over the actor with the gap far away
	s.Obstacles = []Obstacle{{X: cfg.ActorX, GapY: cfg.CanvasHeight - 10, GapSize: 10}}

	s = Step(cfg, s, Input{}, FrameMs)
	if s.Phase != PhaseGameOver {
		t.Fatalf("expected game over on obstacle collision, got %s", s.Phase)
	}

	final := s.Score
	s = Step(cfg, s, Input{Jump: true}, FrameMs)
	if s.Phase != PhaseGameOver || s.Score != final {
		t.Error("gameover must be terminal: no transitions, no score changes")
	}
}

func TestGroundCollisionEndsGame(t *testing.T) {
	cfg := testConfig()
	s := playingState(cfg, 1)
	s.Obstacles = nil
	s.ActorY = cfg.CanvasHeight - cfg.ActorSize - 1
	s.VelocityY = cfg.MaxFallSpeed

	s = Step(cfg, s, Input{}, FrameMs)
	if s.Phase != PhaseGameOver {
		t.Errorf("expected game over on ground collision, got %s", s.Phase)
	}
}

func TestDeterministicBySeed(t *testing.T) {
	cfg := testConfig()

	run := func(seed int64) State {
		s := Step(cfg, NewState(cfg, seed), Input{Jump: true}, FrameMs)
		for i := 0; i < 3*framesPerPhase; i++ {
			in := Input{Jump: i%30 == 0}
			s = Step(cfg, s, in, FrameMs)
		}
		return s
	}

	a, b := run(42), run(42)
	if a.Phase != b.Phase || a.Score != b.Score || a.ActorY != b.ActorY || len(a.Obstacles) != len(b.Obstacles) {
		t.Fatal("identical seed and inputs must produce identical states")
	}
	for i := range a.Obstacles {
		if a.Obstacles[i] != b.Obstacles[i] {
			t.Fatalf("obstacle %d diverged between identical runs", i)
		}
	}
}

func TestGapPlacementStaysInBounds(t *testing.T) {
	cfg := testConfig()
	for i := 0; i < 50; i++ {
		y := gapYFor(99, i, cfg, cfg.GapSize)
		if y < gapEdgeMargin || y+cfg.GapSize > cfg.CanvasHeight-gapEdgeMargin {
			t.Errorf("gap %d out of bounds: y=%f", i, y)
		}
	}
}
