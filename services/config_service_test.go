package services

import (
	"testing"

	"game-session-service/engine"
	"game-session-service/models"
)

func TestEnsureDefaultConfigIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewConfigService(db)

	if err := svc.EnsureDefaultConfig(); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := svc.EnsureDefaultConfig(); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var count int64
	db.Model(&models.DifficultyConfig{}).Count(&count)
	if count != 1 {
		t.Errorf("expected one config row, got %d", count)
	}

	cfg, err := svc.ActiveConfig()
	if err != nil {
		t.Fatalf("active config: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("expected seeded version 1, got %d", cfg.Version)
	}
}

func TestEngineConfigDrivesSimulation(t *testing.T) {
	db := newTestDB(t)
	svc := NewConfigService(db)
	if err := svc.EnsureDefaultConfig(); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	stored, err := svc.ActiveConfig()
	if err != nil {
		t.Fatalf("active config: %v", err)
	}

	ec := EngineConfig(stored)
	if ec.CanvasWidth != stored.CanvasWidth || ec.ObstacleSpeed != stored.ObstacleSpeed {
		t.Fatalf("mapped config diverges from stored row: %+v vs %+v", ec, stored)
	}
	if ec.SpawnIntervalMs != stored.SpawnIntervalMs || ec.MaxSpeed != stored.MaxSpeed {
		t.Fatalf("mapped ramp values diverge from stored row: %+v vs %+v", ec, stored)
	}

	// The stored parameters must be usable by the simulation as-is
	s := engine.NewState(ec, 3)
	s = engine.Step(ec, s, engine.Input{Jump: true}, engine.FrameMs)
	if s.Phase != engine.PhasePractice {
		t.Fatalf("expected practice after first jump, got %s", s.Phase)
	}
	if len(s.Obstacles) == 0 {
		t.Fatal("practice phase should show preview obstacles")
	}
	for _, o := range s.Obstacles {
		if o.GapSize != stored.GapSize {
			t.Errorf("preview gap %v does not match stored gap %v", o.GapSize, stored.GapSize)
		}
	}
}
