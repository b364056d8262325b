package models

// DifficultyConfig is the authoritative, versioned snapshot of the game physics
// parameters. The server reads the active row at validation time; the client gets
// the same values from GET /game/config purely for gameplay feel.
//
// Speeds are px/frame at the assumed 60 FPS; intervals are milliseconds.
type DifficultyConfig struct {
	ID      string `json:"id" gorm:"primaryKey"`
	Version int    `gorm:"uniqueIndex;not null" json:"version"`
	Active  bool   `json:"active" gorm:"default:false;index"`

	CanvasWidth  float64 `json:"canvas_width" gorm:"default:400"`
	CanvasHeight float64 `json:"canvas_height" gorm:"default:600"`

	ActorX       float64 `json:"actor_x" gorm:"default:80"`
	ActorSize    float64 `json:"actor_size" gorm:"default:40"`
	Gravity      float64 `json:"gravity" gorm:"default:0.5"`
	JumpForce    float64 `json:"jump_force" gorm:"default:8"`
	MaxFallSpeed float64 `json:"max_fall_speed" gorm:"default:10"`

	ObstacleWidth float64 `json:"obstacle_width" gorm:"default:70"`
	ObstacleSpeed float64 `json:"obstacle_speed" gorm:"default:2.5"`

	SpawnIntervalMs         float64 `json:"spawn_interval_ms" gorm:"default:2000"`
	MinSpawnIntervalMs      float64 `json:"min_spawn_interval_ms" gorm:"default:1200"`
	SpawnIntervalDecreaseMs float64 `json:"spawn_interval_decrease_ms" gorm:"default:100"`

	GapSize     float64 `json:"gap_size" gorm:"default:200"`
	MinGap      float64 `json:"min_gap" gorm:"default:120"`
	GapDecrease float64 `json:"gap_decrease" gorm:"default:5"`

	SpeedIncrement           float64 `json:"speed_increment" gorm:"default:0.2"`
	SpeedIncrementIntervalMs float64 `json:"speed_increment_interval_ms" gorm:"default:10000"`
	MaxSpeed                 float64 `json:"max_speed" gorm:"default:6"`

	Timestamps
}

// DefaultDifficultyConfig returns the v1 parameters seeded on first boot.
func DefaultDifficultyConfig() DifficultyConfig {
	return DifficultyConfig{
		Version: 1,
		Active:  true,

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
