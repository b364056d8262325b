package services

import (
	"errors"
	"log"

	"game-session-service/engine"
	"game-session-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConfigService serves the authoritative DifficultyConfig. The active row is
// read per validation call — clients never get to pick which version applies.
type ConfigService struct {
	DB *gorm.DB
}

func NewConfigService(db *gorm.DB) *ConfigService {
	return &ConfigService{DB: db}
}

// EnsureDefaultConfig seeds the v1 parameters on an empty database (idempotent).
func (s *ConfigService) EnsureDefaultConfig() error {
	var count int64
	if err := s.DB.Model(&models.DifficultyConfig{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	cfg := models.DefaultDifficultyConfig()
	cfg.ID = uuid.NewString()
	if err := s.DB.Create(&cfg).Error; err != nil {
		return err
	}
	log.Printf("✅ Seeded default difficulty config v%d", cfg.Version)
	return nil
}

// ActiveConfig returns the highest active config version.
func (s *ConfigService) ActiveConfig() (models.DifficultyConfig, error) {
	var cfg models.DifficultyConfig
	err := s.DB.Where("active = ?", true).Order("version DESC").First(&cfg).Error
	return cfg, err
}

// GetConfig exposes the active config so the client engine can match gameplay
// feel. The server copy stays the single source of truth for validation.
func (s *ConfigService) GetConfig(c *fiber.Ctx) error {
	cfg, err := s.ActiveConfig()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no active difficulty config"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load difficulty config"})
	}
	return c.JSON(cfg)
}

// EngineConfig maps the stored config onto the simulation's parameter set.
func EngineConfig(m models.DifficultyConfig) engine.Config {
	return engine.Config{
		CanvasWidth:  m.CanvasWidth,
		CanvasHeight: m.CanvasHeight,

		ActorX:       m.ActorX,
		ActorSize:    m.ActorSize,
		Gravity:      m.Gravity,
		JumpForce:    m.JumpForce,
		MaxFallSpeed: m.MaxFallSpeed,

		ObstacleWidth: m.ObstacleWidth,
		ObstacleSpeed: m.ObstacleSpeed,

		SpawnIntervalMs:         m.SpawnIntervalMs,
		MinSpawnIntervalMs:      m.MinSpawnIntervalMs,
		SpawnIntervalDecreaseMs: m.SpawnIntervalDecreaseMs,

		GapSize:     m.GapSize,
		MinGap:      m.MinGap,
		GapDecrease: m.GapDecrease,

		SpeedIncrement:           m.SpeedIncrement,
		SpeedIncrementIntervalMs: m.SpeedIncrementIntervalMs,
		MaxSpeed:                 m.MaxSpeed,
	}
}
