// Package config loads server configuration from the environment, with an
// optional .env file and an optional world.yaml overlay, per §6.4 and §10.1.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config carries every documented environment variable plus the supplemental
// knobs introduced by the NPC expansion.
type Config struct {
	WebsocketHost string
	WebsocketPort int
	WorldBoundsX  float64
	WorldBoundsY  float64
	PlayerSpeed   float64
	LogLevel      string

	// Acceleration and Friction are not exposed as environment variables by
	// spec.md; they hold the fixed defaults from §4.4. Nothing reads them:
	// the sim engine's defaultProfile sets the same values itself.
	Acceleration float64
	Friction     float64

	// NPCCount is the supplemental knob for the wandering-NPC expansion
	// (§3 [EXPANSION]); it has no assigned environment variable, so it is
	// read from an optional world.yaml instead.
	NPCCount int
}

// worldFile mirrors the subset of world.yaml this server understands.
type worldFile struct {
	NPCCount int `yaml:"npc_count"`
}

const worldConfigPath = "world.yaml"

// Load reads a local .env file (if present), then the documented environment
// variables with their defaults, then an optional world.yaml overlay.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		WebsocketHost: "0.0.0.0",
		WebsocketPort: 5000,
		WorldBoundsX:  1000.0,
		WorldBoundsY:  1000.0,
		PlayerSpeed:   100.0,
		LogLevel:      "info",
		Acceleration:  14.0,
		Friction:      10.0,
		NPCCount:      0,
	}

	if v := os.Getenv("WEBSOCKET_HOST"); v != "" {
		cfg.WebsocketHost = v
	}
	if v := os.Getenv("WEBSOCKET_PORT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.WebsocketPort = parsed
		}
	}
	if v := os.Getenv("WORLD_BOUNDS_X"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.WorldBoundsX = parsed
		}
	}
	if v := os.Getenv("WORLD_BOUNDS_Y"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.WorldBoundsY = parsed
		}
	}
	if v := os.Getenv("PLAYER_SPEED"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.PlayerSpeed = parsed
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.applyWorldFile(worldConfigPath); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyWorldFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var wf worldFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return err
	}
	c.NPCCount = wf.NPCCount
	return nil
}
