package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WebsocketHost != "0.0.0.0" || cfg.WebsocketPort != 5000 {
		t.Fatalf("unexpected listen defaults: %+v", cfg)
	}
	if cfg.WorldBoundsX != 1000.0 || cfg.WorldBoundsY != 1000.0 {
		t.Fatalf("unexpected world bounds defaults: %+v", cfg)
	}
	if cfg.PlayerSpeed != 100.0 {
		t.Fatalf("unexpected player speed default: %+v", cfg)
	}
	if cfg.Acceleration != 14.0 || cfg.Friction != 10.0 {
		t.Fatalf("unexpected tuning defaults: %+v", cfg)
	}
	if cfg.NPCCount != 0 {
		t.Fatalf("expected zero NPCs with no world.yaml, got %d", cfg.NPCCount)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBSOCKET_HOST", "127.0.0.1")
	t.Setenv("WEBSOCKET_PORT", "9001")
	t.Setenv("WORLD_BOUNDS_X", "500")
	t.Setenv("PLAYER_SPEED", "150")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WebsocketHost != "127.0.0.1" || cfg.WebsocketPort != 9001 {
		t.Fatalf("unexpected listen overrides: %+v", cfg)
	}
	if cfg.WorldBoundsX != 500 {
		t.Fatalf("unexpected bounds override: %+v", cfg)
	}
	if cfg.PlayerSpeed != 150 {
		t.Fatalf("unexpected speed override: %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level override: %+v", cfg)
	}
}

func TestLoadWorldFileOverlay(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, worldConfigPath)
	if err := os.WriteFile(path, []byte("npc_count: 5\n"), 0o644); err != nil {
		t.Fatalf("failed to write world.yaml: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer os.Chdir(wd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NPCCount != 5 {
		t.Fatalf("expected npc_count 5, got %d", cfg.NPCCount)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WEBSOCKET_HOST", "WEBSOCKET_PORT", "WORLD_BOUNDS_X", "WORLD_BOUNDS_Y",
		"PLAYER_SPEED", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}
