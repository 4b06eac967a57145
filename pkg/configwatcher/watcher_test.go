package configwatcher

import (
	"context"
	"fmt"
	"learnhub_backend/internal/config"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const baseConfig = `
server:
  mode: debug
storage:
  type: s3
ai:
  enabled: false
  model: %s
`

func writeConfig(t *testing.T, dir, model string) {
	t.Helper()
	body := []byte(fmt.Sprintf(baseConfig, model))
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "first")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 4)
	if err := WatchConfig(ctx, dir, func(cfg *config.Config) { reloaded <- cfg }); err != nil {
		t.Fatalf("WatchConfig: %v", err)
	}

	writeConfig(t, dir, "second")

	select {
	case cfg := <-reloaded:
		if cfg.AI.Model != "second" {
			t.Fatalf("model: want=second got=%s", cfg.AI.Model)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("config was not reloaded")
	}
}

func TestWatchConfigMissingDir(t *testing.T) {
	err := WatchConfig(context.Background(), filepath.Join(t.TempDir(), "missing"), func(*config.Config) {})
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
