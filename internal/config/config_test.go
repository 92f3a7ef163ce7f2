package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.Timeout.Std() != 2*time.Second {
		t.Fatalf("default timeout: got %v", cfg.Render.Timeout.Std())
	}
	if cfg.Node.Name != "lumen-node" {
		t.Fatalf("default node name: got %q", cfg.Node.Name)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("default log level: got %q", cfg.LogLevel)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.toml")
	body := `
log_level = "debug"

[node]
name = "studio-node"

[render]
timeout = "500ms"
scratch_root = "/tmp/lumen"

[quota]
limit = 20

[ledger]
path = "/var/lib/lumen/ledger.db"

[storage.backend]
kind = "localfs"
options = { dir = "/var/lib/lumen/artifacts" }

[[replica]]
kind = "grpc"
name = "peer-a"
options = { target = "10.0.0.2:7777" }
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Node.Name != "studio-node" {
		t.Fatalf("node name: got %q", cfg.Node.Name)
	}
	if cfg.Render.Timeout.Std() != 500*time.Millisecond {
		t.Fatalf("timeout: got %v", cfg.Render.Timeout.Std())
	}
	if cfg.Quota.Limit != 20 {
		t.Fatalf("quota limit: got %d", cfg.Quota.Limit)
	}
	if cfg.Storage.Backend.Kind != "localfs" {
		t.Fatalf("storage backend: got %q", cfg.Storage.Backend.Kind)
	}
	if cfg.Storage.Backend.Options["dir"] != "/var/lib/lumen/artifacts" {
		t.Fatalf("storage dir: got %q", cfg.Storage.Backend.Options["dir"])
	}
	if len(cfg.Replicas) != 1 || cfg.Replicas[0].Name != "peer-a" {
		t.Fatalf("replicas: got %+v", cfg.Replicas)
	}
	// FFmpeg default survives a partial [render] table.
	if cfg.Render.FFmpeg != "ffmpeg" {
		t.Fatalf("ffmpeg default: got %q", cfg.Render.FFmpeg)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.toml")
	if err := os.WriteFile(path, []byte("lgo_level = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.toml")
	if err := os.WriteFile(path, []byte("log_level = \"warn\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("log level from env config: got %q", cfg.LogLevel)
	}
}
