package docmerge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dirs.Uploads != "./uploads" {
		t.Errorf("unexpected uploads dir %q", cfg.Dirs.Uploads)
	}
	if cfg.Dirs.Output != defaultOutputDir {
		t.Errorf("unexpected output dir %q", cfg.Dirs.Output)
	}
	if cfg.Engine.Binary != defaultEngineBinary {
		t.Errorf("unexpected engine binary %q", cfg.Engine.Binary)
	}
	if got := time.Duration(cfg.Engine.TimeoutSeconds) * time.Second; got != defaultEngineTimeout {
		t.Errorf("unexpected engine timeout %v", got)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file returns ErrConfigNotFound with defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got %v", err)
		}
		if cfg.Engine.Binary != defaultEngineBinary {
			t.Error("expected defaults to survive a missing file")
		}
	})

	t.Run("valid yaml overlays defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `dirs:
  output: /srv/artifacts
engine:
  binary: libreoffice
  timeoutSeconds: 120
governor:
  maxConcurrent: 8
  batchSize: 10
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Dirs.Output != "/srv/artifacts" {
			t.Errorf("output dir not loaded: %q", cfg.Dirs.Output)
		}
		if cfg.Dirs.Uploads != "./uploads" {
			t.Errorf("unset field should keep default, got %q", cfg.Dirs.Uploads)
		}
		if cfg.Engine.Binary != "libreoffice" || cfg.Engine.TimeoutSeconds != 120 {
			t.Errorf("engine config not loaded: %+v", cfg.Engine)
		}
		if cfg.Governor.MaxConcurrent != 8 || cfg.Governor.BatchSize != 10 {
			t.Errorf("governor config not loaded: %+v", cfg.Governor)
		}
	})

	t.Run("unknown keys fail strict parsing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("no_such_key: true\n"), 0o600); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Fatalf("expected ErrConfigParse, got %v", err)
		}
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(":\n\t- not yaml"), 0o600); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Fatalf("expected ErrConfigParse, got %v", err)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DOCMERGE_OUTPUT_DIR", "/env/output")
	t.Setenv("DOCMERGE_ENGINE", "openoffice")
	t.Setenv("DOCMERGE_ENGINE_TIMEOUT", "90")
	t.Setenv("DOCMERGE_WORKERS", "6")
	t.Setenv("DOCMERGE_BATCH_SIZE", "0") // non-positive values are ignored

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Dirs.Output != "/env/output" {
		t.Errorf("output dir override not applied: %q", cfg.Dirs.Output)
	}
	if cfg.Engine.Binary != "openoffice" {
		t.Errorf("engine override not applied: %q", cfg.Engine.Binary)
	}
	if cfg.Engine.TimeoutSeconds != 90 {
		t.Errorf("timeout override not applied: %d", cfg.Engine.TimeoutSeconds)
	}
	if cfg.Governor.MaxConcurrent != 6 {
		t.Errorf("workers override not applied: %d", cfg.Governor.MaxConcurrent)
	}
	if cfg.Governor.BatchSize != 0 {
		t.Errorf("invalid batch size should be ignored, got %d", cfg.Governor.BatchSize)
	}
}

func TestApplyEnv_InvalidNumbersIgnored(t *testing.T) {
	t.Setenv("DOCMERGE_WORKERS", "not-a-number")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Governor.MaxConcurrent != 0 {
		t.Errorf("invalid workers value should be ignored, got %d", cfg.Governor.MaxConcurrent)
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dirs.Output = filepath.Join(t.TempDir(), "out")
	cfg.Dirs.Temp = filepath.Join(t.TempDir(), "tmp")
	cfg.Engine.TimeoutSeconds = 30
	cfg.Governor.MaxConcurrent = 3

	m, err := NewMerger(append(cfg.Options(), WithLogger(discardLogger()))...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.cfg.outputDir != cfg.Dirs.Output {
		t.Errorf("output dir not wired: %q", m.cfg.outputDir)
	}
	if m.cfg.engineTimeout != 30*time.Second {
		t.Errorf("engine timeout not wired: %v", m.cfg.engineTimeout)
	}
	if m.cfg.governor.MaxConcurrent != 3 {
		t.Errorf("governor concurrency not wired: %d", m.cfg.governor.MaxConcurrent)
	}
}
