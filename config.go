package docmerge

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alnah/go-docmerge/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// Config holds service-level configuration, loadable from YAML with
// DOCMERGE_* environment overrides applied on top.
type Config struct {
	Dirs     DirsConfig     `yaml:"dirs"`
	Engine   EngineConfig   `yaml:"engine"`
	Governor GovernorYAML   `yaml:"governor"`
	Assembly AssemblyConfig `yaml:"assembly"`
}

// DirsConfig defines the filesystem layout.
type DirsConfig struct {
	Uploads string `yaml:"uploads"` // incoming files, deleted after processing
	Output  string `yaml:"output"`  // final artifacts, served for download
	Temp    string `yaml:"temp"`    // conversion fragments, deleted after processing
}

// EngineConfig defines the external conversion engine.
type EngineConfig struct {
	Binary         string `yaml:"binary"`         // binary name or path (default: soffice)
	TimeoutSeconds int    `yaml:"timeoutSeconds"` // per-invocation timeout
}

// GovernorYAML mirrors GovernorConfig for YAML loading.
type GovernorYAML struct {
	MaxConcurrent       int     `yaml:"maxConcurrent"`
	BatchSize           int     `yaml:"batchSize"`
	MemoryThresholdMB   uint64  `yaml:"memoryThresholdMB"`
	CPUThresholdPercent float64 `yaml:"cpuThresholdPercent"`
	SystemMemoryPercent float64 `yaml:"systemMemoryPercent"`
	DisableParallel     bool    `yaml:"disableParallel"`
}

// AssemblyConfig tunes output assembly.
type AssemblyConfig struct {
	LargeFileMB int64 `yaml:"largeFileMB"` // streaming threshold for PDF merge
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Dirs: DirsConfig{
			Uploads: "./uploads",
			Output:  defaultOutputDir,
			Temp:    defaultTempDir,
		},
		Engine: EngineConfig{
			Binary:         defaultEngineBinary,
			TimeoutSeconds: int(defaultEngineTimeout / time.Second),
		},
		Assembly: AssemblyConfig{
			LargeFileMB: defaultLargeFileSize >> 20,
		},
	}
}

// LoadConfig reads a YAML config file, layering it over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) // #nosec G304 -- operator-provided path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %q", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return cfg, nil
}

// ApplyEnv overlays DOCMERGE_* environment variables onto the config.
// Unset variables leave their fields unchanged.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("DOCMERGE_UPLOAD_DIR"); v != "" {
		c.Dirs.Uploads = v
	}
	if v := os.Getenv("DOCMERGE_OUTPUT_DIR"); v != "" {
		c.Dirs.Output = v
	}
	if v := os.Getenv("DOCMERGE_TEMP_DIR"); v != "" {
		c.Dirs.Temp = v
	}
	if v := os.Getenv("DOCMERGE_ENGINE"); v != "" {
		c.Engine.Binary = v
	}
	if v := os.Getenv("DOCMERGE_ENGINE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Engine.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("DOCMERGE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Governor.MaxConcurrent = n
		}
	}
	if v := os.Getenv("DOCMERGE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Governor.BatchSize = n
		}
	}
}

// Options converts the config into Merger options.
func (c Config) Options() []Option {
	opts := []Option{
		WithOutputDir(c.Dirs.Output),
		WithTempDir(c.Dirs.Temp),
		WithEngineBinary(c.Engine.Binary),
		WithGovernorConfig(GovernorConfig{
			MaxConcurrent:       c.Governor.MaxConcurrent,
			BatchSize:           c.Governor.BatchSize,
			MemoryThresholdMB:   c.Governor.MemoryThresholdMB,
			CPUThresholdPercent: c.Governor.CPUThresholdPercent,
			SystemMemoryPercent: c.Governor.SystemMemoryPercent,
			DisableParallel:     c.Governor.DisableParallel,
		}),
	}
	if c.Engine.TimeoutSeconds > 0 {
		opts = append(opts, WithEngineTimeout(time.Duration(c.Engine.TimeoutSeconds)*time.Second))
	}
	if c.Assembly.LargeFileMB > 0 {
		opts = append(opts, WithLargeFileSize(c.Assembly.LargeFileMB<<20))
	}
	return opts
}
