package spectrum

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultConfigFile = "config.json"

// Environment variables that override config.json.
const (
	EnvOrtLibrary    = "GAMMASPEC_ORT_LIBRARY"
	EnvModelPath     = "GAMMASPEC_MODEL_PATH"
	EnvParticleCount = "GAMMASPEC_PARTICLE_COUNT"
)

// LoadConfig loads configuration from the given path or the default config.json.
// A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// SaveConfig writes cfg next to path and swaps it in, so a crash never
// leaves a truncated config.json behind.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	cfg.ApplyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmp := f.Name()
	_, werr := f.Write(append(data, '\n'))
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// ValidateParticleCount rejects history counts that are not finite and positive.
func ValidateParticleCount(n float64) error {
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return fmt.Errorf("%w: particle count %v", ErrInvalidConfig, n)
	}
	return nil
}

// ValidateThresholdBins rejects thresholds below one bin. Zero would be
// replaced by the default, so it is refused rather than silently changed.
func ValidateThresholdBins(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: threshold bins %d", ErrInvalidConfig, n)
	}
	return nil
}

// ApplyEnv overrides settings from the process environment.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvOrtLibrary)); v != "" {
		c.Model.OrtLibrary = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvModelPath)); v != "" {
		c.Model.ModelPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvParticleCount)); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err == nil {
			err = ValidateParticleCount(n)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", EnvParticleCount, err)
		}
		c.ParticleCount = n
	}
	c.ApplyDefaults()
	return nil
}
