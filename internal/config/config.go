// README: Config loader with env defaults for HTTP, seeding, and sim tuning.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"dispatchsim/internal/sim"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	// Seed feeds the world's random source; 0 means seed from the clock.
	Seed int64
	// TuningPath points at an optional YAML file overriding sim defaults.
	TuningPath string
	Sim        sim.Config
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("DISPATCH_HTTP_ADDR", ":8080")
	cfg.Seed = envOrDefaultInt64("DISPATCH_SEED", 0)
	cfg.TuningPath = envOrDefault("DISPATCH_TUNING", "")

	cfg.Sim = sim.DefaultConfig()
	if cfg.TuningPath != "" {
		tuned, err := loadTuning(cfg.TuningPath, cfg.Sim)
		if err != nil {
			return cfg, err
		}
		cfg.Sim = tuned
	}
	return cfg, nil
}

// loadTuning overlays a YAML tuning file onto base. Keys absent from the
// file keep their base values.
func loadTuning(path string, base sim.Config) (sim.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	if err := yaml.Unmarshal(raw, &base); err != nil {
		return base, fmt.Errorf("tuning %s: %w", path, err)
	}
	return base, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
