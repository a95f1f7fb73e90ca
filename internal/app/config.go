package app

import (
	"os"
	"strconv"
	"time"

	"github.com/astralhq/astral/internal/batch"
	"github.com/astralhq/astral/internal/cache"
	"github.com/astralhq/astral/internal/ephemeris"
	"github.com/astralhq/astral/internal/generator"
	"github.com/astralhq/astral/internal/render"
)

// Config aggregates the runtime configuration of the internal modules. It is
// constructed once at startup and handed to whichever component needs it.
type Config struct {
	EphemerisCfg ephemeris.Config
	GeneratorCfg generator.Config
	BatchCfg     batch.Config
	CacheCfg     cache.Config
	RenderCfg    render.Config

	// DatabasePath is the SQLite file holding persisted reports. Empty
	// disables persistence entirely.
	DatabasePath string

	// EnablePDF controls whether a headless Chrome renderer is started.
	// PDF generation is slow and needs a Chrome binary, so it is off by
	// default.
	EnablePDF bool
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		EphemerisCfg: ephemeris.DefaultConfig(),
		BatchCfg:     batch.DefaultConfig(),
		CacheCfg: cache.Config{
			ValidityWindow: cache.DefaultValidityWindow,
			SweepInterval:  time.Hour,
		},
		DatabasePath: "astral.db",
	}
}

// ApplyEnv overlays ASTRAL_* environment variables onto the config. Unset or
// unparsable variables leave the existing value in place.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ASTRAL_DB_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("ASTRAL_ENABLE_PDF"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.EnablePDF = b
		}
	}
	if v := os.Getenv("ASTRAL_BATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.BatchCfg.MaxConcurrency = n
		}
	}
	if v := os.Getenv("ASTRAL_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.CacheCfg.ValidityWindow = d
		}
	}
	if v := os.Getenv("ASTRAL_AYANAMSA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.EphemerisCfg.Ayanamsa = f
			c.GeneratorCfg.Ayanamsa = f
		}
	}
}
