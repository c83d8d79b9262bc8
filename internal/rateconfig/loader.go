package rateconfig

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-printshop/internal/obs"
	"github.com/noah-isme/backend-printshop/internal/pricing"
)

// Load builds rate tables from the built-in defaults with the optional YAML
// file at path layered on top. Maps merge key by key; lists such as the
// discount tiers are replaced wholesale when the file defines them.
func Load(path string) (*pricing.RateTables, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return pricing.NewRateTables(cfg)
}

// LoadConfig returns the merged, unvalidated rate configuration.
func LoadConfig(path string) (pricing.RateConfig, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(pricing.DefaultRateConfig(), "koanf"), nil); err != nil {
		return pricing.RateConfig{}, fmt.Errorf("load default rates: %w", err)
	}
	path = strings.TrimSpace(path)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return pricing.RateConfig{}, fmt.Errorf("load rates file %s: %w", path, err)
		}
	}
	var cfg pricing.RateConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return pricing.RateConfig{}, fmt.Errorf("decode rates: %w", err)
	}
	return cfg, nil
}

// Reloader rebuilds rate tables from a file and installs them into a store.
// Invalid files are rejected and the active snapshot stays in place.
type Reloader struct {
	Path   string
	Store  *pricing.Store
	Logger zerolog.Logger

	mu sync.Mutex
}

// Reload loads, validates and swaps in the file's tables.
func (r *Reloader) Reload() (*pricing.RateTables, error) {
	if r.Store == nil {
		return nil, errors.New("rateconfig: store is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := Load(r.Path)
	if err != nil {
		obs.RecordRateReload("rejected", "")
		r.Logger.Error().Err(err).Str("path", r.Path).Msg("rate reload rejected")
		return nil, err
	}
	prev, err := r.Store.Swap(next)
	if err != nil {
		obs.RecordRateReload("rejected", "")
		return nil, err
	}
	obs.RecordRateReload("applied", next.Version())
	r.Logger.Info().
		Str("path", r.Path).
		Str("previous_version", prev.Version()).
		Str("version", next.Version()).
		Msg("rate tables reloaded")
	return next, nil
}

// Watch reloads whenever the rate file changes. It returns immediately; the
// underlying watcher runs until the process exits or Unwatch is called.
func (r *Reloader) Watch() (*file.File, error) {
	if strings.TrimSpace(r.Path) == "" {
		return nil, errors.New("rateconfig: no rates file to watch")
	}
	f := file.Provider(r.Path)
	err := f.Watch(func(_ interface{}, err error) {
		if err != nil {
			r.Logger.Error().Err(err).Str("path", r.Path).Msg("rate file watch")
			return
		}
		_, _ = r.Reload()
	})
	if err != nil {
		return nil, fmt.Errorf("watch rates file: %w", err)
	}
	return f, nil
}
