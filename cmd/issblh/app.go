package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/star/issblh/internal/config"
	"github.com/star/issblh/internal/eop"
	"github.com/star/issblh/internal/ephemeris"
	"github.com/star/issblh/internal/tle"
)

// maxCacheAge is how long a downloaded catalog is used before refetching.
const maxCacheAge = 24 * time.Hour

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"tle":       "tle.file",
	"tle-url":   "tle.url",
	"eop":       "eop.file",
	"gravity":   "gravity",
	"format":    "output.format",
	"workers":   "workers",
	"log-level": "log.level",
	"addr":      "http.addr",
}

// app is the state shared by every command once configuration is loaded.
type app struct {
	configFile string
	v          *viper.Viper
	cfg        *config.Config
	logger     *slog.Logger
}

// setup loads configuration for cmd. It runs before every command.
func (a *app) setup(cmd *cobra.Command) error {
	a.v = config.New()
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.logger = config.NewLogger(cmd.ErrOrStderr(), cfg.Log)
	if err := cfg.Validate(a.logger); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}

// loadElements fills a store from tle.file, or else from the disk cache,
// downloading a new catalog when the cache is missing or stale.
func (a *app) loadElements(ctx context.Context) (*tle.Store, error) {
	store := tle.NewStore()

	if a.cfg.TLE.File != "" {
		ds, err := tle.LoadFile(a.cfg.TLE.File, a.logger)
		if err != nil {
			return nil, err
		}
		store.Set(ds)
		return store, nil
	}

	cache := tle.NewDiskCache(a.cfg.TLE.CacheDir, a.cfg.TLE.MaxFiles)
	data, ts, cacheErr := cache.LoadLatest()
	if cacheErr == nil && time.Since(ts) < maxCacheAge {
		ds, err := tle.Load(data, "cache", ts, a.logger)
		if err == nil {
			store.Set(ds)
			return store, nil
		}
		a.logger.Warn("failed to parse cached TLE data", "error", err)
	}

	ds, err := a.fetchElements(ctx, cache)
	if err == nil {
		store.Set(ds)
		return store, nil
	}
	if cacheErr != nil {
		return nil, err
	}

	// Stale cache beats nothing.
	a.logger.Warn("TLE fetch failed, using stale cache", "error", err, "cached_at", ts.Format(time.RFC3339))
	ds, perr := tle.Load(data, "cache", ts, a.logger)
	if perr != nil {
		return nil, errors.Join(err, perr)
	}
	store.Set(ds)
	return store, nil
}

// fetchElements downloads tle.url, stores it in cache and parses it.
func (a *app) fetchElements(ctx context.Context, cache *tle.DiskCache) (*tle.Dataset, error) {
	fetcher := tle.NewFetcher(a.cfg.TLE.URL, a.logger)
	data, err := fetcher.Fetch(ctx)
	if err != nil {
		a.logger.Error("TLE fetch failed", "url", fetcher.SourceURL(), "error", err)
		return nil, err
	}
	now := time.Now()
	ds, err := tle.Load(data, fetcher.SourceURL(), now, a.logger)
	if err != nil {
		return nil, err
	}
	path, err := cache.Write(data, now)
	if err != nil {
		a.logger.Warn("failed to cache TLE data", "error", err)
	} else {
		a.logger.Info("TLE data cached", "path", path, "count", len(ds.Entries))
	}
	return ds, nil
}

// loadEOP reads eop.file. Without one, all parameters are zero.
func (a *app) loadEOP() (eop.Provider, error) {
	if a.cfg.EOP.File == "" {
		a.logger.Warn("no eop.file configured, using zero polar motion, DUT1 and LOD")
		return eop.Static{}, nil
	}
	table, err := eop.LoadFile(a.cfg.EOP.File)
	if err != nil {
		return nil, err
	}
	first, last := table.Span()
	a.logger.Debug("EOP table loaded",
		"path", a.cfg.EOP.File,
		"rows", table.Len(),
		"first", first.Format(time.DateOnly),
		"last", last.Format(time.DateOnly),
	)
	return table, nil
}

// generator builds the fix generator from the loaded sources.
func (a *app) generator(ctx context.Context) (*ephemeris.Generator, *tle.Store, error) {
	store, err := a.loadElements(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading elements: %w", err)
	}
	eops, err := a.loadEOP()
	if err != nil {
		return nil, nil, fmt.Errorf("loading EOP: %w", err)
	}
	gen := ephemeris.NewGenerator(store, eops, ephemeris.Config{
		Gravity:  a.cfg.GravityModel(),
		Workers:  a.cfg.Workers,
		MaxCount: a.cfg.Ephemeris.MaxCount,
		NORADID:  a.cfg.TLE.NORADID,
	}, a.logger)
	return gen, store, nil
}
