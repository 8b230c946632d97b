package ephemeris

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/star/issblh/internal/eop"
	"github.com/star/issblh/internal/metrics"
	"github.com/star/issblh/internal/propagation"
	"github.com/star/issblh/internal/timescale"
	"github.com/star/issblh/internal/tle"
)

const (
	// DefaultMaxCount bounds a single Series call.
	DefaultMaxCount = 10000

	// ISSNoradID is the catalog number of the ISS (ZARYA).
	ISSNoradID = 25544
)

// ErrCount is returned for a series count outside [1, max].
var ErrCount = errors.New("ephemeris: series count out of range")

// Config holds the generator settings.
type Config struct {
	Gravity  propagation.GravityModel
	Workers  int // worker pool size (default: runtime.NumCPU())
	MaxCount int // Series cap (default: DefaultMaxCount)
	NORADID  int // satellite to serve; 0 serves whatever the dataset holds
}

// propCache holds the propagator built for one element set of one dataset.
// Immutable after construction; safe for concurrent reads.
type propCache struct {
	prop      *propagation.SGP4Propagator
	entry     tle.Entry
	fetchedAt time.Time
}

func (c *propCache) matches(ds *tle.Dataset, entry tle.Entry) bool {
	return c != nil && c.fetchedAt.Equal(ds.FetchedAt) &&
		c.entry.Line1 == entry.Line1 && c.entry.Line2 == entry.Line2
}

// Generator serves fixes from the element set in a tle.Store.
type Generator struct {
	store  *tle.Store
	eops   eop.Provider
	pool   *WorkerPool
	config Config
	logger *slog.Logger
	cache  atomic.Pointer[propCache]
	mu     sync.Mutex // serializes cache rebuilds
}

// NewGenerator creates a generator reading elements from store and Earth
// orientation from eops.
func NewGenerator(store *tle.Store, eops eop.Provider, config Config, logger *slog.Logger) *Generator {
	if config.MaxCount <= 0 {
		config.MaxCount = DefaultMaxCount
	}
	if config.Gravity.Name == "" {
		config.Gravity = propagation.WGS84
	}
	return &Generator{
		store:  store,
		eops:   eops,
		pool:   NewWorkerPool(config.Workers, logger),
		config: config,
		logger: logger,
	}
}

// MaxCount returns the Series cap.
func (g *Generator) MaxCount() int {
	return g.config.MaxCount
}

// Gravity returns the gravity model used for new propagators.
func (g *Generator) Gravity() propagation.GravityModel {
	return g.config.Gravity
}

// ut1 converts utc with the DUT1 of the EOP provider.
func (g *Generator) ut1(utc time.Time) (time.Time, error) {
	utc = utc.UTC()
	sample, err := g.eops.At(utc)
	if err != nil {
		return time.Time{}, fmt.Errorf("eop lookup: %w", err)
	}
	return timescale.UTCToUT1(utc, sample.DUT1), nil
}

// propagatorFor returns the propagator for the element set valid at the UT1
// instant at.
// The propagator is rebuilt only when the selected element set or the
// dataset changes (double-checked locking).
func (g *Generator) propagatorFor(at time.Time) (*propCache, error) {
	ds := g.store.Get()
	if ds == nil {
		return nil, tle.ErrNoElements
	}
	entries := ds.Entries
	if g.config.NORADID != 0 {
		entries = ds.BySatellite(g.config.NORADID)
	}
	entry, exact, err := tle.Select(entries, at)
	if err != nil {
		return nil, err
	}
	if !exact {
		g.logger.Warn("no element set at or before requested time, using earliest",
			"requested_ut1", at.UTC().Format(time.RFC3339Nano),
			"epoch", entry.Epoch().Format(time.RFC3339Nano),
			"norad_id", entry.NORADID,
		)
	}

	if c := g.cache.Load(); c.matches(ds, entry) {
		return c, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if c := g.cache.Load(); c.matches(ds, entry) {
		return c, nil
	}

	prop, err := propagation.NewSGP4Propagator(entry.Elements, g.config.Gravity)
	if err != nil {
		return nil, fmt.Errorf("sgp4 init for %d: %w", entry.NORADID, err)
	}
	c := &propCache{prop: prop, entry: entry, fetchedAt: ds.FetchedAt}
	g.cache.Store(c)
	metrics.RecordRebuild()

	g.logger.Info("sgp4 propagator rebuilt",
		"norad_id", entry.NORADID,
		"epoch", entry.Epoch().Format(time.RFC3339Nano),
		"gravity", g.config.Gravity.Name,
		"deep_space", prop.IsDeepSpace(),
		"dataset_fetched_at", ds.FetchedAt.UTC().Format(time.RFC3339),
	)
	return c, nil
}

// FixAt computes one fix at utc.
func (g *Generator) FixAt(ctx context.Context, utc time.Time) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}
	start := time.Now()

	ut1, err := g.ut1(utc)
	if err != nil {
		metrics.RecordFix(Classify(err), time.Since(start))
		return Fix{}, err
	}
	c, err := g.propagatorFor(ut1)
	if err != nil {
		metrics.RecordFix(Classify(err), time.Since(start))
		return Fix{}, err
	}

	fix, err := Compute(c.prop, g.eops, utc)
	metrics.RecordFix(Classify(err), time.Since(start))
	if err != nil {
		return Fix{}, err
	}
	metrics.SetElementAge(utc.Sub(c.entry.Epoch()))
	fix.TLE = c.entry
	return fix, nil
}

// Series computes count fixes from start at step intervals with the element
// set valid at start in UT1.
func (g *Generator) Series(ctx context.Context, start time.Time, step time.Duration, count int) ([]Fix, error) {
	if count < 1 || count > g.config.MaxCount {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrCount, count, g.config.MaxCount)
	}

	ut1, err := g.ut1(start)
	if err != nil {
		return nil, err
	}
	c, err := g.propagatorFor(ut1)
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, count)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * step)
	}

	g.logger.Debug("computing series",
		"start", start.UTC().Format(time.RFC3339Nano),
		"step", step.String(),
		"count", count,
		"workers", g.pool.Workers(),
	)

	began := time.Now()
	fixes, err := g.pool.ComputeBatch(ctx, c.prop, g.eops, times)
	metrics.RecordBatch(time.Since(began))
	if err != nil {
		return nil, err
	}
	for i := range fixes {
		fixes[i].TLE = c.entry
	}
	return fixes, nil
}

// Elements returns the entry that would serve a fix at the UTC instant at.
// Without EOP coverage for at, the entry is selected at UTC.
func (g *Generator) Elements(at time.Time) (tle.Entry, error) {
	sel := at
	if ut1, err := g.ut1(at); err == nil {
		sel = ut1
	}
	c, err := g.propagatorFor(sel)
	if err != nil {
		return tle.Entry{}, err
	}
	return c.entry, nil
}
