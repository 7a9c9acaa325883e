package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/aegismon/aegis/pkg/types"
	"github.com/aegismon/aegis/server/internal/alerts"
	"github.com/aegismon/aegis/server/internal/compute"
	"github.com/aegismon/aegis/server/internal/generator"
	"github.com/aegismon/aegis/server/internal/store"
)

// Settings are the operator controls that may change on every refresh.
type Settings struct {
	// FarmSize is carried through for display only.
	FarmSize       int `json:"farm_size"`
	AlertThreshold int `json:"alert_threshold"`
}

// Bounds constrain the values Settings may take.
type Bounds struct {
	FarmSizeMin  int
	FarmSizeMax  int
	ThresholdMin int
	ThresholdMax int
}

// Validate rejects settings outside b.
func (b Bounds) Validate(s Settings) error {
	if s.FarmSize < b.FarmSizeMin || s.FarmSize > b.FarmSizeMax {
		return fmt.Errorf("pipeline: farm_size %d is out of range [%d, %d]: %w",
			s.FarmSize, b.FarmSizeMin, b.FarmSizeMax, types.ErrInvalidConfiguration)
	}
	return alerts.ValidateThreshold(s.AlertThreshold, b.ThresholdMin, b.ThresholdMax)
}

// Options configure a Pipeline.
type Options struct {
	Generator generator.Params
	// Noise drives the generator. nil means ZeroNoise.
	Noise generator.Noise

	Baselines compute.Baselines
	Limits    compute.Limits

	Settings Settings
	Bounds   Bounds

	// CacheTTL is how long a generated series is reused.
	CacheTTL time.Duration
}

// Snapshot is the complete output of one refresh.
type Snapshot struct {
	// GeneratedAt is when the series was generated; RefreshedAt is when
	// this snapshot was computed. They differ while the cache is warm.
	GeneratedAt time.Time
	RefreshedAt time.Time

	FarmSize  int
	Threshold int

	Series types.Series
	// Scores is index-aligned with Series.
	Scores []float64

	Latest      types.Reading
	LatestScore float64
	Breakdown   compute.Output

	Alert          alerts.AlertState
	Indicators     []compute.Indicator
	ReferenceLines []compute.ReferenceLine
}

// Facts returns the values alert rules are evaluated against.
func (s *Snapshot) Facts() alerts.Facts {
	return alerts.Facts{
		Latest:      s.Latest,
		HealthScore: s.LatestScore,
		Threshold:   s.Threshold,
		State:       s.Alert.State,
	}
}

// Pipeline wires the generator, cache, scorer and evaluator together.
//
// All exported methods are safe for concurrent use.
type Pipeline struct {
	mu    sync.RWMutex
	opts  Options
	cache *store.Cache
}

// New validates opts and returns a ready Pipeline.
func New(opts Options) (*Pipeline, error) {
	cache, err := newCache(opts)
	if err != nil {
		return nil, err
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	return &Pipeline{opts: opts, cache: cache}, nil
}

// Reconfigure swaps in new options, for config hot reload. The cached
// series survives unless the generator parameters changed.
func (p *Pipeline) Reconfigure(opts Options) error {
	if err := validateOptions(opts); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if opts.Generator != p.opts.Generator {
		cache, err := newCache(opts)
		if err != nil {
			return err
		}
		p.cache = cache
	}
	p.opts = opts
	return nil
}

// Settings returns the configured operator settings.
func (p *Pipeline) Settings() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opts.Settings
}

// Bounds returns the configured settings bounds.
func (p *Pipeline) Bounds() Bounds {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opts.Bounds
}

// Refresh runs the pipeline with the configured settings.
func (p *Pipeline) Refresh(now time.Time) (*Snapshot, error) {
	return p.RefreshWith(now, p.Settings())
}

// RefreshWith runs the pipeline with caller-supplied settings, which are
// validated against the configured bounds before anything is generated.
func (p *Pipeline) RefreshWith(now time.Time, s Settings) (*Snapshot, error) {
	p.mu.RLock()
	opts, cache := p.opts, p.cache
	p.mu.RUnlock()

	if err := opts.Bounds.Validate(s); err != nil {
		return nil, err
	}

	entry, err := cache.GetOrGenerate(now, opts.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("pipeline: generate series: %w", err)
	}
	return build(entry, now, s, opts), nil
}

// build scores and evaluates a generated series.
func build(entry store.Entry, now time.Time, s Settings, opts Options) *Snapshot {
	scores := compute.ScoreSeries(entry.Series, opts.Baselines)

	snap := &Snapshot{
		GeneratedAt:    entry.GeneratedAt,
		RefreshedAt:    now,
		FarmSize:       s.FarmSize,
		Threshold:      s.AlertThreshold,
		Series:         entry.Series,
		Scores:         scores,
		ReferenceLines: compute.ReferenceLines(opts.Limits, s.AlertThreshold),
	}

	// Series is never empty: generator.Params.Validate requires WindowSize > 0.
	snap.Latest, _ = entry.Series.Latest()
	snap.LatestScore, _ = compute.LatestScore(scores)
	snap.Breakdown = compute.Breakdown(snap.Latest, opts.Baselines)
	snap.Alert = alerts.Evaluate(snap.LatestScore, s.AlertThreshold)
	snap.Indicators = compute.Indicators(snap.Latest, opts.Limits)
	return snap
}

func newCache(opts Options) (*store.Cache, error) {
	gen, err := generator.New(opts.Generator, opts.Noise)
	if err != nil {
		return nil, err
	}
	return store.New(gen.Generate), nil
}

func validateOptions(opts Options) error {
	if err := opts.Generator.Validate(); err != nil {
		return err
	}
	if err := opts.Baselines.Validate(); err != nil {
		return err
	}
	if opts.CacheTTL < 0 {
		return fmt.Errorf("pipeline: cache ttl must not be negative: %w", types.ErrInvalidConfiguration)
	}
	return opts.Bounds.Validate(opts.Settings)
}
