package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/aegismon/aegis/pkg/types"
)

// sampleInterval is the spacing between consecutive readings.
const sampleInterval = time.Hour

// Default generation parameters.
const (
	DefaultWindowSize     = 24
	DefaultAnomalyTailLen = 6

	DefaultWaterFactor      = 0.8
	DefaultActivityFactor   = 0.7
	DefaultTemperatureShift = 1.5
)

// Noise is a source of standard normal deviates. *rand.Rand satisfies it,
// but is not safe for concurrent use; prefer NewSeeded.
type Noise interface {
	NormFloat64() float64
}

// NewSeeded returns a deterministic Noise source for the given seed.
// It is safe for concurrent use.
func NewSeeded(seed int64) Noise {
	return &lockedNoise{r: rand.New(rand.NewSource(seed))}
}

type lockedNoise struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (n *lockedNoise) NormFloat64() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.r.NormFloat64()
}

type zeroNoise struct{}

func (zeroNoise) NormFloat64() float64 { return 0 }

// ZeroNoise is a Noise that always returns 0.
var ZeroNoise Noise = zeroNoise{}

// Distribution is a normal distribution for one channel.
type Distribution struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
}

// Anomaly describes the decline injected into the most recent samples.
type Anomaly struct {
	// TailLen is the number of trailing samples affected. 0 disables injection;
	// values above the window size cover the whole window.
	TailLen int `yaml:"tail_len"`

	// WaterFactor and ActivityFactor multiply the affected samples.
	WaterFactor    float64 `yaml:"water_factor"`
	ActivityFactor float64 `yaml:"activity_factor"`

	// TemperatureShift is added to the affected temperature samples.
	TemperatureShift float64 `yaml:"temperature_shift"`
}

// Params controls one generated series.
type Params struct {
	WindowSize  int          `yaml:"window_size"`
	Water       Distribution `yaml:"water"`
	Activity    Distribution `yaml:"activity"`
	Temperature Distribution `yaml:"temperature"`
	Anomaly     Anomaly      `yaml:"anomaly"`
}

// DefaultParams returns the parameters of the reference dashboard:
// 24 hourly samples, water N(50,5), activity N(70,8), temperature N(22,1)
// and a six hour decline.
func DefaultParams() Params {
	return Params{
		WindowSize:  DefaultWindowSize,
		Water:       Distribution{Mean: 50, StdDev: 5},
		Activity:    Distribution{Mean: 70, StdDev: 8},
		Temperature: Distribution{Mean: 22, StdDev: 1},
		Anomaly: Anomaly{
			TailLen:          DefaultAnomalyTailLen,
			WaterFactor:      DefaultWaterFactor,
			ActivityFactor:   DefaultActivityFactor,
			TemperatureShift: DefaultTemperatureShift,
		},
	}
}

// Validate reports parameters that cannot produce a series.
func (p Params) Validate() error {
	if p.WindowSize <= 0 {
		return fmt.Errorf("generator: window_size %d must be positive: %w", p.WindowSize, types.ErrInvalidConfiguration)
	}
	if p.Anomaly.TailLen < 0 {
		return fmt.Errorf("generator: anomaly.tail_len %d must not be negative: %w", p.Anomaly.TailLen, types.ErrInvalidConfiguration)
	}
	channels := []struct {
		name string
		d    Distribution
	}{
		{"water", p.Water},
		{"activity", p.Activity},
		{"temperature", p.Temperature},
	}
	for _, c := range channels {
		if c.d.StdDev < 0 {
			return fmt.Errorf("generator: %s.stddev %.2f must not be negative: %w", c.name, c.d.StdDev, types.ErrInvalidConfiguration)
		}
	}
	return nil
}

// Generate builds a fresh Series ending at the most recent fully-elapsed
// hour before now.
func Generate(p Params, now time.Time, noise Noise) (types.Series, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if noise == nil {
		noise = ZeroNoise
	}

	n := p.WindowSize
	water := draw(p.Water, n, noise)
	activity := draw(p.Activity, n, noise)
	temp := draw(p.Temperature, n, noise)

	tail := p.Anomaly.TailLen
	if tail > n {
		tail = n
	}
	for i := n - tail; i < n; i++ {
		water[i] *= p.Anomaly.WaterFactor
		activity[i] *= p.Anomaly.ActivityFactor
		temp[i] += p.Anomaly.TemperatureShift
	}

	series := make(types.Series, n)
	for i := range series {
		series[i] = types.Reading{
			Timestamp:        now.Add(-time.Duration(n-i) * sampleInterval),
			WaterConsumption: math.Max(0, water[i]),
			ActivityIndex:    math.Max(0, activity[i]),
			Temperature:      temp[i],
		}
	}
	return series, nil
}

// draw returns n samples of d.
func draw(d Distribution, n int, noise Noise) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Mean + d.StdDev*noise.NormFloat64()
	}
	return out
}

// Generator binds Params to a Noise source.
//
// A Generator is not safe for concurrent use; the series cache serializes
// calls to Generate.
type Generator struct {
	params Params
	noise  Noise
}

// New validates p and returns a Generator drawing from noise.
// A nil noise behaves like ZeroNoise.
func New(p Params, noise Noise) (*Generator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if noise == nil {
		noise = ZeroNoise
	}
	return &Generator{params: p, noise: noise}, nil
}

// Params returns the generator's parameters.
func (g *Generator) Params() Params { return g.params }

// Generate draws a new Series ending at now-1h.
func (g *Generator) Generate(now time.Time) (types.Series, error) {
	return Generate(g.params, now, g.noise)
}
