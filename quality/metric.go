// Package quality evaluates the quality of a depth camera stream by measuring
// how well the points inside a region of interest agree with a plane fitted to
// them, and publishing the resulting per-frame measurements as metric time series.
package quality

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Band identifies one of the three severity color bands of a metric.
type Band int

const (
	// GreenBand is the range of values considered good.
	GreenBand Band = iota
	// YellowBand is the range of values considered marginal.
	YellowBand
	// RedBand is the range of values considered bad.
	RedBand
)

// Range is an inclusive-exclusive numeric interval [Low, High).
type Range struct {
	Low  float64
	High float64
}

// Contains reports whether the value falls within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Low && v < r.High
}

// BandSet holds the three severity bands of a metric. Bands may overlap or
// leave gaps; they are descriptive configuration consumed by a rendering
// collaborator, not by the computation logic.
type BandSet struct {
	Green  Range
	Yellow Range
	Red    Range
}

// Sample is one published metric value. Published values are single precision;
// all internal arithmetic producing them is double precision.
type Sample struct {
	Time  time.Time
	Value float32
}

// Config describes a metric's display metadata and series policy.
// Min < Max is a caller precondition and is not validated.
type Config struct {
	// Name is the display name of the metric.
	Name string
	// Min and Max are the expected value range, for axis scaling.
	Min, Max float64
	// Unit is the display unit label.
	Unit string
	// Description is free-form display text.
	Description string
	// Bands are the initial severity bands; SetBand can adjust them later.
	Bands BandSet
	// Capacity bounds the retained series length. Zero means unbounded.
	Capacity int
	// Clock stamps appended samples. Nil means the wall clock.
	Clock clock.Clock
}

// Metric holds display metadata and a running series of scalar samples.
//
// A metric assumes a single appender. If a rendering collaborator reads the
// series while another goroutine appends, the host must impose its own
// reader/writer discipline.
type Metric struct {
	cfg     Config
	clock   clock.Clock
	samples []Sample
	start   int
}

// NewMetric creates a metric from the given configuration. Construction never fails.
func NewMetric(cfg Config) *Metric {
	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	return &Metric{cfg: cfg, clock: c}
}

// Name returns the display name.
func (m *Metric) Name() string { return m.cfg.Name }

// Unit returns the display unit label.
func (m *Metric) Unit() string { return m.cfg.Unit }

// Description returns the display description.
func (m *Metric) Description() string { return m.cfg.Description }

// Bounds returns the expected display value range.
func (m *Metric) Bounds() (min, max float64) { return m.cfg.Min, m.cfg.Max }

// Band returns the configured range for the given severity band.
func (m *Metric) Band(b Band) Range {
	switch b {
	case GreenBand:
		return m.cfg.Bands.Green
	case YellowBand:
		return m.cfg.Bands.Yellow
	case RedBand:
		return m.cfg.Bands.Red
	default:
		return Range{}
	}
}

// SetBand replaces the range for the given severity band. The last write for a
// band wins; overlaps and gaps between bands are allowed.
func (m *Metric) SetBand(b Band, low, high float64) {
	r := Range{Low: low, High: high}
	switch b {
	case GreenBand:
		m.cfg.Bands.Green = r
	case YellowBand:
		m.cfg.Bands.Yellow = r
	case RedBand:
		m.cfg.Bands.Red = r
	}
}

// AddValue appends a sample to the series, evicting the oldest sample if the
// configured capacity is reached.
func (m *Metric) AddValue(v float32) {
	s := Sample{Time: m.clock.Now(), Value: v}
	if m.cfg.Capacity > 0 && len(m.samples) == m.cfg.Capacity {
		m.samples[m.start] = s
		m.start = (m.start + 1) % m.cfg.Capacity
		return
	}
	m.samples = append(m.samples, s)
}

// Len returns the number of retained samples.
func (m *Metric) Len() int {
	return len(m.samples)
}

// Samples returns a copy of the retained series in append order, oldest first.
func (m *Metric) Samples() []Sample {
	out := make([]Sample, 0, len(m.samples))
	out = append(out, m.samples[m.start:]...)
	out = append(out, m.samples[:m.start]...)
	return out
}

// Values returns a copy of the retained sample values in append order.
func (m *Metric) Values() []float32 {
	samples := m.Samples()
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}

// Latest returns the most recently appended sample, if any.
func (m *Metric) Latest() (Sample, bool) {
	if len(m.samples) == 0 {
		return Sample{}, false
	}
	idx := len(m.samples) - 1
	if m.cfg.Capacity > 0 && len(m.samples) == m.cfg.Capacity {
		idx = (m.start + m.cfg.Capacity - 1) % m.cfg.Capacity
	}
	return m.samples[idx], true
}
