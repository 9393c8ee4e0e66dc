package spectrum

import (
	"math"
	"strings"
)

const (
	// ChannelCount is the number of detector channels the model was trained on.
	ChannelCount = 16384
	// ImageSide is the edge of the square image the counts are folded into.
	ImageSide = 128
	// DefaultParticleCount is the number of simulated histories per simulation file.
	DefaultParticleCount = 1.0e7
	// DefaultThresholdBins is how many leading simulation bins fall under the detector threshold.
	DefaultThresholdBins = 20
)

// SpectrumRow is one channel of a measured spectrum.
type SpectrumRow struct {
	Channel int     `json:"channel"`
	Counts  float64 `json:"counts"`
}

// Spectrum is a decoded IEC file.
type Spectrum struct {
	Source string        `json:"source,omitempty"`
	Header []string      `json:"header,omitempty"`
	Rows   []SpectrumRow `json:"rows"`
}

// HeaderText returns up to limit non-empty header lines with runs of
// whitespace collapsed. A limit of zero or less returns every line.
func (s Spectrum) HeaderText(limit int) string {
	var lines []string
	for _, h := range s.Header {
		line := strings.Join(strings.Fields(h), " ")
		if line == "" {
			continue
		}
		if limit > 0 && len(lines) == limit {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Counts returns the counts column.
func (s Spectrum) Counts() []float64 {
	out := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Counts
	}
	return out
}

// Len returns the number of channels.
func (s Spectrum) Len() int {
	return len(s.Rows)
}

// SimulationRow is one energy bin of a simulated pulse height spectrum.
type SimulationRow struct {
	ELow             float64 `json:"eLow"`
	EMiddle          float64 `json:"eMiddle"`
	RawCounts        float64 `json:"rawCounts"`
	Sigma2           float64 `json:"sigma2"`
	BinIndex         int     `json:"binIndex"`
	NormalizedCounts float64 `json:"normalizedCounts"`
	EnergyKeV        float64 `json:"energyKeV"`
}

// SimulationTable is a decoded simulation file.
type SimulationTable struct {
	Source    string          `json:"source,omitempty"`
	Particles float64         `json:"particles"`
	Rows      []SimulationRow `json:"rows"`
}

// Len returns the number of bins kept.
func (t SimulationTable) Len() int {
	return len(t.Rows)
}

// Counts returns the normalized counts zero-padded or truncated to n values.
func (t SimulationTable) Counts(n int) []float64 {
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	for i := 0; i < n && i < len(t.Rows); i++ {
		out[i] = t.Rows[i].NormalizedCounts
	}
	return out
}

// ReferenceCounts is Counts with negative and non-finite values set to zero.
// The last decoded bin has no successor and normalizes against an upper edge
// of zero, so it would otherwise dominate plots and comparisons.
func (t SimulationTable) ReferenceCounts(n int) []float64 {
	out := t.Counts(n)
	for i, v := range out {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = 0
		}
	}
	return out
}

// Prediction is the model output for a single nuclide.
type Prediction struct {
	Label       string  `json:"label"`
	Score       float64 `json:"score"`
	Activity    float64 `json:"activity"`
	Uncertainty float64 `json:"uncertainty"`
}

// PredictionTable holds one prediction per catalog nuclide, in catalog order.
type PredictionTable struct {
	ModelID string       `json:"modelId,omitempty"`
	Rows    []Prediction `json:"rows"`
}

// Best returns the row with the highest score.
func (t PredictionTable) Best() (Prediction, bool) {
	if len(t.Rows) == 0 {
		return Prediction{}, false
	}
	best := t.Rows[0]
	for _, r := range t.Rows[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best, true
}

// ModelConfig wraps the configuration for the ORT model.
type ModelConfig struct {
	OrtLibrary     string `json:"ortLibrary"`
	ModelPath      string `json:"modelPath"`
	InputName      string `json:"inputName,omitempty"`
	ScoreOutput    string `json:"scoreOutput,omitempty"`
	ActivityOutput string `json:"activityOutput,omitempty"`
	ModelID        string `json:"modelId,omitempty"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	Model           ModelConfig `json:"model"`
	ParticleCount   float64     `json:"particleCount"`
	ThresholdBins   int         `json:"thresholdBins"`
	LastSpectrumDir string      `json:"lastSpectrumDir,omitempty"`
	OutputDir       string      `json:"outputDir,omitempty"`
}

// Clone returns a copy of the configuration. Config holds only values, so a
// plain copy is independent of the original.
func (c Config) Clone() Config {
	return c
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if ValidateParticleCount(c.ParticleCount) != nil {
		c.ParticleCount = DefaultParticleCount
	}
	if c.ThresholdBins <= 0 {
		c.ThresholdBins = DefaultThresholdBins
	}
	if c.Model.ModelPath == "" {
		c.Model.ModelPath = "./models/nuclides.onnx"
	}
	if c.OutputDir == "" {
		c.OutputDir = "csv"
	}
}

// SimulationOptions returns decoder options derived from the configuration.
func (c Config) SimulationOptions() SimulationOptions {
	return SimulationOptions{
		Particles:     c.ParticleCount,
		ThresholdBins: c.ThresholdBins,
		MaxRows:       ChannelCount,
	}
}
