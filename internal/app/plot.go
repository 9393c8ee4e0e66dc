package app

import (
	"image/color"
	"math"
	"sync"

	"yashubustudio/gammaspec/spectrum"
)

var (
	plotBackground = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	plotBar        = color.NRGBA{R: 31, G: 119, B: 180, A: 255}
	plotOverlay    = color.NRGBA{R: 214, G: 39, B: 40, A: 255}
	heatEmpty      = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
)

// spectrumPlot renders counts per channel on a log scale with an optional
// simulation reference drawn as a line. Column levels are cached per width.
type spectrumPlot struct {
	mu      sync.Mutex
	counts  []float64
	overlay []float64

	width        int
	levels       []float32
	overlayLevel []float32
}

func (p *spectrumPlot) SetCounts(counts []float64) {
	p.mu.Lock()
	p.counts = counts
	p.width = 0
	p.mu.Unlock()
}

func (p *spectrumPlot) SetOverlay(overlay []float64) {
	p.mu.Lock()
	p.overlay = overlay
	p.width = 0
	p.mu.Unlock()
}

func (p *spectrumPlot) Pixel(x, y, w, h int) color.Color {
	if w <= 0 || h <= 0 {
		return plotBackground
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.width != w {
		p.levels = columnLevels(p.counts, w)
		p.overlayLevel = columnLevels(p.overlay, w)
		p.width = w
	}
	height := 1 - float32(y)/float32(h)
	if p.overlayLevel != nil {
		if lvl := p.overlayLevel[x]; lvl > 0 && absf(height-lvl) <= 1.5/float32(h) {
			return plotOverlay
		}
	}
	if p.levels != nil && p.levels[x] > 0 && height <= p.levels[x] {
		return plotBar
	}
	return plotBackground
}

// columnLevels reduces values to w columns, keeping the maximum of each
// column, scaled by log1p against the global maximum.
func columnLevels(values []float64, w int) []float32 {
	n := len(values)
	if n == 0 || w <= 0 {
		return nil
	}
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	levels := make([]float32, w)
	for x := 0; x < w; x++ {
		lo := x * n / w
		hi := (x + 1) * n / w
		if hi <= lo {
			hi = lo + 1
		}
		if hi > n {
			hi = n
		}
		colMax := 0.0
		for _, v := range values[lo:hi] {
			if v > colMax {
				colMax = v
			}
		}
		levels[x] = logLevel(colMax, max)
	}
	return levels
}

// heatMap renders counts reshaped to a square image, row-major, as the
// model sees them.
type heatMap struct {
	mu     sync.Mutex
	levels []float32
}

func (m *heatMap) SetCounts(counts []float64) {
	side := spectrum.ImageSide
	if len(counts) == 0 {
		m.mu.Lock()
		m.levels = nil
		m.mu.Unlock()
		return
	}
	img := make([]float64, side*side)
	copy(img, counts)
	max := 0.0
	for _, v := range img {
		if v > max {
			max = v
		}
	}
	levels := make([]float32, len(img))
	for i, v := range img {
		levels[i] = logLevel(v, max)
	}
	m.mu.Lock()
	m.levels = levels
	m.mu.Unlock()
}

func (m *heatMap) Pixel(x, y, w, h int) color.Color {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.levels == nil || w <= 0 || h <= 0 {
		return heatEmpty
	}
	side := spectrum.ImageSide
	row := y * side / h
	col := x * side / w
	return heatColor(m.levels[row*side+col])
}

func absf(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
