package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/gammaspec/spectrum"
)

func TestColumnLevels(t *testing.T) {
	assert.Nil(t, columnLevels(nil, 10))

	levels := columnLevels([]float64{0, 0, 99, 0, 9, 0, 0, 0}, 4)
	require.Len(t, levels, 4)
	assert.Equal(t, float32(0), levels[0])
	assert.Equal(t, float32(1), levels[1])
	assert.InDelta(t, 0.5, levels[2], 1e-6)
	assert.Equal(t, float32(0), levels[3])

	wide := columnLevels([]float64{1, 2}, 5)
	require.Len(t, wide, 5)
	assert.Equal(t, float32(1), wide[4])
}

func TestSpectrumPlotPixel(t *testing.T) {
	p := &spectrumPlot{}
	assert.Equal(t, plotBackground, p.Pixel(0, 0, 2, 10))

	p.SetCounts([]float64{100, 0})
	assert.Equal(t, plotBar, p.Pixel(0, 9, 2, 10))
	assert.Equal(t, plotBackground, p.Pixel(1, 9, 2, 10))

	p.SetOverlay([]float64{0, 100})
	assert.Equal(t, plotOverlay, p.Pixel(1, 0, 2, 10))
}

func TestHeatMapPixel(t *testing.T) {
	m := &heatMap{}
	assert.Equal(t, heatEmpty, m.Pixel(0, 0, 128, 128))

	counts := make([]float64, spectrum.ChannelCount)
	counts[spectrum.ImageSide+1] = 50
	m.SetCounts(counts)
	assert.Equal(t, heatColor(1), m.Pixel(1, 1, spectrum.ImageSide, spectrum.ImageSide))
	assert.Equal(t, heatColor(0), m.Pixel(0, 0, spectrum.ImageSide, spectrum.ImageSide))
	// scaled canvas maps back onto the same cell
	assert.Equal(t, heatColor(1), m.Pixel(3, 2, 2*spectrum.ImageSide, 2*spectrum.ImageSide))

	m.SetCounts(nil)
	assert.Equal(t, heatEmpty, m.Pixel(0, 0, 10, 10))
}

func TestHeatColorEnds(t *testing.T) {
	assert.Equal(t, heatStops[0], heatColor(-1))
	assert.Equal(t, heatStops[len(heatStops)-1], heatColor(2))
	assert.Equal(t, heatStops[2], heatColor(0.5))
}

func TestLogCapture(t *testing.T) {
	c := newLogCapture(nil, 2)
	_, err := c.Write([]byte("one\r\ntwo\n"))
	require.NoError(t, err)
	n, err := c.Write([]byte("three\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "two\nthree", c.Text())
}
