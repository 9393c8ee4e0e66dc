package app

import (
	"image/color"
	"math"
)

func clamp01(x float32) float32 {
	return min(max(x, 0), 1)
}

// logLevel maps v onto [0,1] using log1p against the given maximum.
func logLevel(v, max float64) float32 {
	if max <= 0 || v <= 0 || math.IsNaN(v) {
		return 0
	}
	return clamp01(float32(math.Log1p(v) / math.Log1p(max)))
}

// heatStops is a dark-blue to yellow ramp similar to viridis.
var heatStops = []color.NRGBA{
	{R: 68, G: 1, B: 84, A: 255},
	{R: 59, G: 82, B: 139, A: 255},
	{R: 33, G: 145, B: 140, A: 255},
	{R: 94, G: 201, B: 98, A: 255},
	{R: 253, G: 231, B: 37, A: 255},
}

func heatColor(level float32) color.NRGBA {
	level = clamp01(level)
	pos := level * float32(len(heatStops)-1)
	i := int(pos)
	if i >= len(heatStops)-1 {
		return heatStops[len(heatStops)-1]
	}
	f := pos - float32(i)
	a, b := heatStops[i], heatStops[i+1]
	return color.NRGBA{
		R: lerp8(a.R, b.R, f),
		G: lerp8(a.G, b.G, f),
		B: lerp8(a.B, b.B, f),
		A: 255,
	}
}

func lerp8(a, b uint8, f float32) uint8 {
	return uint8(float32(a) + (float32(b)-float32(a))*f + 0.5)
}
