// Package colors picks tag and chart colors from the app palette.
package colors

import (
	"hash/fnv"
	"math"
	"math/rand/v2"

	colorful "github.com/lucasb-eyer/go-colorful"
)

type hsl struct{ h, s, l float64 }

// base hues: blue, gold, orange, green, purple, pink
var palette = []hsl{
	{200, 60, 55},
	{40, 45, 50},
	{10, 70, 60},
	{160, 50, 45},
	{280, 45, 55},
	{340, 55, 50},
}

// Random returns a palette-styled hex color such as "#4db9d1".
func Random() string {
	return fromSource(rand.Float64)
}

// ForKey returns a palette-styled color that is stable for key.
func ForKey(key string) string {
	h := fnv.New64a()
	h.Write([]byte(key))
	r := rand.New(rand.NewPCG(h.Sum64(), 0x5eed))
	return fromSource(r.Float64)
}

func fromSource(next func() float64) string {
	base := palette[int(next()*float64(len(palette)))%len(palette)]

	hue := math.Mod(base.h+next()*60-30+360, 360)
	sat := clamp(base.s+next()*40-20, 30, 90)
	light := clamp(base.l+next()*40-20, 30, 80)

	return colorful.Hsl(hue, sat/100, light/100).Clamped().Hex()
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
