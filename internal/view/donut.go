package view

import (
	"fmt"
	"math"
	"strings"

	"savings/internal/core"
)

// Geometry describes the donut chart drawing area. Angles are in degrees.
type Geometry struct {
	CX, CY       float64
	InnerRadius  float64
	OuterRadius  float64
	PaddingAngle float64
}

// DefaultGeometry matches the 300x300 chart panel.
var DefaultGeometry = Geometry{
	CX:           150,
	CY:           150,
	InnerRadius:  30,
	OuterRadius:  100,
	PaddingAngle: 2,
}

// Palette is cycled through for slice colours.
var Palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// Arc is one drawable donut slice.
type Arc struct {
	ID      int64
	Label   string
	Value   string
	Path    string
	Color   string
	Percent float64
}

// Donut lays out series as donut arcs. Slices whose value is not positive
// take no space and are left out; an empty or all-zero series has no arcs.
func Donut(series []PieSlice, g Geometry) []Arc {
	type part struct {
		slice PieSlice
		color string
		value float64
	}
	var parts []part
	total := 0.0
	for i, s := range series {
		v := s.Value.InexactFloat64()
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		parts = append(parts, part{slice: s, color: Palette[i%len(Palette)], value: v})
		total += v
	}
	if len(parts) == 0 {
		return nil
	}

	pad := g.PaddingAngle
	if len(parts) == 1 {
		pad = 0
	}
	available := 360 - pad*float64(len(parts))
	if available < 0 {
		available = 0
	}

	arcs := make([]Arc, 0, len(parts))
	angle := 0.0
	for _, p := range parts {
		frac := p.value / total
		sweep := frac * available
		arcs = append(arcs, Arc{
			ID:      p.slice.ID,
			Label:   p.slice.Label,
			Value:   core.FormatPercent(p.slice.Value),
			Path:    arcPath(g, angle, angle+sweep),
			Color:   p.color,
			Percent: math.Round(frac*1000) / 10,
		})
		angle += sweep + pad
	}
	return arcs
}

// arcPath draws the ring sector between two angles measured clockwise from
// twelve o'clock. A full turn is split in two since a single SVG arc cannot
// start and end on the same point.
func arcPath(g Geometry, from, to float64) string {
	if to-from >= 359.999 {
		mid := from + 180
		return arcPath(g, from, mid) + " " + arcPath(g, mid, from+360)
	}

	large := 0
	if to-from > 180 {
		large = 1
	}
	ox1, oy1 := polar(g, g.OuterRadius, from)
	ox2, oy2 := polar(g, g.OuterRadius, to)
	ix1, iy1 := polar(g, g.InnerRadius, to)
	ix2, iy2 := polar(g, g.InnerRadius, from)

	var b strings.Builder
	fmt.Fprintf(&b, "M %s %s ", num(ox1), num(oy1))
	fmt.Fprintf(&b, "A %s %s 0 %d 1 %s %s ", num(g.OuterRadius), num(g.OuterRadius), large, num(ox2), num(oy2))
	fmt.Fprintf(&b, "L %s %s ", num(ix1), num(iy1))
	fmt.Fprintf(&b, "A %s %s 0 %d 0 %s %s Z", num(g.InnerRadius), num(g.InnerRadius), large, num(ix2), num(iy2))
	return b.String()
}

func polar(g Geometry, r, deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return g.CX + r*math.Sin(rad), g.CY - r*math.Cos(rad)
}

func num(f float64) string {
	f = math.Round(f*100) / 100
	if f == 0 {
		f = 0 // normalise -0
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}
