package shpwrite

import (
	"math"

	"github.com/paulmach/orb"
)

// Coord is a position of 2, 3 or 4 values: x, y[, z[, m]].
type Coord []float64

// Extent is an axis-aligned bounding box with optional Z and M ranges.
type Extent struct {
	XMin, YMin, XMax, YMax float64
	ZMin, ZMax, MMin, MMax float64
}

// BlankExtent returns an extent that any coordinate will enlarge.
func BlankExtent() Extent {
	return Extent{
		XMin: math.Inf(1), YMin: math.Inf(1),
		XMax: math.Inf(-1), YMax: math.Inf(-1),
		ZMin: math.Inf(1), ZMax: math.Inf(-1),
		MMin: math.Inf(1), MMax: math.Inf(-1),
	}
}

// Enlarge returns e grown to include c. Z is folded only when c has a third
// value and M only when it has a fourth; missing values leave those ranges
// untouched.
func (e Extent) Enlarge(c Coord) Extent {
	if len(c) >= 2 {
		e.XMin = math.Min(e.XMin, c[0])
		e.XMax = math.Max(e.XMax, c[0])
		e.YMin = math.Min(e.YMin, c[1])
		e.YMax = math.Max(e.YMax, c[1])
	}
	if len(c) >= 3 {
		e.ZMin = math.Min(e.ZMin, c[2])
		e.ZMax = math.Max(e.ZMax, c[2])
	}
	if len(c) >= 4 {
		e.MMin = math.Min(e.MMin, c[3])
		e.MMax = math.Max(e.MMax, c[3])
	}
	return e
}

// Union returns the extent covering both e and o.
func (e Extent) Union(o Extent) Extent {
	return Extent{
		XMin: math.Min(e.XMin, o.XMin), YMin: math.Min(e.YMin, o.YMin),
		XMax: math.Max(e.XMax, o.XMax), YMax: math.Max(e.YMax, o.YMax),
		ZMin: math.Min(e.ZMin, o.ZMin), ZMax: math.Max(e.ZMax, o.ZMax),
		MMin: math.Min(e.MMin, o.MMin), MMax: math.Max(e.MMax, o.MMax),
	}
}

// IsEmpty reports whether no coordinate has been folded into e.
func (e Extent) IsEmpty() bool {
	return e.XMin > e.XMax || e.YMin > e.YMax
}

// HasZ reports whether any folded coordinate carried a Z value.
func (e Extent) HasZ() bool {
	return e.ZMin <= e.ZMax
}

// HasM reports whether any folded coordinate carried an M value.
func (e Extent) HasM() bool {
	return e.MMin <= e.MMax
}

// Bound returns the 2D part of the extent as an orb.Bound.
func (e Extent) Bound() orb.Bound {
	if e.IsEmpty() {
		return orb.Bound{}
	}
	return orb.Bound{
		Min: orb.Point{e.XMin, e.YMin},
		Max: orb.Point{e.XMax, e.YMax},
	}
}

// extentOf folds every coordinate of every part.
func extentOf(parts Parts) Extent {
	ext := BlankExtent()
	for _, part := range parts {
		for _, c := range part {
			ext = ext.Enlarge(c)
		}
	}
	return ext
}

// written returns the extent of the values a Z record actually stores:
// coordinates without z or m contribute 0 to that range.
func (e Extent) written(parts Parts) Extent {
	for _, part := range parts {
		for _, c := range part {
			if len(c) < 3 {
				e.ZMin = math.Min(e.ZMin, 0)
				e.ZMax = math.Max(e.ZMax, 0)
			}
			if len(c) < 4 {
				e.MMin = math.Min(e.MMin, 0)
				e.MMax = math.Max(e.MMax, 0)
			}
		}
	}
	return e
}

// finite maps the infinities of an unset range to 0 for the file header.
func finite(v float64) float64 {
	if math.IsInf(v, 0) {
		return 0
	}
	return v
}
