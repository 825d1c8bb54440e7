// Package grid implements the staggered-grid indexing and vector-field
// storage shared by the EMF solver and the current accumulator. A region is
// a rectangle of interior cells surrounded by guard margins on every side;
// addressing uses a signed offset so cell (0,0) is the first interior cell
// and guard cells carry negative indices, following the pointer-offset
// layout of the original emf_new (one contiguous buffer, base pointer moved
// past the lower guard).
package grid

import "fmt"

// Guard cell counts on each axis: one cell below, two cells above, matching
// the linear-interpolation stencil used throughout the solver and pusher.
var DefaultGuard = [2][2]int{{1, 2}, {1, 2}}

// Geometry describes one region's cell grid: interior extent, guard margins,
// physical box size and the resulting cell size and row stride.
type Geometry struct {
	NX, NY int
	GC     [2][2]int
	Box    [2]float64
	DX     [2]float64
}

// NewGeometry builds a Geometry for an nx-by-ny interior grid covering a
// box[0]-by-box[1] physical domain, using the default {1,2} guard margins on
// both axes.
func NewGeometry(nx, ny int, box [2]float64) Geometry {
	return Geometry{
		NX: nx, NY: ny,
		GC:  DefaultGuard,
		Box: box,
		DX:  [2]float64{box[0] / float64(nx), box[1] / float64(ny)},
	}
}

// NRow is the row stride: guard cells plus interior columns.
func (g Geometry) NRow() int { return g.GC[0][0] + g.NX + g.GC[0][1] }

// NColTotal is the total number of rows, guard cells included.
func (g Geometry) NColTotal() int { return g.GC[1][0] + g.NY + g.GC[1][1] }

// Size is the total number of cells backing one scalar/vector array.
func (g Geometry) Size() int { return g.NRow() * g.NColTotal() }

// Validate reports a *picerr-shaped* problem via a plain error; callers in
// config wrap this into a ConfigError. Kept dependency-free so grid never
// imports picerr.
func (g Geometry) Validate() error {
	if g.NX <= 0 || g.NY <= 0 {
		return fmt.Errorf("nx=%d, ny=%d must both be positive", g.NX, g.NY)
	}
	if g.Box[0] <= 0 || g.Box[1] <= 0 {
		return fmt.Errorf("box=%v must have positive extent on both axes", g.Box)
	}
	return nil
}
