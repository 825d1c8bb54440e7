// Package push implements the per-particle advance kernel of spec §4.2:
// staggered-grid field interpolation, the relativistic Boris rotation, the
// position push with cell-crossing detection, and Villasenor-Buneman
// charge-conserving current deposition via virtual-particle trajectory
// splitting.
//
// The algorithms here are grounded on kernel_particles.c's
// interpolate_fld_openacc, advance_part_velocity and dep_current_openacc
// (original_source/parallel/ompss2_openacc), translated from the tiled
// OpenACC kernel's flat float arrays into pic2d's grid.VField accessors and
// particle.Storage arrays.
package push

import "github.com/lattice-plasma/pic2d/grid"

// Fields holds the field values interpolated to a single particle position,
// i.e. Ep/Bp in the source kernel.
type Fields struct {
	E, B grid.Vec3
}

// Interpolate samples e and b at the staggered offsets appropriate to each
// component (Ex on x-faces, Ey on y-faces, Ez at cell corners, and the dual
// staggering for B) around the particle at cell (ix,iy) with in-cell
// fractional position (x,y) in [0,1). This mirrors interpolate_fld_openacc's
// half-cell index/weight construction exactly.
func Interpolate(e, b *grid.VField, ix, iy int, x, y float64) Fields {
	ih, w1h := halfCell(ix, x)
	jh, w2h := halfCell(iy, y)

	var f Fields

	e00 := e.Get(ih, iy)
	e10 := e.Get(ih+1, iy)
	e01 := e.Get(ih, iy+1)
	e11 := e.Get(ih+1, iy+1)
	f.E.X = (e00.X*(1-w1h)+e10.X*w1h)*(1-y) + (e01.X*(1-w1h)+e11.X*w1h)*y

	ex00 := e.Get(ix, jh)
	ex10 := e.Get(ix+1, jh)
	ex01 := e.Get(ix, jh+1)
	ex11 := e.Get(ix+1, jh+1)
	f.E.Y = (ex00.Y*(1-x)+ex10.Y*x)*(1-w2h) + (ex01.Y*(1-x)+ex11.Y*x)*w2h

	ez00 := e.Get(ix, iy)
	ez10 := e.Get(ix+1, iy)
	ez01 := e.Get(ix, iy+1)
	ez11 := e.Get(ix+1, iy+1)
	f.E.Z = (ez00.Z*(1-x)+ez10.Z*x)*(1-y) + (ez01.Z*(1-x)+ez11.Z*x)*y

	bx00 := b.Get(ix, jh)
	bx10 := b.Get(ix+1, jh)
	bx01 := b.Get(ix, jh+1)
	bx11 := b.Get(ix+1, jh+1)
	f.B.X = (bx00.X*(1-x)+bx10.X*x)*(1-w2h) + (bx01.X*(1-x)+bx11.X*x)*w2h

	by00 := b.Get(ih, iy)
	by10 := b.Get(ih+1, iy)
	by01 := b.Get(ih, iy+1)
	by11 := b.Get(ih+1, iy+1)
	f.B.Y = (by00.Y*(1-w1h)+by10.Y*w1h)*(1-y) + (by01.Y*(1-w1h)+by11.Y*w1h)*y

	bz00 := b.Get(ih, jh)
	bz10 := b.Get(ih+1, jh)
	bz01 := b.Get(ih, jh+1)
	bz11 := b.Get(ih+1, jh+1)
	f.B.Z = (bz00.Z*(1-w1h)+bz10.Z*w1h)*(1-w2h) + (bz01.Z*(1-w1h)+bz11.Z*w1h)*w2h

	return f
}

// halfCell returns the cell index shifted by one when the fractional
// position is below half a cell, plus the corresponding shifted weight, per
// interpolate_fld_openacc's ih/w1h (and jh/w2h) construction.
func halfCell(i int, u float64) (int, float64) {
	if u < 0.5 {
		return i - 1, u + 0.5
	}
	return i, u - 0.5
}
