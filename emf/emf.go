// Package emf implements the Yee finite-difference time-domain field solver:
// the leapfrog B-half / E / B-half update, periodic and inter-region guard
// exchange, and the moving-window shift. It is grounded on
// original_source/parallel/ompss2_openacc/emf.c's emf_new/emf_advance_*
// routines, translated into Go's slice-and-struct idiom instead of raw
// pointer arithmetic over a malloc'd buffer.
package emf

import (
	"github.com/lattice-plasma/pic2d/grid"
)

// EMF holds one region's electric and magnetic staggered fields.
type EMF struct {
	E, B *grid.VField
	Geo  grid.Geometry
	Dt   float64

	MovingWindow bool
	NMove        int
	elapsed      float64

	// eBelow/bBelow are a read-only borrowed view into the region
	// immediately below this one, recorded by SetBelow. They are never owned
	// by this EMF, and no method reads them: GuardYUp takes the region above
	// as its argument and performs the whole exchange from the lower side.
	eBelow, bBelow *grid.VField
}

// New allocates a zeroed EMF state over geo.
func New(geo grid.Geometry, dt float64) *EMF {
	return &EMF{
		E:   grid.NewVField(geo),
		B:   grid.NewVField(geo),
		Geo: geo,
		Dt:  dt,
	}
}

// SetBelow records the region below this one's field state without this
// EMF taking ownership of it. A nil below clears the record.
func (f *EMF) SetBelow(below *EMF) {
	if below == nil {
		f.eBelow, f.bBelow = nil, nil
		return
	}
	f.eBelow = below.E
	f.bBelow = below.B
}

// AdvanceBHalf updates B in cells (-1..nx)x(-1..ny) using the curl of E,
// for a half time step dtHalf. Matches the update law in spec §4.1:
//
//	B.x += -dty*(E.z[i,j+1] - E.z[i,j])
//	B.y += +dtx*(E.z[i+1,j] - E.z[i,j])
//	B.z += -dtx*(E.y[i+1,j] - E.y[i,j]) + dty*(E.x[i,j+1] - E.x[i,j])
func (f *EMF) AdvanceBHalf(dtHalf float64) {
	dtx := dtHalf / f.Geo.DX[0]
	dty := dtHalf / f.Geo.DX[1]

	for iy := -1; iy <= f.Geo.NY; iy++ {
		for ix := -1; ix <= f.Geo.NX; ix++ {
			ez00 := f.E.Get(ix, iy).Z
			ez01 := f.E.Get(ix, iy+1).Z
			ez10 := f.E.Get(ix+1, iy).Z
			ey00 := f.E.Get(ix, iy).Y
			ey10 := f.E.Get(ix+1, iy).Y
			ex00 := f.E.Get(ix, iy).X
			ex01 := f.E.Get(ix, iy+1).X

			b := f.B.At(ix, iy)
			b.X += -dty * (ez01 - ez00)
			b.Y += dtx * (ez10 - ez00)
			b.Z += -dtx*(ey10-ey00) + dty*(ex01-ex00)
		}
	}
}

// AdvanceE updates E in cells (0..nx)x(0..ny+1) using the curl of B minus
// dt*J, per spec §4.1:
//
//	E.x += +dty*(B.z[i,j] - B.z[i,j-1]) - dt*J.x
//	E.y += -dtx*(B.z[i,j] - B.z[i-1,j]) - dt*J.y
//	E.z += +dtx*(B.y[i,j] - B.y[i-1,j]) - dty*(B.x[i,j] - B.x[i,j-1]) - dt*J.z
func (f *EMF) AdvanceE(j *grid.Current, dt float64) {
	dtx := dt / f.Geo.DX[0]
	dty := dt / f.Geo.DX[1]

	for iy := 0; iy <= f.Geo.NY+1; iy++ {
		for ix := 0; ix <= f.Geo.NX; ix++ {
			bz00 := f.B.Get(ix, iy).Z
			bz0m := f.B.Get(ix, iy-1).Z
			bzm0 := f.B.Get(ix-1, iy).Z
			by00 := f.B.Get(ix, iy).Y
			bym0 := f.B.Get(ix-1, iy).Y
			bx00 := f.B.Get(ix, iy).X
			bx0m := f.B.Get(ix, iy-1).X

			jv := j.Get(ix, iy)
			e := f.E.At(ix, iy)
			e.X += dty*(bz00-bz0m) - dt*jv.X
			e.Y += -dtx*(bz00-bzm0) - dt*jv.Y
			e.Z += dtx*(by00-bym0) - dty*(bx00-bx0m) - dt*jv.Z
		}
	}
}

// Advance runs one full field-solve step: B-half, E, B-half. It does no
// guard exchange itself; the region package sequences GuardX and GuardYUp
// around it.
func (f *EMF) Advance(j *grid.Current) {
	f.AdvanceBHalf(f.Dt / 2)
	f.AdvanceE(j, f.Dt)
	f.AdvanceBHalf(f.Dt / 2)
	f.elapsed += f.Dt
}

// GuardX applies the periodic x-boundary wrap to both E and B: guard cells
// on either side of the interior column range are filled from the opposite
// edge. When MovingWindow is active the x guards are left untouched, since
// the window shift refills the rightmost column directly (spec §4.1).
func (f *EMF) GuardX() {
	if f.MovingWindow {
		return
	}
	guardX(f.E, f.Geo)
	guardX(f.B, f.Geo)
}

func guardX(v *grid.VField, geo grid.Geometry) {
	nx := geo.NX
	for iy := -geo.GC[1][0]; iy < geo.NY+geo.GC[1][1]; iy++ {
		for g := 1; g <= geo.GC[0][0]; g++ {
			v.Set(-g, iy, v.Get(nx-g, iy))
		}
		for g := 0; g < geo.GC[0][1]; g++ {
			v.Set(nx+g, iy, v.Get(g, iy))
		}
	}
}

// GuardYUp exchanges the y-guard band with the region above: this region
// writes its own last interior rows into the neighbor's lower guard, and
// reads the neighbor's first interior rows into its own upper guard. The
// exchange is half-duplex: this one call, made by the lower region,
// performs both copies for the pair, and the region above makes no
// matching call. Passing f itself wraps the region periodically in y.
func (f *EMF) GuardYUp(above *EMF) {
	guardYUp(f.E, above.E, f.Geo)
	guardYUp(f.B, above.B, f.Geo)
}

func guardYUp(v, aboveV *grid.VField, geo grid.Geometry) {
	loGC, hiGC := geo.GC[1][0], geo.GC[1][1]

	// Copy the neighbor's first interior rows into our upper guard.
	for g := 0; g < hiGC; g++ {
		src := aboveV.RawRow(g)
		dst := v.RawRow(geo.NY + g)
		copy(dst, src)
	}

	// Write our own last interior rows into the neighbor's lower guard.
	for g := 1; g <= loGC; g++ {
		src := v.RawRow(geo.NY - g)
		dst := aboveV.RawRow(-g)
		copy(dst, src)
	}
}

// ShouldShiftWindow returns true if simulated time has crossed the threshold for
// the next moving-window shift, per spec §4.1: dx[0]*(n_move+1).
func (f *EMF) ShouldShiftWindow() bool {
	return f.MovingWindow && f.elapsed > f.Geo.DX[0]*float64(f.NMove+1)
}

// ShiftWindow shifts every field row left by one cell and zeroes the
// rightmost column, then increments NMove. Row shifts are independent, so a
// per-row scratch slot is reused across rows the way the source's
// thread-local scratch ring avoids extra allocation.
func (f *EMF) ShiftWindow() {
	shiftRows(f.E, f.Geo)
	shiftRows(f.B, f.Geo)
	f.NMove++
}

func shiftRows(v *grid.VField, geo grid.Geometry) {
	nrow := v.NRow()
	for iy := -geo.GC[1][0]; iy < geo.NY+geo.GC[1][1]; iy++ {
		row := v.RawRow(iy)
		copy(row, row[1:])
		row[nrow-1] = grid.Vec3{}
	}
}
