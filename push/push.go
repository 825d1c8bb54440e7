package push

import (
	"math"

	"github.com/lattice-plasma/pic2d/emf"
	"github.com/lattice-plasma/pic2d/grid"
	"github.com/lattice-plasma/pic2d/particle"
	"github.com/lattice-plasma/pic2d/picerr"
)

// Params bundles the per-species constants advance_part_velocity and
// spec_advance_openacc precompute once per step outside the particle loop:
// tem = 0.5*dt/m_q, the dt/dx CFL factors, and the charge-conserving
// normalization factors qnx,qny used by Deposit.
type Params struct {
	Tem     float64
	DtDx    float64
	DtDy    float64
	Qnx     float64
	Qny     float64
	Q       float64
	YOffset int // region_offset: global row of this region's first interior row
	Species string
}

// NewParams derives a Params from a species' mass-to-charge ratio m_q
// (passed as qOverM, config.Species.QOverM), per-cell
// charge, cell size and timestep, mirroring spec_advance_openacc's constant
// setup at the top of the tile loop.
func NewParams(species string, qOverM, q float64, dx [2]float64, dt float64, yOffset int) Params {
	return Params{
		Tem:     0.5 * dt / qOverM,
		DtDx:    dt / dx[0],
		DtDy:    dt / dx[1],
		Qnx:     q * dx[0] / dt,
		Qny:     q * dx[1] / dt,
		Q:       q,
		YOffset: yOffset,
		Species: species,
	}
}

// boris performs the relativistic Boris rotation: half electric-field kick,
// full magnetic rotation (split into the standard two half-rotations via t
// and s), then the second half electric-field kick. u is mutated in place.
// This is advance_part_velocity translated field-for-field, including its
// two-stage t/s rotation (computed here as Bp scaled by gtem then otsq
// rather than named t/s, matching the source's variable reuse).
func boris(u *grid.Vec3, e, b grid.Vec3, tem float64) {
	e = e.Scale(tem)

	ut := u.Add(e)

	ustq := ut.Dot(ut)
	gtem := tem / math.Sqrt(1+ustq)

	bt := b.Scale(gtem)

	upr := grid.Vec3{
		X: ut.X + ut.Y*bt.Z - ut.Z*bt.Y,
		Y: ut.Y + ut.Z*bt.X - ut.X*bt.Z,
		Z: ut.Z + ut.X*bt.Y - ut.Y*bt.X,
	}

	btMag := bt.Dot(bt)
	otsq := 2 / (1 + btMag)
	bs := bt.Scale(otsq)

	ut = grid.Vec3{
		X: ut.X + upr.Y*bs.Z - upr.Z*bs.Y,
		Y: ut.Y + upr.Z*bs.X - upr.X*bs.Z,
		Z: ut.Z + upr.X*bs.Y - upr.Y*bs.X,
	}

	*u = ut.Add(e)
}

// ltrim generalizes the ZPIC LTRIM macro (which only ever returns -1, 0 or
// +1 under the assumption that a CFL-respecting timestep never moves a
// particle more than one cell per step) to report however many cells x has
// actually crossed, via a plain floor. Advance uses the magnitude to raise
// NumericOverrunError instead of silently trusting that assumption.
func ltrim(x float64) int {
	return int(math.Floor(x))
}

// Advance pushes particle k of s one full step: interpolates e/b at its
// current position, applies the Boris rotation, advances its position,
// detects any cell crossing, deposits its current contribution into j, and
// writes the new position/cell/momentum back into s. It returns a
// NumericOverrunError if the particle crossed more than one cell in either
// direction, the CFL violation spec §7 calls out.
//
// This is spec_advance_openacc's per-particle body (the region-offset
// variant, since pic2d always advances one region's slab at a time).
func Advance(s *particle.Storage, k int, f *emf.EMF, j *grid.Current, p Params) error {
	x0 := float64(s.X[k])
	y0 := float64(s.Y[k])
	ix := int(s.Ix[k])
	iy := int(s.Iy[k]) - p.YOffset

	u := grid.Vec3{X: float64(s.Ux[k]), Y: float64(s.Uy[k]), Z: float64(s.Uz[k])}

	fields := Interpolate(f.E, f.B, ix, iy, x0, y0)
	boris(&u, fields.E, fields.B, p.Tem)

	usq := u.Dot(u)
	rg := 1 / math.Sqrt(1+usq)

	dx := p.DtDx * rg * u.X
	dy := p.DtDy * rg * u.Y

	x1 := x0 + dx
	y1 := y0 + dy

	di := ltrim(x1)
	dj := ltrim(y1)
	if di < -1 || di > 1 || dj < -1 || dj > 1 {
		return &picerr.NumericOverrunError{Species: p.Species, Particle: k, DIx: di, DIy: dj}
	}

	qvz := p.Q * u.Z * rg

	Deposit(j, ix, iy, di, dj, x0, y0, dx, dy, p.Qnx, p.Qny, qvz)

	s.X[k] = float32(x1 - float64(di))
	s.Y[k] = float32(y1 - float64(dj))
	s.Ix[k] += int32(di)
	s.Iy[k] += int32(dj)
	s.Ux[k] = float32(u.X)
	s.Uy[k] = float32(u.Y)
	s.Uz[k] = float32(u.Z)

	return nil
}

// AdvanceAll advances every valid particle in s, per spec §4.2's whole-tile
// loop. It stops at the first NumericOverrunError, matching Step's
// fail-fast error handling (spec §7).
func AdvanceAll(s *particle.Storage, f *emf.EMF, j *grid.Current, p Params) error {
	for k := 0; k < s.N; k++ {
		if s.Invalid[k] {
			continue
		}
		if err := Advance(s, k, f, j, p); err != nil {
			return err
		}
	}
	return nil
}
