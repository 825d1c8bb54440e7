package grid

// Current is the per-region staggered current-density grid J. It shares E's
// geometry and stride (spec §3), is reset to zero at the start of every
// step, filled additively by the deposition kernel, then smoothed by a
// binomial filter before the E advance reads it.
type Current struct {
	*VField
}

// NewCurrent allocates a zeroed current grid over geo.
func NewCurrent(geo Geometry) *Current {
	return &Current{VField: NewVField(geo)}
}

// Reset zeroes every cell, including guard cells, ahead of a new step's
// deposition pass.
func (j *Current) Reset() {
	j.Zero()
}

// Filter applies a single binomial smoothing pass (weights
// 1/4,1/2,1/4) along x then y to every component of J, wrapping
// periodically in x the same way the EMF guard exchange does. The pass
// operates over the full row/column range including guard cells so that
// current deposited into the guard margin by particles near a tile boundary
// still contributes to the smoothed interior values.
func (j *Current) Filter(scratch *VField) {
	if scratch == nil || scratch.Geo != j.Geo {
		scratch = NewVField(j.Geo)
	}
	nx, ny := j.Geo.NX, j.Geo.NY
	gcXLo, gcXHi := j.Geo.GC[0][0], j.Geo.GC[0][1]
	gcYLo, gcYHi := j.Geo.GC[1][0], j.Geo.GC[1][1]

	for iy := -gcYLo; iy < ny+gcYHi; iy++ {
		for ix := -gcXLo; ix < nx+gcXHi; ix++ {
			left := wrapX(ix-1, nx)
			right := wrapX(ix+1, nx)
			c := j.Get(ix, iy)
			l := j.Get(left, iy)
			r := j.Get(right, iy)
			scratch.Set(ix, iy, Vec3{
				X: 0.25*l.X + 0.5*c.X + 0.25*r.X,
				Y: 0.25*l.Y + 0.5*c.Y + 0.25*r.Y,
				Z: 0.25*l.Z + 0.5*c.Z + 0.25*r.Z,
			})
		}
	}
	for ix := -gcXLo; ix < nx+gcXHi; ix++ {
		for iy := -gcYLo; iy < ny+gcYHi; iy++ {
			below := iy - 1
			above := iy + 1
			if below < -gcYLo {
				below = -gcYLo
			}
			if above >= ny+gcYHi {
				above = ny + gcYHi - 1
			}
			c := scratch.Get(ix, iy)
			b := scratch.Get(ix, below)
			a := scratch.Get(ix, above)
			j.Set(ix, iy, Vec3{
				X: 0.25*b.X + 0.5*c.X + 0.25*a.X,
				Y: 0.25*b.Y + 0.5*c.Y + 0.25*a.Y,
				Z: 0.25*b.Z + 0.5*c.Z + 0.25*a.Z,
			})
		}
	}
}

func wrapX(ix, nx int) int {
	if ix < 0 {
		return ix + nx
	}
	if ix >= nx {
		return ix - nx
	}
	return ix
}
