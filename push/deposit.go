package push

import "github.com/lattice-plasma/pic2d/grid"

// segment is one leg of a particle's sub-step trajectory after splitting at
// cell boundaries, i.e. kernel_particles.c's t_vp. A trajectory that stays
// within one cell needs a single segment; crossing in x, in y, or in both
// produces two or three respectively, so three is the fixed upper bound
// (spec's Design Notes small-buffer sizing).
type segment struct {
	ix, iy int
	x0, y0 float64
	x1, y1 float64
	dx, dy float64
	qvz    float64
}

// split breaks the particle's sub-step trajectory, from in-cell position
// (x0,y0) with displacement (dx,dy) landing at cell offset (di,dj) from the
// starting cell (ix,iy), into up to three segments each confined to a single
// cell. This is a direct translation of dep_current_openacc's "// x split"
// and "// ysplit" blocks, replacing the OpenACC per-thread scratch slice
// with a fixed local array.
func split(ix, iy, di, dj int, x0, y0, dx, dy, qvz float64) []segment {
	var buf [3]segment
	vnp := 1

	buf[0] = segment{
		ix: ix, iy: iy,
		x0: x0, y0: y0,
		x1: x0 + dx, y1: y0 + dy,
		dx: dx, dy: dy,
		qvz: qvz / 2,
	}

	if di != 0 {
		ib := 0.0
		if di == 1 {
			ib = 1
		}
		delta := (x0 + dx - ib) / dx
		ycross := y0 + dy*(1-delta)

		buf[1] = segment{
			ix: ix + di, iy: iy,
			x0: 1 - ib, x1: (x0 + dx) - float64(di),
			dx: dx * delta,
			y0: ycross, y1: buf[0].y1,
			dy:  dy * delta,
			qvz: buf[0].qvz * delta,
		}

		buf[0].x1 = ib
		buf[0].dx *= 1 - delta
		buf[0].dy *= 1 - delta
		buf[0].y1 = ycross
		buf[0].qvz *= 1 - delta

		vnp++
	}

	if dj != 0 {
		isy := 1
		if buf[0].y1 < 0 || buf[0].y1 >= 1 {
			isy = 0
		}
		jb := 0.0
		if dj == 1 {
			jb = 1
		}
		delta := (buf[isy].y1 - jb) / buf[isy].dy
		xcross := buf[isy].x0 + buf[isy].dx*(1-delta)

		buf[vnp] = segment{
			iy: buf[isy].iy + dj, ix: buf[isy].ix,
			y0: 1 - jb, y1: buf[isy].y1 - float64(dj),
			dy: buf[isy].dy * delta,
			x0: xcross, x1: buf[isy].x1,
			dx:  buf[isy].dx * delta,
			qvz: buf[isy].qvz * delta,
		}

		buf[isy].y1 = jb
		buf[isy].dy *= 1 - delta
		buf[isy].dx *= 1 - delta
		buf[isy].x1 = xcross
		buf[isy].qvz *= 1 - delta

		// When the y-crossing was found in the primary segment (isy==0)
		// rather than the x-split's second segment, that second segment
		// (index 1) never went through the y-split math above and still
		// carries pre-crossing y0/y1/iy; shift it by dj too.
		if isy < vnp-1 {
			buf[1].y0 -= float64(dj)
			buf[1].y1 -= float64(dj)
			buf[1].iy += dj
		}
		vnp++
	}

	return buf[:vnp]
}

// Deposit accumulates the current contribution of one particle's sub-step
// trajectory into j, splitting the trajectory at cell boundaries first. ix,
// iy is the particle's starting cell; di,dj is the cell crossing detected by
// Advance; x0,y0 is the starting in-cell position; dx,dy is the raw (unsplit)
// displacement; qnx,qny are the charge-conserving normalization factors
// q*dx_cell/dt (kernel_particles.c's qnx/qny); qvz is q*uz*rg.
//
// This is dep_current_openacc's virtual-particle loop, ported to accumulate
// directly into the shared grid.VField via AtomicAddAt instead of a
// tile-local scratch buffer flushed afterward — the "direct global atomics"
// realization named in the design notes, appropriate for the CPU executor.
func Deposit(j *grid.Current, ix, iy, di, dj int, x0, y0, dx, dy, qnx, qny, qvz float64) {
	segs := split(ix, iy, di, dj, x0, y0, dx, dy, qvz)

	for _, s := range segs {
		s0x0, s0x1 := 1-s.x0, s.x0
		s1x0, s1x1 := 1-s.x1, s.x1
		s0y0, s0y1 := 1-s.y0, s.y0
		s1y0, s1y1 := 1-s.y1, s.y1

		wl1 := qnx * s.dx
		wl2 := qny * s.dy

		wp10 := 0.5 * (s0y0 + s1y0)
		wp11 := 0.5 * (s0y1 + s1y1)

		wp20 := 0.5 * (s0x0 + s1x0)
		wp21 := 0.5 * (s0x1 + s1x1)

		j.AtomicAddAt(s.ix, s.iy, grid.Vec3{X: wl1 * wp10})
		j.AtomicAddAt(s.ix, s.iy+1, grid.Vec3{X: wl1 * wp11})

		j.AtomicAddAt(s.ix, s.iy, grid.Vec3{Y: wl2 * wp20})
		j.AtomicAddAt(s.ix+1, s.iy, grid.Vec3{Y: wl2 * wp21})

		j.AtomicAddAt(s.ix, s.iy, grid.Vec3{Z: s.qvz * (s0x0*s0y0 + s1x0*s1y0 + (s0x0*s1y0-s1x0*s0y0)/2)})
		j.AtomicAddAt(s.ix+1, s.iy, grid.Vec3{Z: s.qvz * (s0x1*s0y0 + s1x1*s1y0 + (s0x1*s1y0-s1x1*s0y0)/2)})
		j.AtomicAddAt(s.ix, s.iy+1, grid.Vec3{Z: s.qvz * (s0x0*s0y1 + s1x0*s1y1 + (s0x0*s1y1-s1x0*s0y1)/2)})
		j.AtomicAddAt(s.ix+1, s.iy+1, grid.Vec3{Z: s.qvz * (s0x1*s0y1 + s1x1*s1y1 + (s0x1*s1y1-s1x1*s0y1)/2)})
	}
}
