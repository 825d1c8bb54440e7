package grid

import "sync/atomic"

// Vec3 is a three-component field value living at one grid cell.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns the component-wise sum of v and w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product v x w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// VField is a vector field on a staggered grid: one contiguous backing slice
// per field, addressed through a base offset so that Cell(0,0) lands on the
// first interior cell and negative indices reach into the guard margins.
// This mirrors emf_new's "emf->E = emf->E_buf + gc[0][0] + gc[1][0]*nrow"
// layout instead of separate interior/guard arrays.
type VField struct {
	buf  []Vec3
	Geo  Geometry
	nrow int
	base int
}

// NewVField allocates a zeroed vector field over geo.
func NewVField(geo Geometry) *VField {
	nrow := geo.NRow()
	return &VField{
		buf:  make([]Vec3, geo.Size()),
		Geo:  geo,
		nrow: nrow,
		base: geo.GC[0][0] + geo.GC[1][0]*nrow,
	}
}

func (f *VField) index(ix, iy int) int {
	return f.base + ix + iy*f.nrow
}

// At returns a pointer to the cell (ix,iy), which may be negative (guard).
func (f *VField) At(ix, iy int) *Vec3 {
	return &f.buf[f.index(ix, iy)]
}

// Get returns the value at (ix,iy).
func (f *VField) Get(ix, iy int) Vec3 {
	return f.buf[f.index(ix, iy)]
}

// Set writes v to (ix,iy).
func (f *VField) Set(ix, iy int, v Vec3) {
	f.buf[f.index(ix, iy)] = v
}

// AddAt adds v to the value stored at (ix,iy). It is not itself atomic; use
// AtomicAddAt from concurrent deposition kernels.
func (f *VField) AddAt(ix, iy int, v Vec3) {
	p := &f.buf[f.index(ix, iy)]
	p.X += v.X
	p.Y += v.Y
	p.Z += v.Z
}

// AtomicAddAt performs a lock-free compare-and-swap accumulation of v into
// the cell (ix,iy). It is the global-atomics realization of current
// deposition described in the design notes; the tile-local accumulate +
// scatter realization is implemented by the accelerator executor instead.
func (f *VField) AtomicAddAt(ix, iy int, v Vec3) {
	p := &f.buf[f.index(ix, iy)]
	atomicAddFloat64(&p.X, v.X)
	atomicAddFloat64(&p.Y, v.Y)
	atomicAddFloat64(&p.Z, v.Z)
}

func atomicAddFloat64(addr *float64, delta float64) {
	for {
		old := loadFloat64(addr)
		newVal := old + delta
		if compareAndSwapFloat64(addr, old, newVal) {
			return
		}
	}
}

func loadFloat64(addr *float64) float64 {
	return float64frombits(atomic.LoadUint64((*uint64)(pointerOf(addr))))
}

func compareAndSwapFloat64(addr *float64, old, new float64) bool {
	return atomic.CompareAndSwapUint64(
		(*uint64)(pointerOf(addr)),
		float64bits(old),
		float64bits(new),
	)
}

// Zero clears every cell, including guard cells, to the zero vector.
func (f *VField) Zero() {
	for i := range f.buf {
		f.buf[i] = Vec3{}
	}
}

// NRow returns the row stride (guard columns included).
func (f *VField) NRow() int { return f.nrow }

// RawRow returns the full row (guard cells included on both ends) at
// logical row iy, where iy may range over the guard margins. Used for guard
// exchange and the moving-window shift, which act on whole rows regardless
// of the x guard/interior split.
func (f *VField) RawRow(iy int) []Vec3 {
	start := (f.Geo.GC[1][0] + iy) * f.nrow
	return f.buf[start : start+f.nrow]
}
