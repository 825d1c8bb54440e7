package particle

import (
	"github.com/lattice-plasma/pic2d/picerr"
)

// Storage is one species' structure-of-arrays particle store for a single
// region: integer cell indices, fractional in-cell positions, momentum, and
// an invalid flag, all sharing size N and capacity Cap (spec §3).
type Storage struct {
	Ix, Iy  []int32
	X, Y    []float32
	Ux, Uy, Uz []float32
	Invalid []bool

	N   int
	Cap int

	Tile TileGeometry
	// TileOffset[t] is the exclusive-prefix-sum start of tile t's range;
	// TileOffset[NTiles()] is the current N. Populated by sort2d.
	TileOffset []int32
}

// maxGrowCap bounds how large Grow will allocate in one call, standing in
// for a real memory ceiling so CapacityExceeded/AllocError paths are
// reachable and testable without exhausting actual memory.
const maxGrowCap = 1 << 28

// NewStorage allocates a Storage with the given initial capacity and tile
// geometry, all slots initially invalid.
func NewStorage(tile TileGeometry, capacity int) *Storage {
	s := &Storage{
		Tile:       tile,
		TileOffset: make([]int32, tile.NTiles()+1),
	}
	s.reserve(capacity)
	return s
}

func (s *Storage) reserve(capacity int) {
	s.Ix = make([]int32, capacity)
	s.Iy = make([]int32, capacity)
	s.X = make([]float32, capacity)
	s.Y = make([]float32, capacity)
	s.Ux = make([]float32, capacity)
	s.Uy = make([]float32, capacity)
	s.Uz = make([]float32, capacity)
	s.Invalid = make([]bool, capacity)
	for i := range s.Invalid {
		s.Invalid[i] = true
	}
	s.Cap = capacity
}

// Grow reallocates the storage to at least newCap, aligned up to a multiple
// of 64 particles (the "alignment" mentioned in spec §3), preserving the
// first s.N particles. It returns an AllocError if newCap exceeds the
// configured ceiling.
func (s *Storage) Grow(newCap int) error {
	if newCap <= s.Cap {
		return nil
	}
	aligned := alignUp(newCap, 64)
	if aligned > maxGrowCap {
		return &picerr.AllocError{What: "particle storage", Requested: aligned, Available: maxGrowCap}
	}

	old := *s
	s.reserve(aligned)
	copy(s.Ix, old.Ix[:old.N])
	copy(s.Iy, old.Iy[:old.N])
	copy(s.X, old.X[:old.N])
	copy(s.Y, old.Y[:old.N])
	copy(s.Ux, old.Ux[:old.N])
	copy(s.Uy, old.Uy[:old.N])
	copy(s.Uz, old.Uz[:old.N])
	copy(s.Invalid, old.Invalid[:old.N])
	s.N = old.N
	return nil
}

func alignUp(n, align int) int {
	if n%align == 0 {
		return n
	}
	return n + (align - n%align)
}

// EnsureCapacity grows the storage, if needed, so that N+extra particles
// fit, per spec §3's "reallocated only when N + incoming > Cap" rule.
func (s *Storage) EnsureCapacity(extra int) error {
	if s.N+extra <= s.Cap {
		return nil
	}
	return s.Grow(s.N + extra)
}

// Record is one particle's field values, used for appends into Storage or
// a transfer Buffer.
type Record struct {
	Ix, Iy         int32
	X, Y           float32
	Ux, Uy, Uz     float32
}

// AppendAt writes rec into slot i and marks it valid. i must be < s.Cap.
func (s *Storage) AppendAt(i int, rec Record) {
	s.Ix[i] = rec.Ix
	s.Iy[i] = rec.Iy
	s.X[i] = rec.X
	s.Y[i] = rec.Y
	s.Ux[i] = rec.Ux
	s.Uy[i] = rec.Uy
	s.Uz[i] = rec.Uz
	s.Invalid[i] = false
}

// At reads the record stored at slot i.
func (s *Storage) At(i int) Record {
	return Record{
		Ix: s.Ix[i], Iy: s.Iy[i],
		X: s.X[i], Y: s.Y[i],
		Ux: s.Ux[i], Uy: s.Uy[i], Uz: s.Uz[i],
	}
}
