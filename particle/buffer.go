package particle

import (
	"sync/atomic"

	"github.com/lattice-plasma/pic2d/picerr"
)

// Buffer is a transfer vector: the incoming-from-above/below/window-inject
// buffers and the outgoing-up/down buffers of spec §3/§4.3. Producers append
// under an atomic fetch-add on size so multiple tiles can hand off particles
// to the same neighbor concurrently without a lock (spec §5).
type Buffer struct {
	Name string

	Ix, Iy     []int32
	X, Y       []float32
	Ux, Uy, Uz []float32

	size atomic.Int64
	cap  int
}

// NewBuffer allocates a Buffer with the given pre-reserved capacity. Spec
// §9 recommends sizing this to ppc*perimeter_tiles*safety so runtime
// overflow is the exception, not the rule.
func NewBuffer(name string, capacity int) *Buffer {
	return &Buffer{
		Name: name,
		Ix:   make([]int32, capacity),
		Iy:   make([]int32, capacity),
		X:    make([]float32, capacity),
		Y:    make([]float32, capacity),
		Ux:   make([]float32, capacity),
		Uy:   make([]float32, capacity),
		Uz:   make([]float32, capacity),
		cap:  capacity,
	}
}

// Len returns the number of particles currently queued in the buffer.
func (b *Buffer) Len() int { return int(b.size.Load()) }

// Cap returns the buffer's pre-reserved capacity.
func (b *Buffer) Cap() int { return b.cap }

// Reset clears the buffer's size back to zero, ready for the next step;
// the backing arrays are reused, matching spec §3's "incoming vectors are
// re-used across steps but their size is reset to zero after consumption."
func (b *Buffer) Reset() {
	b.size.Store(0)
}

// Append atomically reserves the next slot in the buffer and writes rec
// into it, returning the slot index. It returns a CapacityExceededError if
// the buffer is full, which spec §7 treats as fatal.
func (b *Buffer) Append(rec Record) (int, error) {
	i := int(b.size.Add(1)) - 1
	if i >= b.cap {
		return -1, &picerr.CapacityExceededError{Buffer: b.Name, Size: i + 1, Cap: b.cap}
	}
	b.Ix[i] = rec.Ix
	b.Iy[i] = rec.Iy
	b.X[i] = rec.X
	b.Y[i] = rec.Y
	b.Ux[i] = rec.Ux
	b.Uy[i] = rec.Uy
	b.Uz[i] = rec.Uz
	return i, nil
}

// At reads the record stored at slot i (i must be < Len()).
func (b *Buffer) At(i int) Record {
	return Record{
		Ix: b.Ix[i], Iy: b.Iy[i],
		X: b.X[i], Y: b.Y[i],
		Ux: b.Ux[i], Uy: b.Uy[i], Uz: b.Uz[i],
	}
}
