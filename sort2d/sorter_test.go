package sort2d

import (
	"testing"

	"github.com/lattice-plasma/pic2d/particle"
)

func TestFullSortPartitionsParticlesByTile(t *testing.T) {
	tile := particle.NewTileGeometry(4, 8, 8, 0)
	st := particle.NewStorage(tile, 8)
	st.N = 4
	// One particle per tile corner, scattered out of tile order on purpose.
	st.AppendAt(0, particle.Record{Ix: 6, Iy: 6}) // tile (1,1) -> index 3
	st.AppendAt(1, particle.Record{Ix: 0, Iy: 0}) // tile (0,0) -> index 0
	st.AppendAt(2, particle.Record{Ix: 5, Iy: 1}) // tile (1,0) -> index 1
	st.AppendAt(3, particle.Record{Ix: 1, Iy: 5}) // tile (0,1) -> index 2

	s := NewSorter(tile)
	if err := FullSort(s, st); err != nil {
		t.Fatalf("FullSort() = %v, want nil", err)
	}

	if st.N != 4 {
		t.Fatalf("N = %d, want 4", st.N)
	}
	for k := 0; k < st.N; k++ {
		if st.Invalid[k] {
			t.Fatalf("slot %d invalid after sort, want valid", k)
		}
		want := tile.TileIndex(int(st.Ix[k]), int(st.Iy[k]))
		var got int
		for t2 := 0; t2 < tile.NTiles(); t2++ {
			if int32(k) >= st.TileOffset[t2] && int32(k) < st.TileOffset[t2+1] {
				got = t2
			}
		}
		if got != want {
			t.Fatalf("slot %d landed in tile %d, want tile %d (owns cell %d,%d)", k, got, want, st.Ix[k], st.Iy[k])
		}
	}
	if st.TileOffset[tile.NTiles()] != 4 {
		t.Fatalf("TileOffset[NTiles()] = %d, want 4", st.TileOffset[tile.NTiles()])
	}
}

func TestFullSortDropsInvalidParticles(t *testing.T) {
	tile := particle.NewTileGeometry(4, 8, 8, 0)
	st := particle.NewStorage(tile, 4)
	st.N = 2
	st.AppendAt(0, particle.Record{Ix: 1, Iy: 1})
	st.Invalid[1] = true

	s := NewSorter(tile)
	if err := FullSort(s, st); err != nil {
		t.Fatalf("FullSort() = %v, want nil", err)
	}
	if st.N != 1 {
		t.Fatalf("N = %d, want 1 (invalid slot dropped)", st.N)
	}
}

func TestSortMergesIncomingBuffer(t *testing.T) {
	tile := particle.NewTileGeometry(4, 8, 8, 0)
	st := particle.NewStorage(tile, 4)
	st.N = 1
	st.AppendAt(0, particle.Record{Ix: 0, Iy: 0})

	incoming := particle.NewBuffer("test", 4)
	if _, err := incoming.Append(particle.Record{Ix: 5, Iy: 5}); err != nil {
		t.Fatalf("Append() = %v, want nil", err)
	}

	s := NewSorter(tile)
	if err := FullSort(s, st); err != nil {
		t.Fatalf("FullSort() = %v, want nil", err)
	}
	if err := s.Sort(st, incoming); err != nil {
		t.Fatalf("Sort() = %v, want nil", err)
	}

	if st.N != 2 {
		t.Fatalf("N = %d, want 2 after merging one incoming particle", st.N)
	}
	if incoming.Len() != 0 {
		t.Fatalf("incoming.Len() = %d, want 0 (buffer reset after merge)", incoming.Len())
	}
}

// TestSortIsIdempotentWithoutInterveningMotion exercises property 8: calling
// Sort again with no particle having moved to a different tile in between
// reproduces the exact same array contents, and MovedCount reports zero for
// that second call.
func TestSortIsIdempotentWithoutInterveningMotion(t *testing.T) {
	tile := particle.NewTileGeometry(4, 8, 8, 0)
	st := particle.NewStorage(tile, 8)
	st.N = 4
	st.AppendAt(0, particle.Record{Ix: 6, Iy: 6, X: 0.25, Y: 0.75, Ux: 1, Uy: 2, Uz: 3})
	st.AppendAt(1, particle.Record{Ix: 0, Iy: 0, X: 0.1, Y: 0.2, Ux: 4, Uy: 5, Uz: 6})
	st.AppendAt(2, particle.Record{Ix: 5, Iy: 1, X: 0.5, Y: 0.5, Ux: 7, Uy: 8, Uz: 9})
	st.AppendAt(3, particle.Record{Ix: 1, Iy: 5, X: 0.9, Y: 0.1, Ux: 1.5, Uy: 2.5, Uz: 3.5})

	s := NewSorter(tile)
	if err := FullSort(s, st); err != nil {
		t.Fatalf("FullSort() = %v, want nil", err)
	}
	if got := s.MovedCount(); got != 0 {
		t.Fatalf("MovedCount() = %d after FullSort, want 0 (FullSort clears the old tile ranges, so no slot lies in a range it does not belong to)", got)
	}

	firstIx := append([]int32(nil), st.Ix[:st.N]...)
	firstIy := append([]int32(nil), st.Iy[:st.N]...)
	firstX := append([]float32(nil), st.X[:st.N]...)
	firstY := append([]float32(nil), st.Y[:st.N]...)
	firstUx := append([]float32(nil), st.Ux[:st.N]...)
	firstUy := append([]float32(nil), st.Uy[:st.N]...)
	firstUz := append([]float32(nil), st.Uz[:st.N]...)
	firstOffsets := append([]int32(nil), st.TileOffset...)

	if err := s.Sort(st); err != nil {
		t.Fatalf("second Sort() = %v, want nil", err)
	}

	if got := s.MovedCount(); got != 0 {
		t.Fatalf("MovedCount() = %d after a sort with no intervening motion, want 0", got)
	}
	if st.N != 4 {
		t.Fatalf("N = %d after second sort, want 4", st.N)
	}
	for k := 0; k < st.N; k++ {
		if st.Ix[k] != firstIx[k] || st.Iy[k] != firstIy[k] {
			t.Fatalf("slot %d cell = (%d,%d), want (%d,%d)", k, st.Ix[k], st.Iy[k], firstIx[k], firstIy[k])
		}
		if st.X[k] != firstX[k] || st.Y[k] != firstY[k] {
			t.Fatalf("slot %d position = (%v,%v), want (%v,%v)", k, st.X[k], st.Y[k], firstX[k], firstY[k])
		}
		if st.Ux[k] != firstUx[k] || st.Uy[k] != firstUy[k] || st.Uz[k] != firstUz[k] {
			t.Fatalf("slot %d momentum = (%v,%v,%v), want (%v,%v,%v)", k, st.Ux[k], st.Uy[k], st.Uz[k], firstUx[k], firstUy[k], firstUz[k])
		}
	}
	for t2 := range st.TileOffset {
		if st.TileOffset[t2] != firstOffsets[t2] {
			t.Fatalf("TileOffset[%d] = %d, want %d", t2, st.TileOffset[t2], firstOffsets[t2])
		}
	}
}

func TestSortGrowsScratchAcrossRepeatedCalls(t *testing.T) {
	tile := particle.NewTileGeometry(4, 8, 8, 0)
	st := particle.NewStorage(tile, 2)
	st.N = 1
	st.AppendAt(0, particle.Record{Ix: 0, Iy: 0})

	s := NewSorter(tile)
	if err := FullSort(s, st); err != nil {
		t.Fatalf("FullSort() = %v, want nil", err)
	}

	incoming := particle.NewBuffer("test", 8)
	for i := 0; i < 5; i++ {
		if _, err := incoming.Append(particle.Record{Ix: int32(i % 8), Iy: int32(i % 8)}); err != nil {
			t.Fatalf("Append() = %v, want nil", err)
		}
	}
	if err := s.Sort(st, incoming); err != nil {
		t.Fatalf("Sort() = %v, want nil", err)
	}
	if st.N != 6 {
		t.Fatalf("N = %d, want 6", st.N)
	}
	if st.Cap < st.N {
		t.Fatalf("Cap = %d, smaller than N = %d after growth", st.Cap, st.N)
	}
}
