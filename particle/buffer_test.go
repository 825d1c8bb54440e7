package particle

import (
	"sync"
	"testing"

	"github.com/lattice-plasma/pic2d/picerr"
)

func TestBufferAppendAndAt(t *testing.T) {
	b := NewBuffer("test", 4)
	rec := Record{Ix: 1, Iy: 2, X: 0.5, Y: 0.5, Ux: 1, Uy: 2, Uz: 3}
	i, err := b.Append(rec)
	if err != nil {
		t.Fatalf("Append() = %v, want nil", err)
	}
	if i != 0 {
		t.Fatalf("Append() index = %d, want 0", i)
	}
	if got := b.At(0); got != rec {
		t.Fatalf("At(0) = %+v, want %+v", got, rec)
	}
	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}
}

func TestBufferAppendReturnsCapacityExceeded(t *testing.T) {
	b := NewBuffer("small", 2)
	if _, err := b.Append(Record{}); err != nil {
		t.Fatalf("first Append() = %v, want nil", err)
	}
	if _, err := b.Append(Record{}); err != nil {
		t.Fatalf("second Append() = %v, want nil", err)
	}
	_, err := b.Append(Record{})
	if err == nil {
		t.Fatal("third Append() = nil, want CapacityExceededError")
	}
	if _, ok := err.(*picerr.CapacityExceededError); !ok {
		t.Fatalf("Append() error type = %T, want *picerr.CapacityExceededError", err)
	}
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer("test", 4)
	b.Append(Record{Ix: 1})
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", b.Len())
	}
}

// TestBufferConcurrentAppendIsRaceFree exercises the atomic fetch-add slot
// reservation spec §5 requires for tiles handing off to the same neighbor
// concurrently, without a lock.
func TestBufferConcurrentAppendIsRaceFree(t *testing.T) {
	const writers = 32
	b := NewBuffer("concurrent", writers)

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		i := i
		go func() {
			defer wg.Done()
			if _, err := b.Append(Record{Ix: int32(i)}); err != nil {
				t.Errorf("Append() = %v, want nil", err)
			}
		}()
	}
	wg.Wait()

	if b.Len() != writers {
		t.Fatalf("Len() = %d, want %d", b.Len(), writers)
	}

	seen := make(map[int32]bool)
	for i := 0; i < b.Len(); i++ {
		seen[b.At(i).Ix] = true
	}
	if len(seen) != writers {
		t.Fatalf("distinct Ix values = %d, want %d (no overwritten slots)", len(seen), writers)
	}
}
