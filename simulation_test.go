package pic2d

import (
	"context"
	"testing"

	"github.com/lattice-plasma/pic2d/config"
	"github.com/lattice-plasma/pic2d/diag"
)

func testConfig() config.Config {
	return config.Config{
		NX: 8, NY: 8,
		Box:      [2]float64{8, 8},
		Dt:       0.05,
		TMax:     0.2,
		NDump:    2,
		NRegions: 2,
		TileEdge: 4,
		Species: []config.Species{
			{Name: "electron", QOverM: -1, Q: -1, PPC: [2]int{1, 1}, Dt: 0.05},
		},
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.NX = 0
	if _, err := New(cfg, nil, 1, 1); err == nil {
		t.Fatal("New() = nil error, want a validation error for NX=0")
	}
}

func TestNewBuildsPeriodicNeighborRing(t *testing.T) {
	sim, err := New(testConfig(), nil, 2, 1)
	if err != nil {
		t.Fatalf("New() = %v, want nil", err)
	}
	if len(sim.Regions) != 2 {
		t.Fatalf("len(Regions) = %d, want 2", len(sim.Regions))
	}
	r0, r1 := sim.Regions[0], sim.Regions[1]
	if r0.Above != r1 || r0.Below != r1 {
		t.Fatalf("2-region ring: r0's neighbors should both be r1")
	}
	if r1.Above != r0 || r1.Below != r0 {
		t.Fatalf("2-region ring: r1's neighbors should both be r0")
	}
}

func TestNewSingleRegionHasNoNeighbors(t *testing.T) {
	cfg := testConfig()
	cfg.NRegions = 1
	sim, err := New(cfg, nil, 1, 1)
	if err != nil {
		t.Fatalf("New() = %v, want nil", err)
	}
	r := sim.Regions[0]
	if r.Above != nil || r.Below != nil {
		t.Fatal("a single region should have no neighbors, relying on its own periodic self-wrap")
	}
}

func TestStepAdvancesIterCounter(t *testing.T) {
	sim, err := New(testConfig(), nil, 1, 1)
	if err != nil {
		t.Fatalf("New() = %v, want nil", err)
	}
	if err := sim.Step(context.Background()); err != nil {
		t.Fatalf("Step() = %v, want nil", err)
	}
	if sim.Iter != 1 {
		t.Fatalf("Iter = %d, want 1", sim.Iter)
	}
}

func TestRunStopsAtTMax(t *testing.T) {
	sim, err := New(testConfig(), nil, 1, 1)
	if err != nil {
		t.Fatalf("New() = %v, want nil", err)
	}
	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	wantIter := 4 // TMax=0.2, Dt=0.05
	if sim.Iter != wantIter {
		t.Fatalf("Iter = %d, want %d", sim.Iter, wantIter)
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	sim, err := New(testConfig(), nil, 1, 1)
	if err != nil {
		t.Fatalf("New() = %v, want nil", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sim.Run(ctx); err == nil {
		t.Fatal("Run() = nil, want ctx.Err() for an already-cancelled context")
	}
}

type recordingSink struct {
	grids     int
	particles int
}

func (r *recordingSink) EmitGrid(name string, axes []diag.Axis, iteration int, data []float64) error {
	r.grids++
	return nil
}

func (r *recordingSink) EmitParticles(species string, iteration int, x, y, ux, uy, uz []float32) error {
	r.particles++
	return nil
}

func TestRunEmitsThroughSinkOnDumpSteps(t *testing.T) {
	cfg := testConfig()
	sink := &recordingSink{}
	sim, err := New(cfg, sink, 1, 1)
	if err != nil {
		t.Fatalf("New() = %v, want nil", err)
	}
	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if sink.grids == 0 {
		t.Fatal("sink.grids = 0, want at least one grid emission on a dump step")
	}
	if sink.particles == 0 {
		t.Fatal("sink.particles = 0, want at least one particle emission on a dump step")
	}
}
