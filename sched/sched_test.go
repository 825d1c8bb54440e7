package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/lattice-plasma/pic2d/config"
	"github.com/lattice-plasma/pic2d/grid"
	"github.com/lattice-plasma/pic2d/particle"
	"github.com/lattice-plasma/pic2d/region"
)

func TestCPUExecutorRunsAllTasksBounded(t *testing.T) {
	e := NewCPUExecutor(2)
	var running, maxRunning int32
	tasks := make([]func(context.Context) error, 20)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				m := atomic.LoadInt32(&maxRunning)
				if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
					break
				}
			}
			atomic.AddInt32(&running, -1)
			return nil
		}
	}
	if err := e.Run(context.Background(), tasks); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if maxRunning > 2 {
		t.Fatalf("observed %d tasks running concurrently, want at most 2", maxRunning)
	}
}

func TestCPUExecutorPropagatesFirstError(t *testing.T) {
	e := NewCPUExecutor(4)
	wantErr := errors.New("boom")
	tasks := []func(context.Context) error{
		func(context.Context) error { return nil },
		func(context.Context) error { return wantErr },
		func(context.Context) error { return nil },
	}
	if err := e.Run(context.Background(), tasks); err == nil {
		t.Fatal("Run() = nil, want an error")
	}
}

func TestCPUExecutorHonorsCancelledContext(t *testing.T) {
	e := NewCPUExecutor(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	tasks := []func(context.Context) error{
		func(context.Context) error { atomic.AddInt32(&ran, 1); return nil },
	}
	err := e.Run(ctx, tasks)
	if err == nil {
		t.Fatal("Run() = nil, want ctx.Err()")
	}
}

func TestNewAcceleratorExecutorDefaultsQueues(t *testing.T) {
	e := NewAcceleratorExecutor(0)
	if e.Queues != 1 {
		t.Fatalf("Queues = %d, want 1", e.Queues)
	}
}

func testRegions(n int) []*region.Region {
	geo := grid.NewGeometry(8, 8, [2]float64{8, 8})
	species := []config.Species{{Name: "electron", QOverM: -1, Q: -1, PPC: [2]int{1, 1}, Dt: 0.05}}
	regions := make([]*region.Region, n)
	for i := range regions {
		regions[i] = region.New(geo, 0.05, i*8, species, 4, false)
	}
	for i := range regions {
		var below, above *region.Region
		if i > 0 {
			below = regions[i-1]
		}
		if i < n-1 {
			above = regions[i+1]
		}
		regions[i].SetNeighbors(below, above)
		regions[i].SetGlobalRows(8 * n)
	}
	return regions
}

func TestSchedulerOnAcceleratorPinsFirstNRegions(t *testing.T) {
	s := New(testRegions(4), 2, 1, 1)
	for i := 0; i < 4; i++ {
		want := i < 2
		if got := s.onAccelerator(i); got != want {
			t.Errorf("onAccelerator(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestSchedulerStepRunsAllStagesAcrossRegions(t *testing.T) {
	s := New(testRegions(3), 1, 2, 1)
	if err := s.Step(context.Background()); err != nil {
		t.Fatalf("Step() = %v, want nil", err)
	}
}

// TestSchedulerStepShiftsWindowBeforeBoundaryCheck mirrors
// region.TestStepShiftsWindowBeforeBoundaryCheck at the scheduler level:
// the moving-window shift stage must run before the boundary-check stage
// so a particle sitting at ix == NX on a shift-triggering step survives.
func TestSchedulerStepShiftsWindowBeforeBoundaryCheck(t *testing.T) {
	geo := grid.NewGeometry(8, 8, [2]float64{0.08, 8})
	species := []config.Species{{Name: "electron", QOverM: -1, Q: -1, PPC: [2]int{1, 1}, Dt: 0.05}}
	r := region.New(geo, 0.05, 0, species, 4, true)
	r.SetGlobalRows(8)

	sp := r.Species[0]
	sp.Storage.N = 1
	sp.Storage.AppendAt(0, particle.Record{Ix: 8, Iy: 4, X: 0.5, Y: 0.5})

	s := New([]*region.Region{r}, 0, 1, 1)
	if err := s.Step(context.Background()); err != nil {
		t.Fatalf("Step() = %v, want nil", err)
	}

	if r.EMF.NMove != 1 {
		t.Fatalf("test setup: NMove = %d, want 1", r.EMF.NMove)
	}
	if sp.Storage.Invalid[0] {
		t.Fatal("particle at ix==NX was invalidated by the boundary stage instead of being pulled back in range by the window-shift stage")
	}
	if sp.Storage.Ix[0] != 7 {
		t.Fatalf("Ix[0] = %d, want 7", sp.Storage.Ix[0])
	}
}

func TestSchedulerStepStopsBetweenStagesOnCancel(t *testing.T) {
	s := New(testRegions(2), 1, 2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Step(ctx)
	if err == nil {
		t.Fatal("Step() = nil, want ctx.Err() for an already-cancelled context")
	}
}
