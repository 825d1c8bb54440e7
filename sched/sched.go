// Package sched dispatches a step's per-region kernels across two
// executors — a CPU worker pool and a simulated accelerator command queue
// — honoring the inter-region task edges of spec.md §4.5 as a sequence of
// barriers between pipeline stages, since every edge in that section
// resolves once "all regions have finished stage N" rather than requiring
// a finer-grained per-pair dependency graph.
//
// The worker-pool sizing follows guppy's lib/thread.go SetThreads
// (runtime.GOMAXPROCS), generalized from a single global thread count to
// one bounded pool per executor so a run can dedicate a slice of cores to
// the accelerator's simulated queues without starving the CPU pool. Task
// dispatch itself is a semaphore-bounded goroutine-per-task fan-out with a
// sync.WaitGroup join.
package sched

import (
	"context"
	"log"
	"runtime"
	"sync"

	"github.com/lattice-plasma/pic2d/region"
)

// Executor runs a batch of independent tasks to completion, returning the
// first error encountered (if any); a cancelled ctx stops further tasks
// from starting.
type Executor interface {
	Run(ctx context.Context, tasks []func(context.Context) error) error
}

// runBounded starts one goroutine per task, at most limit running
// concurrently, and returns the first non-nil error any of them produced.
// A cancelled ctx (or a task's own error) stops further tasks from
// starting but does not interrupt tasks already in flight.
func runBounded(ctx context.Context, limit int, tasks []func(context.Context) error) error {
	if limit <= 0 {
		limit = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sem := make(chan struct{}, limit)
	errs := make(chan error, len(tasks))
	var wg sync.WaitGroup

	for _, t := range tasks {
		t := t
		select {
		case <-ctx.Done():
			errs <- ctx.Err()
			continue
		default:
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			err := t(ctx)
			errs <- err
			if err != nil {
				cancel()
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// CPUExecutor runs tasks on a bounded worker pool sized to Workers
// goroutines, the same GOMAXPROCS-driven sizing guppy's SetThreads applies
// globally, scoped here to one executor instead of the whole process.
type CPUExecutor struct {
	Workers int
}

// NewCPUExecutor returns a CPUExecutor sized to workers goroutines, or
// runtime.NumCPU() if workers <= 0.
func NewCPUExecutor(workers int) *CPUExecutor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUExecutor{Workers: workers}
}

// Run executes tasks with at most e.Workers running concurrently.
func (e *CPUExecutor) Run(ctx context.Context, tasks []func(context.Context) error) error {
	return runBounded(ctx, e.Workers, tasks)
}

// AcceleratorExecutor stands in for one or more accelerator command
// queues (spec §4.5's "accelerator (one or more command queues)"). It
// runs the same Go code the CPU executor would — there is no real device
// backend in this module — but is kept a distinct type so the scheduler's
// region-to-executor pinning and any future device-specific kernel
// variant have somewhere to live.
type AcceleratorExecutor struct {
	Queues  int
	Verbose bool
}

// NewAcceleratorExecutor returns an AcceleratorExecutor with the given
// number of simulated queues (at least 1).
func NewAcceleratorExecutor(queues int) *AcceleratorExecutor {
	if queues <= 0 {
		queues = 1
	}
	return &AcceleratorExecutor{Queues: queues}
}

// Run executes tasks with at most e.Queues running concurrently.
func (e *AcceleratorExecutor) Run(ctx context.Context, tasks []func(context.Context) error) error {
	if e.Verbose && len(tasks) > 0 {
		log.Printf("sched: accelerator dispatching %d task(s) across %d queue(s)", len(tasks), e.Queues)
	}
	return runBounded(ctx, e.Queues, tasks)
}

// Scheduler drives every region in a stack through one step's pipeline,
// splitting each stage's per-region tasks between the CPU and accelerator
// executors according to GPURegionCount, and barrier-synchronizing
// between stages so the inter-region edges of spec §4.5 hold.
type Scheduler struct {
	Regions        []*region.Region
	CPU            *CPUExecutor
	Accelerator    *AcceleratorExecutor
	GPURegionCount int
	Verbose        bool
}

// New builds a Scheduler over regions, pinning the first gpuRegionCount
// regions (in slice order, matching their row order) to the accelerator
// executor and the rest to the CPU pool.
func New(regions []*region.Region, gpuRegionCount, cpuWorkers, gpuQueues int) *Scheduler {
	return &Scheduler{
		Regions:        regions,
		CPU:            NewCPUExecutor(cpuWorkers),
		Accelerator:    NewAcceleratorExecutor(gpuQueues),
		GPURegionCount: gpuRegionCount,
	}
}

func (s *Scheduler) onAccelerator(i int) bool {
	return i < s.GPURegionCount
}

// runStage builds one task per region from fn and dispatches it to the
// region's pinned executor, running both executors' batches concurrently
// and waiting for both to finish — the barrier between pipeline stages.
func (s *Scheduler) runStage(ctx context.Context, fn func(*region.Region) error) error {
	var cpuTasks, gpuTasks []func(context.Context) error
	for i, r := range s.Regions {
		r := r
		task := func(context.Context) error { return fn(r) }
		if s.onAccelerator(i) {
			gpuTasks = append(gpuTasks, task)
		} else {
			cpuTasks = append(cpuTasks, task)
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- s.CPU.Run(ctx, cpuTasks)
	}()
	go func() {
		defer wg.Done()
		errs <- s.Accelerator.Run(ctx, gpuTasks)
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Step advances every region by one full step, in the stage order spec
// §4.5 requires: particle advance+deposit, current filter and field
// solve (independent per region), then guard exchange (depends on every
// region's field solve), then moving-window injection (must run before
// the boundary pass — a particle that drifted to the edge on a
// shift-triggering step needs the window's ix-- to pull it back into
// range before boundary handling gets a chance to invalidate it, the
// same "Post Processing" ordering kernel_particles.c's spec_move_window
// then spec_check_boundaries uses), then particle boundary (depends on
// the local field solve and the window shift, writes into neighbors'
// incoming buffers), then sort (depends on every region's boundary pass,
// since a region's incoming buffers may be filled by either neighbor).
//
// ctx is honored only between stages, per spec §5's "suspension points:
// only at task boundaries" — a cancelled context stops the next stage
// from launching and Step returns ctx.Err().
func (s *Scheduler) Step(ctx context.Context) error {
	stages := []func(*region.Region) error{
		func(r *region.Region) error {
			r.Current.Reset()
			if err := r.AdvanceParticles(); err != nil {
				return err
			}
			r.FilterCurrent()
			return nil
		},
		func(r *region.Region) error { r.AdvanceFields(); return nil },
		func(r *region.Region) error { r.ExchangeGuards(); return nil },
		func(r *region.Region) error {
			if !r.MovingWindow {
				return nil
			}
			return r.ShiftWindowIfDue()
		},
		func(r *region.Region) error { return r.ApplyBoundary() },
		func(r *region.Region) error { return r.Sort() },
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.runStage(ctx, stage); err != nil {
			return err
		}
	}
	return nil
}
