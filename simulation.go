// Package pic2d assembles the region stack, scheduler and diagnostic sink
// described across grid, emf, particle, push, sort2d, region, sched and
// diag into the single external entry point spec.md §6 names: a
// Simulation a driver constructs once from a config.Config and then
// steps until iter*dt >= tmax.
package pic2d

import (
	"context"
	"fmt"

	"github.com/lattice-plasma/pic2d/config"
	"github.com/lattice-plasma/pic2d/diag"
	"github.com/lattice-plasma/pic2d/grid"
	"github.com/lattice-plasma/pic2d/region"
	"github.com/lattice-plasma/pic2d/sched"
)

// Simulation owns the region stack, scheduler and diagnostic sink for one
// run.
type Simulation struct {
	Config config.Config

	Regions   []*region.Region
	Scheduler *sched.Scheduler
	Sink      diag.Sink

	Iter int
}

// New validates cfg, builds one Region per row slab, wires each region's
// neighbors (periodic in y, matching spec §4.3's wrap-by-ny_total
// convention), applies the laser pulse if configured, and constructs the
// scheduler that will drive every subsequent Step.
func New(cfg config.Config, sink diag.Sink, cpuWorkers, gpuQueues int) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rowsPerRegion := cfg.NY / cfg.NRegions
	box := cfg.Box
	dx := [2]float64{box[0] / float64(cfg.NX), box[1] / float64(cfg.NY)}

	regions := make([]*region.Region, cfg.NRegions)
	for i := 0; i < cfg.NRegions; i++ {
		yLo := i * rowsPerRegion
		geo := grid.NewGeometry(cfg.NX, rowsPerRegion, [2]float64{box[0], float64(rowsPerRegion) * dx[1]})
		if err := geo.Validate(); err != nil {
			return nil, fmt.Errorf("pic2d: region %d geometry: %w", i, err)
		}
		regions[i] = region.New(geo, cfg.Dt, yLo, cfg.Species, cfg.TileEdge, cfg.MovingWindow)
		regions[i].SetGlobalRows(cfg.NY)
	}

	for i, r := range regions {
		below := regions[(i-1+len(regions))%len(regions)]
		above := regions[(i+1)%len(regions)]
		if len(regions) == 1 {
			below, above = nil, nil
		}
		r.SetNeighbors(below, above)
	}

	if cfg.Laser != nil {
		for _, r := range regions {
			if err := r.ApplyLaser(cfg.Laser); err != nil {
				return nil, err
			}
		}
	}

	s := sched.New(regions, cfg.GPURegionCount(), cpuWorkers, gpuQueues)

	return &Simulation{
		Config:    cfg,
		Regions:   regions,
		Scheduler: s,
		Sink:      sink,
	}, nil
}

// Step advances every region by one full step and, if iter%ndump==0,
// emits every region's field and particle state through the diagnostic
// sink before returning. ctx is honored between pipeline stages, per
// spec §5.
func (s *Simulation) Step(ctx context.Context) error {
	if err := s.Scheduler.Step(ctx); err != nil {
		return err
	}
	s.Iter++

	if s.Sink != nil && s.Config.NDump > 0 && s.Iter%s.Config.NDump == 0 {
		if err := s.emit(); err != nil {
			return err
		}
	}
	return nil
}

// Run steps the simulation until iter*dt >= tmax, per spec §6's run loop
// contract, or until ctx is cancelled or a fatal error occurs.
func (s *Simulation) Run(ctx context.Context) error {
	for float64(s.Iter)*s.Config.Dt < s.Config.TMax {
		if err := s.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulation) emit() error {
	for i, r := range s.Regions {
		axes := []diag.Axis{
			{Name: "x_1", Unit: "c/wp", Min: 0, Max: r.Geo.Box[0], NCell: r.Geo.NX},
			{Name: "x_2", Unit: "c/wp", Min: float64(r.YLo) * r.Geo.DX[1], Max: float64(r.YHi) * r.Geo.DX[1], NCell: r.Geo.NY},
		}
		ezData := extractComponent(r.EMF.E, r.Geo, 'z')
		if err := s.Sink.EmitGrid(fmt.Sprintf("region%d.ez", i), axes, s.Iter, ezData); err != nil {
			return err
		}
		jzData := extractComponent(r.Current.VField, r.Geo, 'z')
		if err := s.Sink.EmitGrid(fmt.Sprintf("region%d.jz", i), axes, s.Iter, jzData); err != nil {
			return err
		}
		for _, sp := range r.Species {
			st := sp.Storage
			x := make([]float32, 0, st.N)
			y := make([]float32, 0, st.N)
			ux := make([]float32, 0, st.N)
			uy := make([]float32, 0, st.N)
			uz := make([]float32, 0, st.N)
			for k := 0; k < st.N; k++ {
				if st.Invalid[k] {
					continue
				}
				x = append(x, float32(st.Ix[k])+st.X[k])
				y = append(y, float32(st.Iy[k])+st.Y[k])
				ux = append(ux, st.Ux[k])
				uy = append(uy, st.Uy[k])
				uz = append(uz, st.Uz[k])
			}
			if err := s.Sink.EmitParticles(fmt.Sprintf("region%d.%s", i, sp.Config.Name), s.Iter, x, y, ux, uy, uz); err != nil {
				return err
			}
		}
	}
	return nil
}

func extractComponent(f *grid.VField, geo grid.Geometry, c byte) []float64 {
	out := make([]float64, 0, geo.NX*geo.NY)
	for iy := 0; iy < geo.NY; iy++ {
		for ix := 0; ix < geo.NX; ix++ {
			v := f.Get(ix, iy)
			switch c {
			case 'x':
				out = append(out, v.X)
			case 'y':
				out = append(out, v.Y)
			default:
				out = append(out, v.Z)
			}
		}
	}
	return out
}
