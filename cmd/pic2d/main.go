// Command pic2d runs a 2D relativistic electromagnetic particle-in-cell
// simulation and dumps field/particle diagnostics to an output directory.
//
// Command-line parsing here only covers run mechanics (output directory,
// worker counts, step limits); the physical configuration itself is a
// config.Config literal, since parsing a physics config file is explicitly
// out of scope (spec §1). The mode-dispatch shape (parse flags, build a
// config, run) follows guppy.go's parse-then-run structure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"

	pic2d "github.com/lattice-plasma/pic2d"
	"github.com/lattice-plasma/pic2d/config"
	"github.com/lattice-plasma/pic2d/diag"
	"github.com/lattice-plasma/pic2d/particle"
	"github.com/lattice-plasma/pic2d/sort2d"
)

func main() {
	outDir := flag.String("out", "pic2d-output", "diagnostic output directory")
	cpuWorkers := flag.Int("cpu-workers", 0, "CPU executor worker count (0 = runtime.NumCPU())")
	gpuQueues := flag.Int("gpu-queues", 1, "simulated accelerator queue count")
	ndump := flag.Int("ndump", 20, "steps between diagnostic dumps")
	tmax := flag.Float64("tmax", 40, "simulated time to run to, in 1/omega_p")
	zstdLevel := flag.Int("zstd-level", 3, "zstd compression level for dumps")
	seed := flag.Int64("seed", 1, "RNG seed for the built-in two-stream config's initial loading")
	flag.Parse()

	cfg := twoStreamConfig(*ndump, *tmax)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("pic2d: invalid configuration: %v", err)
	}

	sink, err := diag.NewWriter(*outDir, *zstdLevel)
	if err != nil {
		log.Fatalf("pic2d: %v", err)
	}

	sim, err := pic2d.New(cfg, sink, *cpuWorkers, *gpuQueues)
	if err != nil {
		log.Fatalf("pic2d: %v", err)
	}
	seedParticles(sim, *seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("pic2d: running %d region(s), tmax=%.1f, dumping every %d steps to %q",
		cfg.NRegions, cfg.TMax, cfg.NDump, *outDir)

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("pic2d: run stopped: %v", err)
	}
	log.Printf("pic2d: completed %d steps", sim.Iter)
}

// twoStreamConfig builds a small two-stream instability setup: two cold
// counter-streaming electron species on a fixed proton background, the
// classic ZPIC demonstration scenario.
func twoStreamConfig(ndump int, tmax float64) config.Config {
	nx, ny := 128, 128
	box := [2]float64{25.6, 25.6}
	dt := 0.99 * 1.0 / math.Sqrt(2) * (box[0] / float64(nx))

	makeStream := func(name string, ufl float64) config.Species {
		return config.Species{
			Name:   name,
			QOverM: -1,
			Q:      -1,
			PPC:    [2]int{4, 4},
			UFl:    [3]float64{ufl, 0, 0},
			UTh:    [3]float64{0.001, 0.001, 0.001},
			Density: config.DensityProfile{
				Type: config.Uniform,
				N:    0.5,
			},
			Dt: dt,
		}
	}

	return config.Config{
		NX: nx, NY: ny,
		Box:  box,
		Dt:   dt,
		TMax: tmax,
		NDump: ndump,

		NRegions:    4,
		GPUFraction: 0.5,

		TileEdge: 32,

		Species: []config.Species{
			makeStream("electron+", 0.2),
			makeStream("electron-", -0.2),
		},
	}
}

// seedParticles fills every region's species storage with a thermal load
// of PPC particles in every interior cell with UFl/UTh momenta; the
// species' DensityProfile is not consulted — the initial-condition
// step spec §1 leaves to an external caller rather than the simulation core.
func seedParticles(sim *pic2d.Simulation, seed int64) {
	rng := rand.New(rand.NewSource(seed))

	for _, r := range sim.Regions {
		for _, sp := range r.Species {
			ppcx, ppcy := sp.Config.PPC[0], sp.Config.PPC[1]
			slot := 0
			for iy := 0; iy < r.Geo.NY; iy++ {
				for ix := 0; ix < r.Geo.NX; ix++ {
					for py := 0; py < ppcy; py++ {
						for px := 0; px < ppcx; px++ {
							rec := particle.Record{
								Ix: int32(ix), Iy: int32(r.YLo + iy),
								X: (float32(px) + 0.5) / float32(ppcx),
								Y: (float32(py) + 0.5) / float32(ppcy),
								Ux: float32(sp.Config.UFl[0]) + float32(sp.Config.UTh[0]*rng.NormFloat64()),
								Uy: float32(sp.Config.UFl[1]) + float32(sp.Config.UTh[1]*rng.NormFloat64()),
								Uz: float32(sp.Config.UFl[2]) + float32(sp.Config.UTh[2]*rng.NormFloat64()),
							}
							if slot >= sp.Storage.Cap {
								if err := sp.Storage.Grow(slot + 1); err != nil {
									log.Fatalf("pic2d: seeding %q: %v", sp.Config.Name, err)
								}
							}
							sp.Storage.AppendAt(slot, rec)
							slot++
						}
					}
				}
			}
			sp.Storage.N = slot
			if err := sort2d.FullSort(sp.Sorter, sp.Storage); err != nil {
				log.Fatalf("pic2d: initial sort for %q: %v", sp.Config.Name, err)
			}
		}
	}
	fmt.Fprintln(os.Stderr, "pic2d: initial load complete")
}
