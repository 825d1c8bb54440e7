// Package config carries the initialization parameters a caller supplies
// when building a Simulation, and validates them the way the teacher's
// lib.Args.Process/lib.Check pair was meant to before running: producing
// descriptive ConfigErrors rather than a panic("NYI"). Command-line and
// config-file parsing themselves are explicitly out of scope (spec §1); a
// caller builds a Config struct literal directly.
package config

import (
	"fmt"

	"github.com/lattice-plasma/pic2d/emf"
	"github.com/lattice-plasma/pic2d/picerr"
)

// Species holds one species' physical and numerical parameters (spec §3/§6).
type Species struct {
	Name string

	// QOverM is the mass-to-charge ratio m_q used by the Boris pusher's
	// tem = 0.5*dt/m_q factor.
	QOverM float64
	// Q is the per-particle charge used by current deposition.
	Q float64

	PPC [2]int
	UFl [3]float64
	UTh [3]float64

	Density DensityProfile

	Dt           float64
	MovingWindow bool
}

// Config is the initialization contract of spec §6.
type Config struct {
	NX, NY int
	Box    [2]float64
	Dt     float64
	TMax   float64
	NDump  int

	NRegions    int
	GPUFraction float64
	NGPURegions *int

	TileEdge int

	MovingWindow bool
	Laser        *emf.Pulse

	Species []Species
}

// Validate checks every configuration invariant named in spec §7 and
// returns the accumulated set of violations, or nil if the config is
// simulation-ready.
func (c *Config) Validate() error {
	var errs picerr.ConfigErrors

	fail := func(field, reason string) {
		errs = append(errs, &picerr.ConfigError{Field: field, Reason: reason})
	}

	if c.NX <= 0 {
		fail("NX", "must be positive")
	}
	if c.NY <= 0 {
		fail("NY", "must be positive")
	}
	if c.Box[0] <= 0 || c.Box[1] <= 0 {
		fail("Box", "both extents must be positive")
	}
	if c.Dt <= 0 {
		fail("Dt", "must be positive")
	}
	if c.TMax <= 0 {
		fail("TMax", "must be positive")
	}
	if c.NDump <= 0 {
		fail("NDump", "must be positive")
	}
	if c.NRegions <= 0 {
		fail("NRegions", "must be positive")
	}
	if c.GPUFraction < 0 || c.GPUFraction > 1 {
		fail("GPUFraction", "must be within [0,1]")
	}
	if c.NGPURegions != nil && (*c.NGPURegions < 0 || *c.NGPURegions > c.NRegions) {
		fail("NGPURegions", "must be within [0,NRegions]")
	}
	if c.TileEdge <= 0 || c.TileEdge&(c.TileEdge-1) != 0 {
		fail("TileEdge", "must be a positive power of two")
	}

	if c.NX > 0 && c.TileEdge > 0 && c.NX%c.TileEdge != 0 {
		fail("NX", fmt.Sprintf("must be divisible by TileEdge (%d)", c.TileEdge))
	}
	if c.NY > 0 && c.NRegions > 0 {
		if c.NY%c.NRegions != 0 {
			fail("NY", fmt.Sprintf("must be divisible by NRegions (%d)", c.NRegions))
		} else if perRegion := c.NY / c.NRegions; c.TileEdge > 0 && perRegion%c.TileEdge != 0 {
			fail("NY", fmt.Sprintf("rows-per-region (%d) must be divisible by TileEdge (%d)", perRegion, c.TileEdge))
		} else if perRegion <= 0 {
			fail("NY", "rows-per-region must be positive (y_hi > y_lo)")
		}
	}

	for i := range c.Species {
		s := &c.Species[i]
		if s.QOverM == 0 {
			fail(fmt.Sprintf("Species[%d].QOverM", i), "must be nonzero")
		}
		if s.PPC[0] <= 0 || s.PPC[1] <= 0 {
			fail(fmt.Sprintf("Species[%d].PPC", i), "both components must be positive")
		}
		if s.Dt <= 0 {
			fail(fmt.Sprintf("Species[%d].Dt", i), "must be positive")
		}
	}

	if c.Laser != nil {
		if err := c.Laser.Validate(); err != nil {
			if ce, ok := err.(*picerr.ConfigError); ok {
				errs = append(errs, ce)
			}
		}
	}

	return errs.AsConfigError()
}

// GPURegionCount resolves the number of regions pinned to the accelerator
// executor: NGPURegions if explicitly set, else round(NRegions*GPUFraction).
func (c *Config) GPURegionCount() int {
	if c.NGPURegions != nil {
		return *c.NGPURegions
	}
	return int(c.GPUFraction*float64(c.NRegions) + 0.5)
}
