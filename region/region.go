// Package region wires one horizontal domain-decomposition slab's field
// solver, per-species particle storage, transfer buffers and sorter
// together into the per-step pipeline of spec.md §4.5:
//
//	current.reset -> (pusher+deposit) -> current.filter -> emf.advance ->
//	  emf.gc_x -> emf.gc_y_up -> particle.boundary -> particle.sort
//
// Cross-region edges (guard exchange, transfer-buffer handoff) are
// expressed as borrowed pointers to neighbor Regions rather than
// back-referencing owned state, per the design notes' "no back-pointers
// with refcounting" rule; sched is what actually orders the calls across
// regions so those edges are honored.
package region

import (
	"github.com/lattice-plasma/pic2d/config"
	"github.com/lattice-plasma/pic2d/emf"
	"github.com/lattice-plasma/pic2d/grid"
	"github.com/lattice-plasma/pic2d/particle"
	"github.com/lattice-plasma/pic2d/push"
	"github.com/lattice-plasma/pic2d/sort2d"
)

// SpeciesState is one species' storage, transfer buffers and per-step
// working state within a single region.
type SpeciesState struct {
	Config config.Species

	Storage  *particle.Storage
	Boundary particle.Boundary
	Params   push.Params
	Sorter   *sort2d.Sorter

	// IncomingDown/Up/Window are this region's own inbound transfer
	// buffers: neighbors append into them directly (spec §3's incoming[3]
	// vectors), so they are owned here, not borrowed.
	IncomingDown, IncomingUp, IncomingWindow *particle.Buffer

	Injector particle.Injector
}

// Region owns one contiguous slab of global rows [YLo, YHi) — its field
// state, current grid and every species' particle storage for that slab.
type Region struct {
	YLo, YHi int
	Geo      grid.Geometry

	EMF     *emf.EMF
	Current *grid.Current
	scratch *grid.VField

	Species []*SpeciesState

	// Below/Above are borrowed pointers into the neighboring regions'
	// state, set by SetNeighbors once the full region stack exists.
	Below, Above *Region

	MovingWindow bool
}

// New allocates a Region covering global rows [yLo, yHi) with the given
// interior geometry, dt and species configuration.
func New(geo grid.Geometry, dt float64, yLo int, species []config.Species, tileEdge int, movingWindow bool) *Region {
	r := &Region{
		YLo: yLo, YHi: yLo + geo.NY,
		Geo:          geo,
		EMF:          emf.New(geo, dt),
		Current:      grid.NewCurrent(geo),
		scratch:      grid.NewVField(geo),
		MovingWindow: movingWindow,
	}
	r.EMF.MovingWindow = movingWindow

	for _, sp := range species {
		tile := particle.NewTileGeometry(tileEdge, geo.NX, geo.NY, yLo)
		ppcTotal := sp.PPC[0] * sp.PPC[1]
		capacity := tile.NTiles() * tileEdge * tileEdge * ppcTotal
		if capacity < 64 {
			capacity = 64
		}
		st := particle.NewStorage(tile, capacity)

		bufCap := tile.NTX*ppcTotal*tileEdge*4 + 64
		ss := &SpeciesState{
			Config:  sp,
			Storage: st,
			Boundary: particle.Boundary{
				NX: geo.NX, NYTotal: 0, YLo: yLo, YHi: yLo + geo.NY,
				MovingWindow: movingWindow,
			},
			Params: push.NewParams(sp.Name, sp.QOverM, sp.Q, geo.DX, sp.Dt, yLo),
			Sorter: sort2d.NewSorter(tile),

			IncomingDown:   particle.NewBuffer(sp.Name+".in.down", bufCap),
			IncomingUp:     particle.NewBuffer(sp.Name+".in.up", bufCap),
			IncomingWindow: particle.NewBuffer(sp.Name+".in.window", bufCap),
		}
		r.Species = append(r.Species, ss)
	}

	return r
}

// SetNeighbors records the regions immediately below and above this one
// (nil at the top/bottom of a non-periodic stack) and wires the EMF guard
// exchange's borrowed E/B view accordingly.
func (r *Region) SetNeighbors(below, above *Region) {
	r.Below, r.Above = below, above
	if below != nil {
		r.EMF.SetBelow(below.EMF)
	}
}

// SetGlobalRows fills in NYTotal on every species' boundary now that the
// full region stack's total row count is known, so y-wrap arithmetic in
// particle.Boundary.Apply is correct.
func (r *Region) SetGlobalRows(nyTotal int) {
	for _, sp := range r.Species {
		sp.Boundary.NYTotal = nyTotal
	}
}

// ApplyLaser adds a laser pulse's source term to this region's field state
// once, translating the region's local row index into the pulse's global
// transverse coordinate via YLo.
func (r *Region) ApplyLaser(p *emf.Pulse) error {
	if p == nil {
		return nil
	}
	return p.Apply(r.EMF, r.YLo)
}

// AdvanceParticles runs the pusher+deposit stage for every species: field
// interpolation, the Boris rotation, the relativistic position push and
// Villasenor-Buneman current deposition into r.Current.
func (r *Region) AdvanceParticles() error {
	for _, sp := range r.Species {
		if err := push.AdvanceAll(sp.Storage, r.EMF, r.Current, sp.Params); err != nil {
			return err
		}
	}
	return nil
}

// FilterCurrent applies the binomial current smoothing pass.
func (r *Region) FilterCurrent() {
	r.Current.Filter(r.scratch)
}

// AdvanceFields runs the field-solve step (B-half, E, B-half) using the
// just-filtered current.
func (r *Region) AdvanceFields() {
	r.EMF.Advance(r.Current)
}

// ExchangeGuards applies the periodic x-guard wrap and, if this region has
// a neighbor above, the half-duplex y-guard exchange with it. It must run
// after r.Above.AdvanceFields has completed for this step (spec §4.5's
// inter-region edge).
func (r *Region) ExchangeGuards() {
	r.EMF.GuardX()
	if r.Above != nil {
		r.EMF.GuardYUp(r.Above.EMF)
	}
}

// ApplyBoundary runs the per-species x/y particle boundary handling,
// appending particles that left this region's row slab into the
// appropriate neighbor's incoming buffer. It must run after this region's
// own AdvanceFields (which does not depend on it) but writes into
// neighbor state, so predecessor/successor sort stages must wait on it
// (spec §4.5's second and third inter-region edges).
func (r *Region) ApplyBoundary() error {
	for _, sp := range r.Species {
		var outgoingDown, outgoingUp *particle.Buffer
		if r.Below != nil {
			outgoingDown = neighborIncoming(r.Below, sp.Config.Name, true)
		} else {
			outgoingDown = sp.IncomingDown // periodic self-wrap when there is no explicit neighbor
		}
		if r.Above != nil {
			outgoingUp = neighborIncoming(r.Above, sp.Config.Name, false)
		} else {
			outgoingUp = sp.IncomingUp
		}
		if err := sp.Boundary.Apply(sp.Storage, outgoingDown, outgoingUp); err != nil {
			return err
		}
	}
	return nil
}

// neighborIncoming finds the named species' incoming-up (up=true) or
// incoming-down (up=false) buffer on a neighboring region.
func neighborIncoming(neighbor *Region, species string, up bool) *particle.Buffer {
	for _, sp := range neighbor.Species {
		if sp.Config.Name != species {
			continue
		}
		if up {
			return sp.IncomingUp
		}
		return sp.IncomingDown
	}
	return nil
}

// ShiftWindowIfDue shifts the field state and every species' particle
// index left by one cell once enough simulated time has passed, then
// injects fresh particles into the newly exposed rightmost column.
func (r *Region) ShiftWindowIfDue() error {
	if !r.EMF.ShouldShiftWindow() {
		return nil
	}
	r.EMF.ShiftWindow()
	for _, sp := range r.Species {
		sp.Boundary.ShiftWindow(sp.Storage)
		if sp.Injector != nil {
			if err := sp.Boundary.InjectWindowColumn(sp.Config.PPC, sp.Injector, sp.IncomingWindow); err != nil {
				return err
			}
		}
	}
	return nil
}

// Sort re-buckets every species' particle storage, merging in whatever
// arrived this step from neighbors and the moving-window injector.
func (r *Region) Sort() error {
	for _, sp := range r.Species {
		if err := sp.Sorter.Sort(sp.Storage, sp.IncomingDown, sp.IncomingUp, sp.IncomingWindow); err != nil {
			return err
		}
	}
	return nil
}

// Step runs this region's full per-step pipeline in the order spec §4.5
// requires, for the single-region (or already-synchronized-by-caller)
// case; sched.Scheduler is what interleaves this across many regions
// under the inter-region edges instead of calling Step directly.
func (r *Region) Step() error {
	r.Current.Reset()
	if err := r.AdvanceParticles(); err != nil {
		return err
	}
	r.FilterCurrent()
	r.AdvanceFields()
	r.ExchangeGuards()
	if r.MovingWindow {
		if err := r.ShiftWindowIfDue(); err != nil {
			return err
		}
	}
	if err := r.ApplyBoundary(); err != nil {
		return err
	}
	return r.Sort()
}
