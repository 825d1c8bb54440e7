package emf

import (
	"math"

	"github.com/lattice-plasma/pic2d/picerr"
)

// LaserType selects the transverse profile of a laser pulse added to the
// field state at t=0.
type LaserType int

const (
	Plane LaserType = iota
	Gaussian
)

// Pulse describes a laser source term, grounded on emf_add_laser /
// gauss_phase / lon_env in the original ompss2_openacc/emf.c. Laser physics
// itself is out of scope (spec §1); what's in scope is the field
// modification contract this type implements: given laser parameters, add a
// source term to E and B once.
type Pulse struct {
	Type        LaserType
	Start       float64 // z where the front of the pulse begins
	FWHM        float64 // if nonzero, overrides Rise/Fall and sets Flat to 0
	Rise, Flat, Fall float64
	Omega0      float64
	A0          float64
	Polarization float64 // radians
	Axis        float64 // transverse center, for Gaussian pulses
	W0          float64 // beam waist, for Gaussian pulses
}

// Validate checks the laser parameters the way emf_add_laser does before
// launching the pulse, returning a ConfigError instead of exiting.
func (p *Pulse) Validate() error {
	rise, flat, fall := p.Rise, p.Flat, p.Fall
	if p.FWHM != 0 {
		if p.FWHM <= 0 {
			return &picerr.ConfigError{Field: "Laser.FWHM", Reason: "must be > 0 when nonzero"}
		}
		rise, fall, flat = p.FWHM, p.FWHM, 0
	}
	if rise <= 0 {
		return &picerr.ConfigError{Field: "Laser.Rise", Reason: "must be > 0"}
	}
	if flat < 0 {
		return &picerr.ConfigError{Field: "Laser.Flat", Reason: "must be >= 0"}
	}
	if fall <= 0 {
		return &picerr.ConfigError{Field: "Laser.Fall", Reason: "must be > 0"}
	}
	return nil
}

func (p *Pulse) effectiveRiseFlatFall() (rise, flat, fall float64) {
	if p.FWHM != 0 {
		return p.FWHM, 0, p.FWHM
	}
	return p.Rise, p.Flat, p.Fall
}

// lonEnv is the longitudinal envelope: zero ahead of the pulse, a raised
// sine-squared rise, a flat top, a raised sine-squared fall, zero behind.
func (p *Pulse) lonEnv(z float64) float64 {
	rise, flat, fall := p.effectiveRiseFlatFall()
	switch {
	case z > p.Start:
		return 0
	case z > p.Start-rise:
		csi := z - p.Start
		e := math.Sin(math.Pi / 2 * csi / rise)
		return e * e
	case z > p.Start-(rise+flat):
		return 1
	case z > p.Start-(rise+flat+fall):
		csi := z - (p.Start - rise - flat - fall)
		e := math.Sin(math.Pi / 2 * csi / fall)
		return e * e
	default:
		return 0
	}
}

// gaussPhase is the transverse Gaussian-beam phase/amplitude factor at
// longitudinal position z and transverse offset r from the beam axis.
func (p *Pulse) gaussPhase(z, r float64) float64 {
	z0 := p.Omega0 * (p.W0 * p.W0) / 2
	rho2 := r * r
	curv := rho2 * z / (z0*z0 + z*z)
	rWl2 := (z0 * z0) / (z0*z0 + z*z)
	gouy := math.Atan2(z, z0)
	return math.Sqrt(math.Sqrt(rWl2)) * math.Exp(-rho2*rWl2/(p.W0*p.W0)) *
		math.Cos(p.Omega0*(z+curv)-gouy)
}

// Apply adds the pulse's source term to f's E and B fields once, iterating
// the interior cells the way emf_add_laser does over emf->nx[0] x
// emf->nx[1], with offsetY translating this region's local row index into
// the global transverse coordinate used by the Gaussian profile.
func (p *Pulse) Apply(f *EMF, offsetY int) error {
	if err := p.Validate(); err != nil {
		return err
	}
	dx, dy := f.Geo.DX[0], f.Geo.DX[1]
	amp := p.Omega0 * p.A0
	cosPol, sinPol := math.Cos(p.Polarization), math.Sin(p.Polarization)

	switch p.Type {
	case Plane:
		k := p.Omega0
		for ix := 0; ix < f.Geo.NX; ix++ {
			z := float64(ix) * dx
			z2 := z + dx/2
			lenv := amp * p.lonEnv(z)
			lenv2 := amp * p.lonEnv(z2)
			for iy := 0; iy < f.Geo.NY; iy++ {
				e := f.E.At(ix, iy)
				e.Y += lenv * math.Cos(k*z) * cosPol
				e.Z += lenv * math.Cos(k*z) * sinPol

				b := f.B.At(ix, iy)
				b.Y += -lenv2 * math.Cos(k*z2) * sinPol
				b.Z += lenv2 * math.Cos(k*z2) * cosPol
			}
		}
	case Gaussian:
		for ix := 0; ix < f.Geo.NX; ix++ {
			z := float64(ix) * dx
			z2 := z + dx/2
			lenv := amp * p.lonEnv(z)
			lenv2 := amp * p.lonEnv(z2)
			for iy := 0; iy < f.Geo.NY; iy++ {
				r := float64(iy+offsetY)*dy - p.Axis
				r2 := r + dy/2

				// Each field component samples the transverse phase at its
				// own half-cell-staggered (z,r) pair, matching emf_add_laser's
				// per-component gauss_phase calls: E.y/B.z share the r2 offset,
				// E.z/B.y share r.
				phaseZR := p.gaussPhase(z, r)
				phaseZR2 := p.gaussPhase(z, r2)
				phaseZ2R := p.gaussPhase(z2, r)
				phaseZ2R2 := p.gaussPhase(z2, r2)

				e := f.E.At(ix, iy)
				e.Y += lenv * phaseZR2 * cosPol
				e.Z += lenv * phaseZR * sinPol

				b := f.B.At(ix, iy)
				b.Y += -lenv2 * phaseZ2R * sinPol
				b.Z += lenv2 * phaseZ2R2 * cosPol
			}
		}
	}
	return nil
}
