package particle

// Boundary applies the periodic/moving-window x-boundary and the
// inter-region y-boundary handoff described in spec §4.3. It never mutates
// TileOffset; the sorter reclaims invalidated slots and re-buckets survivors
// on the following pass.
type Boundary struct {
	NX      int // global column count, shared by every region
	NYTotal int // global row count across all regions stacked
	YLo, YHi int // this region's row slab

	MovingWindow bool
}

// Apply walks every valid particle in s and:
//   - wraps or invalidates it in x, depending on MovingWindow;
//   - appends it to outgoingDown/outgoingUp and marks the source slot
//     invalid if it has left [YLo, YHi) in y, wrapping the destination row
//     by ±NYTotal if the vertical stack itself wrapped around.
//
// outgoingDown and outgoingUp are the destination region's incoming
// buffers, borrowed (not owned) by this region for the duration of the
// call, per spec §3's ownership note.
func (b *Boundary) Apply(s *Storage, outgoingDown, outgoingUp *Buffer) error {
	for k := 0; k < s.N; k++ {
		if s.Invalid[k] {
			continue
		}
		ix := s.Ix[k]

		if !b.MovingWindow {
			if ix < 0 {
				ix += int32(b.NX)
			} else if ix >= int32(b.NX) {
				ix -= int32(b.NX)
			}
			s.Ix[k] = ix
		} else if ix < 0 || ix >= int32(b.NX) {
			s.Invalid[k] = true
			continue
		}

		iy := s.Iy[k]
		switch {
		case iy < int32(b.YLo):
			if iy < 0 {
				iy += int32(b.NYTotal)
			}
			rec := s.At(k)
			rec.Iy = iy
			if _, err := outgoingDown.Append(rec); err != nil {
				return err
			}
			s.Invalid[k] = true
		case iy >= int32(b.YHi):
			if iy >= int32(b.NYTotal) {
				iy -= int32(b.NYTotal)
			}
			rec := s.At(k)
			rec.Iy = iy
			if _, err := outgoingUp.Append(rec); err != nil {
				return err
			}
			s.Invalid[k] = true
		}
	}
	return nil
}

// ShiftWindow decrements every valid particle's ix by one (the window has
// moved one cell to the right relative to the particles) and invalidates
// any particle that fell off the left edge, per spec §4.3's moving-window
// right-edge injection sequence. It does not perform the injection itself:
// that is delegated to Injector, since density-profile sampling is out of
// scope (spec §1).
func (b *Boundary) ShiftWindow(s *Storage) {
	for k := 0; k < s.N; k++ {
		if s.Invalid[k] {
			continue
		}
		s.Ix[k]--
		if s.Ix[k] < 0 {
			s.Invalid[k] = true
		}
	}
}

// Injector produces the records to inject into the rightmost column after a
// moving-window shift. Sampling from a density profile / thermal RNG is an
// external collaborator's job; this signature is the contract pic2d calls
// through.
type Injector func(column int, ppc [2]int) []Record

// InjectWindowColumn asks inject for the new particles appearing at the
// rightmost column (global x index nx-1) and appends them to incoming,
// the moving-window injection buffer (spec §3's incoming[2]).
func (b *Boundary) InjectWindowColumn(ppc [2]int, inject Injector, incoming *Buffer) error {
	recs := inject(b.NX-1, ppc)
	for _, rec := range recs {
		if _, err := incoming.Append(rec); err != nil {
			return err
		}
	}
	return nil
}
