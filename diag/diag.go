// Package diag implements the diagnostic sink contract of spec.md §6: a
// caller-supplied output directory receives grid snapshots (E/B
// components, J.z, per-species charge density) and particle dumps every
// ndump steps. The real ZDF writer format is out of scope; Writer is a
// stand-in binary format that borrows guppy's lib/compress.Writer shape —
// a growing header buffer plus a growing data buffer, each field appended
// with AddField, flushed together — substituting a zstd-compressed block
// per field for guppy's per-field compression method dispatch.
package diag

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/DataDog/zstd"
)

// Axis names one grid dimension, matching spec §6's "x_1, x_2 in units
// c/ωp" convention.
type Axis struct {
	Name  string
	Unit  string
	Min   float64
	Max   float64
	NCell int
}

// Sink is the diagnostic contract region/sched call into every ndump
// steps; a caller substitutes any implementation without either package
// touching a file directly.
type Sink interface {
	EmitGrid(name string, axes []Axis, iteration int, data []float64) error
	EmitParticles(species string, iteration int, x, y, ux, uy, uz []float32) error
}

// magicNumber tags every file this package writes, the same
// accident-detection guppy's compress.MagicNumber provides.
const magicNumber uint32 = 0x50494332 // "PIC2"

// Writer is the one concrete Sink implementation in this module: each
// EmitGrid/EmitParticles call writes one self-contained zstd-compressed
// file into Dir, named "<name>.<iteration>.p2d".
type Writer struct {
	Dir   string
	Level int // zstd compression level; values <= 0 select level 1

	// scratch is reused across calls to avoid a fresh allocation per dump,
	// mirroring compress.Writer's reused []byte buffer parameter.
	scratch []byte
}

// NewWriter returns a Writer that dumps into dir, creating it if it does
// not already exist.
func NewWriter(dir string, level int) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("diag: creating output directory %q: %w", dir, err)
	}
	return &Writer{Dir: dir, Level: level}, nil
}

func (w *Writer) level() int {
	if w.Level <= 0 {
		return 1
	}
	return w.Level
}

// EmitGrid writes one grid snapshot: a small header (axes, iteration,
// value count) followed by a single zstd-compressed block of the raw
// float64 data, the same header-then-data-block shape as
// lib/compress.Writer.Flush without guppy's per-field method table, since
// this module always uses one compression method.
func (w *Writer) EmitGrid(name string, axes []Axis, iteration int, data []float64) error {
	var header bytes.Buffer
	if err := binary.Write(&header, binary.LittleEndian, magicNumber); err != nil {
		return err
	}
	if err := binary.Write(&header, binary.LittleEndian, int32(iteration)); err != nil {
		return err
	}
	if err := binary.Write(&header, binary.LittleEndian, int32(len(axes))); err != nil {
		return err
	}
	for _, ax := range axes {
		if err := writeAxis(&header, ax); err != nil {
			return err
		}
	}
	if err := binary.Write(&header, binary.LittleEndian, int64(len(data))); err != nil {
		return err
	}

	raw := make([]byte, len(data)*8)
	for i, v := range data {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}

	compressed, err := zstd.CompressLevel(w.scratch, raw, w.level())
	if err != nil {
		return fmt.Errorf("diag: compressing grid %q: %w", name, err)
	}
	w.scratch = compressed[:0]

	if err := binary.Write(&header, binary.LittleEndian, int64(len(compressed))); err != nil {
		return err
	}

	return w.writeFile(name, iteration, header.Bytes(), compressed)
}

func writeAxis(buf *bytes.Buffer, ax Axis) error {
	nameBytes := []byte(ax.Name)
	unitBytes := []byte(ax.Unit)
	if err := binary.Write(buf, binary.LittleEndian, int32(len(nameBytes))); err != nil {
		return err
	}
	buf.Write(nameBytes)
	if err := binary.Write(buf, binary.LittleEndian, int32(len(unitBytes))); err != nil {
		return err
	}
	buf.Write(unitBytes)
	if err := binary.Write(buf, binary.LittleEndian, ax.Min); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, ax.Max); err != nil {
		return err
	}
	return binary.Write(buf, binary.LittleEndian, int32(ax.NCell))
}

// EmitParticles writes a species' phase-space arrays for one iteration as
// a single zstd-compressed block, holding the five float32 columns one
// after another, packed after a small header.
func (w *Writer) EmitParticles(species string, iteration int, x, y, ux, uy, uz []float32) error {
	if len(x) != len(y) || len(x) != len(ux) || len(x) != len(uy) || len(x) != len(uz) {
		return fmt.Errorf("diag: mismatched array lengths for species %q", species)
	}

	var header bytes.Buffer
	if err := binary.Write(&header, binary.LittleEndian, magicNumber); err != nil {
		return err
	}
	if err := binary.Write(&header, binary.LittleEndian, int32(iteration)); err != nil {
		return err
	}
	if err := binary.Write(&header, binary.LittleEndian, int64(len(x))); err != nil {
		return err
	}

	raw := make([]byte, len(x)*4*5)
	packFloat32Column(raw[0*len(x)*4:], x)
	packFloat32Column(raw[1*len(x)*4:], y)
	packFloat32Column(raw[2*len(x)*4:], ux)
	packFloat32Column(raw[3*len(x)*4:], uy)
	packFloat32Column(raw[4*len(x)*4:], uz)

	compressed, err := zstd.CompressLevel(w.scratch, raw, w.level())
	if err != nil {
		return fmt.Errorf("diag: compressing species %q: %w", species, err)
	}
	w.scratch = compressed[:0]

	if err := binary.Write(&header, binary.LittleEndian, int64(len(compressed))); err != nil {
		return err
	}

	return w.writeFile(species, iteration, header.Bytes(), compressed)
}

func packFloat32Column(dst []byte, col []float32) {
	for i, v := range col {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

func (w *Writer) writeFile(name string, iteration int, header, data []byte) error {
	path := filepath.Join(w.Dir, fmt.Sprintf("%s.%08d.p2d", name, iteration))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("diag: opening %q: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("diag: writing header for %q: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("diag: writing data for %q: %w", path, err)
	}
	return nil
}
