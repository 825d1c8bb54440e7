// Package particle implements the tiled, structure-of-arrays particle
// storage described in spec §3-§4: per-species SoA arrays partitioned into
// fixed-size square tiles, plus the incoming/outgoing transfer buffers and
// the periodic/moving-window boundary handling that feeds the sorter.
//
// The scatter-by-index-pair pattern used throughout (the scatter inside
// sort2d.Sorter.Sort, Buffer.Append) is grounded on guppy's lib/particles.Field.Transfer(dest,
// from, to) and lib/particles/split.go's SplitScheme.Indices, generalized
// from guppy's generic named-field map to this package's fixed seven-array
// layout because spec §3 names the arrays concretely (ix,iy,x,y,ux,uy,uz).
package particle

// TileGeometry describes how one region's cells are partitioned into tiles
// of edge T, per spec §3.
type TileGeometry struct {
	Edge     int
	NX, NY   int // region interior extent
	YLo      int // region's global row offset
	NTX, NTY int
}

// NewTileGeometry builds a TileGeometry for an nx-by-ny region slab
// starting at global row yLo, using tiles of the given edge length. Edge
// must evenly divide both nx and ny.
func NewTileGeometry(edge, nx, ny, yLo int) TileGeometry {
	return TileGeometry{
		Edge: edge,
		NX:   nx, NY: ny,
		YLo: yLo,
		NTX: nx / edge, NTY: ny / edge,
	}
}

// NTiles is the total number of tiles in the region.
func (g TileGeometry) NTiles() int { return g.NTX * g.NTY }

// TileCoord returns the tile grid coordinates (tx,ty) that contain the cell
// (ix, iy), where iy is a global row index (spec's tile at (tx,ty) covers
// [tx*T,(tx+1)*T) x [ty*T+y_lo,(ty+1)*T+y_lo)).
func (g TileGeometry) TileCoord(ix, iy int) (tx, ty int) {
	return ix / g.Edge, (iy - g.YLo) / g.Edge
}

// TileIndex returns the row-major tile index for the cell (ix, iy).
func (g TileGeometry) TileIndex(ix, iy int) int {
	tx, ty := g.TileCoord(ix, iy)
	return ty*g.NTX + tx
}

// TileIndexFromCoord returns the row-major tile index for tile coordinate
// (tx,ty).
func (g TileGeometry) TileIndexFromCoord(tx, ty int) int {
	return ty*g.NTX + tx
}

// InBounds reports whether (ix,iy) lies within this region's tiled area
// (used by tile-invariant assertions, spec §8 property 4).
func (g TileGeometry) InBounds(ix, iy int) bool {
	return ix >= 0 && ix < g.NX && iy >= g.YLo && iy < g.YLo+g.NY
}
