// Package sort2d re-buckets a region's tiled particle storage after each
// step: a histogram of each tile's post-move population, an exclusive
// prefix sum turning that into new tile offsets, and a scatter that moves
// every valid particle (survivors plus newly-arrived transfers) into its
// new contiguous range.
//
// Named "sort2d" rather than "sort" so it never shadows the standard
// library package of the same name in an importing file.
package sort2d

// blockSize is the width of one Blelloch scan block: 256 int32s (1 KiB)
// per block on the CPU rather than a GPU warp — the two-level scan
// (per-block scan, scan of block totals, block-offset broadcast) is the
// same algorithm either way.
const blockSize = 256

// ExclusivePrefixSum computes the exclusive prefix sum of a in place and
// returns the total (the sum of every element), i.e. what would become
// a[len(a)] in a tile-offset table. It implements the two-level scan
// spec.md §4.4 describes: a Blelloch up-sweep/down-sweep within each block,
// then a second pass over the block totals whose result is folded back in
// as a per-block offset.
func ExclusivePrefixSum(a []int32) int32 {
	n := len(a)
	if n == 0 {
		return 0
	}
	if n <= blockSize {
		return blellochScan(a)
	}

	nBlocks := (n + blockSize - 1) / blockSize
	blockTotals := make([]int32, nBlocks)
	for b := 0; b < nBlocks; b++ {
		start, end := blockRange(b, n)
		blockTotals[b] = blellochScan(a[start:end])
	}

	total := ExclusivePrefixSum(blockTotals)

	for b := 1; b < nBlocks; b++ {
		start, end := blockRange(b, n)
		offset := blockTotals[b]
		for i := start; i < end; i++ {
			a[i] += offset
		}
	}

	return total
}

func blockRange(b, n int) (start, end int) {
	start = b * blockSize
	end = start + blockSize
	if end > n {
		end = n
	}
	return start, end
}

// blellochScan performs an in-place exclusive scan of a single block
// (length <= blockSize) using the classic power-of-two-padded up-sweep and
// down-sweep, returning the block's total.
func blellochScan(a []int32) int32 {
	n := len(a)
	if n == 0 {
		return 0
	}
	size := nextPow2(n)
	buf := make([]int32, size)
	copy(buf, a)

	for d := 1; d < size; d *= 2 {
		for i := 0; i < size; i += 2 * d {
			buf[i+2*d-1] += buf[i+d-1]
		}
	}

	total := buf[size-1]
	buf[size-1] = 0

	for d := size / 2; d >= 1; d /= 2 {
		for i := 0; i < size; i += 2 * d {
			t := buf[i+d-1]
			buf[i+d-1] = buf[i+2*d-1]
			buf[i+2*d-1] += t
		}
	}

	copy(a, buf[:n])
	return total
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
