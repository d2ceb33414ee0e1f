package mapping

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrIndexOutOfRange is returned when a bin index falls outside its grid.
var ErrIndexOutOfRange = errors.New("grid index out of range")

// FindNearest returns the index and value of the grid entry closest to v.
// Ties resolve to the lowest index. It returns -1 for an empty grid.
func FindNearest(grid []float64, v float64) (int, float64) {
	best := -1
	bestDiff := math.Inf(1)
	for i, g := range grid {
		if d := math.Abs(g - v); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	if best < 0 {
		return -1, math.NaN()
	}
	return best, grid[best]
}

// RA2Idx maps a range (m) and angle (rad) to the nearest grid bins.
func RA2Idx(rng, agl float64, rangeGrid, angleGrid []float64) (rid, aid int) {
	rid, _ = FindNearest(rangeGrid, rng)
	aid, _ = FindNearest(angleGrid, agl)
	return rid, aid
}

// Idx2RA maps grid bins back to range (m) and angle (rad).
func Idx2RA(rid, aid int, rangeGrid, angleGrid []float64) (rng, agl float64, err error) {
	if rid < 0 || rid >= len(rangeGrid) {
		return 0, 0, fmt.Errorf("range bin %d not in [0, %d): %w", rid, len(rangeGrid), ErrIndexOutOfRange)
	}
	if aid < 0 || aid >= len(angleGrid) {
		return 0, 0, fmt.Errorf("angle bin %d not in [0, %d): %w", aid, len(angleGrid), ErrIndexOutOfRange)
	}
	return rangeGrid[rid], angleGrid[aid], nil
}

// RA2IdxInterpolate maps a range and angle to fractional bin indices.
// Range is interpolated linearly against the range grid. Angle is
// interpolated in sine space to follow the arcsine-warped confidence-map
// spacing. Values beyond either end clamp to the first or last bin.
func RA2IdxInterpolate(rng, agl float64, rangeGrid, angleGrid []float64) (rid, aid float64) {
	rid = indexOf(rangeGrid, rng, identity)
	aid = indexOf(angleGrid, math.Sin(agl), math.Sin)
	return rid, aid
}

// Idx2RAInterpolate is the inverse of RA2IdxInterpolate for fractional bins.
func Idx2RAInterpolate(rid, aid float64, rangeGrid, angleGrid []float64) (rng, agl float64) {
	rng = valueAt(rangeGrid, rid, identity)
	agl = math.Asin(clampUnit(valueAt(angleGrid, aid, math.Sin)))
	return rng, agl
}

// XZ2IdxInterpolate maps a BEV point to fractional (x, z) indices on the
// BEV grid lines.
func XZ2IdxInterpolate(x, z float64, xline, zline []float64) (xid, zid float64) {
	return indexOf(xline, x, identity), indexOf(zline, z, identity)
}

// BilinearInterpolate samples field at fractional column x and row y using
// the four surrounding cells. Coordinates outside the field clamp to its
// border.
func BilinearInterpolate(field mat.Matrix, x, y float64) float64 {
	rows, cols := field.Dims()
	if rows == 0 || cols == 0 {
		return 0
	}
	x = clamp(x, 0, float64(cols-1))
	y = clamp(y, 0, float64(rows-1))

	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := min(x0+1, cols-1), min(y0+1, rows-1)
	dx, dy := x-float64(x0), y-float64(y0)

	return field.At(y0, x0)*(1-dx)*(1-dy) +
		field.At(y1, x0)*(1-dx)*dy +
		field.At(y0, x1)*dx*(1-dy) +
		field.At(y1, x1)*dx*dy
}

func identity(v float64) float64 { return v }

// indexOf returns the fractional position of v along f(grid), treating the
// grid as monotonic in either direction.
func indexOf(grid []float64, v float64, f func(float64) float64) float64 {
	n := len(grid)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return 0
	}
	desc := f(grid[n-1]) < f(grid[0])
	at := func(i int) float64 {
		if desc {
			return f(grid[n-1-i])
		}
		return f(grid[i])
	}

	var pos float64
	switch {
	case v <= at(0):
		pos = 0
	case v >= at(n-1):
		pos = float64(n - 1)
	default:
		i := 0
		for i < n-2 && at(i+1) < v {
			i++
		}
		lo, hi := at(i), at(i+1)
		pos = float64(i)
		if hi > lo {
			pos += (v - lo) / (hi - lo)
		}
	}
	if desc {
		return float64(n-1) - pos
	}
	return pos
}

// valueAt linearly interpolates f(grid) at fractional index idx, clamped to
// the grid ends.
func valueAt(grid []float64, idx float64, f func(float64) float64) float64 {
	n := len(grid)
	if n == 0 {
		return math.NaN()
	}
	idx = clamp(idx, 0, float64(n-1))
	i := int(math.Floor(idx))
	if i >= n-1 {
		return f(grid[n-1])
	}
	frac := idx - float64(i)
	return f(grid[i])*(1-frac) + f(grid[i+1])*frac
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampUnit(v float64) float64 {
	return clamp(v, -1, 1)
}
