package mapping

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/rodeval/internal/config"
)

// SpeedOfLight in m/s.
const SpeedOfLight = 299792458.0

// rangeGrid converts FFT bins to distance and drops crop bins from each end.
func rangeGrid(r *config.RadarConfig, rsize int) []float64 {
	crop := r.GetCropNum()
	fft := rsize + 2*crop
	freqRes := r.GetSampleFreq() / float64(fft)

	grid := make([]float64, 0, rsize)
	for i := crop; i < fft-crop; i++ {
		freq := float64(i) * freqRes
		grid = append(grid, freq*SpeedOfLight/r.GetSweepSlope()/2)
	}
	return grid
}

// ConfmapRangeGrid returns the confidence-map range grid in meters,
// ascending with bin index.
func ConfmapRangeGrid(r *config.RadarConfig) []float64 {
	return rangeGrid(r, r.GetRAMapRSize())
}

// ConfmapAngleGrid returns the confidence-map angle grid in radians. Bins are
// evenly spaced in sin(angle), so the angular spacing widens toward the edges.
func ConfmapAngleGrid(r *config.RadarConfig) []float64 {
	n := r.GetRAMapASize()
	w := linspace(
		math.Sin(degToRad(r.GetRAMin())),
		math.Sin(degToRad(r.GetRAMax())),
		n,
	)
	for i, v := range w {
		w[i] = math.Asin(clampUnit(v))
	}
	return w
}

// LabelmapRangeGrid returns the label-map range grid in meters. The grid is
// reversed: bin 0 is the farthest range.
func LabelmapRangeGrid(r *config.RadarConfig) []float64 {
	grid := rangeGrid(r, r.GetRAMapRSizeLabel())
	floats.Reverse(grid)
	return grid
}

// LabelmapAngleGrid returns the label-map angle grid in radians, uniformly
// spaced between the label angle bounds.
func LabelmapAngleGrid(r *config.RadarConfig) []float64 {
	return linspace(degToRad(r.GetRAMinLabel()), degToRad(r.GetRAMaxLabel()), r.GetRAMapASizeLabel())
}

// XZGrid returns the BEV grid lines for an image of dim (rows along z, cols
// along x) covering [0, zMax) ahead of the sensor. zline starts at the sensor
// and excludes zMax; xline is symmetric about 0 with the same resolution.
func XZGrid(dim [2]int, zMax float64) (xline, zline []float64) {
	zres := zMax / float64(dim[0])
	zline = make([]float64, dim[0])
	for i := range zline {
		zline[i] = float64(i) * zres
	}

	half := dim[1] / 2
	xline = make([]float64, 2*half+1)
	for i := 1; i <= half; i++ {
		xline[half+i] = float64(i) * zres
		xline[half-i] = -float64(i) * zres
	}
	return xline, zline
}

// Grids bundles every grid derived from one sensor configuration. Build it
// once per run and share it read-only.
type Grids struct {
	Range      []float64 // confidence-map range, meters
	Angle      []float64 // confidence-map angle, radians
	RangeLabel []float64 // label-map range, meters (descending)
	AngleLabel []float64 // label-map angle, radians
	XLine      []float64 // BEV x, meters
	ZLine      []float64 // BEV z, meters
}

// NewGrids builds all grids for cfg.
func NewGrids(cfg *config.SensorConfig) *Grids {
	r := &cfg.Radar
	xline, zline := XZGrid(r.GetXZDim(), r.GetZMax())
	return &Grids{
		Range:      ConfmapRangeGrid(r),
		Angle:      ConfmapAngleGrid(r),
		RangeLabel: LabelmapRangeGrid(r),
		AngleLabel: LabelmapAngleGrid(r),
		XLine:      xline,
		ZLine:      zline,
	}
}

// linspace returns n evenly spaced values over [lo, hi]. The last value is
// exactly hi.
func linspace(lo, hi float64, n int) []float64 {
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{lo}
	}
	out := floats.Span(make([]float64, n), lo, hi)
	out[n-1] = hi
	return out
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}
