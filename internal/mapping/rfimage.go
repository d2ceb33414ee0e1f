package mapping

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// RFImage is a two-channel radar range-angle image with rows along range
// and columns along angle. Channels hold either (real, imaginary) or
// (amplitude, phase) depending on context.
type RFImage struct {
	C0, C1 *mat.Dense
}

// NewRFImage allocates a zeroed rows x cols two-channel image.
func NewRFImage(rows, cols int) RFImage {
	return RFImage{C0: mat.NewDense(rows, cols, nil), C1: mat.NewDense(rows, cols, nil)}
}

// Dims returns the image dimensions.
func (im RFImage) Dims() (rows, cols int) {
	return im.C0.Dims()
}

// RI2AP converts a (real, imaginary) image to (amplitude, phase).
func RI2AP(ri RFImage) RFImage {
	return convertChannels(ri, func(a, b float64) (float64, float64) {
		z := complex(a, b)
		return cmplx.Abs(z), cmplx.Phase(z)
	})
}

// AP2RI converts an (amplitude, phase) image to (real, imaginary).
func AP2RI(ap RFImage) RFImage {
	return convertChannels(ap, func(amp, phase float64) (float64, float64) {
		z := cmplx.Rect(amp, phase)
		return real(z), imag(z)
	})
}

// Magnitude returns |re + j*im| for a (real, imaginary) image.
func (im RFImage) Magnitude() *mat.Dense {
	rows, cols := im.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, j int, _ float64) float64 {
		return math.Hypot(im.C0.At(i, j), im.C1.At(i, j))
	}, out)
	return out
}

func convertChannels(in RFImage, f func(a, b float64) (float64, float64)) RFImage {
	rows, cols := in.Dims()
	out := NewRFImage(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			a, b := f(in.C0.At(i, j), in.C1.At(i, j))
			out.C0.Set(i, j, a)
			out.C1.Set(i, j, b)
		}
	}
	return out
}

// RF2RFCart resamples a (real, imaginary) range-angle image onto the BEV
// grid given by xline and zline. Output rows follow zline and columns
// follow xline. With magnitudeOnly the result carries the magnitude in C0
// and a nil C1; otherwise amplitude and phase are sampled separately and
// converted back to (real, imaginary).
func RF2RFCart(rf RFImage, rangeGrid, angleGrid, xline, zline []float64, magnitudeOnly bool) (RFImage, error) {
	rows, cols := rf.Dims()
	if rows != len(rangeGrid) || cols != len(angleGrid) {
		return RFImage{}, fmt.Errorf("rf image is %dx%d but grids are %dx%d", rows, cols, len(rangeGrid), len(angleGrid))
	}

	nz, nx := len(zline), len(xline)
	if nz == 0 || nx == 0 {
		return RFImage{}, fmt.Errorf("empty BEV grid (%d x %d)", nz, nx)
	}
	var src RFImage
	out := RFImage{C0: mat.NewDense(nz, nx, nil)}
	if magnitudeOnly {
		src = RFImage{C0: rf.Magnitude()}
	} else {
		src = RI2AP(rf)
		out.C1 = mat.NewDense(nz, nx, nil)
	}

	for zi, z := range zline {
		for xi, x := range xline {
			rng, agl := Cart2PolRAMap(x, z)
			rid, aid := RA2IdxInterpolate(rng, agl, rangeGrid, angleGrid)
			out.C0.Set(zi, xi, BilinearInterpolate(src.C0, aid, rid))
			if !magnitudeOnly {
				out.C1.Set(zi, xi, BilinearInterpolate(src.C1, aid, rid))
			}
		}
	}

	if magnitudeOnly {
		return out, nil
	}
	return AP2RI(out), nil
}
