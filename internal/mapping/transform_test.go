package mapping

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const tol = 1e-12

func TestPolarConventions(t *testing.T) {
	tests := []struct {
		name       string
		rho, phi   float64
		wantX      float64
		wantY      float64
		wantRAMapX float64
		wantRAMapY float64
	}{
		{"boresight", 10, 0, 10, 0, 0, 10},
		{"right angle", 5, math.Pi / 2, 0, 5, 5, 0},
		{"left 30deg", 2, -math.Pi / 6, math.Sqrt(3), -1, -1, math.Sqrt(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := Pol2Cart(tt.rho, tt.phi)
			if math.Abs(x-tt.wantX) > tol || math.Abs(y-tt.wantY) > tol {
				t.Errorf("Pol2Cart = (%g, %g), want (%g, %g)", x, y, tt.wantX, tt.wantY)
			}
			rho, phi := Cart2Pol(x, y)
			if math.Abs(rho-tt.rho) > tol || math.Abs(phi-tt.phi) > tol {
				t.Errorf("Cart2Pol round trip = (%g, %g), want (%g, %g)", rho, phi, tt.rho, tt.phi)
			}

			x, y = Pol2CartRAMap(tt.rho, tt.phi)
			if math.Abs(x-tt.wantRAMapX) > tol || math.Abs(y-tt.wantRAMapY) > tol {
				t.Errorf("Pol2CartRAMap = (%g, %g), want (%g, %g)", x, y, tt.wantRAMapX, tt.wantRAMapY)
			}
			rho, phi = Cart2PolRAMap(x, y)
			if math.Abs(rho-tt.rho) > tol || math.Abs(phi-tt.phi) > tol {
				t.Errorf("Cart2PolRAMap round trip = (%g, %g), want (%g, %g)", rho, phi, tt.rho, tt.phi)
			}
		})
	}
}

func TestRadarCameraXZ(t *testing.T) {
	xz := mat.NewDense(2, 2, []float64{
		1, 10,
		-2, 5,
	})
	tr := Translation{X: 0.5, Y: 9, Z: -1}

	Radar2CameraXZ(xz, tr)
	want := mat.NewDense(2, 2, []float64{
		1.5, 9,
		-1.5, 4,
	})
	if !mat.EqualApprox(xz, want, tol) {
		t.Errorf("Radar2CameraXZ =\n%v\nwant\n%v", mat.Formatted(xz), mat.Formatted(want))
	}

	Camera2RadarXZ(xz, tr)
	orig := mat.NewDense(2, 2, []float64{1, 10, -2, 5})
	if !mat.EqualApprox(xz, orig, tol) {
		t.Errorf("Camera2RadarXZ did not invert translation: %v", mat.Formatted(xz))
	}
}
