// Package mapping converts between radar range/angle coordinates, grid
// indices and the bird's-eye (BEV) Cartesian plane.
package mapping

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pol2Cart converts polar coordinates to Cartesian using the standard
// math convention: x=rho*cos(phi), y=rho*sin(phi).
func Pol2Cart(rho, phi float64) (x, y float64) {
	return rho * math.Cos(phi), rho * math.Sin(phi)
}

// Cart2Pol is the inverse of Pol2Cart.
func Cart2Pol(x, y float64) (rho, phi float64) {
	return math.Hypot(x, y), math.Atan2(y, x)
}

// Pol2CartRAMap converts polar coordinates to Cartesian under the RAMap
// (sensor-forward) convention: x=rho*sin(phi) to the right, y=rho*cos(phi)
// straight ahead. Angle 0 points along the boresight.
func Pol2CartRAMap(rho, phi float64) (x, y float64) {
	return rho * math.Sin(phi), rho * math.Cos(phi)
}

// Cart2PolRAMap is the inverse of Pol2CartRAMap.
func Cart2PolRAMap(x, y float64) (rho, phi float64) {
	return math.Hypot(x, y), math.Atan2(x, y)
}

// Translation is a sensor extrinsic offset in meters.
type Translation struct {
	X, Y, Z float64
}

// Radar2CameraXZ shifts BEV points (an n x 2 matrix of x, z columns) from
// the radar frame to the camera frame in place and returns xz.
func Radar2CameraXZ(xz *mat.Dense, t Translation) *mat.Dense {
	shiftXZ(xz, t.X, t.Z)
	return xz
}

// Camera2RadarXZ is the inverse of Radar2CameraXZ.
func Camera2RadarXZ(xz *mat.Dense, t Translation) *mat.Dense {
	shiftXZ(xz, -t.X, -t.Z)
	return xz
}

func shiftXZ(xz *mat.Dense, dx, dz float64) {
	rows, _ := xz.Dims()
	for i := 0; i < rows; i++ {
		xz.Set(i, 0, xz.At(i, 0)+dx)
		xz.Set(i, 1, xz.At(i, 1)+dz)
	}
}
