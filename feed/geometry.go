package feed

import "math"

// EarthRadiusM is the mean Earth radius used for line-of-sight checks.
const EarthRadiusM = 6371.0e3

// Vec3 is an ECEF vector in metres (or metres per second).
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns v x other.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Scale returns v * k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

func (v Vec3) unit() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

// LineOfSight reports whether the segment between p1 and p2 clears the
// Earth sphere.
func LineOfSight(p1, p2 Vec3) bool {
	v := p2.Sub(p1)
	a := v.Dot(v)
	if a == 0 {
		return p1.Dot(p1) > EarthRadiusM*EarthRadiusM
	}

	// Closest point on the segment to the Earth's centre.
	t := -p1.Dot(v) / a
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := Vec3{
		X: p1.X + v.X*t,
		Y: p1.Y + v.Y*t,
		Z: p1.Z + v.Z*t,
	}
	return closest.Dot(closest) > EarthRadiusM*EarthRadiusM
}

// Pointing returns the azimuth and elevation (radians) and range (metres)
// of target as seen from observer, using the observer's local
// east-north-up frame on a spherical Earth. Azimuth is clockwise from
// north in [0, 2π).
func Pointing(observer, target Vec3) (az, el, rng float64) {
	v := target.Sub(observer)
	rng = v.Norm()
	up := observer.unit()
	if rng == 0 || up == (Vec3{}) {
		return 0, math.Pi / 2, rng
	}

	east := Vec3{Z: 1}.Cross(up)
	if east.Norm() < 1e-12 {
		// Observer on the polar axis.
		east = Vec3{Y: 1}
	}
	east = east.unit()
	north := up.Cross(east)

	sinEl := v.Dot(up) / rng
	if sinEl > 1 {
		sinEl = 1
	} else if sinEl < -1 {
		sinEl = -1
	}
	el = math.Asin(sinEl)
	az = math.Atan2(v.Dot(east), v.Dot(north))
	if az < 0 {
		az += 2 * math.Pi
	}
	return az, el, rng
}
