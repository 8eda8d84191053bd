package feed

import (
	"errors"
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// ErrPropagation is returned when SGP4 cannot produce a state vector, for
// example after the orbit has decayed.
var ErrPropagation = errors.New("sgp4 propagation failed")

// Trajectory yields an ECEF state at an absolute time.
type Trajectory interface {
	StateAt(t time.Time) (pos, vel Vec3, err error)
}

// Fixed is a trajectory that never moves.
type Fixed struct {
	Pos Vec3
}

func (f Fixed) StateAt(time.Time) (Vec3, Vec3, error) {
	return f.Pos, Vec3{}, nil
}

// Orbit propagates a two-line element set with SGP4.
type Orbit struct {
	sat satellite.Satellite
}

// NewOrbitFromTLE constructs an orbit from TLE lines.
func NewOrbitFromTLE(line1, line2 string) *Orbit {
	return &Orbit{sat: satellite.TLEToSat(line1, line2, satellite.GravityWGS72)}
}

// StateAt propagates to t. go-satellite works in kilometres; results are
// metres. Velocity is rotated into ECEF without the Earth-rate term.
func (o *Orbit) StateAt(t time.Time) (Vec3, Vec3, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, velECI := satellite.Propagate(o.sat, year, int(month), day, hour, min, sec)
	if posECI.X == 0 && posECI.Y == 0 && posECI.Z == 0 {
		return Vec3{}, Vec3{}, fmt.Errorf("%s: %w", t.Format(time.RFC3339), ErrPropagation)
	}
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)
	velECEF := satellite.ECIToECEF(velECI, gmst)

	const kmToM = 1000.0
	pos := Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}.Scale(kmToM)
	vel := Vec3{X: velECEF.X, Y: velECEF.Y, Z: velECEF.Z}.Scale(kmToM)
	return pos, vel, nil
}
