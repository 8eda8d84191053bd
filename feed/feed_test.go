package feed

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/simdata/datastore"
	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/model"
)

// ISS sample TLE.
const (
	issLine1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issLine2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

var issEpoch = time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)

type capturingSink struct {
	mu        sync.Mutex
	platforms map[model.ObjectID][]model.PlatformUpdate
	beams     map[model.ObjectID][]model.BeamUpdate
	fail      error
}

func newCapturingSink() *capturingSink {
	return &capturingSink{
		platforms: make(map[model.ObjectID][]model.PlatformUpdate),
		beams:     make(map[model.ObjectID][]model.BeamUpdate),
	}
}

func (s *capturingSink) AddPlatformUpdate(id model.ObjectID, u model.PlatformUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.platforms[id] = append(s.platforms[id], u)
	return nil
}

func (s *capturingSink) AddBeamUpdate(id model.ObjectID, u model.BeamUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.beams[id] = append(s.beams[id], u)
	return nil
}

func TestOrbitChangesOverTime(t *testing.T) {
	o := NewOrbitFromTLE(issLine1, issLine2)

	p1, v1, err := o.StateAt(issEpoch)
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	p2, _, err := o.StateAt(issEpoch.Add(10 * time.Minute))
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("positions at distinct times are equal: %+v", p1)
	}
	// Low Earth orbit: a few hundred kilometres above the surface.
	if r := p1.Norm(); r < EarthRadiusM+200e3 || r > EarthRadiusM+600e3 {
		t.Fatalf("orbit radius = %v m, want LEO", r)
	}
	if s := v1.Norm(); s < 6e3 || s > 9e3 {
		t.Fatalf("orbital speed = %v m/s, want about 7.7 km/s", s)
	}
}

func TestPointing(t *testing.T) {
	obs := Vec3{X: EarthRadiusM}
	cases := []struct {
		name        string
		target      Vec3
		az, el, rng float64
		checkAz     bool
	}{
		{"overhead", Vec3{X: EarthRadiusM + 1000}, 0, math.Pi / 2, 1000, false},
		{"north", Vec3{X: EarthRadiusM, Z: 1000}, 0, 0, 1000, true},
		{"east", Vec3{X: EarthRadiusM, Y: 1000}, math.Pi / 2, 0, 1000, true},
		{"west", Vec3{X: EarthRadiusM, Y: -1000}, 3 * math.Pi / 2, 0, 1000, true},
	}
	for _, tc := range cases {
		az, el, rng := Pointing(obs, tc.target)
		if math.Abs(el-tc.el) > 1e-9 || math.Abs(rng-tc.rng) > 1e-6 {
			t.Fatalf("%s: el, range = %v, %v, want %v, %v", tc.name, el, rng, tc.el, tc.rng)
		}
		if tc.checkAz && math.Abs(az-tc.az) > 1e-9 {
			t.Fatalf("%s: az = %v, want %v", tc.name, az, tc.az)
		}
	}
}

func TestLineOfSight(t *testing.T) {
	a := Vec3{X: EarthRadiusM + 500e3}
	if !LineOfSight(a, Vec3{X: EarthRadiusM + 900e3}) {
		t.Fatalf("radial segment above the surface is blocked")
	}
	if LineOfSight(a, Vec3{X: -(EarthRadiusM + 500e3)}) {
		t.Fatalf("segment through the Earth has line of sight")
	}
}

func TestGenerateSamplesInclusiveWindow(t *testing.T) {
	g := NewGenerator(issEpoch, 30*time.Second, logging.Noop())
	g.Track(1, NewOrbitFromTLE(issLine1, issLine2))
	g.Static(2, Vec3{X: EarthRadiusM})

	sink := newCapturingSink()
	n, err := g.Generate(context.Background(), sink, 0, 2*time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if n != 6 {
		t.Fatalf("records = %d, want 6", n)
	}

	orbit := sink.platforms[1]
	sort.Slice(orbit, func(i, j int) bool { return orbit[i].Time < orbit[j].Time })
	want := []float64{0, 30, 60, 90, 120}
	if len(orbit) != len(want) {
		t.Fatalf("orbit samples = %d, want %d", len(orbit), len(want))
	}
	for i, w := range want {
		if orbit[i].Time != w {
			t.Fatalf("sample %d time = %v, want %v", i, orbit[i].Time, w)
		}
	}

	static := sink.platforms[2]
	if len(static) != 1 || static[0].Time != -1 || static[0].X != EarthRadiusM {
		t.Fatalf("static samples = %+v, want one at -1", static)
	}

	// A second window does not repeat the static point.
	n, err = g.Generate(context.Background(), sink, 3*time.Minute, 3*time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if n != 1 || len(sink.platforms[2]) != 1 {
		t.Fatalf("second window records = %d, static = %d, want 1, 1", n, len(sink.platforms[2]))
	}
}

func TestGeneratePointsBeams(t *testing.T) {
	ground := Fixed{Pos: Vec3{X: EarthRadiusM + 10}}
	overhead := Fixed{Pos: Vec3{X: EarthRadiusM + 500e3}}
	antipode := Fixed{Pos: Vec3{X: -(EarthRadiusM + 500e3)}}

	g := NewGenerator(issEpoch, time.Second, nil)
	g.Point(10, ground, overhead, true)
	g.Point(11, ground, antipode, true)
	g.Point(12, ground, antipode, false)

	sink := newCapturingSink()
	if _, err := g.Generate(context.Background(), sink, 0, 2*time.Second); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := len(sink.beams[10]); got != 3 {
		t.Fatalf("visible beam samples = %d, want 3", got)
	}
	if u := sink.beams[10][0]; math.Abs(u.Elevation-math.Pi/2) > 1e-9 || math.Abs(u.Range-(500e3-10)) > 1e-6 {
		t.Fatalf("overhead sample = %+v", u)
	}
	if got := len(sink.beams[11]); got != 0 {
		t.Fatalf("blocked beam samples = %d, want 0", got)
	}
	if got := len(sink.beams[12]); got != 3 {
		t.Fatalf("unchecked beam samples = %d, want 3", got)
	}
}

func TestGenerateStopsOnSinkError(t *testing.T) {
	g := NewGenerator(issEpoch, time.Second, nil, WithConcurrency(1))
	g.Track(1, Fixed{})

	sink := newCapturingSink()
	sink.fail = datastore.ErrNotFound
	_, err := g.Generate(context.Background(), sink, 0, time.Minute)
	if !errors.Is(err, datastore.ErrNotFound) {
		t.Fatalf("Generate error = %v, want ErrNotFound", err)
	}
}

func TestGenerateCancelled(t *testing.T) {
	g := NewGenerator(issEpoch, time.Second, nil)
	g.Track(1, Fixed{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, newCapturingSink(), 0, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate error = %v, want context.Canceled", err)
	}
}

func TestGenerateIntoStore(t *testing.T) {
	ds := datastore.New(logging.Noop())
	id, err := ds.AddPlatform().Commit()
	if err != nil {
		t.Fatalf("commit platform: %v", err)
	}

	g := NewGenerator(issEpoch, time.Minute, nil)
	g.Track(id, NewOrbitFromTLE(issLine1, issLine2))
	if _, err := g.Generate(context.Background(), ds, 0, 10*time.Minute); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	updates, err := ds.PlatformUpdateSlice(id)
	if err != nil {
		t.Fatalf("PlatformUpdateSlice: %v", err)
	}
	if got := updates.NumItems(); got != 11 {
		t.Fatalf("NumItems = %d, want 11", got)
	}
	ds.Update(90)
	cur, ok := updates.Current()
	if !ok || cur.Time != 60 {
		t.Fatalf("Current() = %+v, %v, want time 60", cur, ok)
	}
}
