// Package feed produces time-stamped records and appends them to a data
// store through its public API. Platforms follow a Trajectory (SGP4 orbit
// or fixed point); beams are pointed from their host's trajectory at a
// target trajectory.
package feed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/model"
)

// Sink receives generated records. *datastore.DataStore satisfies it.
type Sink interface {
	AddPlatformUpdate(id model.ObjectID, u model.PlatformUpdate) error
	AddBeamUpdate(id model.ObjectID, u model.BeamUpdate) error
}

type track struct {
	id     model.ObjectID
	path   Trajectory
	static bool
}

type pointing struct {
	id               model.ObjectID
	from, to         Trajectory
	requireSightline bool
}

// Generator samples registered trajectories on a fixed step.
type Generator struct {
	start time.Time
	step  time.Duration
	log   logging.Logger
	limit int

	mu       sync.Mutex
	tracks   []track
	pointers []pointing
	written  map[model.ObjectID]bool // static tracks already emitted
}

// Option customises a Generator.
type Option func(*Generator)

// WithConcurrency bounds the number of tracks sampled in parallel.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		g.limit = n
	}
}

// NewGenerator returns a generator whose scenario time zero is start.
func NewGenerator(start time.Time, step time.Duration, log logging.Logger, opts ...Option) *Generator {
	if log == nil {
		log = logging.Noop()
	}
	g := &Generator{
		start:   start,
		step:    step,
		log:     log,
		limit:   4,
		written: make(map[model.ObjectID]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Track samples path into platform id's update slice.
func (g *Generator) Track(id model.ObjectID, path Trajectory) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tracks = append(g.tracks, track{id: id, path: path})
}

// Static records pos once, at time -1, for platform id.
func (g *Generator) Static(id model.ObjectID, pos Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tracks = append(g.tracks, track{id: id, path: Fixed{Pos: pos}, static: true})
}

// Point samples the pointing from one trajectory at another into beam id's
// update slice. With requireSightline, samples where the Earth blocks the
// line of sight are skipped.
func (g *Generator) Point(id model.ObjectID, from, to Trajectory, requireSightline bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pointers = append(g.pointers, pointing{id: id, from: from, to: to, requireSightline: requireSightline})
}

// Seconds converts an absolute time into scenario seconds.
func (g *Generator) Seconds(t time.Time) float64 {
	return t.Sub(g.start).Seconds()
}

// Generate samples every registered trajectory at start+from, stepping by
// the generator step through start+to inclusive, and returns the number of
// records written. Static tracks are written on the first call only.
func (g *Generator) Generate(ctx context.Context, sink Sink, from, to time.Duration) (int, error) {
	if g.step <= 0 {
		return 0, fmt.Errorf("feed step must be positive, got %s", g.step)
	}
	ctx, reqLog := logging.WithRequestLogger(ctx, g.log)

	g.mu.Lock()
	tracks := append([]track(nil), g.tracks...)
	pointers := append([]pointing(nil), g.pointers...)
	g.mu.Unlock()

	var written atomic.Int64
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.limit)

	for _, tr := range tracks {
		if tr.static {
			if !g.claimStatic(tr.id) {
				continue
			}
			eg.Go(func() error {
				pos, vel, _ := tr.path.StateAt(g.start)
				if err := sink.AddPlatformUpdate(tr.id, platformUpdate(-1, pos, vel)); err != nil {
					return fmt.Errorf("static platform %d: %w", tr.id, err)
				}
				written.Add(1)
				return nil
			})
			continue
		}
		eg.Go(func() error {
			return g.sample(ctx, from, to, func(at time.Time) error {
				pos, vel, err := tr.path.StateAt(at)
				if err != nil {
					return fmt.Errorf("platform %d: %w", tr.id, err)
				}
				if err := sink.AddPlatformUpdate(tr.id, platformUpdate(g.Seconds(at), pos, vel)); err != nil {
					return fmt.Errorf("platform %d: %w", tr.id, err)
				}
				written.Add(1)
				return nil
			})
		})
	}

	for _, p := range pointers {
		eg.Go(func() error {
			return g.sample(ctx, from, to, func(at time.Time) error {
				src, _, err := p.from.StateAt(at)
				if err != nil {
					return fmt.Errorf("beam %d host: %w", p.id, err)
				}
				dst, _, err := p.to.StateAt(at)
				if err != nil {
					return fmt.Errorf("beam %d target: %w", p.id, err)
				}
				if p.requireSightline && !LineOfSight(src, dst) {
					return nil
				}
				az, el, rng := Pointing(src, dst)
				u := model.BeamUpdate{Time: g.Seconds(at), Azimuth: az, Elevation: el, Range: rng}
				if err := sink.AddBeamUpdate(p.id, u); err != nil {
					return fmt.Errorf("beam %d: %w", p.id, err)
				}
				written.Add(1)
				return nil
			})
		})
	}

	err := eg.Wait()
	n := int(written.Load())
	if err != nil {
		reqLog.Warn(ctx, "feed generation failed", logging.Err(err), logging.Int("records", n))
		return n, err
	}
	reqLog.Debug(ctx, "feed generated",
		logging.Int("records", n),
		logging.String("from", from.String()),
		logging.String("to", to.String()),
	)
	return n, nil
}

func (g *Generator) claimStatic(id model.ObjectID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.written[id] {
		return false
	}
	g.written[id] = true
	return true
}

func (g *Generator) sample(ctx context.Context, from, to time.Duration, emit func(time.Time) error) error {
	for off := from; off <= to; off += g.step {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(g.start.Add(off)); err != nil {
			return err
		}
	}
	return nil
}

func platformUpdate(t float64, pos, vel Vec3) model.PlatformUpdate {
	return model.PlatformUpdate{
		Time: t,
		X:    pos.X,
		Y:    pos.Y,
		Z:    pos.Z,
		Vx:   vel.X,
		Vy:   vel.Y,
		Vz:   vel.Z,
	}
}
