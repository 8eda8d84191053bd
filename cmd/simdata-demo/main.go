package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/signalsfoundry/simdata/datastore"
	"github.com/signalsfoundry/simdata/feed"
	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/model"
	"github.com/signalsfoundry/simdata/timectrl"
)

const (
	tle1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	tle2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"

	colorGreen uint32 = 0x00ff00ff
	colorRed   uint32 = 0xff0000ff
)

type options struct {
	duration    time.Duration
	tick        time.Duration
	accelerated bool
	seek        float64
}

func main() {
	duration := flag.Duration("duration", 2*time.Minute, "total scenario duration")
	tick := flag.Duration("tick", 10*time.Second, "tick interval")
	accelerated := flag.Bool("accelerated", true, "run in accelerated mode (vs real-time)")
	seek := flag.Float64("seek", 30, "scenario seconds to seek back to after playback")
	flag.Parse()

	log := logging.NewFromEnv()
	opts := options{duration: *duration, tick: *tick, accelerated: *accelerated, seek: *seek}
	if err := run(context.Background(), os.Stdout, log, opts); err != nil {
		log.Error(context.Background(), "demo failed", logging.Err(err))
		os.Exit(1)
	}
}

// run plays a one-satellite scenario forward, then seeks backward to show
// that command state is replayed.
func run(ctx context.Context, w io.Writer, log logging.Logger, opts options) error {
	start := time.Date(2021, time.October, 2, 14, 0, 0, 0, time.UTC)
	ds := datastore.New(log)

	sat, err := platform(ctx, ds, "LEO-Sat-1")
	if err != nil {
		return err
	}
	ground, err := platform(ctx, ds, "Equator-GS")
	if err != nil {
		return err
	}

	btx, err := ds.AddBeam(ground)
	if err != nil {
		return err
	}
	btx.Properties().BeamType = model.BeamTarget
	beam, err := btx.CommitContext(ctx)
	if err != nil {
		return err
	}

	half := opts.duration.Seconds() / 2
	for _, c := range []model.BeamCommand{
		{Time: 0, UpdatePrefs: &model.BeamPrefs{TargetID: model.ID(sat), Common: &model.CommonPrefs{Color: model.Uint32(colorGreen)}}},
		{Time: half, UpdatePrefs: &model.BeamPrefs{Common: &model.CommonPrefs{Color: model.Uint32(colorRed)}}},
	} {
		if err := ds.AddBeamCommand(beam, c); err != nil {
			return err
		}
	}
	for _, cd := range []model.CategoryData{
		{Time: 0, Name: "mode", Value: "search"},
		{Time: half, Name: "mode", Value: "track"},
	} {
		if err := ds.AddCategoryData(beam, cd); err != nil {
			return err
		}
	}

	groundPos := feed.Vec3{X: feed.EarthRadiusM + 10}
	orbit := feed.NewOrbitFromTLE(tle1, tle2)
	gen := feed.NewGenerator(start, opts.tick, log)
	gen.Track(sat, orbit)
	gen.Static(ground, groundPos)
	gen.Point(beam, feed.Fixed{Pos: groundPos}, orbit, false)
	if _, err := gen.Generate(ctx, ds, 0, opts.duration); err != nil {
		return err
	}

	mode := timectrl.RealTime
	if opts.accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(start, opts.tick, mode)
	tc.AddListener(func(now time.Time, seconds float64) {
		ds.Update(seconds)
		printState(w, ds, now, seconds, sat, beam)
	})

	fmt.Fprintf(w, "Starting scenario: duration=%s, tick=%s, mode=%v\n", opts.duration, opts.tick, mode)
	tc.SetTime(start)
	if err := tc.Run(ctx, opts.duration); err != nil {
		return err
	}

	fmt.Fprintf(w, "Seeking back to t=%g\n", opts.seek)
	tc.SetScenarioSeconds(opts.seek)

	counts, err := ds.Counts(beam)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Beam history: %d updates, %d commands, %d category points\n",
		counts.Updates, counts.Commands, counts.CategoryData)
	return nil
}

func platform(ctx context.Context, ds *datastore.DataStore, name string) (model.ObjectID, error) {
	id, err := ds.AddPlatform().CommitContext(ctx)
	if err != nil {
		return 0, err
	}
	prefs, err := ds.EditPlatformPrefs(id)
	if err != nil {
		return 0, err
	}
	prefs.Draft().Common = &model.CommonPrefs{Name: model.String(name)}
	if _, err := prefs.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func printState(w io.Writer, ds *datastore.DataStore, now time.Time, seconds float64, sat, beam model.ObjectID) {
	pos := "-"
	if updates, err := ds.PlatformUpdateSlice(sat); err == nil {
		if u, ok := updates.Current(); ok {
			pos = fmt.Sprintf("(%.0f, %.0f, %.0f)", u.X, u.Y, u.Z)
		}
	}
	color, target := "-", "-"
	if prefs, err := ds.BeamPrefs(beam); err == nil {
		if c := prefs.GetCommon(); c != nil && c.Color != nil {
			color = fmt.Sprintf("%08x", *c.Color)
		}
		if prefs.TargetID != nil {
			target = fmt.Sprint(*prefs.TargetID)
		}
	}
	mode := "-"
	if cat, err := ds.CategoryDataSlice(beam); err == nil {
		if v, ok := cat.Value("mode"); ok {
			mode = v
		}
	}
	fmt.Fprintf(w, "[%s] t=%g sat=%s beam color=%s target=%s mode=%s\n",
		now.Format(time.RFC3339), seconds, pos, color, target, mode)
}
