package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/simdata/datastore"
	"github.com/signalsfoundry/simdata/datatable"
	"github.com/signalsfoundry/simdata/feed"
	"github.com/signalsfoundry/simdata/internal/config"
	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/model"
)

// Sample ISS elements, used when the configuration names no satellites.
var defaultSatellite = config.Satellite{
	Name:  "ISS",
	Line1: "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990",
	Line2: "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760",
}

// scenario holds the ids created by loadScenario.
type scenario struct {
	ground     model.ObjectID
	beam       model.ObjectID
	satellites []model.ObjectID
	records    int
}

// loadScenario populates ds with the configured satellites, an equatorial
// ground station and a beam tracking the first satellite.
func loadScenario(ctx context.Context, ds *datastore.DataStore, cfg config.Scenario, log logging.Logger) (*scenario, error) {
	sats := cfg.Satellites
	if len(sats) == 0 {
		sats = []config.Satellite{defaultSatellite}
	}

	gen := feed.NewGenerator(cfg.Start, cfg.FeedStep.Duration, log)
	sc := &scenario{}

	if err := ds.AddGenericData(model.ScenarioID, model.GenericData{
		Time:  model.StaticTime,
		Key:   "scenario.start",
		Value: cfg.Start.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	var first feed.Trajectory
	for _, s := range sats {
		orbit := feed.NewOrbitFromTLE(s.Line1, s.Line2)
		id, err := addPlatform(ctx, ds, s.Name, "sgp4:"+s.Name)
		if err != nil {
			return nil, err
		}
		if err := ds.AddCategoryData(id, model.CategoryData{Time: model.StaticTime, Name: "orbit", Value: "LEO"}); err != nil {
			return nil, err
		}
		// Platform data is hidden until the first command turns it on.
		if err := ds.AddPlatformCommand(id, model.PlatformCommand{
			Time:        0,
			UpdatePrefs: &model.PlatformPrefs{Common: &model.CommonPrefs{DataDraw: model.Bool(true)}},
		}); err != nil {
			return nil, err
		}
		gen.Track(id, orbit)
		sc.satellites = append(sc.satellites, id)
		if first == nil {
			first = orbit
		}
	}

	groundPos := feed.Vec3{X: feed.EarthRadiusM + 10}
	ground, err := addPlatform(ctx, ds, "Equator-GS", "static")
	if err != nil {
		return nil, err
	}
	gen.Static(ground, groundPos)
	sc.ground = ground

	btx, err := ds.AddBeam(ground)
	if err != nil {
		return nil, err
	}
	btx.Properties().BeamType = model.BeamTarget
	btx.Properties().Source = "pointing"
	beam, err := btx.CommitContext(ctx)
	if err != nil {
		return nil, err
	}
	ptx, err := ds.EditBeamPrefs(beam)
	if err != nil {
		return nil, err
	}
	ptx.Draft().Common = &model.CommonPrefs{Name: model.String("GS tracking beam")}
	ptx.Draft().TargetID = model.ID(sc.satellites[0])
	if _, err := ptx.Commit(); err != nil {
		return nil, err
	}
	gen.Point(beam, feed.Fixed{Pos: groundPos}, first, true)
	sc.beam = beam

	n, err := gen.Generate(ctx, ds, 0, cfg.FeedHorizon.Duration)
	if err != nil {
		return nil, fmt.Errorf("generate feed: %w", err)
	}
	sc.records = n

	if err := elevationTable(ds, ground, beam); err != nil {
		return nil, err
	}
	return sc, nil
}

func addPlatform(ctx context.Context, ds *datastore.DataStore, name, source string) (model.ObjectID, error) {
	tx := ds.AddPlatform()
	tx.Properties().Source = source
	id, err := tx.CommitContext(ctx)
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

// elevationTable copies the beam's elevation history into a data table on
// the ground station.
func elevationTable(ds *datastore.DataStore, owner, beam model.ObjectID) error {
	table, err := ds.DataTables().AddTable(owner, "visibility")
	if err != nil {
		return err
	}
	col, err := table.AddColumn("elevation_deg", datatable.VariableDouble)
	if err != nil {
		return err
	}
	updates, err := ds.BeamUpdateSlice(beam)
	if err != nil {
		return err
	}
	var addErr error
	updates.Visit(func(u model.BeamUpdate) bool {
		row := datatable.NewRow(u.Time).Set(col.ID(), datatable.DoubleValue(u.Elevation*180/math.Pi))
		addErr = table.AddRow(row)
		return addErr == nil
	})
	return addErr
}
