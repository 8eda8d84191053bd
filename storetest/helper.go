// Package storetest builds data store fixtures for tests.
package storetest

import (
	"testing"

	"github.com/signalsfoundry/simdata/datastore"
	"github.com/signalsfoundry/simdata/datatable"
	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/model"
)

// Helper wraps a DataStore and fails the test on any setup error.
type Helper struct {
	t  testing.TB
	ds *datastore.DataStore
}

// New returns a helper around a fresh store.
func New(t testing.TB, opts ...datastore.Option) *Helper {
	t.Helper()
	return &Helper{t: t, ds: datastore.New(logging.Noop(), opts...)}
}

// Store returns the wrapped store.
func (h *Helper) Store() *datastore.DataStore { return h.ds }

func (h *Helper) commit(txn *datastore.EntityTxn, err error) model.ObjectID {
	h.t.Helper()
	if err != nil {
		h.t.Fatalf("start entity: %v", err)
	}
	id, err := txn.Commit()
	if err != nil {
		h.t.Fatalf("commit entity: %v", err)
	}
	return id
}

func (h *Helper) check(err error) {
	h.t.Helper()
	if err != nil {
		h.t.Fatalf("storetest: %v", err)
	}
}

func (h *Helper) AddPlatform() model.ObjectID {
	h.t.Helper()
	return h.commit(h.ds.AddPlatform(), nil)
}

func (h *Helper) AddBeam(host model.ObjectID) model.ObjectID {
	h.t.Helper()
	return h.commit(h.ds.AddBeam(host))
}

func (h *Helper) AddGate(host model.ObjectID) model.ObjectID {
	h.t.Helper()
	return h.commit(h.ds.AddGate(host))
}

func (h *Helper) AddLaser(host model.ObjectID) model.ObjectID {
	h.t.Helper()
	return h.commit(h.ds.AddLaser(host))
}

func (h *Helper) AddLobGroup(host model.ObjectID) model.ObjectID {
	h.t.Helper()
	return h.commit(h.ds.AddLobGroup(host))
}

func (h *Helper) AddProjector(host model.ObjectID) model.ObjectID {
	h.t.Helper()
	return h.commit(h.ds.AddProjector(host))
}

func (h *Helper) AddCustomRendering(host model.ObjectID) model.ObjectID {
	h.t.Helper()
	return h.commit(h.ds.AddCustomRendering(host))
}

// AddPlatformUpdate adds a kinematic sample at time t with a position
// derived from t.
func (h *Helper) AddPlatformUpdate(id model.ObjectID, t float64) {
	h.t.Helper()
	h.check(h.ds.AddPlatformUpdate(id, model.PlatformUpdate{Time: t, X: t, Y: t, Z: t}))
}

// ColorCommand returns prefs setting only the common color.
func ColorCommand(color uint32) *model.CommonPrefs {
	return &model.CommonPrefs{Color: model.Uint32(color)}
}

// AddColorCommand adds a command at time t setting the common color of
// any kind of entity.
func (h *Helper) AddColorCommand(id model.ObjectID, t float64, color uint32) {
	h.t.Helper()
	kind, err := h.ds.Kind(id)
	h.check(err)
	common := ColorCommand(color)
	switch kind {
	case model.KindPlatform:
		err = h.ds.AddPlatformCommand(id, model.PlatformCommand{Time: t, UpdatePrefs: &model.PlatformPrefs{Common: common}})
	case model.KindBeam:
		err = h.ds.AddBeamCommand(id, model.BeamCommand{Time: t, UpdatePrefs: &model.BeamPrefs{Common: common}})
	case model.KindGate:
		err = h.ds.AddGateCommand(id, model.GateCommand{Time: t, UpdatePrefs: &model.GatePrefs{Common: common}})
	case model.KindLaser:
		err = h.ds.AddLaserCommand(id, model.LaserCommand{Time: t, UpdatePrefs: &model.LaserPrefs{Common: common}})
	case model.KindLobGroup:
		err = h.ds.AddLobGroupCommand(id, model.LobGroupCommand{Time: t, UpdatePrefs: &model.LobGroupPrefs{Common: common}})
	case model.KindProjector:
		err = h.ds.AddProjectorCommand(id, model.ProjectorCommand{Time: t, UpdatePrefs: &model.ProjectorPrefs{Common: common}})
	case model.KindCustomRendering:
		err = h.ds.AddCustomRenderingCommand(id, model.CustomRenderingCommand{Time: t, UpdatePrefs: &model.CustomRenderingPrefs{Common: common}})
	}
	h.check(err)
}

// CommandCount returns the number of commands held by an entity of any kind.
func (h *Helper) CommandCount(id model.ObjectID) int {
	h.t.Helper()
	c, err := h.ds.Counts(id)
	h.check(err)
	return c.Commands
}

func (h *Helper) AddCategoryData(id model.ObjectID, name, value string, t float64) {
	h.t.Helper()
	h.check(h.ds.AddCategoryData(id, model.CategoryData{Time: t, Name: name, Value: value}))
}

func (h *Helper) AddGenericData(id model.ObjectID, key, value string, t float64) {
	h.t.Helper()
	h.check(h.ds.AddGenericData(id, model.GenericData{Time: t, Key: key, Value: value}))
}

// AddDataTable creates a table with one double column and rows rows at
// times 0, 1, 2...
func (h *Helper) AddDataTable(owner model.ObjectID, rows int, name string) *datatable.Table {
	h.t.Helper()
	tbl, err := h.ds.DataTables().AddTable(owner, name)
	h.check(err)
	col, err := tbl.AddColumn("value", datatable.VariableDouble)
	h.check(err)
	for i := 0; i < rows; i++ {
		h.check(tbl.AddRow(datatable.NewRow(float64(i)).Set(col.ID(), datatable.DoubleValue(float64(i)))))
	}
	return tbl
}

// Counts returns the history counts of id.
func (h *Helper) Counts(id model.ObjectID) datastore.Counts {
	h.t.Helper()
	c, err := h.ds.Counts(id)
	h.check(err)
	return c
}
