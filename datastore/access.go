package datastore

import (
	"fmt"

	"github.com/brunoga/deep"

	"github.com/signalsfoundry/simdata/model"
	"github.com/signalsfoundry/simdata/timeslice"
)

func addUpdate[U timeslice.Timed, C timeslice.Timed, P any](ds *DataStore, id model.ObjectID, spec *kindSpec[U, C, P], u U) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	r, err := lookup(ds, id, spec)
	if err != nil {
		return err
	}
	r.updates.Insert(deep.MustCopy(u))
	return nil
}

func addCommand[U timeslice.Timed, C timeslice.Timed, P any](ds *DataStore, id model.ObjectID, spec *kindSpec[U, C, P], c C) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	r, err := lookup(ds, id, spec)
	if err != nil {
		return err
	}
	r.commands.Insert(deep.MustCopy(c))
	return nil
}

func updateSlice[U timeslice.Timed, C timeslice.Timed, P any](ds *DataStore, id model.ObjectID, spec *kindSpec[U, C, P]) (timeslice.Reader[U], error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	r, err := lookup(ds, id, spec)
	if err != nil {
		return nil, err
	}
	return r.updates, nil
}

func commandSlice[U timeslice.Timed, C timeslice.Timed, P any](ds *DataStore, id model.ObjectID, spec *kindSpec[U, C, P]) (timeslice.Reader[C], error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	r, err := lookup(ds, id, spec)
	if err != nil {
		return nil, err
	}
	return r.commands, nil
}

// Platform

// EditPlatformPrefs starts a transaction on the committed prefs of platform id.
func (ds *DataStore) EditPlatformPrefs(id model.ObjectID) (*PrefsTxn[model.PlatformPrefs], error) {
	return editPrefs(ds, id, platformSpec)
}

// PlatformPrefs returns a copy of the live prefs of platform id.
func (ds *DataStore) PlatformPrefs(id model.ObjectID) (*model.PlatformPrefs, error) {
	return livePrefs(ds, id, platformSpec)
}

// AddPlatformUpdate inserts an update into the history of platform id.
func (ds *DataStore) AddPlatformUpdate(id model.ObjectID, u model.PlatformUpdate) error {
	return addUpdate(ds, id, platformSpec, u)
}

// AddPlatformCommand inserts a command into the history of platform id. It takes
// effect at the next Update.
func (ds *DataStore) AddPlatformCommand(id model.ObjectID, c model.PlatformCommand) error {
	return addCommand(ds, id, platformSpec, c)
}

// PlatformUpdateSlice returns a read-only view of the updates of platform id.
func (ds *DataStore) PlatformUpdateSlice(id model.ObjectID) (timeslice.Reader[model.PlatformUpdate], error) {
	return updateSlice(ds, id, platformSpec)
}

// PlatformCommandSlice returns a read-only view of the commands of platform id.
func (ds *DataStore) PlatformCommandSlice(id model.ObjectID) (timeslice.Reader[model.PlatformCommand], error) {
	return commandSlice(ds, id, platformSpec)
}

// Beam

// EditBeamPrefs starts a transaction on the committed prefs of beam id.
func (ds *DataStore) EditBeamPrefs(id model.ObjectID) (*PrefsTxn[model.BeamPrefs], error) {
	return editPrefs(ds, id, beamSpec)
}

// BeamPrefs returns a copy of the live prefs of beam id.
func (ds *DataStore) BeamPrefs(id model.ObjectID) (*model.BeamPrefs, error) {
	return livePrefs(ds, id, beamSpec)
}

// AddBeamUpdate inserts an update into the history of beam id.
func (ds *DataStore) AddBeamUpdate(id model.ObjectID, u model.BeamUpdate) error {
	return addUpdate(ds, id, beamSpec, u)
}

// AddBeamCommand inserts a command into the history of beam id. It takes
// effect at the next Update.
func (ds *DataStore) AddBeamCommand(id model.ObjectID, c model.BeamCommand) error {
	return addCommand(ds, id, beamSpec, c)
}

// BeamUpdateSlice returns a read-only view of the updates of beam id.
func (ds *DataStore) BeamUpdateSlice(id model.ObjectID) (timeslice.Reader[model.BeamUpdate], error) {
	return updateSlice(ds, id, beamSpec)
}

// BeamCommandSlice returns a read-only view of the commands of beam id.
func (ds *DataStore) BeamCommandSlice(id model.ObjectID) (timeslice.Reader[model.BeamCommand], error) {
	return commandSlice(ds, id, beamSpec)
}

// Gate

// EditGatePrefs starts a transaction on the committed prefs of gate id.
func (ds *DataStore) EditGatePrefs(id model.ObjectID) (*PrefsTxn[model.GatePrefs], error) {
	return editPrefs(ds, id, gateSpec)
}

// GatePrefs returns a copy of the live prefs of gate id.
func (ds *DataStore) GatePrefs(id model.ObjectID) (*model.GatePrefs, error) {
	return livePrefs(ds, id, gateSpec)
}

// AddGateUpdate inserts an update into the history of gate id.
func (ds *DataStore) AddGateUpdate(id model.ObjectID, u model.GateUpdate) error {
	return addUpdate(ds, id, gateSpec, u)
}

// AddGateCommand inserts a command into the history of gate id. It takes
// effect at the next Update.
func (ds *DataStore) AddGateCommand(id model.ObjectID, c model.GateCommand) error {
	return addCommand(ds, id, gateSpec, c)
}

// GateUpdateSlice returns a read-only view of the updates of gate id.
func (ds *DataStore) GateUpdateSlice(id model.ObjectID) (timeslice.Reader[model.GateUpdate], error) {
	return updateSlice(ds, id, gateSpec)
}

// GateCommandSlice returns a read-only view of the commands of gate id.
func (ds *DataStore) GateCommandSlice(id model.ObjectID) (timeslice.Reader[model.GateCommand], error) {
	return commandSlice(ds, id, gateSpec)
}

// Laser

// EditLaserPrefs starts a transaction on the committed prefs of laser id.
func (ds *DataStore) EditLaserPrefs(id model.ObjectID) (*PrefsTxn[model.LaserPrefs], error) {
	return editPrefs(ds, id, laserSpec)
}

// LaserPrefs returns a copy of the live prefs of laser id.
func (ds *DataStore) LaserPrefs(id model.ObjectID) (*model.LaserPrefs, error) {
	return livePrefs(ds, id, laserSpec)
}

// AddLaserUpdate inserts an update into the history of laser id.
func (ds *DataStore) AddLaserUpdate(id model.ObjectID, u model.LaserUpdate) error {
	return addUpdate(ds, id, laserSpec, u)
}

// AddLaserCommand inserts a command into the history of laser id. It takes
// effect at the next Update.
func (ds *DataStore) AddLaserCommand(id model.ObjectID, c model.LaserCommand) error {
	return addCommand(ds, id, laserSpec, c)
}

// LaserUpdateSlice returns a read-only view of the updates of laser id.
func (ds *DataStore) LaserUpdateSlice(id model.ObjectID) (timeslice.Reader[model.LaserUpdate], error) {
	return updateSlice(ds, id, laserSpec)
}

// LaserCommandSlice returns a read-only view of the commands of laser id.
func (ds *DataStore) LaserCommandSlice(id model.ObjectID) (timeslice.Reader[model.LaserCommand], error) {
	return commandSlice(ds, id, laserSpec)
}

// LOB group

// EditLobGroupPrefs starts a transaction on the committed prefs of lob group id.
func (ds *DataStore) EditLobGroupPrefs(id model.ObjectID) (*PrefsTxn[model.LobGroupPrefs], error) {
	return editPrefs(ds, id, lobGroupSpec)
}

// LobGroupPrefs returns a copy of the live prefs of lob group id.
func (ds *DataStore) LobGroupPrefs(id model.ObjectID) (*model.LobGroupPrefs, error) {
	return livePrefs(ds, id, lobGroupSpec)
}

// AddLobGroupUpdate inserts an update into the history of lob group id.
func (ds *DataStore) AddLobGroupUpdate(id model.ObjectID, u model.LobGroupUpdate) error {
	return addUpdate(ds, id, lobGroupSpec, u)
}

// AddLobGroupCommand inserts a command into the history of lob group id. It takes
// effect at the next Update.
func (ds *DataStore) AddLobGroupCommand(id model.ObjectID, c model.LobGroupCommand) error {
	return addCommand(ds, id, lobGroupSpec, c)
}

// LobGroupUpdateSlice returns a read-only view of the updates of lob group id.
func (ds *DataStore) LobGroupUpdateSlice(id model.ObjectID) (timeslice.Reader[model.LobGroupUpdate], error) {
	return updateSlice(ds, id, lobGroupSpec)
}

// LobGroupCommandSlice returns a read-only view of the commands of lob group id.
func (ds *DataStore) LobGroupCommandSlice(id model.ObjectID) (timeslice.Reader[model.LobGroupCommand], error) {
	return commandSlice(ds, id, lobGroupSpec)
}

// Projector

// EditProjectorPrefs starts a transaction on the committed prefs of projector id.
func (ds *DataStore) EditProjectorPrefs(id model.ObjectID) (*PrefsTxn[model.ProjectorPrefs], error) {
	return editPrefs(ds, id, projectorSpec)
}

// ProjectorPrefs returns a copy of the live prefs of projector id.
func (ds *DataStore) ProjectorPrefs(id model.ObjectID) (*model.ProjectorPrefs, error) {
	return livePrefs(ds, id, projectorSpec)
}

// AddProjectorUpdate inserts an update into the history of projector id.
func (ds *DataStore) AddProjectorUpdate(id model.ObjectID, u model.ProjectorUpdate) error {
	return addUpdate(ds, id, projectorSpec, u)
}

// AddProjectorCommand inserts a command into the history of projector id. It takes
// effect at the next Update.
func (ds *DataStore) AddProjectorCommand(id model.ObjectID, c model.ProjectorCommand) error {
	return addCommand(ds, id, projectorSpec, c)
}

// ProjectorUpdateSlice returns a read-only view of the updates of projector id.
func (ds *DataStore) ProjectorUpdateSlice(id model.ObjectID) (timeslice.Reader[model.ProjectorUpdate], error) {
	return updateSlice(ds, id, projectorSpec)
}

// ProjectorCommandSlice returns a read-only view of the commands of projector id.
func (ds *DataStore) ProjectorCommandSlice(id model.ObjectID) (timeslice.Reader[model.ProjectorCommand], error) {
	return commandSlice(ds, id, projectorSpec)
}

// Custom rendering. There is no update slice.

// EditCustomRenderingPrefs starts a transaction on the committed prefs of custom rendering id.
func (ds *DataStore) EditCustomRenderingPrefs(id model.ObjectID) (*PrefsTxn[model.CustomRenderingPrefs], error) {
	return editPrefs(ds, id, customRenderingSpec)
}

// CustomRenderingPrefs returns a copy of the live prefs of custom rendering id.
func (ds *DataStore) CustomRenderingPrefs(id model.ObjectID) (*model.CustomRenderingPrefs, error) {
	return livePrefs(ds, id, customRenderingSpec)
}

// AddCustomRenderingCommand inserts a command into the history of custom rendering id. It takes
// effect at the next Update.
func (ds *DataStore) AddCustomRenderingCommand(id model.ObjectID, c model.CustomRenderingCommand) error {
	return addCommand(ds, id, customRenderingSpec, c)
}

// CustomRenderingCommandSlice returns a read-only view of the commands of custom rendering id.
func (ds *DataStore) CustomRenderingCommandSlice(id model.ObjectID) (timeslice.Reader[model.CustomRenderingCommand], error) {
	return commandSlice(ds, id, customRenderingSpec)
}

// Category and generic data

// AddCategoryData appends a category data point to an entity.
func (ds *DataStore) AddCategoryData(id model.ObjectID, cd model.CategoryData) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	e, ok := ds.entities[id]
	if !ok {
		return fmt.Errorf("category data %d: %w", id, ErrNotFound)
	}
	e.categoryData().Insert(cd)
	return nil
}

// CategoryDataSlice returns a read-only view of the category data of an
// entity.
func (ds *DataStore) CategoryDataSlice(id model.ObjectID) (timeslice.CategoryReader, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	e, ok := ds.entities[id]
	if !ok {
		return nil, fmt.Errorf("category data %d: %w", id, ErrNotFound)
	}
	return e.categoryData(), nil
}

// AddGenericData appends a generic data entry to an entity or, for
// model.ScenarioID, to the scenario.
func (ds *DataStore) AddGenericData(id model.ObjectID, gd model.GenericData) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	s, err := ds.genericLocked(id)
	if err != nil {
		return err
	}
	s.Insert(gd)
	return nil
}

// GenericDataSlice returns a read-only view of the generic data of an
// entity or the scenario.
func (ds *DataStore) GenericDataSlice(id model.ObjectID) (timeslice.GenericReader, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	s, err := ds.genericLocked(id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (ds *DataStore) genericLocked(id model.ObjectID) (*timeslice.GenericDataSlice, error) {
	if id == model.ScenarioID {
		return ds.scenarioGeneric, nil
	}
	e, ok := ds.entities[id]
	if !ok {
		return nil, fmt.Errorf("generic data %d: %w", id, ErrNotFound)
	}
	return e.genericData(), nil
}
