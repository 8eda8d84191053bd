package datastore

import (
	"github.com/signalsfoundry/simdata/model"
	"github.com/signalsfoundry/simdata/timeslice"
)

// kindSpec is the per-kind function table shared by every record of that
// kind.
type kindSpec[U timeslice.Timed, C timeslice.Timed, P any] struct {
	kind          model.EntityKind
	prefs         func(C) *P
	merge         func(dst, src *P)
	resetDefaults func(*P)
}

// noUpdate stands in for kinds without kinematic updates.
type noUpdate struct{}

func (noUpdate) At() float64 { return 0 }

var platformSpec = &kindSpec[model.PlatformUpdate, model.PlatformCommand, model.PlatformPrefs]{
	kind:          model.KindPlatform,
	prefs:         func(c model.PlatformCommand) *model.PlatformPrefs { return c.UpdatePrefs },
	merge:         (*model.PlatformPrefs).MergeFrom,
	resetDefaults: (*model.PlatformPrefs).ResetDefaults,
}

var beamSpec = &kindSpec[model.BeamUpdate, model.BeamCommand, model.BeamPrefs]{
	kind:          model.KindBeam,
	prefs:         func(c model.BeamCommand) *model.BeamPrefs { return c.UpdatePrefs },
	merge:         (*model.BeamPrefs).MergeFrom,
	resetDefaults: (*model.BeamPrefs).ResetDefaults,
}

var gateSpec = &kindSpec[model.GateUpdate, model.GateCommand, model.GatePrefs]{
	kind:          model.KindGate,
	prefs:         func(c model.GateCommand) *model.GatePrefs { return c.UpdatePrefs },
	merge:         (*model.GatePrefs).MergeFrom,
	resetDefaults: (*model.GatePrefs).ResetDefaults,
}

var laserSpec = &kindSpec[model.LaserUpdate, model.LaserCommand, model.LaserPrefs]{
	kind:          model.KindLaser,
	prefs:         func(c model.LaserCommand) *model.LaserPrefs { return c.UpdatePrefs },
	merge:         (*model.LaserPrefs).MergeFrom,
	resetDefaults: (*model.LaserPrefs).ResetDefaults,
}

var lobGroupSpec = &kindSpec[model.LobGroupUpdate, model.LobGroupCommand, model.LobGroupPrefs]{
	kind:          model.KindLobGroup,
	prefs:         func(c model.LobGroupCommand) *model.LobGroupPrefs { return c.UpdatePrefs },
	merge:         (*model.LobGroupPrefs).MergeFrom,
	resetDefaults: (*model.LobGroupPrefs).ResetDefaults,
}

var projectorSpec = &kindSpec[model.ProjectorUpdate, model.ProjectorCommand, model.ProjectorPrefs]{
	kind:          model.KindProjector,
	prefs:         func(c model.ProjectorCommand) *model.ProjectorPrefs { return c.UpdatePrefs },
	merge:         (*model.ProjectorPrefs).MergeFrom,
	resetDefaults: (*model.ProjectorPrefs).ResetDefaults,
}

var customRenderingSpec = &kindSpec[noUpdate, model.CustomRenderingCommand, model.CustomRenderingPrefs]{
	kind:          model.KindCustomRendering,
	prefs:         func(c model.CustomRenderingCommand) *model.CustomRenderingPrefs { return c.UpdatePrefs },
	merge:         (*model.CustomRenderingPrefs).MergeFrom,
	resetDefaults: (*model.CustomRenderingPrefs).ResetDefaults,
}

// newEntry builds an empty record for props.Kind.
func newEntry(props model.Properties) entry {
	switch props.Kind {
	case model.KindPlatform:
		return newRecord(platformSpec, props)
	case model.KindBeam:
		return newRecord(beamSpec, props)
	case model.KindGate:
		return newRecord(gateSpec, props)
	case model.KindLaser:
		return newRecord(laserSpec, props)
	case model.KindLobGroup:
		return newRecord(lobGroupSpec, props)
	case model.KindProjector:
		return newRecord(projectorSpec, props)
	case model.KindCustomRendering:
		return newRecord(customRenderingSpec, props)
	default:
		return nil
	}
}
