package model

import (
	"fmt"
	"strings"
)

// ObjectID uniquely identifies an entity in a data store.
type ObjectID uint64

// ScenarioID is the pseudo-entity that owns scenario-level generic data and
// data tables. Top-level entities are hosted by it.
const ScenarioID ObjectID = 0

// EntityKind is the closed set of entity types held by a data store.
type EntityKind int

const (
	KindNone EntityKind = iota
	KindPlatform
	KindBeam
	KindGate
	KindLaser
	KindLobGroup
	KindProjector
	KindCustomRendering
)

// AllKinds lists every concrete entity kind in a stable order.
var AllKinds = []EntityKind{
	KindPlatform,
	KindBeam,
	KindGate,
	KindLaser,
	KindLobGroup,
	KindProjector,
	KindCustomRendering,
}

func (k EntityKind) String() string {
	switch k {
	case KindPlatform:
		return "platform"
	case KindBeam:
		return "beam"
	case KindGate:
		return "gate"
	case KindLaser:
		return "laser"
	case KindLobGroup:
		return "lob_group"
	case KindProjector:
		return "projector"
	case KindCustomRendering:
		return "custom_rendering"
	default:
		return "none"
	}
}

// ParseEntityKind converts the String form back into an EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range AllKinds {
		if k.String() == s {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("unknown entity kind %q", s)
}

// ValidHosts reports which kinds may host an entity of kind k. KindNone in
// the result stands for the scenario.
func (k EntityKind) ValidHosts() []EntityKind {
	switch k {
	case KindPlatform:
		return []EntityKind{KindNone}
	case KindBeam, KindLaser, KindLobGroup:
		return []EntityKind{KindPlatform}
	case KindGate:
		return []EntityKind{KindBeam}
	case KindProjector:
		return []EntityKind{KindPlatform, KindBeam}
	case KindCustomRendering:
		return []EntityKind{KindPlatform, KindNone}
	default:
		return nil
	}
}

// BeamType describes how a beam's pointing is specified.
type BeamType int

const (
	BeamAbsolutePosition BeamType = iota
	BeamBodyRelative
	BeamTarget
)

// GateType describes how a gate's pointing is specified.
type GateType int

const (
	GateAbsolutePosition GateType = iota
	GateBodyRelative
	GateTarget
)

// Properties are the identity of an entity. They are fixed once the entity
// has been committed to a store.
type Properties struct {
	ID         ObjectID   `json:"id"`
	Kind       EntityKind `json:"kind"`
	HostID     ObjectID   `json:"host_id"`
	OriginalID uint64     `json:"original_id,omitempty"`
	Source     string     `json:"source,omitempty"`

	// Kind-specific creation parameters.
	BeamType BeamType `json:"beam_type,omitempty"`
	GateType GateType `json:"gate_type,omitempty"`
}
