package model

// BeamPrefs are the mutable display settings of a beam.
type BeamPrefs struct {
	Common          *CommonPrefs `json:"common,omitempty"`
	TargetID        *ObjectID    `json:"target_id,omitempty"`
	DrawMode        *int32       `json:"draw_mode,omitempty"`
	HorizontalWidth *float64     `json:"horizontal_width,omitempty"`
	VerticalWidth   *float64     `json:"vertical_width,omitempty"`
	Gain            *float64     `json:"gain,omitempty"`
}

func (p *BeamPrefs) GetCommon() *CommonPrefs {
	if p == nil {
		return nil
	}
	return p.Common
}

func (p *BeamPrefs) GetTargetID() ObjectID {
	if p == nil || p.TargetID == nil {
		return ScenarioID
	}
	return *p.TargetID
}

// MergeFrom overlays every field set in src onto p.
func (p *BeamPrefs) MergeFrom(src *BeamPrefs) {
	if src == nil {
		return
	}
	mergeCommon(&p.Common, src.Common)
	mergeScalar(&p.TargetID, src.TargetID)
	mergeScalar(&p.DrawMode, src.DrawMode)
	mergeScalar(&p.HorizontalWidth, src.HorizontalWidth)
	mergeScalar(&p.VerticalWidth, src.VerticalWidth)
	mergeScalar(&p.Gain, src.Gain)
}

// ClearRepeated empties every repeated field, including nested ones.
func (p *BeamPrefs) ClearRepeated() {
	p.Common.ClearRepeated()
}

// ResetDefaults clears the target and hides the beam's data.
func (p *BeamPrefs) ResetDefaults() {
	p.TargetID = nil
	resetCommon(&p.Common)
}

// BeamCommand is a time-stamped preference change for a beam.
type BeamCommand struct {
	Time        float64    `json:"time"`
	UpdatePrefs *BeamPrefs `json:"update_prefs,omitempty"`
}

func (c BeamCommand) At() float64 { return c.Time }

// BeamUpdate is a pointing sample. Angles in radians, range in metres.
type BeamUpdate struct {
	Time      float64 `json:"time"`
	Azimuth   float64 `json:"azimuth"`
	Elevation float64 `json:"elevation"`
	Range     float64 `json:"range"`
}

func (u BeamUpdate) At() float64 { return u.Time }
