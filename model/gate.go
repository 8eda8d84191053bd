package model

// GatePrefs are the mutable display settings of a gate.
type GatePrefs struct {
	Common       *CommonPrefs `json:"common,omitempty"`
	DrawMode     *int32       `json:"draw_mode,omitempty"`
	FillPattern  *int32       `json:"fill_pattern,omitempty"`
	DrawCentroid *bool        `json:"draw_centroid,omitempty"`
}

func (p *GatePrefs) GetCommon() *CommonPrefs {
	if p == nil {
		return nil
	}
	return p.Common
}

// MergeFrom overlays every field set in src onto p.
func (p *GatePrefs) MergeFrom(src *GatePrefs) {
	if src == nil {
		return
	}
	mergeCommon(&p.Common, src.Common)
	mergeScalar(&p.DrawMode, src.DrawMode)
	mergeScalar(&p.FillPattern, src.FillPattern)
	mergeScalar(&p.DrawCentroid, src.DrawCentroid)
}

// ClearRepeated empties every repeated field, including nested ones.
func (p *GatePrefs) ClearRepeated() {
	p.Common.ClearRepeated()
}

// ResetDefaults hides the gate's data.
func (p *GatePrefs) ResetDefaults() {
	resetCommon(&p.Common)
}

// GateCommand is a time-stamped preference change for a gate.
type GateCommand struct {
	Time        float64    `json:"time"`
	UpdatePrefs *GatePrefs `json:"update_prefs,omitempty"`
}

func (c GateCommand) At() float64 { return c.Time }

// GateUpdate is a gate geometry sample. Angles in radians, ranges in metres.
type GateUpdate struct {
	Time        float64 `json:"time"`
	Azimuth     float64 `json:"azimuth"`
	Elevation   float64 `json:"elevation"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	MinRange    float64 `json:"min_range"`
	MaxRange    float64 `json:"max_range"`
	CenterRange float64 `json:"center_range"`
}

func (u GateUpdate) At() float64 { return u.Time }
