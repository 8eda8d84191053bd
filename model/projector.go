package model

// ProjectorPrefs are the mutable display settings of a projector.
type ProjectorPrefs struct {
	Common         *CommonPrefs `json:"common,omitempty"`
	ProjectorAlpha *float64     `json:"projector_alpha,omitempty"`
	ShowFrustum    *bool        `json:"show_frustum,omitempty"`
	InterpolateFov *bool        `json:"interpolate_fov,omitempty"`
}

func (p *ProjectorPrefs) GetCommon() *CommonPrefs {
	if p == nil {
		return nil
	}
	return p.Common
}

// MergeFrom overlays every field set in src onto p.
func (p *ProjectorPrefs) MergeFrom(src *ProjectorPrefs) {
	if src == nil {
		return
	}
	mergeCommon(&p.Common, src.Common)
	mergeScalar(&p.ProjectorAlpha, src.ProjectorAlpha)
	mergeScalar(&p.ShowFrustum, src.ShowFrustum)
	mergeScalar(&p.InterpolateFov, src.InterpolateFov)
}

func (p *ProjectorPrefs) ClearRepeated() {
	p.Common.ClearRepeated()
}

func (p *ProjectorPrefs) ResetDefaults() {
	resetCommon(&p.Common)
}

// ProjectorCommand is a time-stamped preference change for a projector.
type ProjectorCommand struct {
	Time        float64         `json:"time"`
	UpdatePrefs *ProjectorPrefs `json:"update_prefs,omitempty"`
}

func (c ProjectorCommand) At() float64 { return c.Time }

// ProjectorUpdate is a field-of-view sample in radians.
type ProjectorUpdate struct {
	Time float64 `json:"time"`
	Fov  float64 `json:"fov"`
}

func (u ProjectorUpdate) At() float64 { return u.Time }
