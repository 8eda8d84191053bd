package model

// CustomRenderingPrefs are the mutable settings of an entity drawn by an
// external renderer.
type CustomRenderingPrefs struct {
	Common     *CommonPrefs `json:"common,omitempty"`
	Persistent *bool        `json:"persistent,omitempty"`
	Renderer   *string      `json:"renderer,omitempty"`
}

func (p *CustomRenderingPrefs) GetCommon() *CommonPrefs {
	if p == nil {
		return nil
	}
	return p.Common
}

// MergeFrom overlays every field set in src onto p.
func (p *CustomRenderingPrefs) MergeFrom(src *CustomRenderingPrefs) {
	if src == nil {
		return
	}
	mergeCommon(&p.Common, src.Common)
	mergeScalar(&p.Persistent, src.Persistent)
	mergeScalar(&p.Renderer, src.Renderer)
}

func (p *CustomRenderingPrefs) ClearRepeated() {
	p.Common.ClearRepeated()
}

func (p *CustomRenderingPrefs) ResetDefaults() {
	resetCommon(&p.Common)
}

// CustomRenderingCommand is a time-stamped preference change for a custom
// rendering entity.
type CustomRenderingCommand struct {
	Time        float64               `json:"time"`
	UpdatePrefs *CustomRenderingPrefs `json:"update_prefs,omitempty"`
}

func (c CustomRenderingCommand) At() float64 { return c.Time }
