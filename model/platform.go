package model

// TrackPrefs control the history trail drawn behind a platform.
type TrackPrefs struct {
	TrackDrawMode *int32   `json:"track_draw_mode,omitempty"`
	TrailLength   *float64 `json:"trail_length,omitempty"`
	LineWidth     *float64 `json:"line_width,omitempty"`
	TrackColor    *uint32  `json:"track_color,omitempty"`
}

// MergeFrom overlays every field set in src onto p.
func (p *TrackPrefs) MergeFrom(src *TrackPrefs) {
	if src == nil {
		return
	}
	mergeScalar(&p.TrackDrawMode, src.TrackDrawMode)
	mergeScalar(&p.TrailLength, src.TrailLength)
	mergeScalar(&p.LineWidth, src.LineWidth)
	mergeScalar(&p.TrackColor, src.TrackColor)
}

// PlatformPrefs are the mutable display settings of a platform.
type PlatformPrefs struct {
	Common       *CommonPrefs `json:"common,omitempty"`
	Icon         *string      `json:"icon,omitempty"`
	Scale        *float64     `json:"scale,omitempty"`
	DynamicScale *bool        `json:"dynamic_scale,omitempty"`
	Track        *TrackPrefs  `json:"track,omitempty"`

	// GogFiles is repeated; a set value replaces the previous list.
	GogFiles []string `json:"gog_files,omitempty"`
}

func (p *PlatformPrefs) GetCommon() *CommonPrefs {
	if p == nil {
		return nil
	}
	return p.Common
}

func (p *PlatformPrefs) GetIcon() string {
	if p == nil || p.Icon == nil {
		return ""
	}
	return *p.Icon
}

// MergeFrom overlays every field set in src onto p.
func (p *PlatformPrefs) MergeFrom(src *PlatformPrefs) {
	if src == nil {
		return
	}
	mergeCommon(&p.Common, src.Common)
	mergeScalar(&p.Icon, src.Icon)
	mergeScalar(&p.Scale, src.Scale)
	mergeScalar(&p.DynamicScale, src.DynamicScale)
	if src.Track != nil {
		if p.Track == nil {
			p.Track = &TrackPrefs{}
		}
		p.Track.MergeFrom(src.Track)
	}
	mergeRepeated(&p.GogFiles, src.GogFiles)
}

// ClearRepeated empties every repeated field, including nested ones.
func (p *PlatformPrefs) ClearRepeated() {
	p.Common.ClearRepeated()
	p.GogFiles = nil
}

// ResetDefaults forces the fields a command stream may have changed back to
// their explicit defaults.
func (p *PlatformPrefs) ResetDefaults() {
	resetCommon(&p.Common)
}

// PlatformCommand is a time-stamped preference change for a platform.
type PlatformCommand struct {
	Time        float64        `json:"time"`
	UpdatePrefs *PlatformPrefs `json:"update_prefs,omitempty"`
}

func (c PlatformCommand) At() float64 { return c.Time }

// PlatformUpdate is a kinematic sample. Position is ECEF metres, orientation
// radians, velocity metres per second.
type PlatformUpdate struct {
	Time  float64 `json:"time"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Psi   float64 `json:"psi"`
	Theta float64 `json:"theta"`
	Phi   float64 `json:"phi"`
	Vx    float64 `json:"vx"`
	Vy    float64 `json:"vy"`
	Vz    float64 `json:"vz"`
}

func (u PlatformUpdate) At() float64 { return u.Time }
