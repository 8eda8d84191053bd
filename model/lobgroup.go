package model

// LobGroupPrefs are the mutable display settings of a line-of-bearing group.
type LobGroupPrefs struct {
	Common         *CommonPrefs `json:"common,omitempty"`
	LobWidth       *int32       `json:"lob_width,omitempty"`
	MaxDataSeconds *float64     `json:"max_data_seconds,omitempty"`
	MaxDataPoints  *uint32      `json:"max_data_points,omitempty"`
	Color1         *uint32      `json:"color1,omitempty"`
}

func (p *LobGroupPrefs) GetCommon() *CommonPrefs {
	if p == nil {
		return nil
	}
	return p.Common
}

// MergeFrom overlays every field set in src onto p.
func (p *LobGroupPrefs) MergeFrom(src *LobGroupPrefs) {
	if src == nil {
		return
	}
	mergeCommon(&p.Common, src.Common)
	mergeScalar(&p.LobWidth, src.LobWidth)
	mergeScalar(&p.MaxDataSeconds, src.MaxDataSeconds)
	mergeScalar(&p.MaxDataPoints, src.MaxDataPoints)
	mergeScalar(&p.Color1, src.Color1)
}

func (p *LobGroupPrefs) ClearRepeated() {
	p.Common.ClearRepeated()
}

func (p *LobGroupPrefs) ResetDefaults() {
	resetCommon(&p.Common)
}

// LobGroupCommand is a time-stamped preference change for a LOB group.
type LobGroupCommand struct {
	Time        float64        `json:"time"`
	UpdatePrefs *LobGroupPrefs `json:"update_prefs,omitempty"`
}

func (c LobGroupCommand) At() float64 { return c.Time }

// LobPoint is one bearing line.
type LobPoint struct {
	Azimuth   float64 `json:"azimuth"`
	Elevation float64 `json:"elevation"`
	Range     float64 `json:"range"`
}

// LobGroupUpdate carries every bearing line reported at one time.
type LobGroupUpdate struct {
	Time   float64    `json:"time"`
	Points []LobPoint `json:"points,omitempty"`
}

func (u LobGroupUpdate) At() float64 { return u.Time }
