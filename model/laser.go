package model

// LaserPrefs are the mutable display settings of a laser.
type LaserPrefs struct {
	Common     *CommonPrefs `json:"common,omitempty"`
	LaserWidth *float64     `json:"laser_width,omitempty"`
	MaxRange   *float64     `json:"max_range,omitempty"`
}

func (p *LaserPrefs) GetCommon() *CommonPrefs {
	if p == nil {
		return nil
	}
	return p.Common
}

// MergeFrom overlays every field set in src onto p.
func (p *LaserPrefs) MergeFrom(src *LaserPrefs) {
	if src == nil {
		return
	}
	mergeCommon(&p.Common, src.Common)
	mergeScalar(&p.LaserWidth, src.LaserWidth)
	mergeScalar(&p.MaxRange, src.MaxRange)
}

func (p *LaserPrefs) ClearRepeated() {
	p.Common.ClearRepeated()
}

func (p *LaserPrefs) ResetDefaults() {
	resetCommon(&p.Common)
}

// LaserCommand is a time-stamped preference change for a laser.
type LaserCommand struct {
	Time        float64     `json:"time"`
	UpdatePrefs *LaserPrefs `json:"update_prefs,omitempty"`
}

func (c LaserCommand) At() float64 { return c.Time }

// LaserUpdate is an orientation sample in radians.
type LaserUpdate struct {
	Time  float64 `json:"time"`
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

func (u LaserUpdate) At() float64 { return u.Time }
