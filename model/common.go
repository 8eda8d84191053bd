package model

// Helpers for populating optional preference fields.
func Bool(v bool) *bool          { return &v }
func Int32(v int32) *int32       { return &v }
func Uint32(v uint32) *uint32    { return &v }
func Uint64(v uint64) *uint64    { return &v }
func Float64(v float64) *float64 { return &v }
func String(v string) *string    { return &v }
func ID(v ObjectID) *ObjectID    { return &v }

// LabelPrefs control the text label drawn next to an entity.
type LabelPrefs struct {
	Draw     *bool   `json:"draw,omitempty"`
	FontSize *int32  `json:"font_size,omitempty"`
	Color    *uint32 `json:"color,omitempty"`
}

// MergeFrom overlays every field set in src onto p.
func (p *LabelPrefs) MergeFrom(src *LabelPrefs) {
	if src == nil {
		return
	}
	mergeScalar(&p.Draw, src.Draw)
	mergeScalar(&p.FontSize, src.FontSize)
	mergeScalar(&p.Color, src.Color)
}

// CommonPrefs are the preferences shared by every entity kind.
type CommonPrefs struct {
	Draw             *bool       `json:"draw,omitempty"`
	DataDraw         *bool       `json:"data_draw,omitempty"`
	Name             *string     `json:"name,omitempty"`
	Color            *uint32     `json:"color,omitempty"`
	UseOverrideColor *bool       `json:"use_override_color,omitempty"`
	OverrideColor    *uint32     `json:"override_color,omitempty"`
	Label            *LabelPrefs `json:"label,omitempty"`

	// AcceptProjectorIDs is repeated; a set value replaces the previous list.
	AcceptProjectorIDs []ObjectID `json:"accept_projector_ids,omitempty"`
}

func (p *CommonPrefs) GetDraw() bool {
	if p == nil || p.Draw == nil {
		return false
	}
	return *p.Draw
}

func (p *CommonPrefs) GetDataDraw() bool {
	if p == nil || p.DataDraw == nil {
		return false
	}
	return *p.DataDraw
}

func (p *CommonPrefs) GetName() string {
	if p == nil || p.Name == nil {
		return ""
	}
	return *p.Name
}

func (p *CommonPrefs) GetColor() uint32 {
	if p == nil || p.Color == nil {
		return 0
	}
	return *p.Color
}

// MergeFrom overlays every field set in src onto p. Nested messages merge
// field by field; repeated fields present in src replace those in p.
func (p *CommonPrefs) MergeFrom(src *CommonPrefs) {
	if src == nil {
		return
	}
	mergeScalar(&p.Draw, src.Draw)
	mergeScalar(&p.DataDraw, src.DataDraw)
	mergeScalar(&p.Name, src.Name)
	mergeScalar(&p.Color, src.Color)
	mergeScalar(&p.UseOverrideColor, src.UseOverrideColor)
	mergeScalar(&p.OverrideColor, src.OverrideColor)
	if src.Label != nil {
		if p.Label == nil {
			p.Label = &LabelPrefs{}
		}
		p.Label.MergeFrom(src.Label)
	}
	mergeRepeated(&p.AcceptProjectorIDs, src.AcceptProjectorIDs)
}

// ClearRepeated empties every repeated field.
func (p *CommonPrefs) ClearRepeated() {
	if p == nil {
		return
	}
	p.AcceptProjectorIDs = nil
}

// mutableCommon returns *c, allocating it first when needed.
func mutableCommon(c **CommonPrefs) *CommonPrefs {
	if *c == nil {
		*c = &CommonPrefs{}
	}
	return *c
}

func mergeCommon(dst **CommonPrefs, src *CommonPrefs) {
	if src == nil {
		return
	}
	mutableCommon(dst).MergeFrom(src)
}

// resetCommon forces the fields that must not survive a reset to their
// explicit defaults.
func resetCommon(c **CommonPrefs) {
	mutableCommon(c).DataDraw = Bool(false)
}

func mergeScalar[T any](dst **T, src *T) {
	if src == nil {
		return
	}
	v := *src
	*dst = &v
}

// mergeRepeated replaces dst wholesale when src is non-nil. A non-nil empty
// src clears dst.
func mergeRepeated[T any](dst *[]T, src []T) {
	if src == nil {
		return
	}
	*dst = append(make([]T, 0, len(src)), src...)
}
