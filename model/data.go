package model

// StaticTime marks records that are valid at every time. Flushes that carry
// the exclude-minus-one modifier keep them.
const StaticTime = -1.0

// CategoryData is a time-stamped name/value classification of an entity.
type CategoryData struct {
	Time  float64 `json:"time"`
	Name  string  `json:"name"`
	Value string  `json:"value"`
}

func (c CategoryData) At() float64 { return c.Time }

// GenericData is a time-stamped key/value annotation. A Duration of zero or
// less never expires.
type GenericData struct {
	Time     float64 `json:"time"`
	Key      string  `json:"key"`
	Value    string  `json:"value"`
	Duration float64 `json:"duration,omitempty"`
}

func (g GenericData) At() float64 { return g.Time }

// Expired reports whether g is no longer in force at t.
func (g GenericData) Expired(t float64) bool {
	return g.Duration > 0 && t >= g.Time+g.Duration
}
