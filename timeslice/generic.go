package timeslice

import (
	"maps"

	"github.com/signalsfoundry/simdata/model"
)

// GenericDataSlice holds key/value annotations and resolves which keys are
// in force at the last updated time.
type GenericDataSlice struct {
	TimeSlice[model.GenericData]

	current map[string]string
}

// NewGenericDataSlice returns an empty generic data slice.
func NewGenericDataSlice() *GenericDataSlice {
	s := &GenericDataSlice{current: make(map[string]string)}
	s.rewind()
	return s
}

// Update resolves the values in force at t. A key takes the value of its
// latest entry at or before t unless that entry has expired.
func (s *GenericDataSlice) Update(t float64) {
	s.TimeSlice.Update(t)
	latest := make(map[string]model.GenericData)
	for _, gd := range s.items[:s.pos] {
		latest[gd.Key] = gd
	}
	next := make(map[string]string, len(latest))
	for key, gd := range latest {
		if !gd.Expired(t) {
			next[key] = gd.Value
		}
	}
	s.changed = !maps.Equal(next, s.current)
	s.current = next
}

// CurrentValues returns a copy of the key/values in force.
func (s *GenericDataSlice) CurrentValues() map[string]string {
	return maps.Clone(s.current)
}

// Value returns one key's value at the last updated time.
func (s *GenericDataSlice) Value(key string) (string, bool) {
	v, ok := s.current[key]
	return v, ok
}

// Clear removes every entry.
func (s *GenericDataSlice) Clear() {
	s.TimeSlice.Clear()
	s.current = make(map[string]string)
}
