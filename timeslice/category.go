package timeslice

import (
	"maps"
	"sort"

	"github.com/signalsfoundry/simdata/model"
)

// CategoryDataSlice holds an entity's category data and resolves the value
// of every category name at the last updated time.
type CategoryDataSlice struct {
	TimeSlice[model.CategoryData]

	current map[string]string
}

// NewCategoryDataSlice returns an empty category data slice.
func NewCategoryDataSlice() *CategoryDataSlice {
	s := &CategoryDataSlice{current: make(map[string]string)}
	s.rewind()
	return s
}

// Update resolves the current value of every category at t.
func (s *CategoryDataSlice) Update(t float64) {
	s.TimeSlice.Update(t)
	if !s.changed {
		return
	}
	next := make(map[string]string, len(s.current))
	for _, cd := range s.items[:s.pos] {
		next[cd.Name] = cd.Value
	}
	s.changed = !maps.Equal(next, s.current)
	s.current = next
}

// CurrentValues returns a copy of the category values in force.
func (s *CategoryDataSlice) CurrentValues() map[string]string {
	return maps.Clone(s.current)
}

// Value returns the value of one category at the last updated time.
func (s *CategoryDataSlice) Value(name string) (string, bool) {
	v, ok := s.current[name]
	return v, ok
}

// ValueAt returns the value of one category at t without moving the slice.
func (s *CategoryDataSlice) ValueAt(name string, t float64) (string, bool) {
	for i := s.upperBound(t) - 1; i >= 0; i-- {
		if s.items[i].Name == name {
			return s.items[i].Value, true
		}
	}
	return "", false
}

// Names returns every category name seen, sorted.
func (s *CategoryDataSlice) Names() []string {
	seen := make(map[string]struct{})
	for _, cd := range s.items {
		seen[cd.Name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Flush removes points with start <= time < end. With keepStatic set, the
// points at model.StaticTime and the latest point of each category survive,
// so the category state shown after the flush is unchanged.
func (s *CategoryDataSlice) Flush(start, end float64, keepStatic bool) int {
	latest := make(map[string]int)
	if keepStatic {
		for i, cd := range s.items {
			latest[cd.Name] = i
		}
	}
	return s.removeIf(func(i int, cd model.CategoryData) bool {
		if keepStatic && (cd.Time == model.StaticTime || latest[cd.Name] == i) {
			return false
		}
		return cd.Time >= start && cd.Time < end
	})
}

// Clear removes every point.
func (s *CategoryDataSlice) Clear() {
	s.TimeSlice.Clear()
	s.current = make(map[string]string)
}
