// Package timeslice holds the per-entity, per-kind time-ordered record
// containers and the command replay engine built on top of them.
package timeslice

import (
	"math"
	"sort"

	"github.com/signalsfoundry/simdata/model"
)

// Timed is implemented by every record kept in a slice.
type Timed interface {
	At() float64
}

// Reader is the read-only view of a slice handed to consumers. Values
// returned from it must not be modified.
type Reader[T Timed] interface {
	NumItems() int
	Current() (T, bool)
	Lookup(t float64) (T, bool)
	Bounds() (first, last float64, ok bool)
	Visit(fn func(T) bool)
	Changed() bool
}

// CategoryReader is the read-only view of a CategoryDataSlice.
type CategoryReader interface {
	Reader[model.CategoryData]
	CurrentValues() map[string]string
	Value(name string) (string, bool)
	ValueAt(name string, t float64) (string, bool)
	Names() []string
}

// GenericReader is the read-only view of a GenericDataSlice.
type GenericReader interface {
	Reader[model.GenericData]
	CurrentValues() map[string]string
	Value(key string) (string, bool)
}

var (
	_ CategoryReader = (*CategoryDataSlice)(nil)
	_ GenericReader  = (*GenericDataSlice)(nil)
)

// TimeSlice keeps records sorted ascending by time. Records sharing a time
// keep insertion order, so the last one inserted wins lookups.
type TimeSlice[T Timed] struct {
	items []T

	// pos is the number of records with time <= lastTime; items[pos-1] is
	// the record in force at lastTime.
	pos      int
	lastTime float64

	dirty   bool
	changed bool
}

// New returns an empty slice that has not been updated to any time.
func New[T Timed]() *TimeSlice[T] {
	s := &TimeSlice[T]{}
	s.rewind()
	return s
}

func (s *TimeSlice[T]) rewind() {
	s.pos = 0
	s.lastTime = negInf
}

// Insert adds item in time order.
func (s *TimeSlice[T]) Insert(item T) {
	t := item.At()
	i := s.upperBound(t)
	s.items = append(s.items, item)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = item
	if t <= s.lastTime {
		s.pos++
	}
	s.dirty = true
}

// NumItems returns the number of records held.
func (s *TimeSlice[T]) NumItems() int { return len(s.items) }

// Current returns the record in force at the last updated time.
func (s *TimeSlice[T]) Current() (T, bool) {
	if s.pos == 0 {
		var zero T
		return zero, false
	}
	return s.items[s.pos-1], true
}

// Lookup returns the last record with time <= t.
func (s *TimeSlice[T]) Lookup(t float64) (T, bool) {
	i := s.upperBound(t)
	if i == 0 {
		var zero T
		return zero, false
	}
	return s.items[i-1], true
}

// Bounds returns the first and last record times.
func (s *TimeSlice[T]) Bounds() (first, last float64, ok bool) {
	if len(s.items) == 0 {
		return 0, 0, false
	}
	return s.items[0].At(), s.items[len(s.items)-1].At(), true
}

// Visit calls fn for each record in time order until fn returns false.
func (s *TimeSlice[T]) Visit(fn func(T) bool) {
	for _, item := range s.items {
		if !fn(item) {
			return
		}
	}
}

// VisitRange calls fn for each record with begin <= time <= end, in time
// order, until fn returns false.
func (s *TimeSlice[T]) VisitRange(begin, end float64, fn func(T) bool) {
	for i := s.lowerBound(begin); i < len(s.items); i++ {
		if s.items[i].At() > end || !fn(s.items[i]) {
			return
		}
	}
}

// Items returns a copy of the records in time order.
func (s *TimeSlice[T]) Items() []T {
	return append([]T(nil), s.items...)
}

// Update moves the slice to time t and records whether the record in force
// differs from the previous update.
func (s *TimeSlice[T]) Update(t float64) {
	pos := s.upperBound(t)
	s.changed = s.dirty || pos != s.pos
	s.pos = pos
	s.lastTime = t
	s.dirty = false
}

// Changed reports whether the last Update changed the record in force.
func (s *TimeSlice[T]) Changed() bool { return s.changed }

// LastUpdateTime returns the time passed to the last Update.
func (s *TimeSlice[T]) LastUpdateTime() float64 { return s.lastTime }

// Flush removes records with start <= time < end. With keepStatic set,
// records at model.StaticTime survive. It returns the number removed.
func (s *TimeSlice[T]) Flush(start, end float64, keepStatic bool) int {
	return s.removeIf(func(_ int, item T) bool {
		t := item.At()
		if keepStatic && t == model.StaticTime {
			return false
		}
		return t >= start && t < end
	})
}

// Clear removes every record.
func (s *TimeSlice[T]) Clear() {
	if len(s.items) > 0 {
		s.dirty = true
	}
	s.items = nil
	s.pos = 0
}

func (s *TimeSlice[T]) removeIf(drop func(i int, item T) bool) int {
	kept := s.items[:0]
	removed := 0
	for i, item := range s.items {
		if drop(i, item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	var zero T
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = zero
	}
	s.items = kept
	if removed > 0 {
		s.pos = s.upperBound(s.lastTime)
		s.dirty = true
	}
	return removed
}

// upperBound returns the index of the first record with time > t.
func (s *TimeSlice[T]) upperBound(t float64) int {
	return sort.Search(len(s.items), func(i int) bool { return s.items[i].At() > t })
}

// lowerBound returns the index of the first record with time >= t.
func (s *TimeSlice[T]) lowerBound(t float64) int {
	return sort.Search(len(s.items), func(i int) bool { return s.items[i].At() >= t })
}

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)
