package timeslice

import (
	"reflect"
	"testing"

	"github.com/signalsfoundry/simdata/model"
)

func newUpdates(times ...float64) *TimeSlice[model.BeamUpdate] {
	s := New[model.BeamUpdate]()
	for i, tm := range times {
		s.Insert(model.BeamUpdate{Time: tm, Range: float64(i)})
	}
	return s
}

func times[T Timed](s *TimeSlice[T]) []float64 {
	var out []float64
	s.Visit(func(item T) bool {
		out = append(out, item.At())
		return true
	})
	return out
}

func TestInsertKeepsTimeOrder(t *testing.T) {
	s := newUpdates(5, 1, 3, 0, 4)
	if got, want := times(s), []float64{0, 1, 3, 4, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("times = %v, want %v", got, want)
	}
	first, last, ok := s.Bounds()
	if !ok || first != 0 || last != 5 {
		t.Fatalf("Bounds() = (%v, %v, %v), want (0, 5, true)", first, last, ok)
	}
}

func TestDuplicateTimesLastInsertedWins(t *testing.T) {
	s := New[model.BeamUpdate]()
	s.Insert(model.BeamUpdate{Time: 1, Range: 10})
	s.Insert(model.BeamUpdate{Time: 1, Range: 20})

	got, ok := s.Lookup(1)
	if !ok || got.Range != 20 {
		t.Fatalf("Lookup(1) = %+v, %v; want range 20", got, ok)
	}
	if s.NumItems() != 2 {
		t.Fatalf("NumItems() = %d, want 2", s.NumItems())
	}
}

func TestUpdateTracksCurrentAndChanged(t *testing.T) {
	s := newUpdates(0, 10, 20)

	s.Update(-1)
	if _, ok := s.Current(); ok {
		t.Fatalf("Current() before first record should be empty")
	}

	s.Update(12)
	cur, ok := s.Current()
	if !ok || cur.Time != 10 {
		t.Fatalf("Current() at 12 = %+v, want time 10", cur)
	}
	if !s.Changed() {
		t.Fatalf("Changed() = false after moving onto a record")
	}

	s.Update(15)
	if s.Changed() {
		t.Fatalf("Changed() = true without a new record in force")
	}

	s.Insert(model.BeamUpdate{Time: 14})
	if cur, _ := s.Current(); cur.Time != 14 {
		t.Fatalf("Current() after insert behind time = %v, want 14", cur.Time)
	}
	s.Update(15)
	if !s.Changed() {
		t.Fatalf("Changed() = false after inserting behind the current time")
	}

	s.Update(5)
	if cur, _ := s.Current(); cur.Time != 0 {
		t.Fatalf("Current() after seeking back = %v, want 0", cur.Time)
	}
}

func TestFlushRangeAndStatic(t *testing.T) {
	s := newUpdates(model.StaticTime, 0, 1, 2, 3)

	if n := s.Flush(1, 3, false); n != 2 {
		t.Fatalf("Flush(1,3) removed %d, want 2", n)
	}
	if got, want := times(s), []float64{-1, 0, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("times = %v, want %v", got, want)
	}

	s.Update(10)
	if n := s.Flush(negInf, posInf, true); n != 2 {
		t.Fatalf("static flush removed %d, want 2", n)
	}
	if got, want := times(s), []float64{-1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("times = %v, want %v", got, want)
	}
	if cur, ok := s.Current(); !ok || cur.Time != -1 {
		t.Fatalf("Current() = %+v, want the static record", cur)
	}

	s.Flush(negInf, posInf, false)
	if s.NumItems() != 0 {
		t.Fatalf("NumItems() = %d after full flush, want 0", s.NumItems())
	}
}

func TestCategoryFlushKeepsDefaultAndLatest(t *testing.T) {
	s := NewCategoryDataSlice()
	add := func(value string, tm float64) {
		s.Insert(model.CategoryData{Time: tm, Name: "Category", Value: value})
	}

	add("Value", model.StaticTime)
	s.Flush(negInf, posInf, true)
	if s.NumItems() != 1 {
		t.Fatalf("NumItems() = %d, want 1", s.NumItems())
	}

	add("Value2", 1)
	s.Flush(negInf, posInf, true)
	if s.NumItems() != 2 {
		t.Fatalf("NumItems() = %d, want 2", s.NumItems())
	}

	add("Value3", 2)
	s.Flush(negInf, posInf, true)
	if s.NumItems() != 2 {
		t.Fatalf("NumItems() = %d, want 2", s.NumItems())
	}

	s.Update(5)
	if v, _ := s.Value("Category"); v != "Value3" {
		t.Fatalf("Value(Category) = %q, want Value3", v)
	}
	if v, _ := s.ValueAt("Category", 0); v != "Value" {
		t.Fatalf("ValueAt(Category, 0) = %q, want Value", v)
	}

	s.Flush(negInf, posInf, false)
	if s.NumItems() != 0 {
		t.Fatalf("NumItems() = %d after full flush, want 0", s.NumItems())
	}
}

func TestCategoryCurrentValuesPerName(t *testing.T) {
	s := NewCategoryDataSlice()
	s.Insert(model.CategoryData{Time: 0, Name: "Affiliation", Value: "Friend"})
	s.Insert(model.CategoryData{Time: 5, Name: "Affiliation", Value: "Hostile"})
	s.Insert(model.CategoryData{Time: 2, Name: "Domain", Value: "Air"})

	s.Update(3)
	want := map[string]string{"Affiliation": "Friend", "Domain": "Air"}
	if got := s.CurrentValues(); !reflect.DeepEqual(got, want) {
		t.Fatalf("CurrentValues() = %v, want %v", got, want)
	}
	if got, want := s.Names(), []string{"Affiliation", "Domain"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}

	s.Update(6)
	if v, _ := s.Value("Affiliation"); v != "Hostile" {
		t.Fatalf("Value(Affiliation) = %q, want Hostile", v)
	}
	if !s.Changed() {
		t.Fatalf("Changed() = false after category value changed")
	}
}

func TestGenericDataExpires(t *testing.T) {
	s := NewGenericDataSlice()
	s.Insert(model.GenericData{Time: 0, Key: "mode", Value: "search", Duration: 10})
	s.Insert(model.GenericData{Time: 2, Key: "note", Value: "hello"})

	s.Update(5)
	if v, ok := s.Value("mode"); !ok || v != "search" {
		t.Fatalf("Value(mode) at 5 = %q, %v", v, ok)
	}

	s.Update(10)
	if _, ok := s.Value("mode"); ok {
		t.Fatalf("mode should have expired at 10")
	}
	if !s.Changed() {
		t.Fatalf("Changed() = false after expiry")
	}
	if v, _ := s.Value("note"); v != "hello" {
		t.Fatalf("Value(note) = %q, want hello", v)
	}
}
