package datatable

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/simdata/model"
)

func newTestTable(t *testing.T) (*Table, *Column, *Column) {
	t.Helper()
	m := NewManager()
	tbl, err := m.AddTable(1, "Table 1")
	if err != nil {
		t.Fatalf("AddTable: %v", err)
	}
	speed, err := tbl.AddColumn("speed", VariableDouble)
	if err != nil {
		t.Fatalf("AddColumn speed: %v", err)
	}
	label, err := tbl.AddColumn("label", VariableString)
	if err != nil {
		t.Fatalf("AddColumn label: %v", err)
	}
	return tbl, speed, label
}

func countRows(tbl *Table, begin, end float64) int {
	n := 0
	tbl.Accept(begin, end, func(TableRow) bool {
		n++
		return true
	})
	return n
}

func TestAddTableRejectsDuplicateName(t *testing.T) {
	m := NewManager()
	if _, err := m.AddTable(1, "t"); err != nil {
		t.Fatalf("AddTable: %v", err)
	}
	if _, err := m.AddTable(1, "t"); !errors.Is(err, ErrTableExists) {
		t.Fatalf("AddTable duplicate error = %v, want ErrTableExists", err)
	}
	if _, err := m.AddTable(2, "t"); err != nil {
		t.Fatalf("same name under another owner: %v", err)
	}
	if got := m.NumTables(); got != 2 {
		t.Fatalf("NumTables() = %d, want 2", got)
	}
}

func TestOwnerCheck(t *testing.T) {
	m := NewManager(WithOwnerCheck(func(id model.ObjectID) bool { return id == 7 }))
	if _, err := m.AddTable(3, "t"); !errors.Is(err, ErrOwnerNotFound) {
		t.Fatalf("AddTable unknown owner error = %v, want ErrOwnerNotFound", err)
	}
	if _, err := m.AddTable(7, "t"); err != nil {
		t.Fatalf("AddTable known owner: %v", err)
	}
	if _, err := m.AddTable(model.ScenarioID, "t"); err != nil {
		t.Fatalf("AddTable scenario: %v", err)
	}
}

func TestOwnerRemovedDuringAddTable(t *testing.T) {
	var m *Manager
	alive := true
	m = NewManager(WithOwnerCheck(func(id model.ObjectID) bool {
		was := alive
		if alive {
			// The owner goes away after passing the check.
			alive = false
			m.DeleteOwner(id)
		}
		return was
	}))
	if _, err := m.AddTable(7, "t"); !errors.Is(err, ErrOwnerNotFound) {
		t.Fatalf("AddTable removed owner error = %v, want ErrOwnerNotFound", err)
	}
	if got := m.NumTables(); got != 0 {
		t.Fatalf("NumTables() = %d, want 0", got)
	}
}

func TestColumns(t *testing.T) {
	tbl, speed, _ := newTestTable(t)
	if _, err := tbl.AddColumn("speed", VariableInt64); !errors.Is(err, ErrColumnExists) {
		t.Fatalf("duplicate column error = %v, want ErrColumnExists", err)
	}
	got, err := tbl.Column("speed")
	if err != nil || got != speed {
		t.Fatalf("Column(speed) = %v, %v; want %v", got, err, speed)
	}
	if _, err := tbl.Column("missing"); !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("Column(missing) error = %v, want ErrColumnNotFound", err)
	}
	if n := len(tbl.Columns()); n != 2 {
		t.Fatalf("len(Columns()) = %d, want 2", n)
	}
}

func TestAddRowValidatesCells(t *testing.T) {
	tbl, speed, _ := newTestTable(t)
	err := tbl.AddRow(NewRow(0).Set(speed.ID(), StringValue("fast")))
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("AddRow wrong type error = %v, want ErrTypeMismatch", err)
	}
	err = tbl.AddRow(NewRow(0).Set(99, DoubleValue(1)))
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("AddRow unknown column error = %v, want ErrColumnNotFound", err)
	}
	if tbl.NumRows() != 0 {
		t.Fatalf("NumRows() = %d after rejected rows, want 0", tbl.NumRows())
	}
}

func TestRowsMergeAtSameTime(t *testing.T) {
	tbl, speed, label := newTestTable(t)
	if err := tbl.AddRow(NewRow(1).Set(speed.ID(), DoubleValue(10))); err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	if err := tbl.AddRow(NewRow(1).Set(label.ID(), StringValue("a"))); err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	if got := tbl.NumRows(); got != 1 {
		t.Fatalf("NumRows() = %d, want 1", got)
	}
	tbl.Accept(1, 1, func(row TableRow) bool {
		if len(row.Cells) != 2 {
			t.Fatalf("merged row has %d cells, want 2", len(row.Cells))
		}
		return true
	})
}

func TestAcceptRangeAndStop(t *testing.T) {
	tbl, speed, _ := newTestTable(t)
	for _, tm := range []float64{3, 1, 2, 5, 4} {
		if err := tbl.AddRow(NewRow(tm).Set(speed.ID(), DoubleValue(tm*10))); err != nil {
			t.Fatalf("AddRow(%v): %v", tm, err)
		}
	}

	var times []float64
	tbl.Accept(2, 4, func(row TableRow) bool {
		times = append(times, row.Time)
		return true
	})
	if len(times) != 3 || times[0] != 2 || times[2] != 4 {
		t.Fatalf("Accept(2, 4) visited %v, want [2 3 4]", times)
	}

	visited := 0
	tbl.Accept(0, math.MaxFloat64, func(TableRow) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Fatalf("visitor stop: visited %d, want 2", visited)
	}
}

func TestColumnValueAt(t *testing.T) {
	tbl, speed, label := newTestTable(t)
	_ = tbl.AddRow(NewRow(1).Set(speed.ID(), DoubleValue(10)))
	_ = tbl.AddRow(NewRow(2).Set(label.ID(), StringValue("b")))
	_ = tbl.AddRow(NewRow(3).Set(speed.ID(), DoubleValue(30)))

	if _, ok := speed.ValueAt(0.5); ok {
		t.Fatalf("ValueAt before first row should not be found")
	}
	if v, ok := speed.ValueAt(2.5); !ok || v.Double != 10 {
		t.Fatalf("speed.ValueAt(2.5) = %v, %v; want 10", v, ok)
	}
	if v, ok := speed.ValueAt(3); !ok || v.Double != 30 {
		t.Fatalf("speed.ValueAt(3) = %v, %v; want 30", v, ok)
	}
	if v, ok := label.ValueAt(10); !ok || v.String != "b" {
		t.Fatalf("label.ValueAt(10) = %v, %v; want b", v, ok)
	}
}

func TestManagerFlushKeepsDefinitions(t *testing.T) {
	m := NewManager()
	tbl, _ := m.AddTable(1, "t")
	col, _ := tbl.AddColumn("v", VariableInt64)
	_ = tbl.AddRow(NewRow(model.StaticTime).Set(col.ID(), Int64Value(1)))
	_ = tbl.AddRow(NewRow(0).Set(col.ID(), Int64Value(2)))
	_ = tbl.AddRow(NewRow(5).Set(col.ID(), Int64Value(3)))

	if n := m.Flush(1, negInf, math.Inf(1), true); n != 2 {
		t.Fatalf("Flush keepStatic removed %d, want 2", n)
	}
	if got := tbl.NumRows(); got != 1 {
		t.Fatalf("NumRows() = %d, want the static row", got)
	}
	if n := m.Flush(1, negInf, math.Inf(1), false); n != 1 {
		t.Fatalf("Flush removed %d, want 1", n)
	}
	if _, err := tbl.Column("v"); err != nil {
		t.Fatalf("column lost on flush: %v", err)
	}
	if _, err := m.FindTable(1, "t"); err != nil {
		t.Fatalf("table lost on flush: %v", err)
	}
	// Flushing empty tables is fine.
	if n := m.Flush(1, negInf, math.Inf(1), false); n != 0 {
		t.Fatalf("second Flush removed %d, want 0", n)
	}
}

func TestDeleteOwner(t *testing.T) {
	m := NewManager()
	a, _ := m.AddTable(1, "a")
	_, _ = m.AddTable(1, "b")
	keep, _ := m.AddTable(2, "a")

	if n := m.DeleteOwner(1); n != 2 {
		t.Fatalf("DeleteOwner removed %d, want 2", n)
	}
	if _, err := m.Table(a.ID()); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("Table(a) error = %v, want ErrTableNotFound", err)
	}
	if len(m.Tables(1)) != 0 {
		t.Fatalf("Tables(1) not empty after DeleteOwner")
	}
	if _, err := m.Table(keep.ID()); err != nil {
		t.Fatalf("other owner's table removed: %v", err)
	}
	if err := m.DeleteTable(keep.ID()); err != nil {
		t.Fatalf("DeleteTable: %v", err)
	}
	if err := m.DeleteTable(keep.ID()); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("second DeleteTable error = %v, want ErrTableNotFound", err)
	}
}
