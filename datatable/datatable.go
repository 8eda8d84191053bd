// Package datatable holds generic time-keyed tables of named columns that
// are attached to entities or to the scenario.
package datatable

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/signalsfoundry/simdata/model"
	"github.com/signalsfoundry/simdata/timeslice"
)

var (
	// ErrTableExists indicates the owner already has a table with that name.
	ErrTableExists = errors.New("data table already exists")
	// ErrTableNotFound indicates a requested table was not found.
	ErrTableNotFound = errors.New("data table not found")
	// ErrColumnExists indicates the table already has a column with that name.
	ErrColumnExists = errors.New("column already exists")
	// ErrColumnNotFound indicates a requested column was not found.
	ErrColumnNotFound = errors.New("column not found")
	// ErrTypeMismatch indicates a cell value does not match its column type.
	ErrTypeMismatch = errors.New("column type mismatch")
	// ErrOwnerNotFound indicates the owning entity does not exist.
	ErrOwnerNotFound = errors.New("table owner not found")
)

// TableID identifies a table within one Manager.
type TableID uint64

// ColumnID identifies a column within one table.
type ColumnID uint64

// VariableType is the type of every value stored in a column.
type VariableType int

const (
	VariableDouble VariableType = iota
	VariableInt64
	VariableString
)

func (v VariableType) String() string {
	switch v {
	case VariableDouble:
		return "double"
	case VariableInt64:
		return "int64"
	case VariableString:
		return "string"
	default:
		return fmt.Sprintf("VariableType(%d)", int(v))
	}
}

// Value is one typed cell.
type Value struct {
	Type   VariableType
	Double float64
	Int64  int64
	String string
}

// DoubleValue, Int64Value and StringValue build typed cell values.
func DoubleValue(v float64) Value { return Value{Type: VariableDouble, Double: v} }
func Int64Value(v int64) Value    { return Value{Type: VariableInt64, Int64: v} }
func StringValue(v string) Value  { return Value{Type: VariableString, String: v} }

// TableRow is a set of cells sharing one time.
type TableRow struct {
	Time  float64
	Cells map[ColumnID]Value
}

func (r TableRow) At() float64 { return r.Time }

// NewRow returns an empty row at time t.
func NewRow(t float64) TableRow {
	return TableRow{Time: t, Cells: make(map[ColumnID]Value)}
}

// Set stores v in column c.
func (r TableRow) Set(c ColumnID, v Value) TableRow {
	r.Cells[c] = v
	return r
}

// RowVisitor is called for each row visited; returning false stops the walk.
type RowVisitor func(row TableRow) bool

// Column describes one named, typed column of a table.
type Column struct {
	id    ColumnID
	name  string
	typ   VariableType
	table *Table
}

// ID returns the column id, unique within its table.
func (c *Column) ID() ColumnID       { return c.id }
func (c *Column) Name() string       { return c.name }
func (c *Column) Type() VariableType { return c.typ }
func (c *Column) TableID() TableID   { return c.table.id }

// ValueAt returns the latest value stored in the column at or before t.
func (c *Column) ValueAt(t float64) (Value, bool) {
	c.table.mu.RLock()
	defer c.table.mu.RUnlock()

	var (
		found Value
		ok    bool
	)
	c.table.rows.VisitRange(negInf, t, func(row TableRow) bool {
		if v, has := row.Cells[c.id]; has {
			found, ok = v, true
		}
		return true
	})
	return found, ok
}

// Table is a named collection of columns and time-sorted rows.
type Table struct {
	mu sync.RWMutex

	id    TableID
	owner model.ObjectID
	name  string

	columns []*Column
	byName  map[string]*Column
	byID    map[ColumnID]*Column
	nextCol ColumnID
	rows    *timeslice.TimeSlice[TableRow]
}

func newTable(id TableID, owner model.ObjectID, name string) *Table {
	return &Table{
		id:     id,
		owner:  owner,
		name:   name,
		byName: make(map[string]*Column),
		byID:   make(map[ColumnID]*Column),
		rows:   timeslice.New[TableRow](),
	}
}

// ID returns the table id, unique within its manager.
func (t *Table) ID() TableID             { return t.id }
func (t *Table) OwnerID() model.ObjectID { return t.owner }
func (t *Table) Name() string            { return t.name }

// AddColumn appends a column. Column names are unique within a table.
func (t *Table) AddColumn(name string, typ VariableType) (*Column, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byName[name]; ok {
		return nil, fmt.Errorf("table %q column %q: %w", t.name, name, ErrColumnExists)
	}
	t.nextCol++
	c := &Column{id: t.nextCol, name: name, typ: typ, table: t}
	t.columns = append(t.columns, c)
	t.byName[name] = c
	t.byID[c.id] = c
	return c, nil
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("table %q column %q: %w", t.name, name, ErrColumnNotFound)
	}
	return c, nil
}

// Columns returns the columns in creation order.
func (t *Table) Columns() []*Column {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Column(nil), t.columns...)
}

// AddRow stores row. Cells must name existing columns and match their
// types. A row at a time already present is merged into that row.
func (t *Table) AddRow(row TableRow) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, v := range row.Cells {
		c, ok := t.byID[id]
		if !ok {
			return fmt.Errorf("table %q column %d: %w", t.name, id, ErrColumnNotFound)
		}
		if c.typ != v.Type {
			return fmt.Errorf("table %q column %q: got %s, want %s: %w", t.name, c.name, v.Type, c.typ, ErrTypeMismatch)
		}
	}

	if existing, ok := t.rows.Lookup(row.Time); ok && existing.Time == row.Time {
		maps.Copy(existing.Cells, row.Cells)
		return nil
	}
	cells := make(map[ColumnID]Value, len(row.Cells))
	maps.Copy(cells, row.Cells)
	t.rows.Insert(TableRow{Time: row.Time, Cells: cells})
	return nil
}

// NumRows returns the number of distinct row times held.
func (t *Table) NumRows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rows.NumItems()
}

// Accept visits rows with begin <= time <= end in time order until the
// visitor returns false. Rows passed to the visitor must not be modified.
func (t *Table) Accept(begin, end float64, visit RowVisitor) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.rows.VisitRange(begin, end, visit)
}

// Flush removes rows with start <= time < end; column definitions stay.
// With keepStatic set, rows at model.StaticTime survive.
func (t *Table) Flush(start, end float64, keepStatic bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rows.Flush(start, end, keepStatic)
}
