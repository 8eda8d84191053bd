package datatable

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/signalsfoundry/simdata/model"
)

var negInf = math.Inf(-1)

// Manager owns every data table of a data store, indexed by id and by
// owner. It is safe for concurrent use.
type Manager struct {
	mu sync.RWMutex

	tables  map[TableID]*Table
	byOwner map[model.ObjectID]map[string]*Table
	nextID  TableID

	// removals counts DeleteOwner and Clear calls. AddTable checks the
	// owner without holding mu and retries if a removal ran meanwhile.
	removals    uint64
	ownerExists func(model.ObjectID) bool
}

// Option customises a Manager.
type Option func(*Manager)

// WithOwnerCheck rejects tables whose owner fails exists. The scenario
// (model.ScenarioID) is always accepted.
func WithOwnerCheck(exists func(model.ObjectID) bool) Option {
	return func(m *Manager) {
		m.ownerExists = exists
	}
}

// NewManager returns an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		tables:  make(map[TableID]*Table),
		byOwner: make(map[model.ObjectID]map[string]*Table),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddTable creates a table named name for owner. The owner check runs
// without holding the manager lock, so it may take the data store lock.
func (m *Manager) AddTable(owner model.ObjectID, name string) (*Table, error) {
	for {
		m.mu.RLock()
		seen := m.removals
		m.mu.RUnlock()

		if owner != model.ScenarioID && m.ownerExists != nil && !m.ownerExists(owner) {
			return nil, fmt.Errorf("owner %d: %w", owner, ErrOwnerNotFound)
		}

		m.mu.Lock()
		if m.removals == seen {
			t, err := m.addLocked(owner, name)
			m.mu.Unlock()
			return t, err
		}
		m.mu.Unlock()
	}
}

func (m *Manager) addLocked(owner model.ObjectID, name string) (*Table, error) {
	if _, ok := m.byOwner[owner][name]; ok {
		return nil, fmt.Errorf("owner %d table %q: %w", owner, name, ErrTableExists)
	}
	m.nextID++
	t := newTable(m.nextID, owner, name)
	m.tables[t.id] = t
	if m.byOwner[owner] == nil {
		m.byOwner[owner] = make(map[string]*Table)
	}
	m.byOwner[owner][name] = t
	return t, nil
}

// Table returns the table with the given id.
func (m *Manager) Table(id TableID) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, fmt.Errorf("table %d: %w", id, ErrTableNotFound)
	}
	return t, nil
}

// FindTable returns owner's table called name.
func (m *Manager) FindTable(owner model.ObjectID, name string) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.byOwner[owner][name]
	if !ok {
		return nil, fmt.Errorf("owner %d table %q: %w", owner, name, ErrTableNotFound)
	}
	return t, nil
}

// Tables returns owner's tables ordered by id.
func (m *Manager) Tables(owner model.ObjectID) []*Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ownedLocked(owner)
}

func (m *Manager) ownedLocked(owner model.ObjectID) []*Table {
	res := make([]*Table, 0, len(m.byOwner[owner]))
	for _, t := range m.byOwner[owner] {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].id < res[j].id })
	return res
}

// NumTables returns the number of tables across all owners.
func (m *Manager) NumTables() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}

// DeleteTable removes one table.
func (m *Manager) DeleteTable(id TableID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[id]
	if !ok {
		return fmt.Errorf("table %d: %w", id, ErrTableNotFound)
	}
	m.removeLocked(t)
	return nil
}

// DeleteOwner removes every table belonging to owner and returns how many
// were removed.
func (m *Manager) DeleteOwner(owner model.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removals++
	owned := m.ownedLocked(owner)
	for _, t := range owned {
		m.removeLocked(t)
	}
	return len(owned)
}

func (m *Manager) removeLocked(t *Table) {
	delete(m.tables, t.id)
	delete(m.byOwner[t.owner], t.name)
	if len(m.byOwner[t.owner]) == 0 {
		delete(m.byOwner, t.owner)
	}
}

// Flush removes rows with start <= time < end from every table of owner,
// keeping table and column definitions. It returns the rows removed.
func (m *Manager) Flush(owner model.ObjectID, start, end float64, keepStatic bool) int {
	m.mu.RLock()
	owned := m.ownedLocked(owner)
	m.mu.RUnlock()

	removed := 0
	for _, t := range owned {
		removed += t.Flush(start, end, keepStatic)
	}
	return removed
}

// Clear removes every table.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removals++
	m.tables = make(map[TableID]*Table)
	m.byOwner = make(map[model.ObjectID]map[string]*Table)
}
