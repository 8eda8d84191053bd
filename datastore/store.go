// Package datastore is the in-memory registry of time-indexed entities. It
// owns every entity's properties, preferences and history slices, advances
// them to a requested time and discards history on request.
package datastore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/signalsfoundry/simdata/datatable"
	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/model"
	"github.com/signalsfoundry/simdata/timeslice"
)

// MetricsRecorder receives store-level measurements.
type MetricsRecorder interface {
	SetEntityCounts(counts map[string]int)
	ObserveUpdate(d time.Duration)
	RecordFlush(scope string, err error)
	RecordPrefsCommit(kind string)
}

// Option customises DataStore construction.
type Option func(*DataStore)

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(ds *DataStore) {
		ds.metrics = m
	}
}

// Counts summarises the history held for one entity or the scenario.
type Counts struct {
	Updates       int
	Commands      int
	CategoryData  int
	GenericData   int
	DataTableRows int
}

// DataStore holds every entity of one scenario.
//
// Values handed out by slice accessors are read-only views that stay valid
// until the next mutating call; callers that share a store across
// goroutines should use the copying accessors (prefs, properties, counts).
type DataStore struct {
	mu sync.RWMutex

	entities map[model.ObjectID]entry
	// children maps a host id (including the scenario) to hosted ids.
	children map[model.ObjectID][]model.ObjectID
	nextID   model.ObjectID

	scenarioGeneric *timeslice.GenericDataSlice
	tables          *datatable.Manager

	currentTime float64

	subs    []subscriber
	nextSub int

	log     logging.Logger
	metrics MetricsRecorder
}

// New returns an empty data store.
func New(log logging.Logger, opts ...Option) *DataStore {
	if log == nil {
		log = logging.Noop()
	}
	ds := &DataStore{
		entities:        make(map[model.ObjectID]entry),
		children:        make(map[model.ObjectID][]model.ObjectID),
		scenarioGeneric: timeslice.NewGenericDataSlice(),
		log:             log,
	}
	ds.tables = datatable.NewManager(datatable.WithOwnerCheck(ds.Exists))
	for _, opt := range opts {
		if opt != nil {
			opt(ds)
		}
	}
	ds.updateMetricsLocked()
	return ds
}

// DataTables returns the manager of every data table in the store. Tables
// may only be created for existing entities or the scenario.
func (ds *DataStore) DataTables() *datatable.Manager { return ds.tables }

// Exists reports whether id names an entity. The scenario does not count.
func (ds *DataStore) Exists(id model.ObjectID) bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	_, ok := ds.entities[id]
	return ok
}

// CurrentTime returns the time of the last Update.
func (ds *DataStore) CurrentTime() float64 {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.currentTime
}

// Properties returns the identity of id.
func (ds *DataStore) Properties(id model.ObjectID) (model.Properties, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	e, ok := ds.entities[id]
	if !ok {
		return model.Properties{}, fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	return e.properties(), nil
}

// Kind returns the entity kind of id.
func (ds *DataStore) Kind(id model.ObjectID) (model.EntityKind, error) {
	p, err := ds.Properties(id)
	return p.Kind, err
}

// IDs returns the ids of every entity of the given kinds, sorted. With no
// kinds it returns every id.
func (ds *DataStore) IDs(kinds ...model.EntityKind) []model.ObjectID {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	ids := make([]model.ObjectID, 0, len(ds.entities))
	for id, e := range ds.entities {
		if len(kinds) == 0 || slices.Contains(kinds, e.properties().Kind) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// List returns the properties of every entity, sorted by id.
func (ds *DataStore) List() []model.Properties {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	res := make([]model.Properties, 0, len(ds.entities))
	for _, e := range ds.entities {
		res = append(res, e.properties())
	}
	slices.SortFunc(res, func(a, b model.Properties) int { return cmp.Compare(a.ID, b.ID) })
	return res
}

// Children returns the ids hosted directly by id, sorted.
func (ds *DataStore) Children(id model.ObjectID) []model.ObjectID {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	kids := slices.Clone(ds.children[id])
	slices.Sort(kids)
	return kids
}

// Prefs returns a copy of the live preferences of id as the kind's prefs
// type, e.g. *model.PlatformPrefs.
func (ds *DataStore) Prefs(id model.ObjectID) (any, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	e, ok := ds.entities[id]
	if !ok {
		return nil, fmt.Errorf("prefs %d: %w", id, ErrNotFound)
	}
	return e.prefsCopy(), nil
}

// Counts returns how much history id holds. For the scenario only generic
// data and data table rows are reported.
func (ds *DataStore) Counts(id model.ObjectID) (Counts, error) {
	ds.mu.RLock()
	var c Counts
	if id == model.ScenarioID {
		c.GenericData = ds.scenarioGeneric.NumItems()
	} else {
		e, ok := ds.entities[id]
		if !ok {
			ds.mu.RUnlock()
			return Counts{}, fmt.Errorf("counts %d: %w", id, ErrNotFound)
		}
		c = e.counts()
	}
	ds.mu.RUnlock()

	for _, t := range ds.tables.Tables(id) {
		c.DataTableRows += t.NumRows()
	}
	return c, nil
}

// Update advances every entity to time t. Within an entity updates are
// applied before commands; order across entities is unspecified.
func (ds *DataStore) Update(t float64) {
	start := time.Now()

	ds.mu.Lock()
	ds.currentTime = t
	var events []Event
	for id, e := range ds.entities {
		if e.update(t) {
			events = append(events, ds.prefsEventLocked(id))
		}
	}
	ds.scenarioGeneric.Update(t)
	slices.SortFunc(events, func(a, b Event) int { return cmp.Compare(a.ID, b.ID) })
	events = append(events, Event{Type: EventTimeChanged, Time: t})
	subs := ds.subscribersLocked()
	ds.mu.Unlock()

	if ds.metrics != nil {
		ds.metrics.ObserveUpdate(time.Since(start))
	}
	notify(subs, events)
}

// RemoveEntity deletes id, every entity hosted below it and their data
// tables.
func (ds *DataStore) RemoveEntity(ctx context.Context, id model.ObjectID) error {
	ctx, reqLog := logging.WithRequestLogger(ctx, ds.log)

	ds.mu.Lock()
	e, ok := ds.entities[id]
	if !ok {
		ds.mu.Unlock()
		return fmt.Errorf("remove %d: %w", id, ErrNotFound)
	}
	host := e.properties().HostID
	ds.children[host] = slices.DeleteFunc(ds.children[host], func(c model.ObjectID) bool { return c == id })
	if len(ds.children[host]) == 0 {
		delete(ds.children, host)
	}

	removed := ds.subtreeLocked(id)
	events := make([]Event, 0, len(removed))
	for _, rid := range removed {
		props := ds.entities[rid].properties()
		delete(ds.entities, rid)
		delete(ds.children, rid)
		ds.tables.DeleteOwner(rid)
		events = append(events, Event{Type: EventEntityRemoved, ID: rid, Kind: props.Kind, Time: ds.currentTime})
	}
	ds.updateMetricsLocked()
	subs := ds.subscribersLocked()
	ds.mu.Unlock()

	reqLog.Debug(ctx, "removed entity",
		logging.String("entity_type", e.properties().Kind.String()),
		logging.String("operation", "remove"),
		logging.Any("id", id),
		logging.Int("cascaded", len(removed)-1),
	)
	notify(subs, events)
	return nil
}

// Clear removes every entity, all scenario generic data and every data
// table. Entity ids are not reused.
func (ds *DataStore) Clear(ctx context.Context) {
	ctx, reqLog := logging.WithRequestLogger(ctx, ds.log)

	ds.mu.Lock()
	events := make([]Event, 0, len(ds.entities))
	for id, e := range ds.entities {
		events = append(events, Event{Type: EventEntityRemoved, ID: id, Kind: e.properties().Kind, Time: ds.currentTime})
	}
	slices.SortFunc(events, func(a, b Event) int { return cmp.Compare(a.ID, b.ID) })
	ds.entities = make(map[model.ObjectID]entry)
	ds.children = make(map[model.ObjectID][]model.ObjectID)
	ds.scenarioGeneric.Clear()
	ds.tables.Clear()
	ds.updateMetricsLocked()
	subs := ds.subscribersLocked()
	ds.mu.Unlock()

	reqLog.Debug(ctx, "cleared data store",
		logging.String("entity_type", "scenario"),
		logging.String("operation", "clear"),
		logging.Int("entities", len(events)),
	)
	notify(subs, events)
}

// updateMetricsLocked pushes entity counts per kind into the recorder.
// Caller must hold ds.mu.
func (ds *DataStore) updateMetricsLocked() {
	if ds.metrics == nil {
		return
	}
	counts := make(map[string]int, len(model.AllKinds))
	for _, k := range model.AllKinds {
		counts[k.String()] = 0
	}
	for _, e := range ds.entities {
		counts[e.properties().Kind.String()]++
	}
	ds.metrics.SetEntityCounts(counts)
}
