package datastore

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/model"
)

// FlushFields selects which history a flush discards.
type FlushFields uint32

const (
	FlushUpdates FlushFields = 1 << iota
	FlushCommands
	FlushCategoryData
	FlushGenericData
	FlushDataTables

	// FlushExcludeMinusOne keeps records stamped model.StaticTime. Category
	// data additionally keeps the latest point of every category.
	FlushExcludeMinusOne

	FlushAll = FlushUpdates | FlushCommands | FlushCategoryData | FlushGenericData | FlushDataTables
)

var flushFieldNames = []struct {
	field FlushFields
	name  string
}{
	{FlushUpdates, "updates"},
	{FlushCommands, "commands"},
	{FlushCategoryData, "category_data"},
	{FlushGenericData, "generic_data"},
	{FlushDataTables, "data_tables"},
	{FlushExcludeMinusOne, "exclude_minus_one"},
}

// Has reports whether every bit of f is set.
func (ff FlushFields) Has(f FlushFields) bool { return ff&f == f }

func (ff FlushFields) String() string {
	var parts []string
	for _, n := range flushFieldNames {
		if ff.Has(n.field) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseFlushField converts one field name, or "all", into its bit.
func ParseFlushField(s string) (FlushFields, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return FlushAll, nil
	}
	for _, n := range flushFieldNames {
		if n.name == s {
			return n.field, nil
		}
	}
	return 0, fmt.Errorf("unknown flush field %q", s)
}

// FlushScope controls whether a flush cascades to hosted entities.
type FlushScope int

const (
	FlushNonRecursive FlushScope = iota
	FlushRecursive
)

func (s FlushScope) String() string {
	if s == FlushRecursive {
		return "recursive"
	}
	return "non_recursive"
}

// Flush discards the selected history of id for all time. See FlushRange.
func (ds *DataStore) Flush(ctx context.Context, id model.ObjectID, scope FlushScope, fields FlushFields) error {
	return ds.FlushRange(ctx, id, scope, fields, math.Inf(-1), math.Inf(1))
}

// FlushRange discards the selected history of id with start <= time < end.
// A recursive flush applies the same fields to every entity hosted below id;
// for the scenario (model.ScenarioID) that is every entity in the store.
// Entity identity and committed preferences survive; caches derived from
// the flushed history are reset.
func (ds *DataStore) FlushRange(ctx context.Context, id model.ObjectID, scope FlushScope, fields FlushFields, start, end float64) error {
	ctx, reqLog := logging.WithRequestLogger(ctx, ds.log)

	ds.mu.Lock()
	if id != model.ScenarioID {
		if _, ok := ds.entities[id]; !ok {
			ds.mu.Unlock()
			err := fmt.Errorf("flush %d: %w", id, ErrNotFound)
			ds.recordFlush(scope, err)
			return err
		}
	}

	owners := []model.ObjectID{id}
	if scope == FlushRecursive {
		owners = ds.subtreeLocked(id)
	}

	keepStatic := fields.Has(FlushExcludeMinusOne)
	var events []Event
	for _, owner := range owners {
		if owner == model.ScenarioID {
			if fields.Has(FlushGenericData) {
				ds.scenarioGeneric.Flush(start, end, keepStatic)
			}
		} else if ds.entities[owner].flush(fields, start, end) {
			events = append(events, ds.prefsEventLocked(owner))
		}
		if fields.Has(FlushDataTables) {
			ds.tables.Flush(owner, start, end, keepStatic)
		}
	}
	events = append(events, Event{Type: EventFlushed, ID: id, Fields: fields, Time: ds.currentTime})
	subs := ds.subscribersLocked()
	ds.mu.Unlock()

	reqLog.Debug(ctx, "flushed entity history",
		logging.String("entity_type", "entity"),
		logging.String("operation", "flush"),
		logging.Any("id", id),
		logging.String("scope", scope.String()),
		logging.String("fields", fields.String()),
		logging.Int("entities", len(owners)),
	)
	ds.recordFlush(scope, nil)
	notify(subs, events)
	return nil
}

// subtreeLocked returns id followed depth-first by every entity hosted
// below it.
func (ds *DataStore) subtreeLocked(id model.ObjectID) []model.ObjectID {
	out := []model.ObjectID{id}
	for i := 0; i < len(out); i++ {
		kids := slices.Clone(ds.children[out[i]])
		slices.Sort(kids)
		out = slices.Insert(out, i+1, kids...)
	}
	return out
}

func (ds *DataStore) recordFlush(scope FlushScope, err error) {
	if ds.metrics != nil {
		ds.metrics.RecordFlush(scope.String(), err)
	}
}
