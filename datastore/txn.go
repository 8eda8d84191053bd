package datastore

import (
	"context"
	"fmt"
	"slices"

	"github.com/brunoga/deep"

	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/model"
	"github.com/signalsfoundry/simdata/timeslice"
)

// CommitResult reports the outcome of a committed preference draft.
type CommitResult struct {
	// Changed is set when the live preferences differ from before the commit.
	Changed bool
}

// EntityTxn is the draft of a new entity. Its id is reserved when the
// draft is created; the entity becomes visible only on Commit.
type EntityTxn struct {
	ds     *DataStore
	id     model.ObjectID
	kind   model.EntityKind
	host   model.ObjectID
	props  model.Properties
	closed bool
}

// ID returns the id reserved for the entity.
func (t *EntityTxn) ID() model.ObjectID { return t.id }

// Properties returns the mutable draft properties. ID, Kind and HostID are
// fixed by the store and restored on Commit.
func (t *EntityTxn) Properties() *model.Properties { return &t.props }

// Commit publishes the entity and returns its id.
func (t *EntityTxn) Commit() (model.ObjectID, error) {
	return t.CommitContext(context.Background())
}

// CommitContext is Commit with a request context for logging.
func (t *EntityTxn) CommitContext(ctx context.Context) (model.ObjectID, error) {
	if t.closed {
		return 0, ErrTransactionClosed
	}
	t.closed = true
	ds := t.ds
	ctx, reqLog := logging.WithRequestLogger(ctx, ds.log)

	props := t.props
	props.ID, props.Kind, props.HostID = t.id, t.kind, t.host

	ds.mu.Lock()
	if err := ds.checkHostLocked(props.Kind, props.HostID); err != nil {
		ds.mu.Unlock()
		return 0, err
	}
	ds.entities[props.ID] = newEntry(props)
	ds.children[props.HostID] = append(ds.children[props.HostID], props.ID)
	ds.updateMetricsLocked()
	ev := Event{Type: EventEntityAdded, ID: props.ID, Kind: props.Kind, Time: ds.currentTime}
	subs := ds.subscribersLocked()
	ds.mu.Unlock()

	reqLog.Debug(ctx, "added entity",
		logging.String("entity_type", props.Kind.String()),
		logging.String("operation", "add"),
		logging.Any("id", props.ID),
		logging.Any("host_id", props.HostID),
	)
	notify(subs, []Event{ev})
	return props.ID, nil
}

// Discard abandons the draft. The reserved id is not reused.
func (t *EntityTxn) Discard() { t.closed = true }

// AddPlatform starts a platform draft hosted by the scenario.
func (ds *DataStore) AddPlatform() *EntityTxn {
	txn, _ := ds.addEntity(model.KindPlatform, model.ScenarioID)
	return txn
}

// AddBeam starts a beam draft hosted by a platform.
func (ds *DataStore) AddBeam(host model.ObjectID) (*EntityTxn, error) {
	return ds.addEntity(model.KindBeam, host)
}

// AddGate starts a gate draft hosted by a beam.
func (ds *DataStore) AddGate(host model.ObjectID) (*EntityTxn, error) {
	return ds.addEntity(model.KindGate, host)
}

// AddLaser starts a laser draft hosted by a platform.
func (ds *DataStore) AddLaser(host model.ObjectID) (*EntityTxn, error) {
	return ds.addEntity(model.KindLaser, host)
}

// AddLobGroup starts a LOB group draft hosted by a platform.
func (ds *DataStore) AddLobGroup(host model.ObjectID) (*EntityTxn, error) {
	return ds.addEntity(model.KindLobGroup, host)
}

// AddProjector starts a projector draft hosted by a platform or a beam.
func (ds *DataStore) AddProjector(host model.ObjectID) (*EntityTxn, error) {
	return ds.addEntity(model.KindProjector, host)
}

// AddCustomRendering starts a custom rendering draft hosted by a platform
// or the scenario.
func (ds *DataStore) AddCustomRendering(host model.ObjectID) (*EntityTxn, error) {
	return ds.addEntity(model.KindCustomRendering, host)
}

// AddEntity starts a draft of any kind.
func (ds *DataStore) AddEntity(kind model.EntityKind, host model.ObjectID) (*EntityTxn, error) {
	return ds.addEntity(kind, host)
}

func (ds *DataStore) addEntity(kind model.EntityKind, host model.ObjectID) (*EntityTxn, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.checkHostLocked(kind, host); err != nil {
		return nil, err
	}
	ds.nextID++
	return &EntityTxn{
		ds:    ds,
		id:    ds.nextID,
		kind:  kind,
		host:  host,
		props: model.Properties{ID: ds.nextID, Kind: kind, HostID: host},
	}, nil
}

// checkHostLocked validates that host exists and may carry kind.
func (ds *DataStore) checkHostLocked(kind model.EntityKind, host model.ObjectID) error {
	allowed := kind.ValidHosts()
	if len(allowed) == 0 {
		return fmt.Errorf("entity kind %s: %w", kind, ErrTypeMismatch)
	}
	hostKind := model.KindNone
	if host != model.ScenarioID {
		e, ok := ds.entities[host]
		if !ok {
			return fmt.Errorf("host %d for %s: %w", host, kind, ErrNotFound)
		}
		hostKind = e.properties().Kind
	}
	if !slices.Contains(allowed, hostKind) {
		return fmt.Errorf("%s cannot host %s: %w", hostDesc(host, hostKind), kind, ErrInvalidHost)
	}
	return nil
}

func hostDesc(id model.ObjectID, kind model.EntityKind) string {
	if id == model.ScenarioID {
		return "scenario"
	}
	return fmt.Sprintf("%s %d", kind, id)
}

// PrefsTxn is a preference draft for one entity. The draft is an owned
// copy of the entity's committed preferences; the live preferences are not
// touched until Commit. Commands replay on top of what is committed.
type PrefsTxn[P any] struct {
	ds     *DataStore
	id     model.ObjectID
	kind   model.EntityKind
	draft  *P
	commit func(P) bool
	closed bool
}

// Draft returns the modifiable preference draft.
func (t *PrefsTxn[P]) Draft() *P { return t.draft }

// Commit installs the draft. A second Commit, or Commit after Discard,
// returns ErrTransactionClosed.
func (t *PrefsTxn[P]) Commit() (CommitResult, error) {
	if t.closed {
		return CommitResult{}, ErrTransactionClosed
	}
	t.closed = true
	ds := t.ds

	ds.mu.Lock()
	if _, ok := ds.entities[t.id]; !ok {
		ds.mu.Unlock()
		return CommitResult{}, fmt.Errorf("commit prefs %d: %w", t.id, ErrNotFound)
	}
	changed := t.commit(deep.MustCopy(*t.draft))
	var subs []subscriber
	if changed {
		subs = ds.subscribersLocked()
	}
	ev := ds.prefsEventLocked(t.id)
	ds.mu.Unlock()

	if ds.metrics != nil {
		ds.metrics.RecordPrefsCommit(t.kind.String())
	}
	if changed {
		notify(subs, []Event{ev})
	}
	return CommitResult{Changed: changed}, nil
}

// Discard abandons the draft.
func (t *PrefsTxn[P]) Discard() { t.closed = true }

// lookup returns id's record when it is of the kind described by spec.
func lookup[U timeslice.Timed, C timeslice.Timed, P any](ds *DataStore, id model.ObjectID, spec *kindSpec[U, C, P]) (*record[U, C, P], error) {
	e, ok := ds.entities[id]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", spec.kind, id, ErrNotFound)
	}
	r, ok := e.(*record[U, C, P])
	if !ok {
		return nil, fmt.Errorf("entity %d is a %s, not a %s: %w", id, e.properties().Kind, spec.kind, ErrTypeMismatch)
	}
	return r, nil
}

func editPrefs[U timeslice.Timed, C timeslice.Timed, P any](ds *DataStore, id model.ObjectID, spec *kindSpec[U, C, P]) (*PrefsTxn[P], error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	r, err := lookup(ds, id, spec)
	if err != nil {
		return nil, err
	}
	draft := deep.MustCopy(r.base)
	return &PrefsTxn[P]{
		ds:     ds,
		id:     id,
		kind:   spec.kind,
		draft:  &draft,
		commit: r.commitBase,
	}, nil
}

func livePrefs[U timeslice.Timed, C timeslice.Timed, P any](ds *DataStore, id model.ObjectID, spec *kindSpec[U, C, P]) (*P, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	r, err := lookup(ds, id, spec)
	if err != nil {
		return nil, err
	}
	p := deep.MustCopy(r.live)
	return &p, nil
}
