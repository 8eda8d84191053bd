package datastore

import (
	"reflect"

	"github.com/brunoga/deep"

	"github.com/signalsfoundry/simdata/model"
	"github.com/signalsfoundry/simdata/timeslice"
)

// entry is the kind-independent view of an entity record used by the
// store's registry, update loop and flush engine.
type entry interface {
	properties() model.Properties
	update(t float64) (prefsChanged bool)
	flush(fields FlushFields, start, end float64) (prefsChanged bool)
	counts() Counts
	categoryData() *timeslice.CategoryDataSlice
	genericData() *timeslice.GenericDataSlice
	prefsCopy() any
}

// record holds every slice of one entity plus two preference layers: base
// is what transactions committed, live is base with the command cache
// merged over it at the last updated time.
type record[U timeslice.Timed, C timeslice.Timed, P any] struct {
	spec  *kindSpec[U, C, P]
	props model.Properties

	base P
	live P

	updates  *timeslice.TimeSlice[U]
	commands *timeslice.CommandSlice[C, P]
	category *timeslice.CategoryDataSlice
	generic  *timeslice.GenericDataSlice
}

func newRecord[U timeslice.Timed, C timeslice.Timed, P any](spec *kindSpec[U, C, P], props model.Properties) *record[U, C, P] {
	r := &record[U, C, P]{
		spec:     spec,
		props:    props,
		updates:  timeslice.New[U](),
		category: timeslice.NewCategoryDataSlice(),
		generic:  timeslice.NewGenericDataSlice(),
	}
	spec.resetDefaults(&r.base)
	r.live = deep.MustCopy(r.base)
	// restoreBase drops every command effect, so repeated fields committed
	// by transactions survive resets and replays.
	r.commands = timeslice.NewCommandSlice(timeslice.CommandOps[C, P]{
		Prefs:         spec.prefs,
		Merge:         spec.merge,
		ResetDefaults: r.restoreBase,
	})
	return r
}

// restoreBase replaces p with the committed preferences and forces the
// kind's reset defaults over them.
func (r *record[U, C, P]) restoreBase(p *P) {
	*p = deep.MustCopy(r.base)
	r.spec.resetDefaults(p)
}

func (r *record[U, C, P]) properties() model.Properties { return r.props }

func (r *record[U, C, P]) categoryData() *timeslice.CategoryDataSlice { return r.category }

func (r *record[U, C, P]) genericData() *timeslice.GenericDataSlice { return r.generic }

func (r *record[U, C, P]) prefsCopy() any {
	p := deep.MustCopy(r.live)
	return &p
}

// update moves every slice to t, updates before commands, and commits the
// replayed preferences when they differ from the live ones.
func (r *record[U, C, P]) update(t float64) bool {
	r.updates.Update(t)
	r.category.Update(t)
	r.generic.Update(t)

	draft := deep.MustCopy(r.live)
	if !r.commands.Update(&draft, t) {
		return false
	}
	return r.commitLive(draft)
}

func (r *record[U, C, P]) commitLive(next P) bool {
	if reflect.DeepEqual(next, r.live) {
		return false
	}
	r.live = next
	return true
}

// commitBase installs prefs committed by a transaction and rebuilds live
// from it and the command cache.
func (r *record[U, C, P]) commitBase(base P) bool {
	r.base = base
	next := deep.MustCopy(r.base)
	if r.commands.Applied() {
		r.spec.merge(&next, r.commands.Cache())
	}
	return r.commitLive(next)
}

func (r *record[U, C, P]) flush(fields FlushFields, start, end float64) bool {
	keepStatic := fields.Has(FlushExcludeMinusOne)
	changed := false
	if fields.Has(FlushUpdates) {
		r.updates.Flush(start, end, keepStatic)
	}
	if fields.Has(FlushCommands) {
		r.commands.Flush(start, end, keepStatic)
		var next P
		r.restoreBase(&next)
		changed = r.commitLive(next)
	}
	if fields.Has(FlushCategoryData) {
		r.category.Flush(start, end, keepStatic)
	}
	if fields.Has(FlushGenericData) {
		r.generic.Flush(start, end, keepStatic)
	}
	return changed
}

func (r *record[U, C, P]) counts() Counts {
	return Counts{
		Updates:      r.updates.NumItems(),
		Commands:     r.commands.NumItems(),
		CategoryData: r.category.NumItems(),
		GenericData:  r.generic.NumItems(),
	}
}
