package timeslice

// CommandOps binds a command slice to one entity kind's preference type.
type CommandOps[C any, P any] struct {
	// Prefs returns the preference delta carried by a command, or nil.
	Prefs func(cmd C) *P
	// Merge overlays src onto dst. Repeated fields set in src replace dst's.
	Merge func(dst, src *P)
	// ClearRepeated empties every repeated field of p on a reset. Leave it
	// nil when ResetDefaults already restores p to a state free of command
	// effects.
	ClearRepeated func(p *P)
	// ResetDefaults forces the fields that must not outlive a reset back to
	// their explicit defaults.
	ResetDefaults func(p *P)
}

// CommandSlice holds time-stamped preference commands and replays them into
// a cumulative cache as time moves. The cache always equals the merge, in
// time order, of every command with time <= the last updated time.
type CommandSlice[C Timed, P any] struct {
	TimeSlice[C]

	ops   CommandOps[C, P]
	cache P

	// applied is set once any command has been merged into cache;
	// lastCommandTime is the time of the last one merged.
	applied         bool
	lastCommandTime float64

	// earliestInsert is the lowest time inserted since the last replay.
	earliestInsert float64

	changed bool
}

// NewCommandSlice returns an empty command slice for one entity kind.
func NewCommandSlice[C Timed, P any](ops CommandOps[C, P]) *CommandSlice[C, P] {
	s := &CommandSlice[C, P]{ops: ops}
	s.reset()
	return s
}

func (s *CommandSlice[C, P]) reset() {
	var zero P
	s.cache = zero
	s.applied = false
	s.lastCommandTime = negInf
	s.earliestInsert = posInf
	s.rewind()
}

// Insert adds a command in time order. Commands behind the last replayed
// time are picked up by the next Update without a full rebuild.
func (s *CommandSlice[C, P]) Insert(cmd C) {
	s.TimeSlice.Insert(cmd)
	if t := cmd.At(); t < s.earliestInsert {
		s.earliestInsert = t
	}
}

// Update replays commands up to time t and merges the cumulative result into
// live, the entity's preference draft. It returns false when live was left
// untouched and need not be committed.
func (s *CommandSlice[C, P]) Update(live *P, t float64) bool {
	s.changed = false

	if len(s.items) == 0 {
		wasApplied := s.applied
		s.reset()
		if wasApplied {
			s.clearRepeated(live)
			s.changed = true
		}
		return wasApplied
	}

	if t < s.items[0].At() {
		wasApplied := s.applied
		s.reset()
		if wasApplied {
			s.ops.ResetDefaults(live)
			s.clearRepeated(live)
			s.changed = true
		}
		return wasApplied
	}

	hi := s.upperBound(t)
	if !s.applied || t >= s.lastCommandTime {
		if !s.applied {
			s.clearRepeated(live)
		}
		// Resume after the last replayed time, or at the earliest command
		// inserted behind it, whichever comes first. Re-merging commands
		// already in the cache is idempotent.
		var lo int
		if s.earliestInsert <= s.lastTime {
			lo = s.lowerBound(s.earliestInsert)
		} else {
			lo = s.upperBound(s.lastTime)
		}
		s.changed = s.replay(lo, hi)
	} else {
		s.reset()
		s.ops.ResetDefaults(live)
		s.clearRepeated(live)
		s.replay(0, hi)
		s.changed = true
	}

	s.pos = hi
	s.lastTime = t
	s.dirty = false
	s.earliestInsert = posInf

	s.ops.Merge(live, &s.cache)
	return true
}

func (s *CommandSlice[C, P]) clearRepeated(live *P) {
	if s.ops.ClearRepeated != nil {
		s.ops.ClearRepeated(live)
	}
}

func (s *CommandSlice[C, P]) replay(lo, hi int) bool {
	merged := false
	for i := lo; i < hi; i++ {
		if p := s.ops.Prefs(s.items[i]); p != nil {
			s.ops.Merge(&s.cache, p)
		}
		merged = true
	}
	if hi > 0 {
		s.applied = true
		s.lastCommandTime = s.items[hi-1].At()
	}
	return merged
}

// Changed reports whether the last Update changed the effective preferences.
func (s *CommandSlice[C, P]) Changed() bool { return s.changed }

// Cache returns the cumulative command preferences. The result must be
// treated as read-only.
func (s *CommandSlice[C, P]) Cache() *P { return &s.cache }

// Applied reports whether any command is currently merged into the cache.
func (s *CommandSlice[C, P]) Applied() bool { return s.applied }

// Reset drops the cache so the next Update replays from the first command.
func (s *CommandSlice[C, P]) Reset() {
	s.reset()
}

// Flush removes commands with start <= time < end and drops the cache.
func (s *CommandSlice[C, P]) Flush(start, end float64, keepStatic bool) int {
	n := s.TimeSlice.Flush(start, end, keepStatic)
	s.reset()
	return n
}

// Clear removes every command and drops the cache.
func (s *CommandSlice[C, P]) Clear() {
	s.TimeSlice.Clear()
	s.reset()
}
