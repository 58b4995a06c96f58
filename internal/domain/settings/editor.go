package settings

import (
	"sync"
	"time"
)

// SavedIndicatorDuration is how long the "saved" indicator stays visible
// after a successful save.
const SavedIndicatorDuration = 3 * time.Second

// Editor holds the mutable settings of the repository currently open in the
// settings view, plus a dirty flag. It knows nothing about persistence.
type Editor struct {
	mu      sync.RWMutex
	repoID  int64
	agg     Aggregate
	dirty   bool
	rev     uint64 // Incremented on every successful edit.
	savedAt time.Time
}

// NewEditor creates an editor over a private copy of agg.
func NewEditor(repoID int64, agg Aggregate) *Editor {
	return &Editor{repoID: repoID, agg: agg.Clone()}
}

// RepositoryID returns the repository the editor belongs to.
func (e *Editor) RepositoryID() int64 {
	return e.repoID
}

// Set validates value against the field's descriptor and stores it. Unknown
// sections or fields and values of the wrong kind are rejected and leave the
// editor unchanged.
func (e *Editor) Set(s Section, name string, value any) error {
	f, err := Lookup(s, name)
	if err != nil {
		return err
	}
	coerced, err := f.Coerce(value)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agg[s] == nil {
		e.agg[s] = SectionDefaults(s)
	}
	e.agg[s][name] = coerced
	e.dirty = true
	e.rev++
	return nil
}

// SetFormValue parses a raw form value for the field and stores it.
func (e *Editor) SetFormValue(s Section, name, raw string) error {
	f, err := Lookup(s, name)
	if err != nil {
		return err
	}
	v, err := f.ParseFormValue(raw)
	if err != nil {
		return err
	}
	return e.Set(s, name, v)
}

// Replace swaps the whole aggregate (import) and marks the editor dirty.
func (e *Editor) Replace(agg Aggregate) error {
	if err := agg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.agg = agg.Clone()
	e.dirty = true
	e.rev++
	return nil
}

// Snapshot returns a deep copy of the current aggregate.
func (e *Editor) Snapshot() Aggregate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.agg.Clone()
}

// Checkpoint returns a deep copy of the aggregate together with the edit
// revision it reflects. Pass the revision to MarkSaved once the copy has been
// persisted.
func (e *Editor) Checkpoint() (Aggregate, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.agg.Clone(), e.rev
}

// Section returns a copy of one section's values.
func (e *Editor) Section(s Section) Values {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(Values, len(e.agg[s]))
	for k, v := range e.agg[s] {
		out[k] = v
	}
	return out
}

// Dirty reports whether there are unsaved edits.
func (e *Editor) Dirty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dirty
}

// MarkSaved records a successful save of the checkpoint taken at rev. The
// dirty flag is cleared only if nothing was edited after the checkpoint.
func (e *Editor) MarkSaved(rev uint64, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rev == e.rev {
		e.dirty = false
	}
	e.savedAt = at
}

// ShowSaved reports whether the transient success indicator is visible at now.
func (e *Editor) ShowSaved(now time.Time) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.savedAt.IsZero() {
		return false
	}
	return now.Sub(e.savedAt) < SavedIndicatorDuration
}
