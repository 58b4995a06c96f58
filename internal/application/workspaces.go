package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/codeguardian/internal/domain/settings"
)

// Workspaces holds at most one settings editor per session. Opening another
// repository discards the previous editor, and a load that finishes after
// its view was replaced is ignored. A discarded entry is only kept while a
// load for it is still in flight.
type Workspaces struct {
	mu      sync.Mutex
	entries map[string]*workspace
}

type workspace struct {
	gen       uint64
	repoID    int64
	editor    *settings.Editor // nil while loading.
	inFlight  int              // loads begun and not yet completed.
	discarded bool
}

// NewWorkspaces creates an empty Workspaces.
func NewWorkspaces() *Workspaces {
	return &Workspaces{entries: make(map[string]*workspace)}
}

// Begin starts a new settings view for repoID, discarding any previous
// editor of the session, and returns the view's generation. Every Begin
// must be followed by a Complete for the same generation.
func (w *Workspaces) Begin(sessionID string, repoID int64) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := &workspace{gen: 1, repoID: repoID, inFlight: 1}
	if prev, ok := w.entries[sessionID]; ok {
		next.gen = prev.gen + 1
		next.inFlight += prev.inFlight
	}
	w.entries[sessionID] = next
	return next.gen
}

// Complete ends the load of generation gen and installs editor if gen is
// still the session's current view. A nil editor marks a failed load. It
// reports whether the editor was installed.
func (w *Workspaces) Complete(sessionID string, gen uint64, editor *settings.Editor) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	ws, ok := w.entries[sessionID]
	if !ok {
		return false
	}
	if ws.inFlight > 0 {
		ws.inFlight--
	}
	if ws.discarded && ws.inFlight == 0 {
		delete(w.entries, sessionID)
		return false
	}
	if editor == nil || ws.gen != gen || ws.repoID != editor.RepositoryID() {
		return false
	}
	ws.editor = editor
	return true
}

// Editor returns the loaded editor of the session if it belongs to repoID.
func (w *Workspaces) Editor(sessionID string, repoID int64) (*settings.Editor, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ws, ok := w.entries[sessionID]
	if !ok || ws.editor == nil || ws.repoID != repoID {
		return nil, false
	}
	return ws.editor, true
}

// Discard drops the session's editor and invalidates any load in flight.
func (w *Workspaces) Discard(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.discardLocked(sessionID)
}

// Retain discards the workspace of every session for which keep reports
// false and returns how many were discarded.
func (w *Workspaces) Retain(keep func(sessionID string) bool) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for id, ws := range w.entries {
		if ws.discarded || keep(id) {
			continue
		}
		w.discardLocked(id)
		n++
	}
	return n
}

// Len returns the number of tracked sessions, in-flight tombstones included.
func (w *Workspaces) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

func (w *Workspaces) discardLocked(sessionID string) {
	ws, ok := w.entries[sessionID]
	if !ok {
		return
	}
	if ws.inFlight == 0 {
		delete(w.entries, sessionID)
		return
	}
	// Keep the generation so the in-flight load cannot complete.
	w.entries[sessionID] = &workspace{gen: ws.gen + 1, inFlight: ws.inFlight, discarded: true}
}

// SettingsFlow ties the settings service to a session's workspace: open a
// repository's settings, edit them, save them, close the view.
type SettingsFlow struct {
	svc    *SettingsService
	ws     *Workspaces
	logger *slog.Logger
	now    func() time.Time
}

// NewSettingsFlow creates a SettingsFlow.
func NewSettingsFlow(svc *SettingsService, ws *Workspaces, logger *slog.Logger) *SettingsFlow {
	return &SettingsFlow{svc: svc, ws: ws, logger: logger, now: time.Now}
}

// Open loads repoID's settings into a fresh editor, replacing whatever the
// session had open. If another Open or Close for the session happened while
// loading, the result is dropped and ErrSuperseded is returned.
func (f *SettingsFlow) Open(ctx context.Context, sess *Session, repoID int64) (*settings.Editor, error) {
	gen := f.ws.Begin(sess.ID(), repoID)

	agg, err := f.svc.Load(ctx, sess, repoID)
	if err != nil {
		f.ws.Complete(sess.ID(), gen, nil)
		return nil, err
	}

	editor := settings.NewEditor(repoID, agg)
	if !f.ws.Complete(sess.ID(), gen, editor) {
		f.logger.Debug("discarding superseded settings load", "repository_id", repoID)
		return nil, ErrSuperseded
	}
	return editor, nil
}

// Current returns the open editor for repoID, loading it if the session has
// a different repository (or none) open. Unsaved edits survive page reloads.
func (f *SettingsFlow) Current(ctx context.Context, sess *Session, repoID int64) (*settings.Editor, error) {
	if ed, ok := f.ws.Editor(sess.ID(), repoID); ok {
		return ed, nil
	}
	return f.Open(ctx, sess, repoID)
}

// Editor returns the open editor for repoID without loading.
func (f *SettingsFlow) Editor(sess *Session, repoID int64) (*settings.Editor, error) {
	ed, ok := f.ws.Editor(sess.ID(), repoID)
	if !ok {
		return nil, ErrNoWorkspace
	}
	return ed, nil
}

// Set validates and stores one field value in the open editor.
func (f *SettingsFlow) Set(sess *Session, repoID int64, section settings.Section, field string, value any) (*settings.Editor, error) {
	ed, err := f.Editor(sess, repoID)
	if err != nil {
		return nil, err
	}
	if err := ed.Set(section, field, value); err != nil {
		return ed, err
	}
	return ed, nil
}

// SetFormValue is Set for a raw HTML form value.
func (f *SettingsFlow) SetFormValue(sess *Session, repoID int64, section settings.Section, field, raw string) (*settings.Editor, error) {
	ed, err := f.Editor(sess, repoID)
	if err != nil {
		return nil, err
	}
	if err := ed.SetFormValue(section, field, raw); err != nil {
		return ed, err
	}
	return ed, nil
}

// Save persists the open editor. On success the editor is marked saved
// unless it was edited while the save was in flight; on failure it stays
// dirty.
func (f *SettingsFlow) Save(ctx context.Context, sess *Session, repoID int64) (*settings.Editor, error) {
	ed, err := f.Editor(sess, repoID)
	if err != nil {
		return nil, err
	}

	agg, rev := ed.Checkpoint()
	if err := f.svc.Save(ctx, sess, repoID, agg); err != nil {
		return ed, err
	}
	ed.MarkSaved(rev, f.now())
	return ed, nil
}

// Reset replaces the open editor's values with defaults and saves them.
func (f *SettingsFlow) Reset(ctx context.Context, sess *Session, repoID int64) (*settings.Editor, error) {
	ed, err := f.Current(ctx, sess, repoID)
	if err != nil {
		return nil, err
	}
	if err := ed.Replace(settings.Defaults()); err != nil {
		return ed, err
	}
	return f.Save(ctx, sess, repoID)
}

// Import replaces the open editor's values with agg and saves them.
func (f *SettingsFlow) Import(ctx context.Context, sess *Session, repoID int64, agg settings.Aggregate) (*settings.Editor, error) {
	ed, err := f.Current(ctx, sess, repoID)
	if err != nil {
		return nil, err
	}
	if err := ed.Replace(agg); err != nil {
		return ed, err
	}
	return f.Save(ctx, sess, repoID)
}

// Close discards the session's editor, unsaved edits included.
func (f *SettingsFlow) Close(sess *Session) {
	f.ws.Discard(sess.ID())
}
