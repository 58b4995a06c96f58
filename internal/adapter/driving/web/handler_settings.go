package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/codeguardian/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/codeguardian/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/settings"
)

// activeSection reads the tab parameter, defaulting to the first section.
func activeSection(r *http.Request) settings.Section {
	if s, err := settings.ParseSection(r.URL.Query().Get("tab")); err == nil {
		return s
	}
	return settings.Sections()[0]
}

// Settings renders the settings view of a repository. Entering the view
// loads all eight sections afresh; tab switches (htmx) reuse the open
// editor so unsaved edits carry across tabs.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	id, ok := repoID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	section := activeSection(r)

	if isPartial(r) {
		ed, err := h.svc.Settings.Current(r.Context(), sess, id)
		if err != nil {
			h.settingsError(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, templates.SettingsPanel(toSettingsViewModel(model.Repository{ID: id}, ed, section, vm.SettingsStatusViewModel{})))
		return
	}

	repo, err := h.svc.Repos.Find(r.Context(), sess, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ed, err := h.svc.Settings.Open(r.Context(), sess, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.page(w, r, sess, repo.Name+" settings", "repos",
		templates.SettingsPage(toSettingsViewModel(repo, ed, section, vm.SettingsStatusViewModel{})))
}

// SetField stores one field change in the open editor and answers with the
// status strip.
func (h *Handler) SetField(w http.ResponseWriter, r *http.Request) {
	id, ok := repoID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	section, err := settings.ParseSection(r.PathValue("section"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	// Checkboxes post a hidden "off" followed by "on" when checked.
	values := r.PostForm["value"]
	var raw string
	if len(values) > 0 {
		raw = values[len(values)-1]
	}

	if _, err := h.svc.Settings.Current(r.Context(), sess, id); err != nil {
		h.settingsError(w, r, err)
		return
	}
	ed, err := h.svc.Settings.SetFormValue(sess, id, section, r.PathValue("field"), raw)
	status := vm.SettingsStatusViewModel{}
	if ed != nil {
		status.Dirty = ed.Dirty()
	}
	if err != nil {
		status.Error = err.Error()
	}
	h.render(w, r, http.StatusOK, templates.SettingsStatus(status))
}

// SaveSettings writes all eight sections and re-renders the panel.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	h.persist(w, r, h.svc.Settings.Save)
}

// ResetSettings restores defaults in every section and saves them.
func (h *Handler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	h.persist(w, r, h.svc.Settings.Reset)
}

type persistFunc func(ctx context.Context, sess *application.Session, repoID int64) (*settings.Editor, error)

func (h *Handler) persist(w http.ResponseWriter, r *http.Request, do persistFunc) {
	id, ok := repoID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	ed, err := do(r.Context(), sess, id)
	if ed == nil {
		h.settingsError(w, r, err)
		return
	}
	if application.IsAuthError(err) {
		h.fail(w, r, err)
		return
	}

	status := vm.SettingsStatusViewModel{}
	if err != nil {
		status = saveFailureStatus(err)
	}
	h.render(w, r, http.StatusOK, templates.SettingsPanel(toSettingsViewModel(model.Repository{ID: id}, ed, activeSection(r), status)))
}

// settingsError answers a settings fragment request that has no editor to
// render.
func (h *Handler) settingsError(w http.ResponseWriter, r *http.Request, err error) {
	if application.IsAuthError(err) {
		h.fail(w, r, err)
		return
	}
	msg := errorMessage(err)
	if errors.Is(err, application.ErrNoWorkspace) {
		msg = "These settings are no longer open. Reload the page."
	}
	h.render(w, r, http.StatusOK, templates.ErrorPanel(msg))
}

func saveFailureStatus(err error) vm.SettingsStatusViewModel {
	status := vm.SettingsStatusViewModel{Dirty: true, Error: errorMessage(err)}

	var saveErr *application.SaveError
	if errors.As(err, &saveErr) {
		for _, f := range saveErr.Failures {
			status.Failed = append(status.Failed, failureLine(f))
		}
	}
	return status
}

func failureLine(f application.SectionFailure) string {
	line := f.Section.Title()
	switch {
	case f.Status != 0:
		line += ": status " + strconv.Itoa(f.Status)
	case f.Err != nil:
		line += ": " + f.Err.Error()
	}
	return line
}
