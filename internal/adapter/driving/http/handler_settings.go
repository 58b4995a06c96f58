package httphandler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/domain/settings"
)

// SettingsSchema returns every section with its field descriptors.
func (h *Handler) SettingsSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toSchemaResponse())
}

// GetSettings returns the open settings of a repository, loading all eight
// sections on first access or when reload=1 is given.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := repoID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid repository id")
		return
	}
	sess, err := h.session(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	var ed *settings.Editor
	if r.URL.Query().Get("reload") == "1" {
		ed, err = h.svc.Settings.Open(r.Context(), sess, id)
	} else {
		ed, err = h.svc.Settings.Current(r.Context(), sess, id)
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(ed))
}

type setSettingRequest struct {
	Value json.RawMessage `json:"value"`
}

// SetSetting changes one field of the open settings. The change is held in
// the editor until SaveSettings.
func (h *Handler) SetSetting(w http.ResponseWriter, r *http.Request) {
	id, ok := repoID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid repository id")
		return
	}
	section, err := settings.ParseSection(r.PathValue("section"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req setSettingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil || req.Value == nil {
		writeError(w, http.StatusBadRequest, `request body must be {"value": ...}`)
		return
	}
	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		writeError(w, http.StatusBadRequest, "invalid value")
		return
	}

	sess, err := h.session(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if _, err := h.svc.Settings.Current(r.Context(), sess, id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	ed, err := h.svc.Settings.Set(sess, id, section, r.PathValue("field"), value)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(ed))
}

// SaveSettings writes all eight sections of the open settings.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	h.persist(w, r, h.svc.Settings.Save)
}

// ResetSettings restores every field to its default and saves.
func (h *Handler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	h.persist(w, r, h.svc.Settings.Reset)
}

type persistFunc func(ctx context.Context, sess *application.Session, repoID int64) (*settings.Editor, error)

func (h *Handler) persist(w http.ResponseWriter, r *http.Request, do persistFunc) {
	id, ok := repoID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid repository id")
		return
	}
	sess, err := h.session(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	ed, err := do(r.Context(), sess, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(ed))
}
