package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/codeguardian/internal/application"
)

// maxReviewBody bounds the size of code accepted for review.
const maxReviewBody = 1 << 20

type reviewRequest struct {
	Code   string `json:"code"`
	Source string `json:"source"` // owner/repo/path[@ref] or a GitHub blob URL.
}

// Review runs an AI code review of pasted code or of a repository file.
// Reviews do not touch the product backend, so no session is required.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReviewBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var (
		res application.ReviewResult
		err error
	)
	if req.Source != "" {
		ref, perr := application.ParseSourceRef(req.Source)
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		res, err = h.svc.Reviews.ReviewSource(r.Context(), ref)
	} else {
		res, err = h.svc.Reviews.Review(r.Context(), req.Code)
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(res))
}
