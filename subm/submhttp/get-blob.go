package submhttp

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/screensync/backend/httpjson"
	"github.com/screensync/backend/logger"
	"github.com/screensync/backend/srvcerror"
)

// GetBlob serves a screenshot held by the in-memory blob store.
func (h *SubmHttpHandler) GetBlob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	key, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		httpjson.HandleError(log, w, srvcerror.ErrNotFound("screenshot"))
		return
	}
	content, mediaType, ok := h.blobs.GetBlob(key)
	if !ok {
		httpjson.HandleError(log, w, srvcerror.ErrNotFound("screenshot"))
		return
	}

	if mediaType != "" {
		w.Header().Set("Content-Type", mediaType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}
