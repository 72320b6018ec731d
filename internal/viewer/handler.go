package viewer

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/atinyakov/researchhive/internal/client/blob"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the contents of a blob store.
type Handler struct {
	Store *blob.Store
	Log   *zap.Logger
}

// listItem is one entry of GET /artifacts.
type listItem struct {
	blob.Handle
	URL string `json:"url"`
}

// List writes every live handle as JSON, oldest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handles := h.Store.List()
	items := make([]listItem, 0, len(handles))
	for _, hd := range handles {
		items = append(items, listItem{Handle: hd, URL: Path(hd)})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(items); err != nil {
		h.Log.Warn("encode artifact list", zap.Error(err))
	}
}

// Get writes the bytes of one artifact. Released handles are 404.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	hd, data, err := h.Store.Open(chi.URLParam(r, "id"))
	if errors.Is(err, blob.ErrReleased) {
		http.Error(w, "artifact not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	ct := hd.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if r.URL.Query().Get("download") == "1" && hd.Filename != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": hd.Filename}))
	}
	if _, err := w.Write(data); err != nil {
		h.Log.Debug("write artifact", zap.String("id", hd.ID), zap.Error(err))
	}
}

// Path is the viewer path of h.
func Path(h blob.Handle) string {
	return "/artifacts/" + h.ID
}
