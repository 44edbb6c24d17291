package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"audio-converter/internal/logging"
)

// Download serves one produced MP3 from converted/. Only plain .mp3
// basenames are accepted; anything that could traverse out of the
// directory is rejected before the filesystem is touched.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	if filename == "" || filename != filepath.Base(filename) ||
		strings.Contains(filename, "..") || !strings.HasSuffix(filename, ".mp3") {
		writeDetail(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path := filepath.Join(h.cfg.ConvertedDir, filename)
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		writeDetail(w, http.StatusNotFound, "file not found")
		return
	}

	logging.Debug("serving download %s (%d bytes)", filename, st.Size())

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeFile(w, r, path)
}
