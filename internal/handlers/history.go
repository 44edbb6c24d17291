package handlers

import (
	"net/http"

	"audio-converter/internal/logging"
)

// HistoryItem is one row of GET /api/history, with sizes and duration
// preformatted for the upload page.
type HistoryItem struct {
	Filename    string `json:"filename"`
	SourceName  string `json:"sourceName"`
	Duration    string `json:"duration"`
	BitrateKbps int    `json:"bitrateKbps"`
	Size        string `json:"size"`
	CreatedAt   string `json:"createdAt"`
}

// History returns the most recent conversions, newest first.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	items := []HistoryItem{}

	if h.history != nil {
		records, err := h.history.Recent(r.Context(), 50)
		if err != nil {
			logging.Error("failed to load conversion history: %v", err)
			writeDetail(w, http.StatusInternalServerError, "failed to load history")
			return
		}
		for _, rec := range records {
			items = append(items, HistoryItem{
				Filename:    rec.Filename,
				SourceName:  rec.SourceName,
				Duration:    formatDuration(rec.DurationSeconds),
				BitrateKbps: rec.BitrateKbps,
				Size:        formatSize(rec.SizeBytes),
				CreatedAt:   rec.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
	}

	writeJSON(w, items)
}
