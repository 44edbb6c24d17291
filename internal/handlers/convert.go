package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"audio-converter/internal/converter"
	"audio-converter/internal/ffmpeg"
	"audio-converter/internal/history"
	"audio-converter/internal/logging"
	"audio-converter/internal/metrics"
	"audio-converter/internal/web"
)

// multipartOverhead is slack on top of the file cap for multipart
// boundaries, part headers and the bitrate field, so a file of exactly
// MaxUploadBytes still fits through the outer body guard.
const multipartOverhead = 64 * 1024

var errFileTooLarge = errors.New("file exceeds the upload limit")

// ConvertResponse is the success body of POST /convert.
type ConvertResponse struct {
	Filename     string `json:"filename"`
	Duration     string `json:"duration"`
	Bitrate      int    `json:"bitrate"`
	MP3Size      string `json:"mp3_size"`
	OriginalSize string `json:"original_size"`
}

// UploadPage serves the upload form.
func (h *Handlers) UploadPage(w http.ResponseWriter, r *http.Request) {
	username, _ := h.currentSession(r)
	web.Render(w, "upload.html", web.UploadData{Username: username})
}

// Convert receives one multipart upload and runs it through the
// conversion engine synchronously. By the time a success response is
// written the output file is complete under converted/.
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		metrics.ConversionsTotal.WithLabelValues("bad_request").Inc()
		writeDetail(w, http.StatusBadRequest, "expected a multipart form upload")
		return
	}

	var (
		bitrateValue string
		sourceName   string
		tempPath     string
		uploadedSize int64
	)

	// The temp input must not outlive the request, whatever happens.
	defer func() {
		if tempPath != "" {
			if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
				logging.Warn("failed to remove temp upload %s: %v", tempPath, err)
			}
		}
	}()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			h.failUpload(w, err)
			return
		}

		switch part.FormName() {
		case "bitrate":
			value, err := io.ReadAll(io.LimitReader(part, 16))
			if err != nil {
				h.failUpload(w, err)
				return
			}
			bitrateValue = string(value)
		case "file":
			sourceName = filepath.Base(part.FileName())
			tempPath, uploadedSize, err = h.saveUpload(part, sourceName)
			if err != nil {
				h.failUpload(w, err)
				return
			}
		}
	}

	if tempPath == "" || sourceName == "" {
		metrics.ConversionsTotal.WithLabelValues("bad_request").Inc()
		writeDetail(w, http.StatusBadRequest, "file field is required")
		return
	}

	choice, err := parseBitrateChoice(bitrateValue)
	if err != nil {
		metrics.ConversionsTotal.WithLabelValues("bad_request").Inc()
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics.UploadBytesTotal.Add(float64(uploadedSize))

	// Optional backpressure: wait for a job slot or the client leaving.
	if h.jobs != nil {
		select {
		case h.jobs <- struct{}{}:
			defer func() { <-h.jobs }()
		case <-ctx.Done():
			return
		}
	}

	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()

	outputName := fmt.Sprintf("%s_%d.mp3", sanitizeStem(sourceName), time.Now().Unix())
	req := converter.Request{
		SourcePath:       tempPath,
		OutputPath:       filepath.Join(h.cfg.ConvertedDir, outputName),
		SizeCeilingBytes: h.cfg.SizeCeilingBytes,
		Params:           ffmpeg.DefaultEncodeParams(),
	}
	if !choice.Auto {
		req.PreferredBitrateKbps = choice.Kbps
	}

	res, err := h.engine.Convert(ctx, req)
	if err != nil {
		h.failConversion(w, err)
		return
	}

	metrics.ConversionsTotal.WithLabelValues("success").Inc()
	metrics.ConversionDuration.Observe(time.Since(start).Seconds())
	metrics.OutputBytesTotal.Add(float64(res.FinalSizeBytes))

	h.recordHistory(r, history.Record{
		Filename:          outputName,
		SourceName:        sourceName,
		DurationSeconds:   res.DurationSeconds,
		BitrateKbps:       res.FinalBitrateKbps,
		SizeBytes:         res.FinalSizeBytes,
		OriginalSizeBytes: uploadedSize,
	})

	logging.Info("converted %s -> %s (%d kbps, %d bytes) in %v",
		sourceName, outputName, res.FinalBitrateKbps, res.FinalSizeBytes, time.Since(start).Round(time.Millisecond))

	writeJSON(w, ConvertResponse{
		Filename:     outputName,
		Duration:     formatDuration(res.DurationSeconds),
		Bitrate:      res.FinalBitrateKbps,
		MP3Size:      formatSize(res.FinalSizeBytes),
		OriginalSize: formatSize(uploadedSize),
	})
}

// saveUpload streams one file part to a fresh temp file under uploads/.
// The file's own bytes are capped at MaxUploadBytes; a file of exactly
// the cap is accepted, one byte more is rejected.
func (h *Handlers) saveUpload(part io.Reader, sourceName string) (string, int64, error) {
	if sourceName == "" || sourceName == "." {
		return "", 0, fmt.Errorf("file field is missing a filename")
	}

	name := fmt.Sprintf("tmp-%s%s", strings.ReplaceAll(uuid.NewString(), "-", ""), sanitizeExt(sourceName))
	path := filepath.Join(h.cfg.UploadDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp upload: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(part, h.cfg.MaxUploadBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n > h.cfg.MaxUploadBytes {
		err = errFileTooLarge
	}
	if err != nil {
		// saveUpload's caller removes the file through tempPath; here the
		// path is not returned yet, so clean up in place.
		if rmErr := os.Remove(path); rmErr != nil {
			logging.Warn("failed to remove temp upload %s: %v", path, rmErr)
		}
		return "", 0, err
	}
	return path, n, nil
}

// failUpload maps upload-phase errors to responses. An oversized file
// arrives as errFileTooLarge from saveUpload; a body that outruns even
// the framing allowance arrives as *http.MaxBytesError.
func (h *Handlers) failUpload(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.Is(err, errFileTooLarge) || errors.As(err, &maxErr) {
		metrics.ConversionsTotal.WithLabelValues("bad_request").Inc()
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("file exceeds the %s upload limit", formatSize(h.cfg.MaxUploadBytes)))
		return
	}
	logging.Error("upload failed: %v", err)
	metrics.ConversionsTotal.WithLabelValues("bad_request").Inc()
	writeDetail(w, http.StatusBadRequest, "failed to read upload")
}

// failConversion maps engine errors to status codes and operator-facing
// messages. Subprocess details stay in the logs.
func (h *Handlers) failConversion(w http.ResponseWriter, err error) {
	kind, ok := converter.KindOf(err)
	if !ok {
		logging.Error("conversion failed: %v", err)
		metrics.ConversionsTotal.WithLabelValues("internal_error").Inc()
		writeDetail(w, http.StatusInternalServerError, "internal conversion error")
		return
	}

	logging.Error("conversion failed (%s): %v", kind, err)
	metrics.ConversionsTotal.WithLabelValues(kind.String()).Inc()

	switch kind {
	case converter.ProbeFailed:
		writeDetail(w, http.StatusBadRequest, "could not read audio from the uploaded file")
	case converter.TooLong:
		writeDetail(w, http.StatusBadRequest, "файл слишком длинный: разделите его на части по 1-2 часа")
	case converter.CannotFit:
		writeDetail(w, http.StatusBadRequest, "could not fit the file under the size limit")
	default:
		writeDetail(w, http.StatusInternalServerError, "encoding failed")
	}
}

// recordHistory persists a conversion record; history is best-effort.
func (h *Handlers) recordHistory(r *http.Request, rec history.Record) {
	if h.history == nil {
		return
	}
	if err := h.history.Add(r.Context(), rec); err != nil {
		logging.Error("failed to record conversion history: %v", err)
	}
}

// sanitizeStem keeps letters, digits, dots, dashes and underscores from
// the source filename's stem so the output name is safe on disk and in
// URLs. Everything else becomes an underscore.
func sanitizeStem(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "audio"
	}
	if runes := []rune(out); len(runes) > 120 {
		out = string(runes[:120])
	}
	return out
}

// sanitizeExt returns a safe lowercase extension including the dot, or
// empty when the source has none.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return ""
		}
	}
	return ext
}
