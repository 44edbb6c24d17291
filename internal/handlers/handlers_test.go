package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"audio-converter/internal/converter"
	"audio-converter/internal/session"
	"audio-converter/internal/startup"
)

// fakeEngine records the request it received and returns a scripted
// result or error.
type fakeEngine struct {
	req    converter.Request
	called bool
	res    *converter.Result
	err    error
}

func (f *fakeEngine) Convert(_ context.Context, req converter.Request) (*converter.Result, error) {
	f.called = true
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	res := *f.res
	if res.OutputPath == "" {
		res.OutputPath = req.OutputPath
	}
	return &res, nil
}

func testConfig(t *testing.T) *startup.Config {
	t.Helper()
	tmp := t.TempDir()

	uploadDir := tmp + "/uploads"
	convertedDir := tmp + "/converted"
	for _, dir := range []string{uploadDir, convertedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	return &startup.Config{
		Login:            "admin",
		Password:         "secret",
		UploadDir:        uploadDir,
		ConvertedDir:     convertedDir,
		MaxUploadBytes:   startup.DefaultMaxUploadBytes,
		SizeCeilingBytes: startup.DefaultSizeCeilingBytes,
		MinBitrateKbps:   16,
		MaxBitrateKbps:   128,
		SessionTTL:       time.Hour,
	}
}

func newTestHandlers(t *testing.T, engine Converter) *Handlers {
	t.Helper()
	cfg := testConfig(t)
	return New(cfg, session.NewStore(cfg.SessionTTL), engine, nil)
}

// testRouter mirrors the route table from main.
func testRouter(h *Handlers) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/login", h.LoginPage).Methods("GET")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/logout", h.Logout).Methods("GET")
	r.HandleFunc("/", h.UploadPage).Methods("GET")
	r.HandleFunc("/convert", h.Convert).Methods("POST")
	r.HandleFunc("/download/{filename}", h.Download).Methods("GET")
	r.HandleFunc("/api/history", h.History).Methods("GET")
	return h.AuthMiddleware(r)
}

// login obtains a valid session cookie.
func login(t *testing.T, h *Handlers) *http.Cookie {
	t.Helper()
	sess, err := h.sessions.Create("admin")
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: SessionCookieName, Value: sess.Token}
}

// multipartBody builds a multipart payload with optional bitrate and
// file fields.
func multipartBody(t *testing.T, bitrate, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if bitrate != "" {
		if err := mw.WriteField("bitrate", bitrate); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func uploadsIn(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestHealthNoAuthRequired(t *testing.T) {
	h := newTestHandlers(t, &fakeEngine{})
	srv := testRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"status":"ok"`)) {
		t.Errorf("body = %s, want status ok", rec.Body.String())
	}
}

func TestUploadPageRedirectsWithoutSession(t *testing.T) {
	h := newTestHandlers(t, &fakeEngine{})
	srv := testRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestUploadPageWithSession(t *testing.T) {
	h := newTestHandlers(t, &fakeEngine{})
	srv := testRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(login(t, h))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	h := newTestHandlers(t, &fakeEngine{})
	srv := testRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.AddCookie(login(t, h))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(bytes.TrimSpace(body)) != "[]" {
		t.Errorf("body = %q, want empty array", body)
	}
}
