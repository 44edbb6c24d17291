package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func getDownload(t *testing.T, srv http.Handler, cookie *http.Cookie, filename string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/download/"+filename, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestDownloadSuccess(t *testing.T) {
	h := newTestHandlers(t, &fakeEngine{})
	srv := testRouter(h)

	content := []byte("mp3 bytes")
	if err := os.WriteFile(filepath.Join(h.cfg.ConvertedDir, "lesson_1.mp3"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	rec := getDownload(t, srv, login(t, h), "lesson_1.mp3")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %q, want audio/mpeg", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="lesson_1.mp3"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if got := rec.Body.String(); got != string(content) {
		t.Errorf("body = %q, want %q", got, content)
	}
}

func TestDownloadMissingFile(t *testing.T) {
	h := newTestHandlers(t, &fakeEngine{})
	srv := testRouter(h)

	if rec := getDownload(t, srv, login(t, h), "nope.mp3"); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDownloadRejectsBadNames(t *testing.T) {
	h := newTestHandlers(t, &fakeEngine{})
	srv := testRouter(h)
	cookie := login(t, h)

	// A real file that must never leak through a bad name.
	if err := os.WriteFile(filepath.Join(h.cfg.ConvertedDir, "real.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"real.wav", "real.mp3.txt", "..real..mp3"} {
		rec := getDownload(t, srv, cookie, name)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%q: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestDownloadRequiresSession(t *testing.T) {
	h := newTestHandlers(t, &fakeEngine{})
	srv := testRouter(h)

	if rec := getDownload(t, srv, nil, "lesson_1.mp3"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
