package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"audio-converter/internal/logging"
	"audio-converter/internal/metrics"
	"audio-converter/internal/web"
)

// SessionCookieName is the name of the session cookie
const SessionCookieName = "audio_converter_session"

// LoginPage serves the login form. An already authenticated operator is
// sent straight to the upload page.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentSession(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	web.Render(w, "login.html", web.LoginData{})
}

// Login checks the submitted operator credentials and opens a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form data")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	if !h.verifyCredentials(username, password) {
		logging.Warn("failed login attempt for user %q", username)
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		w.WriteHeader(http.StatusUnauthorized)
		web.Render(w, "login.html", web.LoginData{Error: "Неверный логин или пароль"})
		return
	}

	sess, err := h.sessions.Create(username)
	if err != nil {
		logging.Error("failed to create session: %v", err)
		writeDetail(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	metrics.ActiveSessions.Set(float64(h.sessions.Len()))

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	logging.Info("operator logged in, session valid for %v", h.sessions.TTL())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout invalidates the current session and returns to the login form.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		h.sessions.Delete(cookie.Value)
		metrics.ActiveSessions.Set(float64(h.sessions.Len()))
	}

	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// AuthMiddleware protects everything except the login form and the
// health check. Browser navigation is redirected to /login; API
// requests receive 401 JSON.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := h.currentSession(r); !ok {
			clearSessionCookie(w)
			if isAPIPath(r.URL.Path) {
				writeDetail(w, http.StatusUnauthorized, "authentication required")
			} else {
				http.Redirect(w, r, "/login", http.StatusFound)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// currentSession resolves the session bound to the request cookie.
func (h *Handlers) currentSession(r *http.Request) (username string, ok bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	sess, ok := h.sessions.Validate(cookie.Value)
	if !ok {
		return "", false
	}
	return sess.Username, true
}

// verifyCredentials compares the submitted credentials against the
// configured operator account. The configured password may be either a
// bcrypt hash (produced by cmd/hashpw) or a plain value.
func (h *Handlers) verifyCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.cfg.Login)) == 1

	var passOK bool
	if strings.HasPrefix(h.cfg.Password, "$2") {
		passOK = bcrypt.CompareHashAndPassword([]byte(h.cfg.Password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(h.cfg.Password)) == 1
	}

	return userOK && passOK
}

// isAPIPath reports whether a path belongs to the JSON surface.
func isAPIPath(path string) bool {
	return path == "/convert" ||
		strings.HasPrefix(path, "/download/") ||
		strings.HasPrefix(path, "/api/")
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
