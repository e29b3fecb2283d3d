package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/TemirB/storefront-api/internal/observability"
)

// ServerTimingApp measures request time, stamps app;dur=... into Server-Timing
// just before the headers go out and reports the request to Metrics.ObserveHTTP.
func ServerTimingApp(m observability.Metrics) func(http.Handler) http.Handler {
	if m == nil {
		m = observability.Noop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &timingWriter{ResponseWriter: w, start: time.Now()}
			next.ServeHTTP(tw, r)
			if tw.status == 0 {
				tw.status = http.StatusOK
			}

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.ObserveHTTP(r.Method, route, tw.status, sinceMs(tw.start))
		})
	}
}

type timingWriter struct {
	http.ResponseWriter
	start  time.Time
	status int
}

func (t *timingWriter) WriteHeader(code int) {
	if t.status == 0 {
		t.status = code
		observability.AddServerTiming(t.Header(), observability.Timing{Name: "app", Dur: sinceMs(t.start)})
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *timingWriter) Write(b []byte) (int, error) {
	if t.status == 0 {
		t.WriteHeader(http.StatusOK)
	}
	return t.ResponseWriter.Write(b)
}

func sinceMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}

type ctxKey int

const userIDKey ctxKey = iota

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// optionalAuth attaches the user id when a valid token is present and
// otherwise lets the request through as a guest.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := bearer(r); tok != "" {
			if id, err := s.svc.Auth.Authenticate(tok); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearer(r)
		if tok == "" {
			writeMessage(w, http.StatusUnauthorized, "unauthorized: missing bearer token")
			return
		}
		id, err := s.svc.Auth.Authenticate(tok)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

func userID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(userIDKey).(uuid.UUID)
	return id, ok
}
