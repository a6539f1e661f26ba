package httpapi

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/example/taxi-dispatch/internal/observability"
)

type ctxKeyRequestID struct{}

// RequestID returns the id assigned to the request by the middleware
// chain, or "" outside of it.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

func (s *Server) registerMiddleware() {
	s.mux.Use(s.recoverPanics)
	s.mux.Use(s.traceRequests)
}

// traceRequests tags every request with an id (honoring one supplied by
// the caller), records prometheus counters, and writes one access log
// line per request.
func (s *Server) traceRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = newID()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID{}, id))

		began := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		code := sw.status
		if code == 0 {
			code = http.StatusOK
		}
		route := routePattern(r)
		elapsed := time.Since(began)

		observability.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())

		s.logger.Info("request served",
			"request_id", id,
			"method", r.Method,
			"route", route,
			"status", code,
			"elapsed_ms", elapsed.Milliseconds(),
			"client", clientAddr(r),
		)
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("handler panicked", "panic", v, "request_id", RequestID(r.Context()))
				writeError(w, http.StatusInternalServerError, errorBody{Code: "internal", Detail: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusWriter remembers the first status code written so the access
// log and metrics report what the client saw.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

// Hijack keeps the websocket upgrade working behind the wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// routePattern prefers the mux template ("/api/v1/vehicles/{id}") over
// the raw path so metric labels stay low-cardinality.
func routePattern(r *http.Request) string {
	if rt := mux.CurrentRoute(r); rt != nil {
		if tpl, err := rt.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func newID() string { return uuid.New().String() }
