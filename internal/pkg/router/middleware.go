package router

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/authgate/internal/pkg/config"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/stacktrace"
	"github.com/shandysiswandi/authgate/internal/pkg/uid"
)

const (
	// HeaderCorrelationID carries the id that ties client and server logs together.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted as a fallback from proxies.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// Middleware decorates an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Chain wraps h with mws so that mws[0] is the outermost handler.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // sentinel must be re-raised as is
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			if paths := stacktrace.Internal(1); len(paths) > 0 {
				slog.ErrorContext(r.Context(), "panic while serving request", "because", rvr, "stack", paths)
			} else {
				slog.ErrorContext(r.Context(), "panic while serving request", "because", rvr, "stack", string(debug.Stack()))
			}

			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			//nolint:errcheck,gosec // response already failed
			json.NewEncoder(w).Encode(errorBody{Message: "Internal server error"})
		}()

		next.ServeHTTP(w, r)
	})
}

// requestMeta resolves the client address and correlation id of r.
func requestMeta(ids uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := clientIP(r); ip != "" {
				r.RemoteAddr = ip
			}

			cid := cleanCorrelationID(r.Header.Get(HeaderCorrelationID))
			if cid == "" {
				cid = cleanCorrelationID(r.Header.Get(HeaderRequestID))
			}
			if cid == "" && ids != nil {
				cid = ids.Generate()
			}
			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}

func cleanCorrelationID(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}
	v = strings.TrimSpace(v)
	if len(v) > maxCorrelationIDLen {
		v = v[:maxCorrelationIDLen]
	}

	return v
}

func clientIP(r *http.Request) string {
	for _, h := range []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"} {
		v, _, _ := strings.Cut(r.Header.Get(h), ",")
		if ip := strings.TrimSpace(v); net.ParseIP(ip) != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}

	return ""
}

// maintenance answers 503 for the routes listed in app.maintenance.endpoints.
func maintenance(cfg config.Config) Middleware {
	blocked := make(map[string]bool)
	if cfg != nil {
		for _, route := range cfg.GetArray("app.maintenance.endpoints") {
			blocked[route] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if blocked[routeOf(r)] {
				writeJSON(w, http.StatusServiceUnavailable, errorBody{Message: "service is under maintenance"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func routeOf(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}

	return r.URL.Path
}
