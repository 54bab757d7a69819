package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"gwi.com/beauty-box/internal/auth"
)

type ctxKey int

const sessionKey ctxKey = iota

// sessionID is the namespace set by SessionMiddleware.
func sessionID(r *http.Request) string {
	ns, _ := r.Context().Value(sessionKey).(string)
	return ns
}

func withSession(ctx context.Context, ns string) context.Context {
	return context.WithValue(ctx, sessionKey, ns)
}

// SessionMiddleware requires a valid session token, taken from the
// Authorization header or, for websocket upgrades, the token query parameter.
func (h *APIHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}
		if tokenString == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		ns, err := auth.ValidateSessionToken(tokenString)
		if err != nil {
			log.Debug().Err(err).Msg("rejected session token")
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), ns)))
	})
}

// requestLogger writes one zerolog line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// recoverer logs a panic with its stack and answers 500.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
