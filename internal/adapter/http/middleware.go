package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"weightlog/internal/app"
	"weightlog/internal/domain"
	"weightlog/internal/instrumentation"
)

type contextKey string

const userContextKey contextKey = "user"

// userFromContext returns the authenticated user set by authMiddleware,
// or nil.
func userFromContext(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userContextKey).(*domain.User)
	return u
}

// ContextWithUser puts a user into ctx the way authMiddleware does.
// Exposed for handler tests that run with auth disabled.
func ContextWithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// authMiddleware resolves the acting user from the forward auth header or
// the session cookie and rejects unauthenticated requests.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.disableAuth {
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), s.testUser)))
			return
		}

		// Forward auth proxies (e.g. Authelia) set Remote-User.
		if remoteUser := r.Header.Get("Remote-User"); remoteUser != "" {
			user, err := s.authSvc.ValidateForwardAuth(r.Context(), remoteUser)
			if err == nil && user != nil {
				next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
				return
			}
		}

		cookie, err := r.Cookie("session")
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := s.authSvc.ValidateSession(r.Context(), cookie.Value)
		if errors.Is(err, app.ErrSessionNotFound) || errors.Is(err, app.ErrSessionExpired) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// requestID tags every request and response with an X-Request-ID header.
func requestID() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
				r.Header.Set("X-Request-ID", id)
			}
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r)
		})
	}
}

// logRequest traces every incoming request.
func logRequest() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.WithFields(log.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": r.Header.Get("X-Request-ID"),
				"user_agent": r.UserAgent(),
			}).Trace("request received")
			next.ServeHTTP(w, r)
		})
	}
}

// panicRecovery keeps a panicking handler from taking the process down.
func panicRecovery(instr *instrumentation.Instrumentation) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Errorf("http: panic serving %s: %v\n%s", r.URL.Path, rec, debug.Stack())
					if instr != nil {
						instr.CounterHandleRequestPanic.Inc()
					}
					http.Error(w, "internal error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// requestMetrics records request counts by method/status and durations.
func requestMetrics(instr *instrumentation.Instrumentation) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if instr == nil {
				next.ServeHTTP(w, r)
				return
			}

			defer func(begin time.Time) {
				instr.HistRequestDuration.Observe(time.Since(begin).Seconds())
			}(time.Now())

			resp := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(resp, r)

			instr.CounterRequests.With(prometheus.Labels{
				"method": r.Method,
				"status": strconv.Itoa(resp.statusCode),
			}).Inc()
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.statusCode = statusCode
}
