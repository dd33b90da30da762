// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"

	"weightlog/internal/app"
	"weightlog/internal/domain"
	"weightlog/internal/instrumentation"
)

// OIDCConfig carries the optional SSO setup. When Enabled is false the
// SSO endpoints respond 404.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	records    *app.RecordsService
	charts     *app.ChartsService
	authSvc    *app.AuthService
	oidcConfig OIDCConfig
	instr      *instrumentation.Instrumentation
	webDir     string

	// disableAuth skips the session check and acts as testUser instead.
	disableAuth bool
	testUser    *domain.User
}

// WithoutAuth disables the session check and serves every request as u.
// Intended for handler tests.
func (s *Server) WithoutAuth(u *domain.User) *Server {
	s.disableAuth = true
	s.testUser = u
	return s
}

// New creates a Server wired to the given application services.
func New(
	records *app.RecordsService,
	charts *app.ChartsService,
	authSvc *app.AuthService,
	oidcConfig OIDCConfig,
	instr *instrumentation.Instrumentation,
	webDir string,
) *Server {
	return &Server{
		records:    records,
		charts:     charts,
		authSvc:    authSvc,
		oidcConfig: oidcConfig,
		instr:      instr,
		webDir:     webDir,
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(
		requestID(),
		logRequest(),
		panicRecovery(s.instr),
		requestMetrics(s.instr),
	)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}).Methods(http.MethodGet)

	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/setup", s.handleSetupUser).Methods(http.MethodPost)
	api.HandleFunc("/config", s.handleConfig).Methods(http.MethodGet)
	api.HandleFunc("/sso/login", s.handleSSOLogin).Methods(http.MethodGet)
	api.HandleFunc("/sso/callback", s.handleSSOCallback).Methods(http.MethodGet)

	authed := api.PathPrefix("/").Subrouter()
	authed.Use(s.authMiddleware)
	authed.HandleFunc("/weight-records", s.handleCreateRecord).Methods(http.MethodPost)
	authed.HandleFunc("/weight-records/{id:[0-9]+}", s.handleUpdateRecord).Methods(http.MethodPut)
	authed.HandleFunc("/weight-records/{id:[0-9]+}", s.handleDeleteRecord).Methods(http.MethodDelete)
	authed.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	authed.HandleFunc("/charts/weight", s.handleWeightChart).Methods(http.MethodGet)

	r.PathPrefix("/").Handler(spaFromDisk(s.webDir))

	return withNoCache(r)
}
