package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"selecao/internal/notify"
	"selecao/internal/store"
	"selecao/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

// ObjectStorage holds the files attached to applications.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

type Service struct {
	logger *logrus.Logger
	config *types.Config

	processes    *store.ProcessRepository
	applications *store.ApplicationRepository
	news         *store.NewsRepository

	auth     Authenticator
	files    ObjectStorage
	notifier notify.Notifier
	cookie   *securecookie.SecureCookie

	registry *prometheus.Registry
	metrics  *metrics
	location *time.Location
	now      func() time.Time

	handler http.Handler
	server  *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	processes *store.ProcessRepository,
	applications *store.ApplicationRepository,
	news *store.NewsRepository,
	auth Authenticator,
	files ObjectStorage,
	notifier notify.Notifier,
) (*Service, error) {
	mux := flow.New()

	cookie, err := newSecureCookie(config, logger)
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", config.Timezone, err)
	}

	registry := prometheus.NewRegistry()

	s := &Service{
		logger:       logger,
		config:       config,
		processes:    processes,
		applications: applications,
		news:         news,
		auth:         auth,
		files:        files,
		notifier:     notifier,
		cookie:       cookie,
		registry:     registry,
		metrics:      newMetrics(registry),
		location:     location,
		now:          time.Now,
		handler:      mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)
	r.Use(s.LoadSession)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}), http.MethodGet)

	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)
	r.HandleFunc("/register", s.handlePostRegister, http.MethodPost)
	r.HandleFunc("/register/confirm", s.handlePostRegisterConfirm, http.MethodPost)

	r.HandleFunc("/processes", s.handleGetProcesses, http.MethodGet)
	r.HandleFunc("/processes/:id", s.handleGetProcess, http.MethodGet)
	r.HandleFunc("/processes/:id/news", s.handleGetProcessNews, http.MethodGet)
	r.HandleFunc("/processes/:id/news/:newsID", s.handleGetNewsItem, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/me", s.handleGetMe, http.MethodGet)
		r.HandleFunc("/me/processes", s.handleGetMyProcesses, http.MethodGet)
		r.HandleFunc("/processes/:id/application", s.handleGetMyApplication, http.MethodGet)
		r.HandleFunc("/processes/:id/application", s.handlePostApplication, http.MethodPost)
	})

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)
		r.Use(s.RequireAdmin)

		r.HandleFunc("/admin/processes", s.handlePostProcess, http.MethodPost)
		r.HandleFunc("/admin/processes/:id", s.handlePatchProcess, http.MethodPatch)
		r.HandleFunc("/admin/processes/:id", s.handleDeleteProcess, http.MethodDelete)

		r.HandleFunc("/admin/processes/:id/fields", s.handlePostField, http.MethodPost)
		r.HandleFunc("/admin/processes/:id/fields/import", s.handlePostImportFields, http.MethodPost)
		r.HandleFunc("/admin/processes/:id/fields/:index", s.handlePutField, http.MethodPut)
		r.HandleFunc("/admin/processes/:id/fields/:index", s.handleDeleteField, http.MethodDelete)

		r.HandleFunc("/admin/processes/:id/applications", s.handleGetApplications, http.MethodGet)
		r.HandleFunc("/admin/processes/:id/applications/:uid", s.handlePatchApplication, http.MethodPatch)
		r.HandleFunc("/admin/processes/:id/applications/:uid", s.handleDeleteApplication, http.MethodDelete)
		r.HandleFunc("/admin/processes/:id/applications/:uid/files/:field", s.handleGetApplicationFile, http.MethodGet)

		r.HandleFunc("/admin/processes/:id/news", s.handlePostNews, http.MethodPost)
		r.HandleFunc("/admin/processes/:id/news/:newsID", s.handlePatchNews, http.MethodPatch)
		r.HandleFunc("/admin/processes/:id/news/:newsID", s.handleDeleteNews, http.MethodDelete)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// today is the current date in the configured timezone.
func (s *Service) today() time.Time {
	return s.now().In(s.location)
}

func newSecureCookie(config *types.Config, logger *logrus.Logger) (*securecookie.SecureCookie, error) {
	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode COOKIE_HASH_KEY: %w", err)
	}

	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode COOKIE_BLOCK_KEY: %w", err)
	}

	if len(hashKey) == 0 {
		logger.Warn("COOKIE_HASH_KEY not set, sessions will not survive a restart")
		hashKey = securecookie.GenerateRandomKey(32)
		blockKey = securecookie.GenerateRandomKey(32)
	}

	cookie := securecookie.New(hashKey, blockKey)
	cookie.MaxAge(config.SessionMaxAgeSec)

	return cookie, nil
}
