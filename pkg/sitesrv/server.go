// Package sitesrv serves what the pipeline has written, read only, to
// the web front end.
//
//	GET /health
//	GET /sugars          sugars with a run, and the newest run of each
//	GET /sugars/{abrev}  matrices, clusterings and representatives of the newest run
package sitesrv

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pkg/config"
)

// Server has no state beyond the configuration. Every request looks at
// the disk again, so new runs show up without a restart.
type Server struct {
	cfg *config.Config
	log *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, log: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/sugars", s.sugars)
	r.Get("/sugars/{abrev}", s.sugar)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) sugars(w http.ResponseWriter, _ *http.Request) {
	list, err := ListSugars(s.cfg)
	if err != nil {
		s.log.Error("listing sugars", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "could not list sugars")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"sugars": list})
}

func (s *Server) sugar(w http.ResponseWriter, r *http.Request) {
	abrev := chi.URLParam(r, "abrev")
	if !ValidSugar(abrev) {
		s.respondError(w, http.StatusBadRequest, "bad sugar code "+abrev)
		return
	}
	res, err := Results(s.cfg, abrev)
	switch {
	case errors.Is(err, ErrNoResults):
		s.respondError(w, http.StatusNotFound, "no results for "+abrev)
	case err != nil:
		s.log.Error("reading results", zap.String("sugar", abrev), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "could not read results for "+abrev)
	default:
		s.respondJSON(w, http.StatusOK, res)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]any{"error": true, "message": message, "code": status})
}
