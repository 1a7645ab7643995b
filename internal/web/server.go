// Package web is the HTTP surface: availability pages, reservation and
// extension forms, and bulk cancellation. All user-facing outcomes are
// rendered pages; raw errors never reach the browser.
package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"studyroom/internal/booking"
	"studyroom/internal/cache"
	"studyroom/internal/config"
	"studyroom/internal/export"
	"studyroom/internal/ratelim"
	"studyroom/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Server holds the handler dependencies.
type Server struct {
	svc      *booking.Service
	views    *view.Builder
	exporter *export.Service
	cache    *cache.GridCache
	cfg      *config.Config
	logger   *zerolog.Logger

	mu        sync.RWMutex
	inventory *config.InventoryConfig
}

// NewServer wires the handlers. cache may be nil when redis is not
// configured.
func NewServer(svc *booking.Service, views *view.Builder, exporter *export.Service, gridCache *cache.GridCache, cfg *config.Config, logger *zerolog.Logger) *Server {
	return &Server{
		svc:      svc,
		views:    views,
		exporter: exporter,
		cache:    gridCache,
		cfg:      cfg,
		logger:   logger,
	}
}

// SetInventory swaps the active room/seat inventory. Called at startup
// and by the config watcher on reload.
func (s *Server) SetInventory(inv *config.InventoryConfig) {
	s.mu.Lock()
	s.inventory = inv
	s.mu.Unlock()
}

func (s *Server) getInventory() *config.InventoryConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inventory
}

// Router builds the route table. POST endpoints go through the rate
// limiter.
func (s *Server) Router(limiter *ratelim.RateLimiter) *httprouter.Router {
	router := httprouter.New()

	router.GET("/", s.handleIndex)
	router.GET("/room_detail", s.handleRoomDetail)
	router.POST("/reserve", limiter.Limit(s.handleReserve))
	router.GET("/personal_detail", s.handleSeatDetail)
	router.GET("/personal_all", s.handleSeatAll)
	router.POST("/personal_reserve", limiter.Limit(s.handleSeatReserve))
	router.GET("/extend_page", s.handleExtendForm)
	router.POST("/extend_page", limiter.Limit(s.handleExtendLookup))
	router.POST("/extend_confirm", limiter.Limit(s.handleExtendConfirm))
	router.GET("/cancel_all", s.handleCancelForm)
	router.POST("/cancel_all", limiter.Limit(s.handleCancelLookup))
	router.POST("/cancel_all_confirm", limiter.Limit(s.handleCancelConfirm))
	router.GET("/export.xlsx", s.handleExport)

	return router
}

// RequestLogger logs each request with a generated request id.
func RequestLogger(logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		next.ServeHTTP(w, r)
		logger.Info().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// SecurityHeaders applies the usual browser hardening headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

type messagePage struct {
	Title   string
	Message string
	BackURL string
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) renderMessage(w http.ResponseWriter, status int, title, message, backURL string) {
	s.renderPage(w, status, "message.html", messagePage{Title: title, Message: message, BackURL: backURL})
}

// renderDomainError maps the lifecycle error taxonomy onto pages.
// Conflicts are expected outcomes; only unknown errors are failures.
func (s *Server) renderDomainError(w http.ResponseWriter, r *http.Request, err error, backURL, retryURL string) {
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		s.renderMessage(w, http.StatusBadRequest, "Invalid input", verr.Reason, backURL)
		return
	}

	var cerr *booking.ConflictError
	if errors.As(err, &cerr) {
		msg := "The slot " + cerr.Conflict.Interval() + " is already reserved."
		if cerr.CrossPool {
			msg = "You already hold " + cerr.Conflict.Interval() + " in the other pool. A person cannot hold a room and a seat at the same time."
		}
		s.renderMessage(w, http.StatusConflict, "Reservation not possible", msg, backURL)
		return
	}

	var berr *booking.ExtensionBlockedError
	if errors.As(err, &berr) {
		s.renderMessage(w, http.StatusConflict, "Extension not possible",
			"The extension is blocked by "+berr.Conflict.Interval()+".", backURL)
		return
	}

	var nferr *booking.NotFoundError
	if errors.As(err, &nferr) {
		http.Redirect(w, r, retryURL, http.StatusSeeOther)
		return
	}

	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("handler error")
	s.renderMessage(w, http.StatusInternalServerError, "Something went wrong",
		"Please try again later.", backURL)
}
