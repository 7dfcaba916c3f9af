// Package api provides the HTTP server for the StockPulse web page.
//
// It serves the single-page interface, a small JSON API over the analysis
// session, and a WebSocket stream of session events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/stockpulse/internal/config"
	"github.com/seenimoa/stockpulse/internal/session"
	"github.com/seenimoa/stockpulse/internal/view"
	"github.com/seenimoa/stockpulse/pkg/utils"
	"github.com/seenimoa/stockpulse/web"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Session is the part of session.Controller the server drives.
type Session interface {
	SetQuery(q string)
	Query() string
	Submit(override string) (session.Submission, bool)
	State() session.State
	Subscribe(buffer int) (<-chan session.Event, func())
}

// Server is the HTTP server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	sess   Session
	wsHub  *WSHub
	pages  *template.Template
	logger *log.Logger
}

// NewServer creates a configured server with all routes and middleware.
func NewServer(cfg *config.Config, sess Session, logger *log.Logger) (*Server, error) {
	pages, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	if logger == nil {
		logger = &log.DefaultLogger
	}

	srv := &Server{
		cfg:    cfg,
		sess:   sess,
		wsHub:  NewWSHub(),
		pages:  pages,
		logger: logger,
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// Session events are relayed to WebSocket clients while it runs.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	events, unsubscribe := s.sess.Subscribe(64)
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.wsHub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		s.relayEvents(gctx, events)
		return nil
	})

	g.Go(func() error {
		s.logger.Info().Str("addr", addr).Msg("web page listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// relayEvents forwards session events to every WebSocket client.
func (s *Server) relayEvents(ctx context.Context, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.wsHub.Broadcast(WSMessage{
				Type: string(ev.Kind),
				Data: newStateResponse(ev.State),
			})
		}
	}
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	// Page
	r.Get("/", s.handleIndex)
	r.Get("/fragment/results", s.handleResultsFragment)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS())))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/state", s.handleState)
		r.Put("/query", s.handleSetQuery)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/presets", s.handlePresets)

		r.Get("/config", s.handleGetConfig)
		r.Get("/config/settings", s.handleGetSettings)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeRequest is the body of POST /api/v1/analyze. A blank company name
// submits the held query.
type AnalyzeRequest struct {
	CompanyName string `json:"company_name"`
}

// AnalyzeResponse reports whether a submission was accepted.
type AnalyzeResponse struct {
	Accepted   bool                `json:"accepted"`
	Submission *session.Submission `json:"submission,omitempty"`
	State      session.State       `json:"state"`
}

// QueryRequest is the body of PUT /api/v1/query.
type QueryRequest struct {
	Query string `json:"query"`
}

// StateResponse is a state snapshot plus its projected dashboard.
type StateResponse struct {
	State     session.State   `json:"state"`
	Query     string          `json:"query,omitempty"`
	Dashboard *view.Dashboard `json:"dashboard,omitempty"`
}

func newStateResponse(st session.State) StateResponse {
	resp := StateResponse{State: st}
	if st.Status == session.Succeeded && st.Result != nil {
		d := view.Project(*st.Result)
		resp.Dashboard = &d
	}
	return resp
}

// pageData feeds the index and results templates.
type pageData struct {
	Query        string
	MarketStatus string
	Presets      []config.Preset
	State        session.State
	Dashboard    *view.Dashboard
	Pending      bool
	Failed       bool
}

func (s *Server) newPageData() pageData {
	st := s.sess.State()
	resp := newStateResponse(st)
	return pageData{
		Query:        s.sess.Query(),
		MarketStatus: utils.MarketStatus(),
		Presets:      s.cfg.UI.Presets,
		State:        st,
		Dashboard:    resp.Dashboard,
		Pending:      st.Status == session.Pending,
		Failed:       st.Status == session.Failed,
	}
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":        "ok",
			"version":       Version,
			"session":       s.sess.State().Status.String(),
			"ws_clients":    s.wsHub.ClientCount(),
			"market_status": utils.MarketStatus(),
			"time_ist":      utils.FormatDateTimeIST(utils.NowIST()),
		},
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderHTML(w, web.IndexTemplate, s.newPageData())
}

func (s *Server) handleResultsFragment(w http.ResponseWriter, r *http.Request) {
	s.renderHTML(w, web.ResultsTemplate, s.newPageData())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	resp := newStateResponse(s.sess.State())
	resp.Query = s.sess.Query()
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleSetQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.sess.SetQuery(req.Query)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: QueryRequest{Query: s.sess.Query()}})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	sub, ok := s.sess.Submit(req.CompanyName)
	if !ok {
		// Nothing to analyze: reported, not an error.
		writeJSON(w, http.StatusOK, APIResponse{
			Success: true,
			Data:    AnalyzeResponse{Accepted: false, State: s.sess.State()},
		})
		return
	}

	writeJSON(w, http.StatusAccepted, APIResponse{
		Success: true,
		Data:    AnalyzeResponse{Accepted: true, Submission: &sub, State: s.sess.State()},
	})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	presets := s.cfg.UI.Presets
	if presets == nil {
		presets = []config.Preset{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: presets})
}

// ============================================================
// Helpers
// ============================================================

func (s *Server) renderHTML(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("render page")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
