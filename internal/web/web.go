package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"collegedecision/internal/config"
	"collegedecision/internal/listing"
	appLog "collegedecision/internal/log"
	"collegedecision/internal/logo"
	"collegedecision/internal/model"
	"collegedecision/internal/og"
	"collegedecision/internal/store"
	"collegedecision/internal/suggest"
)

// clientCookie identifies a visitor's custom list and selection.
const clientCookie = "cd_client"

//go:embed templates/*.html
var templateFS embed.FS

var validate = validator.New(validator.WithRequiredStructEnabled())

// Deps are the collaborators a Server is built from. Store and Suggest are
// required; OG and Logos may be nil.
type Deps struct {
	Config       *config.Config
	Universities []model.University
	Store        store.Store
	Suggest      *suggest.Service
	OG           *og.Generator
	Logos        *logo.Fetcher
	Sorter       *listing.Sorter
}

// Server provides the pages and JSON APIs of the countdown site.
type Server struct {
	cfg     *config.Config
	mux     *http.ServeMux
	pages   *template.Template
	static  []model.University
	store   store.Store
	suggest *suggest.Service
	og      *og.Generator
	logos   og.Logos
	sorter  *listing.Sorter
	tick    time.Duration
	now     func() time.Time

	// sitemap.xml only depends on the static list, so it is rendered at
	// most once per sitemapCacheTTL.
	sitemapMu    sync.RWMutex
	sitemapCache *sitemapCache
}

type sitemapCache struct {
	body      []byte
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(d Deps) *Server {
	cfg := d.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	sorter := d.Sorter
	if sorter == nil {
		sorter = listing.NewSorter(cfg.Popular)
	}
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		pages:   template.Must(template.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")),
		static:  d.Universities,
		store:   d.Store,
		suggest: d.Suggest,
		og:      d.OG,
		sorter:  sorter,
		tick:    time.Duration(cfg.TickMS) * time.Millisecond,
		now:     time.Now,
	}
	// Keep the interface nil when no fetcher is configured.
	if d.Logos != nil {
		s.logos = d.Logos
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.accessLog(s.mux)
}

// accessLog logs every request except /health at debug level.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if r.URL.Path == "/health" {
			return
		}
		appLog.Debug("http request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start).String())
	})
}

// StartServer serves h on listen until ctx is canceled, then shuts down
// gracefully.
func StartServer(ctx context.Context, listen string, h http.Handler) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /{domain}", s.handleCountdownPage)
	s.mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)
	s.mux.HandleFunc("GET /robots.txt", s.handleRobots)
	s.mux.Handle("GET /logos/", http.StripPrefix("/logos/", http.FileServer(http.Dir(s.cfg.LogoDir))))

	s.mux.HandleFunc("GET /api/universities", s.handleUniversities)
	s.mux.HandleFunc("GET /api/universities/{domain}", s.handleUniversity)
	s.mux.HandleFunc("GET /api/universities/{domain}/stream", s.handleStream)
	s.mux.HandleFunc("GET /api/universities/{domain}/calendar.ics", s.handleUniversityCalendar)
	s.mux.HandleFunc("GET /api/calendar.ics", s.handleCalendar)

	s.mux.HandleFunc("GET /api/og", s.handleOGImage)
	s.mux.HandleFunc("GET /og/card", s.handleOGCard)

	s.mux.HandleFunc("POST /api/suggest-university", s.handleSuggest)

	s.mux.HandleFunc("GET /api/custom", s.handleCustomList)
	s.mux.HandleFunc("POST /api/custom", s.handleCustomAdd)
	s.mux.HandleFunc("DELETE /api/custom", s.handleCustomClear)
	s.mux.HandleFunc("DELETE /api/custom/{id}", s.handleCustomDelete)
	s.mux.HandleFunc("POST /api/custom/import", s.handleCustomImport)

	s.mux.HandleFunc("PUT /api/selection", s.handleSelect)
	s.mux.HandleFunc("DELETE /api/selection", s.handleUnselect)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// visitor returns the visitor id from the cookie, if present and well formed.
func visitor(r *http.Request) (string, bool) {
	c, err := r.Cookie(clientCookie)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

// ensureVisitor returns the visitor id, issuing a new cookie when needed.
func ensureVisitor(w http.ResponseWriter, r *http.Request) string {
	if id, ok := visitor(r); ok {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// state loads the visitor's state, or an empty one for anonymous requests.
func (s *Server) state(r *http.Request) store.State {
	id, ok := visitor(r)
	if !ok {
		return store.State{}
	}
	st, err := store.LoadOrEmpty(r.Context(), s.store, id)
	if err != nil {
		appLog.Error("failed to load visitor state", err, "client", id)
		return store.State{}
	}
	return st
}

// universities returns the static list merged with the visitor's custom
// records.
func (s *Server) universities(r *http.Request) []model.University {
	return listing.Merge(s.static, s.state(r).Custom)
}

// clientIP returns the first X-Forwarded-For hop, else the peer address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return "unknown"
}

func siteHost(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Host
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeValidationError reports validator failures per field.
func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}
