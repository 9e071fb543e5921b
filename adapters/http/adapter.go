// Package http exposes cancellation and the report dashboard over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aws-cost/adapters/html"
	"aws-cost/core/analysis"
	"aws-cost/core/cancellation"
	apperrors "aws-cost/internal/errors"
	"aws-cost/internal/logging"
)

// Version is reported by the health endpoint
var Version = "dev"

// Config holds HTTP adapter configuration
type Config struct {
	// Address to listen on
	Address string `json:"address"`

	// ReadTimeout for requests
	ReadTimeout time.Duration `json:"read_timeout"`

	// WriteTimeout for responses; report generation runs inside it
	WriteTimeout time.Duration `json:"write_timeout"`

	// MaxBodySize limits request body size
	MaxBodySize int64 `json:"max_body_size"`

	// EnableCORS enables CORS headers on /api routes
	EnableCORS bool `json:"enable_cors"`

	// AllowedOrigins for CORS
	AllowedOrigins []string `json:"allowed_origins"`

	// ReportsDir is served under /reports/
	ReportsDir string `json:"reports_dir"`

	// DaysBack is the window of reports generated by /dashboard
	DaysBack int `json:"days_back"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Address:        ":5000",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   5 * time.Minute,
		MaxBodySize:    1 << 20,
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		ReportsDir:     "data/reports",
		DaysBack:       30,
	}
}

// Canceler runs one cancellation request
type Canceler interface {
	Cancel(ctx context.Context, req cancellation.Request) (cancellation.Result, error)
}

// ReportSource generates a report file
type ReportSource interface {
	GenerateReport(ctx context.Context, req analysis.ReportRequest) (string, error)
}

// Adapter is the HTTP adapter
type Adapter struct {
	canceler Canceler
	reports  ReportSource
	config   *Config
	server   *http.Server
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a new HTTP adapter. reports may be nil, in which case the
// dashboard only serves existing files.
func New(canceler Canceler, reports ReportSource, config *Config) *Adapter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultConfig().MaxBodySize
	}
	return &Adapter{
		canceler: canceler,
		reports:  reports,
		config:   config,
		now:      time.Now,
		logger:   logging.Named("http"),
	}
}

// Router returns the HTTP handler
func (a *Adapter) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(a.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	r.Get("/health", a.handleHealth)
	r.Get("/dashboard", a.handleDashboard)
	r.Get("/reports/*", a.handleReport)

	r.Route("/api", func(r chi.Router) {
		if a.config.EnableCORS {
			r.Use(a.cors)
		}
		r.Options("/*", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/cancel-service", a.handleCancel)
	})
	return r
}

// Start serves until Shutdown; http.ErrServerClosed is not an error
func (a *Adapter) Start() error {
	a.server = &http.Server{
		Addr:         a.config.Address,
		Handler:      a.Router(),
		ReadTimeout:  a.config.ReadTimeout,
		WriteTimeout: a.config.WriteTimeout,
	}
	a.logger.Info("listening", zap.String("address", a.config.Address))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return apperrors.Unavailable("http server", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (a *Adapter) Shutdown(ctx context.Context) error {
	if a.server != nil {
		return a.server.Shutdown(ctx)
	}
	return nil
}

// CancelRequest is the body of POST /api/cancel-service
type CancelRequest struct {
	ServiceName string `json:"service_name"`

	// ServiceID and ResourceID are synonyms; ResourceID wins
	ServiceID  string `json:"service_id,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`

	Region string          `json:"region,omitempty"`
	Cost   decimal.Decimal `json:"cost"`

	// Confirmed records a console-only cancellation the user already made
	Confirmed bool `json:"confirmed,omitempty"`
}

func (a *Adapter) handleHealth(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

func (a *Adapter) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := a.parseJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.ServiceName) == "" {
		a.writeError(w, http.StatusBadRequest, "Missing required parameter: service_name")
		return
	}

	id := req.ResourceID
	if id == "" {
		id = req.ServiceID
	}
	a.logger.Info("cancellation requested",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("service", req.ServiceName),
		zap.String("resource_id", id),
		zap.String("region", req.Region))

	result, err := a.canceler.Cancel(r.Context(), cancellation.Request{
		Service:    req.ServiceName,
		ResourceID: id,
		Region:     req.Region,
		Cost:       req.Cost,
		Confirmed:  req.Confirmed,
	})
	switch {
	case err == nil:
		a.writeJSON(w, http.StatusOK, result)
	case apperrors.IsType(err, apperrors.TypeInput):
		a.writeError(w, http.StatusBadRequest, err.Error())
	default:
		result.ErrorCode = apperrors.CodeOf(err)
		if result.Message == "" {
			result.Message = err.Error()
		}
		a.writeJSON(w, http.StatusInternalServerError, result)
	}
}

func (a *Adapter) handleReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	path, ok := a.reportPath(name)
	if ok {
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			ok = false
		}
	}
	if !ok {
		err := apperrors.NotFound("report", name)
		a.writeError(w, statusFor(err), err.Error())
		return
	}
	http.ServeFile(w, r, path)
}

// handleDashboard serves today's report, generating it first when missing
func (a *Adapter) handleDashboard(w http.ResponseWriter, r *http.Request) {
	name := html.FileName(a.now())
	path, _ := a.reportPath(name)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if a.reports == nil {
			a.writeError(w, http.StatusNotFound, "no report for today")
			return
		}
		a.logger.Info("generating dashboard report", zap.String("path", path))
		if _, err := a.reports.GenerateReport(r.Context(), analysis.ReportRequest{
			DaysBack:   a.config.DaysBack,
			OutputPath: path,
		}); err != nil {
			a.logger.Error("dashboard report failed", zap.Error(err))
			a.writeError(w, statusFor(err), "report generation failed: "+err.Error())
			return
		}
	}
	http.ServeFile(w, r, path)
}

// reportPath resolves name inside the reports directory
func (a *Adapter) reportPath(name string) (string, bool) {
	clean := filepath.Clean("/" + name)
	if clean == "/" {
		return "", false
	}
	return filepath.Join(a.config.ReportsDir, filepath.FromSlash(clean)), true
}

// statusFor maps an error to a response code; upstream failures are 502
func statusFor(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.TypeInput:
		return http.StatusBadRequest
	case apperrors.TypeNotFound:
		return http.StatusNotFound
	case apperrors.TypeConfig, apperrors.TypePersistence, apperrors.TypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// Middleware

// requestID honors an incoming X-Request-ID or assigns a new one
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Adapter) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func (a *Adapter) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(a.config.AllowedOrigins) > 0 && a.config.AllowedOrigins[0] != "*" {
			origin = a.config.AllowedOrigins[0]
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		next.ServeHTTP(w, r)
	})
}

// Helpers

func (a *Adapter) parseJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, a.config.MaxBodySize))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func (a *Adapter) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (a *Adapter) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
