package web

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"goldforecast/internal/chart"
	"goldforecast/internal/export"
	"goldforecast/internal/forecast"
)

// ReportService produces the report served on every route.
//
//go:generate mockgen -package=web_test -destination=mock_report_service_test.go -source=handler.go ReportService
type ReportService interface {
	Report(ctx context.Context) (*forecast.Report, error)
}

type Options struct {
	Width, Height  int
	Interval       bool
	RequestTimeout time.Duration
	CORSOrigins    []string
	Compression    string // zstd | gzip | none
}

type Server struct {
	svc    ReportService
	opts   Options
	logger *slog.Logger
}

func NewServer(svc ReportService, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Width <= 0 {
		opts.Width = chart.DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = chart.DefaultHeight
	}
	return &Server{svc: svc, opts: opts, logger: logger}
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	pages := r.NewRoute().Subrouter()
	pages.Use(withTimeout(s.opts.RequestTimeout))
	pages.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	pages.HandleFunc("/forecast.png", s.handlePNG).Methods(http.MethodGet)
	pages.HandleFunc("/forecast.xlsx", s.handleXLSX).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(cors(s.opts.CORSOrigins), withTimeout(s.opts.RequestTimeout))
	api.HandleFunc("/forecast", s.handleAPI).Methods(http.MethodGet, http.MethodOptions)

	// recoverPanic sits inside compress so the error body goes through the
	// same encoder as the headers announce.
	var h http.Handler = r
	h = recoverPanic(s.logger)(h)
	h = compress(s.opts.Compression)(h)
	h = accessLog(s.logger)(h)
	return withRequestID(h)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Report(r.Context())
	if err != nil {
		status, msg := s.failure(r, err)
		renderError(w, status, msg, RequestID(r.Context()))
		return
	}
	data, err := NewPageData(rep, chart.PlotlyOptions{Width: s.opts.Width, Height: s.opts.Height, Interval: s.opts.Interval})
	if err != nil {
		s.logger.Error("page data", "err", err)
		renderError(w, http.StatusInternalServerError, "could not render the chart", RequestID(r.Context()))
		return
	}
	var buf bytes.Buffer
	if err := Render(&buf, "forecast.html", data); err != nil {
		s.logger.Error("render", "err", err)
		renderError(w, http.StatusInternalServerError, "could not render the page", RequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

type apiError struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

// handleAPI serves the full report, or its summary with ?summary=1.
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Report(r.Context())
	if err != nil {
		status, msg := s.failure(r, err)
		writeJSON(w, status, apiError{Error: msg, Kind: forecast.KindOf(err).String(), RequestID: RequestID(r.Context())})
		return
	}
	if summary, _ := strconv.ParseBool(r.URL.Query().Get("summary")); summary {
		writeJSON(w, http.StatusOK, rep.Summary())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handlePNG(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Report(r.Context())
	if err != nil {
		status, msg := s.failure(r, err)
		http.Error(w, msg, status)
		return
	}
	width := queryInt(r, "width", s.opts.Width, 100, 4000)
	height := queryInt(r, "height", s.opts.Height, 100, 4000)
	var buf bytes.Buffer
	if err := chart.PNG(&buf, rep, width, height); err != nil {
		s.logger.Error("png", "err", err)
		http.Error(w, "could not render the chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleXLSX(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Report(r.Context())
	if err != nil {
		status, msg := s.failure(r, err)
		http.Error(w, msg, status)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rep); err != nil {
		s.logger.Error("xlsx", "err", err)
		http.Error(w, "could not build the workbook", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="forecast.xlsx"`)
	_, _ = buf.WriteTo(w)
}

// StatusFor maps a pipeline error to an HTTP status.
func StatusFor(err error) int {
	switch forecast.KindOf(err) {
	case forecast.KindSource:
		return http.StatusBadGateway
	case forecast.KindData:
		return http.StatusUnprocessableEntity
	case forecast.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// failure logs err and returns the status and the message shown to clients.
// Internal errors are not echoed back.
func (s *Server) failure(r *http.Request, err error) (int, string) {
	status := StatusFor(err)
	kind := forecast.KindOf(err)
	s.logger.Warn("report failed", "err", err, "kind", kind.String(), "status", status, "request_id", RequestID(r.Context()))
	if kind == forecast.KindInternal {
		return status, "internal error"
	}
	return status, err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func queryInt(r *http.Request, key string, def, lo, hi int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return max(lo, min(v, hi))
}
