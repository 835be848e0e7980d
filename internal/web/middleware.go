package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type ctxKey int

const requestIDKey ctxKey = iota

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withRequestID keeps a well formed incoming id and assigns a new one otherwise.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			level := slog.LevelInfo
			if rec.status >= 500 {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Int("bytes", rec.bytes),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("request_id", RequestID(r.Context())),
			)
		})
	}
}

// recoverPanic protects handlers from panics.
func recoverPanic(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic", "err", rec, "request_id", RequestID(r.Context()), "stack", string(debug.Stack()))
					h := w.Header()
					h.Del("Content-Length")
					h.Set("Content-Type", "text/plain; charset=utf-8")
					h.Set("X-Content-Type-Options", "nosniff")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = io.WriteString(w, "internal server error\n")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func withTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// cors answers preflight requests and sets the allow headers for origins in
// allowed. "*" allows any origin.
func cors(allowed []string) func(http.Handler) http.Handler {
	anyOrigin := slices.Contains(allowed, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (anyOrigin || slices.Contains(allowed, origin)) {
				h := w.Header()
				if anyOrigin {
					h.Set("Access-Control-Allow-Origin", "*")
				} else {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
				h.Set("Access-Control-Allow-Methods", "GET,OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type,"+HeaderRequestID)
				h.Set("Access-Control-Expose-Headers", HeaderRequestID)
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type encodingWriter struct {
	http.ResponseWriter
	enc io.Writer
}

func (e encodingWriter) WriteHeader(code int) {
	e.Header().Del("Content-Length")
	e.ResponseWriter.WriteHeader(code)
}

func (e encodingWriter) Write(b []byte) (int, error) {
	e.Header().Del("Content-Length")
	return e.enc.Write(b)
}

// compress encodes responses with zstd or gzip depending on mode and what the
// client accepts. mode "zstd" prefers zstd and falls back to gzip.
func compress(mode string) func(http.Handler) http.Handler {
	var (
		gzPool = sync.Pool{New: func() any {
			w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
			return w
		}}
		zPool = sync.Pool{New: func() any {
			w, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
			return w
		}}
	)
	return func(next http.Handler) http.Handler {
		if mode == "" || mode == "none" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accept := r.Header.Get("Accept-Encoding")
			switch {
			case r.Method != http.MethodGet:
				next.ServeHTTP(w, r)
			case mode == "zstd" && strings.Contains(accept, "zstd"):
				enc := zPool.Get().(*zstd.Encoder)
				enc.Reset(w)
				defer func() {
					_ = enc.Close()
					enc.Reset(io.Discard)
					zPool.Put(enc)
				}()
				w.Header().Set("Content-Encoding", "zstd")
				w.Header().Add("Vary", "Accept-Encoding")
				next.ServeHTTP(encodingWriter{ResponseWriter: w, enc: enc}, r)
			case strings.Contains(accept, "gzip"):
				gz := gzPool.Get().(*gzip.Writer)
				gz.Reset(w)
				defer func() {
					_ = gz.Close()
					gz.Reset(io.Discard)
					gzPool.Put(gz)
				}()
				w.Header().Set("Content-Encoding", "gzip")
				w.Header().Add("Vary", "Accept-Encoding")
				next.ServeHTTP(encodingWriter{ResponseWriter: w, enc: gz}, r)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
