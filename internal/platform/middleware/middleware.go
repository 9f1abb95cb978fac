// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware holds the HTTP decorators shared by every shot list route.

Chain order (outermost first), as assembled by the api package:

  - RequestID: correlation id, echoed back in X-Request-ID.
  - StructuredLogger: one "http_request_finished" line per request, keyed by route pattern.
  - RateLimit: a global policy, plus a tighter one on the generative collaborator routes.
  - PanicRecovery: turns a handler panic into a 500 envelope.
  - CORS: open in development, allow-listed otherwise.
*/
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/taibuivan/cinescript/internal/platform/constants"
	"github.com/taibuivan/cinescript/internal/platform/ctxutil"
	"github.com/taibuivan/cinescript/pkg/uuid"
)

// # Request Tracing

// RequestID reuses the caller's X-Request-ID or mints a UUIDv7, and stores it in the context.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requestID := request.Header.Get(constants.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New()
			}

			writer.Header().Set(constants.HeaderXRequestID, requestID)
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithRequestID(request.Context(), requestID)))
		})
	}
}

// # Activity Logging

// responseRecorder remembers the status and body size for the access log.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (recorder *responseRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

func (recorder *responseRecorder) Write(body []byte) (int, error) {
	written, err := recorder.ResponseWriter.Write(body)
	recorder.bytes += written
	return written, err
}

/*
StructuredLogger injects a request-scoped logger and writes one access line per request.

The line carries the chi route pattern (e.g. /projects/{projectID}/export) so
requests for different projects aggregate under one route. 4xx log at WARN,
5xx at ERROR.
*/
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			started := time.Now()

			requestLogger := logger.With(
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", RealIP(request)),
			)

			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			recorder := &responseRecorder{ResponseWriter: writer, status: http.StatusOK}

			next.ServeHTTP(recorder, request.WithContext(ctx))

			requestLogger.LogAttrs(ctx, levelFor(recorder.status), "http_request_finished",
				slog.String("route", routePattern(request)),
				slog.Int("status", recorder.status),
				slog.Int("bytes", recorder.bytes),
				slog.Int64("latency_ms", time.Since(started).Milliseconds()),
				slog.String("user_agent", request.UserAgent()),
			)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// routePattern is empty when the request never reached a chi router.
func routePattern(request *http.Request) string {
	if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
		return routeContext.RoutePattern()
	}
	return ""
}

// # Rate Limiting

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

/*
RateLimiter throttles one policy (the whole API, or the generative collaborator
routes) with a token bucket per client IP.

Each policy owns its own client table, so a crew member hammering "suggest"
exhausts only the collaborator bucket and can keep editing shots.
*/
type RateLimiter struct {
	name  string
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*rateLimitClient
}

// NewRateLimiter builds a limiter allowing rps sustained requests and burst spikes per IP.
func NewRateLimiter(name string, rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		name:    name,
		limit:   rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*rateLimitClient),
	}
}

// RateLimit returns the middleware for a named policy and evicts idle clients until context ends.
func RateLimit(context context.Context, name string, rps float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(name, rps, burst)
	go limiter.Sweep(context, constants.RateLimitCleanupInterval, constants.RateLimitClientTTL)
	return limiter.Handler
}

// Handler rejects requests over budget with 429 and a Retry-After hint.
func (limiter *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		clientIP := RealIP(request)

		if !limiter.allow(clientIP, time.Now()) {
			ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "rate_limited",
				slog.String("policy", limiter.name),
				slog.String("ip", clientIP),
			)
			writer.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(limiter.retryAfterSeconds()))
			writeError(writer, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Rate limit exceeded")
			return
		}

		next.ServeHTTP(writer, request)
	})
}

// Sweep evicts clients idle for longer than ttl, every interval, until context ends.
func (limiter *RateLimiter) Sweep(context context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			limiter.prune(now, ttl)
		case <-context.Done():
			return
		}
	}
}

func (limiter *RateLimiter) allow(clientIP string, now time.Time) bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	client, found := limiter.clients[clientIP]
	if !found {
		client = &rateLimitClient{limiter: rate.NewLimiter(limiter.limit, limiter.burst)}
		limiter.clients[clientIP] = client
	}
	client.lastSeen = now

	return client.limiter.AllowN(now, 1)
}

func (limiter *RateLimiter) prune(now time.Time, ttl time.Duration) int {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	evicted := 0
	for clientIP, client := range limiter.clients {
		if now.Sub(client.lastSeen) > ttl {
			delete(limiter.clients, clientIP)
			evicted++
		}
	}
	return evicted
}

// retryAfterSeconds is the time for one token to refill, rounded up to a whole second.
func (limiter *RateLimiter) retryAfterSeconds() int {
	if limiter.limit <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(limiter.limit))))
}

// # Reliability & Safety

// PanicRecovery logs the panic with its stack and answers 500 instead of dropping the connection.
func PanicRecovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}

				stack := make([]byte, 4096)
				stack = stack[:runtime.Stack(stack, false)]

				ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "panic_recovered",
					slog.Any("error", recovered),
					slog.String("route", routePattern(request)),
					slog.String("stack", string(stack)),
				)

				writeError(writer, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred")
			}()

			next.ServeHTTP(writer, request)
		})
	}
}

// # Cross-Origin Resource Sharing

// AppConfig is the slice of configuration CORS needs.
type AppConfig interface {
	IsDevelopment() bool
	AllowedOrigins() []string
}

// corsHeaders exposes Content-Disposition so browser clients can read the export file name.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Methods":     "GET, POST, PUT, DELETE, OPTIONS",
	"Access-Control-Allow-Headers":     "Accept, Content-Type, Content-Length, X-Request-ID",
	"Access-Control-Expose-Headers":    "Content-Length, Content-Disposition, Retry-After, X-Request-ID",
	"Access-Control-Allow-Credentials": "true",
	"Access-Control-Max-Age":           "300",
}

// CORS echoes allowed origins and short-circuits preflight requests with 204.
func CORS(cfg AppConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			if cfg.IsDevelopment() || slices.Contains(cfg.AllowedOrigins(), origin) {
				header := writer.Header()
				header.Set("Access-Control-Allow-Origin", origin)
				for name, value := range corsHeaders {
					header.Set(name, value)
				}
			}

			if request.Method == http.MethodOptions {
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Middleware Helpers

// RealIP prefers X-Real-IP, then the first X-Forwarded-For hop, then the socket peer.
func RealIP(request *http.Request) string {
	if ip := request.Header.Get(constants.HeaderXRealIP); ip != "" {
		return ip
	}

	if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}

// writeError writes the {code, error} body used before a request reaches the respond package.
func writeError(writer http.ResponseWriter, status int, code, message string) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(map[string]string{
		constants.FieldCode:  code,
		constants.FieldError: message,
	})
}
