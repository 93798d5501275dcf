package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
	"github.com/kirillkom/arxiv-simplifier/internal/core/ports"
	"github.com/kirillkom/arxiv-simplifier/internal/observability/metrics"
	"github.com/kirillkom/arxiv-simplifier/internal/ratelimit"
)

// Options carries the router's deployment knobs.
type Options struct {
	Service        string
	Version        string
	Production     bool
	MaxRequestSize int64
	AllowedOrigins []string
	APIKeyRequired bool
	ValidAPIKeys   []string
	Styles         []string
}

type Router struct {
	summarizer ports.PaperSummarizer
	metrics    *metrics.HTTPServerMetrics

	summarizeLimiter *ratelimit.Limiter
	healthLimiter    *ratelimit.Limiter

	service        string
	version        string
	production     bool
	maxRequestSize int64
	allowedOrigins []string
	apiKeyRequired bool
	validAPIKeys   map[string]struct{}
	styles         []string
}

func NewRouter(
	summarizer ports.PaperSummarizer,
	summarizeLimiter, healthLimiter *ratelimit.Limiter,
	m *metrics.HTTPServerMetrics,
	opts Options,
) *Router {
	keys := make(map[string]struct{}, len(opts.ValidAPIKeys))
	for _, key := range opts.ValidAPIKeys {
		if key = strings.TrimSpace(key); key != "" {
			keys[key] = struct{}{}
		}
	}
	return &Router{
		summarizer:       summarizer,
		metrics:          m,
		summarizeLimiter: summarizeLimiter,
		healthLimiter:    healthLimiter,
		service:          opts.Service,
		version:          opts.Version,
		production:       opts.Production,
		maxRequestSize:   opts.MaxRequestSize,
		allowedOrigins:   opts.AllowedOrigins,
		apiKeyRequired:   opts.APIKeyRequired,
		validAPIKeys:     keys,
		styles:           opts.Styles,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/v1/summarize", rt.rateLimitMiddleware(rt.summarizeLimiter, "summarize",
		maxBodyMiddleware(rt.maxRequestSize, http.HandlerFunc(rt.summarize))))
	mux.Handle("/healthz", rt.rateLimitMiddleware(rt.healthLimiter, "health",
		http.HandlerFunc(rt.healthz)))
	mux.Handle("/metrics", rt.metrics.Handler())
	if !rt.production {
		mux.HandleFunc("/info", rt.info)
	}

	var handler http.Handler = mux
	handler = rt.metrics.Middleware(rt.service, handler)
	handler = corsMiddleware(rt.allowedOrigins, handler)
	handler = securityHeadersMiddleware(rt.production, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

type summarizeBody struct {
	URL              string `json:"url"`
	ExplanationStyle string `json:"explanation_style"`
	APIKey           string `json:"api_key"`
}

func (rt *Router) summarize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	var body summarizeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if isMaxBytesError(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body is too large.")
			return
		}
		writeError(w, http.StatusBadRequest, "Request body must be valid JSON.")
		return
	}

	if !rt.authorize(r, body.APIKey) {
		writeError(w, http.StatusUnauthorized, "Invalid or missing API key.")
		return
	}

	start := time.Now()
	resp, err := rt.summarizer.Summarize(r.Context(), toDomainRequest(body))
	if err != nil {
		status, message := mapError(err)
		rt.metrics.RecordSummary(rt.service, body.ExplanationStyle, "error", time.Since(start))
		writeError(w, status, message)
		return
	}

	rt.metrics.RecordSummary(rt.service, resp.ExplanationStyle, "success", time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

// authorize applies the optional API-key gate. The key may arrive in the
// X-API-Key header or, for browser clients, in the request body.
func (rt *Router) authorize(r *http.Request, bodyKey string) bool {
	if !rt.apiKeyRequired {
		return true
	}
	key := strings.TrimSpace(r.Header.Get("X-API-Key"))
	if key == "" {
		key = strings.TrimSpace(bodyKey)
	}
	if key == "" {
		return false
	}
	_, ok := rt.validAPIKeys[key]
	return ok
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": rt.service,
		"version": rt.version,
	})
}

// info is a development-only endpoint describing the deployment. It never
// ships in production builds of the route table.
func (rt *Router) info(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":          rt.service,
		"version":          rt.version,
		"allowed_styles":   rt.styles,
		"api_key_required": rt.apiKeyRequired,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":       message,
		"status_code": status,
	})
}

func toDomainRequest(body summarizeBody) domain.SummarizeRequest {
	return domain.SummarizeRequest{
		URL:              strings.TrimSpace(body.URL),
		ExplanationStyle: strings.TrimSpace(body.ExplanationStyle),
	}
}
