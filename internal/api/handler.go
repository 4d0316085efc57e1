package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/opendv/site-config/internal/siteconfig"
	"github.com/opendv/site-config/internal/snapshot"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler serves the resolved site configuration read-only.
type Handler struct {
	store snapshot.Store

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler reading from store.
func NewHandler(store snapshot.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		store: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	if _, err := h.store.Get(); err != nil {
		resp.Status = "unresolved"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.current(w)
	if !ok {
		return
	}
	if notModified(w, r, cfg) {
		return
	}
	writeJSON(w, http.StatusOK, cfg.View())
}

func (h *Handler) handleGetSection(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.current(w)
	if !ok {
		return
	}

	var payload any
	switch section := r.PathValue("section"); section {
	case "site":
		payload = cfg.Site()
	case "modules":
		payload = modulesResponse{Modules: cfg.Modules()}
	case "image":
		payload = cfg.Image()
	case "cms":
		cms := cfg.CMS()
		payload = cmsResponse{
			CMSOptions: cms,
			APIURL:     cms.APIURL(),
			AccessMode: cms.AccessMode(),
		}
	case "styles":
		payload = stylesResponse{StyleSheets: cfg.StyleSheets()}
	case "build":
		payload = cfg.Build()
	default:
		writeError(w, http.StatusNotFound, "Unknown section", "section "+section+" does not exist",
			"Use one of site, modules, image, cms, styles, build")
		return
	}

	if notModified(w, r, cfg) {
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) current(w http.ResponseWriter) (*siteconfig.Resolved, bool) {
	cfg, err := h.store.Get()
	if err != nil {
		if errors.Is(err, snapshot.ErrNotResolved) {
			writeError(w, http.StatusServiceUnavailable, "Configuration unavailable", err.Error())
			return nil, false
		}
		writeInternalError(w, err)
		return nil, false
	}
	return cfg, true
}

// notModified sets the ETag and answers 304 when the client already holds
// this snapshot.
func notModified(w http.ResponseWriter, r *http.Request, cfg *siteconfig.Resolved) bool {
	etag := `"` + cfg.Fingerprint() + `"`
	w.Header().Set("ETag", etag)
	if etagMatches(r.Header.Values("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// etagMatches applies the weak comparison of If-None-Match: any listed tag,
// with or without a W/ prefix, or "*".
func etagMatches(headers []string, etag string) bool {
	for _, header := range headers {
		for _, candidate := range strings.Split(header, ",") {
			candidate = strings.TrimSpace(candidate)
			if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
				return true
			}
		}
	}
	return false
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type modulesResponse struct {
	Modules []string `json:"modules"`
}

type stylesResponse struct {
	StyleSheets []string `json:"styleSheets"`
}

type cmsResponse struct {
	siteconfig.CMSOptions
	APIURL     string                `json:"apiUrl"`
	AccessMode siteconfig.AccessMode `json:"accessMode"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
