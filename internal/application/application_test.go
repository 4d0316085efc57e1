package application

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/opendv/site-config/internal/config"
	"github.com/opendv/site-config/internal/siteconfig"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	site := resolveDefaults(t)
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, site, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	stored, err := app.store.Get()
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored != site {
		t.Fatalf("expected stored snapshot to be the resolved one")
	}
	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
}

func TestNewRejectsNilSnapshot(t *testing.T) {
	if _, err := New(baseTestConfig(":0"), nil, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for nil snapshot")
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestBuildRootHandler(t *testing.T) {
	apiInvoked := false
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiInvoked = true
		w.WriteHeader(http.StatusNoContent)
	})
	handler := BuildRootHandler(apiHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if rec.Code != http.StatusNoContent || !apiInvoked {
		t.Fatalf("expected API handler to be invoked, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestLoadBaseOverlaysFiles(t *testing.T) {
	dir := t.TempDir()
	sitePath := filepath.Join(dir, "site.yaml")
	smPath := filepath.Join(dir, "slicemachine.config.json")
	writeFile(t, sitePath, "cms:\n  endpoint: from-yaml\nimage:\n  quality: 90\n")
	writeFile(t, smPath, `{"repositoryName": "from-slicemachine"}`)

	cfg := baseTestConfig(":0")
	cfg.SiteConfigFile = sitePath
	cfg.SliceMachineFile = smPath

	base, err := LoadBase(cfg)
	if err != nil {
		t.Fatalf("LoadBase returned error: %v", err)
	}
	if base.CMS.Endpoint != "from-slicemachine" {
		t.Fatalf("expected slice machine name to win over YAML, got %s", base.CMS.Endpoint)
	}
	if *base.Image.Quality != 90 {
		t.Fatalf("expected YAML quality, got %d", *base.Image.Quality)
	}
}

func TestLoadBaseMissingFile(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.SiteConfigFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := LoadBase(cfg); err == nil {
		t.Fatalf("expected error for missing site config")
	}
}

func TestResolveSiteLogsViolations(t *testing.T) {
	dir := t.TempDir()
	sitePath := filepath.Join(dir, "site.yaml")
	writeFile(t, sitePath, "image:\n  quality: 150\nbuild:\n  compatibility_date: not-a-date\n")

	cfg := baseTestConfig(":0")
	cfg.SiteConfigFile = sitePath

	core, logs := observer.New(zapcore.InfoLevel)
	_, err := ResolveSite(cfg, siteconfig.MapEnvironment{}, zap.New(core))

	var verr *siteconfig.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", verr.Fields())
	}

	entries := logs.FilterMessage("site configuration rejected").All()
	if len(entries) != 1 {
		t.Fatalf("expected one rejection log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["violation_count"]; got != int64(2) {
		t.Fatalf("expected violation_count 2, got %v", got)
	}
}

func TestResolveSiteSuccess(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	env := siteconfig.MapEnvironment{siteconfig.EnvAccessToken: "hidden-token"}

	site, err := ResolveSite(baseTestConfig(":0"), env, zap.New(core))
	if err != nil {
		t.Fatalf("ResolveSite returned error: %v", err)
	}
	if site.CMS().AccessMode() != siteconfig.AccessPrivate {
		t.Fatalf("expected private access mode")
	}

	entries := logs.FilterMessage("site configuration resolved").All()
	if len(entries) != 1 {
		t.Fatalf("expected one resolved log entry, got %d", len(entries))
	}
	for _, entry := range logs.All() {
		for _, v := range entry.ContextMap() {
			if m, ok := v.(map[string]any); ok {
				for _, inner := range m {
					if inner == "hidden-token" {
						t.Fatalf("access token leaked into logs")
					}
				}
			}
		}
	}
}

func TestResolveSiteWarnsOnUnconventionalEndpoint(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	env := siteconfig.MapEnvironment{siteconfig.EnvRepositoryName: "http://localhost:3000/api/v2"}

	site, err := ResolveSite(baseTestConfig(":0"), env, zap.New(core))
	if err != nil {
		t.Fatalf("ResolveSite returned error: %v", err)
	}
	if got := site.CMS().Endpoint; got != "http://localhost:3000/api/v2" {
		t.Fatalf("expected endpoint kept verbatim, got %q", got)
	}

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(warnings))
	}
	if got := warnings[0].ContextMap()["endpoint"]; got != "http://localhost:3000/api/v2" {
		t.Fatalf("expected endpoint field in warning, got %v", got)
	}

	core, logs = observer.New(zapcore.InfoLevel)
	if _, err := ResolveSite(baseTestConfig(":0"), siteconfig.MapEnvironment{}, zap.New(core)); err != nil {
		t.Fatalf("ResolveSite returned error: %v", err)
	}
	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 0 {
		t.Fatalf("expected no warning for default endpoint, got %d", n)
	}
}

func resolveDefaults(t *testing.T) *siteconfig.Resolved {
	t.Helper()
	site, err := siteconfig.Resolve(siteconfig.DefaultBase(), siteconfig.MapEnvironment{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return site
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
		LogLevel:             "info",
	}
}
