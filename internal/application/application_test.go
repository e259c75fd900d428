package application

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/constants/internal/config"
	"github.com/eugenenazirov/constants/internal/constant"
	"github.com/eugenenazirov/constants/internal/loader"
)

func writeConstants(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestNewBindsConstants(t *testing.T) {
	dir := writeConstants(t, map[string]string{
		"a.yml":       "x: 1\nmode: {{ .Env }}\n",
		"b.yml.local": "x: 2\nfeatures: [search, search, cart]\n",
	})
	cfg := baseTestConfig(":8085", dir)

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	root, ok := app.Registry().Lookup(cfg.BindingName)
	if !ok || root != app.Constants() {
		t.Fatalf("expected constants to be bound as %s", cfg.BindingName)
	}
	if x, _ := root.Int("x"); x != 2 {
		t.Fatalf("expected x=2, got %d", x)
	}
	if mode, _ := root.String("mode"); mode != "test" {
		t.Fatalf("expected rendered mode, got %q", mode)
	}
	features, ok := root.Node("features")
	if !ok || features.Len() != 2 {
		t.Fatalf("expected collapsed features, got %v", root.ToMap())
	}
	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
}

func TestNewFailsOnMalformedConstants(t *testing.T) {
	dir := writeConstants(t, map[string]string{"bad.yml": "a: {\n"})

	_, err := New(baseTestConfig(":0", dir), zaptest.NewLogger(t))
	var parseErr *loader.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestNewEnforcesReservedNames(t *testing.T) {
	dir := writeConstants(t, map[string]string{"a.yml": "values: [1]\n"})
	cfg := baseTestConfig(":0", dir)

	if _, err := New(cfg, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("expected reserved names to be allowed by default, got %v", err)
	}

	cfg.ReservedNames = true
	if _, err := New(cfg, zaptest.NewLogger(t)); !errors.Is(err, constant.ErrReservedKey) {
		t.Fatalf("expected ErrReservedKey, got %v", err)
	}
}

func TestServesBoundConstants(t *testing.T) {
	dir := writeConstants(t, map[string]string{"mail.yml": "mail:\n  from: noreply@example.com\n"})

	app, err := New(baseTestConfig(":0", dir), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/constants/mail/from", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Value != "noreply@example.com" {
		t.Fatalf("unexpected value %q", body.Value)
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090", t.TempDir())
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

func baseTestConfig(port, dir string) config.Config {
	return config.Config{
		ConstantsDir:         dir,
		BindingName:          "Constants",
		Env:                  "test",
		Port:                 port,
		LogLevel:             "debug",
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}
