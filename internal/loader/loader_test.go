package loader

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadMissingDirectoryReturnsEmpty(t *testing.T) {
	t.Parallel()

	got, err := Load(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty mapping, got %v", got)
	}
}

func TestLoadEmptyDirectoryReturnsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "x: 1\n")

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty mapping, got %v", got)
	}
}

func TestLoadLastFileWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "b.yml", "x: 2\n")
	writeFile(t, dir, "a.yml", "x: 1\ny: keep\n")

	got, err := Load(dir, WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["x"] != 2 {
		t.Fatalf("expected x=2 from b.yml, got %v", got["x"])
	}
	if got["y"] != "keep" {
		t.Fatalf("expected y from a.yml to survive, got %v", got["y"])
	}
}

func TestLoadMergeIsShallow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.yml", "db:\n  host: localhost\n  port: 5432\n")
	writeFile(t, dir, "b.yml", "db:\n  host: remote\n")

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	db, ok := got["db"].(map[string]any)
	if !ok {
		t.Fatalf("expected db mapping, got %T", got["db"])
	}
	if _, ok := db["port"]; ok {
		t.Fatalf("expected nested keys from a.yml to be replaced, got %v", db)
	}
	if db["host"] != "remote" {
		t.Fatalf("unexpected host %v", db["host"])
	}
}

func TestDiscoverMatchesSuffixedFilesAndSkipsDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "b.yml", "")
	writeFile(t, dir, "a.yml.local", "")
	writeFile(t, dir, "c.yaml", "")
	writeFile(t, dir, ".a.yml.swp", "\x00\x01")
	writeFile(t, dir, ".hidden.yml", "x: 1\n")
	if err := os.Mkdir(filepath.Join(dir, "nested.yml"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{filepath.Join(dir, "a.yml.local"), filepath.Join(dir, "b.yml")}
	if !slices.Equal(files, want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
}

func TestDiscoverRejectsFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "a.yml", "")
	if _, err := Discover(path); err == nil {
		t.Fatalf("expected error when path is a file")
	}
}

func TestLoadMalformedYAMLNamesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.yml", "ok: true\n")
	bad := writeFile(t, dir, "b.yml", "key: [unterminated\n")

	_, err := Load(dir)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.File != bad {
		t.Fatalf("expected file %s, got %s", bad, parseErr.File)
	}
	if !strings.Contains(err.Error(), "b.yml") {
		t.Fatalf("expected message to mention file, got %q", err.Error())
	}
}

func TestLoadRejectsNonMappingDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "list.yml", "- a\n- b\n")

	_, err := Load(dir)
	if !errors.Is(err, ErrNotMapping) {
		t.Fatalf("expected ErrNotMapping, got %v", err)
	}
}

func TestLoadRendersTemplateWithEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "app.yml", "mode: {{ .Env }}\n{{ if eq .Env \"production\" }}debug: false{{ else }}debug: true{{ end }}\n")

	got, err := Load(dir, WithEnv("production"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["mode"] != "production" {
		t.Fatalf("unexpected mode %v", got["mode"])
	}
	if got["debug"] != false {
		t.Fatalf("expected debug=false, got %v", got["debug"])
	}
}

func TestLoadBrokenTemplateIsParseError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.yml", "mode: {{ .Env \n")

	_, err := Load(dir)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseNormalizesKeys(t *testing.T) {
	t.Parallel()

	got, err := Parse([]byte("codes:\n  1: one\n  true: yes\nlist:\n  - {2: two}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	codes, ok := got["codes"].(map[string]any)
	if !ok {
		t.Fatalf("expected codes mapping, got %T", got["codes"])
	}
	if codes["1"] != "one" || codes["true"] != "yes" {
		t.Fatalf("unexpected normalized keys %v", codes)
	}

	list, ok := got["list"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("unexpected list %v", got["list"])
	}
	if item, ok := list[0].(map[string]any); !ok || item["2"] != "two" {
		t.Fatalf("expected normalized element keys, got %v", list[0])
	}
}

func TestParseEmptyDocument(t *testing.T) {
	t.Parallel()

	got, err := Parse([]byte("# only a comment\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil mapping, got %v", got)
	}
}

func TestLoadShippedConstants(t *testing.T) {
	t.Parallel()

	got, err := Load(filepath.Join("..", "..", "config", "constants"), WithEnv("production"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["mode"] != "production" || got["debug_toolbar"] != false {
		t.Fatalf("unexpected rendered constants %v", got)
	}
	if roles, ok := got["roles"].([]any); !ok || len(roles) != 3 {
		t.Fatalf("unexpected roles %v", got["roles"])
	}
}

func TestParseRejectsKeysCollidingAfterNormalization(t *testing.T) {
	t.Parallel()

	for range 50 {
		_, err := Parse([]byte("codes: {1.0: from-float, \"1\": from-string}\n"))
		if !errors.Is(err, ErrDuplicateKey) {
			t.Fatalf("expected ErrDuplicateKey, got %v", err)
		}
		if !strings.Contains(err.Error(), `"1" at codes`) {
			t.Fatalf("expected message to name key and path, got %q", err.Error())
		}
	}
}

func TestLoadDuplicateKeyNamesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "codes.yml", "1: one\n\"1\": uno\n")

	_, err := Load(dir)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.File != path {
		t.Fatalf("expected ParseError for %s, got %v", path, err)
	}
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestLoadSkipsHiddenFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "app.yml", "name: shop\n")
	writeFile(t, dir, ".app.yml.swp", "\x00\x01binary")

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got["name"] != "shop" {
		t.Fatalf("unexpected constants %v", got)
	}
}
