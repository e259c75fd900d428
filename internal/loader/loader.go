package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FilePattern matches "*.yml" as well as suffixed variants such as
// "*.yml.example".
const FilePattern = "*.yml*"

// Option configures Load.
type Option func(*options)

type options struct {
	env    string
	logger *zap.Logger
}

// WithEnv sets the run-mode name exposed to templates as {{ .Env }}.
func WithEnv(env string) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithLogger attaches a logger; Load is silent by default.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

type templateData struct {
	Env string
}

// Load reads every file in dir matching FilePattern in lexicographic order and
// merges them into one mapping. A missing directory or a directory without
// matching files yields an empty mapping.
func Load(dir string, opts ...Option) (map[string]any, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	files, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any)
	for _, file := range files {
		doc, err := LoadFile(file, o.env)
		if err != nil {
			return nil, err
		}
		for key, value := range doc {
			merged[key] = value
		}
		o.logger.Debug("constants file loaded",
			zap.String("file", file),
			zap.Int("keys", len(doc)),
		)
	}

	o.logger.Info("constants loaded",
		zap.String("dir", dir),
		zap.Int("files", len(files)),
		zap.Int("keys", len(merged)),
	)
	return merged, nil
}

// Discover lists the regular files of dir matching FilePattern, sorted.
// Hidden files such as editor swap files are skipped and subdirectories are
// not descended into.
func Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, FilePattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}

	files := make([]string, 0, len(matches))
	for _, match := range matches {
		fi, err := os.Stat(match)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", match, err)
		}
		if fi.IsDir() || strings.HasPrefix(filepath.Base(match), ".") {
			continue
		}
		files = append(files, match)
	}
	sort.Strings(files)
	return files, nil
}

// LoadFile renders and parses a single constants file.
func LoadFile(path, env string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	rendered, err := render(filepath.Base(path), data, env)
	if err != nil {
		return nil, &ParseError{File: path, Err: err}
	}

	doc, err := Parse(rendered)
	if err != nil {
		return nil, &ParseError{File: path, Err: err}
	}
	return doc, nil
}

// Parse decodes a YAML document into a mapping with string keys at every
// depth. An empty document yields an empty mapping.
func Parse(data []byte) (map[string]any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return map[string]any{}, nil
	}

	normalized, err := normalize(raw, "")
	if err != nil {
		return nil, err
	}
	doc, ok := normalized.(map[string]any)
	if !ok {
		return nil, ErrNotMapping
	}
	return doc, nil
}

func render(name string, data []byte, env string) ([]byte, error) {
	tmpl, err := template.New(name).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData{Env: env}); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	return buf.Bytes(), nil
}

// normalize converts every mapping key to its string form. Two keys with the
// same string form, such as 1.0 and "1", are rejected.
func normalize(value any, path string) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			n, err := normalize(item, join(path, key))
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			name := fmt.Sprint(key)
			if _, dup := out[name]; dup {
				return nil, fmt.Errorf("%w %q at %s", ErrDuplicateKey, name, displayPath(path))
			}
			n, err := normalize(item, join(path, name))
			if err != nil {
				return nil, err
			}
			out[name] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			n, err := normalize(item, join(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return v, nil
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func displayPath(path string) string {
	if path == "" {
		return "top level"
	}
	return path
}
