package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/constants/internal/constant"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Source resolves a bound constants tree by name. *registry.Registry
// satisfies it.
type Source interface {
	Lookup(name string) (*constant.Node, bool)
}

// Handler serves a read-only view of the constants bound under one name.
type Handler struct {
	source Source
	name   string

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

// NewHandler constructs a Handler reading the tree bound to name from source.
func NewHandler(source Source, name string, opts ...HandlerOption) *Handler {
	h := &Handler{
		source: source,
		name:   name,
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
	status := "ok"
	if _, ok := h.source.Lookup(h.name); !ok {
		status = "unbound"
	}
	resp := healthResponse{
		Status:    status,
		Binding:   h.name,
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleConstants(w http.ResponseWriter, r *http.Request) {
	root, ok := h.root(w)
	if !ok {
		return
	}

	keys := splitPath(r.PathValue("path"))
	value, found := root.Dig(keys...)
	if !found {
		writeError(w, http.StatusNotFound, "Unknown key", "no constant at /"+strings.Join(keys, "/"),
			"list the available keys with GET /api/keys")
		return
	}

	var payload any = value
	if _, isNode := value.(*constant.Node); !isNode {
		payload = valueResponse{
			Path:  strings.Join(keys, "."),
			Value: value,
		}
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "yaml") {
		writeYAML(w, http.StatusOK, payload)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleKeys(w http.ResponseWriter, r *http.Request) {
	root, ok := h.root(w)
	if !ok {
		return
	}

	keys := splitPath(r.PathValue("path"))
	value, found := root.Dig(keys...)
	if !found {
		writeError(w, http.StatusNotFound, "Unknown key", "no constant at /"+strings.Join(keys, "/"))
		return
	}
	node, isNode := value.(*constant.Node)
	if !isNode {
		writeError(w, http.StatusBadRequest, "Not a node", "scalar values have no keys")
		return
	}

	writeJSON(w, http.StatusOK, keysResponse{
		Path: strings.Join(keys, "."),
		Keys: node.Keys(),
		Len:  node.Len(),
	})
}

func (h *Handler) root(w http.ResponseWriter) (*constant.Node, bool) {
	root, ok := h.source.Lookup(h.name)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "Constants not bound", "no constants bound as "+h.name)
		return nil, false
	}
	return root, true
}

func splitPath(raw string) []string {
	raw = strings.Trim(raw, "/")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "/")
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type valueResponse struct {
	Path  string `json:"path" yaml:"path"`
	Value any    `json:"value" yaml:"value"`
}

type keysResponse struct {
	Path string   `json:"path"`
	Keys []string `json:"keys"`
	Len  int      `json:"len"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Binding   string    `json:"binding"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// writeJSON encodes payload before writing the status so an encoding failure,
// such as a NaN leaf, becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{
			Error:      "Internal error",
			Details:    "encode response: " + err.Error(),
			Suggestion: "request the value with ?format=yaml",
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_, _ = w.Write(buf.Bytes())
}

func writeYAML(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if err := enc.Encode(payload); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "encode response: "+err.Error())
		return
	}
	_ = enc.Close()

	w.Header().Set("Content-Type", "application/yaml")
	if status != 0 {
		w.WriteHeader(status)
	}
	_, _ = w.Write(buf.Bytes())
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
