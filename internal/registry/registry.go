package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/eugenenazirov/constants/internal/constant"
	"github.com/eugenenazirov/constants/internal/loader"
)

var (
	// ErrEmptyName is returned when Bind is called without a binding name.
	ErrEmptyName = errors.New("binding name must not be empty")
)

// Default is the process-wide registry used by the package-level functions.
var Default = New(nil)

// Option configures a single Bind call.
type Option func(*bindOptions)

type bindOptions struct {
	env      string
	reserved []string
}

// WithEnv sets the run mode exposed to constant file templates.
func WithEnv(env string) Option {
	return func(o *bindOptions) {
		o.env = env
	}
}

// WithReservedNames rejects data keys equal to any of names.
func WithReservedNames(names ...string) Option {
	return func(o *bindOptions) {
		o.reserved = append(o.reserved, names...)
	}
}

// Registry maps binding names to root nodes and guards access with a RWMutex.
// The nodes themselves are immutable; the lock only protects the slots.
type Registry struct {
	mu     sync.RWMutex
	logger *zap.Logger
	slots  map[string]*constant.Node
}

// New creates an empty registry. A nil logger disables logging.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger: logger,
		slots:  make(map[string]*constant.Node),
	}
}

// Bind loads dir, transforms the merged mapping and publishes the root node
// under name, replacing any node previously bound to that name.
func (r *Registry) Bind(dir, name string, opts ...Option) (*constant.Node, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	var o bindOptions
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := loader.Load(dir, loader.WithEnv(o.env), loader.WithLogger(r.logger))
	if err != nil {
		return nil, fmt.Errorf("load constants %s: %w", name, err)
	}

	var transformOpts []constant.Option
	if len(o.reserved) > 0 {
		transformOpts = append(transformOpts, constant.WithReservedNames(o.reserved...))
	}
	root, err := constant.Transform(raw, transformOpts...)
	if err != nil {
		return nil, fmt.Errorf("transform constants %s: %w", name, err)
	}

	replaced := r.Publish(name, root)
	r.logger.Info("constants bound",
		zap.String("name", name),
		zap.String("dir", dir),
		zap.String("env", o.env),
		zap.Int("keys", root.Len()),
		zap.Bool("replaced", replaced),
	)
	return root, nil
}

// Publish stores root under name and reports whether a previous node was
// replaced.
func (r *Registry) Publish(name string, root *constant.Node) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced := r.slots[name]
	r.slots[name] = root
	return replaced
}

// Lookup returns the node bound to name.
func (r *Registry) Lookup(name string) (*constant.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	root, ok := r.slots[name]
	return root, ok
}

// MustLookup is like Lookup but panics when name is not bound.
func (r *Registry) MustLookup(name string) *constant.Node {
	root, ok := r.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("constants %q are not bound", name))
	}
	return root
}

// Names returns the bound names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.slots))
	for name := range r.slots {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Bind binds dir to name on Default.
func Bind(dir, name string, opts ...Option) (*constant.Node, error) {
	return Default.Bind(dir, name, opts...)
}

// Lookup resolves name on Default.
func Lookup(name string) (*constant.Node, bool) {
	return Default.Lookup(name)
}

// MustLookup resolves name on Default and panics when it is not bound.
func MustLookup(name string) *constant.Node {
	return Default.MustLookup(name)
}
