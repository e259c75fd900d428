package constant

import (
	"bytes"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

var defaultReservedNames = []string{
	"keys", "values", "size", "len", "length", "has", "get", "dig", "each", "path",
}

// DefaultReservedNames returns the names rejected by WithDefaultReservedNames.
func DefaultReservedNames() []string {
	return slices.Clone(defaultReservedNames)
}

// Option configures Transform.
type Option func(*options)

type options struct {
	reserved map[string]struct{}
}

// WithReservedNames makes Transform fail with a ReservedKeyError when any key,
// at any depth, equals one of names.
func WithReservedNames(names ...string) Option {
	return func(o *options) {
		if o.reserved == nil {
			o.reserved = make(map[string]struct{}, len(names))
		}
		for _, name := range names {
			o.reserved[name] = struct{}{}
		}
	}
}

// WithDefaultReservedNames is WithReservedNames(DefaultReservedNames()...).
func WithDefaultReservedNames() Option {
	return WithReservedNames(defaultReservedNames...)
}

// Transform builds the immutable tree for raw. A nil or empty mapping yields
// an empty node.
func Transform(raw map[string]any, opts ...Option) (*Node, error) {
	o := newOptions(opts)
	return o.mapping(raw, "")
}

// TransformSequence builds a node from a sequence after collapsing it with
// CollapseSequence.
func TransformSequence(seq []any, opts ...Option) (*Node, error) {
	o := newOptions(opts)
	return o.sequence(seq, "")
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CollapseSequence indexes seq by its own elements. Scalars are keyed by
// their text form; mappings and sequences by their compact YAML flow form.
// When two elements share a key the later one wins.
func CollapseSequence(seq []any) (map[string]any, error) {
	out := make(map[string]any, len(seq))
	for i, item := range seq {
		key, err := elementKey(item)
		if err != nil {
			return nil, fmt.Errorf("sequence element %d: %w", i, err)
		}
		out[key] = item
	}
	return out, nil
}

func (o *options) mapping(raw map[string]any, path string) (*Node, error) {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make(map[string]any, len(raw))
	for _, key := range keys {
		if _, reserved := o.reserved[key]; reserved {
			return nil, &ReservedKeyError{Path: path, Key: key}
		}
		v, err := o.value(raw[key], join(path, key))
		if err != nil {
			return nil, err
		}
		entries[key] = v
	}
	return &Node{entries: entries, keys: keys}, nil
}

func (o *options) sequence(seq []any, path string) (*Node, error) {
	collapsed, err := CollapseSequence(seq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayPath(path), err)
	}
	return o.mapping(collapsed, path)
}

func (o *options) value(value any, path string) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, int, int64, uint64, float64, time.Time:
		return v, nil
	case map[string]any:
		return o.mapping(v, path)
	case []any:
		return o.sequence(v, path)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			if _, dup := m[key]; dup {
				return nil, fmt.Errorf("%w %q at %s", ErrDuplicateKey, key, displayPath(path))
			}
			m[key] = iter.Value().Interface()
		}
		return o.mapping(m, path)
	case reflect.Slice, reflect.Array:
		seq := make([]any, rv.Len())
		for i := range seq {
			seq[i] = rv.Index(i).Interface()
		}
		return o.sequence(seq, path)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return int(rv.Int()), nil
	case reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	}
	return nil, fmt.Errorf("%w at %s: %T", ErrUnsupportedValue, displayPath(path), value)
}

func elementKey(item any) (string, error) {
	switch v := item.(type) {
	case nil:
		return "null", nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	}

	switch reflect.ValueOf(item).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return flowKey(item)
	}
	return fmt.Sprint(item), nil
}

func flowKey(item any) (string, error) {
	var node yaml.Node
	if err := node.Encode(item); err != nil {
		return "", err
	}
	node.Style = yaml.FlowStyle

	out, err := yaml.Marshal(&node)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(out)), nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func displayPath(path string) string {
	if path == "" {
		return "root"
	}
	return path
}
