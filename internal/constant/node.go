package constant

import (
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Node is a read-only view over one transformed mapping or sequence. Values
// are either scalars (string, int, int64, uint64, float64, bool, nil,
// time.Time) or nested *Node.
type Node struct {
	entries map[string]any
	keys    []string
}

// Get returns the scalar or *Node stored under key.
func (n *Node) Get(key string) (any, bool) {
	if n == nil {
		return nil, false
	}
	v, ok := n.entries[key]
	return v, ok
}

// Has reports whether key exists.
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Len returns the number of entries.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.entries)
}

// Keys returns the entry keys in sorted order.
func (n *Node) Keys() []string {
	if n == nil {
		return []string{}
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Values returns the entry values in key order.
func (n *Node) Values() []any {
	out := make([]any, 0, n.Len())
	for _, v := range n.All() {
		out = append(out, v)
	}
	return out
}

// Range calls fn for each entry in key order until fn returns false.
func (n *Node) Range(fn func(key string, value any) bool) {
	for k, v := range n.All() {
		if !fn(k, v) {
			return
		}
	}
}

// All iterates over the entries in key order.
func (n *Node) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if n == nil {
			return
		}
		for _, k := range n.keys {
			if !yield(k, n.entries[k]) {
				return
			}
		}
	}
}

// Node returns the nested node stored under key.
func (n *Node) Node(key string) (*Node, bool) {
	v, ok := n.Get(key)
	if !ok {
		return nil, false
	}
	child, ok := v.(*Node)
	return child, ok
}

// Dig follows keys through nested nodes. With no keys it returns n itself.
func (n *Node) Dig(keys ...string) (any, bool) {
	var current any = n
	for _, key := range keys {
		node, ok := current.(*Node)
		if !ok {
			return nil, false
		}
		if current, ok = node.Get(key); !ok {
			return nil, false
		}
	}
	return current, true
}

// Path is Dig over a dot separated key path such as "mail.smtp.port".
func (n *Node) Path(dotted string) (any, bool) {
	if dotted == "" {
		return n, true
	}
	return n.Dig(strings.Split(dotted, ".")...)
}

// Attr returns the scalar stored under name. Keys holding nested nodes are
// not attributes and fail with ErrNotScalar.
func (n *Node) Attr(name string) (any, error) {
	v, ok := n.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	if _, nested := v.(*Node); nested {
		return nil, fmt.Errorf("%w: %q", ErrNotScalar, name)
	}
	return v, nil
}

// String returns the string attribute name.
func (n *Node) String(name string) (string, error) {
	v, err := n.Attr(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", mismatch(name, "string", v)
	}
	return s, nil
}

// Int returns the integer attribute name.
func (n *Node) Int(name string) (int, error) {
	v, err := n.Attr(name)
	if err != nil {
		return 0, err
	}
	switch i := v.(type) {
	case int:
		return i, nil
	case int64:
		if int64(int(i)) == i {
			return int(i), nil
		}
	case uint64:
		if i <= uint64(^uint(0)>>1) {
			return int(i), nil
		}
	}
	return 0, mismatch(name, "int", v)
}

// Float returns the numeric attribute name as a float64.
func (n *Node) Float(name string) (float64, error) {
	v, err := n.Attr(name)
	if err != nil {
		return 0, err
	}
	switch f := v.(type) {
	case float64:
		return f, nil
	case int:
		return float64(f), nil
	case int64:
		return float64(f), nil
	case uint64:
		return float64(f), nil
	}
	return 0, mismatch(name, "float", v)
}

// Bool returns the boolean attribute name.
func (n *Node) Bool(name string) (bool, error) {
	v, err := n.Attr(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, mismatch(name, "bool", v)
	}
	return b, nil
}

func mismatch(name, want string, got any) error {
	return fmt.Errorf("%w: %q is %T, not %s", ErrTypeMismatch, name, got, want)
}

// ToMap returns a deep copy of the tree with nested nodes as map[string]any.
func (n *Node) ToMap() map[string]any {
	out := make(map[string]any, n.Len())
	for k, v := range n.All() {
		if child, ok := v.(*Node); ok {
			out[k] = child.ToMap()
			continue
		}
		out[k] = v
	}
	return out
}

// Equal reports whether both trees hold the same keys and leaf values. NaN
// leaves compare equal to each other.
func (n *Node) Equal(other *Node) bool {
	if n.Len() != other.Len() {
		return false
	}
	for k, v := range n.All() {
		w, ok := other.Get(k)
		if !ok || !equalValues(v, w) {
			return false
		}
	}
	return true
}

func equalValues(a, b any) bool {
	switch av := a.(type) {
	case *Node:
		bv, ok := b.(*Node)
		return ok && av.Equal(bv)
	case float64:
		bv, ok := b.(float64)
		return ok && (av == bv || math.IsNaN(av) && math.IsNaN(bv))
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	}
	return reflect.DeepEqual(a, b)
}

// Decode copies the tree into out, which is typically a pointer to a struct
// with yaml tags. Collapsed sequences decode as mappings.
func (n *Node) Decode(out any) error {
	data, err := yaml.Marshal(n.ToMap())
	if err != nil {
		return fmt.Errorf("encode node: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode node: %w", err)
	}
	return nil
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToMap())
}

func (n *Node) MarshalYAML() (any, error) {
	return n.ToMap(), nil
}
