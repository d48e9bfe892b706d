package resolver

import (
	"fmt"

	"github.com/tsawler/pdfstore/core"
)

// ObjectResolver expands indirect references nested in dictionaries,
// arrays and stream dictionaries.
type ObjectResolver struct {
	resolve      Func
	visited      map[int]bool // Cycle detection
	maxDepth     int
	currentDepth int
}

// Option configures the resolver
type Option func(*ObjectResolver)

// WithMaxDepth sets the maximum recursion depth (default: 100)
func WithMaxDepth(depth int) Option {
	return func(r *ObjectResolver) {
		r.maxDepth = depth
	}
}

// NewResolver creates a resolver that follows references through resolve.
func NewResolver(resolve Func, opts ...Option) *ObjectResolver {
	r := &ObjectResolver{
		resolve:  resolve,
		visited:  make(map[int]bool),
		maxDepth: 100,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve follows obj when it is a reference; anything else is returned
// unchanged.
func (r *ObjectResolver) Resolve(obj core.Object) (core.Object, error) {
	defer r.Reset()
	return r.walk(obj, false)
}

// ResolveDeep returns obj with every nested reference replaced by its value.
// A reference that leads back to one of its own ancestors is an error.
func (r *ObjectResolver) ResolveDeep(obj core.Object) (core.Object, error) {
	defer r.Reset()
	return r.walk(obj, true)
}

func (r *ObjectResolver) walk(obj core.Object, deep bool) (core.Object, error) {
	if r.currentDepth >= r.maxDepth {
		return nil, fmt.Errorf("maximum recursion depth (%d) exceeded", r.maxDepth)
	}

	switch v := obj.(type) {
	case core.IndirectRef:
		if r.visited[v.Number] {
			return nil, fmt.Errorf("circular reference detected for object %d", v.Number)
		}

		// Only ancestors count; siblings may share an object.
		r.visited[v.Number] = true
		defer delete(r.visited, v.Number)

		resolved, err := r.resolve(v)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve reference %d %d R: %w", v.Number, v.Generation, err)
		}
		if !deep {
			return resolved, nil
		}
		return r.descend(resolved, deep)

	case core.Dict:
		if !deep {
			return v, nil
		}
		resolved := make(core.Dict, len(v))
		for key, value := range v {
			rv, err := r.descend(value, deep)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve dict key %s: %w", key, err)
			}
			resolved[key] = rv
		}
		return resolved, nil

	case core.Array:
		if !deep {
			return v, nil
		}
		resolved := make(core.Array, len(v))
		for i, elem := range v {
			re, err := r.descend(elem, deep)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve array element %d: %w", i, err)
			}
			resolved[i] = re
		}
		return resolved, nil

	case *core.Stream:
		if !deep {
			return v, nil
		}
		dict, err := r.descend(v.Dict, deep)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve stream dict: %w", err)
		}
		return &core.Stream{Dict: dict.(core.Dict), Data: v.Data}, nil
	}

	return obj, nil
}

func (r *ObjectResolver) descend(obj core.Object, deep bool) (core.Object, error) {
	r.currentDepth++
	defer func() { r.currentDepth-- }()
	return r.walk(obj, deep)
}

// Reset clears the visited set and depth counter.
func (r *ObjectResolver) Reset() {
	r.visited = make(map[int]bool)
	r.currentDepth = 0
}

// ResolveDict deep-resolves a dictionary.
func (r *ObjectResolver) ResolveDict(dict core.Dict) (core.Dict, error) {
	resolved, err := r.ResolveDeep(dict)
	if err != nil {
		return nil, err
	}
	return resolved.(core.Dict), nil
}

// ResolveArray deep-resolves an array.
func (r *ObjectResolver) ResolveArray(arr core.Array) (core.Array, error) {
	resolved, err := r.ResolveDeep(arr)
	if err != nil {
		return nil, err
	}
	return resolved.(core.Array), nil
}
