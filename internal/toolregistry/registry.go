// Package toolregistry is the only channel through which the orchestrator
// reads or mutates structured health data. It is a pure dispatch layer:
// permission and validation gating happen here, commit behavior belongs to
// the handlers.
package toolregistry

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	vitaerrors "vita/internal/errors"
	"vita/internal/store"
)

// Context is the execution environment for a single tool call.
type Context struct {
	Store        *store.Store
	UserID       string
	SpecialistID string

	// Now is an optional reference timestamp. Zero means wall-clock time;
	// tests pin it for deterministic windows.
	Now time.Time
}

// RefTime returns the call's reference time.
func (c *Context) RefTime() time.Time {
	if c != nil && !c.Now.IsZero() {
		return c.Now
	}
	return time.Now()
}

// Handler is the unit of behavior bound 1:1 to a Spec by name.
type Handler func(ctx context.Context, args map[string]any, tc *Context) (map[string]any, error)

// Spec is the static descriptor of one operation. Immutable once registered.
type Spec struct {
	Name        string
	Description string
	ReadOnly    bool

	// RequiredFields are checked in declaration order; the first absent one
	// fails the call.
	RequiredFields []string

	// AllowedSpecialists restricts who may invoke the tool. Empty means any.
	AllowedSpecialists []string

	// Validator inspects args after required-field checks. Any error it
	// returns propagates as the tool's own failure.
	Validator func(args map[string]any) error

	Tags []string
}

// Registry holds named tools. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	specs    map[string]Spec
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs:    make(map[string]Spec),
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a spec. A duplicate name is a fatal
// configuration error.
func (r *Registry) Register(spec Spec, handler Handler) error {
	if spec.Name == "" {
		return vitaerrors.NewConfigError("tool spec must have a name")
	}
	if handler == nil {
		return vitaerrors.NewConfigError("tool %s registered without a handler", spec.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[spec.Name]; exists {
		return vitaerrors.NewConfigError("tool already registered: %s", spec.Name)
	}
	r.specs[spec.Name] = spec
	r.handlers[spec.Name] = handler
	return nil
}

// Get returns the spec registered under name.
func (r *Registry) Get(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[name]
	return spec, ok
}

// List returns all registered specs sorted by name.
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]Spec, 0, len(r.specs))
	for _, spec := range r.specs {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Execute dispatches one tool call. Checks run in a fixed order: existence,
// permission, payload shape, required fields, validator, then the handler.
// The handler result mapping is returned unchanged.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any, tc *Context) (map[string]any, error) {
	r.mu.RLock()
	spec, ok := r.specs[name]
	handler := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, vitaerrors.NewUnknownTool(name)
	}

	if len(spec.AllowedSpecialists) > 0 {
		specialist := ""
		if tc != nil {
			specialist = tc.SpecialistID
		}
		if !slices.Contains(spec.AllowedSpecialists, specialist) {
			return nil, vitaerrors.NewPermissionDenied(name, specialist)
		}
	}

	if args == nil {
		args = map[string]any{}
	}
	for key, value := range args {
		if _, nested := value.(map[string]any); nested {
			return nil, vitaerrors.NewInvalidPayload(name, "field "+key+" must be a flat value, not an object")
		}
	}

	for _, field := range spec.RequiredFields {
		value, present := args[field]
		if !present || value == nil {
			return nil, vitaerrors.NewMissingField(name, field)
		}
		if s, isString := value.(string); isString && s == "" {
			return nil, vitaerrors.NewMissingField(name, field)
		}
	}

	if spec.Validator != nil {
		if err := spec.Validator(args); err != nil {
			return nil, vitaerrors.NewValidationFailed(name, err)
		}
	}

	result, err := handler(ctx, args, tc)
	if err != nil {
		if _, alreadyTyped := vitaerrors.AsToolError(err); alreadyTyped {
			return nil, err
		}
		return nil, vitaerrors.NewExecutionFailed(name, err)
	}
	return result, nil
}
