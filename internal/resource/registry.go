package resource

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// ErrUnknownResource is wrapped by Describe when no definition with the
// requested name was registered.
var ErrUnknownResource = errors.New("unknown resource")

// Registry holds raw resource definitions and memoizes the classified schemas
// built from them. Describe is build-or-reuse: concurrent calls for the same
// name may race to build, which is safe because construction is deterministic
// and the losing value is simply dropped.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]*Definition
	cache *ristretto.Cache[string, *Schema]
}

func NewRegistry() *Registry {
	cache, err := ristretto.NewCache[string, *Schema](&ristretto.Config[string, *Schema]{
		NumCounters: 1 << 12,
		MaxCost:     1 << 10,
		BufferItems: 64,
	})
	if err != nil {
		panic(fmt.Sprintf("resource: cache init: %v", err))
	}
	return &Registry{defs: make(map[string]*Definition), cache: cache}
}

// Register adds a definition. Registering the same name twice is an error.
func (r *Registry) Register(def *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("resource %q already registered", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// Describe returns the classified schema for the named resource, building it
// on first use. The returned schema is immutable and shared; callers must not
// modify it.
func (r *Registry) Describe(name string) (*Schema, error) {
	if s, ok := r.cache.Get(name); ok {
		return s, nil
	}
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownResource, name)
	}
	s, err := build(def)
	if err != nil {
		return nil, err
	}
	r.cache.Set(name, s, 1)
	return s, nil
}

// Names returns all registered resource names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate builds every registered schema and checks that all resource
// references (relationship and embed destinations, aggregate targets, type
// expressions) point at registered definitions. It fails on the first
// problem found.
func (r *Registry) Validate() error {
	for _, name := range r.Names() {
		s, err := r.Describe(name)
		if err != nil {
			return err
		}
		for _, f := range s.Fields {
			if err := r.validateField(name, f); err != nil {
				return err
			}
		}
		for _, an := range s.ActionNames() {
			a := s.Action(an)
			if err := r.validateTypeRefs(fmt.Sprintf("resource %q action %q", name, an), a.Returns); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) validateField(resName string, f *Field) error {
	at := fmt.Sprintf("resource %q field %q", resName, f.Name)
	switch f.Kind {
	case KindRelationship, KindEmbedded:
		if !r.registered(f.Destination) {
			return fmt.Errorf("%s: destination %q is not registered", at, f.Destination)
		}
	case KindComplexAggregate:
		return r.validateTypeRefs(at, f.Target)
	case KindCalculation, KindCalculationWithArgs:
		return r.validateTypeRefs(at, f.Returns)
	case KindUnion:
		for _, m := range f.Members {
			if err := r.validateTypeRefs(at, m.Type); err != nil {
				return err
			}
		}
	case KindStruct:
		for _, sf := range f.StructFields {
			if err := r.validateTypeRefs(at, sf.Type); err != nil {
				return err
			}
		}
	case KindTuple:
		for _, e := range f.Elements {
			if err := r.validateTypeRefs(at, e.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) validateTypeRefs(at string, t *TypeExpr) error {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypeResource:
		if !r.registered(t.Name) {
			return fmt.Errorf("%s: references unregistered resource %q", at, t.Name)
		}
	case TypeArray:
		return r.validateTypeRefs(at, t.Elem)
	case TypeStruct:
		for _, sf := range t.Fields {
			if err := r.validateTypeRefs(at, sf.Type); err != nil {
				return err
			}
		}
	case TypeTuple:
		for _, e := range t.Elements {
			if err := r.validateTypeRefs(at, e.Type); err != nil {
				return err
			}
		}
	case TypeUnion:
		for _, m := range t.Members {
			if err := r.validateTypeRefs(at, m.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) registered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[name]
	return ok
}
