// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package registry

import (
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/samber/oops"
)

// Category is an entry of the category side table.
type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Icon string `json:"icon,omitempty" yaml:"icon"`
}

// DefaultCategories returns the categories every registry starts with.
func DefaultCategories() []Category {
	return []Category{
		{ID: "basic", Name: "Basic Shapes", Icon: "cube"},
		{ID: "furniture", Name: "Furniture", Icon: "sofa"},
		{ID: "decoration", Name: "Decoration", Icon: "star"},
		{ID: "nature", Name: "Nature", Icon: "tree"},
		{ID: "lighting", Name: "Lighting", Icon: "lightbulb"},
		{ID: "interactive", Name: "Interactive", Icon: "hand"},
		{ID: "building", Name: "Building", Icon: "building"},
		{ID: "vehicle", Name: "Vehicles", Icon: "car"},
		{ID: "character", Name: "Characters", Icon: "user"},
		{ID: "effect", Name: "Effects", Icon: "sparkles"},
		{ID: "custom", Name: "Custom", Icon: "puzzle"},
	}
}

// Registry maps type keys to type definitions.
// It is not safe for concurrent use; callers serialize access.
type Registry struct {
	types      map[string]*TypeDefinition
	categories []Category
	catIndex   map[string]int
	logger     *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates a registry seeded with the default categories.
func New(opts ...Option) *Registry {
	r := &Registry{
		types:    make(map[string]*TypeDefinition),
		catIndex: make(map[string]int),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, c := range DefaultCategories() {
		r.AddCategory(c)
	}
	return r
}

// Register stores a copy of def under its type key. Registering an existing
// key replaces the previous definition and logs a warning.
func (r *Registry) Register(def TypeDefinition) error {
	key := def.Metadata.Type
	if strings.TrimSpace(key) == "" {
		return oops.Code("INVALID_TYPE_KEY").With("name", def.Metadata.Name).Errorf("type key cannot be empty")
	}
	if _, exists := r.types[key]; exists {
		r.logger.Warn("overwriting object type", "type", key)
	}
	r.types[key] = def.clone()
	registeredTypes.Set(float64(len(r.types)))
	return nil
}

// Unregister removes a type. It reports whether the key was registered.
func (r *Registry) Unregister(key string) bool {
	if _, ok := r.types[key]; !ok {
		return false
	}
	delete(r.types, key)
	registeredTypes.Set(float64(len(r.types)))
	return true
}

// Get looks up a type definition. The result must not be modified.
func (r *Registry) Get(key string) (*TypeDefinition, bool) {
	def, ok := r.types[key]
	return def, ok
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	_, ok := r.types[key]
	return ok
}

// Len returns the number of registered types.
func (r *Registry) Len() int { return len(r.types) }

// All returns every type definition sorted by key.
func (r *Registry) All() []*TypeDefinition {
	out := make([]*TypeDefinition, 0, len(r.types))
	for _, def := range r.types {
		out = append(out, def)
	}
	sortByKey(out)
	return out
}

// ByCategory returns the types in category, sorted by key.
func (r *Registry) ByCategory(category string) []*TypeDefinition {
	var out []*TypeDefinition
	for _, def := range r.types {
		if def.Metadata.Category == category {
			out = append(out, def)
		}
	}
	sortByKey(out)
	return out
}

// AddCategory adds a category or replaces the one with the same id in place.
func (r *Registry) AddCategory(c Category) {
	if i, ok := r.catIndex[c.ID]; ok {
		r.categories[i] = c
		return
	}
	r.catIndex[c.ID] = len(r.categories)
	r.categories = append(r.categories, c)
}

// RemoveCategory deletes the category with id, keeping the order of the rest.
func (r *Registry) RemoveCategory(id string) bool {
	i, ok := r.catIndex[id]
	if !ok {
		return false
	}
	r.categories = slices.Delete(r.categories, i, i+1)
	delete(r.catIndex, id)
	for j := i; j < len(r.categories); j++ {
		r.catIndex[r.categories[j].ID] = j
	}
	return true
}

// Category looks up a category by id.
func (r *Registry) Category(id string) (Category, bool) {
	i, ok := r.catIndex[id]
	if !ok {
		return Category{}, false
	}
	return r.categories[i], true
}

// Categories returns the categories in insertion order.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.categories))
	copy(out, r.categories)
	return out
}

func sortByKey(defs []*TypeDefinition) {
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Metadata.Type < defs[j].Metadata.Type
	})
}
