// Package catalog provides the read-only exercise reference data that plans are built from.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"gopkg.in/yaml.v3"
)

// Category groups exercises by the kind of work they do.
type Category string

const (
	Strength    Category = "strength"
	Cardio      Category = "cardio"
	Flexibility Category = "flexibility"
	Warmup      Category = "warmup"
	Cooldown    Category = "cooldown"
	Core        Category = "core"
)

// Categories lists every category in catalog order.
func Categories() []Category {
	return []Category{Strength, Cardio, Flexibility, Warmup, Cooldown, Core}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories(), c)
}

// Equipment values that every profile has access to.
const (
	EquipmentNone       = "none"
	EquipmentBodyweight = "bodyweight"
)

var ErrInvalidCatalog = errors.NewSentinel("invalid catalog")

// Entry is a single exercise in the catalog.
type Entry struct {
	Name         string   `json:"name"                   yaml:"name"`
	Type         Category `json:"type"                   yaml:"type,omitempty"`
	Equipment    string   `json:"equipment"              yaml:"equipment"`
	MuscleGroups []string `json:"muscle_groups,omitzero" yaml:"muscle_groups,omitempty"`
	Instructions string   `json:"instructions,omitzero"  yaml:"instructions,omitempty"`
}

// AlwaysAvailable reports whether the entry needs no equipment.
func (e Entry) AlwaysAvailable() bool {
	return e.Equipment == EquipmentNone || e.Equipment == EquipmentBodyweight
}

// AvailableWith reports whether the entry can be performed with the given equipment.
// Equipment names are matched literally.
func (e Entry) AvailableWith(equipment []string) bool {
	return e.AlwaysAvailable() || slices.Contains(equipment, e.Equipment)
}

// Catalog is an immutable set of exercises grouped by category. It is safe for concurrent use.
type Catalog struct {
	entries map[Category][]Entry
}

//go:embed catalog.yaml
var defaultCatalog []byte

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(errors.Wrap(err, "parse embedded catalog"))
	}
	return c
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse catalog", slog.String("path", path))
	}
	return c, nil
}

// Parse decodes a YAML document mapping category names to lists of entries.
func Parse(data []byte) (*Catalog, error) {
	var doc map[Category][]Entry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %w", ErrInvalidCatalog, err)
	}

	var entries []Entry
	for category, list := range doc {
		if !category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidCatalog, category)
		}
		for _, e := range list {
			if e.Type == "" {
				e.Type = category
			}
			if e.Type != category {
				return nil, fmt.Errorf("%w: %q has type %q in category %q", ErrInvalidCatalog, e.Name, e.Type, category)
			}
			entries = append(entries, e)
		}
	}
	// Map iteration order is random, New groups by category so only the order within a category matters.
	return New(entries)
}

// New builds a catalog from entries, keeping their relative order within each category.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[Category][]Entry)}
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("%w: entry without a name", ErrInvalidCatalog)
		}
		if !e.Type.Valid() {
			return nil, fmt.Errorf("%w: %q has unknown type %q", ErrInvalidCatalog, e.Name, e.Type)
		}
		if strings.TrimSpace(e.Equipment) == "" {
			return nil, fmt.Errorf("%w: %q has no equipment, use %q", ErrInvalidCatalog, e.Name, EquipmentNone)
		}
		if slices.ContainsFunc(c.entries[e.Type], func(other Entry) bool { return other.Name == e.Name }) {
			return nil, fmt.Errorf("%w: duplicate %q in %q", ErrInvalidCatalog, e.Name, e.Type)
		}
		e.MuscleGroups = slices.Clone(e.MuscleGroups)
		c.entries[e.Type] = append(c.entries[e.Type], e)
	}
	return c, nil
}

// Entries returns a copy of the entries in category, in catalog order.
func (c *Catalog) Entries(category Category) []Entry {
	src := c.entries[category]
	out := make([]Entry, len(src))
	for i, e := range src {
		e.MuscleGroups = slices.Clone(e.MuscleGroups)
		out[i] = e
	}
	return out
}

// Lookup finds an entry by name, searching categories in catalog order. Names are compared case-insensitively.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	for _, category := range Categories() {
		for _, e := range c.entries[category] {
			if strings.EqualFold(e.Name, name) {
				e.MuscleGroups = slices.Clone(e.MuscleGroups)
				return e, true
			}
		}
	}
	return Entry{}, false //nolint:exhaustruct // zero value signals absence.
}

// Len returns the total number of entries.
func (c *Catalog) Len() int {
	n := 0
	for _, list := range c.entries {
		n += len(list)
	}
	return n
}
