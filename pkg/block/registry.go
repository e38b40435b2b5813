package block

import (
	"slices"

	"github.com/matzehuels/blockforge/pkg/errors"
)

// Definition is the immutable per-type record a block is built from:
// which structural connections it carries, its inputs, and their fields.
// Type-specific behavior dispatches through the definition instead of
// mutating block instances at construction time.
type Definition struct {
	// Type is the registry key, e.g. "controls_if".
	Type string

	// HasOutput adds an output connection with the given checks.
	// Mutually exclusive with HasPrevious.
	HasOutput bool
	Output    []string

	// HasPrevious adds a previous connection with the given checks.
	HasPrevious bool
	Previous    []string

	// HasNext adds a next connection with the given checks.
	HasNext bool
	Next    []string

	// Inputs are instantiated in order on every new block.
	Inputs []InputDef
}

// InputDef describes one input row in a definition.
type InputDef struct {
	Kind   InputKind
	Name   string // required for value/statement inputs
	Checks []string
	Fields []FieldDef
}

// FieldDef describes one field with its default value.
type FieldDef struct {
	Name  string
	Value string
}

// Validate checks the definition for structural soundness: a legal type
// name, output and previous mutually exclusive, named non-dummy inputs
// with unique names.
func (d *Definition) Validate() error {
	if err := errors.ValidateBlockType(d.Type); err != nil {
		return err
	}
	if d.HasOutput && d.HasPrevious {
		return errors.New(errors.ErrCodeInvalidDefinition,
			"block type %q declares both output and previous connections", d.Type)
	}
	var names []string
	for _, in := range d.Inputs {
		if err := errors.ValidateInputName(in.Name); err != nil {
			return err
		}
		switch in.Kind {
		case InputKindValue, InputKindStatement:
			if in.Name == "" {
				return errors.New(errors.ErrCodeInvalidDefinition,
					"block type %q has an unnamed %s input", d.Type, in.Kind)
			}
		case InputKindDummy:
		default:
			return errors.New(errors.ErrCodeInvalidDefinition,
				"block type %q has an input of unknown kind", d.Type)
		}
		if in.Name != "" {
			if slices.Contains(names, in.Name) {
				return errors.New(errors.ErrCodeDuplicateInput,
					"block type %q declares input %q twice", d.Type, in.Name)
			}
			names = append(names, in.Name)
		}
	}
	return nil
}

// Registry maps block type names to their definitions. A registry is
// owned by whoever constructs workspaces; there is no process-wide
// registry.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty definition registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register validates and adds a definition. Registering a type twice is
// an error; definitions are immutable once registered.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return errors.New(errors.ErrCodeInvalidDefinition, "definition is nil")
	}
	if err := def.Validate(); err != nil {
		return err
	}
	if _, exists := r.defs[def.Type]; exists {
		return errors.New(errors.ErrCodeInvalidDefinition,
			"block type %q is already registered", def.Type)
	}
	r.defs[def.Type] = def
	return nil
}

// Get returns the definition for a type, or false if unknown.
func (r *Registry) Get(typ string) (*Definition, bool) {
	def, ok := r.defs[typ]
	return def, ok
}

// Types returns all registered type names in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.defs))
	for t := range r.defs {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
