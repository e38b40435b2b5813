package workspace

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/blockforge/pkg/errors"
)

// VariableFieldName is the conventional field name binding a field to a
// workspace variable. Renaming a variable rewrites every field with this
// name whose value matches the old variable name.
const VariableFieldName = "VAR"

// Variable is one named workspace variable.
type Variable struct {
	ID   string
	Name string
}

// VariableMap is a workspace's variable table, ordered by creation.
type VariableMap struct {
	byName map[string]*Variable
	order  []*Variable
}

// NewVariableMap creates an empty variable table.
func NewVariableMap() *VariableMap {
	return &VariableMap{byName: make(map[string]*Variable)}
}

// Get returns the variable with the given name, or false.
func (m *VariableMap) Get(name string) (*Variable, bool) {
	v, ok := m.byName[name]
	return v, ok
}

// All returns the variables in creation order. The slice is a copy.
func (m *VariableMap) All() []*Variable {
	return slices.Clone(m.order)
}

// Len returns the number of variables.
func (m *VariableMap) Len() int { return len(m.order) }

// CreateVariable adds a variable to the workspace's table. Names must be
// unique; creating an existing name is an error.
func (w *Workspace) CreateVariable(name string) (*Variable, error) {
	if name == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "variable name cannot be empty")
	}
	if _, exists := w.variables.byName[name]; exists {
		return nil, errors.New(errors.ErrCodeInvalidInput, "variable %q already exists", name)
	}
	v := &Variable{ID: uuid.NewString(), Name: name}
	w.variables.byName[name] = v
	w.variables.order = append(w.variables.order, v)
	return v, nil
}

// RenameVariable renames a variable and rewrites every bound field in the
// workspace, grouping the field changes into one undoable unit. Fields
// are visited in block pre-order for a deterministic event stream.
func (w *Workspace) RenameVariable(oldName, newName string) error {
	v, ok := w.variables.byName[oldName]
	if !ok {
		return errors.New(errors.ErrCodeVarNotFound, "variable %q not found", oldName)
	}
	if newName == "" {
		return errors.New(errors.ErrCodeInvalidInput, "variable name cannot be empty")
	}
	if _, exists := w.variables.byName[newName]; exists && newName != oldName {
		return errors.New(errors.ErrCodeInvalidInput, "variable %q already exists", newName)
	}

	return w.Group(func() error {
		delete(w.variables.byName, oldName)
		v.Name = newName
		w.variables.byName[newName] = v

		for _, b := range w.GetAllBlocks() {
			val, ok := b.FieldValue(VariableFieldName)
			if !ok || val != oldName {
				continue
			}
			if err := b.SetFieldValue(VariableFieldName, newName); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteVariable removes a variable from the table. Blocks referencing it
// keep their field values; cleaning them up is a caller decision.
func (w *Workspace) DeleteVariable(name string) error {
	v, ok := w.variables.byName[name]
	if !ok {
		return errors.New(errors.ErrCodeVarNotFound, "variable %q not found", name)
	}
	delete(w.variables.byName, name)
	w.variables.order = slices.DeleteFunc(w.variables.order, func(x *Variable) bool { return x == v })
	return nil
}
