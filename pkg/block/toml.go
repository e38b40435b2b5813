package block

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/blockforge/pkg/errors"
)

// defFile is the TOML shape of a block definitions file:
//
//	[[block]]
//	type = "controls_if"
//	previous = true
//	next = true
//
//	  [[block.input]]
//	  kind = "value"
//	  name = "IF0"
//	  checks = ["Boolean"]
//
//	    [[block.input.field]]
//	    name = "LABEL"
//	    value = "if"
type defFile struct {
	Blocks []defBlock `toml:"block"`
}

type defBlock struct {
	Type     string     `toml:"type"`
	Output   []string   `toml:"output"`
	IsOutput bool       `toml:"has_output"`
	Previous []string   `toml:"previous_checks"`
	HasPrev  bool       `toml:"previous"`
	Next     []string   `toml:"next_checks"`
	HasNext  bool       `toml:"next"`
	Inputs   []defInput `toml:"input"`
}

type defInput struct {
	Kind   string     `toml:"kind"`
	Name   string     `toml:"name"`
	Checks []string   `toml:"checks"`
	Fields []defField `toml:"field"`
}

type defField struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

// LoadDefinitions reads a TOML definitions file and returns a registry
// holding every block type it declares. Each definition is validated;
// the first invalid one aborts the load.
func LoadDefinitions(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "read definitions file")
	}
	return ParseDefinitions(data)
}

// ParseDefinitions parses TOML definitions data into a registry.
func ParseDefinitions(data []byte) (*Registry, error) {
	var file defFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "parse definitions file")
	}

	reg := NewRegistry()
	for _, db := range file.Blocks {
		def, err := db.toDefinition()
		if err != nil {
			return nil, err
		}
		if err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (db defBlock) toDefinition() (*Definition, error) {
	def := &Definition{
		Type:        db.Type,
		HasOutput:   db.IsOutput || len(db.Output) > 0,
		Output:      db.Output,
		HasPrevious: db.HasPrev || len(db.Previous) > 0,
		Previous:    db.Previous,
		HasNext:     db.HasNext || len(db.Next) > 0,
		Next:        db.Next,
	}
	for _, di := range db.Inputs {
		var kind InputKind
		switch di.Kind {
		case "value":
			kind = InputKindValue
		case "statement":
			kind = InputKindStatement
		case "dummy", "":
			kind = InputKindDummy
		default:
			return nil, errors.New(errors.ErrCodeInvalidDefinition,
				"block %s input %q has unknown kind %q", db.Type, di.Name, di.Kind)
		}
		in := InputDef{Kind: kind, Name: di.Name, Checks: di.Checks}
		for _, f := range di.Fields {
			in.Fields = append(in.Fields, FieldDef{Name: f.Name, Value: f.Value})
		}
		def.Inputs = append(def.Inputs, in)
	}
	return def, nil
}
