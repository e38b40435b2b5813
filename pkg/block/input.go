package block

// InputKind identifies the flavor of an input row.
type InputKind int

const (
	// InputKindValue owns an InputValue connection accepting a value block.
	InputKindValue InputKind = iota + 1
	// InputKindStatement owns a NextStatement connection accepting a stack.
	InputKindStatement
	// InputKindDummy owns no connection; it only carries fields.
	InputKindDummy
)

// String returns the kind name used in logs and definitions.
func (k InputKind) String() string {
	switch k {
	case InputKindValue:
		return "value"
	case InputKindStatement:
		return "statement"
	case InputKindDummy:
		return "dummy"
	default:
		return "unknown"
	}
}

// Input is a named slot on a block: an optional owned connection (value
// and statement kinds only) plus an ordered row of fields. The engine
// treats fields as opaque name/value pairs; editors and widgets live
// outside the core.
type Input struct {
	owner  *Block
	kind   InputKind
	name   string // unique within the owning block; may be empty for dummy
	conn   *Connection
	fields []*Field
}

// Name returns the input's name.
func (in *Input) Name() string { return in.name }

// Kind returns the input's kind.
func (in *Input) Kind() InputKind { return in.kind }

// Connection returns the owned connection, or nil for dummy inputs.
func (in *Input) Connection() *Connection { return in.conn }

// Fields returns the ordered field row as a read-only view.
func (in *Input) Fields() []*Field { return in.fields }

// TargetBlock returns the block attached to this input, or nil for a
// dummy or empty input.
func (in *Input) TargetBlock() *Block {
	if in.conn == nil || !in.conn.IsConnected() {
		return nil
	}
	return in.conn.TargetBlock()
}

// Field is one opaque widget slot in an input row. The engine only knows
// its name and current value.
type Field struct {
	name  string
	value string
}

// Name returns the field's name.
func (f *Field) Name() string { return f.name }

// Value returns the field's current value.
func (f *Field) Value() string { return f.value }
