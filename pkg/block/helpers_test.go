package block

import (
	"slices"
	"testing"

	"github.com/matzehuels/blockforge/pkg/events"
)

// testContainer is a minimal Container for exercising blocks without a
// full workspace.
type testContainer struct {
	fired []events.Event
	tops  []*Block
	db    *ConnectionDB
	muted int
}

func newTestContainer() *testContainer {
	return &testContainer{db: NewConnectionDB()}
}

func (c *testContainer) WorkspaceID() string { return "test-ws" }

func (c *testContainer) Fire(ev events.Event) {
	if c.muted > 0 {
		return
	}
	c.fired = append(c.fired, ev)
}

func (c *testContainer) Quiet(fn func() error) error {
	c.muted++
	defer func() { c.muted-- }()
	return fn()
}

func (c *testContainer) Group(fn func() error) error { return fn() }

func (c *testContainer) AddTopBlock(b *Block) {
	if !slices.Contains(c.tops, b) {
		c.tops = append(c.tops, b)
	}
}

func (c *testContainer) RemoveTopBlock(b *Block) {
	c.tops = slices.DeleteFunc(c.tops, func(t *Block) bool { return t == b })
}

func (c *testContainer) ForgetBlock(b *Block) {
	c.RemoveTopBlock(b)
}

func (c *testContainer) ConnDB() *ConnectionDB { return c.db }

// isTop reports whether the container tracks b as top-level.
func (c *testContainer) isTop(b *Block) bool { return slices.Contains(c.tops, b) }

// eventNames lists the fired event names in order.
func (c *testContainer) eventNames() []string {
	var names []string
	for _, ev := range c.fired {
		names = append(names, ev.Name())
	}
	return names
}

// Definitions shared by the block tests.

func boolDef() *Definition {
	return &Definition{
		Type:      "logic_boolean",
		HasOutput: true,
		Output:    []string{"Boolean"},
		Inputs: []InputDef{
			{Kind: InputKindDummy, Fields: []FieldDef{{Name: "BOOL", Value: "TRUE"}}},
		},
	}
}

func numberDef() *Definition {
	return &Definition{
		Type:      "math_number",
		HasOutput: true,
		Output:    []string{"Number"},
		Inputs: []InputDef{
			{Kind: InputKindDummy, Fields: []FieldDef{{Name: "NUM", Value: "0"}}},
		},
	}
}

func ifDef() *Definition {
	return &Definition{
		Type:        "controls_if",
		HasPrevious: true,
		HasNext:     true,
		Inputs: []InputDef{
			{Kind: InputKindValue, Name: "IF0", Checks: []string{"Boolean"}},
			{Kind: InputKindStatement, Name: "DO0"},
		},
	}
}

func printDef() *Definition {
	return &Definition{
		Type:        "text_print",
		HasPrevious: true,
		HasNext:     true,
		Inputs: []InputDef{
			{Kind: InputKindValue, Name: "TEXT"},
		},
	}
}

// mustBlock builds a block or fails the test.
func mustBlock(t *testing.T, c Container, def *Definition, id string) *Block {
	t.Helper()
	b, err := New(c, def, id)
	if err != nil {
		t.Fatalf("New(%s): %v", id, err)
	}
	c.AddTopBlock(b)
	return b
}

// mustConnect connects two connections or fails the test.
func mustConnect(t *testing.T, a, b *Connection) {
	t.Helper()
	if err := a.Connect(b); err != nil {
		t.Fatalf("Connect: %v", err)
	}
}

// inputConn returns the connection of a named input or fails the test.
func inputConn(t *testing.T, b *Block, name string) *Connection {
	t.Helper()
	in, ok := b.InputByName(name)
	if !ok || in.Connection() == nil {
		t.Fatalf("block %s has no connectable input %q", b.ID(), name)
	}
	return in.Connection()
}
