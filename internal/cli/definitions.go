package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// defaultDefinitions is the built-in block set used when no definitions
// file is configured. It covers enough types to exercise every
// connection kind: value blocks, statement stacks, and nested inputs.
const defaultDefinitions = `
[[block]]
type = "controls_if"
previous = true
next = true

  [[block.input]]
  kind = "value"
  name = "IF0"
  checks = ["Boolean"]

  [[block.input]]
  kind = "statement"
  name = "DO0"

[[block]]
type = "controls_repeat"
previous = true
next = true

  [[block.input]]
  kind = "value"
  name = "TIMES"
  checks = ["Number"]

  [[block.input]]
  kind = "statement"
  name = "DO"

[[block]]
type = "logic_compare"
output = ["Boolean"]

  [[block.input]]
  kind = "value"
  name = "A"

  [[block.input]]
  kind = "value"
  name = "B"

  [[block.input]]
  kind = "dummy"

    [[block.input.field]]
    name = "OP"
    value = "EQ"

[[block]]
type = "logic_boolean"
output = ["Boolean"]

  [[block.input]]
  kind = "dummy"

    [[block.input.field]]
    name = "BOOL"
    value = "TRUE"

[[block]]
type = "math_number"
output = ["Number"]

  [[block.input]]
  kind = "dummy"

    [[block.input.field]]
    name = "NUM"
    value = "0"

[[block]]
type = "text_print"
previous = true
next = true

  [[block.input]]
  kind = "value"
  name = "TEXT"

[[block]]
type = "variables_get"
has_output = true

  [[block.input]]
  kind = "dummy"

    [[block.input.field]]
    name = "VAR"
    value = "item"

[[block]]
type = "variables_set"
previous = true
next = true

  [[block.input]]
  kind = "value"
  name = "VALUE"

    [[block.input.field]]
    name = "VAR"
    value = "item"
`

// definitionsCommand lists the block types available to new workspaces.
func (c *CLI) definitionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "definitions",
		Short: "List available block definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			reg, err := c.newRegistry(cfg)
			if err != nil {
				return err
			}

			types := reg.Types()
			fmt.Println(StyleTitle.Render("Block definitions") + StyleDim.Render(fmt.Sprintf(" (%d)", len(types))))
			for _, typ := range types {
				def, _ := reg.Get(typ)
				printDefinition(def)
			}
			return nil
		},
	}
}
