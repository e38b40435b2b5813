package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/blockforge/pkg/block"
	"github.com/matzehuels/blockforge/pkg/workspace"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleBlockType = lipgloss.NewStyle().Foreground(colorCyan)
	styleShadow    = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	styleField     = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Definition Display
// =============================================================================

// printDefinition prints one block definition with its shape.
func printDefinition(def *block.Definition) {
	var shape []string
	if def.HasOutput {
		shape = append(shape, "output"+checkSuffix(def.Output))
	}
	if def.HasPrevious {
		shape = append(shape, "previous"+checkSuffix(def.Previous))
	}
	if def.HasNext {
		shape = append(shape, "next"+checkSuffix(def.Next))
	}
	fmt.Println("  " + styleBlockType.Render(def.Type) + " " + StyleDim.Render(strings.Join(shape, ", ")))

	for _, in := range def.Inputs {
		if in.Kind == block.InputKindDummy && len(in.Fields) == 0 {
			continue
		}
		line := "    "
		if in.Name != "" {
			line += styleField.Render(in.Name) + " "
		}
		line += StyleDim.Render(in.Kind.String() + checkSuffix(in.Checks))
		fmt.Println(line)
	}
}

func checkSuffix(checks []string) string {
	if len(checks) == 0 {
		return ""
	}
	return "[" + strings.Join(checks, ",") + "]"
}

// =============================================================================
// Workspace Tree Display
// =============================================================================

// printWorkspaceTree prints every top-level stack in the workspace as an
// indented tree.
func printWorkspaceTree(ws *workspace.Workspace) {
	tops := ws.GetTopBlocks()
	fmt.Println(StyleTitle.Render("Workspace "+ws.ID()) +
		StyleDim.Render(fmt.Sprintf(" · %d blocks · %d stacks", ws.BlockCount(), len(tops))))
	for _, top := range tops {
		printBlockTree(top, "  ")
	}
}

// printBlockTree prints a block and its subtree: inputs indented below,
// the next block in the stack at the same depth.
func printBlockTree(b *block.Block, indent string) {
	for blk := b; blk != nil; blk = blk.NextBlock() {
		fmt.Println(indent + renderBlockLine(blk))
		for _, in := range blk.Inputs() {
			child := in.TargetBlock()
			if child == nil {
				continue
			}
			fmt.Println(indent + "  " + styleField.Render(in.Name()+":"))
			printBlockTree(child, indent+"    ")
		}
	}
}

func renderBlockLine(b *block.Block) string {
	line := styleBlockType.Render(b.Type())
	if b.IsShadow() {
		line += " " + styleShadow.Render("(shadow)")
	}
	fields := b.Fields()
	if len(fields) > 0 {
		var parts []string
		for _, in := range b.Inputs() {
			for _, f := range in.Fields() {
				parts = append(parts, f.Name()+"="+f.Value())
			}
		}
		line += " " + styleField.Render(strings.Join(parts, " "))
	}
	line += " " + StyleDim.Render("#"+shortID(b.ID()))
	return line
}

// shortID truncates UUIDs for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
