package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockforge/pkg/block"
	"github.com/matzehuels/blockforge/pkg/workspace"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand opens an interactive browser over a replayed workspace.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <workspace-id>",
		Short: "Browse a workspace's stacks interactively",
		Long: `Inspect rebuilds a workspace from its stored event log and opens an
interactive browser over its top-level stacks. Select a stack to see its
full tree of connected blocks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := c.replayWorkspace(cmd, args[0])
			if err != nil {
				return err
			}

			tops := ws.GetTopBlocks()
			if len(tops) == 0 {
				printKeyValue("workspace", ws.ID())
				printKeyValue("blocks", "0")
				return nil
			}

			model := newStackListModel(ws, tops)
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}
}

// =============================================================================
// StackListModel - Interactive stack browser
// =============================================================================

// StackListModel is the bubbletea model for browsing top-level stacks.
type StackListModel struct {
	ws       *workspace.Workspace
	stacks   []*block.Block
	cursor   int
	offset   int
	height   int
	expanded bool
}

func newStackListModel(ws *workspace.Workspace, stacks []*block.Block) StackListModel {
	return StackListModel{
		ws:     ws,
		stacks: stacks,
		height: 15,
	}
}

func (m StackListModel) Init() tea.Cmd {
	return nil
}

func (m StackListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.expanded {
				m.expanded = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.stacks)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			m.expanded = !m.expanded
		}
	}
	return m, nil
}

func (m StackListModel) View() string {
	var sb strings.Builder

	title := fmt.Sprintf("Workspace %s · %d blocks · %d stacks",
		m.ws.ID(), m.ws.BlockCount(), len(m.stacks))
	sb.WriteString(StyleTitle.Render(title) + "\n\n")

	if m.expanded {
		sb.WriteString(renderStackTree(m.stacks[m.cursor], ""))
		sb.WriteString("\n" + listDimStyle.Render("esc back · q quit") + "\n")
		return sb.String()
	}

	end := min(m.offset+m.height, len(m.stacks))
	for i := m.offset; i < end; i++ {
		top := m.stacks[i]
		line := fmt.Sprintf("%s %s", top.Type(), listDimStyle.Render(summarizeStack(top)))
		if i == m.cursor {
			sb.WriteString(listSelectedStyle.Render("› "+line) + "\n")
		} else {
			sb.WriteString("  " + listNormalStyle.Render(line) + "\n")
		}
	}

	sb.WriteString("\n" + listDimStyle.Render("↑/↓ move · enter expand · q quit") + "\n")
	return sb.String()
}

// summarizeStack counts the blocks below a top block.
func summarizeStack(top *block.Block) string {
	n := len(top.Descendants())
	if n == 1 {
		return "1 block"
	}
	return fmt.Sprintf("%d blocks", n)
}

// renderStackTree renders a stack as an indented tree string for the
// expanded view.
func renderStackTree(b *block.Block, indent string) string {
	var sb strings.Builder
	for blk := b; blk != nil; blk = blk.NextBlock() {
		sb.WriteString(indent + renderBlockLine(blk) + "\n")
		for _, in := range blk.Inputs() {
			child := in.TargetBlock()
			if child == nil {
				continue
			}
			sb.WriteString(indent + "  " + styleField.Render(in.Name()+":") + "\n")
			sb.WriteString(renderStackTree(child, indent+"    "))
		}
	}
	return sb.String()
}
