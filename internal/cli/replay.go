package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blockforge/pkg/eventstore"
	"github.com/matzehuels/blockforge/pkg/workspace"
)

// replayCommand rebuilds a workspace from its stored event log and
// prints the resulting block tree.
func (c *CLI) replayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <workspace-id>",
		Short: "Rebuild a workspace from its event log",
		Long: `Replay loads the stored event log for a workspace and applies every
event to a fresh workspace, then prints the resulting block tree. The
result is exactly the state the live workspace had when the log was
written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, applied, err := c.replayWorkspace(cmd, args[0])
			if err != nil {
				return err
			}

			printWorkspaceTree(ws)
			fmt.Println(StyleDim.Render(fmt.Sprintf("  %d events applied", applied)))
			return nil
		},
	}
	return cmd
}

// replayWorkspace loads a workspace's log from the configured store and
// replays it into a fresh workspace with undo recording off.
func (c *CLI) replayWorkspace(cmd *cobra.Command, workspaceID string) (*workspace.Workspace, int, error) {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, 0, err
	}
	reg, err := c.newRegistry(cfg)
	if err != nil {
		return nil, 0, err
	}
	store, err := c.newStore(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = store.Close(ctx) }()

	ws, err := workspace.New(reg, workspace.Options{ID: workspaceID})
	if err != nil {
		return nil, 0, err
	}
	ws.SetRecording(false)
	defer ws.SetRecording(true)

	prog := newProgress(c.Logger)
	applied, err := eventstore.Replay(ctx, store, workspaceID, ws)
	if err != nil {
		return nil, applied, err
	}
	prog.done(fmt.Sprintf("Replayed %d events", applied))

	return ws, applied, nil
}
