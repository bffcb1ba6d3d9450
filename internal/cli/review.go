package cli

import (
	"github.com/spf13/cobra"

	"github.com/sprite-ai/trawl/internal/session"
	"github.com/sprite-ai/trawl/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review [dir]",
	Short: "Open an interactive review session",
	Long: `Open the interactive TUI over a directory tree. By default the tree
is the current directory and the checklist lives under .trawl/ inside it.

Examples:
  trawl review                         # review the current directory
  trawl review ~/src/project           # review another tree
  trawl review --remote http://host:3000   # drive a trawl serve instance`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().String("remote", "", "URL of a trawl serve instance to review against")
}

func runReview(cmd *cobra.Command, args []string) error {
	authority, release, err := newAuthority(cmd, args)
	if err != nil {
		return err
	}
	defer release()

	return tui.Run(session.NewController(authority))
}
