// Package cli wires the trawl subcommands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/sprite-ai/trawl/internal/checklist"
	"github.com/sprite-ai/trawl/internal/config"
	"github.com/sprite-ai/trawl/internal/remote"
	"github.com/sprite-ai/trawl/internal/repo"
)

var rootCmd = &cobra.Command{
	Use:   "trawl",
	Short: "Search, review, and triage the files of a repository",
	Long: `trawl is a review workstation for a directory tree. Search for
patterns, work through the matches one file at a time, edit in place,
and track per-file review status in a checklist that persists between
sessions.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(reviewCmd, serveCmd, searchCmd, statusCmd, versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func rootDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// newAuthority builds the review authority from the command line: a remote
// HTTP client when --remote (or the config's remote_url) is set, otherwise
// the local tree plus its checklist database. The returned func releases
// whatever the authority holds open.
func newAuthority(cmd *cobra.Command, args []string) (remote.Authority, func(), error) {
	noop := func() {}

	if url, _ := cmd.Flags().GetString("remote"); url != "" {
		return remote.NewClient(url), noop, nil
	}

	root := rootDir(args)
	cfg, err := config.Load(root)
	if err != nil {
		return nil, noop, err
	}
	if cfg.RemoteURL != "" {
		return remote.NewClient(cfg.RemoteURL), noop, nil
	}

	r, err := repo.New(root, repo.Options{
		ExcludeDirs: cfg.ExcludeDirs,
		ResultCap:   cfg.ResultCap,
	})
	if err != nil {
		return nil, noop, err
	}

	list, err := checklist.Open(checklist.DefaultPath(root))
	if err != nil {
		return nil, noop, err
	}

	return remote.NewLocal(r, list), func() { list.Close() }, nil
}
