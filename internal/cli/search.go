package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <pattern> [dir]",
	Short: "Search the tree and print matches (non-interactive)",
	Long: `Search file contents and names for a pattern and print every match.
Useful for scripting and for piping into other tools.

Examples:
  trawl search 'TODO'                  # literal, case-insensitive
  trawl search -r 'fn \w+_test' src/   # regular expression
  trawl search -g '*.go' handler       # only .go files`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolP("regex", "r", false, "treat the pattern as a regular expression")
	searchCmd.Flags().StringP("glob", "g", "", "only search files matching this suffix glob")
	searchCmd.Flags().StringP("format", "f", "text", "output format: text, json")
	searchCmd.Flags().String("remote", "", "URL of a trawl serve instance to search against")
}

func runSearch(cmd *cobra.Command, args []string) error {
	pattern := args[0]

	authority, release, err := newAuthority(cmd, args[1:])
	if err != nil {
		return err
	}
	defer release()

	useRegex, _ := cmd.Flags().GetBool("regex")
	glob, _ := cmd.Flags().GetString("glob")

	hits, err := authority.Search(cmd.Context(), pattern, useRegex, glob)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	case "text":
		for _, h := range hits {
			fmt.Printf("%s:%d:%d: %s\n", h.ArtifactID, h.Line, h.Column, h.Preview)
		}
		if len(hits) == 0 {
			fmt.Fprintln(os.Stderr, "no matches")
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
