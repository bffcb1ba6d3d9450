package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/trawl/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status [dir]",
	Short: "Summarize the review checklist",
	Long: `Print the review checklist: how many files are todo, in progress,
and done, plus each tracked file with its status and note.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("remote", "", "URL of a trawl serve instance to query")
	statusCmd.Flags().BoolP("quiet", "q", false, "print only the summary line")
}

func runStatus(cmd *cobra.Command, args []string) error {
	authority, release, err := newAuthority(cmd, args)
	if err != nil {
		return err
	}
	defer release()

	records, err := authority.Statuses(cmd.Context())
	if err != nil {
		return err
	}

	counts := map[model.ReviewStatus]int{}
	ids := make([]string, 0, len(records))
	for id, rec := range records {
		counts[rec.Status]++
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("%d tracked: %d todo, %d in progress, %d done\n",
		len(records),
		counts[model.StatusTodo],
		counts[model.StatusInProgress],
		counts[model.StatusDone],
	)

	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return nil
	}

	for _, id := range ids {
		rec := records[id]
		line := fmt.Sprintf("  %-12s %s", rec.Status, id)
		if rec.Note != "" {
			line += "  # " + rec.Note
		}
		fmt.Println(line)
	}
	return nil
}
