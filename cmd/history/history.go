// Package history provides the "sheetchat history" command.
package history

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetchat/internal/config"
	historypkg "github.com/klytics/sheetchat/internal/history"
	"github.com/klytics/sheetchat/internal/output"
)

// NewCommand creates the "history" command.
func NewCommand() *cobra.Command {
	var (
		clear  bool
		recent int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Summarize past questions by intent",
		Long: `Shows how many questions were asked, which intents answered them and how
many fell through to the fallback. Question text is only kept when
history.questions is true.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			store := historypkg.NewStore(config.Dir())

			if clear {
				if err := store.Clear(); err != nil {
					return err
				}
				if jsonOut {
					return output.PrintJSON("history", map[string]string{"cleared": store.Path})
				}
				fmt.Println("History cleared.")
				return nil
			}

			stats, err := store.Summary()
			if err != nil {
				return err
			}
			var entries []historypkg.Entry
			if recent > 0 {
				if entries, err = store.Recent(recent); err != nil {
					return err
				}
			}

			if jsonOut {
				return output.PrintJSON("history", map[string]any{
					"path":    store.Path,
					"size":    store.Size(),
					"summary": stats,
					"recent":  entries,
				})
			}

			dim := color.New(color.FgHiBlack)
			if stats.Total == 0 {
				dim.Printf("No questions recorded yet (%s)\n", store.Path)
				return nil
			}

			color.New(color.Bold, color.FgCyan).Printf("%d questions, %d unanswered, avg %.0fms\n",
				stats.Total, stats.Errors, stats.AvgDuration)
			dim.Printf("%s to %s\n\n", stats.First.Format("2006-01-02 15:04"), stats.Last.Format("2006-01-02 15:04"))

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"Intent", "Questions"})
			for _, ic := range stats.Intents {
				tw.AppendRow(table.Row{ic.Intent, ic.Count})
			}
			tw.Render()

			if len(entries) > 0 {
				fmt.Println()
				for _, e := range entries {
					status := color.New(color.FgGreen).Sprint("✓")
					if !e.OK {
						status = color.New(color.FgRed).Sprint("✗")
					}
					line := fmt.Sprintf("%s %s %-10s %4dms", status, e.Timestamp.Format("01-02 15:04:05"), e.Intent, e.DurationMs)
					if e.Question != "" {
						line += "  " + e.Question
					}
					fmt.Println(line)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Delete recorded history")
	cmd.Flags().IntVar(&recent, "recent", 0, "Also list the last N questions")
	return cmd
}
