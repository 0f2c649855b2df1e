// Package shell provides the "sheetchat shell" interactive REPL command.
package shell

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetchat/internal/app"
	"github.com/klytics/sheetchat/internal/config"
	shellpkg "github.com/klytics/sheetchat/internal/shell"
	"github.com/klytics/sheetchat/internal/watch"
)

// NewCommand creates the "shell" command.
func NewCommand() *cobra.Command {
	var (
		evalCmd  string
		sheet    string
		watching bool
		ov       app.Overrides
	)

	cmd := &cobra.Command{
		Use:   "shell [file]",
		Short: "Start an interactive question shell",
		Long: `Start an interactive REPL over a workbook with tab completion of
column names. The workbook is loaded once and every line that is not a
shell command is asked as a question.

With --watch the workbook is reloaded whenever it changes on disk.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			format, err := app.OutputFormat(cmd, cfg)
			if err != nil {
				return err
			}
			engine, err := app.NewEngine(cfg, ov, verbose)
			if err != nil {
				return err
			}

			session := shellpkg.NewSession(engine, config.Dir())
			session.Format = format
			session.MaxRows = cfg.Output.MaxRows
			session.History = app.HistoryStore(cfg)
			session.Logger = app.Logger("shell", verbose)

			if len(args) == 1 {
				if _, err := session.Load(args[0], sheet); err != nil {
					return err
				}
			}

			if evalCmd != "" {
				out, err := session.Eval(cmd.Context(), evalCmd)
				fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
			defer cancel()

			if watching {
				if len(args) == 0 {
					return fmt.Errorf("--watch needs a workbook — pass the file to watch")
				}
				w, err := watch.New([]string{args[0]}, time.Duration(cfg.Watch.DebounceMS)*time.Millisecond, func(string) error {
					_, err := session.Reload()
					return err
				})
				if err != nil {
					return err
				}
				go func() {
					if err := w.Start(ctx); err != nil {
						fmt.Fprintf(os.Stderr, "Warning: watcher stopped: %v\n", err)
					}
				}()
			}

			return session.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&evalCmd, "eval", "", "Run a single line and exit")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to load (default: first sheet)")
	cmd.Flags().BoolVar(&watching, "watch", false, "Reload the workbook when it changes")
	cmd.Flags().StringVar(&ov.Policy, "policy", "", "Fallthrough policy: strict | lenient")
	cmd.Flags().StringVar(&ov.Matcher, "matcher", "", "Column matching: substring | word")
	cmd.Flags().StringVar(&ov.ChartsDir, "charts-dir", "", "Directory for chart images")
	return cmd
}
