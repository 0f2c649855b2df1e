// Package doctor provides the "sheetchat doctor" command for checking that
// configuration, the chart renderer and the history store work.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetchat/internal/chart"
	"github.com/klytics/sheetchat/internal/config"
	"github.com/klytics/sheetchat/internal/history"
	"github.com/klytics/sheetchat/internal/output"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and chart rendering",
		Long:  "Run diagnostic checks to verify sheetchat is properly configured and can write charts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return err
			}
			checks := runChecks(cmd.Context(), config.Dir())

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON("doctor", checks)
			}

			out := cmd.OutOrStdout()
			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Fprintln(out, "SheetChat Doctor")
			fmt.Fprintln(out, "================")
			fmt.Fprintln(out)

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Fprintf(out, "  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func runChecks(ctx context.Context, dir string) []Check {
	checks := []Check{{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}}

	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		checks = append(checks, Check{Name: "State Directory", Status: "ok", Message: dir})
	} else {
		checks = append(checks, Check{
			Name:    "State Directory",
			Status:  "warning",
			Message: fmt.Sprintf("%s not found — run 'sheetchat config init'", dir),
		})
	}

	if _, err := os.Stat(config.ConfigPath()); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: config.ConfigPath()})
	} else {
		checks = append(checks, Check{Name: "Config File", Status: "warning", Message: "Not found, using defaults"})
	}

	for _, issue := range config.Validate() {
		status := issue.Severity
		if status == "info" {
			continue
		}
		checks = append(checks, Check{Name: "Config " + issue.Key, Status: status, Message: issue.Message})
	}

	checks = append(checks, checkRenderer(ctx))

	store := history.NewStore(dir)
	if size := store.Size(); size > store.MaxSize {
		checks = append(checks, Check{
			Name:    "History",
			Status:  "warning",
			Message: fmt.Sprintf("%d bytes, over the rotation limit — run 'sheetchat history --clear'", size),
		})
	} else {
		checks = append(checks, Check{Name: "History", Status: "ok", Message: fmt.Sprintf("%s (%d bytes)", store.Path, size)})
	}

	pager := os.Getenv("SHEETCHAT_PAGER")
	if pager == "" {
		pager = os.Getenv("PAGER")
	}
	if pager == "" {
		pager = "less"
	}
	if _, err := exec.LookPath(pager); err == nil {
		checks = append(checks, Check{Name: "Pager", Status: "ok", Message: pager})
	} else {
		checks = append(checks, Check{Name: "Pager", Status: "warning", Message: pager + " not found in PATH, long previews print unpaged"})
	}

	return checks
}

// checkRenderer draws a throwaway chart to confirm PNG rendering works.
func checkRenderer(ctx context.Context) Check {
	tmp, err := os.MkdirTemp("", "sheetchat-doctor-")
	if err != nil {
		return Check{Name: "Chart Rendering", Status: "error", Message: err.Error()}
	}
	defer os.RemoveAll(tmp)

	r := chart.NewRenderer(chart.Options{Dir: tmp, Width: 200, Height: 120})
	art, err := r.Bar(ctx, "doctor", []chart.Point{{Label: "a", Value: 1}, {Label: "b", Value: 2}})
	if err != nil {
		return Check{Name: "Chart Rendering", Status: "error", Message: err.Error()}
	}
	return Check{Name: "Chart Rendering", Status: "ok", Message: "wrote " + filepath.Base(art.Path)}
}
