// Package app wires configuration into the query engine and its
// collaborators for the CLI commands.
package app

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetchat/internal/chart"
	"github.com/klytics/sheetchat/internal/config"
	"github.com/klytics/sheetchat/internal/history"
	"github.com/klytics/sheetchat/internal/output"
	"github.com/klytics/sheetchat/internal/query"
)

// Overrides holds per-invocation flag values that win over config.
// Empty fields keep the configured value.
type Overrides struct {
	Policy    string
	Matcher   string
	ChartsDir string
	Naming    string
}

// Logger returns a stderr logger tagged with component when verbose is
// set, and a discarding logger otherwise.
func Logger(component string, verbose bool) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "["+component+"] ", log.LstdFlags)
}

// NewEngine builds a query engine from cfg with ov applied on top.
func NewEngine(cfg *config.Config, ov Overrides, verbose bool) (*query.Engine, error) {
	policyName := pick(ov.Policy, cfg.Query.Policy)
	policy, err := query.ParsePolicy(policyName)
	if err != nil {
		return nil, err
	}
	resolver, err := query.ParseResolver(pick(ov.Matcher, cfg.Query.Matcher))
	if err != nil {
		return nil, err
	}
	naming, err := chart.ParseNaming(pick(ov.Naming, cfg.Charts.Naming))
	if err != nil {
		return nil, err
	}

	renderer := chart.NewRenderer(chart.Options{
		Dir:    pick(ov.ChartsDir, cfg.Charts.Dir),
		Naming: naming,
		Width:  cfg.Charts.Width,
		Height: cfg.Charts.Height,
	})
	return query.New(renderer,
		query.WithPolicy(policy),
		query.WithResolver(resolver),
		query.WithLogger(Logger("query", verbose)),
	), nil
}

// OutputFormat resolves the output format: --json wins, then an explicit
// --format, then output.format from config.
func OutputFormat(cmd *cobra.Command, cfg *config.Config) (output.Format, error) {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return output.FormatJSON, nil
	}
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		return output.ParseFormat(f.Value.String())
	}
	return output.ParseFormat(cfg.Output.Format)
}

// HistoryStore returns the query-history store, or nil when history is
// disabled.
func HistoryStore(cfg *config.Config) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store := history.NewStore(config.Dir())
	store.KeepQuestions = cfg.History.Questions
	return store
}

// Record appends one answered question to store. A nil store is a no-op.
func Record(store *history.Store, question string, res query.Result, err error, start time.Time) {
	if store == nil {
		return
	}
	store.Record(history.Entry{
		Intent:     res.Intent,
		Kind:       string(res.Kind),
		DurationMs: time.Since(start).Milliseconds(),
		OK:         err == nil && res.Intent != query.IntentFallback,
		Question:   question,
	})
	if store.Size() > store.MaxSize {
		store.Rotate()
	}
}

func pick(override, configured string) string {
	if override != "" {
		return override
	}
	return configured
}
