package batch

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/klytics/sheetchat/internal/query"
	"github.com/klytics/sheetchat/internal/table"
)

// Answerer is the part of the query engine a runner needs.
type Answerer interface {
	Ask(ctx context.Context, t *table.Table, question string) (query.Result, error)
}

// Result holds the outcome of one question.
type Result struct {
	ID         string        `json:"id"`
	Ask        string        `json:"ask"`
	Intent     string        `json:"intent,omitempty"`
	Kind       query.Kind    `json:"kind,omitempty"`
	Text       string        `json:"text,omitempty"`
	Rows       int           `json:"rows,omitempty"`
	Chart      string        `json:"chart,omitempty"`
	Passed     bool          `json:"passed"`
	Mismatch   string        `json:"mismatch,omitempty"`
	Error      string        `json:"error,omitempty"`
	DurationMs int64         `json:"ms"`
	Answer     *query.Result `json:"-"`
}

// Report is the outcome of a whole suite.
type Report struct {
	Name     string   `json:"name"`
	Workbook string   `json:"workbook"`
	Sheet    string   `json:"sheet"`
	Results  []Result `json:"results"`
	Passed   int      `json:"passed"`
	Failed   int      `json:"failed"`
}

// Runner answers a suite's questions in order against one table.
type Runner struct {
	engine Answerer
	logger *log.Logger

	// OnResult, if set, is called after each question.
	OnResult func(Result)
}

// NewRunner creates a runner. A nil logger discards debug output.
func NewRunner(engine Answerer, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{engine: engine, logger: logger}
}

// Run loads the suite's workbook and answers every question. A question
// whose answer does not match its expectations is a failed result, not an
// error. An engine error stops the run unless the question sets
// on_failure: skip.
func (r *Runner) Run(ctx context.Context, s *Suite) (*Report, error) {
	t, err := table.Load(s.WorkbookPath(), s.Sheet)
	if err != nil {
		return nil, err
	}
	return r.RunTable(ctx, s, t)
}

// RunTable answers the suite's questions against an already loaded table.
func (r *Runner) RunTable(ctx context.Context, s *Suite, t *table.Table) (*Report, error) {
	rep := &Report{Name: s.Name, Workbook: s.WorkbookPath(), Sheet: t.Name}

	for i, q := range s.Questions {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		r.logger.Printf("[%d/%d] %s: %s", i+1, len(s.Questions), q.ID, q.Ask)

		start := time.Now()
		ans, err := r.engine.Ask(ctx, t, q.Ask)
		res := Result{ID: q.ID, Ask: q.Ask, DurationMs: time.Since(start).Milliseconds()}

		if err != nil {
			res.Error = err.Error()
			r.record(rep, res)
			if q.OnFailure == "skip" {
				r.logger.Printf("  %s failed (skipping): %s", q.ID, err)
				continue
			}
			return rep, fmt.Errorf("question %q failed: %w", q.ID, err)
		}

		res.Answer = &ans
		res.Intent = ans.Intent
		res.Kind = ans.Kind
		res.Text = ans.Text
		if ans.Rows != nil {
			res.Rows = ans.Rows.Len()
		}
		if ans.Chart != nil {
			res.Chart = ans.Chart.Path
		}
		res.Mismatch = check(q, ans)
		res.Passed = res.Mismatch == ""
		r.record(rep, res)

		if !res.Passed && q.OnFailure == "stop" {
			return rep, fmt.Errorf("question %q: %s", q.ID, res.Mismatch)
		}
	}
	return rep, nil
}

func (r *Runner) record(rep *Report, res Result) {
	rep.Results = append(rep.Results, res)
	if res.Passed {
		rep.Passed++
	} else {
		rep.Failed++
	}
	if r.OnResult != nil {
		r.OnResult(res)
	}
}

func check(q Question, ans query.Result) string {
	var problems []string
	if q.ExpectKind != "" && string(ans.Kind) != q.ExpectKind {
		problems = append(problems, fmt.Sprintf("expected kind %s, got %s", q.ExpectKind, ans.Kind))
	}
	if q.ExpectIntent != "" && ans.Intent != q.ExpectIntent {
		problems = append(problems, fmt.Sprintf("expected intent %s, got %s", q.ExpectIntent, ans.Intent))
	}
	if q.ExpectText != "" && !strings.Contains(ans.Text, q.ExpectText) {
		problems = append(problems, fmt.Sprintf("expected text containing %q", q.ExpectText))
	}
	return strings.Join(problems, "; ")
}
