// Package query turns a free-text question about a table into an answer.
//
// Questions are routed through an ordered list of intent handlers. Each
// handler decides from trigger words whether it applies (Match) and then
// attempts to answer (Handle). The first handler that produces an answer
// wins; what happens when a handler matches but cannot answer is governed by
// the engine's Policy. There is no grammar: routing is substring and regex
// matching only.
package query

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/klytics/sheetchat/internal/chart"
	"github.com/klytics/sheetchat/internal/table"
)

// Kind tags which member of Result is populated.
type Kind string

const (
	KindText  Kind = "text"
	KindRows  Kind = "rows"
	KindChart Kind = "chart"
)

// Intent names, in default priority order.
const (
	IntentFilter    = "filter"
	IntentAverage   = "average"
	IntentTotal     = "total"
	IntentCount     = "count"
	IntentBarChart  = "bar_chart"
	IntentHistogram = "histogram"
	IntentShowAll   = "show_all"
	IntentFallback  = "fallback"
)

// FallbackMessage is returned when no handler can answer the question.
const FallbackMessage = "Sorry, I couldn't understand the question. Try rephrasing or ask for summary statistics like average, total, count."

// Result is the answer to one question. Exactly one of Text, Rows or Chart is
// set, according to Kind.
type Result struct {
	Kind   Kind            `json:"kind"`
	Intent string          `json:"intent"`
	Text   string          `json:"text,omitempty"`
	Rows   *table.RowSet   `json:"rows,omitempty"`
	Chart  *chart.Artifact `json:"chart,omitempty"`
}

func textResult(s string) Result {
	return Result{Kind: KindText, Text: s}
}

func rowsResult(rs *table.RowSet) Result {
	return Result{Kind: KindRows, Rows: rs}
}

// Outcome reports how a handler dealt with a question it matched.
type Outcome int

const (
	// Declined means the handler had nothing to say; dispatch moves on.
	Declined Outcome = iota
	// Handled means the result is the answer.
	Handled
	// Failed means the handler understood the intent but could not resolve
	// what it needed. The result carries a human-readable explanation.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Handled:
		return "handled"
	case Failed:
		return "failed"
	default:
		return "declined"
	}
}

// Policy decides what a Failed outcome does to dispatch.
type Policy string

const (
	// PolicyStrict stops at the first Failed handler and returns its message.
	PolicyStrict Policy = "strict"
	// PolicyLenient keeps trying later handlers after a failure and only
	// returns the first failure message when nothing else answers.
	PolicyLenient Policy = "lenient"
)

// ParsePolicy validates a policy name from config or flags.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyStrict, PolicyLenient:
		return Policy(s), nil
	case "":
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("invalid query policy %q — expected %q or %q", s, PolicyStrict, PolicyLenient)
}

// ChartRenderer draws chart artifacts. *chart.Renderer satisfies it.
type ChartRenderer interface {
	Bar(ctx context.Context, title string, points []chart.Point) (*chart.Artifact, error)
	Histogram(ctx context.Context, title string, values []float64) (*chart.Artifact, error)
}

// Request is what a handler sees for one question.
type Request struct {
	Ctx      context.Context
	Table    *table.Table
	Query    string // lowercased question
	Resolver Resolver
	Charts   ChartRenderer
}

// Handler is one intent in the dispatch list.
type Handler interface {
	Name() string
	// Match reports whether the lowercased question carries this intent's trigger words.
	Match(q string) bool
	// Handle attempts an answer. A non-nil error is a real failure (for
	// example an unwritable chart directory), not an interpretation miss.
	Handle(req *Request) (Result, Outcome, error)
}

// Engine answers questions against tables.
type Engine struct {
	handlers []Handler
	policy   Policy
	resolver Resolver
	charts   ChartRenderer
	logger   *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the fallthrough policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithResolver swaps the column/value matching strategy.
func WithResolver(r Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithHandlers replaces the dispatch list.
func WithHandlers(h ...Handler) Option {
	return func(e *Engine) { e.handlers = h }
}

// WithLogger enables debug logging of dispatch decisions.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// DefaultHandlers returns the built-in intents in priority order.
func DefaultHandlers() []Handler {
	return []Handler{
		filterHandler{},
		aggregateHandler{name: IntentAverage, triggers: []string{"average", "mean"}},
		aggregateHandler{name: IntentTotal, triggers: []string{"total", "sum"}},
		countHandler{},
		barChartHandler{},
		histogramHandler{},
		showAllHandler{},
	}
}

// New creates an engine that renders charts with charts. charts may be nil,
// in which case chart questions return an error.
func New(charts ChartRenderer, opts ...Option) *Engine {
	e := &Engine{
		handlers: DefaultHandlers(),
		policy:   PolicyStrict,
		resolver: SubstringResolver{},
		charts:   charts,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the engine's fallthrough policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Intents lists handler names in dispatch order, ending with the fallback.
func (e *Engine) Intents() []string {
	names := make([]string, 0, len(e.handlers)+1)
	for _, h := range e.handlers {
		names = append(names, h.Name())
	}
	return append(names, IntentFallback)
}

// Ask answers question against t. Column names of t are normalized first.
// Interpretation problems come back as text results; the error is reserved
// for cancellation and chart-writing failures.
func (e *Engine) Ask(ctx context.Context, t *table.Table, question string) (Result, error) {
	if t == nil {
		return Result{}, fmt.Errorf("no table loaded — load a spreadsheet before asking questions")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	t.Normalize()
	req := &Request{
		Ctx:      ctx,
		Table:    t,
		Query:    strings.ToLower(question),
		Resolver: e.resolver,
		Charts:   e.charts,
	}

	var failure *Result
	for _, h := range e.handlers {
		if !h.Match(req.Query) {
			continue
		}
		res, outcome, err := h.Handle(req)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", h.Name(), err)
		}
		e.logger.Printf("intent=%s outcome=%s", h.Name(), outcome)

		switch outcome {
		case Handled:
			res.Intent = h.Name()
			return res, nil
		case Failed:
			res.Intent = h.Name()
			if e.policy != PolicyLenient {
				return res, nil
			}
			if failure == nil {
				failure = &res
			}
		}
	}

	if failure != nil {
		return *failure, nil
	}
	e.logger.Printf("intent=%s", IntentFallback)
	return Result{Kind: KindText, Intent: IntentFallback, Text: FallbackMessage}, nil
}
