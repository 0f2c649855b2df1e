// Package shell provides the interactive question REPL.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/klytics/sheetchat/internal/app"
	"github.com/klytics/sheetchat/internal/formats/xlsx"
	"github.com/klytics/sheetchat/internal/history"
	"github.com/klytics/sheetchat/internal/output"
	"github.com/klytics/sheetchat/internal/query"
	"github.com/klytics/sheetchat/internal/table"
)

// Answerer is the part of the query engine the shell needs.
type Answerer interface {
	Ask(ctx context.Context, t *table.Table, question string) (query.Result, error)
}

// Session holds the loaded workbook and answers questions against it.
type Session struct {
	Engine      Answerer
	History     *history.Store
	Format      output.Format
	MaxRows     int
	HistoryFile string
	StartTime   time.Time
	Logger      *log.Logger

	// CommandHistory holds every line entered this session.
	CommandHistory []string

	mu       sync.Mutex
	path     string
	sheet    string
	workbook *xlsx.Workbook
	table    *table.Table
}

var shellCommands = []string{"load", "sheets", "sheet", "columns", "head", "history", "help", "exit", "quit"}

// NewSession creates a session. readline history is kept in dir.
func NewSession(engine Answerer, dir string) *Session {
	return &Session{
		Engine:      engine,
		Format:      output.FormatText,
		MaxRows:     50,
		HistoryFile: filepath.Join(dir, "shell_history"),
		StartTime:   time.Now(),
		Logger:      log.New(io.Discard, "", 0),
	}
}

// Load reads a workbook and selects a sheet (the first when sheet is empty).
func (s *Session) Load(path, sheet string) (*table.Table, error) {
	wb, err := xlsx.Open(path)
	if err != nil {
		return nil, err
	}
	t, err := table.FromWorkbook(wb, sheet)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.path, s.sheet, s.workbook, s.table = path, sheet, wb, t
	s.mu.Unlock()
	s.Logger.Printf("loaded %s sheet=%q rows=%d", path, t.Name, t.Len())
	return t, nil
}

// Reload re-reads the current workbook, keeping the selected sheet.
func (s *Session) Reload() (*table.Table, error) {
	s.mu.Lock()
	path, sheet := s.path, s.sheet
	s.mu.Unlock()
	if path == "" {
		return nil, fmt.Errorf("no workbook loaded — use 'load <file>' first")
	}
	return s.Load(path, sheet)
}

// Path returns the loaded workbook's path, or "".
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Table returns the current table, or nil.
func (s *Session) Table() *table.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

// Run starts the REPL loop. Blocks until 'exit' or Ctrl+D.
func (s *Session) Run(ctx context.Context) error {
	os.MkdirAll(filepath.Dir(s.HistoryFile), 0755)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     s.HistoryFile,
		AutoComplete:    completer{s},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	title := color.New(color.Bold, color.FgCyan)
	title.Println("SheetChat — ask questions about your spreadsheet")
	fmt.Println("Type 'help' for commands, 'exit' to quit.")
	fmt.Println()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		out, err := s.Eval(ctx, line)
		if out != "" {
			fmt.Print(out)
		}
		if err != nil {
			output.WriteError("%s", err)
		}
		rl.SetPrompt(s.prompt())
	}

	fmt.Printf("\nSession ended. %d lines in %s.\n", len(s.CommandHistory), formatDuration(time.Since(s.StartTime)))
	return nil
}

func (s *Session) prompt() string {
	t := s.Table()
	if t == nil {
		return "sheetchat> "
	}
	return fmt.Sprintf("sheetchat[%s]> ", t.Name)
}

// Eval runs one shell line and returns its rendered output. Lines that are
// not shell commands are asked as questions.
func (s *Session) Eval(ctx context.Context, line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	s.CommandHistory = append(s.CommandHistory, line)

	var buf bytes.Buffer
	w := output.NewWriter(&buf, s.Format, s.MaxRows)
	fields := strings.Fields(line)

	var err error
	switch strings.ToLower(fields[0]) {
	case "load":
		err = s.cmdLoad(w, fields[1:])
	case "sheets":
		err = s.cmdSheets(w)
	case "sheet":
		err = s.cmdSheet(w, fields[1:])
	case "columns":
		err = s.withTable(func(t *table.Table) error { return w.WriteSchema(t) })
	case "head":
		err = s.cmdHead(w, fields[1:])
	case "history":
		s.cmdHistory(w)
	case "help":
		printHelp(&buf)
	default:
		err = s.ask(ctx, w, line)
	}
	return buf.String(), err
}

func (s *Session) withTable(fn func(*table.Table) error) error {
	t := s.Table()
	if t == nil {
		return fmt.Errorf("no workbook loaded — use 'load <file>' first")
	}
	return fn(t)
}

func (s *Session) cmdLoad(w *output.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: load <file> [sheet]")
	}
	t, err := s.Load(args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	return w.WriteLn(fmt.Sprintf("Loaded %s: sheet %q, %d rows, %d columns", args[0], t.Name, t.Len(), len(t.Columns())))
}

func (s *Session) cmdSheets(w *output.Writer) error {
	s.mu.Lock()
	wb := s.workbook
	current := ""
	if s.table != nil {
		current = s.table.Name
	}
	s.mu.Unlock()
	if wb == nil {
		return fmt.Errorf("no workbook loaded — use 'load <file>' first")
	}
	for _, name := range wb.SheetNames() {
		marker := "  "
		if name == current {
			marker = "* "
		}
		w.WriteLn(marker + name)
	}
	return nil
}

func (s *Session) cmdSheet(w *output.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: sheet <name>")
	}
	s.mu.Lock()
	wb := s.workbook
	s.mu.Unlock()
	if wb == nil {
		return fmt.Errorf("no workbook loaded — use 'load <file>' first")
	}

	name := strings.Join(args, " ")
	t, err := table.FromWorkbook(wb, name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sheet, s.table = name, t
	s.mu.Unlock()
	return w.WriteLn(fmt.Sprintf("Switched to sheet %q (%d rows)", t.Name, t.Len()))
}

func (s *Session) cmdHead(w *output.Writer, args []string) error {
	n := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid row count %q — expected a positive number", args[0])
		}
		n = v
	}
	return s.withTable(func(t *table.Table) error { return w.WriteRows(t.Head(n)) })
}

func (s *Session) cmdHistory(w *output.Writer) {
	for i, line := range s.CommandHistory[:len(s.CommandHistory)-1] {
		w.WriteLn(fmt.Sprintf("  %d  %s", i+1, line))
	}
}

func (s *Session) ask(ctx context.Context, w *output.Writer, question string) error {
	t := s.Table()
	if t == nil {
		return fmt.Errorf("no workbook loaded — use 'load <file>' first")
	}

	start := time.Now()
	res, err := s.Engine.Ask(ctx, t, question)
	app.Record(s.History, question, res, err, start)
	if err != nil {
		return err
	}
	return w.WriteResult("shell", res)
}

// Complete returns completion candidates for the last word of input:
// shell commands for the first word, column names after that.
func (s *Session) Complete(input string) []string {
	parts := strings.Fields(input)
	prefix := ""
	if len(parts) > 0 && !strings.HasSuffix(input, " ") {
		prefix = strings.ToLower(parts[len(parts)-1])
		parts = parts[:len(parts)-1]
	}

	var candidates []string
	if len(parts) == 0 {
		candidates = append(candidates, shellCommands...)
	}
	if t := s.Table(); t != nil {
		candidates = append(candidates, t.Names()...)
	}

	var matches []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) && !seen[c] {
			seen[c] = true
			matches = append(matches, c)
		}
	}
	sort.Strings(matches)
	return matches
}

type completer struct {
	s *Session
}

// Do implements readline.AutoCompleter.
func (c completer) Do(line []rune, pos int) ([][]rune, int) {
	input := string(line[:pos])
	prefix := ""
	if i := strings.LastIndexAny(input, " \t"); i < len(input)-1 {
		prefix = input[i+1:]
	}

	var out [][]rune
	for _, m := range c.s.Complete(input) {
		out = append(out, []rune(m[len(prefix):]+" "))
	}
	return out, len([]rune(prefix))
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Ask any question about the loaded sheet, for example:")
	fmt.Fprintln(w, "  what is the average sales")
	fmt.Fprintln(w, "  show all from east")
	fmt.Fprintln(w, "  bar chart of sales by region")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Shell commands:")
	fmt.Fprintln(w, "  load <file> [sheet]  load a workbook (.xlsx, .xlsm, .csv)")
	fmt.Fprintln(w, "  sheets               list sheets in the workbook")
	fmt.Fprintln(w, "  sheet <name>         switch sheet")
	fmt.Fprintln(w, "  columns              show columns and types")
	fmt.Fprintln(w, "  head [n]             show the first n rows")
	fmt.Fprintln(w, "  history              show lines entered this session")
	fmt.Fprintln(w, "  exit                 leave the shell")
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
