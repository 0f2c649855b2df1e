package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klytics/sheetchat/cmd/version"
	"github.com/klytics/sheetchat/internal/chart"
	"github.com/klytics/sheetchat/internal/query"
)

// Exit codes for consistent error reporting.
const (
	ExitOK          = 0 // success
	ExitUserError   = 1 // bad flags, missing file, unreadable sheet
	ExitSystemError = 2 // IO error, chart rendering failure
)

// JSONResult is the standard JSON output envelope for all commands.
type JSONResult struct {
	OK      bool   `json:"ok"`
	Command string `json:"command"`
	Version string `json:"version"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// AnswerData is the JSON shape of an answer. Rows are keyed by the sheet's
// original headers.
type AnswerData struct {
	Intent  string           `json:"intent"`
	Kind    query.Kind       `json:"kind"`
	Text    string           `json:"text,omitempty"`
	Columns []string         `json:"columns,omitempty"`
	Rows    []map[string]any `json:"rows,omitempty"`
	Chart   *chart.Artifact  `json:"chart,omitempty"`
}

// ResultData converts an answer into its JSON shape.
func ResultData(res query.Result) AnswerData {
	d := AnswerData{
		Intent: res.Intent,
		Kind:   res.Kind,
		Text:   res.Text,
		Chart:  res.Chart,
	}
	if res.Rows != nil {
		d.Columns = res.Rows.Headers(true)
		d.Rows = res.Rows.OriginalRecords()
	}
	return d
}

// WriteJSONResult writes a success envelope to w.
func WriteJSONResult(w io.Writer, cmd string, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(JSONResult{
		OK:      true,
		Command: cmd,
		Version: version.Version,
		Data:    data,
	})
}

// PrintJSON writes a standard success JSON result to stdout.
func PrintJSON(cmd string, data any) error {
	return WriteJSONResult(os.Stdout, cmd, data)
}

// WriteJSONError writes an error envelope to w.
func WriteJSONError(w io.Writer, cmd string, err error, code int) error {
	result := JSONResult{
		OK:      false,
		Command: cmd,
		Version: version.Version,
		Error:   err.Error(),
		Code:    code,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(result); encErr != nil {
		return fmt.Errorf("could not encode JSON error: %w", encErr)
	}
	return nil
}

// PrintJSONError writes a standard error JSON result to stdout.
func PrintJSONError(cmd string, err error, code int) error {
	return WriteJSONError(os.Stdout, cmd, err, code)
}
