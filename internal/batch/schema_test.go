package batch

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuite(t *testing.T) {
	s, err := ParseSuite([]byte(suiteYAML))
	require.NoError(t, err)
	assert.Equal(t, "sales checks", s.Name)
	require.Len(t, s.Questions, 4)
	assert.Equal(t, "show all from east", s.Questions[1].Ask)
	assert.Equal(t, "filter", s.Questions[1].ExpectIntent)
}

func TestParseSuiteValidation(t *testing.T) {
	cases := map[string]string{
		"missing name":     "workbook: a.xlsx\nquestions: [{id: a, ask: b}]",
		"missing workbook": "name: n\nquestions: [{id: a, ask: b}]",
		"no questions":     "name: n\nworkbook: a.xlsx",
		"missing id":       "name: n\nworkbook: a.xlsx\nquestions: [{ask: b}]",
		"duplicate id":     "name: n\nworkbook: a.xlsx\nquestions: [{id: a, ask: b}, {id: a, ask: c}]",
		"empty ask":        "name: n\nworkbook: a.xlsx\nquestions: [{id: a, ask: '  '}]",
		"bad kind":         "name: n\nworkbook: a.xlsx\nquestions: [{id: a, ask: b, expect_kind: table}]",
		"bad on_failure":   "name: n\nworkbook: a.xlsx\nquestions: [{id: a, ask: b, on_failure: retry}]",
		"bad yaml":         "name: [",
	}
	for name, body := range cases {
		_, err := ParseSuite([]byte(body))
		assert.Error(t, err, name)
	}
}

func TestInterpolation(t *testing.T) {
	t.Setenv("SHEETCHAT_TEST_BOOK", "/data/q1.xlsx")
	s, err := ParseSuite([]byte("name: n\nworkbook: ${{ env.SHEETCHAT_TEST_BOOK }}\nquestions:\n  - id: a\n    ask: rows on ${{ date.today }} ${{ unknown }}\n"))
	require.NoError(t, err)

	assert.Equal(t, "/data/q1.xlsx", s.Workbook)
	assert.Equal(t, "rows on "+time.Now().Format("2006-01-02")+" ${{ unknown }}", s.Questions[0].Ask)
}

func TestWorkbookPath(t *testing.T) {
	s := &Suite{Workbook: "sales.xlsx", Dir: filepath.Join("suites", "q1")}
	assert.Equal(t, filepath.Join("suites", "q1", "sales.xlsx"), s.WorkbookPath())

	abs := filepath.Join(t.TempDir(), "sales.xlsx")
	s.Workbook = abs
	assert.Equal(t, abs, s.WorkbookPath())
}

func TestLoadSuiteNotFound(t *testing.T) {
	_, err := LoadSuite(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question file not found")
}
