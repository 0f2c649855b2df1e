// Package batch runs a YAML file of questions against one workbook and
// checks each answer against an expected kind or intent.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Suite is a question file.
type Suite struct {
	Name      string     `yaml:"name" json:"name"`
	Workbook  string     `yaml:"workbook" json:"workbook"`
	Sheet     string     `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	Questions []Question `yaml:"questions" json:"questions"`

	// Dir is the directory of the suite file; a relative Workbook is
	// resolved against it.
	Dir string `yaml:"-" json:"-"`
}

// Question is one entry of a suite.
type Question struct {
	ID           string `yaml:"id" json:"id"`
	Ask          string `yaml:"ask" json:"ask"`
	ExpectKind   string `yaml:"expect_kind,omitempty" json:"expectKind,omitempty"`
	ExpectIntent string `yaml:"expect_intent,omitempty" json:"expectIntent,omitempty"`
	ExpectText   string `yaml:"expect_text,omitempty" json:"expectText,omitempty"`
	OnFailure    string `yaml:"on_failure,omitempty" json:"onFailure,omitempty"`
}

var validKinds = map[string]bool{"text": true, "rows": true, "chart": true}

// LoadSuite reads and parses a suite YAML file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("question file not found: %s — check that the path is correct", path)
		}
		return nil, fmt.Errorf("could not read question file %s: %w", path, err)
	}

	s, err := ParseSuite(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Dir = filepath.Dir(path)
	return s, nil
}

// ParseSuite parses a suite from YAML bytes. ${{ env.NAME }} and
// ${{ date.today }} are expanded in the workbook path and questions.
func ParseSuite(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid question file YAML: %w", err)
	}

	s.Workbook = interpolate(s.Workbook)
	for i := range s.Questions {
		s.Questions[i].Ask = interpolate(s.Questions[i].Ask)
	}

	if err := validateSuite(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// WorkbookPath returns the workbook path, resolved against the suite's directory.
func (s *Suite) WorkbookPath() string {
	if s.Workbook == "" || filepath.IsAbs(s.Workbook) || s.Dir == "" {
		return s.Workbook
	}
	return filepath.Join(s.Dir, s.Workbook)
}

func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("question file is missing a 'name' field")
	}
	if s.Workbook == "" {
		return fmt.Errorf("question file %q is missing a 'workbook' field", s.Name)
	}
	if len(s.Questions) == 0 {
		return fmt.Errorf("question file %q has no questions defined", s.Name)
	}

	seen := make(map[string]bool)
	for i, q := range s.Questions {
		if q.ID == "" {
			return fmt.Errorf("question %d is missing an 'id' field", i+1)
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question ID %q — each question must have a unique ID", q.ID)
		}
		seen[q.ID] = true

		if strings.TrimSpace(q.Ask) == "" {
			return fmt.Errorf("question %q is missing an 'ask' field", q.ID)
		}
		if q.ExpectKind != "" && !validKinds[q.ExpectKind] {
			return fmt.Errorf("question %q has expect_kind %q — expected text, rows or chart", q.ID, q.ExpectKind)
		}
		if q.OnFailure != "" && q.OnFailure != "skip" && q.OnFailure != "stop" {
			return fmt.Errorf("question %q has on_failure %q — expected skip or stop", q.ID, q.OnFailure)
		}
	}
	return nil
}

var interpolationPattern = regexp.MustCompile(`\$\{\{\s*([^}]+?)\s*\}\}`)

func interpolate(s string) string {
	return interpolationPattern.ReplaceAllStringFunc(s, func(match string) string {
		expr := interpolationPattern.FindStringSubmatch(match)[1]
		switch {
		case expr == "date.today":
			return time.Now().Format("2006-01-02")
		case strings.HasPrefix(expr, "env."):
			return os.Getenv(strings.TrimPrefix(expr, "env."))
		}
		return match
	})
}
