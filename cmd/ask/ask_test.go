package ask

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("stdout closed")
}

func TestWriteJSONFailureEnvelope(t *testing.T) {
	var out, errOut bytes.Buffer
	writeJSONFailure(&out, &errOut, errors.New("file not found"), 1)

	var env struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	if env.OK || env.Error != "file not found" || env.Code != 1 {
		t.Errorf("envelope = %+v", env)
	}
	if errOut.Len() != 0 {
		t.Errorf("unexpected stderr output %q", errOut.String())
	}
}

func TestWriteJSONFailureReportsWriteError(t *testing.T) {
	var errOut bytes.Buffer
	writeJSONFailure(brokenWriter{}, &errOut, errors.New("file not found"), 1)

	got := errOut.String()
	if !strings.HasPrefix(got, "Error: could not encode JSON error") {
		t.Errorf("stderr = %q", got)
	}
	if !strings.Contains(got, "stdout closed") || !strings.Contains(got, "file not found") {
		t.Errorf("stderr should name both errors: %q", got)
	}
}
