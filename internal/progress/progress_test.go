package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewWithEnvDisable(t *testing.T) {
	t.Setenv("SHEETCHAT_NO_PROGRESS", "1")
	if New("test", 10).Enabled {
		t.Error("expected bar to be disabled with SHEETCHAT_NO_PROGRESS=1")
	}
	if NewSpinner("test").Enabled {
		t.Error("expected spinner to be disabled with SHEETCHAT_NO_PROGRESS=1")
	}
}

func TestNewWithJSONDisable(t *testing.T) {
	t.Setenv("SHEETCHAT_JSON", "true")
	if New("test", 10).Enabled {
		t.Error("expected bar to be disabled with SHEETCHAT_JSON=true")
	}
}

func TestBarStepCapsAtTotal(t *testing.T) {
	bar := &Bar{Total: 2, Width: 10}
	bar.Step("a", true)
	bar.Step("b", false)
	bar.Step("c", true)
	if bar.Current != 2 {
		t.Errorf("expected current capped at 2, got %d", bar.Current)
	}
	if bar.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", bar.Failures)
	}
}

func TestBarPct(t *testing.T) {
	cases := []struct {
		total, current int
		want           float64
	}{
		{10, 0, 0},
		{10, 5, 50},
		{10, 10, 100},
		{0, 0, 0},
	}
	for _, c := range cases {
		bar := &Bar{Total: c.total, Current: c.current}
		if got := bar.Pct(); got != c.want {
			t.Errorf("Pct(%d/%d) = %.1f, want %.1f", c.current, c.total, got, c.want)
		}
	}
}

func TestBarRender(t *testing.T) {
	var buf bytes.Buffer
	bar := &Bar{Total: 4, Width: 8, Label: "batch", Enabled: true, Out: &buf}
	bar.Step("q1", true)
	bar.Step("q2", true)

	if !strings.Contains(buf.String(), "batch [####....] 2/4  q2") {
		t.Errorf("unexpected render: %q", buf.String())
	}

	bar.Finish("4 questions")
	if !strings.HasSuffix(buf.String(), "✓ 4 questions\n") {
		t.Errorf("unexpected finish: %q", buf.String())
	}
}

func TestBarFinishMarksFailures(t *testing.T) {
	var buf bytes.Buffer
	bar := &Bar{Total: 1, Width: 4, Enabled: true, Out: &buf}
	bar.Step("q1", false)
	bar.Finish("1 failed")
	if !strings.Contains(buf.String(), "✗ 1 failed") {
		t.Errorf("unexpected finish: %q", buf.String())
	}
}

func TestDisabledBarDoesNotWrite(t *testing.T) {
	var buf bytes.Buffer
	bar := &Bar{Total: 10, Width: 40, Out: &buf}
	bar.Step("test", true)
	bar.Finish("done")
	if buf.Len() > 0 {
		t.Errorf("disabled bar wrote %q", buf.String())
	}
}

func TestSpinnerStartStopDisabled(t *testing.T) {
	var buf bytes.Buffer
	s := &Spinner{Label: "test", Out: &buf}
	s.Start()
	s.Stop("done")
	if buf.Len() > 0 {
		t.Errorf("disabled spinner wrote %q", buf.String())
	}
}

func TestSpinnerStartStop(t *testing.T) {
	out := &syncBuffer{}
	s := &Spinner{Label: "loading", Enabled: true, Out: out}
	s.Start()
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop("loaded")
	s.Stop("again")

	got := out.String()
	if !strings.Contains(got, "loading") {
		t.Errorf("expected a frame, got %q", got)
	}
	if !strings.HasSuffix(got, "✓ loaded\n") || strings.Contains(got, "again") {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestSpinnerUpdate(t *testing.T) {
	s := &Spinner{Label: "initial"}
	s.Update("updated")
	if s.Label != "updated" {
		t.Errorf("expected label 'updated', got %q", s.Label)
	}
}
