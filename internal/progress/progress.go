// Package progress draws a batch progress bar and a loading spinner.
// All output goes to stderr so answers on stdout stay pipeable.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Bar renders a question-by-question progress bar.
type Bar struct {
	Total    int
	Current  int
	Failures int
	Label    string
	Width    int
	Enabled  bool
	Out      io.Writer

	mu sync.Mutex
}

// New creates a progress bar on stderr. It is disabled when stderr is not a
// terminal, when SHEETCHAT_NO_PROGRESS=1, or when SHEETCHAT_JSON=true.
func New(label string, total int) *Bar {
	return &Bar{
		Total:   total,
		Label:   label,
		Width:   30,
		Enabled: shouldEnable(),
		Out:     os.Stderr,
	}
}

// Step records one finished item and redraws. ok=false counts a failure.
func (b *Bar) Step(status string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Current < b.Total {
		b.Current++
	}
	if !ok {
		b.Failures++
	}
	b.render(status)
}

// Finish replaces the bar with a summary line, marked as failed when any
// step failed.
func (b *Bar) Finish(summary string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.Enabled {
		return
	}
	mark := color.New(color.FgGreen).Sprint("✓")
	if b.Failures > 0 {
		mark = color.New(color.FgRed).Sprint("✗")
	}
	fmt.Fprintf(b.out(), "\r\033[K%s %s\n", mark, summary)
}

func (b *Bar) render(status string) {
	if !b.Enabled {
		return
	}

	filled := 0
	if b.Total > 0 {
		filled = b.Current * b.Width / b.Total
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", b.Width-filled)
	fmt.Fprintf(b.out(), "\r\033[K%s [%s] %d/%d  %s", b.Label, bar, b.Current, b.Total, status)
}

func (b *Bar) out() io.Writer {
	if b.Out == nil {
		return os.Stderr
	}
	return b.Out
}

// Pct returns the current percentage (0-100) of the bar.
func (b *Bar) Pct() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Total == 0 {
		return 0
	}
	return float64(b.Current) / float64(b.Total) * 100
}

// Spinner animates while a workbook loads.
type Spinner struct {
	Label   string
	Enabled bool
	Out     io.Writer

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSpinner creates a spinner on stderr.
func NewSpinner(label string) *Spinner {
	return &Spinner{Label: label, Enabled: shouldEnable(), Out: os.Stderr}
}

// Start begins the animation. It is a no-op when disabled or already running.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Enabled || s.done != nil {
		return
	}
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.spin(s.done)
}

func (s *Spinner) spin(done <-chan struct{}) {
	defer s.wg.Done()
	frames := []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			fmt.Fprintf(s.Out, "\r\033[K%c %s", frames[i%len(frames)], s.Label)
			s.mu.Unlock()
		}
	}
}

// Stop ends the animation and waits for it to exit. A non-empty result is
// printed in place of the spinner.
func (s *Spinner) Stop(result string) {
	s.mu.Lock()
	done := s.done
	s.done = nil
	s.mu.Unlock()

	if done == nil {
		return
	}
	close(done)
	s.wg.Wait()

	if result == "" {
		fmt.Fprint(s.Out, "\r\033[K")
		return
	}
	fmt.Fprintf(s.Out, "\r\033[K%s %s\n", color.New(color.FgGreen).Sprint("✓"), result)
}

// Update changes the spinner label while it's running.
func (s *Spinner) Update(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Label = label
}

func shouldEnable() bool {
	if os.Getenv("SHEETCHAT_NO_PROGRESS") == "1" {
		return false
	}
	if os.Getenv("SHEETCHAT_JSON") == "true" {
		return false
	}
	return isTTY()
}

func isTTY() bool {
	stat, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
