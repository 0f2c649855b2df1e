package output

import (
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

const defaultTermHeight = 40

// ShouldPage reports whether content is taller than the terminal. It is
// always false when stdout is not a terminal.
func ShouldPage(content string) bool {
	if !isTerminal() {
		return false
	}
	return strings.Count(content, "\n") > termHeight()
}

// Page pipes content through SHEETCHAT_PAGER, PAGER, or less.
func Page(content string) error {
	pager := os.Getenv("SHEETCHAT_PAGER")
	if pager == "" {
		pager = os.Getenv("PAGER")
	}
	if pager == "" {
		pager = "less"
	}

	cmd := exec.Command(pager)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// Emit writes content to w, paging it first when w is stdout and the
// content does not fit on screen.
func Emit(w io.Writer, content string) error {
	if w == os.Stdout && ShouldPage(content) {
		if err := Page(content); err == nil {
			return nil
		}
	}
	_, err := io.WriteString(w, content)
	return err
}

func termHeight() int {
	if n, err := strconv.Atoi(os.Getenv("LINES")); err == nil && n > 0 {
		return n
	}
	return defaultTermHeight
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
