package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Wizard walks through the settings that change answers: where charts go,
// how they are named, and how questions are matched. If reader is nil it
// reads from os.Stdin; out defaults to os.Stdout.
func Wizard(reader io.Reader, out io.Writer) error {
	if reader == nil {
		reader = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	scanner := bufio.NewScanner(reader)
	applyDefaults()

	ask := func(prompt, key string, choices []string) {
		current := viper.GetString(key)
		if len(choices) > 0 {
			fmt.Fprintf(out, "  %s [%s] (default: %s): ", prompt, strings.Join(choices, "/"), current)
		} else {
			fmt.Fprintf(out, "  %s (default: %s): ", prompt, current)
		}
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			return
		}
		if len(choices) > 0 && !contains(choices, answer) {
			fmt.Fprintf(out, "  %q is not one of %s, keeping %s\n", answer, strings.Join(choices, ", "), current)
			return
		}
		viper.Set(key, answer)
	}

	fmt.Fprintln(out, "SheetChat Setup")
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Charts")
	ask("Directory for chart images", "charts.dir", nil)
	ask("File naming", "charts.naming", allowed["charts.naming"])
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Questions")
	ask("When an intent cannot answer", "query.policy", allowed["query.policy"])
	ask("Column matching", "query.matcher", allowed["query.matcher"])
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Output")
	ask("Default format", "output.format", allowed["output.format"])
	fmt.Fprintln(out)

	if err := SaveConfig(); err != nil {
		return fmt.Errorf("could not save config: %w", err)
	}

	fmt.Fprintf(out, "Config file: %s\n", ConfigPath())
	fmt.Fprintln(out, "Type 'sheetchat config show' to see all settings.")
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
