// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var installHints = map[string]string{
	"bash":       "sheetchat completion bash > /etc/bash_completion.d/sheetchat",
	"zsh":        "sheetchat completion zsh > ~/.zsh/completions/_sheetchat",
	"fish":       "sheetchat completion fish > ~/.config/fish/completions/sheetchat.fish",
	"powershell": "sheetchat completion powershell >> $PROFILE",
}

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for sheetchat.

Install instructions:
  Bash:       sheetchat completion bash > /etc/bash_completion.d/sheetchat
              echo 'source <(sheetchat completion bash)' >> ~/.bashrc
  Zsh:        sheetchat completion zsh > ~/.zsh/completions/_sheetchat
  Fish:       sheetchat completion fish > ~/.config/fish/completions/sheetchat.fish
  PowerShell: sheetchat completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(rootCmd, cmd.OutOrStdout(), args[0])
		},
	}
}

func generate(rootCmd *cobra.Command, w io.Writer, shell string) error {
	hint, ok := installHints[shell]
	if !ok {
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", shell)
	}
	fmt.Fprintf(w, "# sheetchat %s completion\n# Install: %s\n\n", shell, hint)

	switch shell {
	case "bash":
		return rootCmd.GenBashCompletion(w)
	case "zsh":
		return rootCmd.GenZshCompletion(w)
	case "fish":
		return rootCmd.GenFishCompletion(w, true)
	default:
		return rootCmd.GenPowerShellCompletionWithDesc(w)
	}
}
