package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for trailnet.

To load completions in your current shell:

  Bash:       source <(trailnet completion bash)
  Zsh:        trailnet completion zsh > "${fpath[1]}/_trailnet"
  Fish:       trailnet completion fish | source
  PowerShell: trailnet completion powershell | Out-String | Invoke-Expression

To load them for every session, write the script to your shell's
completion directory, e.g.:

  trailnet completion bash > /etc/bash_completion.d/trailnet
  trailnet completion fish > ~/.config/fish/completions/trailnet.fish
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
