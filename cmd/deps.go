// unikit deps [descriptor]
package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
	"github.com/unikit-build/unikit/internal/builder"
	"github.com/unikit-build/unikit/internal/msg"
)

func doDeps(cmd *cobra.Command, args []string) {
	cfg := loadDescriptor(args[0])

	if err := builder.FetchDeps(cfg.Depends, cfg.Dir, runtime.NumCPU()); err != nil {
		msg.Fatal("%v", err)
	}
}

var depsCmd = &cobra.Command{
	Use:   "deps <descriptor>",
	Short: "Fetch git-addressed dependencies next to the descriptor",
	Long: `Fetch the descriptor's git-addressed dependencies (git: URLs or
gh:/gl:/bb:/sr:/cb: shortcuts) into _deps/. Plain library names are left
to the external package manager.`,
	Args: cobra.ExactArgs(1),
	Run:  doDeps,
}

func init() {
	// unikit deps subcommand
	rootCmd.AddCommand(depsCmd)
}
