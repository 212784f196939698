// unikit run [descriptor]
package cmd

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/unikit-build/unikit/internal/builder"
	"github.com/unikit-build/unikit/internal/msg"
	"github.com/unikit-build/unikit/internal/synth"
)

func doRun(cmd *cobra.Command, args []string) {
	path := args[0]
	args = args[1:] // other arguments will be passed to the unikernel

	cfg := loadDescriptor(path)

	if err := synth.Write(cfg); err != nil {
		msg.Fatal("%v", err)
	}
	tools, err := builder.LoadConfig(cfg.Dir)
	if err != nil {
		msg.Fatal("%v", err)
	}
	if err := builder.New(cfg, tools, false).Build(); err != nil {
		exitPipeline(err)
	}

	exe := filepath.Join(cfg.Dir, synth.ExecutableName(cfg.Name))
	run := exec.Command(exe, args...)
	run.Stdout = os.Stdout
	run.Stderr = os.Stderr
	run.Stdin = os.Stdin
	if err := run.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		msg.Fatal("%v", err)
	}
}

var runCmd = &cobra.Command{
	Use:   "run <descriptor> [args...]",
	Short: "Synthesize, build and run the unikernel as a process",
	Long:  `Synthesize, build and run the unikernel as a conventional process. Arguments after the descriptor are passed to the program.`,
	Args:  cobra.MinimumNArgs(1),
	Run:   doRun,
}

func init() {
	// unikit run subcommand
	rootCmd.AddCommand(runCmd)
}
