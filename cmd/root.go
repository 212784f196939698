// unikit [descriptor], unikit build [descriptor]
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/unikit-build/unikit/internal/builder"
	"github.com/unikit-build/unikit/internal/descriptor"
	"github.com/unikit-build/unikit/internal/msg"
	"github.com/unikit-build/unikit/internal/pipeline"
	"github.com/unikit-build/unikit/internal/synth"
)

// Version is set via ldflags at release time.
var Version = "dev"

var flagXen bool

func doBuild(cmd *cobra.Command, args []string) {
	cfg := loadDescriptor(args[0])

	if err := synth.Write(cfg); err != nil {
		msg.Fatal("%v", err)
	}

	tools, err := builder.LoadConfig(cfg.Dir)
	if err != nil {
		msg.Fatal("%v", err)
	}

	if err := builder.New(cfg, tools, flagXen).Build(); err != nil {
		exitPipeline(err)
	}
}

// loadDescriptor parses, templates and validates a descriptor file,
// exiting on any error.
func loadDescriptor(path string) *descriptor.Config {
	entries, err := descriptor.ParseFile(path)
	if err != nil {
		msg.Fatal("%v", err)
	}
	if err := descriptor.Expand(entries, descriptor.NewEnv()); err != nil {
		msg.Fatal("%v", err)
	}
	cfg, err := descriptor.BuildConfig(path, entries)
	if err != nil {
		msg.Fatal("%v", err)
	}
	return cfg
}

// exitPipeline exits with a failed command's own code, or 1 for anything
// that never reached an external command.
func exitPipeline(err error) {
	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		msg.FatalCode(stepErr.Code, "%v", err)
	}
	msg.Fatal("%v", err)
}

var rootCmd = &cobra.Command{
	Use:     "unikit <descriptor>",
	Short:   "Unikernel toolchain front end",
	Long:    `Synthesize a unikernel entry point from an application descriptor and build it.`,
	Version: Version,
	Args:    cobra.ExactArgs(1),
	Run:     doBuild,
}

var buildCmd = &cobra.Command{
	Use:   "build <descriptor>",
	Short: "Synthesize sources from the descriptor and build the package",
	Args:  cobra.ExactArgs(1),
	Run:   doBuild,
}

func init() {
	addBuildFlags(rootCmd)

	// unikit build subcommand
	rootCmd.AddCommand(buildCmd)
	addBuildFlags(buildCmd)
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagXen, "xen", false, "Package for the paravirtualized target")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
