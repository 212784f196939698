// unikit target [module path]
package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/unikit-build/unikit/internal/builder"
	"github.com/unikit-build/unikit/internal/msg"
	"github.com/unikit-build/unikit/internal/target"
)

var (
	flagTargetOS EnumValue = NewEnumValue("unix", map[string]string{
		"unix":    "Conventional process target (default)",
		"xen":     "Paravirtualized kernel target",
		"browser": "In-browser script target",
	})
	flagTargetMode EnumValue = NewEnumValue("installed", map[string]string{
		"tree":      "Link against the runtime in the source tree",
		"installed": "Link against the installed runtime (default)",
	})
	flagTargetNet EnumValue = NewEnumValue("dhcp", map[string]string{
		"dhcp":   "DHCP network runtime (default)",
		"static": "Static network runtime",
	})
	flagTargetAction EnumValue = NewEnumValue("build", map[string]string{
		"build": "Build the module (default)",
		"clean": "Remove generated artifacts",
	})
	flagCompile string
	flagObjcopy string
	flagMake    string
	flagJS      string
	flagRuntime string
	flagCflags  []string
)

func doTarget(cmd *cobra.Command, args []string) {
	path := args[0]

	cfg, err := builder.LoadConfig(filepath.Dir(path))
	if err != nil {
		msg.Fatal("%v", err)
	}

	// explicit flags win over unikit.toml
	if flagCompile != "" {
		cfg.Tools.Compile = flagCompile
	}
	if flagObjcopy != "" {
		cfg.Tools.Objcopy = flagObjcopy
	}
	if flagMake != "" {
		cfg.Tools.Make = flagMake
	}
	if flagJS != "" {
		cfg.Tools.JS = flagJS
	}
	if flagRuntime != "" {
		cfg.Runtime = flagRuntime
	}

	t := target.BuildTarget{
		Platform:   target.Platform(flagTargetOS.Value()),
		Mode:       target.Mode(flagTargetMode.Value()),
		Net:        target.Net(flagTargetNet.Value()),
		Action:     target.Action(flagTargetAction.Value()),
		ModulePath: path,
		Tools:      cfg.Tools,
		Runtime:    cfg.Runtime,
		Cflags:     append(cfg.Cflags, flagCflags...),
	}

	if err := t.Run(); err != nil {
		exitPipeline(err)
	}
}

var targetCmd = &cobra.Command{
	Use:   "target <module path>",
	Short: "Build or clean a module for a specific target platform",
	Long: `Build or clean a module for a specific target platform, without a
descriptor. The platform selects the external command sequence: native
object + process runtime link for unix, section relocation + kernel
runtime link + image extraction for xen, script + HTML harness for
browser.`,
	Args: cobra.ExactArgs(1),
	Run:  doTarget,
}

func init() {
	rootCmd.AddCommand(targetCmd)

	targetCmd.Flags().Var(&flagTargetOS, "os", "Target platform, one of "+flagTargetOS.HelpString())
	targetCmd.Flags().Var(&flagTargetMode, "mode", "Runtime location, one of "+flagTargetMode.HelpString())
	targetCmd.Flags().Var(&flagTargetNet, "net", "Network runtime flavor, one of "+flagTargetNet.HelpString())
	targetCmd.Flags().Var(&flagTargetAction, "action", "Action to perform, one of "+flagTargetAction.HelpString())
	targetCmd.RegisterFlagCompletionFunc("os", flagTargetOS.CompletionFunc())
	targetCmd.RegisterFlagCompletionFunc("mode", flagTargetMode.CompletionFunc())
	targetCmd.RegisterFlagCompletionFunc("net", flagTargetNet.CompletionFunc())
	targetCmd.RegisterFlagCompletionFunc("action", flagTargetAction.CompletionFunc())

	targetCmd.Flags().StringVar(&flagCompile, "compile-tool", "", "Override the compiler driver binary")
	targetCmd.Flags().StringVar(&flagObjcopy, "objcopy-tool", "", "Override the objcopy binary")
	targetCmd.Flags().StringVar(&flagMake, "make-tool", "", "Override the make binary")
	targetCmd.Flags().StringVar(&flagJS, "js-tool", "", "Override the script linker binary")
	targetCmd.Flags().StringVar(&flagRuntime, "runtime", "", "Override the runtime install prefix")
	targetCmd.Flags().StringSliceVar(&flagCflags, "cflag", nil, "Extra compiler flags (repeatable)")
}
