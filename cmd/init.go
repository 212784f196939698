// unikit init [name]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/unikit-build/unikit/internal/msg"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

// initIn writes a starter descriptor and content directory for a new
// unikernel package.
func initIn(dir, name string) {
	mkdir(dir, "files")

	writefile(`fs-static: files
ip-use-dhcp: true
main-ip: Start
depends:
`, dir, name+".conf")

	writefile(`Put the files to embed into the unikernel here.
`, dir, "files", "README")

	fmt.Printf("You can now do %s to synthesize and build it.\n",
		color.HiCyanString("unikit "+filepath.ToSlash(filepath.Join(dir, name+".conf"))))
}

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a starter descriptor in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(".", args[0])
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create a starter descriptor in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]))
	},
}

func init() {
	// unikit init subcommand
	rootCmd.AddCommand(initCmd)

	// unikit new subcommand
	rootCmd.AddCommand(newCmd)
}
