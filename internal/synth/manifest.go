package synth

import (
	"fmt"
	"strings"

	"github.com/unikit-build/unikit/internal/descriptor"
)

// RuntimeDep is the unikernel runtime library every generated package
// depends on, listed ahead of the descriptor's own dependencies.
const RuntimeDep = "mirage"

// ExecutableName returns the build target name for a package, with the
// `mir-` prefix the build tooling expects.
func ExecutableName(name string) string {
	return "mir-" + name
}

// RenderManifest renders the build manifest consumed by the external build
// tool: package name, version, and the dependency list. Output is
// deterministic for a given config.
func RenderManifest(cfg *descriptor.Config) string {
	deps := append([]string{RuntimeDep}, cfg.Depends...)

	var sb strings.Builder
	fmt.Fprintf(&sb, "name: %s\n", cfg.Name)
	sb.WriteString("version: 0.0.0\n")
	sb.WriteString("obuild-ver: 1\n")
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "executable %s\n", ExecutableName(cfg.Name))
	fmt.Fprintf(&sb, "  main-is: %s\n", MainFile)
	fmt.Fprintf(&sb, "  buildDepends: %s\n", strings.Join(deps, ", "))
	sb.WriteString("  pp: camlp4o\n")

	return sb.String()
}
