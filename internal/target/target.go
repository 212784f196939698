// Package target is the flag-driven build driver: given a platform, mode,
// network flavor and action, it runs the platform-specific external
// command sequence against a module, with no descriptor involved.
package target

import (
	"path/filepath"
	"strings"

	"github.com/unikit-build/unikit/internal/builder"
	"github.com/unikit-build/unikit/internal/pipeline"
)

type Platform string

const (
	PlatformUnix    Platform = "unix"
	PlatformXen     Platform = "xen"
	PlatformBrowser Platform = "browser"
)

type Mode string

const (
	ModeTree      Mode = "tree"      // runtime from the source tree
	ModeInstalled Mode = "installed" // runtime from the install prefix
)

type Net string

const (
	NetStatic Net = "static"
	NetDHCP   Net = "dhcp"
)

type Action string

const (
	ActionBuild Action = "build"
	ActionClean Action = "clean"
)

// BuildTarget is the immutable configuration of one driver run.
type BuildTarget struct {
	Platform   Platform
	Mode       Mode
	Net        Net
	Action     Action
	ModulePath string
	Tools      builder.Tools
	Runtime    string   // install prefix, used when Mode is installed
	Cflags     []string // extra compiler flags
}

// dir and base split the module path into the directory commands run in
// and the artifact base name.
func (t BuildTarget) dir() string {
	return filepath.Dir(t.ModulePath)
}

func (t BuildTarget) base() string {
	b := filepath.Base(t.ModulePath)
	return strings.TrimSuffix(b, filepath.Ext(b))
}

func (t BuildTarget) runtimeDir(platform string) string {
	if t.Mode == ModeTree {
		return filepath.Join("runtime", platform)
	}
	return filepath.Join(t.Runtime, platform)
}

// Plan assembles the command sequence for the run: a single fixed cleanup
// command for clean, or the platform-specific build sequence.
func (t BuildTarget) Plan() []pipeline.Step {
	if t.Action == ActionClean {
		return t.planClean()
	}

	switch t.Platform {
	case PlatformXen:
		return t.planXen()
	case PlatformBrowser:
		return t.planBrowser()
	default:
		return t.planUnix()
	}
}

// Run executes the plan, stopping at the first failing command.
func (t BuildTarget) Run() error {
	return pipeline.Run(t.Plan())
}

// planClean removes the known generated artifacts, whatever the platform.
func (t BuildTarget) planClean() []pipeline.Step {
	base := t.base()
	return []pipeline.Step{{
		Command: "rm",
		Args: []string{"-f",
			base + ".nobj.o", base + ".byte", base + ".bin",
			base + ".xen", base + ".xen.gz", base + ".js",
		},
		Dir: t.dir(),
	}}
}

// compileStep compiles the module to the given artifact name.
func (t BuildTarget) compileStep(artifact string) pipeline.Step {
	args := append([]string{}, t.Cflags...)
	args = append(args, artifact)
	return pipeline.Step{Command: t.Tools.Compile, Args: args, Dir: t.dir()}
}

// linkStep links the compiled object against a runtime flavor via its
// makefile, with the object path injected as a build variable.
func (t BuildTarget) linkStep(platform, obj string) pipeline.Step {
	return pipeline.Step{
		Command: t.Tools.Make,
		Args: []string{
			"-C", t.runtimeDir(platform), "build",
			"OBJ=" + obj, "NET=" + string(t.Net),
		},
		Dir: t.dir(),
	}
}

// planUnix compiles a native object, links it against the process-mode
// runtime and moves the binary to the output path.
func (t BuildTarget) planUnix() []pipeline.Step {
	base := t.base()
	obj := filepath.Join("_build", base+".nobj.o")

	return []pipeline.Step{
		t.compileStep(base + ".nobj.o"),
		t.linkStep("unix", obj),
		{
			Command: "mv",
			Args:    []string{filepath.Join(t.runtimeDir("unix"), "mir-main"), base + ".bin"},
			Dir:     t.dir(),
		},
	}
}

// planXen compiles a native object, renames its sections for the kernel
// memory layout, links it against the kernel runtime, then copies the
// compressed image out and keeps an uncompressed copy for debugging.
func (t BuildTarget) planXen() []pipeline.Step {
	base := t.base()
	obj := filepath.Join("_build", base+".nobj.o")

	return []pipeline.Step{
		t.compileStep(base + ".nobj.o"),
		{
			Command: t.Tools.Objcopy,
			Args: []string{
				"--rename-section", ".data=.mirdata",
				"--rename-section", ".rodata=.mirrodata",
				"--rename-section", ".text=.mirtext",
				obj,
			},
			Dir: t.dir(),
		},
		t.linkStep("xen", obj),
		{
			Command: "cp",
			Args:    []string{filepath.Join(t.runtimeDir("xen"), "mir-main.xen.gz"), base + ".xen.gz"},
			Dir:     t.dir(),
		},
		{
			Command: "gzip",
			Args:    []string{"-d", "-k", "-f", base + ".xen.gz"},
			Dir:     t.dir(),
		},
	}
}

// planBrowser compiles a portable byte target, links it into a script with
// the fixed support libraries, then moves the script and copies the HTML
// harness into the output directory.
func (t BuildTarget) planBrowser() []pipeline.Step {
	base := t.base()
	runtime := t.runtimeDir("browser")

	return []pipeline.Step{
		t.compileStep(base + ".byte"),
		{
			Command: t.Tools.JS,
			Args: []string{
				"-o", filepath.Join("_build", base+".js"),
				filepath.Join(runtime, "mir-support.js"),
				filepath.Join(runtime, "mir-console.js"),
				filepath.Join("_build", base+".byte"),
			},
			Dir: t.dir(),
		},
		{
			Command: "mv",
			Args:    []string{filepath.Join("_build", base+".js"), base + ".js"},
			Dir:     t.dir(),
		},
		{
			Command: "cp",
			Args:    []string{filepath.Join(runtime, "index.html"), "index.html"},
			Dir:     t.dir(),
		},
	}
}
