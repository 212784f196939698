// Package builder drives the external build of a synthesized unikernel
// package: filesystem embedding, configure/build, symlink refresh, and
// optional kernel image conversion.
package builder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/unikit-build/unikit/internal/descriptor"
	"github.com/unikit-build/unikit/internal/msg"
	"github.com/unikit-build/unikit/internal/pipeline"
	"github.com/unikit-build/unikit/internal/synth"
)

type Builder struct {
	cfg   *descriptor.Config
	tools *Config
	xen   bool // package for the paravirtualized target
}

func New(cfg *descriptor.Config, tools *Config, xen bool) *Builder {
	return &Builder{cfg: cfg, tools: tools, xen: xen}
}

// crunchModule returns the generated module filename for one embedded
// filesystem.
func crunchModule(name string) string {
	return "filesystem_" + name + ".ml"
}

// Plan assembles the external command sequence: one embedding invocation
// per filesystem entry, then configure and build in the descriptor's
// directory (only set explicitly when it differs from cwd).
func (b *Builder) Plan(cwd string) []pipeline.Step {
	dir := b.cfg.Dir
	if dir == cwd {
		dir = ""
	}

	var steps []pipeline.Step
	for _, fs := range b.cfg.Filesystems {
		steps = append(steps, pipeline.Step{
			Command: b.tools.Tools.Crunch,
			Args:    []string{"-name", fs.Name, "-o", crunchModule(fs.Name), fs.SourcePath},
			Dir:     dir,
		})
	}

	configureArgs := []string{"configure"}
	if b.xen {
		configureArgs = append(configureArgs, "--executable-as-obj")
	}
	steps = append(steps,
		pipeline.Step{Command: b.tools.Tools.Obuild, Args: configureArgs, Dir: dir},
		pipeline.Step{Command: b.tools.Tools.Obuild, Args: []string{"build"}, Dir: dir},
	)

	return steps
}

// Build runs the planned pipeline, refreshes the output symlink, and, when
// Xen packaging was requested, converts the compiled object into a
// bootable image. A missing object skips conversion with a warning.
func (b *Builder) Build() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	if err := pipeline.Run(b.Plan(cwd)); err != nil {
		return err
	}

	if err := b.refreshSymlink(); err != nil {
		return err
	}

	if b.xen {
		return b.convertImage()
	}
	return nil
}

// refreshSymlink points a stable alias at the freshly built executable,
// replacing any previous one. The link is created under a throwaway name
// and renamed over the alias so a half-written link never shows.
func (b *Builder) refreshSymlink() error {
	exe := synth.ExecutableName(b.cfg.Name)
	link := filepath.Join(b.cfg.Dir, exe)
	built := filepath.Join("dist", "build", exe, exe)

	tmp := filepath.Join(b.cfg.Dir, "."+exe+"."+uuid.NewString())
	if err := os.Symlink(built, tmp); err != nil {
		return fmt.Errorf("cannot link %s: %w", link, err)
	}
	if err := os.Rename(tmp, link); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cannot link %s: %w", link, err)
	}
	return nil
}

// convertImage locates the compiled object under dist/build and invokes
// the image conversion tool on it. This is best effort: no object, no
// image, not an error.
func (b *Builder) convertImage() error {
	exe := synth.ExecutableName(b.cfg.Name)
	matches, err := doublestar.Glob(os.DirFS(b.cfg.Dir), "dist/build/**/"+exe+".o")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		msg.Warn("no compiled object for %s under dist/build, skipping image conversion", exe)
		return nil
	}

	return pipeline.Run([]pipeline.Step{{
		Command: b.tools.Tools.Image,
		Args:    []string{"-b", "xen", "-o", b.cfg.Name + ".xen", matches[0]},
		Dir:     b.cfg.Dir,
	}})
}
