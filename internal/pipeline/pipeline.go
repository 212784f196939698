// Package pipeline models the external command sequences unikit drives as
// ordered lists of pure step descriptions, so callers can assemble and
// inspect a plan without spawning anything.
package pipeline

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/unikit-build/unikit/internal/msg"
)

// Step describes one external command invocation. Steps carry no state and
// perform no side effects until executed.
type Step struct {
	Command string
	Args    []string
	Dir     string // working directory; empty means inherit
}

// Line returns the command line for display.
func (s Step) Line() string {
	if len(s.Args) == 0 {
		return s.Command
	}
	return s.Command + " " + strings.Join(s.Args, " ")
}

// StepError reports a step that exited non-zero. The exit code is
// propagated verbatim to the process exit status by the cmd layer.
type StepError struct {
	Step Step
	Code int
}

func (e *StepError) Error() string {
	return fmt.Sprintf("command `%s` failed with exit code %d", e.Step.Line(), e.Code)
}

// Run executes steps in order, stopping at the first failure. Each step
// blocks until its command exits; a non-zero exit aborts the remainder and
// returns a *StepError. Tool output is indented under unikit's own messages.
func Run(steps []Step) error {
	for _, step := range steps {
		if err := runStep(step); err != nil {
			return err
		}
	}
	return nil
}

func runStep(step Step) error {
	msg.Info("run: %s", step.Line())

	cmd := exec.Command(step.Command, step.Args...)
	cmd.Dir = step.Dir
	cmd.Stdout = &msg.IndentWriter{Indent: "  ", W: os.Stdout}
	cmd.Stderr = &msg.IndentWriter{Indent: "  ", W: os.Stderr}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	code := 1
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	}
	return &StepError{Step: step, Code: code}
}
