package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"clearcart/internal/workflow"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	stepLabelWidth = 26
	stepIndent     = "  "
)

func renderStepLine(step workflow.Step, status workflow.StepStatus, colorize bool) string {
	base := fmt.Sprintf("%s%-*s [%s]", stepIndent, stepLabelWidth, step.Label()+":", stepStatusLabel(status))
	if colorize {
		if color := stepStatusColor(status); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func renderWorkflowState(out io.Writer, state workflow.State, colorize bool) {
	for _, step := range workflow.Steps() {
		fmt.Fprintln(out, renderStepLine(step, state.Status[step], colorize))
	}
	if state.Closed {
		fmt.Fprintln(out, stepIndent+"Workflow closed")
	}
}

func stepStatusLabel(status workflow.StepStatus) string {
	switch status {
	case workflow.StatusCurrent:
		return "CURRENT"
	case workflow.StatusSuccess:
		return "OK"
	case workflow.StatusFailure:
		return "FAILED"
	default:
		return "-"
	}
}

func stepStatusColor(status workflow.StepStatus) string {
	switch status {
	case workflow.StatusCurrent:
		return ansiBlue
	case workflow.StatusSuccess:
		return ansiGreen
	case workflow.StatusFailure:
		return ansiRed
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
