package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents the interaction mode for reviewseed.
type Mode int

const (
	// ModeNonInteractive is used for CI/CD pipelines, scripts, and redirected output.
	ModeNonInteractive Mode = iota
	// ModeInteractive is used when a human is at the terminal.
	ModeInteractive
)

// DetectMode determines whether reviewseed should render a live progress bar.
//
// Returns ModeNonInteractive if:
//   - stdin or stderr is not a terminal (piped, redirected, CI/CD)
//   - REVIEWSEED_NON_INTERACTIVE=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set
//
// Returns ModeInteractive otherwise.
func DetectMode() Mode {
	if os.Getenv("REVIEWSEED_NON_INTERACTIVE") == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" {
		return ModeNonInteractive
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ModeNonInteractive
	}

	// The progress bar is drawn on stderr so stdout stays pipeable.
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return ModeNonInteractive
	}

	return ModeInteractive
}

// IsInteractive is a convenience function that returns true if running in interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}

// StdoutStyled reports whether results written to stdout may carry styling.
func StdoutStyled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
