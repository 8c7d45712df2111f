package commands

import (
	"context"

	"github.com/charmbracelet/huh/spinner"
)

// Spinner shows progress while action runs and returns its error
type Spinner interface {
	Run(ctx context.Context, title string, action func(ctx context.Context) error) error
}

// TerminalSpinner animates a spinner on the terminal
type TerminalSpinner struct{}

func (TerminalSpinner) Run(ctx context.Context, title string, action func(ctx context.Context) error) error {
	return spinner.New().
		Title(title).
		Context(ctx).
		ActionWithErr(action).
		Run()
}

// NoSpinner runs the action without any progress display
type NoSpinner struct{}

func (NoSpinner) Run(ctx context.Context, _ string, action func(ctx context.Context) error) error {
	return action(ctx)
}
