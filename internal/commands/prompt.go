package commands

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/gidevo/gidevo-api-tool/internal/scaffold"
)

// FormPrompter asks with huh forms. ProgramOptions, when set, run the form
// in a bubbletea program with those options.
type FormPrompter struct {
	ProgramOptions []tea.ProgramOption
}

func (p *FormPrompter) InitOptions(defaults scaffold.Options) (scaffold.Options, error) {
	opts := defaults
	if err := p.run(createInitForm(&opts)); err != nil {
		return scaffold.Options{}, err
	}
	return opts, nil
}

func (p *FormPrompter) Token() (string, error) {
	var token string
	if err := p.run(createTokenForm(&token)); err != nil {
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (p *FormPrompter) run(form *huh.Form) error {
	if len(p.ProgramOptions) > 0 {
		_, err := tea.NewProgram(form, p.ProgramOptions...).Run()
		return err
	}
	return form.Run()
}

func createInitForm(opts *scaffold.Options) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Template").
				Description("Kind of spec to start from").
				Options(
					huh.NewOption("OpenAPI", "openapi"),
					huh.NewOption("GraphQL", "graphql"),
				).
				Value(&opts.Template),

			huh.NewInput().
				Title("Output directory").
				Description("Where to create the project").
				Value(&opts.Output).
				Validate(validateNewProjectDir),
		),
	)
}

func createTokenForm(token *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API token").
				EchoMode(huh.EchoModePassword).
				Value(token).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("token cannot be empty")
					}
					return nil
				}),
		),
	)
}
