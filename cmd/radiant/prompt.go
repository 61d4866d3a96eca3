package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/NicolasHaas/radiant/pkg/model"
)

// isInteractive reports whether stdin is a terminal rather than a pipe.
func isInteractive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// promptRegistration asks for every empty field of reg. Validation stays
// with the engine so a prompt and a flag fail the same way.
func promptRegistration(reg *model.Registration) error {
	var fields []huh.Field
	if reg.Username == "" {
		fields = append(fields, huh.NewInput().Title("Username").Value(&reg.Username))
	}
	if reg.Password == "" {
		fields = append(fields, passwordInput("Password", &reg.Password))
	}
	if reg.ConfirmPassword == "" {
		fields = append(fields, passwordInput("Confirm Password", &reg.ConfirmPassword))
	}
	if reg.School == "" {
		fields = append(fields, choiceSelect("School", model.Schools, &reg.School))
	}
	if reg.Interest == "" {
		fields = append(fields, choiceSelect("Interest", model.Interests, &reg.Interest))
	}
	return runForm(fields)
}

// promptCredentials asks for the password, and the username when unknown.
// A remembered username is offered for editing.
func promptCredentials(creds *model.Credentials) error {
	var fields []huh.Field
	if creds.Username == "" || creds.Password == "" {
		fields = append(fields, huh.NewInput().Title("Username").Value(&creds.Username))
	}
	if creds.Password == "" {
		fields = append(fields, passwordInput("Password", &creds.Password))
	}
	return runForm(fields)
}

func passwordInput(title string, v *string) *huh.Input {
	return huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(v)
}

func choiceSelect(title string, choices []model.Choice, v *string) *huh.Select[string] {
	opts := make([]huh.Option[string], len(choices))
	for i, c := range choices {
		opts[i] = huh.NewOption(c.Label, c.Value)
	}
	return huh.NewSelect[string]().Title(title).Options(opts...).Value(v)
}

func runForm(fields []huh.Field) error {
	if len(fields) == 0 {
		return nil
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}
