package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NicolasHaas/radiant/pkg/client"
	"github.com/NicolasHaas/radiant/pkg/model"
	"github.com/NicolasHaas/radiant/pkg/version"
)

func newLandingCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "landing",
		Short: "Show the landing screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEngine(cmd.Context(), func(e *client.Engine) error {
				l := e.Landing()
				fmt.Fprintln(c.stdout, l.Title)
				fmt.Fprintln(c.stdout, l.Tagline)
				fmt.Fprintln(c.stdout, l.Motto)
				fmt.Fprintln(c.stdout)
				if u := e.CurrentUser(); u != nil {
					fmt.Fprintf(c.stdout, "Signed in as %s\n", u.Username)
					return nil
				}
				fmt.Fprintln(c.stdout, strings.Join(l.Actions, " | "))
				return nil
			})
		},
	}
}

func newRegisterCmd(c *cli) *cobra.Command {
	var reg model.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create a Radiant account. Missing fields are asked for when running in a terminal.

Schools: ` + strings.Join(model.ChoiceValues(model.Schools), ", ") + `
Interests: ` + strings.Join(model.ChoiceValues(model.Interests), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.interactive() {
				if err := promptRegistration(&reg); err != nil {
					return err
				}
			}
			return c.withEngine(cmd.Context(), func(e *client.Engine) error {
				if _, err := e.Register(cmd.Context(), reg); err != nil {
					return &displayError{err: err}
				}
				fmt.Fprintln(c.stdout, client.RegisterSuccessMessage)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&reg.Username, "username", "", "username (at least 6 characters)")
	f.StringVar(&reg.Password, "password", "", "password (at least 6 characters)")
	f.StringVar(&reg.ConfirmPassword, "confirm-password", "", "repeat the password")
	f.StringVar(&reg.School, "school", "", "school")
	f.StringVar(&reg.Interest, "interest", "", "interest")
	return cmd
}

func newLoginCmd(c *cli) *cobra.Command {
	var creds model.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEngine(cmd.Context(), func(e *client.Engine) error {
				if c.interactive() {
					if creds.Username == "" {
						creds.Username, _ = e.LastUsername(cmd.Context())
					}
					if err := promptCredentials(&creds); err != nil {
						return err
					}
				}
				u, err := e.Login(cmd.Context(), creds)
				if err != nil {
					return &displayError{err: err}
				}
				fmt.Fprintf(c.stdout, "Welcome, %s!\n", u.Username)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&creds.Username, "username", "", "username")
	f.StringVar(&creds.Password, "password", "", "password")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEngine(cmd.Context(), func(e *client.Engine) error {
				// always dispatched so an unreadable stored session is cleared too
				wasSignedIn := e.CurrentUser() != nil
				e.Logout()
				if !wasSignedIn {
					fmt.Fprintln(c.stdout, "Not signed in.")
					return nil
				}
				fmt.Fprintln(c.stdout, "Signed out.")
				return nil
			})
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEngine(cmd.Context(), func(e *client.Engine) error {
				u := e.CurrentUser()
				if u == nil {
					fmt.Fprintln(c.stdout, "Not signed in.")
					return nil
				}
				fmt.Fprintln(c.stdout, u.Username)
				if u.School != "" {
					fmt.Fprintf(c.stdout, "  school:   %s\n", u.School)
				}
				if u.Interest != "" {
					fmt.Fprintf(c.stdout, "  interest: %s\n", u.Interest)
				}
				return nil
			})
		},
	}
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// no config or logging needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(c.stdout, "radiant "+version.Full())
		},
	}
}
