package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the client configuration",
	}
	cmd.AddCommand(newConfigInitCmd(c), newConfigShowCmd(c))
	return cmd
}

func newConfigInitCmd(c *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Long: `Write the configuration currently in effect (file, RADIANT_* variables and
flags combined) to the config file, so later runs need no flags.

Examples:
  # Keep the session in a YAML file instead of SQLite
  radiant --storage yaml config init
`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			if !force {
				if _, err := os.Stat(c.cfgPath); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", c.cfgPath)
				} else if !errors.Is(err, os.ErrNotExist) {
					return err
				}
			}
			if err := c.cfg.Save(c.cfgPath); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(c.stdout, "Wrote %s\n", c.cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func newConfigShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			shown := *c.cfg
			if shown.Storage.Passphrase != "" {
				shown.Storage.Passphrase = "********"
			}
			data, err := yaml.Marshal(&shown)
			if err != nil {
				return err
			}
			_, err = c.stdout.Write(data)
			return err
		},
	}
}
