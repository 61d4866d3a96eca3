package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/NicolasHaas/radiant/pkg/client"
	"github.com/NicolasHaas/radiant/pkg/kv"
	"github.com/NicolasHaas/radiant/pkg/logging"
	"github.com/NicolasHaas/radiant/pkg/version"
)

// closeTimeout bounds how long we wait for pending storage writes on exit.
const closeTimeout = 5 * time.Second

// cli holds the process environment the commands run against.
type cli struct {
	stdout      io.Writer
	stderr      io.Writer
	getenv      func(string) string
	interactive func() bool

	configPath string
	backendURL string
	storage    string
	logLevel   string
	logFormat  string

	cfg     *client.Config
	cfgPath string // resolved config file
}

// displayError carries a message meant for the user as-is.
type displayError struct {
	err error
}

func (e *displayError) Error() string { return client.DisplayMessage(e.err) }
func (e *displayError) Unwrap() error { return e.err }

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "radiant",
		Short: "Radiant, a SAJS social network client",
		Long: `Radiant keeps you signed in to the Radiant social network from the terminal.

Examples:
  # Create an account, then sign in
  radiant register --username annabel --school DPS --interest Writing
  radiant login --username annabel

  # Show who is signed in on this device
  radiant whoami
`,
		Version:           version.Full(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default radiant.yaml next to the binary)")
	pf.StringVar(&c.backendURL, "backend", "", "backend base URL")
	pf.StringVar(&c.storage, "storage", "", "storage driver: "+kv.Drivers())
	pf.StringVar(&c.logLevel, "log-level", "", "log level: "+logging.LevelNames())
	pf.StringVar(&c.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newLandingCmd(c),
		newRegisterCmd(c),
		newLoginCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newConfigCmd(c),
		newVersionCmd(c),
	)
	return root
}

// setup layers the config file, RADIANT_* variables and flags, in that
// order, and installs the logger.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	path := c.configPath
	if path == "" {
		path = client.ConfigPath()
	}
	cfg, err := client.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(c.getenv); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.BackendURL = c.backendURL
	}
	if flags.Changed("storage") {
		cfg.Storage.Driver = c.storage
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = c.logFormat
	}

	opts := cfg.LoggingOptions()
	opts.Output = c.stderr
	if err := logging.Setup(opts); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	c.cfg = cfg
	c.cfgPath = path
	return nil
}

// withEngine opens the engine, restores the session and runs fn. Pending
// storage writes are flushed before returning.
func (c *cli) withEngine(ctx context.Context, fn func(*client.Engine) error) (err error) {
	engine, err := client.Open(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if cerr := engine.Close(closeCtx); cerr != nil {
			slog.Error("close engine", "err", cerr)
			err = errors.Join(err, cerr)
		}
	}()

	engine.Start(ctx)
	return fn(engine)
}
