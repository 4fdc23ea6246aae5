// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"autokit-cli/internal/action"
	"autokit-cli/internal/config"
	"autokit-cli/internal/rest"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute resolves configuration, builds the full command tree and runs it.
// This is called by main.main().
func Execute() {
	cfg := preloadConfig()
	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	root := newRootCommand(cfg)
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// preloadConfig resolves configuration before the command tree exists. The
// --conf.* flags are parsed out of the raw arguments in a tolerant first
// pass, because resource commands and their flag surfaces depend on the
// resolved configuration (the connection they are built on).
func preloadConfig() *config.Config {
	flags := pflag.NewFlagSet("conf", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Usage = func() {}
	config.AddFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error())
		cfg = &config.Config{Host: "https://127.0.0.1:443", Color: config.ColorAuto}
	}
	return cfg
}

// newRootCommand builds the base command and hangs one subcommand per API
// resource off it.
func newRootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "autokit",
		Short: "A command-line client for the automation platform API",
		Long: TitleStyle.Render("autokit") + SubtitleStyle.Render(" - a command-line client for the automation platform API") + `

Every API resource is a subcommand; every action on it is a
sub-subcommand. Plain resources speak plain HTTP verbs
(list/get/create/modify/delete); resources with richer semantics get
them where it matters: launches can block on completion, job output can
be fetched, notification templates can be associated and scoped
settings can be read and written.

` + SubtitleStyle.Render("Examples:") + `
  autokit job_templates list
  autokit job_templates launch 42 --monitor
  autokit jobs stdout 99
  autokit projects associate 7 --start_notification 3
  autokit settings modify SOME_KEY some-value`,
		SilenceUsage: true,
	}
	config.AddFlags(root.PersistentFlags())

	conn := connectionFor(cfg)
	action.SetColorOutput(func() bool { return colorEnabled(cfg) })

	for _, def := range resourceTable {
		root.AddCommand(newResourceCommand(conn, def))
	}
	root.AddCommand(newConfigCommand(cfg))
	return root
}

// connectionFor builds the API connection from the resolved configuration.
func connectionFor(cfg *config.Config) *rest.Connection {
	opts := []rest.ConnectionOption{
		rest.WithUserAgent("autokit/" + Version),
	}
	if cfg.Insecure {
		opts = append(opts, rest.WithInsecureTLS())
	}
	switch {
	case cfg.Token != "":
		opts = append(opts, rest.WithToken(cfg.Token))
	case cfg.Username != "":
		opts = append(opts, rest.WithBasicAuth(cfg.Username, cfg.Password))
	}
	return rest.NewConnection(cfg.Host, opts...)
}

// colorEnabled decides whether ANSI output is on for this session.
func colorEnabled(cfg *config.Config) bool {
	switch cfg.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		fd := os.Stdout.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
}

// newConfigCommand inspects the client configuration.
func newConfigCommand(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect client configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, TitleStyle.Render("autokit configuration"))
			fmt.Fprintf(out, "  host:     %s\n", cfg.Host)
			fmt.Fprintf(out, "  auth:     %s\n", authMode(cfg))
			fmt.Fprintf(out, "  color:    %s\n", cfg.Color)
			fmt.Fprintf(out, "  insecure: %v\n", cfg.Insecure)
			return nil
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.FilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})
	return configCmd
}

func authMode(cfg *config.Config) string {
	switch {
	case cfg.Token != "":
		return "token (set)"
	case cfg.Username != "":
		return "basic (" + cfg.Username + ")"
	default:
		return "none"
	}
}
