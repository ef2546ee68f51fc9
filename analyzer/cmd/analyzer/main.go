package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/carepulse/carepulse/analyzer/internal/config"
	"github.com/carepulse/carepulse/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// globals holds the persistent flags and the config they resolve to.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "carepulse-analyzer",
		Short:         "Score patients and hospital stress from spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Setup(cmd.ErrOrStderr(), g.logLevel, g.logFormat); err != nil {
				return err
			}
			return g.load()
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to analyzer config file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "json", "log format: json|console")

	root.AddCommand(analyzeCmd(g))
	root.AddCommand(watchCmd(g))
	root.AddCommand(versionCmd())

	return wrapErrors(root)
}

// wrapErrors logs a failing command's error before cobra returns it.
func wrapErrors(root *cobra.Command) *cobra.Command {
	for _, c := range root.Commands() {
		run := c.RunE
		if run == nil {
			continue
		}
		c.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if err != nil {
				log.Error().Err(err).Str("command", cmd.Name()).Msg("analyzer: command failed")
			}
			return err
		}
	}
	return root
}

func (g *globals) load() error {
	if g.configPath == "" {
		g.cfg = config.Default()
		return nil
	}
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	g.cfg = cfg
	log.Info().Str("config", g.configPath).Str("server", cfg.Analyzer.Server.Endpoint).Msg("analyzer: config loaded")
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the analyzer version",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "carepulse-analyzer "+version)
		},
	}
}
