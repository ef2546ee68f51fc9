package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/carepulse/carepulse/internal/logging"
	"github.com/carepulse/carepulse/server/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

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
		Use:           "carepulse-server",
		Short:         "Analyze batches over HTTP, alert on hospital stress and stream results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Setup(cmd.ErrOrStderr(), g.logLevel, g.logFormat); err != nil {
				return err
			}
			return g.load()
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to server config file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "json", "log format: json|console")

	root.AddCommand(serveCmd(g))
	root.AddCommand(versionCmd())
	return root
}

func (g *globals) load() error {
	if g.configPath == "" {
		g.cfg = config.Default()
		return nil
	}
	cfg, err := config.Load(g.configPath)
	if err != nil {
		log.Error().Err(err).Str("config", g.configPath).Msg("server: failed to load config")
		return err
	}
	g.cfg = cfg
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "carepulse-server "+version)
		},
	}
}
