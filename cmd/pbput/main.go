// Command pbput sends binary objects to a device over PutBytes, or emulates a
// device that receives them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/arloliu/go-putbytes/logger"
)

type globalFlags struct {
	configPath string
	logLevel   string
	cfg        config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, newRootCmd()); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{cfg: defaultConfig()}

	cmd := &cobra.Command{
		Use:           "pbput",
		Short:         "Transfer binary objects with the PutBytes protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "TOML config file")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", g.cfg.LogLevel, "log level: debug, info, warn, error")

	cmd.AddCommand(newSendCmd(g))
	cmd.AddCommand(newServeCmd(g))

	return cmd
}

// resolve builds the effective config: defaults, then the config file, then
// flags given on the command line.
func (g *globalFlags) resolve(cmd *cobra.Command) error {
	if g.configPath != "" {
		if err := loadConfig(g.configPath, &g.cfg); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("log-level") {
		g.cfg.LogLevel = g.logLevel
	}

	if err := g.cfg.validate(); err != nil {
		return err
	}

	level, _ := logger.ParseLevel(g.cfg.LogLevel)
	logger.SetLogger(logger.NewSlogWriter(cmd.ErrOrStderr(), level, false))

	return nil
}
