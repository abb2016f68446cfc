package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bps3275/sinora/internal/app/bootstrap"
)

var Version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cli struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "sinoractl",
		Short:         "Administrative tasks for the SINORA backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", defaultConfigPath(), "path to the YAML config file")

	root.AddCommand(c.migrateCmd())
	root.AddCommand(c.adminCmd())
	root.AddCommand(c.honorLimitCmd())
	root.AddCommand(c.honorCmd())
	root.AddCommand(c.mitraCmd())
	root.AddCommand(c.laporanCmd())
	return root
}

func defaultConfigPath() string {
	if path := os.Getenv("SINORA_CONFIG"); path != "" {
		return path
	}
	return "configs/default.yaml"
}

// open wires the service without redis; logs go to stderr so stdout stays scriptable.
func (c *cli) open(cmd *cobra.Command) (*bootstrap.Core, error) {
	cfg, err := bootstrap.LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn})).
		With("service", cfg.ServiceID, "module", "sinoractl")
	slog.SetDefault(logger)
	return bootstrap.OpenCore(cmd.Context(), cfg, logger, bootstrap.CoreOptions{SkipRedis: true})
}
