// clipvault: local clipboard-history engine.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clipvault/internal/app"
	"clipvault/internal/config"
	"clipvault/internal/logging"
)

func main() {
	root := newRootCmd()
	root.AddCommand(newVersionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clipvault",
		Short: "Local clipboard history",
		Long: `clipvault watches the system clipboard, deduplicates what you copy and
keeps an ordered, durable history that any entry can be restored from.

Config file: $HOME/.clipvault/config.json (JSON). All flags can also be set
via CLIPVAULT_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
		RunE:         run,
	}

	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
	cmd.Flags().String("data-dir", "", "data directory (default $HOME/.clipvault)")
	cmd.Flags().Int("poll-interval-ms", 500, "clipboard poll interval in milliseconds")
	cmd.Flags().Int("page-size", 50, "history page size")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "info", "log level: debug|info|warn|error")

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	if err := bindViper(cmd, v); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogFormat, cfg.LogLevel)

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	a.SaveConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}

// bindViper wires the command's flags into v with the standard precedence:
// defaults -> config file -> CLIPVAULT_* env vars -> flags.
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".clipvault"))
		}
	}

	v.SetEnvPrefix("CLIPVAULT")
	v.AutomaticEnv()

	// Flag names are dashed, config keys are underscored; bind explicitly.
	for key, flag := range map[string]string{
		"data_dir":         "data-dir",
		"poll_interval_ms": "poll-interval-ms",
		"page_size":        "page-size",
		"log_format":       "log-format",
		"log_level":        "log-level",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipvault %s\n", app.Version)
		},
	}
}
