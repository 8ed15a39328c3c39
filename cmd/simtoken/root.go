package main

import (
	"fmt"

	"github.com/mourao666/cassandra-sim/config"
	"github.com/mourao666/cassandra-sim/dht"
	"github.com/spf13/cobra"
)

// app is the state shared by every command.
type app struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger *dht.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "simtoken",
		Short: "Similarity-ordered token space for a partitioned ring",
		Long: `simtoken maps vector keys to ring tokens with random hyperplanes so that
similar keys land on nearby tokens, and serves ownership estimates for a ring.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		newBankCmd(a),
		newTokenCmd(a),
		newMidpointCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	a.cfg = cfg
	a.logger = cfg.Log.Logger(cmd.ErrOrStderr())
	return nil
}
