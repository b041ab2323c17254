// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command timecoind is the TimeCoin masternode binary: a cobra CLI wiring
// node.Node with the default leveldbstore/secp256k1oracle/loopback
// adapters, playing the role the teacher's dir/main entrypoints play for a
// single running chain process.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/timecoin-project/timecoin/config"
)

var (
	cfgFile string
	v       = viper.New()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "timecoind",
		Short: "TimeCoin masternode daemon",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML/TOML/JSON config file")
	root.PersistentFlags().String("self", "", "this node's validator address")
	root.PersistentFlags().String("data-dir", "", "on-disk data directory (overrides config)")
	_ = v.BindPFlag("self", root.PersistentFlags().Lookup("self"))
	_ = v.BindPFlag("data_dir", root.PersistentFlags().Lookup("data-dir"))

	cobra.OnInitialize(initConfig)

	root.AddCommand(newStartCmd())
	root.AddCommand(newGenesisCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func initConfig() {
	config.SetDefaults(v)
	v.SetEnvPrefix("TIMECOIN")
	v.AutomaticEnv()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		// A missing or malformed file is reported lazily: newStartCmd's
		// RunE calls config.Load, which will fail on the resulting empty
		// config if required fields (self, priv_key, genesis_validators)
		// never got populated some other way.
		_ = v.ReadInConfig()
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the timecoind version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "timecoind 0.1.0")
			return nil
		},
	}
}
