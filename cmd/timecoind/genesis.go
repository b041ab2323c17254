// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/spf13/cobra"
)

// newGenesisCmd prints a fresh keypair plus a starter YAML config fragment
// an operator pastes into a genesis_validators list, the same "mint the
// first identity" role the teacher's keystore.CreateUser/ImportKey pair
// plays in dir/main/burn_funds.go, minus the running API server.
func newGenesisCmd() *cobra.Command {
	var tier string
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "generate a validator keypair and a genesis config fragment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenesis(cmd, tier)
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "gold", "validator tier: free, bronze, silver or gold")
	return cmd
}

func runGenesis(cmd *cobra.Command, tier string) error {
	switch tier {
	case "free", "bronze", "silver", "gold":
	default:
		return fmt.Errorf("unknown tier %q, want one of free/bronze/silver/gold", tier)
	}

	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("generating validator key: %w", err)
	}
	pub := priv.PubKey().SerializeCompressed()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# generated %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "self: validator-1\n")
	fmt.Fprintf(out, "priv_key: %s\n", hex.EncodeToString(priv.Serialize()))
	fmt.Fprintf(out, "genesis_time_unix: %d\n", time.Now().Unix())
	fmt.Fprintf(out, "genesis_validators:\n")
	fmt.Fprintf(out, "  - id: validator-1\n")
	fmt.Fprintf(out, "    pubkey: %s\n", hex.EncodeToString(pub))
	fmt.Fprintf(out, "    tier: %s\n", tier)
	return nil
}
