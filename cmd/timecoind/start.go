// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/timecoin-project/timecoin/adapters/loopback"
	"github.com/timecoin-project/timecoin/adapters/secp256k1oracle"
	"github.com/timecoin-project/timecoin/config"
	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/adapters/leveldbstore"
	"github.com/timecoin-project/timecoin/node"
	"github.com/timecoin-project/timecoin/utils/logging"
	"github.com/timecoin-project/timecoin/utils/timer"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "start the masternode and begin producing/validating blocks",
		RunE:  runStart,
	}
}

// runStart wires node.Node with the module's default adapters. Bcast is a
// loopback.Hub registering only this node: a standalone/bootstrap
// configuration, per SPEC_FULL.md's note that loopback is a reference
// implementation of core.Broadcaster and a real transport swaps in here
// without touching node.Node itself.
func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	privKey, err := cfg.PrivateKey()
	if err != nil {
		return err
	}
	chainID, err := cfg.ChainID()
	if err != nil {
		return err
	}
	validators, err := cfg.InitialValidators()
	if err != nil {
		return err
	}

	db, err := leveldbstore.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening data dir %s: %w", cfg.DataDir, err)
	}
	defer db.Close()

	hub := loopback.New()
	oracle := secp256k1oracle.New()
	registry := prometheus.NewRegistry()

	n := node.New(node.Config{
		Self:              core.Address(cfg.Self),
		PrivKey:           privKey,
		ChainID:           chainID,
		DB:                db,
		InitialValidators: validators,
		AvalancheParams:   cfg.AvalancheParameters(),
		TSDCParams:        cfg.TSDCParameters(),
		SlotClock:         cfg.SlotClock(),
		Bcast:             hub.For(core.Address(cfg.Self)),
		Oracle:            oracle,
		Log:               log,
		NotifierQueueSize: cfg.NotifierQueueSize,
		Metrics:           registry,
	})
	hub.Register(core.Address(cfg.Self), &loopback.Peer{
		Votes: n.Engine, Proposals: n.Producer, Prepares: n.Producer, Precommits: n.Producer, Finality: n,
	})

	if err := n.Replay(); err != nil {
		return fmt.Errorf("replaying persisted state: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("timecoind: started as %s, chain %s", cfg.Self, cfg.ChainIDHex)
	return runSlotLoop(ctx, n, cfg, log)
}

// runSlotLoop calls RunSlot once per TSDC slot boundary until ctx is
// cancelled, exactly matching the slot clock's cadence instead of a fixed
// ticker, so a late start doesn't drift the node's notion of "now". wallClock
// is the mockable utils/timer.Clock rather than a bare time.Now(), so the
// loop's notion of "now" can be pinned in tests exactly the way a slot
// scheduler test would want to.
func runSlotLoop(ctx context.Context, n *node.Node, cfg *config.Config, log logging.Logger) error {
	clock := cfg.SlotClock()
	wallClock := &timer.Clock{}
	for {
		now := wallClock.Now()
		slotIndex := clock.SlotAt(now)
		nextSlotStart := clock.StartOf(slotIndex + 1)
		if err := n.RunSlot(ctx, slotIndex); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("timecoind: slot %d: %s", slotIndex, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Until(nextSlotStart)):
		}
	}
}
