// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func baseViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.Set("self", "alice")
	v.Set("priv_key", "aabbccdd")
	v.Set("genesis_validators", []map[string]string{
		{"id": "alice", "pubkey": "00", "tier": "gold"},
	})
	return v
}

func TestLoadAppliesDefaults(t *testing.T) {
	v := baseViper()
	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 600, cfg.SlotSeconds)
	require.Equal(t, 20, cfg.AvalancheK)
	require.Equal(t, 0.7, cfg.AvalancheAlpha)
}

func TestLoadRequiresSelf(t *testing.T) {
	v := baseViper()
	v.Set("self", "")
	_, err := Load(v)
	require.Error(t, err)
}

func TestLoadRequiresGenesisValidators(t *testing.T) {
	v := baseViper()
	v.Set("genesis_validators", nil)
	_, err := Load(v)
	require.Error(t, err)
}

func TestInitialValidatorsResolvesTierWeight(t *testing.T) {
	v := baseViper()
	cfg, err := Load(v)
	require.NoError(t, err)

	validators, err := cfg.InitialValidators()
	require.NoError(t, err)
	require.Len(t, validators, 1)
	require.Equal(t, uint64(1000), validators[0].StakeWeight)
}

func TestInitialValidatorsRejectsUnknownTier(t *testing.T) {
	v := baseViper()
	v.Set("genesis_validators", []map[string]string{
		{"id": "alice", "pubkey": "00", "tier": "platinum"},
	})
	cfg, err := Load(v)
	require.NoError(t, err)

	_, err = cfg.InitialValidators()
	require.Error(t, err)
}

func TestAvalancheParametersConvertsMillisecondFields(t *testing.T) {
	v := baseViper()
	cfg, err := Load(v)
	require.NoError(t, err)

	params := cfg.AvalancheParameters()
	require.Equal(t, 500_000_000, int(params.RoundTimeout))
}
