package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNilFlagSet(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(180_000_000), cfg.MaxTxPoolSize)
	assert.Equal(t, uint64(125), cfg.MaxAncestorsCount)
	assert.Equal(t, uint64(1000), cfg.MinFeeRate)
	assert.Equal(t, uint64(0), cfg.MinRBFRate)
	assert.Equal(t, uint64(24), cfg.ExpiryHours)
	assert.Equal(t, 0, cfg.Workers)
}

func TestLoadFlagOverridesDefault(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--max-ancestors-count=50", "--min-fee-rate=2000"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), cfg.MaxAncestorsCount)
	assert.Equal(t, uint64(2000), cfg.MinFeeRate)
}

func TestLoadEnvVarOverridesDefault(t *testing.T) {
	t.Setenv("TXPOOL_MIN_RBF_RATE", "500")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), cfg.MinRBFRate)
}

func TestLoadRejectsUnreadableConfigFile(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config=/nonexistent/path/txpool.yaml"}))

	_, err := Load(fs)
	assert.Error(t, err)
}
