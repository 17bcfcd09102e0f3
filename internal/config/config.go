// Package config loads a txpool.Config from file, environment, and flags
// via viper, the same trio (spf13/viper + spf13/pflag + spf13/cast) present
// in the teacher's go.mod for node-level configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/ckb-go/txpool/txpool"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TXPOOL"

// defaults mirrors spec.md §6's default values.
var defaults = map[string]interface{}{
	"max_tx_pool_size":              180_000_000,
	"max_ancestors_count":           125,
	"min_fee_rate":                  1000,
	"min_rbf_rate":                  0,
	"expiry_hours":                  24,
	"recent_reject_path":            "",
	"keep_rejected_tx_hashes_days":  7,
	"keep_rejected_tx_hashes_count": 10000,
	"max_conflict_set_size":         txpool.DefaultMaxConflictSetSize,
	"workers":                       0,
	"submit_rate_per_second":        0,
	"submit_burst":                  0,
}

// BindFlags registers the flag surface cmd/txpoold exposes, to be parsed by
// the caller (pflag.Parse / urfave/cli) before Load reads v.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (yaml/json/toml)")
	fs.Uint64("max-tx-pool-size", 0, "total pool size cap in bytes")
	fs.Uint64("max-ancestors-count", 0, "per-entry ancestor count cap")
	fs.Uint64("min-fee-rate", 0, "minimum admission fee rate, per byte")
	fs.Uint64("min-rbf-rate", 0, "minimum RBF fee rate, per byte (0 disables RBF)")
	fs.Uint64("expiry-hours", 0, "pool entry expiry, in hours")
	fs.String("recent-reject-path", "", "path to the persistent reject-hash ring file")
	fs.Int("workers", 0, "verification worker count (0 = runtime.NumCPU())")
}

// Load builds a viper instance seeded with defaults, a config file (if
// "config" is set), TXPOOL_-prefixed environment variables, and fs, then
// decodes it into a txpool.Config via spf13/cast's loose numeric coercion.
func Load(fs *pflag.FlagSet) (txpool.Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if bindErr == nil {
				bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
			}
		})
		if bindErr != nil {
			return txpool.Config{}, fmt.Errorf("config: bind flags: %w", bindErr)
		}
		if path := v.GetString("config"); path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return txpool.Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	return txpool.Config{
		MaxTxPoolSize:             cast.ToUint64(v.Get("max_tx_pool_size")),
		MaxAncestorsCount:         cast.ToUint64(v.Get("max_ancestors_count")),
		MinFeeRate:                cast.ToUint64(v.Get("min_fee_rate")),
		MinRBFRate:                cast.ToUint64(v.Get("min_rbf_rate")),
		ExpiryHours:               cast.ToUint64(v.Get("expiry_hours")),
		RecentRejectPath:          cast.ToString(v.Get("recent_reject_path")),
		KeepRejectedTxHashesDays:  cast.ToUint64(v.Get("keep_rejected_tx_hashes_days")),
		KeepRejectedTxHashesCount: cast.ToUint64(v.Get("keep_rejected_tx_hashes_count")),
		MaxConflictSetSize:        cast.ToInt(v.Get("max_conflict_set_size")),
		Workers:                   cast.ToInt(v.Get("workers")),
		SubmitRatePerSecond:       cast.ToFloat64(v.Get("submit_rate_per_second")),
		SubmitBurst:               cast.ToInt(v.Get("submit_burst")),
	}, nil
}
