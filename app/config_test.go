package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/pancake/x/pancake/types"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, BackendGoLevelDB, cfg.DBBackend)
	require.Equal(t, FeedModeFixed, cfg.Feed.Mode)
	require.Equal(t, types.DefaultLockupSeconds, cfg.Pool.LockupSeconds)
	require.Equal(t, types.DefaultSeniorTargetBps, cfg.Pool.SeniorTargetBps)
	require.True(t, cfg.Pool.RequireBothTiers)
	require.Equal(t, NamedAddress("operator").String(), cfg.Pool.Operator)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
db_backend: memdb
clock_offset: 24h
pool:
  lockup_seconds: 60
  senior_target_bps: 25
  require_both_tiers: false
feed:
  eth_rate: "180.25"
converter:
  fee_bps: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("PANCAKE_DAI_RATE", "0.99")
	t.Setenv("PANCAKE_LOCKUP_SECONDS", "120")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, BackendMemDB, cfg.DBBackend)
	require.Equal(t, 24*time.Hour, cfg.ClockOffset)
	require.Equal(t, int64(120), cfg.Pool.LockupSeconds)
	require.Equal(t, int64(25), cfg.Pool.SeniorTargetBps)
	require.False(t, cfg.Pool.RequireBothTiers)
	require.Equal(t, "180.25", cfg.Feed.EthRate)
	require.Equal(t, "0.99", cfg.Feed.DaiRate)
	require.Equal(t, int64(10), cfg.Converter.FeeBps)
}

func TestConfigSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Feed.EthRate = "321"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "321", loaded.Feed.EthRate)
	require.Equal(t, cfg.Pool.Operator, loaded.Pool.Operator)
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"bad backend":   func(c *Config) { c.DBBackend = "rocks" },
		"bad operator":  func(c *Config) { c.Pool.Operator = "nobody" },
		"bad feed mode": func(c *Config) { c.Feed.Mode = "oracle" },
		"zero rate":     func(c *Config) { c.Feed.EthRate = "0" },
		"empty schedule": func(c *Config) {
			c.Feed.Mode = FeedModeSchedule
			c.Feed.Schedule = nil
		},
		"bad schedule asset": func(c *Config) {
			c.Feed.Mode = FeedModeSchedule
			c.Feed.Schedule = []SchedulePoint{{Asset: "BTC", Rate: "1"}}
		},
		"bad seed": func(c *Config) { c.Converter.SeedDai = "lots" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestUnits(t *testing.T) {
	amount, err := ParseUnits("1.5")
	require.NoError(t, err)
	require.Equal(t, "1500000000000000000", amount.String())
	require.Equal(t, "1.5", FormatUnits(amount))
	require.Equal(t, "0", FormatUnits(math.ZeroInt()))
	require.Equal(t, "3", FormatUnits(math.NewIntWithDecimal(3, 18)))

	rate, err := ParseRate("200")
	require.NoError(t, err)
	require.Equal(t, "20000000000", rate.String())
	require.Equal(t, "200", FormatRate(rate))

	_, err = ParseRate("0")
	require.Error(t, err)
	_, err = ParseRate("100000000")
	require.NoError(t, err)
	_, err = ParseRate("100000000.01")
	require.ErrorIs(t, err, types.ErrInvalidRate)
	require.NotPanics(t, func() {
		_, err = ParseRate("1" + strings.Repeat("0", 68))
	})
	require.ErrorIs(t, err, types.ErrInvalidRate)
	require.NotPanics(t, func() {
		_, err = ParseUnits("1" + strings.Repeat("0", 70))
	})
	require.Error(t, err)
	_, err = ParseUnits("-1")
	require.Error(t, err)
	_, err = ParseUnits("abc")
	require.Error(t, err)

	require.InDelta(t, 1.5, ToFloat(amount, types.PriceScale), 1e-12)
}
