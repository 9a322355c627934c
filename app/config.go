package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openalpha/pancake/x/pancake/types"
)

// Feed modes
const (
	FeedModeFixed    = "fixed"
	FeedModeSchedule = "schedule"
)

// DB backends
const (
	BackendGoLevelDB = "goleveldb"
	BackendMemDB     = "memdb"
)

// SchedulePoint is one scheduled feed rate
type SchedulePoint struct {
	At    time.Time `yaml:"at"`
	Asset string    `yaml:"asset"`
	Rate  string    `yaml:"rate"` // USD, decimal
}

// Config holds all node configuration
type Config struct {
	Home      string `yaml:"home"`
	DBBackend string `yaml:"db_backend"`
	LogLevel  string `yaml:"log_level"`

	// ClockOffset is added to wall time to produce block times
	ClockOffset time.Duration `yaml:"clock_offset"`

	Pool struct {
		Operator         string `yaml:"operator"`
		LockupSeconds    int64  `yaml:"lockup_seconds"`
		SeniorTargetBps  int64  `yaml:"senior_target_bps"`
		RequireBothTiers bool   `yaml:"require_both_tiers"`
	} `yaml:"pool"`

	Feed struct {
		Mode     string          `yaml:"mode"`
		EthRate  string          `yaml:"eth_rate"`
		DaiRate  string          `yaml:"dai_rate"`
		Schedule []SchedulePoint `yaml:"schedule"`
	} `yaml:"feed"`

	Converter struct {
		FeeBps  int64  `yaml:"fee_bps"`
		SeedEth string `yaml:"seed_eth"` // whole ETH
		SeedDai string `yaml:"seed_dai"` // whole DAI
	} `yaml:"converter"`

	API struct {
		ListenAddr   string        `yaml:"listen_addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"api"`

	Updater struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
		Caller  string `yaml:"caller"`
	} `yaml:"updater"`

	Recorder struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"recorder"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Pool.RequireBothTiers = true
	return cfg
}

// LoadConfig reads config from a YAML file, then applies environment variable overrides.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PANCAKE_HOME"); v != "" {
		cfg.Home = v
	}
	if v := os.Getenv("PANCAKE_OPERATOR"); v != "" {
		cfg.Pool.Operator = v
	}
	if v := os.Getenv("PANCAKE_LOCKUP_SECONDS"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Pool.LockupSeconds = secs
		}
	}
	if v := os.Getenv("PANCAKE_ETH_RATE"); v != "" {
		cfg.Feed.EthRate = v
	}
	if v := os.Getenv("PANCAKE_DAI_RATE"); v != "" {
		cfg.Feed.DaiRate = v
	}
	if v := os.Getenv("PANCAKE_API_ADDR"); v != "" {
		cfg.API.ListenAddr = v
	}
	if v := os.Getenv("PANCAKE_UPDATE_CRON"); v != "" {
		cfg.Updater.Cron = v
		cfg.Updater.Enabled = true
	}
	if v := os.Getenv("PANCAKE_SQLITE_PATH"); v != "" {
		cfg.Recorder.SQLitePath = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Home == "" {
		c.Home = defaultHome()
	}
	if c.DBBackend == "" {
		c.DBBackend = BackendGoLevelDB
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Pool.Operator == "" {
		c.Pool.Operator = NamedAddress("operator").String()
	}
	if c.Pool.LockupSeconds == 0 {
		c.Pool.LockupSeconds = types.DefaultLockupSeconds
	}
	if c.Pool.SeniorTargetBps == 0 {
		c.Pool.SeniorTargetBps = types.DefaultSeniorTargetBps
	}
	if c.Feed.Mode == "" {
		c.Feed.Mode = FeedModeFixed
	}
	if c.Feed.EthRate == "" {
		c.Feed.EthRate = "200"
	}
	if c.Feed.DaiRate == "" {
		c.Feed.DaiRate = "1"
	}
	if c.Converter.FeeBps == 0 {
		c.Converter.FeeBps = 30
	}
	if c.Converter.SeedEth == "" {
		c.Converter.SeedEth = "10000"
	}
	if c.Converter.SeedDai == "" {
		c.Converter.SeedDai = "2000000"
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
	if c.API.ReadTimeout == 0 {
		c.API.ReadTimeout = 15 * time.Second
	}
	if c.API.WriteTimeout == 0 {
		c.API.WriteTimeout = 15 * time.Second
	}
	if c.Updater.Cron == "" {
		c.Updater.Cron = "0 */10 * * * *"
	}
	if c.Updater.Caller == "" {
		c.Updater.Caller = NamedAddress("updater").String()
	}
	if c.Recorder.SQLitePath == "" {
		c.Recorder.SQLitePath = filepath.Join(c.Home, "history.db")
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.DBBackend != BackendGoLevelDB && c.DBBackend != BackendMemDB {
		return fmt.Errorf("unknown db_backend %q", c.DBBackend)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	switch c.Feed.Mode {
	case FeedModeFixed:
		if _, err := ParseRate(c.Feed.EthRate); err != nil {
			return fmt.Errorf("feed.eth_rate: %w", err)
		}
		if _, err := ParseRate(c.Feed.DaiRate); err != nil {
			return fmt.Errorf("feed.dai_rate: %w", err)
		}
	case FeedModeSchedule:
		if len(c.Feed.Schedule) == 0 {
			return fmt.Errorf("feed.schedule is empty")
		}
		for i, p := range c.Feed.Schedule {
			if _, err := types.ParseAsset(p.Asset); err != nil {
				return fmt.Errorf("feed.schedule[%d]: %w", i, err)
			}
			if _, err := ParseRate(p.Rate); err != nil {
				return fmt.Errorf("feed.schedule[%d]: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown feed mode %q", c.Feed.Mode)
	}
	if _, err := ParseUnits(c.Converter.SeedEth); err != nil {
		return fmt.Errorf("converter.seed_eth: %w", err)
	}
	if _, err := ParseUnits(c.Converter.SeedDai); err != nil {
		return fmt.Errorf("converter.seed_dai: %w", err)
	}
	return nil
}

// Params returns the pool params described by the config
func (c *Config) Params() types.Params {
	return types.Params{
		Operator:         c.Pool.Operator,
		LockupSeconds:    c.Pool.LockupSeconds,
		SeniorTargetBps:  c.Pool.SeniorTargetBps,
		RequireBothTiers: c.Pool.RequireBothTiers,
	}
}

// Save writes the config as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pancake"
	}
	return filepath.Join(home, ".pancake")
}
