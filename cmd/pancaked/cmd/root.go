package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openalpha/pancake/app"
	"github.com/openalpha/pancake/offchain/recorder"
)

// Bech32PrefixAccAddr is the account address prefix
const Bech32PrefixAccAddr = "pancake"

// Version is set at build time
var Version = "v0.1.0"

const (
	flagHome     = "home"
	flagConfig   = "config"
	flagLogLevel = "log-level"
)

// NewRootCmd creates the root command for pancaked
func NewRootCmd() *cobra.Command {
	initSDKConfig()

	rootCmd := &cobra.Command{
		Use:   "pancaked",
		Short: "Pancake - senior/junior tranche pool over ETH",
		Long: `Pancake pools ETH and DAI into two tranches. The Buttermilk (BUTTR)
senior tranche earns a fixed coupon per update and the Chocolate Chip
(CHOCO) junior tranche takes the rest of the ETH price exposure.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.PersistentFlags().String(flagHome, defaultHome(), "node home directory")
	rootCmd.PersistentFlags().String(flagConfig, "", "config file (default <home>/config.yaml)")
	rootCmd.PersistentFlags().String(flagLogLevel, "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		InitCmd(),
		FundCmd(),
		AddrCmd(),
		SetRateCmd(),
		AdvanceCmd(),
		TxCmd(),
		QueryCmd(),
		ServeCmd(),
		SimulateCmd(),
		VersionCmd(),
	)
	return rootCmd
}

// initSDKConfig sets the bech32 prefixes
func initSDKConfig() {
	cfg := sdk.GetConfig()
	cfg.SetBech32PrefixForAccount(Bech32PrefixAccAddr, Bech32PrefixAccAddr+sdk.PrefixPublic)
}

func defaultHome() string {
	if v := os.Getenv("PANCAKE_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pancake"
	}
	return filepath.Join(home, ".pancake")
}

func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString(flagConfig); path != "" {
		return path
	}
	home, _ := cmd.Flags().GetString(flagHome)
	return filepath.Join(home, "config.yaml")
}

// loadConfig reads the config file and applies the --home flag
func loadConfig(cmd *cobra.Command) (*app.Config, error) {
	cfg, err := app.LoadConfig(configPath(cmd))
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed(flagHome) {
		home, _ := cmd.Flags().GetString(flagHome)
		if cfg.Recorder.SQLitePath == filepath.Join(cfg.Home, "history.db") {
			cfg.Recorder.SQLitePath = filepath.Join(home, "history.db")
		}
		cfg.Home = home
	}
	if level, _ := cmd.Flags().GetString(flagLogLevel); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *app.Config) log.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return log.NewLogger(cmd.ErrOrStderr(), log.LevelOption(level))
}

// node is an opened app with its history recorder attached
type node struct {
	*app.App
	history recorder.Recorder
	logger  log.Logger
}

func (n *node) Close() error {
	herr := n.history.Close()
	if err := n.App.Close(); err != nil {
		return err
	}
	return herr
}

func openNode(cmd *cobra.Command) (*node, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openNodeWithConfig(cmd, cfg)
}

func openNodeWithConfig(cmd *cobra.Command, cfg *app.Config) (*node, error) {
	if err := os.MkdirAll(cfg.Home, 0o755); err != nil {
		return nil, fmt.Errorf("create home: %w", err)
	}
	logger := newLogger(cmd, cfg)

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	var history recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Recorder.SQLitePath != "" && cfg.DBBackend != app.BackendMemDB {
		history, err = recorder.NewSQLiteRecorder(cfg.Recorder.SQLitePath, logger)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	a.Subscribe(recorder.Hook(history, logger))
	return &node{App: a, history: history, logger: logger}, nil
}

// resolveAddress accepts a bech32 address or an account name
func resolveAddress(s string) (sdk.AccAddress, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty address")
	}
	if strings.HasPrefix(s, Bech32PrefixAccAddr+"1") {
		return sdk.AccAddressFromBech32(s)
	}
	return app.NamedAddress(s), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(bz))
	return nil
}

// VersionCmd returns a command to print the version
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("Pancake " + Version)
		},
	}
}
