// Package cli provides command-line interface commands for reconkit.
// This package implements the Cobra-based CLI structure with commands for
// host scans, port scans, packet capture and the API server.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/reconkit/internal/config"
	"github.com/anstrom/reconkit/internal/logging"
)

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reconkit",
	Short: "Local network reconnaissance toolkit",
	Long: `reconkit discovers live hosts on a local subnet, probes TCP ports on a
single target and captures and dissects packets from a network interface.

Each operation can be run directly from the command line or driven
remotely through the API server started with "reconkit serve".`,
	Version:       getVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text, json")

	// Bind flags to viper
	bindings := map[string]string{
		"verbose":        "verbose",
		"logging.level":  "log-level",
		"logging.format": "log-format",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind %s flag: %v\n", flag, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// RECONKIT_API_PORT overrides api.port and so on.
	viper.SetEnvPrefix("RECONKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads the config file found by viper and applies flag and
// environment overrides on top of it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.ConfigFileUsed())
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	if viper.IsSet("logging.level") && viper.GetString("logging.level") != "" {
		cfg.Logging.Level = logging.LogLevel(strings.ToLower(viper.GetString("logging.level")))
	}
	if viper.IsSet("logging.format") && viper.GetString("logging.format") != "" {
		cfg.Logging.Format = logging.LogFormat(strings.ToLower(viper.GetString("logging.format")))
	}
	if viper.IsSet("api.listen_addr") && viper.GetString("api.listen_addr") != "" {
		cfg.API.ListenAddr = viper.GetString("api.listen_addr")
	}
	if viper.IsSet("api.port") && viper.GetInt("api.port") > 0 {
		cfg.API.Port = viper.GetInt("api.port")
	}
	if viper.IsSet("scanning.max_workers") && viper.GetInt("scanning.max_workers") > 0 {
		cfg.Scanning.MaxWorkers = viper.GetInt("scanning.max_workers")
	}
}

// setupLogging builds the process logger from cfg and installs it as the default.
func setupLogging(cfg *config.Config) *logging.Logger {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		// Fall back to default if creation fails
		logger = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	logging.SetDefault(logger)

	if verbose {
		logger.Info("Structured logging initialized",
			"level", cfg.Logging.Level, "format", cfg.Logging.Format)
	}
	return logger
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}
