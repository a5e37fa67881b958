// =============================================================================
// SEPA Direct Debit Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (sepadd)
//   ├── processCmd  (sepadd process)
//   ├── validateCmd (sepadd validate)
//   └── versionCmd  (sepadd version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the main configuration and the creditor profiles
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sepa-direct-debit/internal/config"
	"github.com/ginjaninja78/sepa-direct-debit/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file. When empty,
// config.yaml is searched in the working directory and ./configs.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sepadd",
	Short: "SEPA Direct Debit Converter - Turn debtor lists into pain.008 files",
	Long: `sepadd converts debtor lists exported from accounting systems (CSV or XLSX)
into SEPA direct debit initiation files (pain.008.003.02) ready for upload to
the creditor's bank.

Key Features:
  - One YAML profile per creditor with account, scheme and input settings
  - Column transformations for amounts, dates and flags
  - Every field checked against the SEPA rulebook before anything is written
  - Per-row error logs instead of partial files
  - Concurrent processing and automatic archival

Example Usage:
  sepadd process                       # Process all files in the input directory
  sepadd process --dry-run             # Check the files without writing anything
  sepadd validate --file input/a.csv   # Report every rejected row of one file`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and runs it. This is
// called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the main configuration file (default: ./config.yaml or ./configs/config.yaml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// APPLICATION SETUP
// =============================================================================

// app bundles what every command needs.
type app struct {
	config   *config.MainConfig
	profiles map[string]*config.CreditorProfile
	logger   zerolog.Logger
}

// loadApp loads the main config, creates the logger and loads all
// creditor profiles.
func loadApp() (*app, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	level := mainConfig.LogLevel
	if verbose {
		level = "debug"
	}

	log, err := logger.New(level, mainConfig.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	if mainConfig.ConfigFile != "" {
		log.Debug().Str("config", mainConfig.ConfigFile).Msg("Loaded configuration")
	}

	profiles, err := config.LoadProfiles(mainConfig.ProfilesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load creditor profiles: %w", err)
	}

	log.Debug().Int("profiles", len(profiles)).Msg("Loaded creditor profiles")

	return &app{
		config:   mainConfig,
		profiles: profiles,
		logger:   log,
	}, nil
}

// resolveProfile returns the forced profile or the first one matching the
// file name.
func (a *app) resolveProfile(filePath, forced string) (*config.CreditorProfile, error) {
	if forced != "" {
		profile, ok := a.profiles[forced]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", forced)
		}
		return profile, nil
	}

	profile, ok := config.MatchProfile(a.profiles, filePath)
	if !ok {
		return nil, fmt.Errorf("no matching creditor profile found")
	}
	return profile, nil
}
