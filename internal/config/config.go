// =============================================================================
// SEPA Direct Debit Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and the creditor
// profiles.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings. Every key can
//      be overridden by an environment variable with the SEPADD_ prefix, e.g.
//      SEPADD_OUTPUT_DIR or SEPADD_MAX_CONCURRENCY.
//   2. Creditor Profiles (profiles/*.yaml): One file per creditor, holding
//      the creditor account, the scheme settings and the input layout.
//
// PRECEDENCE (main config):
//   defaults < config file < environment
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sepa-direct-debit/internal/bankaccount"
	"github.com/ginjaninja78/sepa-direct-debit/internal/sepa"
)

// EnvPrefix is the prefix for environment overrides of the main config.
const EnvPrefix = "SEPADD"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for CSV and XLSX files.
	// Default: "./input"
	InputDir string

	// OutputDir receives the generated pain.008 files and error logs.
	// Default: "./output"
	OutputDir string

	// InputArchiveDir receives input files after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string

	// OutputArchiveDir receives a copy of every generated XML file.
	// Default: "./output_archive"
	OutputArchiveDir string

	// ProfilesDir holds one YAML file per creditor.
	// Default: "./profiles"
	ProfilesDir string

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel is a zerolog level name: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat defines the output file name.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {profile}   - Creditor profile code
	//   {original}  - Input file name without extension
	// Default: "{profile}_{timestamp}_{uuid}.xml"
	OutputNameFormat string

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the size of the worker pool.
	// Default: 4
	MaxConcurrency int

	// ContinueOnError keeps processing the remaining files when one fails.
	// Default: true
	ContinueOnError bool

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: An explicit config file. When empty, config.yaml is looked
//     up in the working directory and in ./configs, and a missing file is
//     not an error.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or the settings are invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	config := &MainConfig{
		InputDir:         v.GetString("input_dir"),
		OutputDir:        v.GetString("output_dir"),
		InputArchiveDir:  v.GetString("input_archive_dir"),
		OutputArchiveDir: v.GetString("output_archive_dir"),
		ProfilesDir:      v.GetString("profiles_dir"),
		LogLevel:         v.GetString("log_level"),
		LogFormat:        v.GetString("log_format"),
		OutputNameFormat: v.GetString("output_name_format"),
		MaxConcurrency:   v.GetInt("max_concurrency"),
		ContinueOnError:  v.GetBool("continue_on_error"),
		ConfigFile:       v.ConfigFileUsed(),
	}

	if err := validateMainConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for every main configuration key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", "./input")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("input_archive_dir", "./input_archive")
	v.SetDefault("output_archive_dir", "./output_archive")
	v.SetDefault("profiles_dir", "./profiles")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("output_name_format", "{profile}_{timestamp}_{uuid}.xml")
	v.SetDefault("max_concurrency", 4)
	v.SetDefault("continue_on_error", true)
}

// validateMainConfig validates the main configuration and creates missing
// directories.
func validateMainConfig(config *MainConfig) error {
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}

	switch config.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", config.LogFormat)
	}

	dirs := []string{
		config.InputDir,
		config.OutputDir,
		config.InputArchiveDir,
		config.OutputArchiveDir,
		config.ProfilesDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			return fmt.Errorf("directory settings must not be empty")
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// CREDITOR PROFILE STRUCTURE
// =============================================================================

// CreditorProfile holds everything needed to turn one creditor's input file
// into a pain.008 batch.
type CreditorProfile struct {
	// Name is the human-readable profile name used in logs.
	Name string `yaml:"name"`

	// Code is a short key used for --profile and in output file names.
	// Defaults to the profile file name without extension.
	Code string `yaml:"code"`

	// FileMatchingPatterns are glob patterns matched case-insensitively
	// against input file names, e.g. "lastschrift_*.csv".
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// Input describes the input file layout.
	Input InputSettings `yaml:"input"`

	// Creditor is the collecting party.
	Creditor CreditorSettings `yaml:"creditor"`

	// OriginalCreditor is set when the creditor's name or identifier changed
	// after the mandates were signed.
	OriginalCreditor OriginalCreditorSettings `yaml:"original_creditor"`

	// LocalInstrument is CORE, COR1 or B2B.
	// Default: "CORE"
	LocalInstrument string `yaml:"local_instrument"`

	// SequenceType is FRST, RCUR, OOFF or FNAL. Required.
	SequenceType string `yaml:"sequence_type"`

	// CollectionDate fixes the collection date (YYYY-MM-DD). When empty the
	// date is CollectionOffsetDays after the processing day.
	CollectionDate string `yaml:"collection_date"`

	// CollectionOffsetDays is used when CollectionDate is empty.
	// Default: 5
	CollectionOffsetDays int `yaml:"collection_offset_days"`

	// Currency of every transaction.
	// Default: "EUR"
	Currency string `yaml:"currency"`

	// ChargeBearer is SLEV or SCOR.
	// Default: "SLEV"
	ChargeBearer string `yaml:"charge_bearer"`

	// AccountValidation configures the IBAN and BIC checks.
	AccountValidation bankaccount.Config `yaml:"account_validation"`

	// Transformations rewrite input columns before ingestion.
	Transformations []TransformationRule `yaml:"transformations"`

	// SourceFile is the profile file this was loaded from.
	SourceFile string `yaml:"-"`
}

// InputSettings contains settings for reading input files.
type InputSettings struct {
	// Delimiter separates CSV fields. Accepts a single character or one of
	// "tab", "pipe", "semicolon", "comma".
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of leading rows to skip.
	// Default: 0
	HeaderRows int `yaml:"header_rows"`

	// Encoding of CSV input: "UTF-8", "ISO-8859-1", "ISO-8859-15" or
	// "Windows-1252".
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// SheetName selects the XLSX sheet. Empty means the first sheet.
	SheetName string `yaml:"sheet_name"`
}

// CreditorSettings identifies the creditor.
type CreditorSettings struct {
	Identifier string `yaml:"identifier"`
	Name       string `yaml:"name"`
	IBAN       string `yaml:"iban"`
	BIC        string `yaml:"bic"`
}

// OriginalCreditorSettings holds the creditor identity at mandate signature.
type OriginalCreditorSettings struct {
	Name       string `yaml:"name"`
	Identifier string `yaml:"identifier"`
}

// =============================================================================
// TRANSFORMATION RULE STRUCTURE
// =============================================================================

// TransformationRule defines a transformation for one input column.
type TransformationRule struct {
	// Column is one of the record column names: mandate_id, mandate_date,
	// name, iban, bic, amount, message, bank_changed, original_mandate_id,
	// original_debtor_account.
	Column string `yaml:"column"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is the type of transformation to apply. See the converter's
	// ApplyTransformation for the list.
	Type string `yaml:"type"`

	// Value is the parameter for the transformation.
	Value string `yaml:"value"`

	// Find is used by "replace" and "regex_replace".
	Find string `yaml:"find,omitempty"`

	// LookupTable is used by "lookup".
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// PROFILE LOADING FUNCTIONS
// =============================================================================

// LoadProfiles loads all creditor profiles from a directory.
//
// RETURNS:
//   - A map of profiles keyed by profile code.
//   - An error if any file cannot be parsed or two profiles share a code.
func LoadProfiles(profilesDir string) (map[string]*CreditorProfile, error) {
	profiles := make(map[string]*CreditorProfile)

	files, err := filepath.Glob(filepath.Join(profilesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(profilesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		profile, err := LoadProfile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		if existing, ok := profiles[profile.Code]; ok {
			return nil, fmt.Errorf("profile code %q is used by both %s and %s", profile.Code, existing.SourceFile, file)
		}

		profiles[profile.Code] = profile
	}

	return profiles, nil
}

// LoadProfile loads and validates a single profile file.
func LoadProfile(filePath string) (*CreditorProfile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile CreditorProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	profile.SourceFile = filePath
	if profile.Code == "" {
		profile.Code = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}

	applyProfileDefaults(&profile)

	if err := validateProfile(&profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", profile.Code, err)
	}

	return &profile, nil
}

// applyProfileDefaults sets default values for a creditor profile.
func applyProfileDefaults(profile *CreditorProfile) {
	if profile.Name == "" {
		profile.Name = profile.Code
	}
	if profile.Input.Delimiter == "" {
		profile.Input.Delimiter = ";"
	}
	if profile.Input.Encoding == "" {
		profile.Input.Encoding = "UTF-8"
	}
	if profile.LocalInstrument == "" {
		profile.LocalInstrument = string(sepa.InstrumentCore)
	}
	if profile.CollectionDate == "" && profile.CollectionOffsetDays == 0 {
		profile.CollectionOffsetDays = 5
	}
	if profile.Currency == "" {
		profile.Currency = "EUR"
	}
	if profile.ChargeBearer == "" {
		profile.ChargeBearer = string(sepa.ChargeBearerSharedLevel)
	}
}

// validateProfile checks the settings that can be checked without a batch.
// Field-level SEPA rules run again when the batch is built.
func validateProfile(profile *CreditorProfile) error {
	if len(profile.FileMatchingPatterns) == 0 {
		return fmt.Errorf("file_matching_patterns must not be empty")
	}
	for _, pattern := range profile.FileMatchingPatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}
	}

	if _, err := sepa.ParseSequenceType(profile.SequenceType); err != nil {
		return err
	}
	if _, err := sepa.ParseLocalInstrument(profile.LocalInstrument); err != nil {
		return err
	}
	if !sepa.ChargeBearer(profile.ChargeBearer).Valid() {
		return fmt.Errorf("charge_bearer must be SLEV or SCOR, got %q", profile.ChargeBearer)
	}

	if profile.CollectionDate != "" && !sepa.ISODate(profile.CollectionDate) {
		return fmt.Errorf("collection_date %q is not a valid date", profile.CollectionDate)
	}
	if profile.CollectionOffsetDays < 0 {
		return fmt.Errorf("collection_offset_days must not be negative")
	}
	if profile.Input.HeaderRows < 0 {
		return fmt.Errorf("input.header_rows must not be negative")
	}

	required := map[string]string{
		"creditor.identifier": profile.Creditor.Identifier,
		"creditor.name":       profile.Creditor.Name,
		"creditor.iban":       profile.Creditor.IBAN,
		"creditor.bic":        profile.Creditor.BIC,
	}
	for _, key := range []string{"creditor.identifier", "creditor.name", "creditor.iban", "creditor.bic"} {
		if strings.TrimSpace(required[key]) == "" {
			return fmt.Errorf("%s is required", key)
		}
	}

	for _, rule := range profile.Transformations {
		if _, ok := sepa.ColumnIndex(rule.Column); !ok {
			return fmt.Errorf("unknown transformation column %q", rule.Column)
		}
	}

	return nil
}

// =============================================================================
// PROFILE HELPERS
// =============================================================================

// Matches reports whether fileName matches one of the profile's patterns.
func (p *CreditorProfile) Matches(fileName string) bool {
	name := strings.ToLower(filepath.Base(fileName))
	for _, pattern := range p.FileMatchingPatterns {
		if ok, _ := filepath.Match(strings.ToLower(pattern), name); ok {
			return true
		}
	}
	return false
}

// ResolveCollectionDate returns the fixed collection date or the processing
// day plus the configured offset.
func (p *CreditorProfile) ResolveCollectionDate(now time.Time) string {
	if p.CollectionDate != "" {
		return p.CollectionDate
	}
	return now.AddDate(0, 0, p.CollectionOffsetDays).Format("2006-01-02")
}

// MatchProfile returns the first profile, in code order, whose patterns
// match fileName.
func MatchProfile(profiles map[string]*CreditorProfile, fileName string) (*CreditorProfile, bool) {
	codes := make([]string, 0, len(profiles))
	for code := range profiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if profiles[code].Matches(fileName) {
			return profiles[code], true
		}
	}
	return nil, false
}
