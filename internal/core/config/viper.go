package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults matching DefaultConfig
	v.SetDefault("convert.samples_root", "")
	v.SetDefault("convert.mapping_path", "mapping.txt")
	v.SetDefault("convert.output_dir", "./presets")
	v.SetDefault("convert.global_sample_base", "")
	v.SetDefault("convert.valid_listing", "listing-valid.json")
	v.SetDefault("convert.rejected_listing", "listing-rejected.json")
	v.SetDefault("convert.min_total", 0)
	v.SetDefault("convert.exclude_only_other", false)
	v.SetDefault("convert.exclude_mixed_other", false)
	v.SetDefault("convert.overflow_policy", "reject")
	v.SetDefault("convert.trash_notes", "82-127")
	v.SetDefault("convert.pad_base_midi", 36)
	v.SetDefault("convert.pad_count", 64)
	v.SetDefault("convert.db_url", "")

	// Bind environment variables with KK_ prefix
	v.SetEnvPrefix("KK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		SamplesRoot:         v.GetString("convert.samples_root"),
		MappingPath:         v.GetString("convert.mapping_path"),
		OutputDir:           v.GetString("convert.output_dir"),
		GlobalSampleBase:    v.GetString("convert.global_sample_base"),
		ValidListingPath:    v.GetString("convert.valid_listing"),
		RejectedListingPath: v.GetString("convert.rejected_listing"),
		MinTotal:            v.GetInt("convert.min_total"),
		ExcludeOnlyOther:    v.GetBool("convert.exclude_only_other"),
		ExcludeMixedOther:   v.GetBool("convert.exclude_mixed_other"),
		OverflowPolicy:      v.GetString("convert.overflow_policy"),
		TrashNotes:          v.GetString("convert.trash_notes"),
		PadBaseMidi:         v.GetInt("convert.pad_base_midi"),
		PadCount:            v.GetInt("convert.pad_count"),
		DatabaseURL:         v.GetString("convert.db_url"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
