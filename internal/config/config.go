package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/cannalytics/internal/dataset"
)

// Global configuration structure.
type Global struct {
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	// Input file names inside data_dir
	dataset.Files `mapstructure:",squash" yaml:",inline"`

	// Default filter span and license set
	YearMin      int      `mapstructure:"year_min" yaml:"year_min"`
	YearMax      int      `mapstructure:"year_max" yaml:"year_max"`
	LicenseTypes []string `mapstructure:"license_types" yaml:"license_types"`

	CacheTTLSec int    `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	RulesFile   string `mapstructure:"rules_file" yaml:"rules_file"`
	Regions     string `mapstructure:"regions" yaml:"regions"`

	ServerAddr  string `mapstructure:"server_addr" yaml:"server_addr"`
	Environment string `mapstructure:"environment" yaml:"environment"`
	Debug       bool   `mapstructure:"debug" yaml:"debug"`
}

// CacheTTL returns the memo cache freshness window.
func (c *Global) CacheTTL() time.Duration { return time.Duration(c.CacheTTLSec) * time.Second }

// Production reports whether environment is "production".
func (c *Global) Production() bool { return strings.EqualFold(c.Environment, "production") }

// Dir returns ~/.cannalytics.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".cannalytics"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.cannalytics/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment
// without overriding variables already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is read first.
func Load(cfgFile string) (*Global, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetEnvPrefix("CANNALYTICS")
	v.AutomaticEnv()
	// The unprefixed names are what deployment .env files carry.
	_ = v.BindEnv("environment", "CANNALYTICS_ENVIRONMENT", "ENVIRONMENT")
	_ = v.BindEnv("debug", "CANNALYTICS_DEBUG", "DEBUG")

	files := dataset.DefaultFiles()
	v.SetDefault("data_dir", "data")
	v.SetDefault("dispensaries_file", files.Dispensaries)
	v.SetDefault("density_file", files.Density)
	v.SetDefault("sentiment_file", files.Sentiment)
	v.SetDefault("boundaries_file", files.Boundaries)
	v.SetDefault("year_min", 2018)
	v.SetDefault("year_max", 2024)
	v.SetDefault("license_types", []string{"Adult-Use", "Medicinal", "Adult-Use and Medicinal"})
	v.SetDefault("cache_ttl_sec", 3600)
	v.SetDefault("rules_file", "")
	v.SetDefault("regions", "california")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("environment", "development")
	v.SetDefault("debug", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.YearMin > c.YearMax {
		return nil, fmt.Errorf("year_min %d is after year_max %d", c.YearMin, c.YearMax)
	}
	return &c, nil
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"data_dir", "dispensaries_file", "density_file", "sentiment_file", "boundaries_file",
	"year_min", "year_max", "license_types", "cache_ttl_sec", "rules_file", "regions",
	"server_addr", "environment", "debug",
}

// Get returns the display form of a key's value.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "data_dir":
		return c.DataDir, nil
	case "dispensaries_file":
		return c.Dispensaries, nil
	case "density_file":
		return c.Density, nil
	case "sentiment_file":
		return c.Sentiment, nil
	case "boundaries_file":
		return c.Boundaries, nil
	case "year_min":
		return strconv.Itoa(c.YearMin), nil
	case "year_max":
		return strconv.Itoa(c.YearMax), nil
	case "license_types":
		return strings.Join(c.LicenseTypes, ", "), nil
	case "cache_ttl_sec":
		return strconv.Itoa(c.CacheTTLSec), nil
	case "rules_file":
		return c.RulesFile, nil
	case "regions":
		return c.Regions, nil
	case "server_addr":
		return c.ServerAddr, nil
	case "environment":
		return c.Environment, nil
	case "debug":
		return strconv.FormatBool(c.Debug), nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses and assigns one key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "data_dir":
		c.DataDir = val
	case "dispensaries_file":
		c.Dispensaries = val
	case "density_file":
		c.Density = val
	case "sentiment_file":
		c.Sentiment = val
	case "boundaries_file":
		c.Boundaries = val
	case "year_min", "year_max":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1900 {
			return fmt.Errorf("invalid year for %s: %v", key, val)
		}
		if key == "year_min" {
			c.YearMin = i
		} else {
			c.YearMax = i
		}
	case "license_types":
		var types []string
		for _, p := range strings.Split(val, ",") {
			if p = strings.TrimSpace(p); p != "" {
				types = append(types, p)
			}
		}
		if len(types) == 0 {
			return fmt.Errorf("license_types needs at least one value")
		}
		c.LicenseTypes = types
	case "cache_ttl_sec":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for cache_ttl_sec: %v", val)
		}
		c.CacheTTLSec = i
	case "rules_file":
		c.RulesFile = val
	case "regions":
		switch strings.ToLower(val) {
		case "california", "detailed":
			c.Regions = "california"
		case "simple":
			c.Regions = "simple"
		default:
			return fmt.Errorf("invalid regions: %s (use california or simple)", val)
		}
	case "server_addr":
		c.ServerAddr = val
	case "environment":
		c.Environment = val
	case "debug":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for debug: %w", err)
		}
		c.Debug = b
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
