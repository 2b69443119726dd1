package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/internal/logging"
	"github.com/fivetwenty-io/hal-client/pkg/cache"
)

const headerKeyPrefix = "headers."

// Config represents the CLI configuration.
type Config struct {
	API      string            `json:"api,omitempty"       yaml:"api,omitempty"`
	Token    string            `json:"token,omitempty"     yaml:"token,omitempty"`
	Output   string            `json:"output,omitempty"    yaml:"output,omitempty"`
	Timeout  string            `json:"timeout,omitempty"   yaml:"timeout,omitempty"`
	RetryMax int               `json:"retry_max,omitempty" yaml:"retry_max,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"   yaml:"headers,omitempty"`
	Log      LogConfig         `json:"log"                 yaml:"log"`
	Cache    CacheConfig       `json:"cache"               yaml:"cache"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	Level  string `json:"level,omitempty"  yaml:"level,omitempty"`
}

// CacheConfig selects the response cache used by --cache-key.
type CacheConfig struct {
	Type       string `json:"type,omitempty"        yaml:"type,omitempty"`
	Dir        string `json:"dir,omitempty"         yaml:"dir,omitempty"`
	TTL        string `json:"ttl,omitempty"         yaml:"ttl,omitempty"`
	NATSURL    string `json:"nats_url,omitempty"    yaml:"nats_url,omitempty"`
	NATSBucket string `json:"nats_bucket,omitempty" yaml:"nats_bucket,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the halc configuration stored in $HOME/.halc/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigSetTokenCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.Token != "" {
				config.Token = constants.MaskedSecret
			}

			out := cmd.OutOrStdout()

			switch outputFormat(out) {
			case constants.FormatJSON:
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

				return encoder.Encode(config)
			case constants.FormatYAML:
				encoder := yaml.NewEncoder(out)

				return encoder.Encode(config)
			default:
				return displayConfigTable(out, config)
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Keys: api, token, output, timeout, retry_max,
log.format, log.level, cache.type, cache.dir, cache.ttl, cache.nats_url,
cache.nats_bucket and headers.<Name>.`,
		Args: cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			config := loadConfig()

			if err := setConfigValue(config, key, value); err != nil {
				return err
			}

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if key == "token" {
				value = constants.MaskedSecret
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %s\n", key, value)

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value so the default applies again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			config := loadConfig()

			if err := unsetConfigValue(config, key); err != nil {
				return err
			}

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", key)

			return nil
		},
	}
}

func newConfigSetTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token [TOKEN]",
		Short: "Store the bearer token",
		Long:  "Store the bearer token sent as Authorization header. Without an argument the token is read from the terminal without echo.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string

			if len(args) == 1 {
				token = args[0]
			} else {
				read, err := readSecret(cmd.ErrOrStderr(), "Token: ")
				if err != nil {
					return err
				}

				token = read
			}

			if token == "" {
				return ErrEmptyToken
			}

			config := loadConfig()
			config.Token = token

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Token stored")

			return nil
		},
	}
}

func loadConfig() *Config {
	config := &Config{
		API:      viper.GetString("api"),
		Token:    viper.GetString("token"),
		Output:   viper.GetString("output"),
		Timeout:  viper.GetString("timeout"),
		RetryMax: viper.GetInt("retry_max"),
		Headers:  viper.GetStringMapString("headers"),
		Log: LogConfig{
			Format: viper.GetString("log.format"),
			Level:  viper.GetString("log.level"),
		},
		Cache: CacheConfig{
			Type:       viper.GetString("cache.type"),
			Dir:        viper.GetString("cache.dir"),
			TTL:        viper.GetString("cache.ttl"),
			NATSURL:    viper.GetString("cache.nats_url"),
			NATSBucket: viper.GetString("cache.nats_bucket"),
		},
	}

	if len(config.Headers) == 0 {
		config.Headers = nil
	}

	return config
}

//nolint:cyclop // one case per configuration key
func setConfigValue(config *Config, key, value string) error {
	if name, ok := strings.CutPrefix(key, headerKeyPrefix); ok && name != "" {
		if config.Headers == nil {
			config.Headers = make(map[string]string)
		}

		config.Headers[name] = value

		return nil
	}

	switch key {
	case "api":
		config.API = value
	case "token":
		config.Token = value
	case "output":
		if !slices.Contains([]string{constants.FormatJSON, constants.FormatYAML, constants.FormatTable}, value) {
			return fmt.Errorf("%w: output must be json, yaml or table", ErrInvalidConfigValue)
		}

		config.Output = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: timeout: %w", ErrInvalidConfigValue, err)
		}

		config.Timeout = value
	case "retry_max":
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 0 {
			return fmt.Errorf("%w: retry_max must be a non-negative integer", ErrInvalidConfigValue)
		}

		config.RetryMax = retries
	case "log.format":
		if value != logging.FormatZerolog && value != logging.FormatHCLog {
			return fmt.Errorf("%w: log.format must be zerolog or hclog", ErrInvalidConfigValue)
		}

		config.Log.Format = value
	case "log.level":
		config.Log.Level = value
	case "cache.type":
		switch cache.Type(value) {
		case cache.TypeMemory, cache.TypeFile, cache.TypeNATS, cache.TypeNone:
		default:
			return fmt.Errorf("%w: %s", cache.ErrUnsupportedCacheType, value)
		}

		config.Cache.Type = value
	case "cache.dir":
		config.Cache.Dir = value
	case "cache.ttl":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: cache.ttl: %w", ErrInvalidConfigValue, err)
		}

		config.Cache.TTL = value
	case "cache.nats_url":
		config.Cache.NATSURL = value
	case "cache.nats_bucket":
		config.Cache.NATSBucket = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	return nil
}

func unsetConfigValue(config *Config, key string) error {
	if name, ok := strings.CutPrefix(key, headerKeyPrefix); ok {
		delete(config.Headers, name)

		return nil
	}

	switch key {
	case "api":
		config.API = ""
	case "token":
		config.Token = ""
	case "output":
		config.Output = ""
	case "timeout":
		config.Timeout = ""
	case "retry_max":
		config.RetryMax = 0
	case "log.format":
		config.Log.Format = ""
	case "log.level":
		config.Log.Level = ""
	case "cache.type":
		config.Cache.Type = ""
	case "cache.dir":
		config.Cache.Dir = ""
	case "cache.ttl":
		config.Cache.TTL = ""
	case "cache.nats_url":
		config.Cache.NATSURL = ""
	case "cache.nats_bucket":
		config.Cache.NATSBucket = ""
	default:
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	return nil
}

// configFilePath returns the file in use, or $HOME/.halc/config.yml.
func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".halc", "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func displayConfigTable(out io.Writer, config *Config) error {
	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	_ = table.Append([]string{"API", valueOrNA(config.API)})
	_ = table.Append([]string{"Token", valueOrNA(config.Token)})
	_ = table.Append([]string{"Output", valueOrNA(config.Output)})
	_ = table.Append([]string{"Timeout", valueOrNA(config.Timeout)})
	_ = table.Append([]string{"Retry Max", strconv.Itoa(config.RetryMax)})
	_ = table.Append([]string{"Log Format", valueOrNA(config.Log.Format)})
	_ = table.Append([]string{"Log Level", valueOrNA(config.Log.Level)})
	_ = table.Append([]string{"Cache Type", valueOrNA(config.Cache.Type)})
	_ = table.Append([]string{"Cache Dir", valueOrNA(config.Cache.Dir)})
	_ = table.Append([]string{"Cache TTL", valueOrNA(config.Cache.TTL)})
	_ = table.Append([]string{"NATS URL", valueOrNA(config.Cache.NATSURL)})
	_ = table.Append([]string{"NATS Bucket", valueOrNA(config.Cache.NATSBucket)})

	names := make([]string, 0, len(config.Headers))
	for name := range config.Headers {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		_ = table.Append([]string{"Header " + name, config.Headers[name]})
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func valueOrNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}
