package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath      = "~/.config/abook2procmail/config.toml"
	DefaultAddressBookPath = "~/.abook/addressbook"
	DefaultAction          = "$MAILDIR"
)

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Output string `toml:"output"` // Log output: "stderr", "stdout", "syslog", or file path
	Format string `toml:"format"` // Log format: "plain", "console" or "json"
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", "error"
}

// Config holds all configuration for the application.
type Config struct {
	// AddressBook is the abook file to read.
	AddressBook string `toml:"address_book"`

	// Procmailrc is the include file to generate. Empty means stdout.
	Procmailrc string `toml:"procmailrc"`

	// Action is the last line of the recipe, copied verbatim.
	Action string `toml:"action"`

	Logging LoggingConfig `toml:"logging"`
}

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() Config {
	return Config{
		AddressBook: DefaultAddressBookPath,
		Procmailrc:  "",
		Action:      DefaultAction,
		Logging: LoggingConfig{
			Output: "stderr",
			Format: "plain",
			Level:  "warn",
		},
	}
}

var (
	validOutputs = []string{"stderr", "stdout", "syslog"}
	validFormats = []string{"plain", "console", "json"}
	validLevels  = []string{"debug", "info", "warn", "warning", "error"}
)

// Validate checks the logging settings. Paths and the action are not
// checked here; they are used as given.
func (c *Config) Validate() error {
	if c.Logging.Format != "" && !contains(validFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format: unknown format %q (expected one of %s)", c.Logging.Format, strings.Join(validFormats, ", "))
	}
	if c.Logging.Level != "" && !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q (expected one of %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}
	if c.Logging.Output != "" && !contains(validOutputs, c.Logging.Output) && strings.HasSuffix(c.Logging.Output, "/") {
		return fmt.Errorf("logging.output: %q is neither %s nor a file path", c.Logging.Output, strings.Join(validOutputs, ", "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// LoadConfigFromFile decodes the TOML file at configPath on top of cfg.
// Unknown keys are reported as warnings and otherwise ignored.
func LoadConfigFromFile(configPath string, cfg *Config) error {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	metadata, err := toml.Decode(string(content), cfg)
	if err != nil {
		return enhanceConfigError(err)
	}

	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		slog.Warn("Configuration file contains unknown keys that will be ignored",
			"path", configPath, "keys", strings.Join(keys, ", "))
	}
	return nil
}

func enhanceConfigError(err error) error {
	errMsg := err.Error()

	if strings.Contains(errMsg, "has already been defined") {
		return fmt.Errorf("%w\n\nHINT: You have a duplicate configuration key in your TOML file.\n"+
			"Please remove or comment out the duplicate entry.", err)
	}

	if strings.Contains(errMsg, "incompatible types") {
		return fmt.Errorf("%w\n\nHINT: A configuration value has the wrong type.\n"+
			"address_book, procmailrc, action and all [logging] settings are strings and must be quoted.", err)
	}

	if strings.Contains(errMsg, "expected") || strings.Contains(errMsg, "invalid") {
		return fmt.Errorf("%w\n\nHINT: There is a syntax error in your TOML configuration file.\n"+
			"Remember that values such as $MAILDIR must be quoted: action = \"$MAILDIR\"", err)
	}

	return err
}
