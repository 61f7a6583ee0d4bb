package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "~/.abook/addressbook", cfg.AddressBook)
	assert.Equal(t, "", cfg.Procmailrc)
	assert.Equal(t, "$MAILDIR", cfg.Action)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, "plain", cfg.Logging.Format)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
address_book = "/srv/abook/addressbook"
procmailrc = "~/.procmail/allowlist.rc"
action = "/dev/null"

[logging]
level = "debug"
format = "json"
`)

	cfg := NewDefaultConfig()
	require.NoError(t, LoadConfigFromFile(path, &cfg))

	assert.Equal(t, "/srv/abook/addressbook", cfg.AddressBook)
	assert.Equal(t, "~/.procmail/allowlist.rc", cfg.Procmailrc)
	assert.Equal(t, "/dev/null", cfg.Action)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	// Untouched keys keep their defaults.
	assert.Equal(t, "stderr", cfg.Logging.Output)
}

func TestLoadConfigFromFile_UnknownKeys(t *testing.T) {
	path := writeConfig(t, `
action = "$MAILDIR/.Friends/"
typo_setting = 123

[logging]
colour = "always"
`)

	var warnings bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&warnings, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := NewDefaultConfig()
	err := LoadConfigFromFile(path, &cfg)

	// Unknown keys are only warnings.
	require.NoError(t, err)
	assert.Equal(t, "$MAILDIR/.Friends/", cfg.Action)
	assert.Contains(t, warnings.String(), "unknown keys")
	assert.Contains(t, warnings.String(), "typo_setting")
	assert.Contains(t, warnings.String(), "logging.colour")
}

func TestLoadConfigFromFile_Missing(t *testing.T) {
	cfg := NewDefaultConfig()
	err := LoadConfigFromFile(filepath.Join(t.TempDir(), "nope.toml"), &cfg)

	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadConfigFromFile_DuplicateKey(t *testing.T) {
	path := writeConfig(t, "action = \"/dev/null\"\naction = \"$MAILDIR\"\n")

	cfg := NewDefaultConfig()
	err := LoadConfigFromFile(path, &cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HINT")
}

func TestLoadConfigFromFile_UnquotedValue(t *testing.T) {
	path := writeConfig(t, "action = $MAILDIR\n")

	cfg := NewDefaultConfig()
	err := LoadConfigFromFile(path, &cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HINT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		logging LoggingConfig
		wantErr string
	}{
		{name: "defaults", logging: NewDefaultConfig().Logging},
		{name: "empty values fall back", logging: LoggingConfig{}},
		{name: "file output", logging: LoggingConfig{Output: "/var/log/abook2procmail.log", Format: "console", Level: "info"}},
		{name: "bad format", logging: LoggingConfig{Format: "xml"}, wantErr: "logging.format"},
		{name: "bad level", logging: LoggingConfig{Level: "trace"}, wantErr: "logging.level"},
		{name: "directory output", logging: LoggingConfig{Output: "/var/log/"}, wantErr: "logging.output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Logging = tt.logging

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
