package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/migadu/abook2procmail/addressbook"
	"github.com/migadu/abook2procmail/config"
	"github.com/migadu/abook2procmail/consts"
	"github.com/migadu/abook2procmail/helpers"
	"github.com/migadu/abook2procmail/logger"
	"github.com/migadu/abook2procmail/pkg/errors"
	"github.com/migadu/abook2procmail/procmailrc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version information, injected at build time.
var (
	version = "0.3.1"
	commit  = "none"
	date    = "unknown"
)

const license = "GPLv3"

type options struct {
	configPath  string
	addressBook string
	procmailrc  string
	action      string
	logLevel    string

	// logFile is set when logging goes to a file. It stays open until the
	// final error, if any, has been logged.
	logFile *os.File
}

func main() {
	os.Exit(runMain(os.Args[1:], os.Stdout, helpers.ExpandHome))
}

// runMain executes the command with args and returns the exit status. A
// failure is logged exactly once, before the log file is closed.
func runMain(args []string, stdout io.Writer, resolve helpers.PathResolver) int {
	if _, err := logger.Initialize(config.NewDefaultConfig().Logging); err != nil {
		fmt.Fprintf(os.Stderr, "abook2procmail: %v\n", err)
	}

	opts := &options{}
	cmd := newRootCommand(opts, stdout, resolve)
	// A nil slice would make cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))

	err := cmd.Execute()
	if err != nil {
		logger.Error(describe(err))
	}
	if opts.logFile != nil {
		opts.logFile.Close()
	}
	return errors.ExitCode(err)
}

func newRootCommand(opts *options, stdout io.Writer, resolve helpers.PathResolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abook2procmail",
		Short: "Turn abook address book into a procmail filter rule",
		Long: `abook2procmail reads an abook address book and writes a procmail include file
holding one recipe that matches the From header of every contact. Include it
from your procmailrc to deliver mail from known senders with the given action.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Flags(), opts, resolve, stdout)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} v{{.Version}}, License: %s\n", license))

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultConfigPath, "Path to TOML configuration file")
	flags.StringVarP(&opts.addressBook, "address-book", "a", config.DefaultAddressBookPath, "Path to the address book file")
	flags.StringVarP(&opts.procmailrc, "procmailrc", "p", "", "Path to generated procmailrc include file (overwritten) [default: stdout]")
	flags.StringVarP(&opts.action, "action", "t", config.DefaultAction,
		"Procmail action line override to store e-mail somewhere else than the default INBOX. "+
			"Use /dev/null to discard messages, e.g. for spam filtering.")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	return cmd
}

func run(flags *pflag.FlagSet, opts *options, resolve helpers.PathResolver, stdout io.Writer) error {
	cfg := config.NewDefaultConfig()
	if err := loadConfig(flags, opts.configPath, resolve, &cfg); err != nil {
		return err
	}
	applyFlags(flags, opts, &cfg)

	if err := cfg.Validate(); err != nil {
		return errors.NewPathError("validate", opts.configPath, consts.ErrConfigInvalid, err)
	}

	logFile, err := logger.Initialize(cfg.Logging)
	if err != nil {
		logger.Warnf("Logger setup: %v", err)
	}
	opts.logFile = logFile
	logger.Debug("abook2procmail starting", "version", version, "commit", commit, "built", date)
	logger.Debug("Configuration loaded", "address_book", cfg.AddressBook, "procmailrc", cfg.Procmailrc, "action", cfg.Action)

	abookPath, err := resolve(cfg.AddressBook)
	if err != nil {
		return errors.NewPathError("resolve", cfg.AddressBook, consts.ErrInputNotFound, err)
	}
	addrs, err := addressbook.ExtractEmails(abookPath)
	if err != nil {
		return err
	}
	logger.Debug("Extracted addresses", "path", abookPath, "count", len(addrs))

	rs := procmailrc.NewRuleSet(addrs, cfg.Action)

	var rcPath string
	if cfg.Procmailrc != "" {
		if rcPath, err = resolve(cfg.Procmailrc); err != nil {
			return errors.NewPathError("resolve", cfg.Procmailrc, consts.ErrOutputWriteFailure, err)
		}
	}
	if err := procmailrc.Output(rcPath, rs, stdout); err != nil {
		return err
	}
	if rcPath != "" {
		logger.Info("Wrote rule file", "path", rcPath, "conditions", len(rs.Conditions))
	}
	return nil
}

// loadConfig decodes the configuration file over cfg. A missing file is
// only an error when its path was given explicitly.
func loadConfig(flags *pflag.FlagSet, configPath string, resolve helpers.PathResolver, cfg *config.Config) error {
	path, err := resolve(configPath)
	if err != nil {
		return errors.NewPathError("load", configPath, consts.ErrConfigNotFound, err)
	}

	if err := config.LoadConfigFromFile(path, cfg); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			if flags.Changed("config") {
				return errors.NewPathError("load", path, consts.ErrConfigNotFound, err)
			}
			logger.Debug("Default configuration file not found, using defaults", "path", path)
			return nil
		}
		return errors.NewPathError("load", path, consts.ErrConfigInvalid, err)
	}
	logger.Debug("Loaded configuration", "path", path)
	return nil
}

// applyFlags copies explicitly set flags over the configuration.
func applyFlags(flags *pflag.FlagSet, opts *options, cfg *config.Config) {
	if flags.Changed("address-book") {
		cfg.AddressBook = opts.addressBook
	}
	if flags.Changed("procmailrc") {
		cfg.Procmailrc = opts.procmailrc
	}
	if flags.Changed("action") {
		cfg.Action = opts.action
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
}
