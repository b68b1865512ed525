/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strconv"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"

	"github.com/ssargent/iso2709/pkg/config"
	"github.com/ssargent/iso2709/pkg/di"
)

var log = logging.Logger("iso2709/cli")

var container *di.Container

// SetContainer injects the dependency container used by the commands
func SetContainer(c *di.Container) {
	container = c
}

// getContainer returns the injected container, creating a default one when
// none was set.
func getContainer() *di.Container {
	if container == nil {
		container = di.NewContainer()
	}
	return container
}

// configOptional marks commands that run without an existing config file.
const configOptional = "config-optional"

// app carries the state shared by the commands of one invocation.
type app struct {
	configPath   string
	logLevel     string
	charset      string
	recordFormat string
	cfg          *config.Config
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "iso2709",
		Short: "ISO 2709 record encoder and decoder",
		Long: `iso2709 reads and writes bibliographic records in the ISO 2709
exchange format (MARC 21, UNIMARC and other layouts).

Records are converted to and from YAML or JSON documents, inspected,
validated, stored in a local archive and served over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"Config file (default "+config.GetDefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.charset, "charset", "", "IANA charset name overriding the config")
	rootCmd.PersistentFlags().StringVar(&a.recordFormat, "record-format", "",
		"Five format digits overriding the config, e.g. 22450 for MARC 21")

	rootCmd.AddCommand(
		newEncodeCmd(a),
		newDecodeCmd(a),
		newDumpCmd(a),
		newValidateCmd(a),
		newArchiveCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// load resolves the configuration, applies flag overrides and sets the log
// level.
func (a *app) load(cmd *cobra.Command) error {
	path := a.configPath
	explicit := path != ""
	if !explicit {
		path = config.GetDefaultConfigPath()
	}

	switch {
	case config.ConfigExists(path):
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	case explicit && cmd.Annotations[configOptional] == "":
		return fmt.Errorf("config file does not exist: %s", path)
	default:
		a.cfg = config.DefaultConfig()
	}
	a.configPath = path

	if a.charset != "" {
		a.cfg.Charset = a.charset
	}
	if a.recordFormat != "" {
		f, err := parseFormatDigits(a.recordFormat)
		if err != nil {
			return err
		}
		a.cfg.Format = f
	}

	level := a.cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	if level != "" {
		lvl, err := logging.LevelFromString(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		logging.SetAllLoggers(lvl)
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}
	log.Debugw("configuration loaded", "path", path, "format", a.cfg.Format, "charset", a.cfg.Charset)
	return nil
}

// parseFormatDigits reads the five label format digits: indicator length,
// identifier length, field length length, field start length and
// implementation-defined part length.
func parseFormatDigits(s string) (config.FormatConfig, error) {
	if len(s) != 5 {
		return config.FormatConfig{}, fmt.Errorf("record format %q must have 5 digits", s)
	}
	var d [5]int
	for i := range d {
		v, err := strconv.Atoi(s[i : i+1])
		if err != nil {
			return config.FormatConfig{}, fmt.Errorf("record format %q: %w", s, err)
		}
		d[i] = v
	}
	return config.FormatConfig{
		IndicatorLength:       d[0],
		IdentifierLength:      d[1],
		FieldLengthLength:     d[2],
		FieldStartLength:      d[3],
		ImplDefinedPartLength: d[4],
	}, nil
}
