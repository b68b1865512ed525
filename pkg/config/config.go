/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/iso2709"
)

// Config represents the iso2709 tool configuration
type Config struct {
	Format          FormatConfig `yaml:"format"`
	Label           LabelConfig  `yaml:"label"`
	Charset         string       `yaml:"charset"`
	ContinuedFields bool         `yaml:"continued_fields"`
	DataDir         string       `yaml:"data_dir"`
	Server          Server       `yaml:"server"`
	Logging         Logging      `yaml:"logging"`
}

// FormatConfig holds the five record format digits written to every label
type FormatConfig struct {
	IndicatorLength       int `yaml:"indicator_length"`
	IdentifierLength      int `yaml:"identifier_length"`
	FieldLengthLength     int `yaml:"field_length_length"`
	FieldStartLength      int `yaml:"field_start_length"`
	ImplDefinedPartLength int `yaml:"impl_defined_part_length"`
}

// LabelConfig holds label characters applied to documents that do not set
// their own. Empty values keep the label defaults (spaces).
type LabelConfig struct {
	Status       string `yaml:"status,omitempty"`
	ImplCodes    string `yaml:"impl_codes,omitempty"`
	SystemChars  string `yaml:"system_chars,omitempty"`
	ReservedChar string `yaml:"reserved_char,omitempty"`
}

// Server contains HTTP service configuration
type Server struct {
	Port   int    `yaml:"port"`
	Bind   string `yaml:"bind"`
	APIKey string `yaml:"api_key,omitempty"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration using the MARC 21 layout
func DefaultConfig() *Config {
	f := iso2709.DefaultRecordFormat
	return &Config{
		Format: FormatConfig{
			IndicatorLength:       f.IndicatorLength(),
			IdentifierLength:      f.IdentifierLength(),
			FieldLengthLength:     f.FieldLengthLength(),
			FieldStartLength:      f.FieldStartLength(),
			ImplDefinedPartLength: f.ImplDefinedPartLength(),
		},
		Charset: "US-ASCII",
		DataDir: "./data",
		Server: Server{
			Port: 8080,
			Bind: "127.0.0.1",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// RecordFormat builds the record format described by the configuration
func (c *Config) RecordFormat() (iso2709.RecordFormat, error) {
	f, err := iso2709.NewRecordFormatBuilder().
		IndicatorLength(c.Format.IndicatorLength).
		IdentifierLength(c.Format.IdentifierLength).
		FieldLengthLength(c.Format.FieldLengthLength).
		FieldStartLength(c.Format.FieldStartLength).
		ImplDefinedPartLength(c.Format.ImplDefinedPartLength).
		Build()
	if err != nil {
		return iso2709.RecordFormat{}, fmt.Errorf("invalid format configuration: %w", err)
	}
	return f, nil
}

// CharacterSet resolves the configured charset name
func (c *Config) CharacterSet() (encoding.Encoding, error) {
	enc, err := iso2709.LookupCharset(c.Charset)
	if err != nil {
		return nil, fmt.Errorf("invalid charset configuration: %w", err)
	}
	return enc, nil
}

// Codec builds a record codec from the format, charset and continued
// fields settings
func (c *Config) Codec() (*codec.RecordCodec, error) {
	f, err := c.RecordFormat()
	if err != nil {
		return nil, err
	}
	enc, err := c.CharacterSet()
	if err != nil {
		return nil, err
	}
	opts := []codec.Option{codec.WithFormat(f), codec.WithCharset(enc)}
	if c.ContinuedFields {
		opts = append(opts, codec.WithContinuedFields())
	}
	return codec.NewRecordCodec(opts...), nil
}

// ApplyLabel fills label characters rec leaves empty from the configuration
func (c *Config) ApplyLabel(rec *codec.Record) {
	if rec.Status == "" {
		rec.Status = c.Label.Status
	}
	if rec.ImplCodes == "" {
		rec.ImplCodes = c.Label.ImplCodes
	}
	if rec.SystemChars == "" {
		rec.SystemChars = c.Label.SystemChars
	}
	if rec.ReservedChar == "" {
		rec.ReservedChar = c.Label.ReservedChar
	}
}

// Validate checks that the configuration can build a codec
func (c *Config) Validate() error {
	if _, err := c.Codec(); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Server.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./iso2709.yaml"
	}

	// For Linux/macOS, use ~/.config/iso2709/config.yaml
	return filepath.Join(homeDir, ".config", "iso2709", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
