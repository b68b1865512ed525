package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/iso2709"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, FormatConfig{
		IndicatorLength:       2,
		IdentifierLength:      2,
		FieldLengthLength:     4,
		FieldStartLength:      5,
		ImplDefinedPartLength: 0,
	}, config.Format)
	assert.Equal(t, "US-ASCII", config.Charset)
	assert.False(t, config.ContinuedFields)
	assert.Equal(t, "./data", config.DataDir)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Bind)
	assert.Empty(t, config.Server.APIKey)
	assert.Equal(t, "info", config.Logging.Level)
	assert.NoError(t, config.Validate())
}

func TestConfig_RecordFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  FormatConfig
		want    string
		wantErr bool
	}{
		{
			name:   "marc21",
			format: DefaultConfig().Format,
			want:   iso2709.DefaultRecordFormat.String(),
		},
		{
			name:   "unimarc with impl part",
			format: FormatConfig{2, 3, 4, 5, 1},
			want: iso2709.NewRecordFormatBuilder().
				IdentifierLength(3).
				ImplDefinedPartLength(1).
				MustBuild().String(),
		},
		{
			name:    "indicator length too large",
			format:  FormatConfig{10, 2, 4, 5, 0},
			wantErr: true,
		},
		{
			name:    "zero field length length",
			format:  FormatConfig{2, 2, 0, 5, 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Format = tt.format

			f, err := config.RecordFormat()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid format configuration")
				assert.ErrorIs(t, err, iso2709.ErrInvalidArgument)
				assert.Error(t, config.Validate())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.String())
		})
	}
}

func TestConfig_CharacterSet(t *testing.T) {
	config := DefaultConfig()
	enc, err := config.CharacterSet()
	require.NoError(t, err)
	assert.Equal(t, encoding.Encoding(encoding.Nop), enc)

	config.Charset = "ISO-8859-1"
	enc, err = config.CharacterSet()
	require.NoError(t, err)
	assert.Equal(t, encoding.Encoding(charmap.ISO8859_1), enc)

	config.Charset = "no-such-charset"
	_, err = config.CharacterSet()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid charset configuration")
	assert.Error(t, config.Validate())
}

func TestConfig_Codec(t *testing.T) {
	config := DefaultConfig()
	config.Format.ImplDefinedPartLength = 1

	c, err := config.Codec()
	require.NoError(t, err)
	assert.Equal(t, 1, c.Format().ImplDefinedPartLength())

	data, err := c.Encode(&codec.Record{Fields: []codec.Field{
		{Tag: "001", ImplDefinedPart: "x", Value: "id-1"},
	}})
	require.NoError(t, err)
	rec, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "id-1", rec.ID())
}

func TestConfig_ApplyLabel(t *testing.T) {
	config := DefaultConfig()
	config.Label = LabelConfig{Status: "n", ImplCodes: "am  ", SystemChars: "a  ", ReservedChar: "x"}

	rec := &codec.Record{Status: "c"}
	config.ApplyLabel(rec)

	assert.Equal(t, "c", rec.Status)
	assert.Equal(t, "am  ", rec.ImplCodes)
	assert.Equal(t, "a  ", rec.SystemChars)
	assert.Equal(t, "x", rec.ReservedChar)
}

func TestConfig_ValidatePort(t *testing.T) {
	config := DefaultConfig()
	config.Server.Port = 70000
	assert.Error(t, config.Validate())
}

func TestLoadConfig(t *testing.T) {
	t.Run("load valid config", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "iso2709_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "config.yaml")
		expectedConfig := &Config{
			Format:          FormatConfig{2, 3, 4, 5, 2},
			Label:           LabelConfig{Status: "n"},
			Charset:         "ISO-8859-1",
			ContinuedFields: true,
			DataDir:         "/tmp/records",
			Server:          Server{Port: 9090, Bind: "0.0.0.0", APIKey: "k"},
			Logging:         Logging{Level: "debug"},
		}

		data, err := yaml.Marshal(expectedConfig)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(configPath, data, 0600))

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "iso2709_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "partial.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("charset: ISO-8859-1\nserver:\n  port: 9999\n"), 0600))

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, "ISO-8859-1", loadedConfig.Charset)
		assert.Equal(t, 9999, loadedConfig.Server.Port)
		assert.Equal(t, "127.0.0.1", loadedConfig.Server.Bind)
		assert.Equal(t, DefaultConfig().Format, loadedConfig.Format)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "iso2709_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "invalid.yaml")
		err = os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		_, err = LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestSaveConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "iso2709_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "nested", "config.yaml")
	config := DefaultConfig()

	err = SaveConfig(config, configPath)
	require.NoError(t, err)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestBootstrapConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "iso2709_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	dataDir := "/custom/data/dir"

	config, err := BootstrapConfig(configPath, dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, config.DataDir)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Len(t, config.Server.APIKey, 64)
	_, err = hex.DecodeString(config.Server.APIKey)
	assert.NoError(t, err)

	assert.True(t, ConfigExists(configPath))

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "iso2709")
	assert.Contains(t, path, "config.yaml")
}

func TestConfigExists(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "iso2709_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	existingPath := filepath.Join(tmpDir, "exists.yaml")
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	err = os.WriteFile(existingPath, []byte("test"), 0644)
	require.NoError(t, err)

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(nonExistentPath))
}

func TestSaveConfigErrorHandling(t *testing.T) {
	config := DefaultConfig()

	// A regular file cannot be used as a parent directory, even by root.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	err := SaveConfig(config, filepath.Join(blocker, "nested", "config.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}
