/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/iso2709/pkg/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var (
		dataDir string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration with a generated API key",
		Long: `Write a configuration file with the MARC 21 record format, the
US-ASCII charset and a freshly generated API key for the HTTP service.

Examples:
  iso2709 config init
  iso2709 --config ./iso2709.yaml config init --data-dir ./data --force`,
		Annotations: map[string]string{configOptional: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ConfigExists(a.configPath) && !force {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", a.configPath)
			}

			cfg, err := config.BootstrapConfig(a.configPath, dataDir)
			if err != nil {
				return err
			}

			cmd.Printf("✅ Configuration written to %s\n", a.configPath)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			cmd.Printf("API key: %s\n", cfg.Server.APIKey)
			cmd.Printf("\nYou can now start the server with:\n")
			cmd.Printf("  iso2709 --config %s serve\n", a.configPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory for the record archive (default ./data)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration",
		Annotations: map[string]string{configOptional: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", a.configPath, data)
			return nil
		},
	}
}
