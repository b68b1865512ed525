/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/iso2709/pkg/api"
	"github.com/ssargent/iso2709/pkg/metrics"
	"github.com/ssargent/iso2709/pkg/storage"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port      int
		bind      string
		apiKey    string
		noArchive bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the HTTP service that decodes and encodes records and, unless
--no-archive is given, serves the local record archive.

Port, bind address and API key default to the server section of the config
file. When an API key is set, every /api/v1 request must carry it in the
X-API-Key header.

Examples:
  iso2709 serve
  iso2709 serve --port 9000 --api-key=mysecretkey
  iso2709 serve --bind 0.0.0.0 --no-archive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			if cmd.Flags().Changed("bind") {
				a.cfg.Server.Bind = bind
			}
			if cmd.Flags().Changed("api-key") {
				a.cfg.Server.APIKey = apiKey
			}

			c, err := a.cfg.Codec()
			if err != nil {
				return err
			}

			reg := getContainer().Registry()
			deps := api.Dependencies{
				Codec:    c,
				Metrics:  metrics.New(reg),
				Gatherer: reg,
			}

			if !noArchive {
				path := a.archivePath()
				archive, err := getContainer().OpenArchive(path, storage.Options{})
				if err != nil {
					return err
				}
				defer func() {
					if err := archive.Close(); err != nil {
						log.Errorw("closing archive", "path", path, "error", err)
					}
				}()
				deps.Archive = archive
				log.Infow("serving archive", "path", path)
			}

			if a.cfg.Server.APIKey == "" {
				log.Warn("no API key configured, /api/v1 is unauthenticated")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			config := api.ServerConfig{
				Port:   a.cfg.Server.Port,
				Bind:   a.cfg.Server.Bind,
				APIKey: a.cfg.Server.APIKey,
			}
			starter := getContainer().GetServerFactory().CreateServerStarter()
			if err := starter.StartServer(ctx, config, deps); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVar(&bind, "bind", "127.0.0.1", "Address to bind to")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key required in the X-API-Key header")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "Serve only the codec endpoints")
	return cmd
}
