package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow/internal/server"
	"github.com/goliatone/go-formflow/pkg/frontend"
)

func newServeCmd(a *app) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve forms over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if address == "" {
				address = a.cfg.Server.Address
			}

			catalog, err := a.loadCatalog(ctx)
			if err != nil {
				return err
			}
			submissions, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeStore(); err != nil {
					a.logger.Error(err, "close store")
				}
			}()
			issuer, err := a.issuer()
			if err != nil {
				return err
			}
			registry, err := a.chartRegistry()
			if err != nil {
				return err
			}
			localizer, err := a.localizer()
			if err != nil {
				return err
			}

			opts := []server.Option{
				server.WithLogger(a.logger.WithName("server")),
				server.WithCharts(registry, a.cfg.Charts.DefaultCreator),
				server.WithAssetBase(a.cfg.Charts.AssetBase),
				server.WithOwnerCookie(a.cfg.Security.OwnerCookie, false),
				server.WithLocalizer(localizer),
			}
			if manifest := a.cfg.Theme.Manifest; manifest != "" {
				overrides, err := frontend.LoadThemeOverrides(manifest, a.cfg.Theme.Variant)
				if err != nil {
					return err
				}
				opts = append(opts, server.WithOverrides(overrides))
			}

			srv, err := server.New(catalog, submissions, issuer, opts...)
			if err != nil {
				return err
			}
			return srv.Start(ctx, address)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides server.address)")
	return cmd
}
