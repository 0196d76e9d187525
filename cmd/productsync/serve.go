package main

import (
	"github.com/Sokol111/ecommerce-product-sync/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume product events and apply them to the projection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := root.viper()
			if err != nil {
				return err
			}
			opts, err := app.Serve(v, root.coreOptions()...)
			if err != nil {
				return err
			}

			a := fx.New(opts)
			if err := a.Err(); err != nil {
				return err
			}
			a.Run()
			return nil
		},
	}
}
