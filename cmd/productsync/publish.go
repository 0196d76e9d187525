package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sokol111/ecommerce-product-sync/internal/app"
	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/publisher"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type productFlags struct {
	id      int
	name    string
	price   string
	version uint64
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.id, "id", 0, "Product id (required)")
	cmd.Flags().StringVar(&f.name, "name", "", "Product name")
	cmd.Flags().StringVar(&f.price, "price", "0", "Product price")
	cmd.Flags().Uint64Var(&f.version, "version", 0, "Row version (required)")

	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("version")
}

func newPublishCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a product event synchronously",
		Long: `Publish a product event synchronously through the configured transport.

Useful for replaying events the catalog failed to announce.

Example:
  productsync publish updated --id 1 --name Widget --price 12 --version 2

The in-memory transport is refused: set transport.kind=kafka.`,
	}

	cmd.AddCommand(
		newPublishEventCmd(root, "created", func(f productFlags, price decimal.Decimal) event.Event {
			return &event.ProductCreated{ID: f.id, Name: f.name, Price: price, VersionToken: event.NewVersionToken(f.version)}
		}),
		newPublishEventCmd(root, "updated", func(f productFlags, price decimal.Decimal) event.Event {
			return &event.ProductUpdated{ID: f.id, Name: f.name, Price: price, VersionToken: event.NewVersionToken(f.version)}
		}),
	)
	return cmd
}

type validator interface {
	Validate() error
}

func newPublishEventCmd(root *rootOptions, use string, build func(productFlags, decimal.Decimal) event.Event) *cobra.Command {
	var f productFlags

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Publish a product %s event", use),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.version == 0 {
				return errors.New("--version must be positive")
			}
			price, err := decimal.NewFromString(f.price)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", f.price, err)
			}
			e := build(f, price)
			if v, ok := e.(validator); ok {
				if err := v.Validate(); err != nil {
					return err
				}
			}

			v, err := root.viper()
			if err != nil {
				return err
			}
			opts, err := app.Publishing(v, root.coreOptions()...)
			if err != nil {
				return err
			}

			var pub publisher.EventPublisher
			err = runOnce(cmd.Context(), fx.Options(opts, fx.Populate(&pub)), func(ctx context.Context) error {
				return pub.Publish(ctx, e)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s for product %d\n", e.EventKind(), f.id)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
