package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/Sokol111/ecommerce-product-sync/internal/app"
	"github.com/Sokol111/ecommerce-product-sync/pkg/projection"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newProductsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Query the product projection (projection.store=mongo)",
	}
	cmd.AddCommand(
		newListCmd(root),
		newGetCmd(root),
		newByPriceCmd(root),
	)
	return cmd
}

func newListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(cmd, root, func(ctx context.Context, r projection.Reader) ([]projection.Record, error) {
				return r.FindAll(ctx)
			})
		},
	}
}

func newGetCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q: %w", args[0], err)
			}
			return query(cmd, root, func(ctx context.Context, r projection.Reader) ([]projection.Record, error) {
				rec, err := r.FindByID(ctx, id)
				if err != nil {
					return nil, err
				}
				return []projection.Record{rec}, nil
			})
		},
	}
}

func newByPriceCmd(root *rootOptions) *cobra.Command {
	var (
		op    string
		price string
	)

	cmd := &cobra.Command{
		Use:   "by-price",
		Short: "List products whose price compares to the given one",
		Long: `List products whose price compares to the given one.

Operators: eq, ne, gt, gte, lt, lte (or ==, !=, >, >=, <, <=).

Example:
  productsync products by-price --op gt --price 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			priceOp, err := projection.ParsePriceOp(op)
			if err != nil {
				return err
			}
			target, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", price, err)
			}
			return query(cmd, root, func(ctx context.Context, r projection.Reader) ([]projection.Record, error) {
				return r.FindByPrice(ctx, target, priceOp)
			})
		},
	}

	cmd.Flags().StringVar(&op, "op", "eq", "Comparison operator")
	cmd.Flags().StringVar(&price, "price", "", "Price to compare with (required)")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func query(cmd *cobra.Command, root *rootOptions, fn func(context.Context, projection.Reader) ([]projection.Record, error)) error {
	v, err := root.viper()
	if err != nil {
		return err
	}
	opts, err := app.Querying(v, root.coreOptions()...)
	if err != nil {
		return err
	}

	var reader projection.Reader
	return runOnce(cmd.Context(), fx.Options(opts, fx.Populate(&reader)), func(ctx context.Context) error {
		records, err := fn(ctx, reader)
		if err != nil {
			return err
		}
		return printRecords(cmd.OutOrStdout(), records)
	})
}

func printRecords(w io.Writer, records []projection.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no products")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tVERSION")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Name, r.Price.StringFixed(2), r.VersionToken)
	}
	return tw.Flush()
}
