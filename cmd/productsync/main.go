// Package main provides the productsync CLI.
//
// Usage:
//
//	productsync serve --config ./config.yaml
//	productsync publish created --id 1 --name Widget --price 10 --version 1
//	productsync products by-price --op gt --price 10
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Sokol111/ecommerce-product-sync/pkg/core"
	"github.com/Sokol111/ecommerce-product-sync/pkg/core/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "productsync",
		Short:         "Keep the product read model in sync with the catalog",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", os.Getenv("CONFIG_FILE"), "Configuration file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "File with environment variables, ignored when absent")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newPublishCmd(opts),
		newProductsCmd(opts),
	)

	return rootCmd
}

func (o *rootOptions) viper() (*viper.Viper, error) {
	return config.NewViper(config.FilePath(o.configFile))
}

func (o *rootOptions) coreOptions() []core.Option {
	return []core.Option{core.WithEnvFile(o.envFile)}
}

// runOnce starts the application, calls fn and stops the application again.
func runOnce(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	app := fx.New(opts)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	runErr := fn(ctx)

	stopCtx, cancelStop := context.WithTimeout(context.WithoutCancel(ctx), app.StopTimeout())
	defer cancelStop()
	return errors.Join(runErr, app.Stop(stopCtx))
}
