package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/safar/go-storefront/internal/app"
	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/logger"
)

type cli struct {
	app *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront client: session, cart and orders",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.LogLevel)

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := a.Start(cmd.Context()); err != nil {
				a.Close()
				return fmt.Errorf("restore state: %w", err)
			}
			c.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
		c.resetCmd(),
		c.productsCmd(),
		c.cartCmd(),
		c.checkoutCmd(),
		c.ordersCmd(),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
