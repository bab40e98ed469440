package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/marketplace-cart/internal/application"
	"github.com/spf13/cobra"
)

// cartAnnotation marks commands that run inside a cart session.
const cartAnnotation = "mcart/cart-session"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mcart",
		Short:         "Marketplace cart (mcart): a persistent shopping cart in your terminal",
		Long:          "mcart keeps a shopping cart between runs: add products, change quantities and review the cart. Every change is saved to a local key-value slot.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if !inCartSession(cmd) {
			return nil
		}
		return openCartSession(cmd, app)
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, _ []string) error {
		if !inCartSession(cmd) {
			return nil
		}
		return closeCartSession(cmd)
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newCartCmd(app),
		newProductsCmd(app),
	)

	return rootCmd
}

func inCartSession(cmd *cobra.Command) bool {
	return cmd.Annotations[cartAnnotation] == "true"
}

// openCartSession hydrates a fresh ledger and installs it in the command
// context. A stored cart that cannot be read is logged by the ledger and the
// session starts empty.
func openCartSession(cmd *cobra.Command, app *app) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ledger := app.newLedger(cmd.ErrOrStderr())
	// Hydrate errors are already logged at warn level by the ledger, and the
	// session continues with an empty cart.
	_ = ledger.Hydrate(ctx)

	cmd.SetContext(application.ContextWithCart(ctx, ledger))
	return nil
}

func closeCartSession(cmd *cobra.Command) error {
	ledger, err := application.CartFromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := saveCart(cmd.Context(), cmd.ErrOrStderr(), ledger); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}

	return nil
}
