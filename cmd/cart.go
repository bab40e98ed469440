package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	cartrender "github.com/bnema/marketplace-cart/internal/adapters/render/cart"
	"github.com/bnema/marketplace-cart/internal/application"
	"github.com/bnema/marketplace-cart/internal/domain"
	"github.com/spf13/cobra"
)

func newCartCmd(app *app) *cobra.Command {
	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
	}

	cartCmd.AddCommand(
		newCartShowCmd(app),
		newCartAddCmd(app),
		newCartIncCmd(),
		newCartDecCmd(),
		newCartResetCmd(app),
	)

	return cartCmd
}

func cartSessionAnnotations() map[string]string {
	return map[string]string{cartAnnotation: "true"}
}

func newCartShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "show",
		Short:       "Show the cart",
		Args:        cobra.NoArgs,
		Annotations: cartSessionAnnotations(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := application.CartFromContext(cmd.Context())
			if err != nil {
				return err
			}

			return writeCartOutput(cmd, app, ledger, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the cart as JSON")

	return cmd
}

func newCartAddCmd(app *app) *cobra.Command {
	var (
		title    string
		imageURL string
		price    float64
	)

	cmd := &cobra.Command{
		Use:         "add <product-id>",
		Short:       "Add a product, or one more of it when already in the cart",
		Args:        cobra.ExactArgs(1),
		Annotations: cartSessionAnnotations(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := application.CartFromContext(cmd.Context())
			if err != nil {
				return err
			}

			id := domain.ProductID(args[0])
			var product domain.Product
			if cmd.Flags().Changed("title") || cmd.Flags().Changed("image-url") || cmd.Flags().Changed("price") {
				product = domain.Product{ID: id, Title: title, ImageURL: imageURL, Price: price}
			} else {
				product, err = app.catalog.GetProduct(cmd.Context(), id)
				if err != nil {
					if errors.Is(err, domain.ErrProductNotFound) {
						return fmt.Errorf("product %s is not in the catalog, pass --title/--price to add it anyway: %w", id, err)
					}
					return err
				}
			}
			if err := product.Validate(); err != nil {
				return err
			}

			ledger.AddToCart(product)
			return writeQuantityLine(cmd, ledger, id)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Product title")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "Product image URL")
	cmd.Flags().Float64Var(&price, "price", 0, "Product unit price")

	return cmd
}

func newCartIncCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "inc <product-id>",
		Short:       "Increase the quantity of a cart item by one",
		Args:        cobra.ExactArgs(1),
		Annotations: cartSessionAnnotations(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := application.CartFromContext(cmd.Context())
			if err != nil {
				return err
			}

			id := domain.ProductID(args[0])
			ledger.Increment(id)
			return writeQuantityLine(cmd, ledger, id)
		},
	}
}

func newCartDecCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "dec <product-id>",
		Short:       "Decrease the quantity of a cart item by one, never below one",
		Args:        cobra.ExactArgs(1),
		Annotations: cartSessionAnnotations(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := application.CartFromContext(cmd.Context())
			if err != nil {
				return err
			}

			id := domain.ProductID(args[0])
			ledger.Decrement(id)
			return writeQuantityLine(cmd, ledger, id)
		},
	}
}

func newCartResetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the saved cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.store.Delete(cmd.Context(), application.CartStorageKey); err != nil {
				return fmt.Errorf("reset cart: %w", err)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
			return err
		},
	}
}

func writeQuantityLine(cmd *cobra.Command, ledger *application.Ledger, id domain.ProductID) error {
	for _, item := range ledger.Products() {
		if item.ID == id {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\tqty %d\n", item.ID, item.Quantity)
			return err
		}
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\tnot in cart\n", id)
	return err
}

func writeCartOutput(cmd *cobra.Command, app *app, ledger *application.Ledger, asJSON bool) error {
	items := ledger.Products()
	if asJSON {
		raw, err := application.EncodeSnapshot(items)
		if err != nil {
			return err
		}

		var out bytes.Buffer
		if err := json.Indent(&out, []byte(raw), "", "  "); err != nil {
			return fmt.Errorf("format cart: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out.String())
		return err
	}

	rendered := app.cartRenderer(cartrender.Summary{Items: items, Units: ledger.ItemCount()}, cartrender.RenderOptions{})
	_, err := fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
