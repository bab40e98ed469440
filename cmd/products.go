package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newProductsCmd(app *app) *cobra.Command {
	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the product catalog",
	}

	productsCmd.AddCommand(newProductsListCmd(app))

	return productsCmd
}

func newProductsListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := app.catalog.ListProducts(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(products)
			}

			for _, product := range products {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.2f\n", product.ID, product.Title, product.Price)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print products as JSON")

	return cmd
}
