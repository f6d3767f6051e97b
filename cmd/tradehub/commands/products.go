package commands

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tradehubhq/tradehub-go/internal/catalog"
	"github.com/tradehubhq/tradehub-go/pkg/pagination"
)

var (
	// products list flags
	listPage   int
	listLimit  int
	listSearch string
	listSort   string

	// products create/update flags
	productName        string
	productImage       string
	productPrice       string
	productCountry     string
	productRating      float64
	productQuantity    int
	productDescription string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse and manage catalog listings",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products",
	Long: `List one page of catalog products.

Examples:
  tradehub products list
  tradehub products list --search rice --page 2
  tradehub products list --sort -price`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		result, err := app.catalog.List(cmd.Context(), catalog.ListParams{
			Page:   listPage,
			Limit:  listLimit,
			Search: listSearch,
			Sort:   listSort,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tORIGIN\tPRICE\tRATING\tSTOCK")
		for _, p := range result.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%d\n",
				p.ID, p.Name, p.OriginCountry, p.Price.StringFixed(2), p.Rating, p.AvailableQuantity)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("page %d of %d (%d products)\n", result.Page, result.TotalPages, result.Total)
		return nil
	},
}

var productsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		product, err := app.catalog.GetByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(product)
		}
		printProduct(product)
		return nil
	},
}

var productsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a new listing (exporters only)",
	Long: `Publish a new listing owned by the acting exporter.

Example:
  tradehub products create --name "Basmati Rice" --image https://img.example/rice.jpg \
    --price 24.50 --country India --rating 4.6 --quantity 500`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		price, err := parsePrice(productPrice)
		if err != nil {
			return err
		}
		product, err := app.catalog.Create(cmd.Context(), app.session.Actor(), catalog.CreateProductInput{
			Name:              productName,
			Image:             productImage,
			Price:             price,
			OriginCountry:     productCountry,
			Rating:            productRating,
			AvailableQuantity: productQuantity,
			Description:       productDescription,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(product)
		}
		fmt.Printf("created product %s\n", product.ID)
		return nil
	},
}

var productsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace a listing's fields (exporters only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		price, err := parsePrice(productPrice)
		if err != nil {
			return err
		}
		product, err := app.catalog.Update(cmd.Context(), app.session.Actor(), args[0], catalog.UpdateProductInput{
			Name:              productName,
			Image:             productImage,
			Price:             price,
			OriginCountry:     productCountry,
			Rating:            productRating,
			AvailableQuantity: productQuantity,
			Description:       productDescription,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(product)
		}
		fmt.Printf("updated product %s\n", product.ID)
		return nil
	},
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a listing (exporters only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.catalog.Delete(cmd.Context(), app.session.Actor(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted product %s\n", args[0])
		return nil
	},
}

func printProduct(p *catalog.Product) {
	fmt.Printf("%s\n", p.Name)
	fmt.Printf("  id:       %s\n", p.ID)
	fmt.Printf("  origin:   %s\n", p.OriginCountry)
	fmt.Printf("  price:    %s\n", p.Price.StringFixed(2))
	fmt.Printf("  rating:   %.1f\n", p.Rating)
	fmt.Printf("  stock:    %d\n", p.AvailableQuantity)
	if p.Description != "" {
		fmt.Printf("  about:    %s\n", p.Description)
	}
	if p.ExporterUserID != "" {
		fmt.Printf("  exporter: %s\n", p.ExporterUserID)
	}
}

func parsePrice(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	return price, nil
}

func addProductFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&productName, "name", "", "Product name")
	cmd.Flags().StringVar(&productImage, "image", "", "Product image URL")
	cmd.Flags().StringVar(&productPrice, "price", "", "Unit price, e.g. 24.50")
	cmd.Flags().StringVar(&productCountry, "country", "", "Origin country")
	cmd.Flags().Float64Var(&productRating, "rating", 0, "Rating from 0 to 5")
	cmd.Flags().IntVar(&productQuantity, "quantity", 0, "Available quantity")
	cmd.Flags().StringVar(&productDescription, "description", "", "Product description")
}

func init() {
	productsListCmd.Flags().IntVar(&listPage, "page", 1, "Page number (1-based)")
	productsListCmd.Flags().IntVar(&listLimit, "limit", 0, "Page size (default "+strconv.Itoa(pagination.DefaultLimit)+")")
	productsListCmd.Flags().StringVar(&listSearch, "search", "", "Match product name or origin country")
	productsListCmd.Flags().StringVar(&listSort, "sort", "", "Sort key: name, price, rating (prefix - for descending)")

	addProductFieldFlags(productsCreateCmd)
	addProductFieldFlags(productsUpdateCmd)

	productsCmd.AddCommand(productsListCmd, productsGetCmd, productsCreateCmd, productsUpdateCmd, productsDeleteCmd)
	rootCmd.AddCommand(productsCmd)
}
