package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradehubhq/tradehub-go/internal/inventory"
	"github.com/tradehubhq/tradehub-go/internal/ledger"
	"github.com/tradehubhq/tradehub-go/pkg/enums"
	pkgerrors "github.com/tradehubhq/tradehub-go/pkg/errors"
)

var tradeQuantity int

var importCmd = &cobra.Command{
	Use:   "import <product-id>",
	Short: "Import stock from a listing (importers only)",
	Long: `Record an import transaction, decrementing the listing's stock.

Example:
  tradehub import 6f1c... --quantity 30`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(cmd, args[0], enums.TransactionKindImport)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <product-id>",
	Short: "Export stock into a listing (exporters only)",
	Long: `Record an export transaction, replenishing the listing's stock.

Example:
  tradehub export 6f1c... --quantity 150`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(cmd, args[0], enums.TransactionKindExport)
	},
}

func runTrade(cmd *cobra.Command, productID string, kind enums.TransactionKind) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.close()

	product, err := app.catalog.GetByID(cmd.Context(), productID)
	if err != nil {
		return err
	}

	result, err := app.trader.Submit(cmd.Context(), inventory.SnapshotOf(product), kind, tradeQuantity)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			return fmt.Errorf("%w (only %d available)", err, product.AvailableQuantity)
		}
		return err
	}
	if jsonOutput {
		return printJSON(result)
	}
	fmt.Printf("recorded %s of %d x %s (record %s), stock now %d\n",
		kind, result.Record.Quantity, product.Name, result.Record.ID, result.NewAvailableQuantity)
	return nil
}

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "Inspect your import records",
}

var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "Inspect your export records",
}

func recordListCmd(kind enums.TransactionKind) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List your %s records", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			actor := app.session.Actor()
			if actor == nil {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "no user signed in")
			}

			var records []ledger.Record
			if kind == enums.TransactionKindExport {
				records, err = app.ledger.ListExportsByUser(cmd.Context(), actor.ID)
			} else {
				records, err = app.ledger.ListImportsByUser(cmd.Context(), actor.ID)
			}
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(records)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPRODUCT\tQTY\tPRICE\tDATE")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					r.ID, r.Snapshot.Name, r.Quantity, r.Snapshot.Price.StringFixed(2), r.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

func recordDeleteCmd(kind enums.TransactionKind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <record-id>",
		Short: fmt.Sprintf("Delete one %s record (stock is not restored)", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			if kind == enums.TransactionKindExport {
				err = app.ledger.DeleteExport(cmd.Context(), args[0])
			} else {
				err = app.ledger.DeleteImport(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			fmt.Printf("deleted %s record %s\n", kind, args[0])
			return nil
		},
	}
}

func init() {
	importCmd.Flags().IntVar(&tradeQuantity, "quantity", 0, "Units to transact (required)")
	exportCmd.Flags().IntVar(&tradeQuantity, "quantity", 0, "Units to transact (required)")

	importsCmd.AddCommand(recordListCmd(enums.TransactionKindImport), recordDeleteCmd(enums.TransactionKindImport))
	exportsCmd.AddCommand(recordListCmd(enums.TransactionKindExport), recordDeleteCmd(enums.TransactionKindExport))

	rootCmd.AddCommand(importCmd, exportCmd, importsCmd, exportsCmd)
}
