package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"wtbmonitor-backend/services/comparison"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var compareWtbSession string
var compareInventorySession string
var compareShowNoDemand bool

func init() {
	compareCmd.Flags().StringVar(&compareWtbSession, "wtb-session", "", "wtb session id (defaults to the latest completed)")
	compareCmd.Flags().StringVar(&compareInventorySession, "inventory-session", "", "inventory session id (defaults to the latest completed)")
	compareCmd.Flags().BoolVar(&compareShowNoDemand, "no-demand", false, "also print catalog items nobody is asking for")
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Classifies marketplace demand against the shop catalog.",
	Run: func(cmd *cobra.Command, args []string) {
		svc := comparison.NewService(store)
		result, err := svc.Classify(cmd.Context(), comparison.Options{
			WtbSessionID:       compareWtbSession,
			InventorySessionID: compareInventorySession,
		})
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("wtb session:       %s\n", orNone(result.WtbSessionID))
		fmt.Printf("inventory session: %s\n", orNone(result.InventorySessionID))
		fmt.Printf("demand items: %d (from %d raw listings), catalog items: %d\n\n",
			result.Summary.TotalWtbItems, result.Summary.TotalRawWtb, result.Summary.TotalMyProducts)

		missing := table.NewWriter()
		missing.SetOutputMirror(os.Stdout)
		missing.SetTitle(fmt.Sprintf("Missing (%d)", result.Summary.MissingCount))
		missing.AppendHeader(table.Row{"Name", "SKU", "Brand", "Demand", "Sizes Wanted", "Stores"})
		for _, item := range result.Missing {
			missing.AppendRow(table.Row{
				item.WtbName, item.WtbSKU, item.Brand, item.DemandCount,
				strings.Join(item.SizesWanted, ", "),
				strings.Join(item.Stores, ", "),
			})
		}
		missing.SetStyle(table.StyleRounded)
		missing.Render()

		inStock := table.NewWriter()
		inStock.SetOutputMirror(os.Stdout)
		inStock.SetTitle(fmt.Sprintf("In Stock (%d)", result.Summary.InStockCount))
		inStock.AppendHeader(table.Row{"Wanted", "Catalog Item", "SKU", "Demand", "Price", "Confidence"})
		for _, item := range result.InStock {
			inStock.AppendRow(table.Row{
				item.WtbName, item.ProductName, item.ProductSKU, item.DemandCount,
				formatPrice(item.ProductPrice),
				fmt.Sprintf("%.2f", item.Confidence),
			})
		}
		inStock.SetStyle(table.StyleRounded)
		inStock.Render()

		if compareShowNoDemand {
			noDemand := table.NewWriter()
			noDemand.SetOutputMirror(os.Stdout)
			noDemand.SetTitle(fmt.Sprintf("No Demand (%d)", result.Summary.NoDemandCount))
			noDemand.AppendHeader(table.Row{"Name", "SKU", "Price", "Sizes"})
			for _, item := range result.NoDemand {
				noDemand.AppendRow(table.Row{
					item.ProductName, item.ProductSKU,
					formatPrice(item.ProductPrice),
					strings.Join(item.SizesAvailable, ", "),
				})
			}
			noDemand.SetStyle(table.StyleRounded)
			noDemand.Render()
		} else {
			fmt.Printf("\n%d catalog items with no demand (pass --no-demand to list them)\n", result.Summary.NoDemandCount)
		}
	},
}

func orNone(id string) string {
	if id == "" {
		return "(none)"
	}
	return id
}

func formatPrice(price *float64) string {
	if price == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *price)
}
