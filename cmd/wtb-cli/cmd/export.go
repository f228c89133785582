package cmd

import (
	"encoding/csv"
	"log"
	"os"
	"strconv"
	"strings"
	"wtbmonitor-backend/services/comparison"

	"github.com/spf13/cobra"
)

var exportAll bool

func init() {
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export in-stock rows as well as missing ones")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Writes the comparison result to stdout as CSV.",
	Run: func(cmd *cobra.Command, args []string) {
		svc := comparison.NewService(store)
		result, err := svc.Classify(cmd.Context(), comparison.Options{})
		if err != nil {
			log.Fatal(err)
		}

		writer := csv.NewWriter(os.Stdout)
		defer writer.Flush()

		if !exportAll {
			writer.Write([]string{"Name", "SKU", "Brand", "Demand", "Sizes Wanted", "Stores"})
			for _, item := range result.Missing {
				writer.Write([]string{
					item.WtbName, item.WtbSKU, item.Brand,
					strconv.Itoa(item.DemandCount),
					strings.Join(item.SizesWanted, ", "),
					strings.Join(item.Stores, ", "),
				})
			}
			return
		}

		writer.Write([]string{"Status", "Name", "SKU", "Brand", "Demand", "Price", "URL"})
		for _, item := range result.Missing {
			writer.Write([]string{
				"missing", item.WtbName, item.WtbSKU, item.Brand,
				strconv.Itoa(item.DemandCount), "", "",
			})
		}
		for _, item := range result.InStock {
			writer.Write([]string{
				"in_stock", item.ProductName, item.ProductSKU, item.Brand,
				strconv.Itoa(item.DemandCount), formatPrice(item.ProductPrice), item.ProductURL,
			})
		}
	},
}
