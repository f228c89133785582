package cmd

import (
	"fmt"
	"log"
	"os"
	"wtbmonitor-backend/services/scrape"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Imports a catalog CSV as a new inventory session.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		runner := scrape.NewRunner(store, scrape.NewStatus(), scrape.NewConsole(), nil)
		sessionID, err := runner.RunInventory(cmd.Context(), scrape.CsvSource{Reader: f})
		if err != nil {
			log.Fatal(err)
		}

		count, err := store.InventoryCount(cmd.Context(), sessionID)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("imported %d products into session %s\n", count, sessionID)
	},
}
