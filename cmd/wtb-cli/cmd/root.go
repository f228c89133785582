package cmd

import (
	"fmt"
	"os"
	configlibsql "wtbmonitor-backend/lib/configutil/libsql"
	"wtbmonitor-backend/services/ingest"
	ingestdb "wtbmonitor-backend/services/ingest/db"

	"github.com/spf13/cobra"
)

var Database string

var store ingest.Store

var rootCmd = &cobra.Command{
	Use:   "wtb-cli",
	Short: "wtb-cli inspects the wtbmonitor database from the terminal.",
}

func Execute() {
	db, err := configlibsql.Struct{File: Database}.OpenDB(ingestdb.Schema)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	store = ingest.NewStore(db)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
