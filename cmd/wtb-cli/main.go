package main

import (
	"os"
	"wtbmonitor-backend/cmd/wtb-cli/cmd"
)

func main() {
	database, ok := os.LookupEnv("WTB_DB")
	if !ok {
		database = "wtbmonitor.db"
	}
	cmd.Database = database

	cmd.Execute()
}
