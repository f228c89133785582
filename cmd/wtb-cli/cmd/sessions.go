package cmd

import (
	"log"
	"os"
	"time"
	"wtbmonitor-backend/services/ingest"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var sessionsKind string
var sessionsLimit int64

func init() {
	sessionsCmd.Flags().StringVar(&sessionsKind, "kind", "", "only show sessions of this kind (wtb or inventory)")
	sessionsCmd.Flags().Int64Var(&sessionsLimit, "limit", 50, "maximum number of sessions to show")
	rootCmd.AddCommand(sessionsCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Prints recent scrape sessions, newest first.",
	Run: func(cmd *cobra.Command, args []string) {
		sessions, err := store.ListSessions(cmd.Context(), ingest.SourceKind(sessionsKind), sessionsLimit)
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Kind", "Origin", "Started", "Completed", "Items"})

		for _, session := range sessions {
			completed := "in flight"
			if session.CompletedAt != nil {
				completed = session.CompletedAt.Format(time.ANSIC)
			}
			t.AppendRow(table.Row{
				session.ID,
				session.Kind,
				session.OriginLabel,
				session.StartedAt.Format(time.ANSIC),
				completed,
				session.ItemCount,
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
