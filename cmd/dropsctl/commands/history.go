package commands

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"twitchdrops-backend/lib/serviceutil"
)

func init() {
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Prints every drop claim ever observed.",
	Run: func(cmd *cobra.Command, args []string) {
		service, db, err := openService("")
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer db.Close()

		history, err := service.History(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to read claim history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Drop", "Game", "Type", "Awarded"})
		for _, drop := range history {
			t.AppendRow(table.Row{drop.Name, drop.Game, drop.Type, drop.LastAwardedAt})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
