package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"twitchdrops-backend/lib/configutil"
	"twitchdrops-backend/lib/serviceutil"
	"twitchdrops-backend/services/tracker"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func resolveToken() string {
	if token := os.Getenv("TWITCH_AUTH_TOKEN"); token != "" {
		return token
	}
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		return ""
	}
	return cfg.Token
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetches current drop progress from Twitch and prints it.",
	Run: func(cmd *cobra.Command, args []string) {
		service, db, err := openService(resolveToken())
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer db.Close()

		snapshot, err := service.FetchAll(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch drop state", err)
		}
		renderSnapshot(snapshot)
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Prints the last fetched drop state without touching Twitch.",
	Run: func(cmd *cobra.Command, args []string) {
		service, db, err := openService("")
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer db.Close()

		snapshot, err := service.Snapshot(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to read drop state", err)
		}
		renderSnapshot(snapshot)
	},
}

var bucketLabels = map[tracker.ExpiryBucket]string{
	tracker.ExpiryEnded:    "ended",
	tracker.ExpiryToday:    "ends today",
	tracker.ExpiryTomorrow: "ends tomorrow",
	tracker.ExpirySoon:     "ends soon",
	tracker.ExpiryThisWeek: "ends this week",
	tracker.ExpiryLater:    "ends later",
}

func renderSnapshot(snapshot tracker.Snapshot) {
	campaigns := make([]tracker.Campaign, len(snapshot.Campaigns))
	copy(campaigns, snapshot.Campaigns)
	tracker.SortByEndDate(campaigns)

	now := time.Now()
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Game", "Drops", "Status", "Ends"})

	var lastBucket tracker.ExpiryBucket
	for _, campaign := range campaigns {
		bucket := tracker.Expiry(campaign, now)
		if bucket != lastBucket && lastBucket != "" {
			t.AppendSeparator()
		}
		lastBucket = bucket

		status := fmt.Sprintf("%d/%d claimed", campaign.CompletedDropCount, len(campaign.Drops))
		if campaign.IsCompleted {
			status = "completed"
		}
		t.AppendRow(table.Row{
			campaign.Game,
			len(campaign.Drops),
			status,
			bucketLabels[bucket],
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()

	if snapshot.LastUpdated != "" {
		fmt.Printf("last updated: %s\n", snapshot.LastUpdated)
	}
	fmt.Printf(
		"in progress: %d, claimable: %d, claimed: %d\n",
		len(snapshot.Inventory.InProgress),
		len(snapshot.Inventory.Claimable),
		len(snapshot.Inventory.Claimed),
	)
}
