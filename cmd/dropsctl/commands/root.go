package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"twitchdrops-backend/lib/kvstore"
	"twitchdrops-backend/lib/platforms/twitch"
	"twitchdrops-backend/lib/sqliteutil"
	"twitchdrops-backend/services/tracker"
)

var dbPath *string

var rootCmd = &cobra.Command{
	Use:   "dropsctl",
	Short: "dropsctl inspects and refreshes tracked Twitch drop progress.",
}

func init() {
	dbPath = rootCmd.PersistentFlags().String("db", "drops.db", "The database the drop state lives in.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	Token string `json:"token"`
}

func openService(token string) (*tracker.Service, *sql.DB, error) {
	db, err := sqliteutil.OpenDB(kvstore.Schema, *dbPath)
	if err != nil {
		return nil, nil, err
	}
	client, err := twitch.NewClient()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	service := tracker.NewService(tracker.ServiceOptions{
		Store:  kvstore.NewStore(db),
		Twitch: client,
		Tokens: tracker.StaticTokenSource(token),
	})
	return service, db, nil
}
