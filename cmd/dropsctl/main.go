package main

import (
	"context"

	"twitchdrops-backend/cmd/dropsctl/commands"
	"twitchdrops-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "dropsctl")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
