package main

import (
	"context"
	"os"

	"twitchdrops-backend/services/tracker"
)

type AuthConfig struct {
	// oauth token copied out of the twitch.tv `auth-token` cookie
	Token string `json:"token"`
}

type DebugConfig struct {
	// when set, every twitch request/response pair is dumped under
	// this directory
	RestyDumpDir string `json:"resty_dump_dir"`
}

type Config struct {
	Port     int         `json:"port"`
	Database string      `json:"database"`
	Auth     AuthConfig  `json:"auth"`
	Debug    DebugConfig `json:"debug"`
	// minutes between automatic refreshes, 0 disables the schedule
	RefreshMinutes int `json:"refresh_minutes"`
}

// envTokenSource reads the token fresh on every fetch so a rotated
// token only needs an env update, not a restart. Falls back to the
// config value.
type envTokenSource struct {
	fallback string
}

func (s envTokenSource) AuthToken(context.Context) (string, error) {
	if token := os.Getenv("TWITCH_AUTH_TOKEN"); token != "" {
		return token, nil
	}
	return s.fallback, nil
}

var _ tracker.TokenSource = envTokenSource{}
