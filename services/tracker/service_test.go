package tracker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"twitchdrops-backend/lib/kvstore"
	"twitchdrops-backend/lib/testutil"
)

func setupTracker(t *testing.T, token string) *Service {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "tracker",
		DbSchema: kvstore.Schema,
	})
	t.Cleanup(cleanup)

	return NewService(ServiceOptions{
		Store:  kvstore.NewStore(res.DB),
		Tokens: StaticTokenSource(token),
	})
}

func TestFetchAllRequiresToken(t *testing.T) {
	service := setupTracker(t, "")

	_, err := service.FetchAll(context.Background())
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSnapshotOnEmptyStore(t *testing.T) {
	service := setupTracker(t, "token")

	snapshot, err := service.Snapshot(context.Background())
	require.NoError(t, err)
	require.Empty(t, snapshot.Campaigns)
	require.Empty(t, snapshot.LastUpdated)
}

func TestIngestCampaignsPersistsMergedSnapshot(t *testing.T) {
	service := setupTracker(t, "token")
	ctx := context.Background()

	payload := `{"data":{"currentUser":{"dropCampaigns":[{
		"id":"c1",
		"name":"Rune Realm Week",
		"status":"ACTIVE",
		"startAt":"2026-03-01T00:00:00Z",
		"endAt":"2026-03-10T00:00:00Z",
		"game":{"displayName":"Rune Realm"},
		"owner":{"name":"Runeworks"},
		"timeBasedDrops":[
			{"id":"d1","name":"Epic Sword","requiredMinutesWatched":120},
			{"id":"d2","name":"Cloak","requiredMinutesWatched":240}
		]
	}]}}}`
	require.NoError(t, service.IngestCampaigns(ctx, json.RawMessage(payload)))

	snapshot, err := service.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Campaigns, 1)
	require.Equal(t, "Rune Realm", snapshot.Campaigns[0].Game)
	require.Equal(t, "rune-realm", snapshot.Campaigns[0].GameSlug)
	require.Len(t, snapshot.Campaigns[0].Drops, 2)
	require.Equal(t, StatusLocked, snapshot.Campaigns[0].Drops[0].Status)
	require.NotEmpty(t, snapshot.LastUpdated)
}

func TestIngestCampaignsSkipsInactive(t *testing.T) {
	service := setupTracker(t, "token")
	ctx := context.Background()

	payload := `{"data":{"dropCampaigns":[
		{"id":"c1","name":"Live","status":"ACTIVE"},
		{"id":"c2","name":"Over","status":"EXPIRED"}
	]}}`
	require.NoError(t, service.IngestCampaigns(ctx, json.RawMessage(payload)))

	snapshot, err := service.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Campaigns, 1)
	require.Equal(t, "c1", snapshot.Campaigns[0].Id)
}

func TestIngestCampaignsRejectsShrinkingCapture(t *testing.T) {
	service := setupTracker(t, "token")
	ctx := context.Background()

	full := `{"data":{"dropCampaigns":[{
		"id":"c1","name":"Rune Realm Week","status":"ACTIVE",
		"timeBasedDrops":[{"id":"d1"},{"id":"d2"},{"id":"d3"}]
	}]}}`
	require.NoError(t, service.IngestCampaigns(ctx, json.RawMessage(full)))

	// a later partial page load carries fewer drops and must not
	// replace the fuller snapshot
	partial := `{"data":{"dropCampaigns":[{
		"id":"c9","name":"Partial","status":"ACTIVE",
		"timeBasedDrops":[{"id":"x1"}]
	}]}}`
	require.NoError(t, service.IngestCampaigns(ctx, json.RawMessage(partial)))

	snapshot, err := service.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Campaigns, 1)
	require.Equal(t, "c1", snapshot.Campaigns[0].Id)
	require.Len(t, snapshot.Campaigns[0].Drops, 3)
}

func TestIngestClaimedDropsFeedsLedger(t *testing.T) {
	service := setupTracker(t, "token")
	ctx := context.Background()

	payload := `{"data":{"currentUser":{"inventory":{
		"gameEventDrops":[{"id":"m1","name":"Founder Badge","game":{"displayName":"Rune Realm"},"lastAwardedAt":"2025-11-02T10:00:00Z"}]
	}}}}`
	require.NoError(t, service.IngestClaimedDrops(ctx, json.RawMessage(payload)))

	history, err := service.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "m1", history[0].Id)

	_, byGame, err := service.ledger.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, byGame, "rune realm")
}

func TestIngestClaimedDropsIgnoresEmptyPayload(t *testing.T) {
	service := setupTracker(t, "token")
	ctx := context.Background()

	require.NoError(t, service.IngestClaimedDrops(ctx, json.RawMessage(`{"data":{"streams":[]}}`)))

	history, err := service.History(ctx)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestFetchCampaignsPrefersUsableCache(t *testing.T) {
	service := setupTracker(t, "token")
	ctx := context.Background()

	cached := []Campaign{
		{Id: "c1", Game: "A"},
		{Id: "c2", Game: "B"},
		{Id: "c3", Game: "C"},
	}
	require.NoError(t, service.store.SetMerge(ctx, map[string]any{keyCampaigns: cached}))

	// no twitch client is wired, a cache miss would panic here
	campaigns := service.fetchCampaigns(ctx)
	require.Len(t, campaigns, 3)
	require.Equal(t, "c1", campaigns[0].Id)
}
