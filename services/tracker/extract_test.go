package tracker

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"twitchdrops-backend/lib/platforms/twitch"
)

func TestExtractCampaignListPaths(t *testing.T) {
	campaignJson := `{"id":"c1","name":"Rune Realm Week","status":"ACTIVE"}`

	cases := []struct {
		name    string
		payload string
	}{
		{"currentUser scope", fmt.Sprintf(`{"data":{"currentUser":{"dropCampaigns":[%s]}}}`, campaignJson)},
		{"user scope", fmt.Sprintf(`{"data":{"user":{"dropCampaigns":[%s]}}}`, campaignJson)},
		{"top level", fmt.Sprintf(`{"data":{"dropCampaigns":[%s]}}`, campaignJson)},
		{"batched responses", fmt.Sprintf(`[{"data":{}},{"data":{"dropCampaigns":[%s]}}]`, campaignJson)},
		{"bare array", fmt.Sprintf(`[%s]`, campaignJson)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			campaigns := ExtractCampaignList(json.RawMessage(tc.payload))
			require.Len(t, campaigns, 1)
			require.Equal(t, "c1", campaigns[0].Id)
		})
	}
}

func TestExtractCampaignListNoMatch(t *testing.T) {
	require.Nil(t, ExtractCampaignList(json.RawMessage(`{"data":{"streams":[]}}`)))
	require.Nil(t, ExtractCampaignList(json.RawMessage(`not json`)))
}

func TestExtractCampaignDetails(t *testing.T) {
	detail := `{"id":"c1","name":"Rune Realm Week","timeBasedDrops":[{"id":"d1"}]}`

	for _, payload := range []string{
		fmt.Sprintf(`{"data":{"dropCampaign":%s}}`, detail),
		fmt.Sprintf(`{"data":{"user":{"dropCampaign":%s}}}`, detail),
	} {
		campaign, ok := ExtractCampaignDetails(json.RawMessage(payload))
		require.True(t, ok)
		require.Equal(t, "c1", campaign.Id)
		require.Len(t, campaign.TimeBasedDrops, 1)
	}

	// a details node without drops is useless and does not match
	_, ok := ExtractCampaignDetails(json.RawMessage(`{"data":{"dropCampaign":{"id":"c1"}}}`))
	require.False(t, ok)
}

func TestExtractClaimedDrops(t *testing.T) {
	payload := `{"data":{"currentUser":{"inventory":{
		"gameEventDrops":[
			{"id":"m1","name":"Founder Badge","game":{"displayName":"Rune Realm"},"lastAwardedAt":"2025-11-02T10:00:00Z","totalCount":2}
		],
		"dropCampaignsInProgress":[{
			"id":"c1",
			"game":{"displayName":"Frostpeak"},
			"timeBasedDrops":[
				{"id":"d1","name":"Cloak","self":{"isClaimed":true}},
				{"id":"d2","name":"Banner","self":{"isClaimed":false}}
			]
		}]
	}}}}`

	drops := ExtractClaimedDrops(json.RawMessage(payload))
	require.Len(t, drops, 2)

	byId := map[string]ClaimedDropObservation{}
	for _, d := range drops {
		byId[d.Id] = d
	}

	require.Equal(t, "gameEventDrop", byId["m1"].Type)
	require.Equal(t, "Rune Realm", byId["m1"].Game)
	require.Equal(t, "2025-11-02T10:00:00Z", byId["m1"].LastAwardedAt)

	require.Equal(t, "timeBasedDrop", byId["d1"].Type)
	require.Equal(t, "Frostpeak", byId["d1"].Game)
	require.Equal(t, "c1", byId["d1"].CampaignId)

	require.NotContains(t, byId, "d2")
}

func TestExtractClaimedDropsDedupesById(t *testing.T) {
	payload := `{"data":{
		"a":{"gameEventDrops":[{"id":"m1","name":"Founder Badge"}]},
		"b":{"gameEventDrops":[{"id":"m1","name":"Founder Badge"}]}
	}}`

	drops := ExtractClaimedDrops(json.RawMessage(payload))
	require.Len(t, drops, 1)
}

func TestExtractClaimedDropsDepthBounded(t *testing.T) {
	leaf := `{"gameEventDrops":[{"id":"m1","name":"Founder Badge"}]}`
	shallow := fmt.Sprintf(`{"a":{"b":%s}}`, leaf)
	require.Len(t, ExtractClaimedDrops(json.RawMessage(shallow)), 1)

	deep := leaf
	for i := 0; i < 7; i++ {
		deep = fmt.Sprintf(`{"wrap":%s}`, deep)
	}
	require.Empty(t, ExtractClaimedDrops(json.RawMessage(deep)))
}

func TestCaptureBufferOverlaysDetails(t *testing.T) {
	var buffer CaptureBuffer

	listPayload := `{"data":{"currentUser":{"dropCampaigns":[
		{"id":"c1","name":"Rune Realm Week","status":"ACTIVE","timeBasedDrops":[{"id":"d1"}]},
		{"id":"c2","name":"Frostpeak Fest","status":"ACTIVE"}
	]}}}`
	require.True(t, buffer.Ingest(json.RawMessage(listPayload)))
	require.Equal(t, 1, buffer.Version)

	detailPayload := `{"data":{"dropCampaign":{
		"id":"c1",
		"timeBasedDrops":[{"id":"d1"},{"id":"d2"},{"id":"d3"}]
	}}}`
	require.True(t, buffer.Ingest(json.RawMessage(detailPayload)))
	require.Equal(t, 2, buffer.Version)

	merged := buffer.Merged()
	require.Len(t, merged, 2)
	require.Len(t, merged[0].TimeBasedDrops, 3)
	require.Empty(t, merged[1].TimeBasedDrops)

	require.False(t, buffer.Ingest(json.RawMessage(`{"data":{"streams":[]}}`)))
	require.Equal(t, 2, buffer.Version)
}

func TestCaptureBufferDropCountGuard(t *testing.T) {
	var buffer CaptureBuffer

	require.True(t, buffer.AcceptDropCount(5))
	require.True(t, buffer.AcceptDropCount(5))
	require.False(t, buffer.AcceptDropCount(3))
	require.True(t, buffer.AcceptDropCount(8))
}

func TestSearchDropDetailsFindsNestedNodes(t *testing.T) {
	payload := `{"data":{"viewer":{"campaigns":[
		{"id":"c1","timeBasedDrops":[{"id":"d1","requiredMinutesWatched":60}]},
		{"id":"c2","timeBasedDrops":[]}
	]}}}`

	details := searchDropDetails(json.RawMessage(payload))
	require.Len(t, details, 1)
	require.Equal(t, []twitch.TimeBasedDrop{{Id: "d1", RequiredMinutesWatched: 60}}, details["c1"])
}
