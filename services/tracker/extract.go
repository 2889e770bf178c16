package tracker

import (
	"encoding/json"

	"twitchdrops-backend/lib/platforms/twitch"
)

// The page exposes the same logical entities under several top-level
// query paths depending on which screen issued the request. Extraction
// therefore runs an ordered list of shape matchers over every response
// in the payload, first non-empty match wins.

type gqlUserScope struct {
	DropCampaigns []twitch.RawCampaign `json:"dropCampaigns"`
	DropCampaign  *twitch.RawCampaign  `json:"dropCampaign"`
}

type gqlData struct {
	CurrentUser   *gqlUserScope        `json:"currentUser"`
	User          *gqlUserScope        `json:"user"`
	DropCampaigns []twitch.RawCampaign `json:"dropCampaigns"`
	DropCampaign  *twitch.RawCampaign  `json:"dropCampaign"`
}

type gqlResponse struct {
	Data gqlData `json:"data"`
}

var campaignListMatchers = []func(gqlData) []twitch.RawCampaign{
	func(d gqlData) []twitch.RawCampaign {
		if d.CurrentUser == nil {
			return nil
		}
		return d.CurrentUser.DropCampaigns
	},
	func(d gqlData) []twitch.RawCampaign {
		if d.User == nil {
			return nil
		}
		return d.User.DropCampaigns
	},
	func(d gqlData) []twitch.RawCampaign {
		return d.DropCampaigns
	},
}

// decodeResponses accepts a single graphql response or a batched array
// of them.
func decodeResponses(raw json.RawMessage) []gqlResponse {
	var batch []gqlResponse
	if err := json.Unmarshal(raw, &batch); err == nil {
		return batch
	}
	var single gqlResponse
	if err := json.Unmarshal(raw, &single); err == nil {
		return []gqlResponse{single}
	}
	return nil
}

// ExtractCampaignList pulls a campaign list out of an intercepted
// payload, whatever query shape produced it. A bare pre-extracted
// campaign array is accepted too.
func ExtractCampaignList(raw json.RawMessage) []twitch.RawCampaign {
	for _, res := range decodeResponses(raw) {
		for _, match := range campaignListMatchers {
			if campaigns := match(res.Data); len(campaigns) > 0 {
				return campaigns
			}
		}
	}

	var bare []twitch.RawCampaign
	if err := json.Unmarshal(raw, &bare); err == nil {
		out := make([]twitch.RawCampaign, 0, len(bare))
		for _, c := range bare {
			if c.Id != "" {
				out = append(out, c)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// ExtractCampaignDetails matches a single expanded campaign response.
func ExtractCampaignDetails(raw json.RawMessage) (twitch.RawCampaign, bool) {
	for _, res := range decodeResponses(raw) {
		candidates := []*twitch.RawCampaign{res.Data.DropCampaign}
		if res.Data.User != nil {
			candidates = append(candidates, res.Data.User.DropCampaign)
		}
		if res.Data.CurrentUser != nil {
			candidates = append(candidates, res.Data.CurrentUser.DropCampaign)
		}
		for _, c := range candidates {
			if c != nil && c.Id != "" && len(c.TimeBasedDrops) > 0 {
				return *c, true
			}
		}
	}
	return twitch.RawCampaign{}, false
}

const maxSearchDepth = 6

// walkJson visits every object node in an untyped json tree down to a
// bounded depth.
func walkJson(node any, depth int, visit func(map[string]any)) {
	if depth > maxSearchDepth {
		return
	}
	switch v := node.(type) {
	case map[string]any:
		visit(v)
		for _, child := range v {
			walkJson(child, depth+1, visit)
		}
	case []any:
		for _, child := range v {
			walkJson(child, depth+1, visit)
		}
	}
}

func reparse(node any, out any) bool {
	serialized, err := json.Marshal(node)
	if err != nil {
		return false
	}
	return json.Unmarshal(serialized, out) == nil
}

// ExtractClaimedDrops walks an intercepted payload for claim evidence
// wherever the page happened to embed it: milestone rewards under
// `gameEventDrops` nodes and already-claimed time-based drops under
// `dropCampaignsInProgress` nodes. Deduplicated by drop id. A bare
// pre-extracted observation array passes through unchanged.
func ExtractClaimedDrops(raw json.RawMessage) []ClaimedDropObservation {
	var bare []ClaimedDropObservation
	if err := json.Unmarshal(raw, &bare); err == nil && len(bare) > 0 && bare[0].Id != "" {
		return bare
	}

	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil
	}

	var drops []ClaimedDropObservation
	seen := map[string]bool{}

	walkJson(tree, 0, func(obj map[string]any) {
		if rawEvents, ok := obj["gameEventDrops"].([]any); ok {
			var events []twitch.GameEventDrop
			if reparse(rawEvents, &events) {
				for _, event := range events {
					if event.Id == "" || seen[event.Id] {
						continue
					}
					seen[event.Id] = true
					drops = append(drops, ClaimedDropObservation{
						Id:            event.Id,
						Name:          event.Name,
						ImageUrl:      event.ImageURL,
						Game:          event.GameName(),
						LastAwardedAt: event.LastAwardedAt,
						TotalCount:    event.TotalCount,
						Type:          "gameEventDrop",
					})
				}
			}
		}

		if rawCampaigns, ok := obj["dropCampaignsInProgress"].([]any); ok {
			var campaigns []twitch.RawCampaign
			if reparse(rawCampaigns, &campaigns) {
				for _, campaign := range campaigns {
					for _, drop := range campaign.TimeBasedDrops {
						if drop.Self == nil || !drop.Self.IsClaimed {
							continue
						}
						if drop.Id == "" || seen[drop.Id] {
							continue
						}
						seen[drop.Id] = true
						drops = append(drops, ClaimedDropObservation{
							Id:         drop.Id,
							Name:       drop.BenefitName(),
							ImageUrl:   drop.BenefitImage(),
							Game:       campaign.GameName(),
							CampaignId: campaign.Id,
							Type:       "timeBasedDrop",
						})
					}
				}
			}
		}
	})

	return drops
}

// searchDropDetails finds per-campaign drop lists wherever they sit in
// the tree, matching nodes structurally: anything with an id and a
// non-empty `timeBasedDrops` array counts.
func searchDropDetails(raw json.RawMessage) map[string][]twitch.TimeBasedDrop {
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil
	}

	details := map[string][]twitch.TimeBasedDrop{}
	walkJson(tree, 0, func(obj map[string]any) {
		id, _ := obj["id"].(string)
		rawDrops, ok := obj["timeBasedDrops"].([]any)
		if id == "" || !ok || len(rawDrops) == 0 {
			return
		}
		var drops []twitch.TimeBasedDrop
		if reparse(rawDrops, &drops) {
			details[id] = drops
		}
	})
	return details
}

// CaptureBuffer accumulates page-intercepted campaign data between
// ingests. It replaces the pile of page globals the interception used
// to share state through: one owned, versioned value, passed
// explicitly.
type CaptureBuffer struct {
	Version       int
	Campaigns     []twitch.RawCampaign
	Details       map[string][]twitch.TimeBasedDrop
	lastDropCount int
}

// Ingest folds one intercepted payload into the buffer, reporting
// whether anything changed.
func (b *CaptureBuffer) Ingest(raw json.RawMessage) bool {
	changed := false

	if campaigns := ExtractCampaignList(raw); len(campaigns) > 0 {
		b.Campaigns = campaigns
		changed = true
	}
	if campaign, ok := ExtractCampaignDetails(raw); ok {
		b.setDetails(campaign.Id, campaign.TimeBasedDrops)
		changed = true
	}
	for id, drops := range searchDropDetails(raw) {
		b.setDetails(id, drops)
		changed = true
	}

	if changed {
		b.Version++
	}
	return changed
}

func (b *CaptureBuffer) setDetails(id string, drops []twitch.TimeBasedDrop) {
	if b.Details == nil {
		b.Details = map[string][]twitch.TimeBasedDrop{}
	}
	b.Details[id] = drops
}

// Merged overlays captured per-campaign details onto the captured
// list. Detail payloads come from expanding a campaign on the page and
// are fresher than the list's own drops.
func (b *CaptureBuffer) Merged() []twitch.RawCampaign {
	out := make([]twitch.RawCampaign, len(b.Campaigns))
	for i, campaign := range b.Campaigns {
		if drops, ok := b.Details[campaign.Id]; ok {
			campaign.TimeBasedDrops = drops
		}
		out[i] = campaign
	}
	return out
}

// AcceptDropCount implements the monotonicity guard on intercepted
// batches: a capture carrying fewer drops than a previous one is a
// partial page load, not fresher data, and is rejected.
func (b *CaptureBuffer) AcceptDropCount(count int) bool {
	if count < b.lastDropCount {
		return false
	}
	b.lastDropCount = count
	return true
}
