package tracker

import (
	"time"

	"twitchdrops-backend/lib/platforms/twitch"
	"twitchdrops-backend/lib/textutil"
)

type DropStatus string

const (
	StatusLocked     DropStatus = "locked"
	StatusInProgress DropStatus = "in_progress"
	StatusClaimable  DropStatus = "claimable"
	StatusClaimed    DropStatus = "claimed"
)

// persisted kv keys, names kept stable so older databases keep working
const (
	keyCampaigns          = "campaigns"
	keyInventory          = "inventory"
	keyLastUpdated        = "lastUpdated"
	keyCompletedCampaigns = "completedCampaigns"
	keyCompletedGames     = "completedGames"
	keyClaimedHistory     = "claimedDropsHistory"
)

// Drop is a single claimable reward within a campaign.
type Drop struct {
	Id                 string     `json:"id"`
	Name               string     `json:"name"`
	ImageUrl           string     `json:"imageUrl"`
	RequiredMinutes    int        `json:"requiredMinutes"`
	StartAt            string     `json:"startAt,omitempty"`
	EndAt              string     `json:"endAt,omitempty"`
	ProgressMinutes    int        `json:"progressMinutes"`
	Status             DropStatus `json:"status"`
	ClaimedByNameMatch bool       `json:"claimedByNameMatch,omitempty"`
}

// Campaign is a time-boxed set of drops for one game. A merge always
// produces fresh Campaign values, snapshots are never patched in place.
type Campaign struct {
	Id                 string `json:"id"`
	Game               string `json:"game"`
	GameSlug           string `json:"gameSlug,omitempty"`
	Publisher          string `json:"publisher"`
	ImageUrl           string `json:"imageUrl"`
	StartDate          string `json:"startDate"`
	EndDate            string `json:"endDate"`
	DetailsURL         string `json:"detailsURL,omitempty"`
	AccountLinkURL     string `json:"accountLinkURL,omitempty"`
	IsConnected        bool   `json:"isConnected"`
	Drops              []Drop `json:"drops"`
	IsCompleted        bool   `json:"isCompleted"`
	CompletedDropCount int    `json:"completedDropCount"`
}

// ProgressDrop is an inventory drop enriched with its campaign context
// so it can be joined later without the campaign tree at hand.
type ProgressDrop struct {
	Game                string     `json:"game"`
	ImageUrl            string     `json:"imageUrl"`
	CampaignId          string     `json:"campaignId"`
	EndDate             string     `json:"endDate"`
	DropId              string     `json:"dropId"`
	Name                string     `json:"name"`
	DropImageUrl        string     `json:"dropImageUrl"`
	RequiredMinutes     int        `json:"requiredMinutes"`
	ProgressMinutes     int        `json:"progressMinutes"`
	HasPreconditionsMet bool       `json:"hasPreconditionsMet"`
	Status              DropStatus `json:"status"`
}

// InventorySnapshot is the per-fetch classification of the logged-in
// user's drop progress.
type InventorySnapshot struct {
	InProgress     []ProgressDrop         `json:"inProgress"`
	Claimable      []ProgressDrop         `json:"claimable"`
	Claimed        []ProgressDrop         `json:"claimed"`
	CampaignsRaw   []twitch.RawCampaign   `json:"campaignsRaw"`
	GameEventDrops []twitch.GameEventDrop `json:"gameEventDrops"`
}

// ClaimedDropObservation is a claimed drop as reported by the page
// interception collaborator.
type ClaimedDropObservation struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	ImageUrl      string `json:"imageUrl"`
	Game          string `json:"game"`
	CampaignId    string `json:"campaignId,omitempty"`
	LastAwardedAt string `json:"lastAwardedAt,omitempty"`
	TotalCount    int    `json:"totalCount,omitempty"`
	Type          string `json:"type,omitempty"`
}

// ClaimRecord is one claim fact inside a completion bucket.
type ClaimRecord struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	ClaimedAt string `json:"claimedAt"`
}

// CompletionBucket groups the claim facts of one campaign or one game.
type CompletionBucket struct {
	Game         string        `json:"game"`
	ClaimedDrops []ClaimRecord `json:"claimedDrops"`
}

// Snapshot is the full merged state handed to the popup.
type Snapshot struct {
	Campaigns   []Campaign        `json:"campaigns"`
	Inventory   InventorySnapshot `json:"inventory"`
	LastUpdated string            `json:"lastUpdated"`
}

// CampaignFromRaw normalizes an api campaign into the unified model.
// Drop status derives from the embedded `self` record when the payload
// carries one (page-intercepted lists sometimes do), otherwise every
// drop starts locked.
func CampaignFromRaw(c twitch.RawCampaign) Campaign {
	drops := make([]Drop, 0, len(c.TimeBasedDrops))
	for _, d := range c.TimeBasedDrops {
		drops = append(drops, Drop{
			Id:              d.Id,
			Name:            d.BenefitName(),
			ImageUrl:        d.BenefitImage(),
			RequiredMinutes: d.RequiredMinutesWatched,
			StartAt:         d.StartAt,
			EndAt:           d.EndAt,
			ProgressMinutes: dropProgressMinutes(d),
			Status:          dropStatusFromSelf(d),
		})
	}

	isConnected := false
	if c.Self != nil {
		isConnected = c.Self.IsAccountConnected
	}

	game := c.GameName()
	return Campaign{
		Id:             c.Id,
		Game:           game,
		GameSlug:       textutil.GameSlug(game),
		Publisher:      c.OwnerName(),
		ImageUrl:       c.BoxArt(),
		StartDate:      c.StartAt,
		EndDate:        c.EndAt,
		DetailsURL:     c.DetailsURL,
		AccountLinkURL: c.AccountLinkURL,
		IsConnected:    isConnected,
		Drops:          drops,
	}
}

func dropProgressMinutes(d twitch.TimeBasedDrop) int {
	if d.Self == nil {
		return 0
	}
	return d.Self.CurrentMinutesWatched
}

func dropStatusFromSelf(d twitch.TimeBasedDrop) DropStatus {
	if d.Self == nil {
		return StatusLocked
	}
	switch {
	case d.Self.IsClaimed:
		return StatusClaimed
	case d.Self.CurrentMinutesWatched >= d.RequiredMinutesWatched:
		return StatusClaimable
	case d.Self.CurrentMinutesWatched > 0 || d.Self.HasPreconditionsMet:
		return StatusInProgress
	default:
		return StatusLocked
	}
}

// ActiveCampaigns filters a raw list down to campaigns the api marks
// ACTIVE, normalizing each. The api is double-checked here even when
// the query already filtered server-side.
func ActiveCampaigns(raw []twitch.RawCampaign) []Campaign {
	out := make([]Campaign, 0, len(raw))
	for _, c := range raw {
		if c.Status != "ACTIVE" {
			continue
		}
		out = append(out, CampaignFromRaw(c))
	}
	return out
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
