package tracker

import (
	"twitchdrops-backend/lib/platforms/twitch"
)

// ParseInventory classifies the raw inventory tree into the three
// status buckets. Classification precedence per drop, first match wins:
//
//  1. claimed when `self.isClaimed`
//  2. claimable when watched minutes meet the requirement
//  3. in progress when any minutes were watched or preconditions are met
//
// Everything else is omitted, a locked state only exists on the
// campaign-list side. Drops without a `self` record are skipped
// entirely since the user has no relationship to them yet.
func ParseInventory(inv twitch.Inventory) InventorySnapshot {
	snapshot := InventorySnapshot{
		InProgress:     []ProgressDrop{},
		Claimable:      []ProgressDrop{},
		Claimed:        []ProgressDrop{},
		CampaignsRaw:   inv.DropCampaignsInProgress,
		GameEventDrops: inv.GameEventDrops,
	}
	if snapshot.CampaignsRaw == nil {
		snapshot.CampaignsRaw = []twitch.RawCampaign{}
	}
	if snapshot.GameEventDrops == nil {
		snapshot.GameEventDrops = []twitch.GameEventDrop{}
	}

	for _, campaign := range inv.DropCampaignsInProgress {
		for _, drop := range campaign.TimeBasedDrops {
			if drop.Self == nil {
				continue
			}

			record := ProgressDrop{
				Game:                campaign.GameName(),
				ImageUrl:            campaign.BoxArt(),
				CampaignId:          campaign.Id,
				EndDate:             campaign.EndAt,
				DropId:              drop.Id,
				Name:                drop.BenefitName(),
				DropImageUrl:        drop.BenefitImage(),
				RequiredMinutes:     drop.RequiredMinutesWatched,
				ProgressMinutes:     drop.Self.CurrentMinutesWatched,
				HasPreconditionsMet: drop.Self.HasPreconditionsMet,
			}

			switch {
			case drop.Self.IsClaimed:
				record.Status = StatusClaimed
				snapshot.Claimed = append(snapshot.Claimed, record)
			case drop.Self.CurrentMinutesWatched >= drop.RequiredMinutesWatched:
				record.Status = StatusClaimable
				snapshot.Claimable = append(snapshot.Claimable, record)
			case drop.Self.CurrentMinutesWatched > 0 || drop.Self.HasPreconditionsMet:
				record.Status = StatusInProgress
				snapshot.InProgress = append(snapshot.InProgress, record)
			}
		}
	}

	return snapshot
}
