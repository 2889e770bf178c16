package tracker

import (
	"time"

	"twitchdrops-backend/lib/textutil"
)

type dropProgress struct {
	ProgressMinutes int
	Status          DropStatus
}

// buildProgressIndex maps drop id to the live progress reported by the
// inventory. Each drop id lands in exactly one bucket by construction
// of ParseInventory.
func buildProgressIndex(inventory InventorySnapshot) map[string]dropProgress {
	index := make(map[string]dropProgress)
	for _, bucket := range [][]ProgressDrop{inventory.InProgress, inventory.Claimable, inventory.Claimed} {
		for _, d := range bucket {
			index[d.DropId] = dropProgress{
				ProgressMinutes: d.ProgressMinutes,
				Status:          d.Status,
			}
		}
	}
	return index
}

// buildClaimedByNameIndex maps a normalized drop name to every known
// claim date for it: ledger claims recorded per game plus live
// milestone drops, which carry their own award timestamp.
func buildClaimedByNameIndex(
	completedGames map[string]CompletionBucket,
	inventory InventorySnapshot,
) map[string][]time.Time {
	index := make(map[string][]time.Time)

	add := func(name, claimedAt string) {
		key := textutil.NormalizeKey(name)
		if key == "" {
			return
		}
		if _, ok := index[key]; !ok {
			index[key] = []time.Time{}
		}
		if date, ok := parseDate(claimedAt); ok {
			index[key] = append(index[key], date)
		}
	}

	for _, bucket := range completedGames {
		for _, d := range bucket.ClaimedDrops {
			add(d.Name, d.ClaimedAt)
		}
	}
	for _, d := range inventory.GameEventDrops {
		add(d.Name, d.LastAwardedAt)
	}

	return index
}

// claimedWithinWindow reports whether a drop with this name was ever
// claimed inside the campaign's own active window, both bounds
// inclusive. The window gate exists because drop ids are not stable
// across a campaign's lifecycle: a drop claimed while its campaign was
// in progress can vanish from the inventory query once the campaign is
// merely active, so the name is the only surviving join key. Bounding
// by the window keeps a same-named drop from an unrelated campaign
// from counting.
func claimedWithinWindow(
	dropName string,
	claimedByName map[string][]time.Time,
	startDate, endDate string,
) bool {
	if dropName == "" {
		return false
	}
	dates := claimedByName[textutil.NormalizeKey(dropName)]
	if len(dates) == 0 {
		return false
	}

	start, okStart := parseDate(startDate)
	end, okEnd := parseDate(endDate)
	if !okStart || !okEnd {
		return false
	}

	for _, claimed := range dates {
		if !claimed.Before(start) && !claimed.After(end) {
			return true
		}
	}
	return false
}

func checkCompletion(drops []Drop, hasLedgerRecord bool) bool {
	if hasLedgerRecord {
		return true
	}
	if len(drops) > 0 {
		allClaimed := true
		for _, d := range drops {
			if d.Status != StatusClaimed {
				allClaimed = false
				break
			}
		}
		if allClaimed {
			return true
		}
	}
	for _, d := range drops {
		if d.ClaimedByNameMatch {
			return true
		}
	}
	return false
}

func countClaimed(drops []Drop) int {
	count := 0
	for _, d := range drops {
		if d.Status == StatusClaimed {
			count++
		}
	}
	return count
}

// MergeCampaigns reconciles the three views of drop state into one
// authoritative campaign list. Inputs are treated as read-only, the
// result is always a freshly built snapshot.
//
// Two regimes exist. When an explicit campaign list is available the
// inventory and ledger are overlaid onto it (the usual path). When the
// list is missing but the inventory carries a raw campaign tree, the
// campaigns are reconstructed from that tree instead.
func MergeCampaigns(
	campaigns []Campaign,
	inventory InventorySnapshot,
	completedCampaigns map[string]CompletionBucket,
	completedGames map[string]CompletionBucket,
) []Campaign {
	progress := buildProgressIndex(inventory)
	claimedByName := buildClaimedByNameIndex(completedGames, inventory)

	if len(campaigns) == 0 && len(inventory.CampaignsRaw) > 0 {
		return rebuildFromInventory(inventory, progress, claimedByName, completedCampaigns)
	}

	out := make([]Campaign, 0, len(campaigns))
	for _, campaign := range campaigns {
		merged := campaign
		_, hasLedgerRecord := completedCampaigns[campaign.Id]

		drops := make([]Drop, len(campaign.Drops))
		for i, drop := range campaign.Drops {
			if p, ok := progress[drop.Id]; ok {
				// exact id match from the inventory is authoritative
				drop.ProgressMinutes = p.ProgressMinutes
				drop.Status = p.Status
			} else if claimedWithinWindow(drop.Name, claimedByName, campaign.StartDate, campaign.EndDate) {
				// recovered from a prior session, do not invent a
				// progress figure the api never reported
				drop.Status = StatusClaimed
				drop.ClaimedByNameMatch = true
			}
			drops[i] = drop
		}

		merged.Drops = drops
		merged.IsCompleted = checkCompletion(drops, hasLedgerRecord)
		merged.CompletedDropCount = countClaimed(drops)
		out = append(out, merged)
	}
	return out
}

// rebuildFromInventory reconstructs campaigns from the inventory's own
// campaign tree, used when only the inventory query succeeded. Unlike
// the overlay path there is no locked baseline to preserve, so a
// name-matched claim also forces progress up to the requirement.
func rebuildFromInventory(
	inventory InventorySnapshot,
	progress map[string]dropProgress,
	claimedByName map[string][]time.Time,
	completedCampaigns map[string]CompletionBucket,
) []Campaign {
	out := make([]Campaign, 0, len(inventory.CampaignsRaw))
	for _, raw := range inventory.CampaignsRaw {
		_, hasLedgerRecord := completedCampaigns[raw.Id]

		drops := make([]Drop, 0, len(raw.TimeBasedDrops))
		for _, rawDrop := range raw.TimeBasedDrops {
			p, ok := progress[rawDrop.Id]
			if !ok {
				p = dropProgress{ProgressMinutes: 0, Status: StatusLocked}
			}
			name := rawDrop.BenefitName()

			drop := Drop{
				Id:              rawDrop.Id,
				Name:            name,
				ImageUrl:        rawDrop.BenefitImage(),
				RequiredMinutes: rawDrop.RequiredMinutesWatched,
				ProgressMinutes: p.ProgressMinutes,
				Status:          p.Status,
			}
			if claimedWithinWindow(name, claimedByName, raw.StartAt, raw.EndAt) {
				drop.Status = StatusClaimed
				drop.ProgressMinutes = rawDrop.RequiredMinutesWatched
				drop.ClaimedByNameMatch = true
			}
			drops = append(drops, drop)
		}

		game := raw.GameName()
		out = append(out, Campaign{
			Id:                 raw.Id,
			Game:               game,
			GameSlug:           textutil.GameSlug(game),
			Publisher:          raw.OwnerName(),
			ImageUrl:           raw.BoxArt(),
			StartDate:          raw.StartAt,
			EndDate:            raw.EndAt,
			Drops:              drops,
			IsCompleted:        checkCompletion(drops, hasLedgerRecord),
			CompletedDropCount: countClaimed(drops),
		})
	}
	return out
}
