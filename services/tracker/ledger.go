package tracker

import (
	"context"
	"sync"
	"time"

	"twitchdrops-backend/lib/kvstore"
	"twitchdrops-backend/lib/textutil"

	"go.opentelemetry.io/otel/codes"
)

// Ledger is the durable record of every drop the user has ever
// claimed. It exists because the live api stops reporting a claim once
// its campaign ages out of the inventory query, so claims observed once
// must be remembered forever. Claim facts are indexed twice, by
// campaign id and by normalized game name, and never pruned.
//
// All read-modify-write cycles go through a single writer lock:
// a manual refresh and a page interception can both observe claims at
// the same time, and neither may lose the other's update.
type Ledger struct {
	store kvstore.Store
	mu    sync.Mutex
}

func NewLedger(store kvstore.Store) *Ledger {
	return &Ledger{store: store}
}

// Load returns both completion indexes, empty maps when nothing was
// recorded yet.
func (l *Ledger) Load(ctx context.Context) (byCampaign, byGame map[string]CompletionBucket, err error) {
	byCampaign = map[string]CompletionBucket{}
	byGame = map[string]CompletionBucket{}

	if _, err := l.store.GetJSON(ctx, keyCompletedCampaigns, &byCampaign); err != nil {
		return nil, nil, err
	}
	if _, err := l.store.GetJSON(ctx, keyCompletedGames, &byGame); err != nil {
		return nil, nil, err
	}
	return byCampaign, byGame, nil
}

// History returns the flat audit trail of observed claims, oldest
// first. It feeds no merge logic.
func (l *Ledger) History(ctx context.Context) ([]ClaimedDropObservation, error) {
	history := []ClaimedDropObservation{}
	if _, err := l.store.GetJSON(ctx, keyClaimedHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func bucketContains(bucket CompletionBucket, id, name string) bool {
	for _, d := range bucket.ClaimedDrops {
		if d.Id == id || d.Name == name {
			return true
		}
	}
	return false
}

// Record upserts the observed claims into both indexes and appends new
// ones to the audit trail. Idempotent per drop id and per name within
// a bucket. Milestone drops keep their original award timestamp, for
// everything else the claim date is the time of observation.
func (l *Ledger) Record(ctx context.Context, drops []ClaimedDropObservation) error {
	ctx, span := tracer.Start(ctx, "ledger:Record")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	history := []ClaimedDropObservation{}
	campaigns := map[string]CompletionBucket{}
	games := map[string]CompletionBucket{}

	if _, err := l.store.GetJSON(ctx, keyClaimedHistory, &history); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if _, err := l.store.GetJSON(ctx, keyCompletedCampaigns, &campaigns); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if _, err := l.store.GetJSON(ctx, keyCompletedGames, &games); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	existingIds := make(map[string]bool, len(history))
	for _, d := range history {
		existingIds[d.Id] = true
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, drop := range drops {
		if !existingIds[drop.Id] {
			existingIds[drop.Id] = true
			history = append(history, drop)
		}

		if drop.CampaignId != "" {
			bucket, ok := campaigns[drop.CampaignId]
			if !ok {
				bucket = CompletionBucket{Game: drop.Game, ClaimedDrops: []ClaimRecord{}}
			}
			if !bucketContains(bucket, drop.Id, drop.Name) {
				bucket.ClaimedDrops = append(bucket.ClaimedDrops, ClaimRecord{
					Id:        drop.Id,
					Name:      drop.Name,
					ClaimedAt: now,
				})
			}
			campaigns[drop.CampaignId] = bucket
		}

		if drop.Game != "" {
			gameKey := textutil.NormalizeKey(drop.Game)
			bucket, ok := games[gameKey]
			if !ok {
				bucket = CompletionBucket{Game: drop.Game, ClaimedDrops: []ClaimRecord{}}
			}
			if !bucketContains(bucket, drop.Id, drop.Name) {
				claimedAt := drop.LastAwardedAt
				if claimedAt == "" {
					claimedAt = now
				}
				bucket.ClaimedDrops = append(bucket.ClaimedDrops, ClaimRecord{
					Id:        drop.Id,
					Name:      drop.Name,
					ClaimedAt: claimedAt,
				})
			}
			games[gameKey] = bucket
		}
	}

	err := l.store.SetMerge(ctx, map[string]any{
		keyClaimedHistory:     history,
		keyCompletedCampaigns: campaigns,
		keyCompletedGames:     games,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
