// Package tracker tracks the logged-in user's Twitch drop progress: it
// pulls inventory and campaign data from the gql api, folds in
// page-intercepted payloads, and maintains a durable ledger of every
// claim ever observed so completed campaigns stay completed.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"twitchdrops-backend/lib/kvstore"
	"twitchdrops-backend/lib/platforms/twitch"
)

var tracer = otel.Tracer("services/tracker")

// ErrNotLoggedIn is returned when no auth token is available. Nothing
// useful can be fetched anonymously, the whole api surface is
// per-user.
var ErrNotLoggedIn = errors.New("not logged into Twitch, sign in on twitch.tv first")

// TokenSource provides the user's oauth token at fetch time. Tokens
// rotate, so the service asks on every fetch instead of holding one.
type TokenSource interface {
	AuthToken(ctx context.Context) (string, error)
}

// StaticTokenSource is a TokenSource for a fixed token, mostly useful
// for the cli and tests.
type StaticTokenSource string

func (s StaticTokenSource) AuthToken(context.Context) (string, error) {
	return string(s), nil
}

type Service struct {
	store  kvstore.Store
	twitch *twitch.Client
	tokens TokenSource
	ledger *Ledger

	captureMu sync.Mutex
	capture   CaptureBuffer
}

type ServiceOptions struct {
	Store  kvstore.Store
	Twitch *twitch.Client
	Tokens TokenSource
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		store:  opts.Store,
		twitch: opts.Twitch,
		tokens: opts.Tokens,
		ledger: NewLedger(opts.Store),
	}
}

// FetchAll runs a full refresh: inventory and campaigns in parallel,
// newly observed claims recorded, everything merged and persisted.
// Inventory is the source of truth for progress, so its failure fails
// the fetch; a campaign catalog failure only degrades the result.
func (s *Service) FetchAll(ctx context.Context) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "FetchAll")
	defer span.End()

	token, err := s.tokens.AuthToken(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, fmt.Errorf("resolving auth token: %w", err)
	}
	if token == "" {
		span.SetStatus(codes.Error, ErrNotLoggedIn.Error())
		return Snapshot{}, ErrNotLoggedIn
	}
	s.twitch.SetAuthToken(token)

	var (
		wg        sync.WaitGroup
		inv       twitch.Inventory
		invErr    error
		campaigns []Campaign
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		inv, invErr = s.twitch.GetInventory(ctx)
	}()
	go func() {
		defer wg.Done()
		campaigns = s.fetchCampaigns(ctx)
	}()
	wg.Wait()

	if invErr != nil {
		span.RecordError(invErr)
		span.SetStatus(codes.Error, invErr.Error())
		return Snapshot{}, fmt.Errorf("fetching inventory: %w", invErr)
	}

	inventory := ParseInventory(inv)
	span.SetAttributes(
		attribute.Int("inventory.in_progress", len(inventory.InProgress)),
		attribute.Int("inventory.claimable", len(inventory.Claimable)),
		attribute.Int("inventory.claimed", len(inventory.Claimed)),
	)

	if err := s.ledger.Record(ctx, claimObservations(inventory)); err != nil {
		// The merge below still works off the previous ledger state,
		// the claim will be re-observed on the next fetch.
		span.RecordError(err)
		slog.Warn("failed to record claimed drops", "err", err)
	}

	byCampaign, byGame, err := s.ledger.Load(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Warn("failed to load completion ledger", "err", err)
		byCampaign, byGame = map[string]CompletionBucket{}, map[string]CompletionBucket{}
	}

	merged := MergeCampaigns(campaigns, inventory, byCampaign, byGame)
	lastUpdated := time.Now().UTC().Format(time.RFC3339)

	err = s.store.SetMerge(ctx, map[string]any{
		keyCampaigns:   merged,
		keyInventory:   inventory,
		keyLastUpdated: lastUpdated,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, fmt.Errorf("persisting snapshot: %w", err)
	}

	return Snapshot{
		Campaigns:   merged,
		Inventory:   inventory,
		LastUpdated: lastUpdated,
	}, nil
}

// claimObservations turns a fetched inventory into ledger input: every
// claimed time-based drop plus every milestone reward.
func claimObservations(inventory InventorySnapshot) []ClaimedDropObservation {
	var out []ClaimedDropObservation
	for _, drop := range inventory.Claimed {
		out = append(out, ClaimedDropObservation{
			Id:         drop.DropId,
			Name:       drop.Name,
			ImageUrl:   drop.DropImageUrl,
			Game:       drop.Game,
			CampaignId: drop.CampaignId,
			Type:       "timeBasedDrop",
		})
	}
	for _, event := range inventory.GameEventDrops {
		out = append(out, ClaimedDropObservation{
			Id:            event.Id,
			Name:          event.Name,
			ImageUrl:      event.ImageURL,
			Game:          event.GameName(),
			LastAwardedAt: event.LastAwardedAt,
			TotalCount:    event.TotalCount,
			Type:          "gameEventDrop",
		})
	}
	return out
}

// IngestCampaigns folds a page-intercepted campaign payload into the
// capture buffer and, when it grew the picture, re-merges and persists
// the campaign list.
func (s *Service) IngestCampaigns(ctx context.Context, raw json.RawMessage) error {
	ctx, span := tracer.Start(ctx, "IngestCampaigns")
	defer span.End()

	s.captureMu.Lock()
	defer s.captureMu.Unlock()

	if !s.capture.Ingest(raw) {
		span.SetAttributes(attribute.Bool("capture.changed", false))
		return nil
	}

	merged := s.capture.Merged()
	dropCount := 0
	for _, campaign := range merged {
		dropCount += len(campaign.TimeBasedDrops)
	}
	if !s.capture.AcceptDropCount(dropCount) {
		span.SetAttributes(attribute.Bool("capture.rejected", true))
		slog.Debug("rejected shrinking capture", "drops", dropCount)
		return nil
	}
	span.SetAttributes(
		attribute.Int("capture.version", s.capture.Version),
		attribute.Int("capture.drops", dropCount),
	)

	var inventory InventorySnapshot
	if _, err := s.store.GetJSON(ctx, keyInventory, &inventory); err != nil {
		span.RecordError(err)
		slog.Warn("failed to read stored inventory", "err", err)
	}
	byCampaign, byGame, err := s.ledger.Load(ctx)
	if err != nil {
		span.RecordError(err)
		byCampaign, byGame = map[string]CompletionBucket{}, map[string]CompletionBucket{}
	}

	campaigns := MergeCampaigns(ActiveCampaigns(merged), inventory, byCampaign, byGame)

	err = s.store.SetMerge(ctx, map[string]any{
		keyCampaigns:   campaigns,
		keyLastUpdated: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("persisting intercepted campaigns: %w", err)
	}
	return nil
}

// IngestClaimedDrops records claim evidence found in an intercepted
// payload.
func (s *Service) IngestClaimedDrops(ctx context.Context, raw json.RawMessage) error {
	ctx, span := tracer.Start(ctx, "IngestClaimedDrops")
	defer span.End()

	drops := ExtractClaimedDrops(raw)
	span.SetAttributes(attribute.Int("claimed.count", len(drops)))
	if len(drops) == 0 {
		return nil
	}
	if err := s.ledger.Record(ctx, drops); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Snapshot returns the last persisted state without touching the api.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Snapshot")
	defer span.End()

	var snapshot Snapshot
	if _, err := s.store.GetJSON(ctx, keyCampaigns, &snapshot.Campaigns); err != nil {
		span.RecordError(err)
		return Snapshot{}, err
	}
	if _, err := s.store.GetJSON(ctx, keyInventory, &snapshot.Inventory); err != nil {
		span.RecordError(err)
		return Snapshot{}, err
	}
	if _, err := s.store.GetJSON(ctx, keyLastUpdated, &snapshot.LastUpdated); err != nil {
		span.RecordError(err)
		return Snapshot{}, err
	}
	return snapshot, nil
}

// History returns every claim ever observed, deduplicated by drop id.
func (s *Service) History(ctx context.Context) ([]ClaimedDropObservation, error) {
	return s.ledger.History(ctx)
}
