package tracker

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// A cached list this short is almost always a partial page capture
// rather than the real campaign catalog, so it does not count as a
// usable cache.
const minUsableCachedCampaigns = 3

// fetchCampaigns returns the campaign catalog, preferring the persisted
// list when it looks complete and falling back to the api. The catalog
// is decorative next to inventory progress, so every failure here
// degrades to an empty list instead of failing the caller.
func (s *Service) fetchCampaigns(ctx context.Context) []Campaign {
	ctx, span := tracer.Start(ctx, "fetchCampaigns")
	defer span.End()

	var cached []Campaign
	found, err := s.store.GetJSON(ctx, keyCampaigns, &cached)
	if err != nil {
		span.RecordError(err)
		slog.Warn("failed to read cached campaigns", "err", err)
	}
	if found && len(cached) >= minUsableCachedCampaigns {
		span.SetAttributes(
			attribute.Bool("campaigns.cached", true),
			attribute.Int("campaigns.count", len(cached)),
		)
		return cached
	}

	raw, err := s.twitch.GetDropCampaigns(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("failed to fetch drop campaigns", "err", err)
		return []Campaign{}
	}

	campaigns := ActiveCampaigns(raw)
	span.SetAttributes(
		attribute.Bool("campaigns.cached", false),
		attribute.Int("campaigns.count", len(campaigns)),
	)
	return campaigns
}
