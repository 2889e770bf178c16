package tracker

import (
	"sort"
	"time"
)

// ExpiryBucket groups campaigns by how soon they end, for display.
type ExpiryBucket string

const (
	ExpiryEnded    ExpiryBucket = "ended"
	ExpiryToday    ExpiryBucket = "today"
	ExpiryTomorrow ExpiryBucket = "tomorrow"
	ExpirySoon     ExpiryBucket = "soon"
	ExpiryThisWeek ExpiryBucket = "this_week"
	ExpiryLater    ExpiryBucket = "later"
)

// Expiry classifies a campaign's end date relative to `now`. Campaigns
// with an unparseable end date land in the last bucket rather than
// disappearing.
func Expiry(c Campaign, now time.Time) ExpiryBucket {
	end, ok := parseDate(c.EndDate)
	if !ok {
		return ExpiryLater
	}
	days := int(end.Sub(now).Hours() / 24)
	switch {
	case end.Before(now):
		return ExpiryEnded
	case days < 1:
		return ExpiryToday
	case days < 2:
		return ExpiryTomorrow
	case days < 4:
		return ExpirySoon
	case days < 8:
		return ExpiryThisWeek
	default:
		return ExpiryLater
	}
}

// SortByEndDate orders campaigns soonest-ending first, campaigns
// without a parseable end date last. Stable so equal dates keep their
// fetch order.
func SortByEndDate(campaigns []Campaign) {
	sort.SliceStable(campaigns, func(i, j int) bool {
		a, aok := parseDate(campaigns[i].EndDate)
		b, bok := parseDate(campaigns[j].EndDate)
		if aok != bok {
			return aok
		}
		return a.Before(b)
	})
}
