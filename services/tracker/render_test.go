package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExpiryBuckets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) Campaign {
		return Campaign{EndDate: now.Add(d).Format(time.RFC3339)}
	}

	require.Equal(t, ExpiryEnded, Expiry(at(-time.Hour), now))
	require.Equal(t, ExpiryToday, Expiry(at(6*time.Hour), now))
	require.Equal(t, ExpiryTomorrow, Expiry(at(30*time.Hour), now))
	require.Equal(t, ExpirySoon, Expiry(at(3*24*time.Hour), now))
	require.Equal(t, ExpiryThisWeek, Expiry(at(6*24*time.Hour), now))
	require.Equal(t, ExpiryLater, Expiry(at(30*24*time.Hour), now))
	require.Equal(t, ExpiryLater, Expiry(Campaign{EndDate: "soon(tm)"}, now))
}

func TestSortByEndDate(t *testing.T) {
	campaigns := []Campaign{
		{Id: "later", EndDate: "2026-03-20T00:00:00Z"},
		{Id: "undated"},
		{Id: "soon", EndDate: "2026-03-02T00:00:00Z"},
	}

	SortByEndDate(campaigns)

	require.Equal(t, "soon", campaigns[0].Id)
	require.Equal(t, "later", campaigns[1].Id)
	require.Equal(t, "undated", campaigns[2].Id)
}
