package twitch

import "context"

const dropCampaignsQuery = `query DropCampaignDetails {
  dropCampaigns(status: ACTIVE) {
    id name status startAt endAt detailsURL accountLinkURL
    owner { id name }
    game { id displayName boxArtURL }
    self { isAccountConnected }
    timeBasedDrops {
      id name startAt endAt requiredMinutesWatched
      benefitEdges { benefit { id name imageAssetURL } }
    }
  }
}`

type dropCampaignsResponse struct {
	DropCampaigns []RawCampaign `json:"dropCampaigns"`
}

// GetDropCampaigns returns the catalog of campaigns the api considers
// ACTIVE. Drops carry no `self` record here, progress only exists in
// the inventory query.
func (c *Client) GetDropCampaigns(ctx context.Context) ([]RawCampaign, error) {
	res, err := graphqlQuery[struct{}, dropCampaignsResponse](
		ctx, c.http, "DropCampaignDetails", dropCampaignsQuery, struct{}{},
	)
	if err != nil {
		return nil, err
	}
	return res.DropCampaigns, nil
}
