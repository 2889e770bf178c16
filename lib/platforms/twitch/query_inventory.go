package twitch

import "context"

const inventoryQuery = `query Inventory {
  currentUser {
    inventory {
      dropCampaignsInProgress {
        id
        name
        owner { id name }
        game { id displayName boxArtURL }
        status startAt endAt
        timeBasedDrops {
          id name requiredMinutesWatched
          self { currentMinutesWatched dropInstanceID isClaimed hasPreconditionsMet }
          benefitEdges { benefit { id name imageAssetURL } }
        }
      }
      gameEventDrops {
        id name imageURL isConnected
        game { displayName }
        lastAwardedAt totalCount
      }
    }
  }
}`

type Game struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	BoxArtURL   string `json:"boxArtURL"`
}

type Owner struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type Benefit struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	ImageAssetURL string `json:"imageAssetURL"`
}

type BenefitEdge struct {
	Benefit Benefit `json:"benefit"`
}

// DropSelf is the authenticated user's relationship to a drop. It is
// absent entirely when the user has never interacted with the campaign.
type DropSelf struct {
	CurrentMinutesWatched int    `json:"currentMinutesWatched"`
	DropInstanceID        string `json:"dropInstanceID"`
	IsClaimed             bool   `json:"isClaimed"`
	HasPreconditionsMet   bool   `json:"hasPreconditionsMet"`
}

type TimeBasedDrop struct {
	Id                     string        `json:"id"`
	Name                   string        `json:"name"`
	StartAt                string        `json:"startAt"`
	EndAt                  string        `json:"endAt"`
	RequiredMinutesWatched int           `json:"requiredMinutesWatched"`
	Self                   *DropSelf     `json:"self"`
	BenefitEdges           []BenefitEdge `json:"benefitEdges"`
}

// BenefitName prefers the reward's own display name over the internal
// drop name, matching what the site renders.
func (d TimeBasedDrop) BenefitName() string {
	if len(d.BenefitEdges) > 0 && d.BenefitEdges[0].Benefit.Name != "" {
		return d.BenefitEdges[0].Benefit.Name
	}
	return d.Name
}

func (d TimeBasedDrop) BenefitImage() string {
	if len(d.BenefitEdges) > 0 {
		return d.BenefitEdges[0].Benefit.ImageAssetURL
	}
	return ""
}

type CampaignSelf struct {
	IsAccountConnected bool `json:"isAccountConnected"`
}

// RawCampaign is a drop campaign as the api reports it, shared by the
// inventory query, the campaign-list query and page-intercepted
// payloads.
type RawCampaign struct {
	Id             string          `json:"id"`
	Name           string          `json:"name"`
	Status         string          `json:"status"`
	StartAt        string          `json:"startAt"`
	EndAt          string          `json:"endAt"`
	DetailsURL     string          `json:"detailsURL"`
	AccountLinkURL string          `json:"accountLinkURL"`
	Owner          *Owner          `json:"owner"`
	Game           *Game           `json:"game"`
	Self           *CampaignSelf   `json:"self"`
	TimeBasedDrops []TimeBasedDrop `json:"timeBasedDrops"`
}

// GameName falls back to the campaign name for campaigns without a game
// record attached.
func (c RawCampaign) GameName() string {
	if c.Game != nil && c.Game.DisplayName != "" {
		return c.Game.DisplayName
	}
	return c.Name
}

func (c RawCampaign) BoxArt() string {
	if c.Game == nil {
		return ""
	}
	return FormatBoxArtURL(c.Game.BoxArtURL)
}

func (c RawCampaign) OwnerName() string {
	if c.Owner == nil {
		return ""
	}
	return c.Owner.Name
}

// GameEventDrop is a drop not tied to a timed campaign, e.g. a viewing
// milestone reward.
type GameEventDrop struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	ImageURL      string `json:"imageURL"`
	IsConnected   bool   `json:"isConnected"`
	Game          *Game  `json:"game"`
	LastAwardedAt string `json:"lastAwardedAt"`
	TotalCount    int    `json:"totalCount"`
}

func (d GameEventDrop) GameName() string {
	if d.Game == nil {
		return ""
	}
	if d.Game.DisplayName != "" {
		return d.Game.DisplayName
	}
	return d.Game.Name
}

type Inventory struct {
	DropCampaignsInProgress []RawCampaign   `json:"dropCampaignsInProgress"`
	GameEventDrops          []GameEventDrop `json:"gameEventDrops"`
}

type inventoryResponse struct {
	CurrentUser struct {
		Inventory Inventory `json:"inventory"`
	} `json:"currentUser"`
}

func (c *Client) GetInventory(ctx context.Context) (Inventory, error) {
	res, err := graphqlQuery[struct{}, inventoryResponse](
		ctx, c.http, "Inventory", inventoryQuery, struct{}{},
	)
	if err != nil {
		return Inventory{}, err
	}
	return res.CurrentUser.Inventory, nil
}
