// Package twitch speaks the private graphql api used by the twitch
// website. The api is unversioned and uncooperative: queries mirror
// what the site itself sends and every response is treated as
// best-effort.
package twitch

import (
	"fmt"
	"time"

	"twitchdrops-backend/lib/restyutil"
	"twitchdrops-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("platforms/twitch")

const (
	BaseUrl = "https://gql.twitch.tv"
	// public client id of the twitch web player, the same one the
	// site sends for its own graphql traffic
	ClientId = "kimne78kx3ncx6brgo4mv6wki5h1ko"
)

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}

type Client struct {
	http *resty.Client
}

func NewClient() (*Client, error) {
	client := resty.New()
	client.SetBaseURL(BaseUrl)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("Client-ID", ClientId)
	client.SetTimeout(time.Second * 30)

	deviceId, err := random.String(32)
	if err != nil {
		return nil, err
	}
	client.SetHeader("X-Device-Id", deviceId)

	telemetry.InstrumentResty(client, "platforms/twitch/http")
	restyutil.InstrumentClient(client, nil, restyInstrumentOutput)

	return &Client{http: client}, nil
}

// SetAuthToken installs the session token sourced from the `auth-token`
// cookie of a logged-in twitch.tv session. The site uses the OAuth
// scheme rather than Bearer.
func (c *Client) SetAuthToken(token string) {
	c.http.SetHeader("Authorization", fmt.Sprintf("OAuth %s", token))
}
