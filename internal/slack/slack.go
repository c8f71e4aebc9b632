// Package slack is a small client for the Slack Web API calls PREreview
// makes: reading and updating member profiles, posting to the community
// channel and connecting accounts through OAuth.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/prereview/prereview/internal/platform/apiclient"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

// ErrUnavailable covers every Slack failure: network errors, non-200
// responses, ok:false bodies and undecodable payloads.
var ErrUnavailable = errors.New("slack unavailable")

// Config describes the Slack app.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// BotToken posts to channels.
	BotToken string
	// OrcidFieldID is the custom profile field that holds a member's ORCID iD.
	OrcidFieldID string
}

// Profile is a member's Slack display data.
type Profile struct {
	Name  string
	Image string
}

// Connection is the result of a member authorizing the app.
type Connection struct {
	UserID      string
	AccessToken string
	Scopes      []string
}

// Client talks to Slack.
type Client struct {
	api     apiclient.Caller
	baseURL string
	oauth   oauth2.Config
	cfg     Config
}

// NewClient builds a Client. A nil httpClient uses the default timeout client.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://slack.com"
	}
	return &Client{
		api:     apiclient.New("slack", httpClient),
		baseURL: base,
		cfg:     cfg,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/oauth/v2/authorize",
				TokenURL: base + "/api/oauth.v2.access",
			},
		},
	}
}

// AuthorizeURL is where a member is sent to connect their Slack account.
func (c *Client) AuthorizeURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("user_scope", "users.profile:read,users.profile:write"),
	)
}

// Exchange trades an OAuth code for a user token. Slack returns the user
// token under authed_user rather than at the top level, so the standard
// oauth2 token exchange cannot read it.
func (c *Client) Exchange(ctx context.Context, code string) (Connection, error) {
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"code":          {strings.TrimSpace(code)},
		"redirect_uri":  {c.cfg.RedirectURL},
	}
	doc, err := c.call(ctx, "oauth.v2.access", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), "")
	if err != nil {
		return Connection{}, err
	}
	conn := Connection{
		UserID:      doc.Get("authed_user.id").String(),
		AccessToken: doc.Get("authed_user.access_token").String(),
	}
	for _, scope := range strings.Split(doc.Get("authed_user.scope").String(), ",") {
		if scope = strings.TrimSpace(scope); scope != "" {
			conn.Scopes = append(conn.Scopes, scope)
		}
	}
	if conn.UserID == "" || conn.AccessToken == "" {
		return Connection{}, fmt.Errorf("%w: oauth response missing authed_user", ErrUnavailable)
	}
	return conn, nil
}

// UserProfile reads the profile of the member that owns token.
func (c *Client) UserProfile(ctx context.Context, token string) (Profile, error) {
	doc, err := c.call(ctx, "users.profile.get", "application/x-www-form-urlencoded", nil, token)
	if err != nil {
		return Profile{}, err
	}
	profile := doc.Get("profile")
	if !profile.Exists() {
		return Profile{}, fmt.Errorf("%w: users.profile.get missing profile", ErrUnavailable)
	}
	return Profile{Name: profile.Get("real_name").String(), Image: profile.Get("image_48").String()}, nil
}

// SetOrcidField writes orcidURL into the member's ORCID profile field.
func (c *Client) SetOrcidField(ctx context.Context, token, orcidURL string) error {
	if c.cfg.OrcidFieldID == "" {
		return nil
	}
	body, err := json.Marshal(map[string]any{
		"profile": map[string]any{
			"fields": map[string]any{
				c.cfg.OrcidFieldID: map[string]string{"value": orcidURL, "alt": ""},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: encode profile: %v", ErrUnavailable, err)
	}
	_, err = c.call(ctx, "users.profile.set", "application/json; charset=utf-8", bytes.NewReader(body), token)
	return err
}

// PostMessage posts text to channel as the bot.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	body, err := json.Marshal(map[string]any{
		"channel":      channel,
		"text":         text,
		"unfurl_links": false,
		"unfurl_media": false,
	})
	if err != nil {
		return fmt.Errorf("%w: encode message: %v", ErrUnavailable, err)
	}
	_, err = c.call(ctx, "chat.postMessage", "application/json; charset=utf-8", bytes.NewReader(body), c.cfg.BotToken)
	return err
}

func (c *Client) call(ctx context.Context, method, contentType string, body io.Reader, token string) (gjson.Result, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	httpMethod := http.MethodPost
	if body == nil {
		httpMethod = http.MethodGet
		contentType = ""
	}
	resp, err := c.api.Send(ctx, method, httpMethod, apiclient.JoinURL(c.baseURL, "/api/"+method), contentType, body, header)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.Status != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("%w: %s status %d", ErrUnavailable, method, resp.Status)
	}
	if !gjson.ValidBytes(resp.Body) {
		return gjson.Result{}, fmt.Errorf("%w: %s returned invalid json", ErrUnavailable, method)
	}
	doc := gjson.ParseBytes(resp.Body)
	if !doc.Get("ok").Bool() {
		return gjson.Result{}, fmt.Errorf("%w: %s: %s", ErrUnavailable, method, doc.Get("error").String())
	}
	return doc, nil
}
