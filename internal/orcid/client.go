package orcid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prereview/prereview/internal/platform/apiclient"
	"github.com/prereview/prereview/internal/platform/metrics"
	"github.com/prereview/prereview/internal/platform/otel"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

var (
	// ErrUnavailable reports that ORCID could not be reached or answered badly.
	ErrUnavailable = errors.New("orcid unavailable")
	// ErrNotFound reports an unknown ORCID record.
	ErrNotFound = errors.New("orcid record not found")
)

// Config describes the ORCID OAuth application.
type Config struct {
	ClientID     string
	ClientSecret string
	// BaseURL hosts the OAuth endpoints, normally https://orcid.org.
	BaseURL string
	// APIURL hosts the public API, normally https://pub.orcid.org.
	APIURL      string
	RedirectURL string
}

// Identity is who completed an ORCID log-in.
type Identity struct {
	ORCID ID
	Name  string
}

// Details is the public name data on an ORCID record.
type Details struct {
	GivenNames string
	FamilyName string
	CreditName string
}

// DisplayName prefers the credit name over given plus family name.
func (d Details) DisplayName() string {
	if name := strings.TrimSpace(d.CreditName); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(d.GivenNames) + " " + strings.TrimSpace(d.FamilyName))
}

// Client talks to ORCID.
type Client struct {
	oauth      oauth2.Config
	api        apiclient.Caller
	apiURL     string
	httpClient *http.Client
}

// NewClient builds a Client. A nil httpClient uses the default timeout client.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://orcid.org"
	}
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = "https://pub.orcid.org"
	}
	caller := apiclient.New("orcid", httpClient)
	return &Client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"/authenticate"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/oauth/authorize",
				TokenURL:  base + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		api:        caller,
		apiURL:     apiURL,
		httpClient: caller.HTTP,
	}
}

// AuthorizeURL is where a visitor is sent to log in.
func (c *Client) AuthorizeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for the logged-in identity.
func (c *Client) Exchange(ctx context.Context, code string) (identity Identity, err error) {
	ctx, span := otel.StartSpan(ctx, "orcid", "token")
	defer func() {
		metrics.ObserveExternal("orcid", "token", err)
		otel.EndSpan(span, err)
	}()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: exchange code: %v", ErrUnavailable, err)
	}
	rawID, _ := token.Extra("orcid").(string)
	id, err := ParseID(rawID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: token carried %q", ErrUnavailable, rawID)
	}
	name, _ := token.Extra("name").(string)
	return Identity{ORCID: id, Name: strings.TrimSpace(name)}, nil
}

// PersonalDetails reads the public names on an ORCID record.
func (c *Client) PersonalDetails(ctx context.Context, id ID) (Details, error) {
	resp, err := c.api.Get(ctx, "personal-details",
		apiclient.JoinURL(c.apiURL, "/v3.0/"+id.String()+"/personal-details"),
		http.Header{"Accept": {"application/json"}},
	)
	if err != nil {
		return Details{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.Status == http.StatusNotFound {
		return Details{}, ErrNotFound
	}
	if !resp.OK() || !gjson.ValidBytes(resp.Body) {
		return Details{}, fmt.Errorf("%w: personal details status %d", ErrUnavailable, resp.Status)
	}
	doc := gjson.ParseBytes(resp.Body)
	return Details{
		GivenNames: doc.Get("name.given-names.value").String(),
		FamilyName: doc.Get("name.family-name.value").String(),
		CreditName: doc.Get("name.credit-name.value").String(),
	}, nil
}
