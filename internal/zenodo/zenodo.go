// Package zenodo reads and publishes PREreviews as Zenodo records.
package zenodo

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prereview/prereview/internal/club"
	"github.com/prereview/prereview/internal/platform/apiclient"
	"github.com/prereview/prereview/internal/platform/htmlsanitize"
	"github.com/tidwall/gjson"
)

var (
	// ErrNotFound reports a missing or non-PREreview record.
	ErrNotFound = errors.New("zenodo record not found")
	// ErrUnavailable reports a Zenodo failure.
	ErrUnavailable = errors.New("zenodo unavailable")
)

// Author is a named author of a PREreview. ORCID is empty for pseudonyms.
type Author struct {
	Name  string
	ORCID string
}

// Prereview is a published review record.
type Prereview struct {
	ID          int
	DOI         string
	Authors     []Author
	Club        club.ID
	Language    string
	License     string
	Published   time.Time
	PreprintDOI string
	Structured  bool
	Text        string
}

// Config points the client at a Zenodo instance.
type Config struct {
	BaseURL   string
	Token     string
	Community string
}

// Client talks to the Zenodo REST API.
type Client struct {
	api       apiclient.Caller
	baseURL   string
	token     string
	community string
}

// NewClient builds a Client. A nil httpClient uses the default timeout client.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://zenodo.org"
	}
	community := strings.TrimSpace(cfg.Community)
	if community == "" {
		community = "prereview-reviews"
	}
	return &Client{
		api:       apiclient.New("zenodo", httpClient),
		baseURL:   base,
		token:     strings.TrimSpace(cfg.Token),
		community: community,
	}
}

func (c *Client) authHeader(extra http.Header) http.Header {
	header := http.Header{"Accept": {"application/json"}}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	for key, values := range extra {
		header[key] = values
	}
	return header
}

// parseRecord maps a record document onto a Prereview without its text.
func (c *Client) parseRecord(record gjson.Result) (Prereview, bool) {
	if !c.inCommunity(record) {
		return Prereview{}, false
	}
	meta := record.Get("metadata")
	var preprintDOI string
	meta.Get("related_identifiers").ForEach(func(_, related gjson.Result) bool {
		if related.Get("relation").String() == "reviews" && strings.EqualFold(related.Get("scheme").String(), "doi") {
			preprintDOI = strings.ToLower(related.Get("identifier").String())
			return false
		}
		return true
	})
	if preprintDOI == "" {
		return Prereview{}, false
	}

	var authors []Author
	meta.Get("creators").ForEach(func(_, creator gjson.Result) bool {
		authors = append(authors, Author{Name: creator.Get("name").String(), ORCID: creator.Get("orcid").String()})
		return true
	})
	var clubID club.ID
	meta.Get("contributors").ForEach(func(_, contributor gjson.Result) bool {
		if contributor.Get("type").String() != "ResearchGroup" {
			return true
		}
		for _, candidate := range club.All() {
			if candidate.Name == contributor.Get("name").String() {
				clubID = candidate.ID
				return false
			}
		}
		return true
	})
	published, _ := time.Parse("2006-01-02", meta.Get("publication_date").String())
	return Prereview{
		ID:          int(record.Get("id").Int()),
		DOI:         strings.ToLower(record.Get("doi").String()),
		Authors:     authors,
		Club:        clubID,
		Language:    isoLanguage(meta.Get("language").String()),
		License:     strings.ToUpper(meta.Get("license.id").String()),
		Published:   published,
		PreprintDOI: preprintDOI,
		Structured:  slicesContain(meta.Get("keywords").Array(), "Structured PREreview"),
	}, true
}

func (c *Client) inCommunity(record gjson.Result) bool {
	found := false
	record.Get("metadata.communities").ForEach(func(_, community gjson.Result) bool {
		if community.Get("id").String() == c.community {
			found = true
			return false
		}
		return true
	})
	return found
}

func slicesContain(values []gjson.Result, want string) bool {
	for _, value := range values {
		if value.String() == want {
			return true
		}
	}
	return false
}

// isoLanguage maps Zenodo's three-letter codes to the two-letter codes used
// across the site.
func isoLanguage(code string) string {
	switch strings.ToLower(code) {
	case "eng":
		return "en"
	case "spa":
		return "es"
	case "por":
		return "pt"
	case "fra":
		return "fr"
	case "deu":
		return "de"
	case "":
		return ""
	default:
		return strings.ToLower(code)
	}
}

func zenodoLanguage(code string) string {
	switch strings.ToLower(code) {
	case "en":
		return "eng"
	case "es":
		return "spa"
	case "pt":
		return "por"
	case "fr":
		return "fra"
	case "de":
		return "deu"
	default:
		return ""
	}
}

func sanitizeText(raw []byte) string {
	return htmlsanitize.Sanitize(string(raw))
}
