package preprint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prereview/prereview/internal/platform/apiclient"
	"github.com/prereview/prereview/internal/platform/htmlsanitize"
	"github.com/tidwall/gjson"
)

var (
	// ErrNotFound reports a DOI that the registry does not know.
	ErrNotFound = errors.New("preprint not found")
	// ErrNotAPreprint reports a DOI that resolves to some other kind of work.
	ErrNotAPreprint = errors.New("not a preprint")
	// ErrUnavailable reports a registry that could not be reached or answered badly.
	ErrUnavailable = errors.New("preprint metadata unavailable")
)

// Author is one listed author of a preprint.
type Author struct {
	Name  string `json:"name"`
	ORCID string `json:"orcid,omitempty"`
}

// Preprint is the metadata shown on preprint pages and reviews.
type Preprint struct {
	ID       ID        `json:"id"`
	Title    string    `json:"title"`
	Authors  []Author  `json:"authors"`
	Abstract string    `json:"abstract,omitempty"`
	Posted   time.Time `json:"posted"`
	Language string    `json:"language,omitempty"`
	URL      string    `json:"url"`
}

// Getter resolves preprint metadata.
type Getter interface {
	Get(ctx context.Context, id ID) (Preprint, error)
}

// ResolverConfig points the resolver at the DOI registries.
type ResolverConfig struct {
	CrossrefURL string
	DataCiteURL string
	// Mailto joins Crossref's polite pool when set.
	Mailto string
}

// Resolver reads preprint metadata from Crossref or DataCite.
type Resolver struct {
	crossref    apiclient.Caller
	datacite    apiclient.Caller
	crossrefURL string
	dataciteURL string
	mailto      string
}

// NewResolver builds a Resolver. A nil httpClient uses the default timeout client.
func NewResolver(cfg ResolverConfig, httpClient *http.Client) *Resolver {
	crossrefURL := strings.TrimSpace(cfg.CrossrefURL)
	if crossrefURL == "" {
		crossrefURL = "https://api.crossref.org"
	}
	dataciteURL := strings.TrimSpace(cfg.DataCiteURL)
	if dataciteURL == "" {
		dataciteURL = "https://api.datacite.org"
	}
	return &Resolver{
		crossref:    apiclient.New("crossref", httpClient),
		datacite:    apiclient.New("datacite", httpClient),
		crossrefURL: crossrefURL,
		dataciteURL: dataciteURL,
		mailto:      strings.TrimSpace(cfg.Mailto),
	}
}

// Get resolves id through the registry its server uses.
func (r *Resolver) Get(ctx context.Context, id ID) (Preprint, error) {
	if id.IsZero() {
		return Preprint{}, ErrNotFound
	}
	if id.Server.UsesDataCite() {
		return r.fromDataCite(ctx, id)
	}
	return r.fromCrossref(ctx, id)
}

func (r *Resolver) fromCrossref(ctx context.Context, id ID) (Preprint, error) {
	endpoint := apiclient.JoinURL(r.crossrefURL, "/works/"+url.PathEscape(id.DOI))
	if r.mailto != "" {
		endpoint += "?mailto=" + url.QueryEscape(r.mailto)
	}
	resp, err := r.crossref.Get(ctx, "works", endpoint, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return Preprint{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.Status == http.StatusNotFound {
		return Preprint{}, ErrNotFound
	}
	if !resp.OK() || !gjson.ValidBytes(resp.Body) {
		return Preprint{}, fmt.Errorf("%w: crossref status %d", ErrUnavailable, resp.Status)
	}
	return parseCrossref(id, gjson.GetBytes(resp.Body, "message"))
}

func parseCrossref(id ID, work gjson.Result) (Preprint, error) {
	if work.Get("type").String() != "posted-content" || work.Get("subtype").String() != "preprint" {
		return Preprint{}, ErrNotAPreprint
	}
	if id.Server == ServerBioRxivMedRxiv {
		switch strings.ToLower(work.Get("institution.0.name").String()) {
		case "biorxiv":
			id.Server = ServerBioRxiv
		case "medrxiv":
			id.Server = ServerMedRxiv
		default:
			return Preprint{}, ErrNotAPreprint
		}
	}

	title := htmlsanitize.Sanitize(work.Get("title.0").String())
	if strings.TrimSpace(title) == "" {
		return Preprint{}, ErrNotAPreprint
	}
	var authors []Author
	work.Get("author").ForEach(func(_, author gjson.Result) bool {
		name := author.Get("name").String()
		if name == "" {
			name = strings.TrimSpace(author.Get("given").String() + " " + author.Get("family").String())
		}
		authors = append(authors, Author{Name: name, ORCID: orcidSuffix(author.Get("ORCID").String())})
		return true
	})

	posted := datePartsTime(work.Get("posted.date-parts.0"))
	if posted.IsZero() {
		posted = datePartsTime(work.Get("created.date-parts.0"))
	}
	link := work.Get("resource.primary.URL").String()
	if link == "" {
		link = id.URL()
	}
	return Preprint{
		ID:       id,
		Title:    title,
		Authors:  authors,
		Abstract: jatsToHTML(work.Get("abstract").String()),
		Posted:   posted,
		Language: strings.ToLower(work.Get("language").String()),
		URL:      link,
	}, nil
}

func (r *Resolver) fromDataCite(ctx context.Context, id ID) (Preprint, error) {
	endpoint := apiclient.JoinURL(r.dataciteURL, "/dois/"+url.PathEscape(id.DOI))
	resp, err := r.datacite.Get(ctx, "dois", endpoint, http.Header{"Accept": {"application/vnd.api+json"}})
	if err != nil {
		return Preprint{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.Status == http.StatusNotFound {
		return Preprint{}, ErrNotFound
	}
	if !resp.OK() || !gjson.ValidBytes(resp.Body) {
		return Preprint{}, fmt.Errorf("%w: datacite status %d", ErrUnavailable, resp.Status)
	}
	return parseDataCite(id, gjson.GetBytes(resp.Body, "data.attributes"))
}

func parseDataCite(id ID, attrs gjson.Result) (Preprint, error) {
	general := attrs.Get("types.resourceTypeGeneral").String()
	specific := attrs.Get("types.resourceType").String()
	if !strings.EqualFold(general, "Preprint") && !strings.EqualFold(specific, "Preprint") {
		return Preprint{}, ErrNotAPreprint
	}
	title := htmlsanitize.Sanitize(attrs.Get("titles.0.title").String())
	if strings.TrimSpace(title) == "" {
		return Preprint{}, ErrNotAPreprint
	}
	var authors []Author
	attrs.Get("creators").ForEach(func(_, creator gjson.Result) bool {
		name := strings.TrimSpace(creator.Get("givenName").String() + " " + creator.Get("familyName").String())
		if name == "" {
			name = creator.Get("name").String()
		}
		var orcid string
		creator.Get("nameIdentifiers").ForEach(func(_, ident gjson.Result) bool {
			if strings.EqualFold(ident.Get("nameIdentifierScheme").String(), "ORCID") {
				orcid = orcidSuffix(ident.Get("nameIdentifier").String())
				return false
			}
			return true
		})
		authors = append(authors, Author{Name: name, ORCID: orcid})
		return true
	})

	var abstract string
	attrs.Get("descriptions").ForEach(func(_, desc gjson.Result) bool {
		if desc.Get("descriptionType").String() == "Abstract" {
			abstract = htmlsanitize.Sanitize("<p>" + desc.Get("description").String() + "</p>")
			return false
		}
		return true
	})

	var posted time.Time
	attrs.Get("dates").ForEach(func(_, date gjson.Result) bool {
		kind := date.Get("dateType").String()
		if kind == "Submitted" || kind == "Issued" || kind == "Available" {
			if parsed, ok := parseLooseDate(date.Get("date").String()); ok {
				posted = parsed
				return kind != "Submitted"
			}
		}
		return true
	})
	if posted.IsZero() {
		posted, _ = parseLooseDate(attrs.Get("publicationYear").String())
	}
	link := attrs.Get("url").String()
	if link == "" {
		link = id.URL()
	}
	return Preprint{
		ID:       id,
		Title:    title,
		Authors:  authors,
		Abstract: abstract,
		Posted:   posted,
		Language: strings.ToLower(attrs.Get("language").String()),
		URL:      link,
	}, nil
}

func jatsToHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	replaced := strings.NewReplacer("<jats:", "<", "</jats:", "</").Replace(raw)
	return htmlsanitize.Sanitize(replaced)
}

func orcidSuffix(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.LastIndex(raw, "/"); idx != -1 {
		raw = raw[idx+1:]
	}
	return strings.ToUpper(raw)
}

func datePartsTime(parts gjson.Result) time.Time {
	values := parts.Array()
	if len(values) == 0 || values[0].Int() == 0 {
		return time.Time{}
	}
	month, day := 1, 1
	if len(values) > 1 {
		month = int(values[1].Int())
	}
	if len(values) > 2 {
		day = int(values[2].Int())
	}
	return time.Date(int(values[0].Int()), time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func parseLooseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01", "2006"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}
