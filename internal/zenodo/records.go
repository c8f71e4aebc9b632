package zenodo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/prereview/prereview/internal/club"
	"github.com/prereview/prereview/internal/platform/apiclient"
	"github.com/tidwall/gjson"
)

// ResultsPerPage is the page size of review listings.
const ResultsPerPage = 10

// Query selects PREreviews from the community.
type Query struct {
	Text     string
	Field    string
	Language string
	Page     int
}

// Results is one page of PREreviews.
type Results struct {
	Total      int
	Page       int
	TotalPages int
	Records    []Prereview
}

// GetRecord fetches one PREreview including its text.
func (c *Client) GetRecord(ctx context.Context, id int) (Prereview, error) {
	resp, err := c.api.Get(ctx, "get-record",
		apiclient.JoinURL(c.baseURL, "/api/records/"+strconv.Itoa(id)),
		c.authHeader(nil),
	)
	if err != nil {
		return Prereview{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.Status == http.StatusNotFound || resp.Status == http.StatusGone {
		return Prereview{}, ErrNotFound
	}
	if !resp.OK() || !gjson.ValidBytes(resp.Body) {
		return Prereview{}, fmt.Errorf("%w: record status %d", ErrUnavailable, resp.Status)
	}
	record := gjson.ParseBytes(resp.Body)
	prereview, ok := c.parseRecord(record)
	if !ok {
		return Prereview{}, ErrNotFound
	}

	textURL := ""
	record.Get("files").ForEach(func(_, file gjson.Result) bool {
		if strings.HasSuffix(strings.ToLower(file.Get("key").String()), ".html") {
			textURL = file.Get("links.self").String()
			return false
		}
		return true
	})
	if textURL == "" {
		return Prereview{}, ErrNotFound
	}
	text, err := c.api.Get(ctx, "get-record-text", textURL, http.Header{"Accept": {"text/html"}})
	if err != nil {
		return Prereview{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !text.OK() {
		return Prereview{}, fmt.Errorf("%w: text status %d", ErrUnavailable, text.Status)
	}
	prereview.Text = sanitizeText(text.Body)
	return prereview, nil
}

// Search lists the community's PREreviews newest first.
func (c *Client) Search(ctx context.Context, query Query) (Results, error) {
	var terms []string
	if text := strings.TrimSpace(query.Text); text != "" {
		terms = append(terms, "("+text+")")
	}
	if lang := zenodoLanguage(query.Language); lang != "" {
		terms = append(terms, "language:"+lang)
	}
	if field := strings.TrimSpace(query.Field); field != "" {
		terms = append(terms, `subjects.identifier:"`+fieldSubjectURL(field)+`"`)
	}
	return c.search(ctx, "search", strings.Join(terms, " AND "), query.Page)
}

// RecordsForPreprint lists PREreviews of the preprint with doi.
func (c *Client) RecordsForPreprint(ctx context.Context, doi string) ([]Prereview, error) {
	results, err := c.search(ctx, "records-for-preprint",
		`related.identifier:"`+escapeQuery(strings.ToLower(doi))+`"`, 0)
	if err != nil {
		return nil, err
	}
	return results.Records, nil
}

// RecordsByORCID lists PREreviews with an author of that ORCID iD.
func (c *Client) RecordsByORCID(ctx context.Context, orcidID string) ([]Prereview, error) {
	results, err := c.search(ctx, "records-by-orcid", `creators.orcid:"`+escapeQuery(orcidID)+`"`, 0)
	if err != nil {
		return nil, err
	}
	return results.Records, nil
}

// RecordsByPseudonym lists PREreviews published under a pseudonym.
func (c *Client) RecordsByPseudonym(ctx context.Context, pseudonym string) ([]Prereview, error) {
	results, err := c.search(ctx, "records-by-pseudonym", `creators.name:"`+escapeQuery(pseudonym)+`"`, 0)
	if err != nil {
		return nil, err
	}
	return results.Records, nil
}

// RecordsForClub lists PREreviews written by a club.
func (c *Client) RecordsForClub(ctx context.Context, id club.ID) ([]Prereview, error) {
	found, ok := club.ByID(id)
	if !ok {
		return nil, ErrNotFound
	}
	results, err := c.search(ctx, "records-for-club", `contributors.name:"`+escapeQuery(found.Name)+`"`, 0)
	if err != nil {
		return nil, err
	}
	return results.Records, nil
}

// Recent returns the first page of the community listing.
func (c *Client) Recent(ctx context.Context) ([]Prereview, error) {
	results, err := c.search(ctx, "recent", "", 1)
	if err != nil {
		return nil, err
	}
	return results.Records, nil
}

// All pages through every PREreview in the community, newest first.
func (c *Client) All(ctx context.Context) ([]Prereview, error) {
	var out []Prereview
	for page := 1; ; page++ {
		results, err := c.list(ctx, "all", "", page, bulkPageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, results.Records...)
		if page >= results.TotalPages {
			return out, nil
		}
	}
}

const bulkPageSize = 100

// search pages with ResultsPerPage when page > 0, otherwise fetches up to
// bulkPageSize.
func (c *Client) search(ctx context.Context, operation, q string, page int) (Results, error) {
	if page > 0 {
		return c.list(ctx, operation, q, page, ResultsPerPage)
	}
	return c.list(ctx, operation, q, 0, bulkPageSize)
}

func (c *Client) list(ctx context.Context, operation, q string, page, size int) (Results, error) {
	params := url.Values{}
	params.Set("communities", c.community)
	params.Set("sort", "publication-desc")
	params.Set("access_status", "open")
	if q != "" {
		params.Set("q", q)
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	params.Set("size", strconv.Itoa(size))

	resp, err := c.api.Get(ctx, operation,
		apiclient.JoinURL(c.baseURL, "/api/records/")+"?"+params.Encode(),
		c.authHeader(nil),
	)
	if err != nil {
		return Results{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.OK() || !gjson.ValidBytes(resp.Body) {
		return Results{}, fmt.Errorf("%w: search status %d", ErrUnavailable, resp.Status)
	}
	doc := gjson.ParseBytes(resp.Body)
	results := Results{Total: int(doc.Get("hits.total").Int()), Page: max(page, 1)}
	results.TotalPages = (results.Total + size - 1) / size
	doc.Get("hits.hits").ForEach(func(_, hit gjson.Result) bool {
		if prereview, ok := c.parseRecord(hit); ok {
			results.Records = append(results.Records, prereview)
		}
		return true
	})
	if page > 1 && page > results.TotalPages {
		return Results{}, ErrNotFound
	}
	return results, nil
}

func escapeQuery(value string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(strings.TrimSpace(value))
}
