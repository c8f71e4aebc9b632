package openalex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/prereview/prereview/internal/platform/apiclient"
	"github.com/tidwall/gjson"
)

var (
	// ErrNotFound reports a DOI OpenAlex does not index.
	ErrNotFound = errors.New("openalex work not found")
	// ErrUnavailable reports an OpenAlex failure.
	ErrUnavailable = errors.New("openalex unavailable")
)

// Topic is one topic assigned to a work along with its subfield.
type Topic struct {
	ID           TopicID
	Name         string
	Subfield     SubfieldID
	SubfieldName string
}

// Categorization is what OpenAlex knows about a work's subject and language.
type Categorization struct {
	Language string
	Topics   []Topic
}

// Client reads works from the OpenAlex API.
type Client struct {
	api     apiclient.Caller
	baseURL string
	mailto  string
}

// NewClient builds a Client. An empty baseURL uses https://api.openalex.org.
func NewClient(baseURL, mailto string, httpClient *http.Client) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = "https://api.openalex.org"
	}
	return &Client{api: apiclient.New("openalex", httpClient), baseURL: baseURL, mailto: strings.TrimSpace(mailto)}
}

// Categorize returns the language and topics of the work with doi.
func (c *Client) Categorize(ctx context.Context, doi string) (Categorization, error) {
	endpoint := apiclient.JoinURL(c.baseURL, "/works/doi:"+url.PathEscape(strings.ToLower(strings.TrimSpace(doi))))
	if c.mailto != "" {
		endpoint += "?mailto=" + url.QueryEscape(c.mailto)
	}
	resp, err := c.api.Get(ctx, "works", endpoint, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return Categorization{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.Status == http.StatusNotFound {
		return Categorization{}, ErrNotFound
	}
	if !resp.OK() || !gjson.ValidBytes(resp.Body) {
		return Categorization{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.Status)
	}

	work := gjson.ParseBytes(resp.Body)
	result := Categorization{Language: strings.ToLower(work.Get("language").String())}
	work.Get("topics").ForEach(func(_, topic gjson.Result) bool {
		id := TopicID(lastSegment(topic.Get("id").String()))
		subfield := SubfieldID(lastSegment(topic.Get("subfield.id").String()))
		if id == "" || subfield == "" {
			return true
		}
		result.Topics = append(result.Topics, Topic{
			ID:           id,
			Name:         topic.Get("display_name").String(),
			Subfield:     subfield,
			SubfieldName: topic.Get("subfield.display_name").String(),
		})
		return true
	})
	return result, nil
}

func lastSegment(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.LastIndex(raw, "/"); idx != -1 {
		return raw[idx+1:]
	}
	return raw
}
